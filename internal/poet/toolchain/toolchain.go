// Package toolchain drives the external Coq compiler and checker over the
// certificate files written by the certificate package, fanning out across
// a worker pool of bounded degree (spec §6, "External proof toolchain";
// grounded on the original run_poet's compile_certificates /
// verify_certificates / Parallel(n_jobs=...)).
package toolchain

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"
)

// generatedFileExtensions lists the file types a run produces, used by
// Clean to remove stale output without deleting user-supplied files.
var generatedFileExtensions = map[string]bool{
	".sh":   true,
	".v":    true,
	".vo":   true,
	".vok":  true,
	".vos":  true,
	".glob": true,
	".aux":  true,
}

// Result records one compile or verify invocation's outcome.
type Result struct {
	File     string
	Duration time.Duration
	Err      error
}

// CompileCertificate runs coqc over file inside dir, optionally pointing
// -Q at prosaPath. Returns the wall-clock duration on success.
func CompileCertificate(ctx context.Context, prosaPath, dir, file string) (time.Duration, error) {
	args := []string{"-w", "-notation-overriden,-parsing,-projection-no-head-constant", file}
	if prosaPath != "" {
		args = append(args, "-Q", prosaPath, "prosa")
	}
	return runTimed(ctx, dir, "coqc", args...)
}

// VerifyCertificate runs coqchk over the compiled file (.vo) inside dir,
// optionally pointing -R at prosaPath and skipping dependency checks.
func VerifyCertificate(ctx context.Context, prosaPath, dir, file string, withoutDependencies bool) (time.Duration, error) {
	args := []string{"-o", "-silent"}
	if prosaPath != "" {
		args = append(args, "-R", prosaPath, "prosa")
	}
	if withoutDependencies {
		args = append(args, "-norec")
	}
	args = append(args, file)
	return runTimed(ctx, dir, "coqchk", args...)
}

func runTimed(ctx context.Context, dir, name string, args ...string) (time.Duration, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("%s %v: %w", name, args, err)
	}
	return time.Since(start), nil
}

// CompileAll compiles every file in files concurrently, at most jobs at a
// time, and returns one Result per file in input order. A failure in one
// file does not stop the others; the caller inspects each Result.Err.
func CompileAll(ctx context.Context, prosaPath, dir string, files []string, jobs int) []Result {
	return runAll(ctx, files, jobs, func(ctx context.Context, file string) (time.Duration, error) {
		return CompileCertificate(ctx, prosaPath, dir, file)
	})
}

// VerifyAll verifies every .vo file in files concurrently, at most jobs at
// a time.
func VerifyAll(ctx context.Context, prosaPath, dir string, files []string, jobs int, withoutDependencies bool) []Result {
	return runAll(ctx, files, jobs, func(ctx context.Context, file string) (time.Duration, error) {
		return VerifyCertificate(ctx, prosaPath, dir, file, withoutDependencies)
	})
}

func runAll(ctx context.Context, files []string, jobs int, run func(context.Context, string) (time.Duration, error)) []Result {
	results := make([]Result, len(files))
	g, gctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			d, err := run(gctx, f)
			results[i] = Result{File: f, Duration: d, Err: err}
			return nil
		})
	}
	// Errors are per-file and already captured in results; g.Wait() cannot
	// fail since run never returns a non-nil error from the goroutine
	// itself (errgroup would otherwise cancel the remaining siblings).
	_ = g.Wait()
	return results
}

// AllSucceeded reports whether every result in results completed without
// error.
func AllSucceeded(results []Result) bool {
	for _, r := range results {
		if r.Err != nil {
			return false
		}
	}
	return true
}

// Clean removes stale generated files from dir. When deleteAll is true the
// entire directory is removed; otherwise only files whose extension is a
// known generated type are deleted, leaving anything else untouched.
func Clean(dir string, deleteAll bool) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}

	if deleteAll {
		return os.RemoveAll(dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("toolchain: reading %s: %w", dir, err)
	}
	for _, e := range entries {
		if generatedFileExtensions[filepath.Ext(e.Name())] {
			if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
				return fmt.Errorf("toolchain: removing %s: %w", e.Name(), err)
			}
		}
	}
	return nil
}

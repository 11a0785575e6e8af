package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/prosa-project/poet/internal/poet/analysis"
	"github.com/prosa-project/poet/internal/poet/certificate"
	"github.com/prosa-project/poet/internal/poet/config"
	"github.com/prosa-project/poet/internal/poet/problem"
	"github.com/prosa-project/poet/internal/poet/stats"
	"github.com/prosa-project/poet/internal/poet/task"
	"github.com/prosa-project/poet/internal/poet/toolchain"
)

// exitError lets runPoet propagate a specific process exit code up through
// Execute() without every intermediate caller threading it by hand.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit %d", e.code) }

func exitf(code int, format string, args ...any) error {
	if format != "" {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
	return &exitError{code: code}
}

// runOptions mirrors the CLI flags relevant to a single run (spec §6, "CLI
// surface").
type runOptions struct {
	inputPath                 string
	outputPath                string
	prosaPath                 string
	jobs                      int
	verifyOnlyID              int
	hasVerifyOnlyID           bool
	cleanOutputFolder         bool
	deleteCertificates        bool
	saveStats                 bool
	boundedTardinessAllowed   bool
	testSchedulability        bool
	repeatDeclaration         bool
	verifyWithoutDependencies bool
	noCheck                   bool
}

func runPoet(opts runOptions) error {
	sw := stats.NewStopwatch()
	sw.Start("total_poet_time")
	sw.Start("total_time")

	certificatesPath, statsFolder := resolvePaths(opts)

	if fi, err := os.Stat(opts.inputPath); err != nil || fi.IsDir() {
		return exitf(1, "Input file not found: %s", opts.inputPath)
	}

	p, err := config.Read(opts.inputPath)
	if err != nil {
		return exitf(80, "Failed to parse input: %v", err)
	}
	if opts.hasVerifyOnlyID && !hasTaskID(p, int64(opts.verifyOnlyID)) {
		return exitf(1, "Task id %d was specified, but there is no task with such id.", opts.verifyOnlyID)
	}

	ctx := context.Background()
	results, err := analysis.Analyze(ctx, p)
	if err != nil {
		return exitf(1, "Analysis failed: %v", err)
	}

	if err := checkSchedulability(p, results, opts); err != nil {
		return err
	}

	if opts.cleanOutputFolder {
		if err := toolchain.Clean(certificatesPath, false); err != nil {
			return exitf(1, "%v", err)
		}
	}
	if err := os.MkdirAll(certificatesPath, 0o755); err != nil {
		return exitf(1, "Could not create output folder: %v", err)
	}

	declarationVName, err := generateCertificates(p, results, certificatesPath, opts)
	if err != nil {
		return exitf(1, "%v", err)
	}

	sw.Pause("total_poet_time")

	if opts.noCheck {
		return nil
	}

	sw.Start("total_coq_time")
	compileResults, taskToVerify := compileCertificates(ctx, p, certificatesPath, opts, sw, declarationVName)
	sw.Pause("total_coq_time")
	coqSuccess := toolchain.AllSucceeded(compileResults)

	checkSuccess := false
	if coqSuccess {
		sw.Start("total_coqchk_time")
		checkSuccess = verifyCertificates(ctx, p, certificatesPath, taskToVerify, opts, sw)
		sw.Pause("total_coqchk_time")
		sw.Pause("total_time")
	}

	report := stats.New(p, results, sw)
	return finalizeRun(certificatesPath, statsFolder, report, coqSuccess, coqSuccess && checkSuccess, opts, compileResults)
}

func resolvePaths(opts runOptions) (certificatesPath, statsFolder string) {
	if opts.outputPath != "" {
		return opts.outputPath, opts.outputPath
	}
	dir := filepath.Dir(opts.inputPath)
	return filepath.Join(dir, "certificates"), dir
}

func hasTaskID(p *problem.Problem, id int64) bool {
	for _, t := range p.Tasks {
		if t.ID == id {
			return true
		}
	}
	return false
}

func checkSchedulability(p *problem.Problem, results *analysis.AnalysisResults, opts runOptions) error {
	if opts.testSchedulability {
		fmt.Print(results)
		switch {
		case results.AllDeadlinesRespected():
			fmt.Println("Task set is schedulable")
		case results.ResponseTimeIsBounded():
			fmt.Println("Task set is not schedulable (deadlines may be missed), but response times are bounded.")
		default:
			fmt.Println("At least one task has an unbounded response time.")
		}
		return exitf(0, "")
	}

	if !opts.boundedTardinessAllowed && !results.AllDeadlinesRespected() {
		return exitf(1, "There is a deadline violation; unable to generate certificates.")
	}
	if opts.boundedTardinessAllowed && !results.ResponseTimeIsBounded() {
		fmt.Fprintf(os.Stderr, "At least one response time is unbounded; unable to generate certificates.\nTotal utilization: %.2f%%\n", p.TotalUtilization()*100)
		for _, t := range p.Tasks {
			fmt.Fprintf(os.Stderr, "- Task %d: %.2f%%\n", t.ID, t.Utilization()*100)
		}
		return exitf(1, "")
	}
	return nil
}

func generateCertificates(p *problem.Problem, results *analysis.AnalysisResults, certificatesPath string, opts runOptions) (string, error) {
	certOpts := certificate.Options{
		BoundedTardinessAllowed: opts.boundedTardinessAllowed,
		SplitDeclaration:        !opts.repeatDeclaration,
	}

	var sharedDeclaration string
	for _, t := range p.Tasks {
		proof, declaration, err := certificate.Generate(p, t, results.Results[t.ID], certOpts)
		if err != nil {
			return "", err
		}
		if sharedDeclaration == "" {
			sharedDeclaration = declaration
		}
		if err := os.WriteFile(filepath.Join(certificatesPath, t.Name()+".v"), []byte(proof), 0o644); err != nil {
			return "", fmt.Errorf("saving certificate for task %d: %w", t.ID, err)
		}
	}

	declarationVName := certificate.TaskSetDeclarationFileName + ".v"
	if !opts.repeatDeclaration {
		if err := os.WriteFile(filepath.Join(certificatesPath, declarationVName), []byte(sharedDeclaration), 0o644); err != nil {
			return "", fmt.Errorf("saving task-set declaration: %w", err)
		}
	}
	return declarationVName, nil
}

func compileCertificates(ctx context.Context, p *problem.Problem, certificatesPath string, opts runOptions, sw *stats.Stopwatch, declarationVName string) ([]toolchain.Result, *task.Task) {
	var taskToVerify *task.Task
	if opts.hasVerifyOnlyID {
		for _, t := range p.Tasks {
			if t.ID == int64(opts.verifyOnlyID) {
				taskToVerify = t
				break
			}
		}
		var results []toolchain.Result
		if !opts.repeatDeclaration {
			d, err := toolchain.CompileCertificate(ctx, opts.prosaPath, certificatesPath, declarationVName)
			results = append(results, toolchain.Result{File: declarationVName, Duration: d, Err: err})
		}
		d, err := toolchain.CompileCertificate(ctx, opts.prosaPath, certificatesPath, taskToVerify.Name()+".v")
		results = append(results, toolchain.Result{File: taskToVerify.Name() + ".v", Duration: d, Err: err})
		for _, r := range results {
			sw.SetTime(strings.TrimSuffix(r.File, ".v")+"_coq_time", r.Duration)
		}
		return results, taskToVerify
	}

	var results []toolchain.Result
	if !opts.repeatDeclaration {
		d, err := toolchain.CompileCertificate(ctx, opts.prosaPath, certificatesPath, declarationVName)
		results = append(results, toolchain.Result{File: declarationVName, Duration: d, Err: err})
	}

	taskFiles := make([]string, len(p.Tasks))
	for i, t := range p.Tasks {
		taskFiles[i] = t.Name() + ".v"
	}
	taskResults := toolchain.CompileAll(ctx, opts.prosaPath, certificatesPath, taskFiles, opts.jobs)
	results = append(results, taskResults...)

	for _, r := range results {
		sw.SetTime(strings.TrimSuffix(r.File, ".v")+"_coq_time", r.Duration)
	}
	return results, nil
}

func verifyCertificates(ctx context.Context, p *problem.Problem, certificatesPath string, taskToVerify *task.Task, opts runOptions, sw *stats.Stopwatch) bool {
	if opts.hasVerifyOnlyID {
		ok := true
		if !opts.repeatDeclaration {
			declVo := certificate.TaskSetDeclarationFileName + ".vo"
			d, err := toolchain.VerifyCertificate(ctx, opts.prosaPath, certificatesPath, declVo, opts.verifyWithoutDependencies)
			sw.SetTime(strings.TrimSuffix(declVo, ".vo")+"_coqchk_time", d)
			ok = ok && err == nil
		}
		vo := taskToVerify.Name() + ".vo"
		d, err := toolchain.VerifyCertificate(ctx, opts.prosaPath, certificatesPath, vo, opts.verifyWithoutDependencies)
		sw.SetTime(strings.TrimSuffix(vo, ".vo")+"_coqchk_time", d)
		return ok && err == nil
	}

	voFiles := make([]string, 0, len(p.Tasks)+1)
	if !opts.repeatDeclaration {
		voFiles = append(voFiles, certificate.TaskSetDeclarationFileName+".vo")
	}
	for _, t := range p.Tasks {
		voFiles = append(voFiles, t.Name()+".vo")
	}

	results := toolchain.VerifyAll(ctx, opts.prosaPath, certificatesPath, voFiles, opts.jobs, opts.verifyWithoutDependencies)
	for _, r := range results {
		sw.SetTime(strings.TrimSuffix(r.File, ".vo")+"_coqchk_time", r.Duration)
	}
	return toolchain.AllSucceeded(results)
}

func finalizeRun(certificatesPath, statsFolder string, report *stats.Statistics, coqSuccess, success bool, opts runOptions, compileResults []toolchain.Result) error {
	if opts.deleteCertificates {
		if err := toolchain.Clean(certificatesPath, true); err != nil {
			logrus.Warnf("could not delete certificates: %v", err)
		}
	}

	if success {
		fmt.Println("Stats for:", certificatesPath)
		fmt.Print(report)
	} else if coqSuccess {
		fmt.Fprintf(os.Stderr, "ERROR: Could not verify certificates (path: %s)\n", certificatesPath)
	} else {
		fmt.Fprintf(os.Stderr, "ERROR: Could not compile certificates (path: %s)\n", certificatesPath)
	}

	if opts.saveStats {
		name := "stats.yaml"
		if !success {
			name = "stats_error.yaml"
		}
		if err := report.Save(filepath.Join(statsFolder, name)); err != nil {
			logrus.Warnf("could not save stats: %v", err)
		}
	}

	if success {
		return nil
	}
	return exitf(toolchainExitCode(compileResults), "")
}

// toolchainExitCode surfaces the first failing subprocess's real exit code
// so the caller can propagate it (spec §6: "the proof compiler/checker's
// nonzero return code is propagated on failure").
func toolchainExitCode(results []toolchain.Result) int {
	for _, r := range results {
		if r.Err == nil {
			continue
		}
		var exitErr *exec.ExitError
		if ok := asExitError(r.Err, &exitErr); ok {
			return exitErr.ExitCode()
		}
	}
	return 1
}

func asExitError(err error, target **exec.ExitError) bool {
	for err != nil {
		if e, ok := err.(*exec.ExitError); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// Package certificate renders a Coq proof certificate for one task's
// response-time analysis result, by picking the template matching the
// problem's scheduler combination and patching in the task set, the
// search-space size, and the extracted bounds (spec §7).
package certificate

import (
	"fmt"
	"strings"

	"github.com/prosa-project/poet/internal/poet/analysis"
	"github.com/prosa-project/poet/internal/poet/problem"
	"github.com/prosa-project/poet/internal/poet/task"
)

// Options controls optional certificate features.
type Options struct {
	// BoundedTardinessAllowed permits emitting a tardiness-bound lemma
	// instead of a deadline-respected lemma when the response time
	// exceeds the deadline but is still bounded.
	BoundedTardinessAllowed bool
	// SplitDeclaration moves the task-set declarations into a separate
	// Require Import'd file instead of inlining them.
	SplitDeclaration bool
}

// Generate renders the proof certificate text for tsk, and (when
// SplitDeclaration is set) the separate declaration text to write to
// TaskSetDeclarationFileName. declaration is empty when SplitDeclaration
// is false.
func Generate(p *problem.Problem, tsk *task.Task, results *analysis.TaskAnalysisResults, opts Options) (proof, declaration string, err error) {
	proof, err = mainCertificate(p.Policy, p.Preemption)
	if err != nil {
		return "", "", err
	}

	proof = Patch(proof, wcTaskSetDeclaration, taskSetDeclaration(p))
	proof = Patch(proof, wcTaskSetList, taskSetList(p.Tasks))
	proof = Patch(proof, wcTaskUnderAnalysis, tsk.Name())
	proof = Patch(proof, wcMaxBusyInterval, fmt.Sprintf("%d%%N", results.L))
	proof = Patch(proof, wcResponseTimeBound, fmt.Sprintf("%d%%N", results.R))
	proof = Patch(proof, wcSearchSpace, coqList(results.FlatSS()))
	proof = Patch(proof, wcSearchSpaceSize, fmt.Sprintf("%d", len(results.FlatSS())))
	proof = Patch(proof, wcFSolutions, fSolutionsDeclaration(results.FlatFs()))

	useTardinessBound := opts.BoundedTardinessAllowed && tsk.Deadline < results.R
	tardinessDec := ""
	if useTardinessBound {
		tardinessDec = fmt.Sprintf("Definition B := %d%%N.", results.R-tsk.Deadline)
	}
	proof = Patch(proof, wcTardinessBoundDeclaration, tardinessDec)

	proof, _ = ConditionalCutPatch(proof, wcDeadlineIsRespectedStart, wcDeadlineIsRespectedEnd, useTardinessBound)
	proof, _ = ConditionalCutPatch(proof, wcTardinessIsBoundedStart, wcTardinessIsBoundedEnd, !useTardinessBound)
	proof, _ = ConditionalCutPatch(proof, wcDeadlineIsRespectedPrintStart, wcDeadlineIsRespectedPrintEnd, useTardinessBound)
	proof, _ = ConditionalCutPatch(proof, wcTardinessIsBoundedPrintStart, wcTardinessIsBoundedPrintEnd, !useTardinessBound)

	proof, declaration = ConditionalCutPatch(proof, wcDeclarationStart, wcCertificateStart, opts.SplitDeclaration)
	if opts.SplitDeclaration {
		proof = fmt.Sprintf("Require Import %s.\n%s", TaskSetDeclarationFileName, proof)
	}

	return proof, declaration, nil
}

func fSolutionsDeclaration(fs []int64) string {
	return fmt.Sprintf("Let Fs : seq N := %s%%N.", coqList(fs))
}

// taskSetDeclaration renders one Coq record definition per task.
func taskSetDeclaration(p *problem.Problem) string {
	decls := make([]string, len(p.Tasks))
	for i, t := range p.Tasks {
		decls[i] = taskDeclaration(p.Policy, t)
	}
	return strings.Join(decls, "\n")
}

func taskDeclaration(policy problem.SchedulingPolicy, t *task.Task) string {
	dec := taskDeclarationTemplate(policy)
	dec = Patch(dec, wcTaskName, t.Name())
	dec = Patch(dec, wcTaskID, fmt.Sprintf("%d", t.ID))
	dec = Patch(dec, wcTaskCost, fmt.Sprintf("%d", t.WCET))
	dec = Patch(dec, wcTaskDeadline, fmt.Sprintf("%d", t.Deadline))

	if policy == problem.FixedPriority {
		dec = Patch(dec, wcTaskPriority, fmt.Sprintf("%d", t.Priority))
	}

	switch t.Kind() {
	case task.Periodic, task.Sporadic:
		dec = Patch(dec, wcTaskArrival, fmt.Sprintf("%d", t.Period()))
	case task.ArrivalCurveKind:
		c := curveDeclaration(t)
		dec = Patch(dec, wcTaskArrival, c)
	}
	return dec
}

func curveDeclaration(t *task.Task) string {
	c := t.DeclaredCurve()
	steps := make([]int64, 0, 2*len(c.Steps()))
	for _, s := range c.Steps() {
		steps = append(steps, s.Time, s.Count)
	}
	d := Patch(curveTemplate, wcCurveHorizon, fmt.Sprintf("%d", c.Horizon()))
	d = Patch(d, wcCurveSteps, coqList(steps))
	return d
}

// coqList renders a Coq sequence literal: `[:: el1; el2; ...]`.
func coqList(xs []int64) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprintf("%d", x)
	}
	return "[:: " + strings.Join(parts, "; ") + "]"
}

// taskSetList renders the Coq list of task-record names: `[:: tsk01; tsk02; ...]`.
func taskSetList(tasks []*task.Task) string {
	parts := make([]string, len(tasks))
	for i, t := range tasks {
		parts[i] = t.Name()
	}
	return "[:: " + strings.Join(parts, "; ") + "]"
}

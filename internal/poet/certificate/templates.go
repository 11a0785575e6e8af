package certificate

import (
	"fmt"

	"github.com/prosa-project/poet/internal/poet/problem"
)

// TaskSetDeclarationFileName is the shared-declaration file base name used
// when split-declaration mode is requested.
const TaskSetDeclarationFileName = "task_set"

// Wildcards substituted by Generate.
const (
	wcTaskSetDeclaration = "$TASK_SET_DECLARATION$"
	wcTaskSetList        = "$TASK_SET_LIST$"
	wcTaskUnderAnalysis  = "$TASK_UNDER_ANALYSIS$"
	wcMaxBusyInterval    = "$MAX_BUSY_INTERVAL$"
	wcResponseTimeBound  = "$RESPONSE_TIME_BOUND$"
	wcSearchSpace        = "$SEARCH_SPACE$"
	wcSearchSpaceSize    = "$SEARCH_SPACE_SIZE$"
	wcFSolutions         = "$F_SOLUTIONS$"

	wcTardinessBoundDeclaration = "$TARDINESS_BOUND_DECLARATION$"

	wcDeadlineIsRespectedStart      = "$DEADLINE_IS_RESPECTED_START$"
	wcDeadlineIsRespectedEnd        = "$DEADLINE_IS_RESPECTED_END$"
	wcDeadlineIsRespectedPrintStart = "$DEADLINE_IS_RESPECTED_PRINT_START$"
	wcDeadlineIsRespectedPrintEnd   = "$DEADLINE_IS_RESPECTED_PRINT_END$"

	wcTardinessIsBoundedStart      = "$TARDINESS_IS_BOUNDED_START$"
	wcTardinessIsBoundedEnd        = "$TARDINESS_IS_BOUNDED_END$"
	wcTardinessIsBoundedPrintStart = "$TARDINESS_IS_BOUNDED_PRINT_START$"
	wcTardinessIsBoundedPrintEnd   = "$TARDINESS_IS_BOUNDED_PRINT_END$"

	wcDeclarationStart = "$DECLARATION_START$"
	wcCertificateStart = "$CERTIFICATE_START$"

	wcTaskName     = "$TASK_NAME$"
	wcTaskID       = "$TASK_ID$"
	wcTaskCost     = "$TASK_COST$"
	wcTaskDeadline = "$TASK_DEADLINE$"
	wcTaskPriority = "$TASK_PRIORITY$"
	wcTaskArrival  = "$TASK_ARRIVAL$"

	wcCurveHorizon = "$CURVE_HORIZON$"
	wcCurveSteps   = "$CURVE_STEPS$"
)

const taskDeclarationPriority = `Definition $TASK_NAME$ := {|
    id: $TASK_ID$
    cost: $TASK_COST$
    deadline: $TASK_DEADLINE$
    arrival: $TASK_ARRIVAL$
    priority: $TASK_PRIORITY$ |}.`

const taskDeclarationNoPriority = `Definition $TASK_NAME$ := {|
    id: $TASK_ID$
    cost: $TASK_COST$
    deadline: $TASK_DEADLINE$
    arrival: $TASK_ARRIVAL$ |}.`

const curveTemplate = `ArrivalPrefix_T ($CURVE_HORIZON$, $CURVE_STEPS$)%N`

// mainTemplate is shared by all four scheduler combinations; only the
// Prosa results package in the "From prosa.results.%s" line differs,
// supplied by schedulerResultsPackage.
const mainTemplate = `From mathcomp Require Import all_ssreflect.
From prosa.analysis Require Import definitions.
From prosa.results.%s Require rta.

$DECLARATION_START$
$TASK_SET_DECLARATION$

Let ts : seq Task := $TASK_SET_LIST$.
$CERTIFICATE_START$
Let tsk : Task := $TASK_UNDER_ANALYSIS$.

Let L : nat := $MAX_BUSY_INTERVAL$.
Let SS : seq nat := $SEARCH_SPACE$.
$F_SOLUTIONS$
Let R : nat := $RESPONSE_TIME_BOUND$.
$TARDINESS_BOUND_DECLARATION$

Fact search_space_size : size SS = $SEARCH_SPACE_SIZE$.
Proof. by []. Qed.

Theorem busy_interval_is_bounded : busy_interval_bound ts tsk L.
Proof. exact: rta.busy_interval_is_bounded. Qed.

Theorem response_time_is_bounded : task_response_time_bound ts tsk R.
Proof. exact: rta.response_time_is_bounded. Qed.

$DEADLINE_IS_RESPECTED_START$
Theorem deadline_is_respected : task_deadline_respected ts tsk.
Proof. apply: (response_time_bound_implies_deadline_respected R) => //. Qed.
$DEADLINE_IS_RESPECTED_END$

$TARDINESS_IS_BOUNDED_START$
Theorem tardiness_is_bounded : task_tardiness_bound ts tsk B.
Proof. apply: (response_time_bound_implies_tardiness_bound R) => //. Qed.
$TARDINESS_IS_BOUNDED_END$

$DEADLINE_IS_RESPECTED_PRINT_START$
Print Assumptions deadline_is_respected.
$DEADLINE_IS_RESPECTED_PRINT_END$
$TARDINESS_IS_BOUNDED_PRINT_START$
Print Assumptions tardiness_is_bounded.
$TARDINESS_IS_BOUNDED_PRINT_END$
`

// schedulerResultsPackage maps (policy, preemption) to the Prosa results
// package the main template's "From prosa.results.%s" line imports.
func schedulerResultsPackage(policy problem.SchedulingPolicy, preemption problem.PreemptionModel) (string, error) {
	switch {
	case policy == problem.FixedPriority && preemption == problem.FullyPreemptive:
		return "fixed_priority.rta.fully_preemptive", nil
	case policy == problem.FixedPriority && preemption == problem.NonPreemptive:
		return "fixed_priority.rta.nonpreemptive", nil
	case policy == problem.EarliestDeadlineFirst && preemption == problem.FullyPreemptive:
		return "edf.rta.fully_preemptive", nil
	case policy == problem.EarliestDeadlineFirst && preemption == problem.NonPreemptive:
		return "edf.rta.nonpreemptive", nil
	default:
		return "", fmt.Errorf("certificate: no template for policy=%v preemption=%v", policy, preemption)
	}
}

// mainCertificate renders the shared template for the given scheduler
// combination.
func mainCertificate(policy problem.SchedulingPolicy, preemption problem.PreemptionModel) (string, error) {
	pkg, err := schedulerResultsPackage(policy, preemption)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(mainTemplate, pkg), nil
}

// taskDeclarationTemplate picks the priority-carrying or bare task record
// template depending on the scheduling policy (spec §6: EDF tasks never
// carry a priority field).
func taskDeclarationTemplate(policy problem.SchedulingPolicy) string {
	if policy == problem.EarliestDeadlineFirst {
		return taskDeclarationNoPriority
	}
	return taskDeclarationPriority
}

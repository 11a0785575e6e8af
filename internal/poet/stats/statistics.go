package stats

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/prosa-project/poet/internal/poet/analysis"
	"github.com/prosa-project/poet/internal/poet/problem"
	"github.com/prosa-project/poet/internal/poet/task"
)

// TaskStats is the per-task slice of a Statistics report.
type TaskStats struct {
	Name               string   `yaml:"name"`
	Utilization        float64  `yaml:"utilization"`
	NumericalMagnitude float64  `yaml:"numerical_magnitude"`
	L                  int64    `yaml:"l"`
	R                  int64    `yaml:"r"`
	SearchSpaceSize    int      `yaml:"search_space_size"`
	CoqTimeSeconds     *float64 `yaml:"coq_time_seconds,omitempty"`
	CoqchkTimeSeconds  *float64 `yaml:"coqchk_time_seconds,omitempty"`
}

// NewTaskStats builds the per-task statistics for t, pulling optional
// compile/verify timings from sw under the "<name>_coq_time" and
// "<name>_coqchk_time" timer names.
func NewTaskStats(t *task.Task, results *analysis.TaskAnalysisResults, sw *Stopwatch) *TaskStats {
	ts := &TaskStats{
		Name:               t.Name(),
		Utilization:        t.Utilization(),
		NumericalMagnitude: t.NumericalMagnitude(),
		L:                  results.L,
		R:                  results.R,
		SearchSpaceSize:    results.SSSize(),
	}
	if sw.HasTime(t.Name() + "_coq_time") {
		v := sw.GetTime(t.Name() + "_coq_time").Seconds()
		ts.CoqTimeSeconds = &v
	}
	if sw.HasTime(t.Name() + "_coqchk_time") {
		v := sw.GetTime(t.Name() + "_coqchk_time").Seconds()
		ts.CoqchkTimeSeconds = &v
	}
	return ts
}

func (t *TaskStats) String() string {
	val := fmt.Sprintf("%-8s | R : %d | L : %d | SS: %d", t.Name, t.R, t.L, t.SearchSpaceSize)
	if t.CoqTimeSeconds != nil {
		val += fmt.Sprintf(" | coq : %.2f", *t.CoqTimeSeconds)
	}
	if t.CoqchkTimeSeconds != nil {
		val += fmt.Sprintf(" | coqchk : %.2f", *t.CoqchkTimeSeconds)
	}
	return val
}

// Statistics is the top-level report written to stats.yaml.
type Statistics struct {
	NumberOfTasks             int          `yaml:"number_of_tasks"`
	TotalUtilization          float64      `yaml:"total_utilization"`
	AverageNumericalMagnitude float64      `yaml:"average_numerical_magnitude"`
	TotalPoetTimeSeconds      float64      `yaml:"total_poet_time_seconds"`
	TotalCoqTimeSeconds       float64      `yaml:"total_coq_time_seconds"`
	TotalCoqchkTimeSeconds    float64      `yaml:"total_coqchk_time_seconds"`
	TotalTimeSeconds          float64      `yaml:"total_time_seconds"`
	TaskStats                 []*TaskStats `yaml:"task_stats"`
}

// New aggregates problem- and run-level statistics. sw must carry
// "total_poet_time", "total_coq_time" and "total_time"; "total_coqchk_time"
// is optional (absent when compilation failed and the checker never ran).
func New(p *problem.Problem, results *analysis.AnalysisResults, sw *Stopwatch) *Statistics {
	var avgMagnitude, totalUtilization float64
	for _, t := range p.Tasks {
		avgMagnitude += t.NumericalMagnitude()
		totalUtilization += t.Utilization()
	}
	if len(p.Tasks) > 0 {
		avgMagnitude /= float64(len(p.Tasks))
	}

	var coqchkTime float64
	if sw.HasTime("total_coqchk_time") {
		coqchkTime = sw.GetTime("total_coqchk_time").Seconds()
	}

	taskStats := make([]*TaskStats, len(p.Tasks))
	for i, t := range p.Tasks {
		taskStats[i] = NewTaskStats(t, results.Results[t.ID], sw)
	}

	return &Statistics{
		NumberOfTasks:             len(p.Tasks),
		TotalUtilization:          totalUtilization,
		AverageNumericalMagnitude: avgMagnitude,
		TotalPoetTimeSeconds:      sw.GetTime("total_poet_time").Seconds(),
		TotalCoqTimeSeconds:       sw.GetTime("total_coq_time").Seconds(),
		TotalCoqchkTimeSeconds:    coqchkTime,
		TotalTimeSeconds:          sw.GetTime("total_time").Seconds(),
		TaskStats:                 taskStats,
	}
}

// Save writes s as YAML to path.
func (s *Statistics) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("stats: marshaling %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("stats: writing %s: %w", path, err)
	}
	return nil
}

// Load reads a Statistics report previously written by Save.
func Load(path string) (*Statistics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("stats: reading %s: %w", path, err)
	}
	var s Statistics
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("stats: parsing %s: %w", path, err)
	}
	return &s, nil
}

func (s *Statistics) String() string {
	otherTime := s.TotalTimeSeconds - s.TotalPoetTimeSeconds - s.TotalCoqTimeSeconds - s.TotalCoqchkTimeSeconds

	var b strings.Builder
	fmt.Fprint(&b, "\n####### PROBLEM INSTANCE STATS #######\n")
	fmt.Fprintf(&b, "Number of tasks   : %d\n", s.NumberOfTasks)
	fmt.Fprintf(&b, "Task set util.    : %.2f\n", s.TotalUtilization)
	fmt.Fprintf(&b, "Avg numerical mag : %.0f\n", s.AverageNumericalMagnitude)
	fmt.Fprint(&b, "\n#######      TIME STATS       #######\n")
	fmt.Fprintf(&b, "Poet              : %.2f s\n", s.TotalPoetTimeSeconds)
	fmt.Fprintf(&b, "coq               : %.2f s\n", s.TotalCoqTimeSeconds)
	if s.TotalCoqchkTimeSeconds != 0 {
		fmt.Fprintf(&b, "coqchk            : %.2f s\n", s.TotalCoqchkTimeSeconds)
	}
	fmt.Fprintf(&b, "Other             : %.2f s\n", otherTime)
	fmt.Fprintf(&b, "Total             : %.2f s\n", s.TotalTimeSeconds)
	fmt.Fprint(&b, "\n#######     TASKS STATS       #######\n")
	for _, ts := range s.TaskStats {
		fmt.Fprintln(&b, ts)
	}
	return b.String()
}

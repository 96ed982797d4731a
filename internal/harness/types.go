package harness

import "github.com/roach88/taskcore/internal/task"

// TraceEvent is the state observed after one step.
type TraceEvent struct {
	Step      int         `json:"step"`
	Op        string      `json:"op"`
	Arg       string      `json:"arg,omitempty"`
	TaskID    int64       `json:"task_id,omitempty"`
	Error     string      `json:"error,omitempty"`
	Tasks     []task.Task `json:"tasks"`
	Highlight int64       `json:"highlight"` // 0 when nothing is highlighted
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if the final state matched the expect block.
	Pass bool `json:"pass"`

	// Trace contains one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the task list after the last step.
	Final []task.Task `json:"final"`

	// Highlight is the highlight after the last step.
	Highlight task.Highlight `json:"highlight"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:  true,
		Trace: []TraceEvent{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(msg string) {
	r.Pass = false
	r.Errors = append(r.Errors, msg)
}

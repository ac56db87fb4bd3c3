package dag

import "github.com/kbukum/ragflow/errors"

// Status is the outcome of one node.
type Status string

const (
	StatusOK      Status = "ok"
	StatusError   Status = "error"
	StatusSkipped Status = "skipped"
)

// RunStatus is the outcome of a whole run.
type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// StepResult records what happened to one node.
type StepResult struct {
	NodeID       string           `json:"node_id"`
	NodeKind     NodeKind         `json:"node_kind"`
	Status       Status           `json:"status"`
	Output       *string          `json:"output,omitempty"`
	ErrorMessage string           `json:"error_message,omitempty"`
	ErrorCode    errors.ErrorCode `json:"error_code,omitempty"`
	SkipReason   string           `json:"skip_reason,omitempty"`
}

// ExecutionResult is the answer and trace of one run. The trace lists every
// node of the graph in topological order.
type ExecutionResult struct {
	FinalOutput *string      `json:"final_output,omitempty"`
	Trace       []StepResult `json:"trace"`
	Status      RunStatus    `json:"status"`
}

// Succeeded reports whether a final output was produced.
func (r *ExecutionResult) Succeeded() bool {
	return r.Status == RunSucceeded
}

// Step returns the trace entry of node id.
func (r *ExecutionResult) Step(id string) (StepResult, bool) {
	for _, s := range r.Trace {
		if s.NodeID == id {
			return s, true
		}
	}
	return StepResult{}, false
}

// Count returns how many steps ended with status s.
func (r *ExecutionResult) Count(s Status) int {
	n := 0
	for _, step := range r.Trace {
		if step.Status == s {
			n++
		}
	}
	return n
}

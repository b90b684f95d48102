package harness

import "github.com/roach88/scenesync/internal/engine"

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq    int    `json:"seq"`
	Op     string `json:"op"`
	Detail string `json:"detail,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step ran and every assertion held.
	Pass bool `json:"pass"`

	// Trace lists the executed steps in order, including producer sink
	// notifications.
	Trace []TraceEvent `json:"trace"`

	// Errors contains step and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Reports holds one entry per settle step.
	Reports []engine.SettleReport `json:"reports"`

	// Session is the journal session id, when a journal was attached.
	Session string `json:"session,omitempty"`

	// Final is the state after the last executed step.
	Final FinalState `json:"final"`
}

// PrimRef names one render-index primitive.
type PrimRef struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

// FinalState is the engine and render-index state at the end of a run.
type FinalState struct {
	Rprims []PrimRef          `json:"rprims"`
	Sprims []PrimRef          `json:"sprims"`
	Tables engine.TableCounts `json:"tables"`
	// Producers maps viewport ids to the names of their inserted producers.
	Producers map[string][]string `json:"producers,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Trace:   []TraceEvent{},
		Errors:  []string{},
		Reports: []engine.SettleReport{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a trace event with the next sequence number.
func (r *Result) AddTrace(op, detail string) {
	r.Trace = append(r.Trace, TraceEvent{Seq: len(r.Trace) + 1, Op: op, Detail: detail})
}

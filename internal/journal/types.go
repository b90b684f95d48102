package journal

// Session identifies one synchronizer run.
type Session struct {
	ID         string `json:"id"`
	Root       string `json:"root"`
	Renderer   string `json:"renderer"`
	StartFrame int64  `json:"startFrame"`
}

// FrameRecord is one settled frame.
type FrameRecord struct {
	Frame int64 `json:"frame"`
	// Counts are the settle counters of the frame (recreated, rebuilt, ...).
	Counts    map[string]int `json:"counts"`
	StateHash string         `json:"stateHash"`
	FrameHash string         `json:"frameHash"`
}

// OpKind names a render-index mutation.
type OpKind string

const (
	OpInsertRprim OpKind = "insert_rprim"
	OpInsertSprim OpKind = "insert_sprim"
	OpRemove      OpKind = "remove"
	OpMarkDirty   OpKind = "mark_dirty"
)

// OpRecord is one render-index mutation within a frame.
type OpRecord struct {
	Seq      int      `json:"seq"`
	Kind     OpKind   `json:"kind"`
	Path     string   `json:"path"`
	PrimType string   `json:"primType,omitempty"`
	Dirty    []string `json:"dirty,omitempty"`
	// Err is the index's error message when the mutation was refused.
	Err string `json:"error,omitempty"`
}

package journal

import (
	"context"
	"fmt"

	"github.com/roach88/scenesync/internal/renderindex"
	"github.com/roach88/scenesync/internal/scenepath"
	"github.com/roach88/scenesync/internal/snapshot"
)

// Recorder is a renderindex.Index that journals every mutation before
// forwarding it to the wrapped index.
//
// Not safe for concurrent use; the engine drives it from its own thread.
type Recorder struct {
	store   *Store
	inner   renderindex.Index
	session string
	ops     []OpRecord
	seq     int
	prev    string
}

// NewRecorder wraps inner. The session must already have been written with
// Store.BeginSession.
func NewRecorder(store *Store, inner renderindex.Index, session string) *Recorder {
	return &Recorder{store: store, inner: inner, session: session}
}

// Session returns the session id frames are written under.
func (r *Recorder) Session() string { return r.session }

// Inner returns the wrapped index.
func (r *Recorder) Inner() renderindex.Index { return r.inner }

// Buffered returns the number of ops waiting for the next flush.
func (r *Recorder) Buffered() int { return len(r.ops) }

func (r *Recorder) record(op OpRecord, err error) error {
	r.seq++
	op.Seq = r.seq
	if err != nil {
		op.Err = err.Error()
	}
	r.ops = append(r.ops, op)
	return err
}

func (r *Recorder) InsertRprim(typ renderindex.PrimType, d renderindex.Delegate, p scenepath.Path) error {
	err := r.inner.InsertRprim(typ, d, p)
	return r.record(OpRecord{Kind: OpInsertRprim, Path: p.String(), PrimType: string(typ)}, err)
}

func (r *Recorder) InsertSprim(typ renderindex.PrimType, d renderindex.Delegate, p scenepath.Path) error {
	err := r.inner.InsertSprim(typ, d, p)
	return r.record(OpRecord{Kind: OpInsertSprim, Path: p.String(), PrimType: string(typ)}, err)
}

func (r *Recorder) RemovePrim(p scenepath.Path) error {
	err := r.inner.RemovePrim(p)
	return r.record(OpRecord{Kind: OpRemove, Path: p.String()}, err)
}

func (r *Recorder) MarkDirty(p scenepath.Path, bits renderindex.DirtyBits) error {
	err := r.inner.MarkDirty(p, bits)
	return r.record(OpRecord{Kind: OpMarkDirty, Path: p.String(), Dirty: bits.Names()}, err)
}

func (r *Recorder) RprimIDs() []scenepath.Path { return r.inner.RprimIDs() }

func (r *Recorder) Rprim(p scenepath.Path) (renderindex.Rprim, bool) { return r.inner.Rprim(p) }

func (r *Recorder) IsSprimTypeSupported(typ renderindex.PrimType) bool {
	return r.inner.IsSprimTypeSupported(typ)
}

// Flush writes the buffered ops as frame f and chains its hash onto the
// previous frame. The state hash is computed when the wrapped index can
// be captured. On error the ops stay buffered and are written with the
// next frame.
func (r *Recorder) Flush(ctx context.Context, f FrameRecord) error {
	if src, ok := r.inner.(snapshot.Source); ok {
		h, err := snapshot.StateHash(snapshot.Capture(src))
		if err != nil {
			return fmt.Errorf("flush frame %d: %w", f.Frame, err)
		}
		f.StateHash = h
	}
	fh, err := snapshot.FrameHash(r.prev, f.Frame, f.StateHash)
	if err != nil {
		return fmt.Errorf("flush frame %d: %w", f.Frame, err)
	}
	f.FrameHash = fh

	inserted, err := r.store.WriteFrame(ctx, r.session, f, r.ops)
	if err != nil {
		return err
	}
	if !inserted {
		return fmt.Errorf("flush frame %d: frame already journaled for session %s", f.Frame, r.session)
	}
	r.prev = fh
	r.ops = nil
	r.seq = 0
	return nil
}

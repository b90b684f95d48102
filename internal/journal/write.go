package journal

import (
	"context"
	"fmt"

	"github.com/roach88/scenesync/internal/snapshot"
)

// BeginSession records a session. Rewriting an existing session id is a
// no-op.
func (s *Store) BeginSession(ctx context.Context, sess Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, root, renderer, start_frame)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, sess.ID, sess.Root, sess.Renderer, sess.StartFrame)
	if err != nil {
		return fmt.Errorf("begin session: %w", err)
	}
	return nil
}

// WriteFrame writes a frame and its ops in one transaction. It reports
// whether the frame was new; an existing (session, frame) pair is left
// untouched and its ops are not written again.
func (s *Store) WriteFrame(ctx context.Context, session string, f FrameRecord, ops []OpRecord) (inserted bool, err error) {
	counts, err := marshalCounts(f.Counts)
	if err != nil {
		return false, fmt.Errorf("write frame %d: %w", f.Frame, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("write frame %d: begin tx: %w", f.Frame, err)
	}
	defer tx.Rollback() // No-op if committed

	res, err := tx.ExecContext(ctx, `
		INSERT INTO frames (session_id, frame, counts, state_hash, frame_hash)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id, frame) DO NOTHING
	`, session, f.Frame, counts, f.StateHash, f.FrameHash)
	if err != nil {
		return false, fmt.Errorf("write frame %d: %w", f.Frame, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write frame %d: rows affected: %w", f.Frame, err)
	}
	if n == 0 {
		return false, nil
	}

	for _, op := range ops {
		dirty, err := snapshot.MarshalCanonical(nonNil(op.Dirty))
		if err != nil {
			return false, fmt.Errorf("write op %d: %w", op.Seq, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO ops (session_id, frame, seq, kind, path, prim_type, dirty, error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, session, f.Frame, op.Seq, string(op.Kind), op.Path, op.PrimType, string(dirty), op.Err)
		if err != nil {
			return false, fmt.Errorf("write op %d: %w", op.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("write frame %d: commit: %w", f.Frame, err)
	}
	return true, nil
}

func marshalCounts(counts map[string]int) (string, error) {
	obj := make(map[string]any, len(counts))
	for k, v := range counts {
		obj[k] = v
	}
	b, err := snapshot.MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("marshal counts: %w", err)
	}
	return string(b), nil
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

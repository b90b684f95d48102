package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/scenesync/internal/snapshot"
)

// ReadSessions returns every session ordered by id. UUIDv7 ids sort by
// creation time.
func (s *Store) ReadSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, root, renderer, start_frame
		FROM sessions
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Root, &sess.Renderer, &sess.StartFrame); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// ReadFrames returns the frames of a session in frame order.
// Returns an empty slice (not nil) for an unknown session.
func (s *Store) ReadFrames(ctx context.Context, session string) ([]FrameRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT frame, counts, state_hash, frame_hash
		FROM frames
		WHERE session_id = ?
		ORDER BY frame ASC
	`, session)
	if err != nil {
		return nil, fmt.Errorf("query frames: %w", err)
	}
	defer rows.Close()

	frames := []FrameRecord{}
	for rows.Next() {
		var (
			f      FrameRecord
			counts string
		)
		if err := rows.Scan(&f.Frame, &counts, &f.StateHash, &f.FrameHash); err != nil {
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		if err := json.Unmarshal([]byte(counts), &f.Counts); err != nil {
			return nil, fmt.Errorf("frame %d: unmarshal counts: %w", f.Frame, err)
		}
		frames = append(frames, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate frames: %w", err)
	}
	return frames, nil
}

// ReadOps returns the ops of one frame in sequence order.
func (s *Store) ReadOps(ctx context.Context, session string, frame int64) ([]OpRecord, error) {
	return s.queryOps(ctx, `
		SELECT seq, kind, path, prim_type, dirty, error
		FROM ops
		WHERE session_id = ? AND frame = ?
		ORDER BY seq ASC
	`, session, frame)
}

// PathHistory returns every op that touched path across all sessions,
// oldest frame first.
func (s *Store) PathHistory(ctx context.Context, path string) ([]OpRecord, error) {
	return s.queryOps(ctx, `
		SELECT seq, kind, path, prim_type, dirty, error
		FROM ops
		WHERE path = ?
		ORDER BY session_id COLLATE BINARY ASC, frame ASC, seq ASC
	`, path)
}

func (s *Store) queryOps(ctx context.Context, query string, args ...any) ([]OpRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ops: %w", err)
	}
	defer rows.Close()

	ops := []OpRecord{}
	for rows.Next() {
		op, err := scanOp(rows)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ops: %w", err)
	}
	return ops, nil
}

func scanOp(rows *sql.Rows) (OpRecord, error) {
	var (
		op    OpRecord
		kind  string
		dirty string
	)
	if err := rows.Scan(&op.Seq, &kind, &op.Path, &op.PrimType, &dirty, &op.Err); err != nil {
		return OpRecord{}, fmt.Errorf("scan op: %w", err)
	}
	op.Kind = OpKind(kind)
	if err := json.Unmarshal([]byte(dirty), &op.Dirty); err != nil {
		return OpRecord{}, fmt.Errorf("op %d: unmarshal dirty: %w", op.Seq, err)
	}
	if len(op.Dirty) == 0 {
		op.Dirty = nil
	}
	return op, nil
}

// ChainError reports the first frame whose stored hash does not match the
// recomputed chain.
type ChainError struct {
	Session string
	Frame   int64
	Want    string
	Got     string
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("session %s frame %d: frame hash %s, recomputed %s", e.Session, e.Frame, e.Got, e.Want)
}

// VerifyChain recomputes the frame hash chain of a session. It returns a
// *ChainError at the first mismatch.
func (s *Store) VerifyChain(ctx context.Context, session string) error {
	frames, err := s.ReadFrames(ctx, session)
	if err != nil {
		return err
	}
	prev := ""
	for _, f := range frames {
		want, err := snapshot.FrameHash(prev, f.Frame, f.StateHash)
		if err != nil {
			return fmt.Errorf("verify frame %d: %w", f.Frame, err)
		}
		if want != f.FrameHash {
			return &ChainError{Session: session, Frame: f.Frame, Want: want, Got: f.FrameHash}
		}
		prev = f.FrameHash
	}
	return nil
}

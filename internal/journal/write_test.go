package journal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scenesync/internal/snapshot"
)

func TestBeginSession_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	sess := Session{ID: "session-1", Root: "/SceneSync", Renderer: "HdStormRendererPlugin"}
	require.NoError(t, s.BeginSession(ctx, sess))
	require.NoError(t, s.BeginSession(ctx, Session{ID: "session-1", Root: "/Other", Renderer: "x"}))

	sessions, err := s.ReadSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, sess, sessions[0], "first write wins")
}

func TestWriteFrame_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.BeginSession(ctx, Session{ID: "s", Root: "/R", Renderer: "r"}))

	f := FrameRecord{
		Frame:     1,
		Counts:    map[string]int{"recreated": 2, "rebuilt": 0},
		StateHash: "state",
		FrameHash: "frame",
	}
	ops := []OpRecord{
		{Seq: 1, Kind: OpInsertRprim, Path: "/R/rprims/a", PrimType: "mesh"},
		{Seq: 2, Kind: OpMarkDirty, Path: "/R/rprims/a", Dirty: []string{"transform", "visibility"}},
		{Seq: 3, Kind: OpRemove, Path: "/R/rprims/b", Err: "remove prim /R/rprims/b: not present"},
	}

	inserted, err := s.WriteFrame(ctx, "s", f, ops)
	require.NoError(t, err)
	assert.True(t, inserted)

	frames, err := s.ReadFrames(ctx, "s")
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, f, frames[0])

	got, err := s.ReadOps(ctx, "s", 1)
	require.NoError(t, err)
	assert.Equal(t, ops, got)
}

func TestWriteFrame_DuplicateIsNoOp(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.BeginSession(ctx, Session{ID: "s"}))

	_, err := s.WriteFrame(ctx, "s", FrameRecord{Frame: 1}, []OpRecord{{Seq: 1, Kind: OpRemove, Path: "/a"}})
	require.NoError(t, err)

	inserted, err := s.WriteFrame(ctx, "s", FrameRecord{Frame: 1}, []OpRecord{{Seq: 1, Kind: OpRemove, Path: "/b"}})
	require.NoError(t, err)
	assert.False(t, inserted)

	ops, err := s.ReadOps(ctx, "s", 1)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, "/a", ops[0].Path)
}

func TestWriteFrame_UnknownSession(t *testing.T) {
	s := createTestStore(t)
	_, err := s.WriteFrame(context.Background(), "missing", FrameRecord{Frame: 1}, nil)
	assert.Error(t, err, "foreign key enforced")
}

func TestReadFrames_Empty(t *testing.T) {
	s := createTestStore(t)
	frames, err := s.ReadFrames(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, frames)
	assert.Empty(t, frames)
}

func TestPathHistory(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.BeginSession(ctx, Session{ID: "s"}))

	_, err := s.WriteFrame(ctx, "s", FrameRecord{Frame: 2}, []OpRecord{
		{Seq: 1, Kind: OpMarkDirty, Path: "/a", Dirty: []string{"all"}},
	})
	require.NoError(t, err)
	_, err = s.WriteFrame(ctx, "s", FrameRecord{Frame: 1}, []OpRecord{
		{Seq: 1, Kind: OpInsertRprim, Path: "/a", PrimType: "mesh"},
		{Seq: 2, Kind: OpInsertRprim, Path: "/b", PrimType: "mesh"},
	})
	require.NoError(t, err)

	hist, err := s.PathHistory(ctx, "/a")
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, OpInsertRprim, hist[0].Kind)
	assert.Equal(t, OpMarkDirty, hist[1].Kind)
}

func TestVerifyChain(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.BeginSession(ctx, Session{ID: "s"}))

	prev := ""
	for frame := int64(1); frame <= 3; frame++ {
		fh, err := snapshot.FrameHash(prev, frame, "state")
		require.NoError(t, err)
		_, err = s.WriteFrame(ctx, "s", FrameRecord{Frame: frame, StateHash: "state", FrameHash: fh}, nil)
		require.NoError(t, err)
		prev = fh
	}
	require.NoError(t, s.VerifyChain(ctx, "s"))

	_, err := s.WriteFrame(ctx, "s", FrameRecord{Frame: 4, StateHash: "state", FrameHash: "forged"}, nil)
	require.NoError(t, err)

	err = s.VerifyChain(ctx, "s")
	var chainErr *ChainError
	require.True(t, errors.As(err, &chainErr))
	assert.Equal(t, int64(4), chainErr.Frame)
	assert.Equal(t, "forged", chainErr.Got)
}

package journal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scenesync/internal/renderindex"
	"github.com/roach88/scenesync/internal/scenepath"
)

func newTestRecorder(t *testing.T) (*Recorder, *Store, *renderindex.Memory) {
	t.Helper()
	s := createTestStore(t)
	require.NoError(t, s.BeginSession(context.Background(), Session{ID: "s", Root: "/R"}))
	mem := renderindex.NewMemory()
	return NewRecorder(s, mem, "s"), s, mem
}

func TestRecorder_ForwardsAndBuffers(t *testing.T) {
	r, _, mem := newTestRecorder(t)
	a := scenepath.MustParse("/R/rprims/a")
	light := scenepath.MustParse("/R/sprims/key")

	require.NoError(t, r.InsertRprim(renderindex.PrimMesh, nil, a))
	require.NoError(t, r.InsertSprim(renderindex.PrimDistantLight, nil, light))
	require.NoError(t, r.MarkDirty(a, renderindex.DirtyTransform))
	assert.Error(t, r.RemovePrim(scenepath.MustParse("/R/rprims/none")))

	assert.Equal(t, 4, r.Buffered())
	assert.Equal(t, []scenepath.Path{a}, r.RprimIDs())
	_, ok := mem.Sprim(light)
	assert.True(t, ok)
	assert.Same(t, mem, r.Inner())
	assert.Equal(t, "s", r.Session())
}

func TestRecorder_Flush(t *testing.T) {
	r, s, _ := newTestRecorder(t)
	ctx := context.Background()
	a := scenepath.MustParse("/R/rprims/a")

	require.NoError(t, r.InsertRprim(renderindex.PrimMesh, nil, a))
	require.Error(t, r.InsertRprim(renderindex.PrimMesh, nil, a))
	require.NoError(t, r.Flush(ctx, FrameRecord{Frame: 1, Counts: map[string]int{"recreated": 0}}))
	assert.Equal(t, 0, r.Buffered())

	require.NoError(t, r.MarkDirty(a, renderindex.AllDirty))
	require.NoError(t, r.Flush(ctx, FrameRecord{Frame: 2}))

	frames, err := s.ReadFrames(ctx, "s")
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.NotEmpty(t, frames[0].StateHash, "memory index is captured")
	assert.NotEqual(t, frames[0].FrameHash, frames[1].FrameHash)
	require.NoError(t, s.VerifyChain(ctx, "s"))

	ops, err := s.ReadOps(ctx, "s", 1)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, 1, ops[0].Seq)
	assert.Empty(t, ops[0].Err)
	assert.Contains(t, ops[1].Err, "already present")

	ops, err = s.ReadOps(ctx, "s", 2)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, 1, ops[0].Seq, "sequence restarts each frame")
	assert.Equal(t, []string{"all"}, ops[0].Dirty)
}

func TestRecorder_FlushSameFrameKeepsOps(t *testing.T) {
	r, s, _ := newTestRecorder(t)
	ctx := context.Background()

	require.NoError(t, r.Flush(ctx, FrameRecord{Frame: 1}))
	require.NoError(t, r.InsertRprim(renderindex.PrimMesh, nil, scenepath.MustParse("/R/rprims/a")))

	assert.Error(t, r.Flush(ctx, FrameRecord{Frame: 1}))
	assert.Equal(t, 1, r.Buffered())

	require.NoError(t, r.Flush(ctx, FrameRecord{Frame: 2}))
	ops, err := s.ReadOps(ctx, "s", 2)
	require.NoError(t, err)
	assert.Len(t, ops, 1)
	require.NoError(t, s.VerifyChain(ctx, "s"))
}

func TestRecorder_SatisfiesIndex(t *testing.T) {
	var _ renderindex.Index = (*Recorder)(nil)
}

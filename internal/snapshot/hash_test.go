package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashDomainSeparation(t *testing.T) {
	data := []byte(`{"a":1}`)

	h1 := Hash(DomainState, data)
	h2 := Hash(DomainFrame, data)

	assert.Len(t, h1, 64, "SHA-256 hex is 64 characters")
	assert.NotEqual(t, h1, h2, "different domains must not collide")
	assert.Equal(t, h1, Hash(DomainState, data), "Hash must be deterministic")
}

func TestFrameHashChains(t *testing.T) {
	f1, err := FrameHash("", 1, "state-a")
	require.NoError(t, err)
	f2, err := FrameHash(f1, 2, "state-a")
	require.NoError(t, err)
	f2b, err := FrameHash("other", 2, "state-a")
	require.NoError(t, err)

	assert.NotEqual(t, f1, f2)
	assert.NotEqual(t, f2, f2b, "the previous hash is part of the chain")
}

func TestStateHashEmpty(t *testing.T) {
	h, err := StateHash(State{})
	require.NoError(t, err)

	canonical, err := MarshalCanonical(map[string]any{"rprims": []any{}, "sprims": []any{}})
	require.NoError(t, err)
	assert.Equal(t, Hash(DomainState, canonical), h)
}

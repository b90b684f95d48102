package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/scenesync/internal/scenepath"
)

func TestSyncError_Error(t *testing.T) {
	p := scenepath.MustParse("/SceneSync/rprims/cube")
	assert.Equal(t, "LOOKUP_MISS: remove: adapter does not exist (path=/SceneSync/rprims/cube)", lookupMiss(p, "remove").Error())
	assert.Equal(t, `UNSUPPORTED_ENTITY: type "nurbsCurve" is not supported`, unsupported(scenepath.Empty, "nurbsCurve").Error())
}

func TestSyncError_Predicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		is   func(error) bool
	}{
		{"stale", staleError(scenepath.Empty, "gone"), IsStale},
		{"lookup", lookupMiss(scenepath.Empty, "rebuild"), IsLookupMiss},
		{"unsupported", unsupported(scenepath.Empty, "x"), IsUnsupported},
		{"duplicate", duplicate(scenepath.MustParse("/a")), IsDuplicate},
	}
	all := []func(error) bool{IsStale, IsLookupMiss, IsUnsupported, IsDuplicate}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.is(tt.err))
			assert.True(t, tt.is(fmt.Errorf("wrapped: %w", tt.err)), "matches through wrapping")

			matches := 0
			for _, is := range all {
				if is(tt.err) {
					matches++
				}
			}
			assert.Equal(t, 1, matches)
		})
	}

	assert.False(t, IsStale(errors.New("plain")))
	assert.False(t, IsStale(nil))
}

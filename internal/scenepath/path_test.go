package scenepath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"empty", "", "", false},
		{"root", "/", "/", false},
		{"prim", "/a/b", "/a/b", false},
		{"property", "/a/b.points", "/a/b.points", false},
		{"relative", "a/b", "", true},
		{"trailing separator", "/a/", "", true},
		{"empty element", "/a//b", "", true},
		{"leading digit", "/1a", "", true},
		{"invalid char", "/a-b", "", true},
		{"property mid path", "/a.b/c", "", true},
		{"empty property", "/a.", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.String())
		})
	}
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParse("no-slash") })
}

func TestPath_Navigation(t *testing.T) {
	p := MustParse("/a/b/c")

	assert.Equal(t, "c", p.Name())
	assert.Equal(t, "/a/b", p.Parent().String())
	assert.Equal(t, "/", MustParse("/a").Parent().String())
	assert.True(t, AbsoluteRoot().Parent().IsEmpty())
	assert.True(t, Empty.Parent().IsEmpty())
	assert.Equal(t, "", AbsoluteRoot().Name())
}

func TestPath_Property(t *testing.T) {
	prim := MustParse("/a/b")
	prop := prim.AppendProperty("instancer")

	assert.Equal(t, "/a/b.instancer", prop.String())
	assert.True(t, prop.IsPropertyPath())
	assert.False(t, prim.IsPropertyPath())
	assert.Equal(t, prim, prop.PrimPath())
	assert.Equal(t, prim, prop.Parent())
	assert.Equal(t, "instancer", prop.Name())

	assert.True(t, prop.AppendChild("x").IsEmpty())
	assert.True(t, prop.AppendProperty("x").IsEmpty())
	assert.True(t, AbsoluteRoot().AppendProperty("x").IsEmpty())
}

func TestPath_AppendChild(t *testing.T) {
	assert.Equal(t, "/a", AbsoluteRoot().AppendChild("a").String())
	assert.Equal(t, "/a/b", MustParse("/a").AppendChild("b").String())
	assert.Equal(t, "/a/my_node", MustParse("/a").AppendChild("my node").String())
	assert.Equal(t, "/a/_1st", MustParse("/a").AppendChild("1st").String())
	assert.True(t, Empty.AppendChild("a").IsEmpty())
}

func TestPath_Comparable(t *testing.T) {
	m := map[Path]int{}
	m[MustParse("/a/b")] = 1
	m[AbsoluteRoot().AppendChild("a").AppendChild("b")] = 2

	assert.Len(t, m, 1)
	assert.Equal(t, 2, m[MustParse("/a/b")])
}

func TestPath_HasPrefix(t *testing.T) {
	tests := []struct {
		path   string
		prefix string
		want   bool
	}{
		{"/a/b", "/a", true},
		{"/a/b", "/a/b", true},
		{"/a/bc", "/a/b", false},
		{"/a/b.prop", "/a/b", true},
		{"/a/b", "/", true},
		{"/a", "/a/b", false},
		{"/x", "/a", false},
	}

	for _, tt := range tests {
		t.Run(tt.path+"_"+tt.prefix, func(t *testing.T) {
			assert.Equal(t, tt.want, MustParse(tt.path).HasPrefix(MustParse(tt.prefix)))
		})
	}

	assert.False(t, MustParse("/a").HasPrefix(Empty))
}

func TestPath_TextRoundTrip(t *testing.T) {
	p := MustParse("/scene/rprims/cube")
	b, err := p.MarshalText()
	require.NoError(t, err)

	var got Path
	require.NoError(t, got.UnmarshalText(b))
	assert.Equal(t, p, got)

	assert.Error(t, got.UnmarshalText([]byte("bad path")))
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"cube1", "cube1"},
		{"", "_"},
		{"ns:cube", "ns_cube"},
		{"9lives", "_9lives"},
		{"café", "caf_"},
		{"cafe\u0301", "caf_"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.input))
		})
	}
}

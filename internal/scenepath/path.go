package scenepath

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	separator         = "/"
	propertySeparator = "."
)

// Path is a stable hierarchical identifier for a render-index entity.
// The zero value is the empty path.
type Path struct {
	s string
}

// Empty is the empty path. It is never a valid table key.
var Empty = Path{}

// AbsoluteRoot returns the absolute root path "/".
func AbsoluteRoot() Path {
	return Path{s: separator}
}

// Parse parses an absolute path string.
//
// Every prim element must be a valid identifier; the final element may carry
// a single property suffix ("/a/b.prop"). Parse does not sanitize, it rejects.
func Parse(s string) (Path, error) {
	if s == "" {
		return Empty, nil
	}
	if s == separator {
		return AbsoluteRoot(), nil
	}
	if !strings.HasPrefix(s, separator) {
		return Empty, fmt.Errorf("path %q: must be absolute", s)
	}
	if strings.HasSuffix(s, separator) {
		return Empty, fmt.Errorf("path %q: trailing separator", s)
	}

	elems := strings.Split(s[1:], separator)
	for i, elem := range elems {
		name := elem
		if i == len(elems)-1 {
			if prim, prop, ok := strings.Cut(elem, propertySeparator); ok {
				if !IsValidIdentifier(prop) {
					return Empty, fmt.Errorf("path %q: invalid property name %q", s, prop)
				}
				name = prim
			}
		}
		if !IsValidIdentifier(name) {
			return Empty, fmt.Errorf("path %q: invalid element %q", s, elem)
		}
	}

	return Path{s: norm.NFC.String(s)}, nil
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(s string) Path {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the textual form of the path.
func (p Path) String() string {
	return p.s
}

// IsEmpty reports whether p is the empty path.
func (p Path) IsEmpty() bool {
	return p.s == ""
}

// IsRoot reports whether p is the absolute root.
func (p Path) IsRoot() bool {
	return p.s == separator
}

// IsPropertyPath reports whether p addresses a property rather than a prim.
func (p Path) IsPropertyPath() bool {
	_, ok := p.propertySplit()
	return ok
}

// propertySplit returns the index of the property separator, if any.
func (p Path) propertySplit() (int, bool) {
	last := strings.LastIndex(p.s, separator)
	if last < 0 {
		return 0, false
	}
	dot := strings.Index(p.s[last:], propertySeparator)
	if dot < 0 {
		return 0, false
	}
	return last + dot, true
}

// PrimPath strips any property suffix.
func (p Path) PrimPath() Path {
	if idx, ok := p.propertySplit(); ok {
		return Path{s: p.s[:idx]}
	}
	return p
}

// Name returns the last element: the property name for a property path,
// the prim name otherwise. The root and the empty path have no name.
func (p Path) Name() string {
	if idx, ok := p.propertySplit(); ok {
		return p.s[idx+1:]
	}
	if p.IsEmpty() || p.IsRoot() {
		return ""
	}
	return p.s[strings.LastIndex(p.s, separator)+1:]
}

// Parent returns the owning prim of a property path, or the parent prim of a
// prim path. The parent of the root is the empty path.
func (p Path) Parent() Path {
	if p.IsPropertyPath() {
		return p.PrimPath()
	}
	if p.IsEmpty() || p.IsRoot() {
		return Empty
	}
	last := strings.LastIndex(p.s, separator)
	if last == 0 {
		return AbsoluteRoot()
	}
	return Path{s: p.s[:last]}
}

// AppendChild returns the child prim path with the given name. The name is
// sanitized. Appending to a property path or the empty path yields Empty.
func (p Path) AppendChild(name string) Path {
	if p.IsEmpty() || p.IsPropertyPath() {
		return Empty
	}
	name = Sanitize(name)
	if p.IsRoot() {
		return Path{s: separator + name}
	}
	return Path{s: p.s + separator + name}
}

// AppendProperty returns the property path for name on prim p.
func (p Path) AppendProperty(name string) Path {
	if p.IsEmpty() || p.IsRoot() || p.IsPropertyPath() {
		return Empty
	}
	return Path{s: p.s + propertySeparator + Sanitize(name)}
}

// HasPrefix reports whether prefix is p itself or one of its ancestors.
// A prim path is a prefix of its own property paths.
func (p Path) HasPrefix(prefix Path) bool {
	if prefix.IsEmpty() || p.IsEmpty() {
		return false
	}
	if prefix.IsRoot() || p == prefix {
		return true
	}
	if !strings.HasPrefix(p.s, prefix.s) {
		return false
	}
	next := p.s[len(prefix.s)]
	return next == '/' || (next == '.' && !prefix.IsPropertyPath())
}

// Less orders paths lexically. Used wherever deterministic output is needed.
func Less(a, b Path) bool {
	return a.s < b.s
}

// MarshalText implements encoding.TextMarshaler.
func (p Path) MarshalText() ([]byte, error) {
	return []byte(p.s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Path) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

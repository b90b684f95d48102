package scenepath

import (
	"fmt"
	"strings"
)

// Discriminator roots below a synchronizer's root path.
const (
	RprimScope    = "rprims"
	SprimScope    = "sprims"
	MaterialScope = "materials"
)

// Mapper derives Paths from host scene-graph locations.
//
// Host locations use '|' separated full path names ("|group1|cube1|cubeShape1")
// and may contain namespace separators (':'), both of which are mapped to
// path elements. The mapping is pure, so the same host location always yields
// the same Path for the same Mapper root.
type Mapper struct {
	root      Path
	rprims    Path
	sprims    Path
	materials Path
}

// NewMapper creates a Mapper rooted at root. An empty root defaults to
// "/SceneSync".
func NewMapper(root Path) *Mapper {
	if root.IsEmpty() || root.IsPropertyPath() {
		root = AbsoluteRoot().AppendChild("SceneSync")
	}
	return &Mapper{
		root:      root,
		rprims:    root.AppendChild(RprimScope),
		sprims:    root.AppendChild(SprimScope),
		materials: root.AppendChild(MaterialScope),
	}
}

// Root returns the synchronizer root.
func (m *Mapper) Root() Path { return m.root }

// RprimRoot returns the root under which all drawable prims live.
func (m *Mapper) RprimRoot() Path { return m.rprims }

// SprimRoot returns the root under which lights and cameras live.
func (m *Mapper) SprimRoot() Path { return m.sprims }

// MaterialRoot returns the root under which materials live.
func (m *Mapper) MaterialRoot() Path { return m.materials }

// HostPath maps a host full path name below base.
func (m *Mapper) HostPath(base Path, hostPath string) Path {
	p := base
	for _, elem := range splitHostPath(hostPath) {
		p = p.AppendChild(elem)
	}
	return p
}

// PrimPath maps a host location to an rprim or sprim path.
func (m *Mapper) PrimPath(hostPath string, isSprim bool) Path {
	if isSprim {
		return m.HostPath(m.sprims, hostPath)
	}
	return m.HostPath(m.rprims, hostPath)
}

// MaterialPath maps a shading-group node name to its material path.
func (m *Mapper) MaterialPath(nodeName string) Path {
	if nodeName == "" {
		return Empty
	}
	return m.HostPath(m.materials, nodeName)
}

// RenderItemPath maps a render item to its rprim path. The fast id keeps
// paths unique when a shape draws several items with the same name.
func (m *Mapper) RenderItemPath(hostPath, itemName string, fastID int) Path {
	base := m.rprims
	if hostPath != "" {
		base = m.HostPath(m.rprims, hostPath)
	}
	if base.IsEmpty() {
		return Empty
	}
	return base.AppendChild(fmt.Sprintf("%s_%d", itemName, fastID))
}

func splitHostPath(hostPath string) []string {
	return strings.FieldsFunc(hostPath, func(r rune) bool {
		return r == '|' || r == ':'
	})
}

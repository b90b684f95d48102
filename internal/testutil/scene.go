package testutil

import "github.com/roach88/scenesync/internal/host"

// LightSet returns the default light set of s, creating it on first use.
func LightSet(s *host.Scene) *host.Node {
	if set, ok := s.Lookup(host.DefaultLightSet); ok {
		return set
	}
	return s.MustCreate(host.TypeObjectSet, host.DefaultLightSet, nil)
}

// LinkLight makes xf a member of the default light set.
func LinkLight(s *host.Scene, xf *host.Node) {
	s.Connect(xf, host.PlugInstObjGroups, LightSet(s), host.PlugDagSetMembers)
}

// UnlinkLight removes xf from the default light set.
func UnlinkLight(s *host.Scene, xf *host.Node) {
	s.Disconnect(xf, host.PlugInstObjGroups, LightSet(s), host.PlugDagSetMembers)
}

// Mesh creates a transform named name with a mesh shape nameShape below it.
func Mesh(s *host.Scene, name string) (xf, shape *host.Node) {
	xf = s.MustCreate(host.TypeTransform, name, nil)
	return xf, s.MustCreate("mesh", name+"Shape", xf)
}

// Light creates a lit transform named name with a light of typeName below it.
func Light(s *host.Scene, typeName, name string) (xf, shape *host.Node) {
	xf = s.MustCreate(host.TypeTransform, name, nil)
	LinkLight(s, xf)
	return xf, s.MustCreate(typeName, name+"Shape", xf)
}

// Material creates a shading engine and assigns every shape to it.
func Material(s *host.Scene, name string, shapes ...*host.Node) *host.Node {
	sg := s.MustCreate(host.TypeShadingEngine, name, nil)
	for _, shape := range shapes {
		s.Assign(shape, sg)
	}
	return sg
}

package host

import (
	"fmt"
	"slices"

	"cogentcore.org/core/base/ordmap"
	"github.com/go-gl/mathgl/mgl64"
)

// Node is the Entity implementation used by Scene.
type Node struct {
	id       EntityID
	name     string
	typeName string
	deleted  bool

	parents  []*Node
	children []*Node

	local        mgl64.Mat4
	visible      bool
	intermediate bool
	geometry     Geometry
	attrs        map[string]any
	shading      *Node
	sets         []*Node
}

// ID implements Entity.
func (n *Node) ID() EntityID { return n.id }

// Valid implements Entity.
func (n *Node) Valid() bool { return n != nil && !n.deleted }

// TypeName implements Entity.
func (n *Node) TypeName() string { return n.typeName }

// Name implements Entity.
func (n *Node) Name() string { return n.name }

type subscription struct {
	entity EntityID
	event  Event
	fn     func()
}

// Scene is an in-memory host scene graph. Node names are unique within a
// Scene, which keeps DagPath resolution a name lookup.
//
// Scene is not safe for concurrent use; like a real host it expects all
// access from one thread.
type Scene struct {
	nextID   EntityID
	nextCB   CallbackID
	roots    []*Node
	nodes    map[EntityID]*Node
	byName   map[string]*Node
	subs     *ordmap.Map[CallbackID, subscription]
	added    *ordmap.Map[CallbackID, func(Entity)]
	removed  *ordmap.Map[CallbackID, func(Entity)]
	connects *ordmap.Map[CallbackID, func(src, dst Plug, made bool)]

	strayUnsubscribes int
}

// NewScene creates an empty scene.
func NewScene() *Scene {
	return &Scene{
		nodes:    make(map[EntityID]*Node),
		byName:   make(map[string]*Node),
		subs:     ordmap.New[CallbackID, subscription](),
		added:    ordmap.New[CallbackID, func(Entity)](),
		removed:  ordmap.New[CallbackID, func(Entity)](),
		connects: ordmap.New[CallbackID, func(src, dst Plug, made bool)](),
	}
}

// Create adds a node named name of the given type under parent (nil for the
// world root) and fires node-added callbacks.
func (s *Scene) Create(typeName, name string, parent *Node) (*Node, error) {
	if _, exists := s.byName[name]; exists {
		return nil, fmt.Errorf("create %q: name already in use", name)
	}
	if parent != nil && !parent.Valid() {
		return nil, fmt.Errorf("create %q: parent is not live", name)
	}

	s.nextID++
	n := &Node{
		id:       s.nextID,
		name:     name,
		typeName: typeName,
		local:    mgl64.Ident4(),
		visible:  true,
		attrs:    make(map[string]any),
	}
	s.nodes[n.id] = n
	s.byName[name] = n
	if parent != nil {
		link(parent, n)
	} else if isDag(typeName) {
		s.roots = append(s.roots, n)
	}

	for _, kv := range s.added.Order {
		kv.Value(n)
	}
	return n, nil
}

// MustCreate is Create that panics on error, for fixtures.
func (s *Scene) MustCreate(typeName, name string, parent *Node) *Node {
	n, err := s.Create(typeName, name, parent)
	if err != nil {
		panic(err)
	}
	return n
}

// Delete removes a node and its exclusively owned descendants.
// Per-entity about-to-delete subscriptions fire while the node is still
// live; node-removed callbacks fire after.
func (s *Scene) Delete(n *Node) error {
	if !n.Valid() {
		return fmt.Errorf("delete: node is not live")
	}
	for _, child := range slices.Clone(n.children) {
		if len(child.parents) == 1 {
			if err := s.Delete(child); err != nil {
				return err
			}
		} else {
			unlink(n, child)
		}
	}

	s.Notify(n, EventAboutDelete)

	for _, p := range slices.Clone(n.parents) {
		unlink(p, n)
	}
	s.roots = slices.DeleteFunc(s.roots, func(r *Node) bool { return r == n })
	n.deleted = true
	delete(s.byName, n.name)

	for _, kv := range s.removed.Order {
		kv.Value(n)
	}
	return nil
}

// Lookup returns a live node by name.
func (s *Scene) Lookup(name string) (*Node, bool) {
	n, ok := s.byName[name]
	return n, ok
}

// AddInstance parents an existing shape under another transform.
func (s *Scene) AddInstance(shape, parent *Node) error {
	if !shape.Valid() || !parent.Valid() {
		return fmt.Errorf("instance: node is not live")
	}
	if slices.Contains(parent.children, shape) {
		return fmt.Errorf("instance %q: already under %q", shape.name, parent.name)
	}
	link(parent, shape)
	return nil
}

// Reparent moves a node under a new parent (nil for the world root).
func (s *Scene) Reparent(n, parent *Node) error {
	if !n.Valid() {
		return fmt.Errorf("reparent: node is not live")
	}
	for _, p := range slices.Clone(n.parents) {
		unlink(p, n)
	}
	s.roots = slices.DeleteFunc(s.roots, func(r *Node) bool { return r == n })
	if parent != nil {
		link(parent, n)
	} else {
		s.roots = append(s.roots, n)
	}
	s.notifySubtree(n, EventReparent)
	return nil
}

// SetMatrix sets a node's local matrix and notifies the subtree.
func (s *Scene) SetMatrix(n *Node, m mgl64.Mat4) {
	n.local = m
	s.notifySubtree(n, EventTransform)
}

// SetVisible sets a node's own visibility and notifies the subtree.
func (s *Scene) SetVisible(n *Node, visible bool) {
	n.visible = visible
	s.notifySubtree(n, EventVisibility)
}

// SetIntermediate flags a shape as an intermediate (non-drawn) object.
func (s *Scene) SetIntermediate(n *Node, intermediate bool) {
	n.intermediate = intermediate
	n.attrs[AttrIntermediate] = intermediate
}

// SetGeometry replaces a shape's geometry.
func (s *Scene) SetGeometry(n *Node, g Geometry) {
	n.geometry = g
	s.Notify(n, EventGeometry)
}

// SetAttribute sets an attribute and fires the params event.
func (s *Scene) SetAttribute(n *Node, name string, value any) {
	n.attrs[name] = value
	s.Notify(n, EventParams)
}

// Assign binds a shading engine to a shape.
func (s *Scene) Assign(shape, shadingEngine *Node) {
	shape.shading = shadingEngine
	s.Notify(shape, EventShading)
}

// Connect links src.srcPlug to dst.dstPlug. Connecting a transform's
// instObjGroups to an object set makes the transform a member of that set.
func (s *Scene) Connect(src *Node, srcPlug string, dst *Node, dstPlug string) {
	if srcPlug == PlugInstObjGroups && !slices.Contains(src.sets, dst) {
		src.sets = append(src.sets, dst)
	}
	s.fireConnection(src, srcPlug, dst, dstPlug, true)
}

// Disconnect removes a link made by Connect.
func (s *Scene) Disconnect(src *Node, srcPlug string, dst *Node, dstPlug string) {
	if srcPlug == PlugInstObjGroups {
		src.sets = slices.DeleteFunc(src.sets, func(n *Node) bool { return n == dst })
	}
	s.fireConnection(src, srcPlug, dst, dstPlug, false)
}

func (s *Scene) fireConnection(src *Node, srcPlug string, dst *Node, dstPlug string, made bool) {
	from := Plug{Entity: src, Name: srcPlug}
	to := Plug{Entity: dst, Name: dstPlug}
	for _, kv := range s.connects.Order {
		kv.Value(from, to, made)
	}
}

// Notify fires every subscription of ev on n, in subscription order.
func (s *Scene) Notify(n *Node, ev Event) {
	var fire []func()
	for _, kv := range s.subs.Order {
		if kv.Value.entity == n.id && kv.Value.event == ev {
			fire = append(fire, kv.Value.fn)
		}
	}
	for _, fn := range fire {
		fn()
	}
}

func (s *Scene) notifySubtree(n *Node, ev Event) {
	seen := make(map[EntityID]bool)
	var walk func(*Node)
	walk = func(cur *Node) {
		if seen[cur.id] {
			return
		}
		seen[cur.id] = true
		s.Notify(cur, ev)
		for _, c := range cur.children {
			walk(c)
		}
	}
	walk(n)
}

// SubscriptionCount returns the number of live per-entity subscriptions.
func (s *Scene) SubscriptionCount() int {
	return s.subs.Len()
}

// StrayUnsubscribes counts Unsubscribe calls for unknown ids.
func (s *Scene) StrayUnsubscribes() int {
	return s.strayUnsubscribes
}

// ActiveLights returns a light entry for every visible light location that
// illuminates by default, in traversal order.
func (s *Scene) ActiveLights() []ActiveLight {
	var out []ActiveLight
	s.walk(func(p DagPath, n *Node) {
		if !IsLightType(n.typeName) {
			return
		}
		if !s.Visible(p) || !s.IlluminatesByDefault(p) {
			return
		}
		al := ActiveLight{Path: p}
		if shadow, ok := n.attrs[AttrShadow].(bool); ok && shadow {
			al.HasShadow = true
			proj := mgl64.Ortho(-10, 10, -10, 10, 0.1, 100)
			al.ShadowMatrix = proj.Mul4(s.WorldMatrix(p).Inv())
		}
		out = append(out, al)
	})
	return out
}

// Walk visits every DAG location depth-first.
func (s *Scene) Walk(fn func(DagPath, Entity)) {
	s.walk(func(p DagPath, n *Node) { fn(p, n) })
}

func (s *Scene) walk(fn func(DagPath, *Node)) {
	var visit func(DagPath, *Node)
	visit = func(p DagPath, n *Node) {
		fn(p, n)
		for _, c := range n.children {
			visit(p.Push(c.name), c)
		}
	}
	for _, r := range s.roots {
		visit(DagPath("|"+r.name), r)
	}
}

// PathTo implements Graph.
func (s *Scene) PathTo(e Entity) (DagPath, bool) {
	paths := s.AllPathsTo(e)
	if len(paths) == 0 {
		return "", false
	}
	return paths[0], true
}

// AllPathsTo implements Graph.
func (s *Scene) AllPathsTo(e Entity) []DagPath {
	n := s.node(e)
	if n == nil || !isDag(n.typeName) {
		return nil
	}
	if len(n.parents) == 0 {
		if slices.Contains(s.roots, n) {
			return []DagPath{DagPath("|" + n.name)}
		}
		return nil
	}
	var out []DagPath
	for _, p := range n.parents {
		for _, pp := range s.AllPathsTo(p) {
			out = append(out, pp.Push(n.name))
		}
	}
	return out
}

// EntityAt implements Graph.
func (s *Scene) EntityAt(p DagPath) (Entity, bool) {
	n := s.resolve(p)
	if n == nil {
		return nil, false
	}
	return n, true
}

func (s *Scene) resolve(p DagPath) *Node {
	if !p.Valid() {
		return nil
	}
	n, ok := s.byName[p.Leaf()]
	if !ok || !n.Valid() {
		return nil
	}
	if !slices.Contains(s.AllPathsTo(n), p) {
		return nil
	}
	return n
}

// Children implements Graph.
func (s *Scene) Children(p DagPath) []DagPath {
	n := s.resolve(p)
	if n == nil {
		return nil
	}
	out := make([]DagPath, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, p.Push(c.name))
	}
	return out
}

// IsTransform implements Graph.
func (s *Scene) IsTransform(p DagPath) bool {
	n := s.resolve(p)
	return n != nil && n.typeName == TypeTransform
}

// IsIntermediate implements Graph.
func (s *Scene) IsIntermediate(p DagPath) bool {
	n := s.resolve(p)
	return n != nil && n.intermediate
}

// InstanceNumber implements Graph.
func (s *Scene) InstanceNumber(p DagPath) int {
	n := s.resolve(p)
	if n == nil {
		return 0
	}
	return max(slices.Index(s.AllPathsTo(n), p), 0)
}

// WorldMatrix implements Graph.
func (s *Scene) WorldMatrix(p DagPath) mgl64.Mat4 {
	m := mgl64.Ident4()
	for cur := p; cur.Valid(); cur = cur.Parent() {
		n := s.resolve(cur)
		if n == nil {
			return mgl64.Ident4()
		}
		m = n.local.Mul4(m)
	}
	return m
}

// Visible implements Graph.
func (s *Scene) Visible(p DagPath) bool {
	if !p.Valid() {
		return false
	}
	for cur := p; cur.Valid(); cur = cur.Parent() {
		n := s.resolve(cur)
		if n == nil || !n.visible {
			return false
		}
	}
	return true
}

// IlluminatesByDefault implements Graph.
func (s *Scene) IlluminatesByDefault(p DagPath) bool {
	parent := s.resolve(p.Parent())
	if parent == nil {
		return false
	}
	for _, set := range parent.sets {
		if set.Valid() && set.name == DefaultLightSet {
			return true
		}
	}
	return false
}

// ShadingGroup implements Graph.
func (s *Scene) ShadingGroup(p DagPath) (Entity, bool) {
	n := s.resolve(p)
	if n == nil || n.shading == nil || !n.shading.Valid() {
		return nil, false
	}
	return n.shading, true
}

// Geometry implements Graph.
func (s *Scene) Geometry(e Entity) Geometry {
	if n := s.node(e); n != nil {
		return n.geometry
	}
	return Geometry{}
}

// Attribute implements Graph.
func (s *Scene) Attribute(e Entity, name string) (any, bool) {
	n := s.node(e)
	if n == nil {
		return nil, false
	}
	v, ok := n.attrs[name]
	return v, ok
}

// Subscribe implements Graph.
func (s *Scene) Subscribe(e Entity, ev Event, fn func()) CallbackID {
	s.nextCB++
	s.subs.Add(s.nextCB, subscription{entity: e.ID(), event: ev, fn: fn})
	return s.nextCB
}

// Unsubscribe implements Graph.
func (s *Scene) Unsubscribe(id CallbackID) {
	if s.subs.DeleteKey(id) || s.added.DeleteKey(id) || s.removed.DeleteKey(id) || s.connects.DeleteKey(id) {
		return
	}
	s.strayUnsubscribes++
}

// OnNodeAdded implements Graph.
func (s *Scene) OnNodeAdded(fn func(Entity)) CallbackID {
	s.nextCB++
	s.added.Add(s.nextCB, fn)
	return s.nextCB
}

// OnNodeRemoved implements Graph.
func (s *Scene) OnNodeRemoved(fn func(Entity)) CallbackID {
	s.nextCB++
	s.removed.Add(s.nextCB, fn)
	return s.nextCB
}

// OnConnection implements Graph.
func (s *Scene) OnConnection(fn func(src, dst Plug, made bool)) CallbackID {
	s.nextCB++
	s.connects.Add(s.nextCB, fn)
	return s.nextCB
}

func (s *Scene) node(e Entity) *Node {
	if e == nil || !e.Valid() {
		return nil
	}
	n, ok := s.nodes[e.ID()]
	if !ok || n.deleted {
		return nil
	}
	return n
}

func link(parent, child *Node) {
	parent.children = append(parent.children, child)
	child.parents = append(child.parents, parent)
}

func unlink(parent, child *Node) {
	parent.children = slices.DeleteFunc(parent.children, func(n *Node) bool { return n == child })
	child.parents = slices.DeleteFunc(child.parents, func(n *Node) bool { return n == parent })
}

// isDag reports whether nodes of this type live in the DAG hierarchy.
// Shading engines and sets are dependency nodes.
func isDag(typeName string) bool {
	return typeName != TypeShadingEngine && typeName != TypeObjectSet
}

// IsLightType reports whether a host type name is one of the built-in light types.
func IsLightType(typeName string) bool {
	switch typeName {
	case "pointLight", "directionalLight", "spotLight", "areaLight", "aiSkyDomeLight":
		return true
	}
	return false
}

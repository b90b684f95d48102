package adapter

import (
	"fmt"
	"sort"

	"github.com/roach88/scenesync/internal/host"
	"github.com/roach88/scenesync/internal/renderindex"
	"github.com/roach88/scenesync/internal/scenepath"
)

// Creator signatures, one per adapter family.
type (
	LightCreateFunc    func(ctx Context, id scenepath.Path, dag host.DagPath, e host.Entity) LightAdapter
	CameraCreateFunc   func(ctx Context, id scenepath.Path, dag host.DagPath, e host.Entity) CameraAdapter
	ShapeCreateFunc    func(ctx Context, id scenepath.Path, dag host.DagPath, e host.Entity) ShapeAdapter
	MaterialCreateFunc func(ctx Context, id scenepath.Path, e host.Entity) MaterialAdapter
)

// Registry maps host type names to adapter creators.
type Registry struct {
	lights    map[string]LightCreateFunc
	cameras   map[string]CameraCreateFunc
	shapes    map[string]ShapeCreateFunc
	materials map[string]MaterialCreateFunc
}

// NewRegistry returns a registry with the built-in host types registered.
func NewRegistry() *Registry {
	r := &Registry{
		lights:    make(map[string]LightCreateFunc),
		cameras:   make(map[string]CameraCreateFunc),
		shapes:    make(map[string]ShapeCreateFunc),
		materials: make(map[string]MaterialCreateFunc),
	}
	for typeName, prim := range map[string]renderindex.PrimType{
		"pointLight":       renderindex.PrimSphereLight,
		"directionalLight": renderindex.PrimDistantLight,
		"spotLight":        renderindex.PrimSphereLight,
		"areaLight":        renderindex.PrimRectLight,
		"aiSkyDomeLight":   renderindex.PrimDomeLight,
	} {
		r.lights[typeName] = lightCreator(prim)
	}
	r.cameras["camera"] = func(ctx Context, id scenepath.Path, dag host.DagPath, e host.Entity) CameraAdapter {
		return NewCamera(ctx, id, dag, e)
	}
	r.shapes["mesh"] = shapeCreator(renderindex.PrimMesh)
	r.shapes["nurbsCurve"] = shapeCreator(renderindex.PrimBasisCurves)
	r.materials[host.TypeShadingEngine] = func(ctx Context, id scenepath.Path, e host.Entity) MaterialAdapter {
		return NewMaterial(ctx, id, e)
	}
	return r
}

func lightCreator(prim renderindex.PrimType) LightCreateFunc {
	return func(ctx Context, id scenepath.Path, dag host.DagPath, e host.Entity) LightAdapter {
		return NewLight(ctx, id, dag, e, prim)
	}
}

func shapeCreator(prim renderindex.PrimType) ShapeCreateFunc {
	return func(ctx Context, id scenepath.Path, dag host.DagPath, e host.Entity) ShapeAdapter {
		return NewShape(ctx, id, dag, e, prim)
	}
}

func checkName(typeName string, isNil bool) error {
	if typeName == "" {
		return fmt.Errorf("register adapter: empty type name")
	}
	if isNil {
		return fmt.Errorf("register adapter %q: nil creator", typeName)
	}
	return nil
}

// RegisterLight registers or replaces the light creator for typeName.
func (r *Registry) RegisterLight(typeName string, fn LightCreateFunc) error {
	if err := checkName(typeName, fn == nil); err != nil {
		return err
	}
	r.lights[typeName] = fn
	return nil
}

// RegisterCamera registers or replaces the camera creator for typeName.
func (r *Registry) RegisterCamera(typeName string, fn CameraCreateFunc) error {
	if err := checkName(typeName, fn == nil); err != nil {
		return err
	}
	r.cameras[typeName] = fn
	return nil
}

// RegisterShape registers or replaces the shape creator for typeName.
func (r *Registry) RegisterShape(typeName string, fn ShapeCreateFunc) error {
	if err := checkName(typeName, fn == nil); err != nil {
		return err
	}
	r.shapes[typeName] = fn
	return nil
}

// RegisterMaterial registers or replaces the material creator for typeName.
func (r *Registry) RegisterMaterial(typeName string, fn MaterialCreateFunc) error {
	if err := checkName(typeName, fn == nil); err != nil {
		return err
	}
	r.materials[typeName] = fn
	return nil
}

// LightCreator looks up a light creator.
func (r *Registry) LightCreator(typeName string) (LightCreateFunc, bool) {
	fn, ok := r.lights[typeName]
	return fn, ok
}

// CameraCreator looks up a camera creator.
func (r *Registry) CameraCreator(typeName string) (CameraCreateFunc, bool) {
	fn, ok := r.cameras[typeName]
	return fn, ok
}

// ShapeCreator looks up a shape creator.
func (r *Registry) ShapeCreator(typeName string) (ShapeCreateFunc, bool) {
	fn, ok := r.shapes[typeName]
	return fn, ok
}

// MaterialCreator looks up a material creator.
func (r *Registry) MaterialCreator(typeName string) (MaterialCreateFunc, bool) {
	fn, ok := r.materials[typeName]
	return fn, ok
}

// Classify reports which family handles typeName. Lights win over cameras,
// cameras over shapes. Materials are not classified here since they are
// never reached through the DAG.
func (r *Registry) Classify(typeName string) (Kind, bool) {
	if _, ok := r.lights[typeName]; ok {
		return KindLight, true
	}
	if _, ok := r.cameras[typeName]; ok {
		return KindCamera, true
	}
	if _, ok := r.shapes[typeName]; ok {
		return KindShape, true
	}
	return 0, false
}

// LightTypes returns the registered light type names, sorted.
func (r *Registry) LightTypes() []string {
	out := make([]string, 0, len(r.lights))
	for k := range r.lights {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

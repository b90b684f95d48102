package producer

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/roach88/scenesync/internal/ids"
	"github.com/roach88/scenesync/internal/scenepath"
)

// Scope wildcards.
const (
	AllViewports = ""
	AllRenderers = ""
)

var (
	ErrNilSceneIndex   = errors.New("scene index is nil")
	ErrUnknownViewport = errors.New("viewport does not exist")
	// ErrRendererMismatch reports a named-viewport registration whose
	// renderer filter excludes that viewport's renderer.
	ErrRendererMismatch = errors.New("renderer filter excludes viewport")
)

// SceneIndex is an externally supplied data producer. The registry only
// needs its identity.
type SceneIndex interface {
	Name() string
}

// Options scope a registration.
type Options struct {
	// Viewport is a viewport id or AllViewports.
	Viewport string
	// Renderers is a comma-separated renderer list or AllRenderers.
	Renderers string
	// Root is where the producer's prims are inserted. Default: "/".
	Root string
	// DCCNode is an opaque host object the producer belongs to.
	DCCNode any
}

// RegistrationID identifies one Add call.
type RegistrationID string

// Registration is one producer scene index with its scope.
type Registration struct {
	ID         RegistrationID
	SceneIndex SceneIndex
	Viewport   string
	Renderers  []string
	Root       scenepath.Path
	DCCNode    any
}

// MatchesRenderer reports whether the registration applies to renderer.
// Names compare case-insensitively.
func (r *Registration) MatchesRenderer(renderer string) bool {
	if len(r.Renderers) == 0 {
		return true
	}
	return slices.ContainsFunc(r.Renderers, func(name string) bool {
		return strings.EqualFold(name, renderer)
	})
}

// ViewportInfo describes a viewport when it is created.
type ViewportInfo struct {
	ID       string
	Renderer string
}

// Sink receives registrations as they enter and leave viewports.
type Sink interface {
	Insert(viewport string, reg *Registration)
	Remove(viewport string, reg *Registration)
}

type event struct {
	insert   bool
	viewport string
	reg      *Registration
}

// Registry is the producer side table. It is safe for concurrent use; the
// sink is called outside the lock, in the order changes were made.
type Registry struct {
	mu        sync.Mutex
	sink      Sink
	idGen     ids.Generator
	logger    *slog.Logger
	global    []*Registration
	viewports map[string]ViewportInfo
	// inserted holds the registrations live in each viewport.
	inserted map[string][]*Registration
}

// Option configures a Registry.
type Option func(*Registry)

// WithIDGenerator sets the registration id generator. Default: ids.UUIDv7.
func WithIDGenerator(g ids.Generator) Option {
	return func(r *Registry) {
		r.idGen = g
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry creates an empty registry. A nil sink is allowed.
func NewRegistry(sink Sink, opts ...Option) *Registry {
	r := &Registry{
		sink:      sink,
		idGen:     ids.UUIDv7{},
		logger:    slog.Default(),
		viewports: make(map[string]ViewportInfo),
		inserted:  make(map[string][]*Registration),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add registers si. A registration for every viewport is inserted into all
// matching existing viewports and remembered for future ones. A named
// viewport must already exist and its renderer must pass the filter.
// Adding the same scene index to the same scope twice returns the first
// registration's id.
func (r *Registry) Add(si SceneIndex, opts Options) (RegistrationID, error) {
	if si == nil {
		return "", ErrNilSceneIndex
	}
	root := scenepath.AbsoluteRoot()
	if opts.Root != "" {
		p, err := scenepath.Parse(opts.Root)
		if err != nil {
			return "", fmt.Errorf("add %s: %w", si.Name(), err)
		}
		root = p
	}

	r.mu.Lock()
	var events []event
	id, err := r.addLocked(si, opts, root, &events)
	r.mu.Unlock()

	if err != nil {
		return "", err
	}
	r.notify(events)
	return id, nil
}

func (r *Registry) addLocked(si SceneIndex, opts Options, root scenepath.Path, events *[]event) (RegistrationID, error) {
	if opts.Viewport != AllViewports {
		if _, ok := r.viewports[opts.Viewport]; !ok {
			return "", fmt.Errorf("add %s to %q: %w", si.Name(), opts.Viewport, ErrUnknownViewport)
		}
	}
	if existing := r.find(si, opts.Viewport); existing != nil {
		r.logger.Debug("producer already registered", "sceneIndex", si.Name(), "viewport", opts.Viewport)
		return existing.ID, nil
	}

	reg := &Registration{
		SceneIndex: si,
		Viewport:   opts.Viewport,
		Renderers:  parseRenderers(opts.Renderers),
		Root:       root,
		DCCNode:    opts.DCCNode,
	}
	if vp, ok := r.viewports[reg.Viewport]; ok && !reg.MatchesRenderer(vp.Renderer) {
		return "", fmt.Errorf("add %s to %q (renderer %s): %w", si.Name(), vp.ID, vp.Renderer, ErrRendererMismatch)
	}
	reg.ID = RegistrationID(r.idGen.Generate())

	if reg.Viewport == AllViewports {
		r.global = append(r.global, reg)
		for _, vp := range r.sortedViewports() {
			r.insertLocked(vp, reg, events)
		}
	} else {
		r.insertLocked(r.viewports[reg.Viewport], reg, events)
	}
	r.logger.Debug("producer added", "id", reg.ID, "sceneIndex", si.Name(), "viewport", reg.Viewport, "root", reg.Root)
	return reg.ID, nil
}

func (r *Registry) find(si SceneIndex, viewport string) *Registration {
	if viewport == AllViewports {
		for _, reg := range r.global {
			if reg.SceneIndex == si {
				return reg
			}
		}
		return nil
	}
	for _, reg := range r.inserted[viewport] {
		if reg.SceneIndex == si {
			return reg
		}
	}
	return nil
}

func (r *Registry) insertLocked(vp ViewportInfo, reg *Registration, events *[]event) bool {
	if !reg.MatchesRenderer(vp.Renderer) {
		return false
	}
	if slices.Contains(r.inserted[vp.ID], reg) {
		return false
	}
	r.inserted[vp.ID] = append(r.inserted[vp.ID], reg)
	*events = append(*events, event{insert: true, viewport: vp.ID, reg: reg})
	return true
}

// Remove unregisters si from viewport. With AllViewports it is removed
// everywhere, including registrations made for a single viewport.
func (r *Registry) Remove(si SceneIndex, viewport string) {
	if si == nil {
		return
	}
	r.mu.Lock()
	var events []event
	if viewport == AllViewports {
		r.global = slices.DeleteFunc(r.global, func(reg *Registration) bool {
			return reg.SceneIndex == si
		})
		for _, id := range r.sortedViewportIDs() {
			r.removeLocked(id, si, &events)
		}
	} else {
		r.removeLocked(viewport, si, &events)
	}
	r.mu.Unlock()
	r.notify(events)
}

func (r *Registry) removeLocked(viewport string, si SceneIndex, events *[]event) {
	r.inserted[viewport] = slices.DeleteFunc(r.inserted[viewport], func(reg *Registration) bool {
		if reg.SceneIndex != si {
			return false
		}
		*events = append(*events, event{viewport: viewport, reg: reg})
		return true
	})
}

// RemoveAllForViewport drops a destroyed viewport and every registration
// inserted into it. Registrations for every viewport are kept.
func (r *Registry) RemoveAllForViewport(viewport string) {
	r.mu.Lock()
	var events []event
	for _, reg := range r.inserted[viewport] {
		events = append(events, event{viewport: viewport, reg: reg})
	}
	delete(r.inserted, viewport)
	delete(r.viewports, viewport)
	r.mu.Unlock()
	r.notify(events)
}

// ViewportAdded records a new viewport and inserts every registration for
// all viewports whose renderer filter matches. It returns the inserted
// registrations.
func (r *Registry) ViewportAdded(info ViewportInfo) []*Registration {
	r.mu.Lock()
	var events []event
	r.viewports[info.ID] = info
	for _, reg := range r.global {
		r.insertLocked(info, reg, &events)
	}
	r.mu.Unlock()

	r.notify(events)
	out := make([]*Registration, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.reg)
	}
	r.logger.Debug("viewport added", "viewport", info.ID, "renderer", info.Renderer, "producers", len(out))
	return out
}

// Inserted returns the registrations live in viewport, in insertion order.
func (r *Registry) Inserted(viewport string) []*Registration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.inserted[viewport])
}

// Viewports returns the known viewport ids, sorted.
func (r *Registry) Viewports() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sortedViewportIDs()
}

func (r *Registry) sortedViewportIDs() []string {
	out := make([]string, 0, len(r.viewports))
	for id := range r.viewports {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (r *Registry) sortedViewports() []ViewportInfo {
	out := make([]ViewportInfo, 0, len(r.viewports))
	for _, id := range r.sortedViewportIDs() {
		out = append(out, r.viewports[id])
	}
	return out
}

func (r *Registry) notify(events []event) {
	if r.sink == nil {
		return
	}
	for _, ev := range events {
		if ev.insert {
			r.sink.Insert(ev.viewport, ev.reg)
		} else {
			r.sink.Remove(ev.viewport, ev.reg)
		}
	}
}

func parseRenderers(s string) []string {
	var out []string
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

package task

import (
	"fmt"

	"gravitybench.ai/internal/physics"
)

// Builder constructs a task bound to a fresh world.
type Builder func(w *physics.Adapter, cfg Config) Task

// Registry maps task kind + version to a builder. It is assembled once at
// service start; an unknown kind/version fails lookup before any session or
// world exists.
type Registry struct {
	kinds    []string
	versions map[string][]string
	builders map[string]Builder
	actions  map[string][]string
}

func NewRegistry() *Registry {
	r := &Registry{
		versions: make(map[string][]string),
		builders: make(map[string]Builder),
		actions:  make(map[string][]string),
	}
	r.register("gap", "v1", GapActions, func(w *physics.Adapter, cfg Config) Task {
		return newGap(w, cfg, 1)
	})
	r.register("gap", "v2", GapActions, func(w *physics.Adapter, cfg Config) Task {
		return newGap(w, cfg, 2)
	})
	r.register("throw", "v1", ThrowActions, func(w *physics.Adapter, cfg Config) Task {
		return newThrow(w, cfg, 1)
	})
	r.register("throw", "v2", ThrowActions, func(w *physics.Adapter, cfg Config) Task {
		return newThrow(w, cfg, 2)
	})
	return r
}

func (r *Registry) register(kind, version string, actions []string, b Builder) {
	if _, seen := r.versions[kind]; !seen {
		r.kinds = append(r.kinds, kind)
		r.actions[kind] = actions
	}
	r.versions[kind] = append(r.versions[kind], version)
	r.builders[kind+"/"+version] = b
}

func (r *Registry) New(w *physics.Adapter, cfg Config) (Task, error) {
	b, ok := r.builders[cfg.Task+"/"+cfg.Version]
	if !ok {
		return nil, fmt.Errorf("unknown task %q version %q", cfg.Task, cfg.Version)
	}
	return b(w, cfg), nil
}

func (r *Registry) Has(kind, version string) bool {
	_, ok := r.builders[kind+"/"+version]
	return ok
}

type Descriptor struct {
	Kind     string
	Versions []string
	Actions  []string
}

func (r *Registry) Describe() []Descriptor {
	out := make([]Descriptor, 0, len(r.kinds))
	for _, k := range r.kinds {
		out = append(out, Descriptor{
			Kind:     k,
			Versions: append([]string(nil), r.versions[k]...),
			Actions:  append([]string(nil), r.actions[k]...),
		})
	}
	return out
}

// Package stdlib provides the spell built-in function registry.
package stdlib

import (
	"sort"

	"github.com/spelllang/spell/pkg/evaluator"
)

// Fn represents a built-in function.
type Fn struct {
	Name    string
	Arity   int // -1 accepts any number of arguments
	Execute func(call *evaluator.Call) (evaluator.Value, error)
}

// Registry holds registered built-in functions.
type Registry struct {
	fns map[string]*Fn
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		fns: make(map[string]*Fn),
	}
}

// Register adds a built-in to the registry, replacing any earlier entry
// with the same name.
func (r *Registry) Register(fn Fn) {
	r.fns[fn.Name] = &fn
}

// Get retrieves a built-in by name.
func (r *Registry) Get(name string) *Fn {
	return r.fns[name]
}

// All returns all registered built-ins.
func (r *Registry) All() map[string]*Fn {
	return r.fns
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.fns))
	for name := range r.fns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtins converts the registry into the dispatch table the evaluator
// expects in ExecOptions.
func (r *Registry) Builtins() map[string]*evaluator.BuiltinFn {
	out := make(map[string]*evaluator.BuiltinFn, len(r.fns))
	for name, fn := range r.fns {
		out[name] = &evaluator.BuiltinFn{
			Name:    fn.Name,
			Arity:   fn.Arity,
			Execute: fn.Execute,
		}
	}
	return out
}

// Default returns a registry holding every default built-in.
func Default() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}

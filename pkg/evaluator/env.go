package evaluator

import (
	"fmt"
	"sort"

	"github.com/spelllang/spell/pkg/diagnostics"
)

// Scope is a scoped environment for variable bindings.
// Lookups and assignments walk the parent chain outward.
type Scope struct {
	bindings map[string]Value
	parent   *Scope
}

// NewScope creates a new scope with an optional parent.
func NewScope(parent *Scope) *Scope {
	return &Scope{
		bindings: make(map[string]Value),
		parent:   parent,
	}
}

// Child creates a new child scope whose parent is this scope.
func (s *Scope) Child() *Scope {
	return NewScope(s)
}

// Parent returns the enclosing scope, or nil for the global scope.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Define binds name in this scope only, overwriting any existing binding here.
func (s *Scope) Define(name string, val Value) {
	s.bindings[name] = val
}

// Assign overwrites the binding in the nearest scope that already holds name.
func (s *Scope) Assign(name string, val Value) error {
	for sc := s; sc != nil; sc = sc.parent {
		if _, ok := sc.bindings[name]; ok {
			sc.bindings[name] = val
			return nil
		}
	}
	return undefinedVariable(name)
}

// Get returns the value bound to name in the nearest scope that holds it.
func (s *Scope) Get(name string) (Value, error) {
	if val, ok := s.Lookup(name); ok {
		return val, nil
	}
	return nil, undefinedVariable(name)
}

// Lookup is like Get but reports absence with a bool.
func (s *Scope) Lookup(name string) (Value, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if val, ok := sc.bindings[name]; ok {
			return val, true
		}
	}
	return nil, false
}

// Has checks whether name is bound in this scope or any parent.
func (s *Scope) Has(name string) bool {
	_, ok := s.Lookup(name)
	return ok
}

// Depth is the number of scopes between this one and the global scope.
func (s *Scope) Depth() int {
	d := 0
	for sc := s.Parent(); sc != nil; sc = sc.Parent() {
		d++
	}
	return d
}

// Names returns the names bound directly in this scope, sorted.
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.bindings))
	for name := range s.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func undefinedVariable(name string) *RuntimeError {
	return &RuntimeError{
		Code:    diagnostics.EUndefined,
		Message: fmt.Sprintf("Undefined variable '%s'.", name),
	}
}

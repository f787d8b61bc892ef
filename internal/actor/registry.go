package actor

import (
	"slices"
	"sync"

	"anttrader/pkg/exception"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

// Registry stores actors by identifier.
type Registry struct {
	actors map[string]Actor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{actors: make(map[string]Actor)}
}

// Insert stores a under id, replacing any previous actor.
func (r *Registry) Insert(id string, a Actor) {
	if _, ok := r.actors[id]; ok {
		logs.Warnf("replacing existing actor with id: %s", id)
	}
	r.actors[id] = a
}

// Get returns the actor stored under id.
func (r *Registry) Get(id string) (Actor, bool) {
	a, ok := r.actors[id]
	return a, ok
}

// Remove deletes and returns the actor stored under id.
func (r *Registry) Remove(id string) (Actor, bool) {
	a, ok := r.actors[id]
	if ok {
		delete(r.actors, id)
	}
	return a, ok
}

// Contains reports whether an actor is stored under id.
func (r *Registry) Contains(id string) bool {
	_, ok := r.actors[id]
	return ok
}

// Len returns the number of registered actors.
func (r *Registry) Len() int {
	return len(r.actors)
}

// IsEmpty reports whether no actor is registered.
func (r *Registry) IsEmpty() bool {
	return len(r.actors) == 0
}

// IDs returns the registered identifiers, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.actors))
	for id := range r.actors {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Clear removes every actor.
func (r *Registry) Clear() {
	clear(r.actors)
}

// Register stores a under its own ID and returns it with its concrete type.
func Register[T Actor](r *Registry, a T) T {
	r.Insert(a.ID(), a)
	return a
}

// Get returns the actor stored under id as a T.
func Get[T Actor](r *Registry, id string) (T, error) {
	var zero T

	a, ok := r.actors[id]
	if !ok {
		return zero, errors.Wrapf(exception.ErrActorNotFound, "actor for %s", id)
	}

	typed, ok := a.(T)
	if !ok {
		return zero, errors.Wrapf(exception.ErrActorTypeMismatch, "actor for %s is %T, want %T", id, a, zero)
	}

	return typed, nil
}

// TryGet is like Get but reports failure with a boolean.
func TryGet[T Actor](r *Registry, id string) (T, bool) {
	a, err := Get[T](r, id)
	return a, err == nil
}

// MustGet is like Get but panics when the actor is missing or of another type.
func MustGet[T Actor](r *Registry, id string) T {
	a, err := Get[T](r, id)
	if err != nil {
		panic(err)
	}
	return a
}

var (
	defaultMu       sync.Mutex
	defaultRegistry *Registry
)

// Default returns the process-wide registry, creating it on first use.
func Default() *Registry {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultRegistry == nil {
		defaultRegistry = NewRegistry()
	}
	return defaultRegistry
}

// Install makes r the process-wide registry. It fails once a default registry
// exists, whether installed or created by Default.
func Install(r *Registry) error {
	if r == nil {
		return exception.ErrNilInstance
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultRegistry != nil {
		return exception.ErrRegistryAlreadyInstalled
	}
	defaultRegistry = r
	return nil
}

func resetDefault() {
	defaultMu.Lock()
	defaultRegistry = nil
	defaultMu.Unlock()
}

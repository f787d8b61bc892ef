/*
Package actor keeps components addressable by identifier.

A Registry is confined to the goroutine driving the trader, the same way the
message bus is. Actors are stored as pointers so callers can mutate them in
place; the registry keeps ownership and never copies an actor.

Typed access goes through Get, TryGet and MustGet, which check the runtime
type of the stored actor before handing it out.
*/
package actor

// Actor is a component registered under a unique identifier.
type Actor interface {
	// ID returns the unique identifier of the actor.
	ID() string
	// Handle processes a message addressed to the actor.
	Handle(message any)
}

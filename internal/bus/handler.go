package bus

import (
	"reflect"

	"github.com/google/uuid"
	"github.com/yanun0323/logs"
)

// Handler receives messages from the bus. Two handlers with the same ID are
// the same handler as far as the bus is concerned.
type Handler interface {
	ID() string
	Handle(message any)
}

// SameHandler reports whether a and b share an identifier.
func SameHandler(a, b Handler) bool {
	return a.ID() == b.ID()
}

// TypedHandler invokes its callback only for messages of runtime type T.
type TypedHandler[T any] struct {
	id       string
	callback func(T)
}

// NewTypedHandler creates a handler for messages of type T. An empty id
// generates a unique one.
func NewTypedHandler[T any](id string, callback func(T)) *TypedHandler[T] {
	if id == "" {
		id = generateHandlerID(reflect.TypeFor[T]().String())
	}
	return &TypedHandler[T]{id: id, callback: callback}
}

func (h *TypedHandler[T]) ID() string {
	return h.id
}

func (h *TypedHandler[T]) Handle(message any) {
	msg, ok := message.(T)
	if !ok {
		logs.Errorf("handler %s expected message of type %s, got %T", h.id, reflect.TypeFor[T](), message)
		return
	}
	h.callback(msg)
}

// AnyHandler receives every message regardless of type.
type AnyHandler struct {
	id       string
	callback func(any)
}

// NewAnyHandler creates an untyped handler. An empty id generates a unique one.
func NewAnyHandler(id string, callback func(any)) *AnyHandler {
	if id == "" {
		id = generateHandlerID("any")
	}
	return &AnyHandler{id: id, callback: callback}
}

func (h *AnyHandler) ID() string {
	return h.id
}

func (h *AnyHandler) Handle(message any) {
	h.callback(message)
}

func generateHandlerID(kind string) string {
	return "<" + kind + ">-" + uuid.NewString()
}

package exception

import "errors"

// Actor errors
var (
	ErrActorNotFound     = errors.New("actor: not found")
	ErrActorTypeMismatch = errors.New("actor: type mismatch")

	ErrRegistryAlreadyInstalled = errors.New("actor: default registry already initialized")
)

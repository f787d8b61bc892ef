package exception

import "errors"

// Bus errors
var (
	ErrInvalidIdentifier      = errors.New("bus: invalid identifier")
	ErrDuplicateCorrelationID = errors.New("bus: correlation id already has a registered handler")
	ErrStreamReceiverTaken    = errors.New("bus: stream receiver already taken")
	ErrBusAlreadyInstalled    = errors.New("bus: default message bus already initialized")
)

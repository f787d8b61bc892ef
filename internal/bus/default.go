package bus

import (
	"sync"

	"anttrader/internal/model"
	"anttrader/pkg/exception"

	"github.com/google/uuid"
)

var (
	defaultMu  sync.Mutex
	defaultBus *MessageBus
)

// Default returns the process-wide bus, creating it on first use.
func Default() *MessageBus {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultBus == nil {
		defaultBus = New(model.DefaultTraderID, uuid.New())
	}
	return defaultBus
}

// Install makes b the process-wide bus. It fails once a default bus exists,
// whether installed or created by Default.
func Install(b *MessageBus) error {
	if b == nil {
		return exception.ErrNilInstance
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultBus != nil {
		return exception.ErrBusAlreadyInstalled
	}
	defaultBus = b
	return nil
}

func resetDefault() {
	defaultMu.Lock()
	defaultBus = nil
	defaultMu.Unlock()
}

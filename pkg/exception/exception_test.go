package exception

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	yerrors "github.com/yanun0323/errors"
)

func TestWrappedSentinelsMatch(t *testing.T) {
	sentinels := []error{
		ErrNilInstance,
		ErrInvalidArgument,
		ErrInvalidIdentifier,
		ErrDuplicateCorrelationID,
		ErrStreamReceiverTaken,
		ErrBusAlreadyInstalled,
		ErrActorNotFound,
		ErrActorTypeMismatch,
		ErrRegistryAlreadyInstalled,
	}

	for _, sentinel := range sentinels {
		t.Run(sentinel.Error(), func(t *testing.T) {
			wrapped := yerrors.Wrapf(sentinel, "context %d", 1)
			assert.True(t, errors.Is(wrapped, sentinel))
			assert.True(t, yerrors.Is(wrapped, sentinel))

			twice := yerrors.Wrap(wrapped, "outer").With("key", "value")
			assert.True(t, errors.Is(twice, sentinel))
		})
	}
}

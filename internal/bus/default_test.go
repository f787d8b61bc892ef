package bus

import (
	"testing"

	"anttrader/pkg/exception"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsLazyAndStable(t *testing.T) {
	resetDefault()
	t.Cleanup(resetDefault)

	b := Default()
	require.NotNil(t, b)
	assert.Same(t, b, Default())

	err := Install(New("TRADER-009", uuid.New()))
	assert.ErrorIs(t, err, exception.ErrBusAlreadyInstalled)
	assert.Same(t, b, Default())
}

func TestInstall(t *testing.T) {
	resetDefault()
	t.Cleanup(resetDefault)

	assert.ErrorIs(t, Install(nil), exception.ErrNilInstance)

	installed := New("TRADER-007", uuid.New())
	require.NoError(t, Install(installed))
	assert.Same(t, installed, Default())

	assert.ErrorIs(t, Install(New("TRADER-008", uuid.New())), exception.ErrBusAlreadyInstalled)
}

package model

import (
	"testing"

	"anttrader/pkg/exception"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckValidString(t *testing.T) {
	testCases := []struct {
		name  string
		value string
		ok    bool
	}{
		{"plain", "RiskEngine", true},
		{"inner space", "a b", true},
		{"empty", "", false},
		{"whitespace", " \t\n", false},
		{"non ascii", "价格", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckValidString(tc.value, "value")
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, exception.ErrInvalidIdentifier)
		})
	}
}

func TestTraderID(t *testing.T) {
	id, err := NewTraderID("TRADER-001")
	require.NoError(t, err)
	assert.Equal(t, "001", id.Tag())
	assert.Equal(t, "TRADER-001", id.String())

	id, err = NewTraderID("DESK-A-042")
	require.NoError(t, err)
	assert.Equal(t, "042", id.Tag())

	_, err = NewTraderID("TRADER")
	assert.ErrorIs(t, err, exception.ErrInvalidIdentifier)

	_, err = NewTraderID("")
	assert.ErrorIs(t, err, exception.ErrInvalidIdentifier)
}

func TestComponentID(t *testing.T) {
	id, err := NewComponentID("RiskEngine")
	require.NoError(t, err)
	assert.Equal(t, "RiskEngine", id.String())

	_, err = NewComponentID("   ")
	assert.ErrorIs(t, err, exception.ErrInvalidIdentifier)
}

func TestDecodeQuote(t *testing.T) {
	q, err := DecodeQuote([]byte(`{"symbol":"BTCUSDT","bid":"100.5","ask":"100.6","ts_event":42}`))
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", q.Symbol)
	assert.Equal(t, int64(42), q.TsEvent)

	_, err = DecodeQuote([]byte(`{"symbol":`))
	assert.Error(t, err)
}

package model

import (
	"strings"

	"anttrader/pkg/exception"

	"github.com/yanun0323/errors"
)

// DefaultTraderID is used when no trader is configured.
const DefaultTraderID TraderID = "TRADER-001"

// TraderID identifies the trader owning a message bus. It must contain a '-'
// separating the name from the tag, e.g. "TRADER-001".
type TraderID string

// NewTraderID validates value and returns it as a TraderID.
func NewTraderID(value string) (TraderID, error) {
	if err := CheckValidString(value, "trader_id"); err != nil {
		return "", err
	}

	if !strings.Contains(value, "-") {
		return "", errors.Wrapf(exception.ErrInvalidIdentifier, "invalid string for 'trader_id' did not contain '-', was '%s'", value)
	}

	return TraderID(value), nil
}

// Tag returns the part after the last '-'.
func (id TraderID) Tag() string {
	s := string(id)
	return s[strings.LastIndexByte(s, '-')+1:]
}

func (id TraderID) String() string {
	return string(id)
}

// ComponentID identifies a component such as a strategy or the risk engine.
type ComponentID string

// NewComponentID validates value and returns it as a ComponentID.
func NewComponentID(value string) (ComponentID, error) {
	if err := CheckValidString(value, "component_id"); err != nil {
		return "", err
	}

	return ComponentID(value), nil
}

func (id ComponentID) String() string {
	return string(id)
}

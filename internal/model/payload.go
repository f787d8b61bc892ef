package model

import (
	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/yanun0323/decimal"
	"github.com/yanun0323/errors"
)

// Quote is a top of book update published on "data.quotes.<venue>.<symbol>".
type Quote struct {
	Symbol  string          `json:"symbol"`
	Bid     decimal.Decimal `json:"bid"`
	Ask     decimal.Decimal `json:"ask"`
	TsEvent int64           `json:"ts_event"`
}

// DecodeQuote parses a JSON encoded quote.
func DecodeQuote(payload []byte) (Quote, error) {
	var q Quote
	if err := sonic.ConfigFastest.Unmarshal(payload, &q); err != nil {
		return Quote{}, errors.Wrap(err, "unmarshal quote").With("payload", string(payload))
	}

	return q, nil
}

// OrderRequest asks the risk engine to approve an order. The decision is
// delivered to the response handler registered under CorrelationID.
type OrderRequest struct {
	CorrelationID uuid.UUID       `json:"correlation_id"`
	Strategy      ComponentID     `json:"strategy"`
	Symbol        string          `json:"symbol"`
	Qty           int64           `json:"qty"`
	Price         decimal.Decimal `json:"price"`
}

// RiskDecision answers an OrderRequest.
type RiskDecision struct {
	CorrelationID uuid.UUID `json:"correlation_id"`
	Accepted      bool      `json:"accepted"`
	Reason        string    `json:"reason,omitempty"`
}

package masterdata

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian/internal/invoicing"
	"github.com/meridian-erp/meridian/internal/ledger"
)

// Entity is a configured financial counterparty. Collectors and suppliers
// carry a rate used as the divisor for operation debits; carriers carry a
// pricing type and freight rate; partners carry neither.
type Entity struct {
	ID          int64                 `json:"id"`
	Kind        ledger.EntityKind     `json:"kind"`
	Name        string                `json:"name"`
	Rate        decimal.Decimal       `json:"rate"`
	PricingType invoicing.PricingType `json:"pricing_type,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

var (
	// ErrNotFound indicates record missing.
	ErrNotFound = errors.New("masterdata: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("masterdata: invalid input")
	// ErrDuplicate indicates a name collision within a kind.
	ErrDuplicate = errors.New("masterdata: duplicate entity name")
)

package invoicing

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// PricingType selects how a carrier charges freight.
type PricingType string

const (
	PricingPercentage PricingType = "PERCENTAGE"
	PricingPerWeight  PricingType = "PER_WEIGHT"
	PricingPerUnit    PricingType = "PER_UNIT"
)

// Carrier is a shipping provider with a pricing strategy.
type Carrier struct {
	ID          int64
	Name        string
	PricingType PricingType
	Rate        decimal.Decimal
}

// LineItem is one invoice line. UnitWeight is the total weight of the line,
// not the weight of a single unit.
type LineItem struct {
	ID         int64           `json:"id"`
	ProductID  int64           `json:"product_id"`
	Quantity   int64           `json:"quantity"`
	UnitValue  decimal.Decimal `json:"unit_value"`
	UnitWeight decimal.Decimal `json:"unit_weight"`
}

// Total returns quantity × unit value.
func (l LineItem) Total() decimal.Decimal {
	return l.UnitValue.Mul(decimal.NewFromInt(l.Quantity))
}

// Invoice holds the persisted invoice fields. Totals are derived state and
// never stored; AllocateCosts recomputes them on every read.
type Invoice struct {
	ID                       int64
	Number                   string
	LineItems                []LineItem
	PrimaryCarrierID         int64
	SecondaryCarrierID       int64
	CrossBorderSurchargeRate decimal.Decimal
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// Totals are the five derived fields of an invoice, always computed together.
type Totals struct {
	Subtotal             decimal.Decimal `json:"subtotal"`
	FreightPrimary       decimal.Decimal `json:"freight_primary"`
	FreightSecondary     decimal.Decimal `json:"freight_secondary"`
	CrossBorderSurcharge decimal.Decimal `json:"cross_border_surcharge"`
	GrandTotal           decimal.Decimal `json:"grand_total"`
}

var (
	// ErrNotFound indicates invoice or carrier missing.
	ErrNotFound = errors.New("invoicing: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("invoicing: invalid input")
	// ErrUnknownPricingType indicates a carrier with an unregistered strategy.
	ErrUnknownPricingType = errors.New("invoicing: unknown pricing type")
)

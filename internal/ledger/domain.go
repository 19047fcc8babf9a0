package ledger

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// EntityKind identifies which party a running balance is tracked against.
type EntityKind string

const (
	KindCollector EntityKind = "COLLECTOR"
	KindSupplier  EntityKind = "SUPPLIER"
	KindCarrier   EntityKind = "CARRIER"
	KindPartner   EntityKind = "PARTNER"
)

// ParseEntityKind maps a route/query value onto a known kind.
func ParseEntityKind(value string) (EntityKind, bool) {
	switch EntityKind(value) {
	case KindCollector, KindSupplier, KindCarrier, KindPartner:
		return EntityKind(value), true
	}
	return "", false
}

// SourceKind identifies the raw record an event was derived from.
type SourceKind string

const (
	SourceOperation SourceKind = "OPERATION"
	SourcePayment   SourceKind = "PAYMENT"
)

// Entity is the ledger-facing view of a master data record. Rate is the
// divisor applied to operation values when deriving debits; values <= 0 fall
// back to 1 at normalization time.
type Entity struct {
	ID   int64
	Kind EntityKind
	Name string
	Rate decimal.Decimal
}

// Event is an immutable signed amount attributed to one entity. Negative
// amounts are debits, positive amounts credits. The sign is fixed at
// normalization and never reinterpreted downstream.
type Event struct {
	EntityID   int64           `json:"entity_id"`
	EntityKind EntityKind      `json:"entity_kind"`
	Date       time.Time       `json:"date"`
	Amount     decimal.Decimal `json:"amount"`
	SourceKind SourceKind      `json:"source_kind"`
	SourceID   int64           `json:"source_id"`
}

// RawOperation is an operation/invoice record as fetched from storage. Value
// is the gross amount before the entity rate is applied.
type RawOperation struct {
	ID       int64
	EntityID int64
	Date     time.Time
	Value    float64
}

// RawPayment is a manually registered payment. A negative amount is treated
// as an additional debit rather than rejected.
type RawPayment struct {
	ID       int64
	EntityID int64
	Date     time.Time
	Amount   float64
}

var (
	// ErrEntityNotFound indicates the entity is missing from master data.
	ErrEntityNotFound = errors.New("ledger: entity not found")
	// ErrMalformedAmount indicates a NaN or infinite raw amount.
	ErrMalformedAmount = errors.New("ledger: malformed amount")
	// ErrUnknownEntityKind indicates an unrecognised entity kind value.
	ErrUnknownEntityKind = errors.New("ledger: unknown entity kind")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("ledger: invalid input")
)

package ledger

import (
	"log/slog"
	"math"

	"github.com/shopspring/decimal"
)

// Normalizer converts heterogeneous raw records into signed ledger events.
// Operations debit the entity with value/rate, payments credit with their own
// sign preserved. Malformed amounts are skipped and logged, never folded.
type Normalizer struct {
	logger *slog.Logger
}

// NewNormalizer constructs a Normalizer.
func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger}
}

// Normalize merges operations and payments for one entity into a single
// event slice. Order of the result is not significant; ComputeBalance sorts.
func (n *Normalizer) Normalize(entity Entity, ops []RawOperation, payments []RawPayment) []Event {
	events := make([]Event, 0, len(ops)+len(payments))
	events = append(events, n.NormalizeOperations(entity, ops)...)
	events = append(events, n.NormalizePayments(entity, payments)...)
	return events
}

// NormalizeOperations derives debit events from operation records. The debit
// is -(value / rate); a zero or missing rate falls back to 1 so the entity is
// charged the gross value unmodified. That fallback is deliberate policy, not
// silent data loss, so it is logged at Warn.
func (n *Normalizer) NormalizeOperations(entity Entity, ops []RawOperation) []Event {
	rate := entity.Rate
	if rate.LessThanOrEqual(decimal.Zero) {
		n.logger.Warn("entity rate unusable, charging gross value",
			slog.Int64("entity_id", entity.ID),
			slog.String("entity_kind", string(entity.Kind)),
			slog.String("rate", rate.String()))
		rate = decimal.NewFromInt(1)
	}
	events := make([]Event, 0, len(ops))
	for _, op := range ops {
		if !validAmount(op.Value) {
			n.logger.Warn("skipping operation with malformed value",
				slog.Int64("entity_id", entity.ID),
				slog.Int64("operation_id", op.ID),
				slog.Float64("value", op.Value))
			continue
		}
		debit := decimal.NewFromFloat(op.Value).Div(rate).Round(2).Neg()
		events = append(events, Event{
			EntityID:   entity.ID,
			EntityKind: entity.Kind,
			Date:       op.Date,
			Amount:     debit,
			SourceKind: SourceOperation,
			SourceID:   op.ID,
		})
	}
	return events
}

// NormalizePayments derives credit events from manual payments. A negative
// payment amount stays negative and acts as an additional debit.
func (n *Normalizer) NormalizePayments(entity Entity, payments []RawPayment) []Event {
	events := make([]Event, 0, len(payments))
	for _, p := range payments {
		if !validAmount(p.Amount) {
			n.logger.Warn("skipping payment with malformed amount",
				slog.Int64("entity_id", entity.ID),
				slog.Int64("payment_id", p.ID),
				slog.Float64("amount", p.Amount))
			continue
		}
		events = append(events, Event{
			EntityID:   entity.ID,
			EntityKind: entity.Kind,
			Date:       p.Date,
			Amount:     decimal.NewFromFloat(p.Amount).Round(2),
			SourceKind: SourcePayment,
			SourceID:   p.ID,
		})
	}
	return events
}

func validAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

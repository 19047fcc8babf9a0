package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// BalanceResult is the derived state for one entity: the current balance and
// the full chronological history it was folded from.
type BalanceResult struct {
	Balance decimal.Decimal `json:"balance"`
	History []Event         `json:"history"`
}

// ComputeBalance orders the entity's events and reduces them to a running
// balance. The same algorithm applies to every entity kind; only
// normalization differs upstream. The fold is a plain left-to-right sum, so
// the result is independent of input order and additive over any partition
// of the event set.
//
// Ties on equal dates break on (SourceKind, SourceID) so the history order is
// stable and explicit rather than an accident of slice concatenation.
func ComputeBalance(entity Entity, events []Event) BalanceResult {
	history := make([]Event, 0, len(events))
	for _, ev := range events {
		if ev.EntityID != entity.ID {
			continue
		}
		history = append(history, ev)
	}
	sort.SliceStable(history, func(i, j int) bool {
		a, b := history[i], history[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.SourceKind != b.SourceKind {
			return a.SourceKind < b.SourceKind
		}
		return a.SourceID < b.SourceID
	})
	balance := decimal.Zero
	for _, ev := range history {
		balance = balance.Add(ev.Amount)
	}
	return BalanceResult{Balance: balance, History: history}
}

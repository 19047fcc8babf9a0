package procurement

import (
	"context"
	"fmt"

	"github.com/meridian-erp/meridian/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetItem(ctx context.Context, id int64) (ShoppingListItem, error)
	ListItems(ctx context.Context, listID int64) ([]ShoppingListItem, error)
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service applies reconciliation actions to shopping list items. The
// transitions themselves are pure functions; the service adds confirmation
// gating, persistence, and audit.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService constructs the procurement service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// PurchaseInput describes a record-purchase action. Confirmed acknowledges
// soft warnings from a previous uncommitted attempt.
type PurchaseInput struct {
	ItemID    int64
	Quantity  int64
	Confirmed bool
}

// ActionResult carries the outcome of a reconciliation action. When soft
// warnings were raised without confirmation, Committed is false and Item
// shows the state that would result.
type ActionResult struct {
	Item      ShoppingListItem `json:"item"`
	Warnings  []Warning        `json:"warnings,omitempty"`
	Committed bool             `json:"committed"`
}

// RecordPurchase adds a purchased quantity. Warnings (over-purchase, marked
// shortfall) block the commit until the caller confirms.
func (s *Service) RecordPurchase(ctx context.Context, input PurchaseInput) (ActionResult, error) {
	item, err := s.repo.GetItem(ctx, input.ItemID)
	if err != nil {
		return ActionResult{}, err
	}
	next, warnings, err := RecordPurchase(item, input.Quantity)
	if err != nil {
		return ActionResult{}, err
	}
	if len(warnings) > 0 && !input.Confirmed {
		return ActionResult{Item: next, Warnings: warnings, Committed: false}, nil
	}
	if err := s.saveItem(ctx, next); err != nil {
		return ActionResult{}, err
	}
	s.recordAudit(ctx, "ITEM_PURCHASE", next, map[string]any{"added_qty": input.Quantity, "confirmed": input.Confirmed})
	return ActionResult{Item: next, Warnings: warnings, Committed: true}, nil
}

// QuantitiesInput describes a defective/returned adjustment.
type QuantitiesInput struct {
	ItemID       int64
	DefectiveQty int64
	ReturnedQty  int64
}

// UpdateQuantities adjusts defective and returned quantities under the
// reconciliation invariants.
func (s *Service) UpdateQuantities(ctx context.Context, input QuantitiesInput) (ActionResult, error) {
	item, err := s.repo.GetItem(ctx, input.ItemID)
	if err != nil {
		return ActionResult{}, err
	}
	next, err := UpdateQuantities(item, input.DefectiveQty, input.ReturnedQty)
	if err != nil {
		return ActionResult{}, err
	}
	if err := s.saveItem(ctx, next); err != nil {
		return ActionResult{}, err
	}
	s.recordAudit(ctx, "ITEM_QUANTITIES", next, map[string]any{"defective": input.DefectiveQty, "returned": input.ReturnedQty})
	return ActionResult{Item: next, Committed: true}, nil
}

// UndoPurchase reopens a purchased or received item.
func (s *Service) UndoPurchase(ctx context.Context, itemID int64) (ActionResult, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return ActionResult{}, err
	}
	next, err := Undo(item)
	if err != nil {
		return ActionResult{}, err
	}
	if err := s.saveItem(ctx, next); err != nil {
		return ActionResult{}, err
	}
	s.recordAudit(ctx, "ITEM_UNDO", next, nil)
	return ActionResult{Item: next, Committed: true}, nil
}

// GetItem loads one shopping list item.
func (s *Service) GetItem(ctx context.Context, id int64) (ShoppingListItem, error) {
	return s.repo.GetItem(ctx, id)
}

// ListItems returns all items of a shopping list.
func (s *Service) ListItems(ctx context.Context, listID int64) ([]ShoppingListItem, error) {
	return s.repo.ListItems(ctx, listID)
}

func (s *Service) saveItem(ctx context.Context, item ShoppingListItem) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateItem(ctx, item)
	})
}

func (s *Service) recordAudit(ctx context.Context, action string, item ShoppingListItem, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if meta == nil {
		meta = map[string]any{}
	}
	meta["status"] = string(item.Status)
	meta["final_qty"] = item.FinalQty()
	_ = s.audit.Record(ctx, shared.AuditLog{Action: action, Entity: "procurement.item", EntityID: fmt.Sprintf("%d", item.ID), Meta: meta})
}

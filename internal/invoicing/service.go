package invoicing

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian/internal/observability"
	"github.com/meridian-erp/meridian/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetInvoice(ctx context.Context, id int64) (Invoice, error)
	ListInvoices(ctx context.Context, limit, offset int) ([]Invoice, int, error)
}

// CarrierPort resolves carriers from master data.
type CarrierPort interface {
	GetCarrier(ctx context.Context, id int64) (Carrier, error)
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service owns invoice persistence and derived totals. Totals are never
// stored: every read allocates fresh from the current line items and carrier
// selection.
type Service struct {
	repo     RepositoryPort
	carriers CarrierPort
	audit    AuditPort
	metrics  *observability.Metrics
	policy   TotalsPolicy
}

// NewService constructs the invoicing service.
func NewService(repo RepositoryPort, carriers CarrierPort, audit AuditPort, metrics *observability.Metrics, policy TotalsPolicy) *Service {
	return &Service{repo: repo, carriers: carriers, audit: audit, metrics: metrics, policy: policy}
}

// LineItemInput describes one line of an invoice payload.
type LineItemInput struct {
	ProductID  int64           `json:"product_id"`
	Quantity   int64           `json:"quantity"`
	UnitValue  decimal.Decimal `json:"unit_value"`
	UnitWeight decimal.Decimal `json:"unit_weight"`
}

// SaveInvoiceInput describes creation or update payload. A zero carrier id
// leaves the slot unselected.
type SaveInvoiceInput struct {
	Number                   string          `json:"number"`
	PrimaryCarrierID         int64           `json:"primary_carrier_id"`
	SecondaryCarrierID       int64           `json:"secondary_carrier_id"`
	CrossBorderSurchargeRate decimal.Decimal `json:"cross_border_surcharge_rate"`
	LineItems                []LineItemInput `json:"line_items"`
}

func (input SaveInvoiceInput) validate() error {
	if input.CrossBorderSurchargeRate.IsNegative() {
		return fmt.Errorf("%w: surcharge rate must not be negative", ErrValidation)
	}
	for _, line := range input.LineItems {
		if line.ProductID == 0 {
			return fmt.Errorf("%w: line item requires product id", ErrValidation)
		}
		if line.Quantity < 0 {
			return fmt.Errorf("%w: quantity must not be negative", ErrValidation)
		}
		if line.UnitValue.IsNegative() || line.UnitWeight.IsNegative() {
			return fmt.Errorf("%w: unit value and weight must not be negative", ErrValidation)
		}
	}
	return nil
}

func (input SaveInvoiceInput) lineItems() []LineItem {
	items := make([]LineItem, 0, len(input.LineItems))
	for _, line := range input.LineItems {
		items = append(items, LineItem{
			ProductID:  line.ProductID,
			Quantity:   line.Quantity,
			UnitValue:  line.UnitValue,
			UnitWeight: line.UnitWeight,
		})
	}
	return items
}

// CreateInvoice persists a new invoice and returns it with derived totals.
func (s *Service) CreateInvoice(ctx context.Context, input SaveInvoiceInput) (Invoice, Totals, error) {
	if err := input.validate(); err != nil {
		return Invoice{}, Totals{}, err
	}
	primary, secondary, err := s.resolveCarriers(ctx, input.PrimaryCarrierID, input.SecondaryCarrierID)
	if err != nil {
		return Invoice{}, Totals{}, err
	}
	inv := Invoice{
		Number:                   input.Number,
		PrimaryCarrierID:         input.PrimaryCarrierID,
		SecondaryCarrierID:       input.SecondaryCarrierID,
		CrossBorderSurchargeRate: input.CrossBorderSurchargeRate,
		LineItems:                input.lineItems(),
	}
	if inv.Number == "" {
		inv.Number = generateNumber("INV")
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.CreateInvoice(ctx, inv)
		if err != nil {
			return err
		}
		inv.ID = id
		return tx.ReplaceLineItems(ctx, id, inv.LineItems)
	})
	if err != nil {
		return Invoice{}, Totals{}, err
	}
	totals, err := s.allocate(inv, primary, secondary)
	if err != nil {
		return Invoice{}, Totals{}, err
	}
	s.recordAudit(ctx, "INVOICE_CREATE", inv.ID, map[string]any{"number": inv.Number})
	return inv, totals, nil
}

// UpdateInvoice replaces the mutable fields of an invoice. Any change to line
// items, carrier selection, or the surcharge rate flows through here, so the
// next read recomputes every derived total together.
func (s *Service) UpdateInvoice(ctx context.Context, id int64, input SaveInvoiceInput) (Invoice, Totals, error) {
	if err := input.validate(); err != nil {
		return Invoice{}, Totals{}, err
	}
	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return Invoice{}, Totals{}, err
	}
	primary, secondary, err := s.resolveCarriers(ctx, input.PrimaryCarrierID, input.SecondaryCarrierID)
	if err != nil {
		return Invoice{}, Totals{}, err
	}
	inv.PrimaryCarrierID = input.PrimaryCarrierID
	inv.SecondaryCarrierID = input.SecondaryCarrierID
	inv.CrossBorderSurchargeRate = input.CrossBorderSurchargeRate
	inv.LineItems = input.lineItems()
	if input.Number != "" {
		inv.Number = input.Number
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateInvoice(ctx, inv); err != nil {
			return err
		}
		return tx.ReplaceLineItems(ctx, inv.ID, inv.LineItems)
	})
	if err != nil {
		return Invoice{}, Totals{}, err
	}
	totals, err := s.allocate(inv, primary, secondary)
	if err != nil {
		return Invoice{}, Totals{}, err
	}
	s.recordAudit(ctx, "INVOICE_UPDATE", inv.ID, map[string]any{"number": inv.Number})
	return inv, totals, nil
}

// GetInvoice loads one invoice with freshly allocated totals.
func (s *Service) GetInvoice(ctx context.Context, id int64) (Invoice, Totals, error) {
	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return Invoice{}, Totals{}, err
	}
	primary, secondary, err := s.resolveCarriers(ctx, inv.PrimaryCarrierID, inv.SecondaryCarrierID)
	if err != nil {
		return Invoice{}, Totals{}, err
	}
	totals, err := s.allocate(inv, primary, secondary)
	if err != nil {
		return Invoice{}, Totals{}, err
	}
	return inv, totals, nil
}

// ListInvoices returns a page of invoices without totals.
func (s *Service) ListInvoices(ctx context.Context, limit, offset int) ([]Invoice, int, error) {
	return s.repo.ListInvoices(ctx, limit, offset)
}

func (s *Service) allocate(inv Invoice, primary, secondary *Carrier) (Totals, error) {
	totals, err := AllocateCosts(inv, primary, secondary, s.policy)
	if err != nil {
		return Totals{}, err
	}
	s.metrics.ObserveAllocation()
	return totals, nil
}

func (s *Service) resolveCarriers(ctx context.Context, primaryID, secondaryID int64) (*Carrier, *Carrier, error) {
	primary, err := s.resolveCarrier(ctx, primaryID)
	if err != nil {
		return nil, nil, err
	}
	secondary, err := s.resolveCarrier(ctx, secondaryID)
	if err != nil {
		return nil, nil, err
	}
	return primary, secondary, nil
}

func (s *Service) resolveCarrier(ctx context.Context, id int64) (*Carrier, error) {
	if id == 0 {
		return nil, nil
	}
	carrier, err := s.carriers.GetCarrier(ctx, id)
	if err != nil {
		return nil, err
	}
	return &carrier, nil
}

func (s *Service) recordAudit(ctx context.Context, action string, invoiceID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Action: action, Entity: "invoicing", EntityID: fmt.Sprintf("%d", invoiceID), Meta: meta})
}

func generateNumber(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

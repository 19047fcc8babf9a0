package masterdata

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian/internal/invoicing"
	"github.com/meridian-erp/meridian/internal/ledger"
	"github.com/meridian-erp/meridian/internal/shared"
)

// RepositoryPort describes storage operations used by Service.
type RepositoryPort interface {
	CreateEntity(ctx context.Context, entity Entity) (int64, error)
	UpdateEntity(ctx context.Context, entity Entity) error
	GetEntity(ctx context.Context, kind ledger.EntityKind, id int64) (Entity, error)
	GetEntityByID(ctx context.Context, id int64) (Entity, error)
	ListEntities(ctx context.Context, kind ledger.EntityKind, limit, offset int) ([]Entity, int, error)
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service manages entity configuration and adapts it for the ledger and
// invoicing modules.
type Service struct {
	repo     RepositoryPort
	audit    AuditPort
	validate *validator.Validate
}

// NewService constructs the masterdata service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, validate: validator.New()}
}

// SaveEntityInput describes creation/update payload.
type SaveEntityInput struct {
	Kind        string          `json:"kind" validate:"required,oneof=COLLECTOR SUPPLIER CARRIER PARTNER"`
	Name        string          `json:"name" validate:"required,min=1,max=200"`
	Rate        decimal.Decimal `json:"rate"`
	PricingType string          `json:"pricing_type"`
}

func (s *Service) buildEntity(input SaveEntityInput) (Entity, error) {
	if err := s.validate.Struct(input); err != nil {
		return Entity{}, fmt.Errorf("%w: %s", ErrValidation, err)
	}
	kind, _ := ledger.ParseEntityKind(input.Kind)
	entity := Entity{Kind: kind, Name: input.Name, Rate: input.Rate}
	switch kind {
	case ledger.KindCollector, ledger.KindSupplier:
		if input.Rate.LessThanOrEqual(decimal.Zero) {
			return Entity{}, fmt.Errorf("%w: rate must be greater than zero", ErrValidation)
		}
	case ledger.KindCarrier:
		pricing := invoicing.PricingType(input.PricingType)
		if !invoicing.ValidPricingType(pricing) {
			return Entity{}, fmt.Errorf("%w: unsupported pricing type %q", ErrValidation, input.PricingType)
		}
		if input.Rate.IsNegative() {
			return Entity{}, fmt.Errorf("%w: rate must not be negative", ErrValidation)
		}
		entity.PricingType = pricing
	case ledger.KindPartner:
		entity.Rate = decimal.Zero
	}
	return entity, nil
}

// CreateEntity validates and persists a new entity.
func (s *Service) CreateEntity(ctx context.Context, input SaveEntityInput) (Entity, error) {
	entity, err := s.buildEntity(input)
	if err != nil {
		return Entity{}, err
	}
	id, err := s.repo.CreateEntity(ctx, entity)
	if err != nil {
		return Entity{}, err
	}
	entity.ID = id
	s.recordAudit(ctx, "ENTITY_CREATE", entity)
	return entity, nil
}

// UpdateEntity validates and persists changes to an entity. Kind is fixed at
// creation and cannot change.
func (s *Service) UpdateEntity(ctx context.Context, id int64, input SaveEntityInput) (Entity, error) {
	existing, err := s.repo.GetEntityByID(ctx, id)
	if err != nil {
		return Entity{}, err
	}
	if input.Kind != string(existing.Kind) {
		return Entity{}, fmt.Errorf("%w: entity kind cannot change", ErrValidation)
	}
	entity, err := s.buildEntity(input)
	if err != nil {
		return Entity{}, err
	}
	entity.ID = id
	if err := s.repo.UpdateEntity(ctx, entity); err != nil {
		return Entity{}, err
	}
	s.recordAudit(ctx, "ENTITY_UPDATE", entity)
	return entity, nil
}

// GetEntity loads one entity by kind and id.
func (s *Service) GetEntity(ctx context.Context, kind ledger.EntityKind, id int64) (Entity, error) {
	return s.repo.GetEntity(ctx, kind, id)
}

// ListEntities returns a page of entities of one kind.
func (s *Service) ListEntities(ctx context.Context, kind ledger.EntityKind, limit, offset int) ([]Entity, int, error) {
	return s.repo.ListEntities(ctx, kind, limit, offset)
}

// GetLedgerEntity implements ledger.EntityPort.
func (s *Service) GetLedgerEntity(ctx context.Context, kind ledger.EntityKind, id int64) (ledger.Entity, error) {
	entity, err := s.repo.GetEntity(ctx, kind, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ledger.Entity{}, ledger.ErrEntityNotFound
		}
		return ledger.Entity{}, err
	}
	return ledger.Entity{ID: entity.ID, Kind: entity.Kind, Name: entity.Name, Rate: entity.Rate}, nil
}

// GetCarrier implements invoicing.CarrierPort.
func (s *Service) GetCarrier(ctx context.Context, id int64) (invoicing.Carrier, error) {
	entity, err := s.repo.GetEntity(ctx, ledger.KindCarrier, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return invoicing.Carrier{}, invoicing.ErrNotFound
		}
		return invoicing.Carrier{}, err
	}
	return invoicing.Carrier{ID: entity.ID, Name: entity.Name, PricingType: entity.PricingType, Rate: entity.Rate}, nil
}

func (s *Service) recordAudit(ctx context.Context, action string, entity Entity) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "masterdata",
		EntityID: fmt.Sprintf("%d", entity.ID),
		Meta:     map[string]any{"kind": string(entity.Kind), "name": entity.Name},
	})
}

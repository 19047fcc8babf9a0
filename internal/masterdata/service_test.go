package masterdata

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian/internal/invoicing"
	"github.com/meridian-erp/meridian/internal/ledger"
)

type memoryRepo struct {
	entities map[int64]Entity
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{entities: make(map[int64]Entity)}
}

func (m *memoryRepo) CreateEntity(_ context.Context, entity Entity) (int64, error) {
	m.nextID++
	entity.ID = m.nextID
	m.entities[entity.ID] = entity
	return entity.ID, nil
}

func (m *memoryRepo) UpdateEntity(_ context.Context, entity Entity) error {
	if _, ok := m.entities[entity.ID]; !ok {
		return ErrNotFound
	}
	m.entities[entity.ID] = entity
	return nil
}

func (m *memoryRepo) GetEntity(_ context.Context, kind ledger.EntityKind, id int64) (Entity, error) {
	entity, ok := m.entities[id]
	if !ok || entity.Kind != kind {
		return Entity{}, ErrNotFound
	}
	return entity, nil
}

func (m *memoryRepo) GetEntityByID(_ context.Context, id int64) (Entity, error) {
	entity, ok := m.entities[id]
	if !ok {
		return Entity{}, ErrNotFound
	}
	return entity, nil
}

func (m *memoryRepo) ListEntities(_ context.Context, kind ledger.EntityKind, limit, offset int) ([]Entity, int, error) {
	var out []Entity
	for _, entity := range m.entities {
		if entity.Kind == kind {
			out = append(out, entity)
		}
	}
	return out, len(out), nil
}

func TestCreateEntityCollectorRequiresPositiveRate(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	_, err := svc.CreateEntity(context.Background(), SaveEntityInput{
		Kind: "COLLECTOR",
		Name: "Acme",
		Rate: decimal.Zero,
	})
	require.ErrorIs(t, err, ErrValidation)

	entity, err := svc.CreateEntity(context.Background(), SaveEntityInput{
		Kind: "COLLECTOR",
		Name: "Acme",
		Rate: decimal.RequireFromString("1.025"),
	})
	require.NoError(t, err)
	require.NotZero(t, entity.ID)
	require.Equal(t, ledger.KindCollector, entity.Kind)
}

func TestCreateEntityCarrierRequiresPricingType(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	_, err := svc.CreateEntity(context.Background(), SaveEntityInput{
		Kind: "CARRIER",
		Name: "Fast Freight",
		Rate: decimal.NewFromInt(2),
	})
	require.ErrorIs(t, err, ErrValidation)

	entity, err := svc.CreateEntity(context.Background(), SaveEntityInput{
		Kind:        "CARRIER",
		Name:        "Fast Freight",
		Rate:        decimal.NewFromInt(2),
		PricingType: "PER_UNIT",
	})
	require.NoError(t, err)
	require.Equal(t, invoicing.PricingPerUnit, entity.PricingType)
}

func TestCreateEntityPartnerRateZeroed(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	entity, err := svc.CreateEntity(context.Background(), SaveEntityInput{
		Kind: "PARTNER",
		Name: "Partner One",
		Rate: decimal.NewFromInt(5),
	})
	require.NoError(t, err)
	require.True(t, entity.Rate.IsZero())
}

func TestCreateEntityUnknownKind(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	_, err := svc.CreateEntity(context.Background(), SaveEntityInput{
		Kind: "WAREHOUSE",
		Name: "Depot",
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestUpdateEntityKindImmutable(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	entity, err := svc.CreateEntity(context.Background(), SaveEntityInput{
		Kind: "SUPPLIER",
		Name: "Supplies Ltd",
		Rate: decimal.NewFromInt(1),
	})
	require.NoError(t, err)

	_, err = svc.UpdateEntity(context.Background(), entity.ID, SaveEntityInput{
		Kind: "COLLECTOR",
		Name: "Supplies Ltd",
		Rate: decimal.NewFromInt(1),
	})
	require.ErrorIs(t, err, ErrValidation)

	updated, err := svc.UpdateEntity(context.Background(), entity.ID, SaveEntityInput{
		Kind: "SUPPLIER",
		Name: "Supplies Ltd Renamed",
		Rate: decimal.NewFromInt(2),
	})
	require.NoError(t, err)
	require.Equal(t, "Supplies Ltd Renamed", updated.Name)
}

func TestGetLedgerEntityAdaptsErrors(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	_, err := svc.GetLedgerEntity(context.Background(), ledger.KindSupplier, 99)
	require.ErrorIs(t, err, ledger.ErrEntityNotFound)

	created, err := svc.CreateEntity(context.Background(), SaveEntityInput{
		Kind: "SUPPLIER",
		Name: "Supplies Ltd",
		Rate: decimal.RequireFromString("1.5"),
	})
	require.NoError(t, err)

	entity, err := svc.GetLedgerEntity(context.Background(), ledger.KindSupplier, created.ID)
	require.NoError(t, err)
	require.True(t, entity.Rate.Equal(decimal.RequireFromString("1.5")))
}

func TestGetCarrierAdaptsErrors(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	_, err := svc.GetCarrier(context.Background(), 99)
	require.ErrorIs(t, err, invoicing.ErrNotFound)

	created, err := svc.CreateEntity(context.Background(), SaveEntityInput{
		Kind:        "CARRIER",
		Name:        "Fast Freight",
		Rate:        decimal.NewFromInt(3),
		PricingType: "PER_WEIGHT",
	})
	require.NoError(t, err)

	carrier, err := svc.GetCarrier(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, invoicing.PricingPerWeight, carrier.PricingType)
	require.True(t, carrier.Rate.Equal(decimal.NewFromInt(3)))
}

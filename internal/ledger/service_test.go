package ledger

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian/internal/shared"
)

type memoryRepo struct {
	operations []RawOperation
	payments   []RawPayment
	nextID     int64
	createErr  error
}

func (m *memoryRepo) ListOperations(_ context.Context, _ EntityKind, entityID int64) ([]RawOperation, error) {
	out := make([]RawOperation, 0)
	for _, op := range m.operations {
		if op.EntityID == entityID {
			out = append(out, op)
		}
	}
	return out, nil
}

func (m *memoryRepo) ListPayments(_ context.Context, _ EntityKind, entityID int64) ([]RawPayment, error) {
	out := make([]RawPayment, 0)
	for _, p := range m.payments {
		if p.EntityID == entityID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryRepo) CreatePayment(_ context.Context, _ EntityKind, entityID int64, amount float64, date time.Time) (int64, error) {
	if m.createErr != nil {
		return 0, m.createErr
	}
	m.nextID++
	m.payments = append(m.payments, RawPayment{ID: m.nextID, EntityID: entityID, Amount: amount, Date: date})
	return m.nextID, nil
}

type memoryEntities struct {
	entities map[int64]Entity
}

func (m *memoryEntities) GetLedgerEntity(_ context.Context, kind EntityKind, entityID int64) (Entity, error) {
	entity, ok := m.entities[entityID]
	if !ok || entity.Kind != kind {
		return Entity{}, ErrEntityNotFound
	}
	return entity, nil
}

type memoryAudit struct {
	logs []shared.AuditLog
}

func (m *memoryAudit) Record(_ context.Context, log shared.AuditLog) error {
	m.logs = append(m.logs, log)
	return nil
}

func newTestService(repo *memoryRepo, entities *memoryEntities, audit AuditPort) *Service {
	return NewService(repo, entities, nil, nil, audit, nil, nil, nil)
}

func TestServiceBalanceRecomputesFromRawRecords(t *testing.T) {
	repo := &memoryRepo{
		operations: []RawOperation{{ID: 1, EntityID: 7, Date: day(1), Value: 100}},
		payments:   []RawPayment{{ID: 1, EntityID: 7, Date: day(2), Amount: 50}},
	}
	entities := &memoryEntities{entities: map[int64]Entity{
		7: {ID: 7, Kind: KindCollector, Name: "Acme", Rate: decimal.RequireFromString("1.025")},
	}}
	svc := newTestService(repo, entities, nil)

	result, err := svc.Balance(context.Background(), KindCollector, 7)
	require.NoError(t, err)
	require.True(t, result.Balance.Equal(decimal.RequireFromString("-47.56")), "got %s", result.Balance)
	require.Len(t, result.History, 2)
}

func TestServiceBalanceUnknownEntity(t *testing.T) {
	svc := newTestService(&memoryRepo{}, &memoryEntities{entities: map[int64]Entity{}}, nil)

	_, err := svc.Balance(context.Background(), KindSupplier, 99)
	require.ErrorIs(t, err, ErrEntityNotFound)
}

func TestServiceRegisterPayment(t *testing.T) {
	repo := &memoryRepo{}
	entities := &memoryEntities{entities: map[int64]Entity{
		3: {ID: 3, Kind: KindSupplier, Rate: decimal.NewFromInt(1)},
	}}
	audit := &memoryAudit{}
	svc := newTestService(repo, entities, audit)

	id, err := svc.RegisterPayment(context.Background(), RegisterPaymentInput{
		EntityKind: KindSupplier,
		EntityID:   3,
		Amount:     120.5,
		Date:       day(4),
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), id)
	require.Len(t, repo.payments, 1)
	require.Len(t, audit.logs, 1)
	require.Equal(t, "PAYMENT_REGISTER", audit.logs[0].Action)
}

func TestServiceRegisterPaymentWithoutAuditSink(t *testing.T) {
	repo := &memoryRepo{}
	entities := &memoryEntities{entities: map[int64]Entity{
		3: {ID: 3, Kind: KindSupplier, Rate: decimal.NewFromInt(1)},
	}}
	svc := newTestService(repo, entities, nil)

	id, err := svc.RegisterPayment(context.Background(), RegisterPaymentInput{
		EntityKind: KindSupplier,
		EntityID:   3,
		Amount:     10,
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), id)
	require.Len(t, repo.payments, 1)
}

func TestServiceRegisterPaymentNegativeIsExtraDebit(t *testing.T) {
	repo := &memoryRepo{}
	entities := &memoryEntities{entities: map[int64]Entity{
		3: {ID: 3, Kind: KindSupplier, Rate: decimal.NewFromInt(1)},
	}}
	svc := newTestService(repo, entities, nil)

	_, err := svc.RegisterPayment(context.Background(), RegisterPaymentInput{
		EntityKind: KindSupplier,
		EntityID:   3,
		Amount:     -30,
	})
	require.NoError(t, err)

	result, err := svc.Balance(context.Background(), KindSupplier, 3)
	require.NoError(t, err)
	require.True(t, result.Balance.Equal(decimal.NewFromInt(-30)))
}

func TestServiceRegisterPaymentRejectsMalformedAmounts(t *testing.T) {
	entities := &memoryEntities{entities: map[int64]Entity{
		3: {ID: 3, Kind: KindSupplier, Rate: decimal.NewFromInt(1)},
	}}
	svc := newTestService(&memoryRepo{}, entities, nil)

	for _, amount := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := svc.RegisterPayment(context.Background(), RegisterPaymentInput{
			EntityKind: KindSupplier,
			EntityID:   3,
			Amount:     amount,
		})
		require.ErrorIs(t, err, ErrMalformedAmount)
	}

	_, err := svc.RegisterPayment(context.Background(), RegisterPaymentInput{
		EntityKind: KindSupplier,
		EntityID:   3,
		Amount:     0,
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestServiceRegisterPaymentUnknownEntity(t *testing.T) {
	svc := newTestService(&memoryRepo{}, &memoryEntities{entities: map[int64]Entity{}}, nil)

	_, err := svc.RegisterPayment(context.Background(), RegisterPaymentInput{
		EntityKind: KindCarrier,
		EntityID:   1,
		Amount:     10,
	})
	require.ErrorIs(t, err, ErrEntityNotFound)
}

package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/meridian-erp/meridian/internal/observability"
	"github.com/meridian-erp/meridian/internal/shared"
)

// RepositoryPort describes storage operations used by Service.
type RepositoryPort interface {
	ListOperations(ctx context.Context, kind EntityKind, entityID int64) ([]RawOperation, error)
	ListPayments(ctx context.Context, kind EntityKind, entityID int64) ([]RawPayment, error)
	CreatePayment(ctx context.Context, kind EntityKind, entityID int64, amount float64, date time.Time) (int64, error)
}

// EntityPort resolves master data entities for normalization.
type EntityPort interface {
	GetLedgerEntity(ctx context.Context, kind EntityKind, entityID int64) (Entity, error)
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service derives entity balances from the raw event log and registers
// manual payments. Concurrent balance reads for the same entity collapse
// into a single computation via singleflight; the result is request-scoped
// state, not a module-level fetching flag.
type Service struct {
	repo        RepositoryPort
	entities    EntityPort
	normalizer  *Normalizer
	cache       *Cache
	audit       AuditPort
	idempotency *shared.IdempotencyStore
	metrics     *observability.Metrics
	logger      *slog.Logger
	group       singleflight.Group
}

// NewService constructs the ledger service.
func NewService(repo RepositoryPort, entities EntityPort, normalizer *Normalizer, cache *Cache, audit AuditPort, idem *shared.IdempotencyStore, metrics *observability.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if normalizer == nil {
		normalizer = NewNormalizer(logger)
	}
	return &Service{
		repo:        repo,
		entities:    entities,
		normalizer:  normalizer,
		cache:       cache,
		audit:       audit,
		idempotency: idem,
		metrics:     metrics,
		logger:      logger,
	}
}

// Balance returns the current balance and chronological history for one
// entity. Every call recomputes from the raw event log unless a cached
// snapshot for the current cache version exists.
func (s *Service) Balance(ctx context.Context, kind EntityKind, entityID int64) (BalanceResult, error) {
	key := fmt.Sprintf("%s:%d", kind, entityID)
	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.cache.FetchBalance(ctx, kind, entityID, func(ctx context.Context) (BalanceResult, error) {
			return s.computeBalance(ctx, kind, entityID)
		})
	})
	if err != nil {
		return BalanceResult{}, err
	}
	return v.(BalanceResult), nil
}

func (s *Service) computeBalance(ctx context.Context, kind EntityKind, entityID int64) (BalanceResult, error) {
	entity, err := s.entities.GetLedgerEntity(ctx, kind, entityID)
	if err != nil {
		return BalanceResult{}, err
	}
	ops, err := s.repo.ListOperations(ctx, kind, entityID)
	if err != nil {
		return BalanceResult{}, err
	}
	payments, err := s.repo.ListPayments(ctx, kind, entityID)
	if err != nil {
		return BalanceResult{}, err
	}
	events := s.normalizer.Normalize(entity, ops, payments)
	s.metrics.ObserveBalanceComputation(string(kind))
	if skipped := len(ops) + len(payments) - len(events); skipped > 0 {
		s.metrics.AddSkippedRecords(skipped)
	}
	return ComputeBalance(entity, events), nil
}

// RegisterPaymentInput describes a manual payment to record.
type RegisterPaymentInput struct {
	EntityKind     EntityKind
	EntityID       int64
	Amount         float64
	Date           time.Time
	IdempotencyKey string
}

// RegisterPayment stores a manual payment for the entity and invalidates
// cached balance snapshots. A negative amount is an additional debit and is
// accepted; NaN or infinite amounts are rejected.
func (s *Service) RegisterPayment(ctx context.Context, input RegisterPaymentInput) (int64, error) {
	if math.IsNaN(input.Amount) || math.IsInf(input.Amount, 0) {
		return 0, ErrMalformedAmount
	}
	if input.Amount == 0 {
		return 0, ErrValidation
	}
	if _, err := s.entities.GetLedgerEntity(ctx, input.EntityKind, input.EntityID); err != nil {
		return 0, err
	}
	if input.Date.IsZero() {
		input.Date = time.Now()
	}
	key := input.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}
	inserted := false
	if s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, key, "ledger.payment"); err != nil {
			return 0, err
		}
		inserted = true
	}
	id, err := s.repo.CreatePayment(ctx, input.EntityKind, input.EntityID, input.Amount, input.Date)
	if err != nil {
		if inserted {
			_ = s.idempotency.Delete(ctx, key)
		}
		return 0, err
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("bump balance cache", slog.Any("error", err))
	}
	s.recordAudit(ctx, "PAYMENT_REGISTER", input.EntityKind, input.EntityID, map[string]any{
		"payment_id": id,
		"amount":     input.Amount,
	})
	return id, nil
}

func (s *Service) recordAudit(ctx context.Context, action string, kind EntityKind, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   fmt.Sprintf("ledger.%s", kind),
		EntityID: fmt.Sprintf("%d", entityID),
		Meta:     meta,
	})
}

package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	jobmetrics "github.com/meridian-erp/meridian/internal/jobs"
	"github.com/meridian-erp/meridian/internal/ledger"
	"github.com/meridian-erp/meridian/internal/masterdata"
)

const refreshPageSize = 200

// EntitySource lists configured entities for the refresh fan-out.
type EntitySource interface {
	ListEntities(ctx context.Context, kind ledger.EntityKind, limit, offset int) ([]masterdata.Entity, int, error)
}

// BalanceSource computes (and thereby caches) one entity balance.
type BalanceSource interface {
	Balance(ctx context.Context, kind ledger.EntityKind, entityID int64) (ledger.BalanceResult, error)
}

// BalanceRefresher warms cached balance snapshots so entity detail views hit
// warm caches after the nightly invalidation window.
type BalanceRefresher struct {
	entities EntitySource
	balances BalanceSource
	logger   *slog.Logger
	metrics  *jobmetrics.Metrics
}

// NewBalanceRefresher constructs the refresher.
func NewBalanceRefresher(entities EntitySource, balances BalanceSource, logger *slog.Logger, metrics *jobmetrics.Metrics) *BalanceRefresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &BalanceRefresher{entities: entities, balances: balances, logger: logger, metrics: metrics}
}

// Handle processes TaskBalanceRefresh tasks.
func (r *BalanceRefresher) Handle(ctx context.Context, t *asynq.Task) error {
	var payload BalanceRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	kinds := []ledger.EntityKind{ledger.KindCollector, ledger.KindSupplier, ledger.KindCarrier, ledger.KindPartner}
	if len(payload.Kinds) > 0 {
		kinds = kinds[:0]
		for _, raw := range payload.Kinds {
			kind, ok := ledger.ParseEntityKind(raw)
			if !ok {
				return asynq.SkipRetry
			}
			kinds = append(kinds, kind)
		}
	}
	tracker := r.metrics.Track("balance_refresh")
	var err error
	for _, kind := range kinds {
		if err = r.refreshKind(ctx, kind); err != nil {
			break
		}
	}
	return tracker.End(err)
}

func (r *BalanceRefresher) refreshKind(ctx context.Context, kind ledger.EntityKind) error {
	offset := 0
	for {
		entities, total, err := r.entities.ListEntities(ctx, kind, refreshPageSize, offset)
		if err != nil {
			return err
		}
		group, gctx := errgroup.WithContext(ctx)
		group.SetLimit(4)
		for _, entity := range entities {
			group.Go(func() error {
				if _, err := r.balances.Balance(gctx, kind, entity.ID); err != nil {
					r.logger.Warn("refresh balance",
						slog.String("entity_kind", string(kind)),
						slog.Int64("entity_id", entity.ID),
						slog.Any("error", err))
					return err
				}
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return err
		}
		r.metrics.AddRefreshedBalances(string(kind), len(entities))
		offset += len(entities)
		if offset >= total || len(entities) == 0 {
			return nil
		}
	}
}

package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskBalanceRefresh warms ledger balance snapshots for all entities.
	TaskBalanceRefresh = "ledger:balance_refresh"
)

// BalanceRefreshPayload scopes a refresh run. Empty Kinds means every kind.
type BalanceRefreshPayload struct {
	Kinds []string `json:"kinds,omitempty"`
}

// NewBalanceRefreshTask constructs an Asynq task.
func NewBalanceRefreshTask(payload BalanceRefreshPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBalanceRefresh, data), nil
}

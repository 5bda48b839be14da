package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerIntegrity re-checks one ledger day for unbalanced rows.
	TaskLedgerIntegrity = "ledger:integrity"
)

// LedgerIntegrityPayload names the day to scan. An empty day means yesterday
// in the ledger timezone at the time the task runs.
type LedgerIntegrityPayload struct {
	Day string `json:"day,omitempty"`
}

// NewLedgerIntegrityTask constructs an Asynq task.
func NewLedgerIntegrityTask(day string) (*asynq.Task, error) {
	data, err := json.Marshal(LedgerIntegrityPayload{Day: day})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerIntegrity, data, asynq.Queue(QueueDefault)), nil
}

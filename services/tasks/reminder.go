package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"consultbot/models"

	"github.com/hibiken/asynq"
)

const (
	TypeSendReminder = "reminder:send"
	QueueReminders   = "default"
)

// ReminderTaskID is the unique task id for one reminder of one booking.
func ReminderTaskID(kind models.ReminderKind, bookingID string) string {
	return fmt.Sprintf("reminder:%s:%s", kind, bookingID)
}

// NewReminderTask builds a one-shot reminder task due at fireAt. Failed
// deliveries are not retried.
func NewReminderTask(payload models.ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSendReminder, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.TaskID(ReminderTaskID(payload.Kind, payload.BookingID)),
		asynq.Queue(QueueReminders),
		asynq.MaxRetry(0),
	}

	return task, opts, nil
}

func ParseReminderPayload(task *asynq.Task) (models.ReminderPayload, error) {
	var p models.ReminderPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return p, fmt.Errorf("invalid reminder payload: %w", err)
	}
	return p, nil
}

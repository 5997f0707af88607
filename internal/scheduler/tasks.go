// Package scheduler carries the asynq task definitions, the enqueue client
// and the worker that delivers scheduled messages.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskScheduledMessageDue = "leads.scheduled_message.due"

// ScheduledMessagePayload points at a durable scheduled_messages row. The
// worker re-reads the row at delivery time, so a cancellation between enqueue
// and delivery wins.
type ScheduledMessagePayload struct {
	MessageID string `json:"messageId"`
	LeadID    string `json:"leadId"`
}

func NewScheduledMessageTask(payload ScheduledMessagePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskScheduledMessageDue, data), nil
}

func ParseScheduledMessagePayload(task *asynq.Task) (ScheduledMessagePayload, error) {
	var payload ScheduledMessagePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ScheduledMessagePayload{}, err
	}
	return payload, nil
}

package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type testSchedulerConfig struct {
	url string
}

func (c testSchedulerConfig) GetRedisURL() string          { return c.url }
func (c testSchedulerConfig) GetSchedulerConcurrency() int { return 1 }

func TestScheduleMessageEnqueuesScheduledTask(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := NewClient(testSchedulerConfig{url: "redis://" + srv.Addr()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	payload := ScheduledMessagePayload{
		MessageID: uuid.NewString(),
		LeadID:    uuid.NewString(),
	}
	runAt := time.Now().Add(2 * time.Hour)
	if err := client.ScheduleMessage(context.Background(), payload, runAt); err != nil {
		t.Fatalf("ScheduleMessage: %v", err)
	}

	insp := asynq.NewInspector(asynq.RedisClientOpt{Addr: srv.Addr()})
	defer insp.Close()

	tasks, err := insp.ListScheduledTasks("default")
	if err != nil {
		t.Fatalf("ListScheduledTasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("scheduled tasks = %d, want 1", len(tasks))
	}
	if tasks[0].Type != TaskScheduledMessageDue {
		t.Fatalf("task type = %q, want %q", tasks[0].Type, TaskScheduledMessageDue)
	}

	got, err := ParseScheduledMessagePayload(asynq.NewTask(tasks[0].Type, tasks[0].Payload))
	if err != nil {
		t.Fatalf("ParseScheduledMessagePayload: %v", err)
	}
	if got != payload {
		t.Fatalf("payload = %+v, want %+v", got, payload)
	}
}

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(testSchedulerConfig{url: ""}); err == nil {
		t.Fatal("expected error for empty redis url")
	}
}

func TestNilClientDropsEnqueues(t *testing.T) {
	var client *Client
	err := client.ScheduleMessage(context.Background(), ScheduledMessagePayload{}, time.Now())
	if err != nil {
		t.Fatalf("nil client ScheduleMessage: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("nil client Close: %v", err)
	}
}

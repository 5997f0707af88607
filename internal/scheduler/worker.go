package scheduler

import (
	"context"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"
)

// Sender delivers an outbound WhatsApp text.
type Sender interface {
	SendText(ctx context.Context, phone, body string) error
}

// Worker consumes scheduled message tasks and delivers them, unless the row
// was cancelled or the lead left the qualification flow in the meantime.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	repo   *repository.Repository
	sender Sender
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, sender Sender, log *logger.Logger) (*Worker, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetSchedulerConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			"default": 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		repo:   repository.New(pool),
		sender: sender,
		log:    log,
	}
	mux.HandleFunc(TaskScheduledMessageDue, w.handleScheduledMessageDue)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handleScheduledMessageDue delivers one scheduled message. The database row
// is authoritative: a cancelled or already-claimed row is never sent, and a
// lead that was escalated or qualified since scheduling is left alone.
func (w *Worker) handleScheduledMessageDue(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseScheduledMessagePayload(task)
	if err != nil {
		return err
	}
	msgID, err := uuid.Parse(payload.MessageID)
	if err != nil {
		return err
	}

	msg, err := w.repo.GetScheduled(ctx, msgID)
	if err != nil {
		return err
	}
	if msg == nil || msg.Status != repository.ScheduledPending {
		return nil
	}

	lead, err := w.repo.GetLead(ctx, msg.LeadID)
	if err != nil {
		return err
	}
	if lead == nil {
		return nil
	}
	if lead.Terminal() {
		if _, err := w.repo.CancelPendingForLead(ctx, lead.ID); err != nil {
			return err
		}
		w.log.Info("scheduled message dropped, lead left the flow",
			"message_id", msg.ID, "lead_id", lead.ID, "state", lead.ConversationState)
		return nil
	}

	claimed, err := w.repo.ClaimScheduled(ctx, msg.ID)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	if err := w.sender.SendText(ctx, lead.Phone, msg.Body); err != nil {
		w.log.Error("scheduled message delivery failed", "message_id", msg.ID, "lead_id", lead.ID, "error", err)
		return err
	}
	if err := w.repo.AppendMessage(ctx, lead.ID, domain.SenderAssistant, msg.Body); err != nil {
		return err
	}

	w.log.Info("scheduled message delivered", "message_id", msg.ID, "lead_id", lead.ID, "kind", msg.Kind)
	return nil
}

// Package automations runs the side effects of conversation outcomes:
// domain events, the external CRM webhook, and durable cold-lead
// re-engagement scheduling.
package automations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"leadflow_backend/internal/events"
	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/qualification"
	"leadflow_backend/internal/qualification/policy"
	"leadflow_backend/internal/qualification/scoring"
	"leadflow_backend/internal/scheduler"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"
)

const webhookTimeout = 5 * time.Second

const kindReengagement = "reengagement"

// Service implements policy.Automations.
type Service struct {
	cfg        *qualification.Config
	repo       *repository.Repository
	bus        events.Bus
	tasks      scheduler.MessageScheduler
	webhookURL string
	http       *http.Client
	log        *logger.Logger
}

// New wires the automations. tasks may be nil, in which case re-engagement
// rows are still written but never enqueued.
func New(cfg *qualification.Config, repo *repository.Repository, bus events.Bus, tasks scheduler.MessageScheduler, notify config.NotificationConfig, log *logger.Logger) *Service {
	return &Service{
		cfg:        cfg,
		repo:       repo,
		bus:        bus,
		tasks:      tasks,
		webhookURL: notify.GetQualificationWebhookURL(),
		http:       &http.Client{Timeout: webhookTimeout},
		log:        log,
	}
}

// ProcessQualified publishes the qualification event, notifies the external
// CRM webhook and schedules a re-engagement message for cold leads. The turn
// never fails on automation errors; they are logged and absorbed.
func (s *Service) ProcessQualified(ctx context.Context, lead *domain.Lead, result scoring.Result) error {
	event := events.LeadQualified{
		BaseEvent:      events.NewBaseEvent(),
		LeadID:         lead.ID,
		Phone:          lead.Phone,
		Name:           lead.Name,
		Score:          result.Total,
		Classification: result.Classification,
		Priority:       result.Priority,
		Sentiment:      result.Sentiment,
		VIP:            result.VIP,
	}
	if lead.Budget != nil {
		event.Budget = *lead.Budget
	}
	if lead.Timeframe != nil {
		event.Timeframe = *lead.Timeframe
	}
	s.bus.Publish(ctx, event)

	if s.webhookURL != "" {
		s.postWebhook(ctx, event)
	}

	if result.Classification == domain.ClassificationCold && s.cfg.Reengagement.Enabled {
		if err := s.scheduleReengagement(ctx, lead); err != nil {
			s.log.Error("schedule reengagement", "lead_id", lead.ID, "error", err)
		}
	}
	return nil
}

// ProcessEscalated cancels any pending scheduled sends and publishes the
// escalation event.
func (s *Service) ProcessEscalated(ctx context.Context, lead *domain.Lead, reason string) error {
	if err := s.CancelPending(ctx, lead.ID); err != nil {
		return err
	}

	s.bus.Publish(ctx, events.LeadEscalated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Phone:     lead.Phone,
		Name:      lead.Name,
		Reason:    reason,
	})
	return nil
}

// CancelPending cancels every pending scheduled message for the lead.
func (s *Service) CancelPending(ctx context.Context, leadID uuid.UUID) error {
	cancelled, err := s.repo.CancelPendingForLead(ctx, leadID)
	if err != nil {
		return err
	}
	if cancelled > 0 {
		s.log.Info("pending scheduled messages cancelled", "lead_id", leadID, "count", cancelled)
	}
	return nil
}

// postWebhook delivers the qualification to the external CRM without blocking
// the conversation turn. Failures are logged, never retried.
func (s *Service) postWebhook(ctx context.Context, event events.LeadQualified) {
	payload, err := json.Marshal(event)
	if err != nil {
		s.log.Error("marshal qualification webhook", "lead_id", event.LeadID, "error", err)
		return
	}

	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, webhookTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(payload))
		if err != nil {
			s.log.Error("build qualification webhook request", "lead_id", event.LeadID, "error", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.http.Do(req)
		if err != nil {
			s.log.Error("qualification webhook failed", "lead_id", event.LeadID, "error", err)
			return
		}
		defer func() {
			_ = resp.Body.Close()
		}()

		if resp.StatusCode >= http.StatusBadRequest {
			s.log.Error("qualification webhook rejected", "lead_id", event.LeadID, "status", resp.StatusCode)
			return
		}
		s.log.Info("qualification webhook delivered", "lead_id", event.LeadID)
	}()
}

// scheduleReengagement writes the durable row first, then enqueues the
// delivery. The worker re-reads the row, so a cancellation after enqueue
// still wins.
func (s *Service) scheduleReengagement(ctx context.Context, lead *domain.Lead) error {
	re := s.cfg.Reengagement
	body := renderTemplate(re.Template, lead.Name)
	runAt := time.Now().Add(time.Duration(re.DelayHours) * time.Hour)

	msgID, err := s.repo.CreateScheduled(ctx, lead.ID, kindReengagement, body, runAt)
	if err != nil {
		return fmt.Errorf("create scheduled message: %w", err)
	}

	if s.tasks == nil {
		s.log.Warn("no task scheduler wired, reengagement row left pending", "lead_id", lead.ID)
		return nil
	}
	if err := s.tasks.ScheduleMessage(ctx, scheduler.ScheduledMessagePayload{
		MessageID: msgID.String(),
		LeadID:    lead.ID.String(),
	}, runAt); err != nil {
		return fmt.Errorf("enqueue scheduled message: %w", err)
	}

	s.log.Info("reengagement scheduled", "lead_id", lead.ID, "run_at", runAt)
	return nil
}

func renderTemplate(tmpl, name string) string {
	if name == "" {
		name = "tudo bem"
	}
	return strings.ReplaceAll(tmpl, "{nome}", name)
}

var _ policy.Automations = (*Service)(nil)

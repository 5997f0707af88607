// Package webhook receives inbound WhatsApp messages, runs the conversation
// turn and delivers the assistant reply.
package webhook

import (
	"context"
	"strings"

	"leadflow_backend/internal/events"
	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/qualification/policy"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/logger"
)

// Sender delivers an outbound WhatsApp text. A nil-safe implementation is
// expected; the simulator path never calls it.
type Sender interface {
	SendText(ctx context.Context, phone, body string) error
}

// InboundMessage is a normalized inbound WhatsApp message.
type InboundMessage struct {
	Phone string
	Body  string
	Name  string
}

// ProcessResult is what a webhook call produced.
type ProcessResult struct {
	LeadID  string `json:"leadId"`
	Created bool   `json:"newLead"`
	Reply   string `json:"reply,omitempty"`
}

type Service struct {
	repo   *repository.Repository
	policy *policy.Policy
	sender Sender
	bus    events.Bus
	log    *logger.Logger
}

func NewService(repo *repository.Repository, pol *policy.Policy, sender Sender, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, policy: pol, sender: sender, bus: bus, log: log}
}

// Process runs one inbound message through the conversation policy. When
// deliver is true the reply also goes out through the WhatsApp gateway; the
// simulator passes false.
func (s *Service) Process(ctx context.Context, msg InboundMessage, deliver bool) (ProcessResult, error) {
	phone := cleanPhone(msg.Phone)
	if !isDigits(phone) || phone == "" {
		return ProcessResult{}, apperr.Validation("telefone inválido")
	}

	body := strings.TrimSpace(msg.Body)
	if body == "" {
		return ProcessResult{}, apperr.Validation("sem conteúdo")
	}

	name := strings.TrimSpace(msg.Name)
	if name == "" {
		name = "Lead"
	}

	lead, created, err := s.repo.UpsertLeadByPhone(ctx, phone, name)
	if err != nil {
		return ProcessResult{}, err
	}
	if created {
		s.bus.Publish(ctx, events.LeadReceived{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    lead.ID,
			Phone:     lead.Phone,
			Name:      lead.Name,
		})
		s.log.Info("new lead from whatsapp", "lead_id", lead.ID, "phone", phone)
	}

	if err := s.repo.AppendMessage(ctx, lead.ID, domain.SenderLead, body); err != nil {
		return ProcessResult{}, err
	}

	reply, err := s.policy.HandleMessage(ctx, lead.ID, body)
	if err != nil {
		return ProcessResult{}, err
	}

	if reply != "" && deliver && s.sender != nil {
		if err := s.sender.SendText(ctx, phone, reply); err != nil {
			// The turn already persisted the reply; delivery failures must not
			// bounce the webhook into the gateway's retry loop.
			s.log.Error("whatsapp reply delivery failed", "lead_id", lead.ID, "error", err)
		}
	}

	return ProcessResult{LeadID: lead.ID.String(), Created: created, Reply: reply}, nil
}

// cleanPhone strips the WhatsApp JID suffixes and formatting characters the
// gateways include.
func cleanPhone(raw string) string {
	p := strings.TrimSpace(raw)
	for _, cut := range []string{"@c.us", "@s.whatsapp.net", "+", " ", "-"} {
		p = strings.ReplaceAll(p, cut, "")
	}
	return p
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

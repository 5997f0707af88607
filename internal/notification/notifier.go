package notification

import (
	"context"
	"fmt"
	"strings"

	"leadflow_backend/internal/events"
	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/qualification/scoring"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"
)

// Sender delivers an outbound WhatsApp text.
type Sender interface {
	SendText(ctx context.Context, phone, body string) error
}

// Notifier turns qualification and escalation events into manager alerts.
type Notifier struct {
	sender       Sender
	mailer       *Mailer
	managerPhone string
	managerEmail string
	log          *logger.Logger
}

func NewNotifier(sender Sender, mailer *Mailer, cfg config.NotificationConfig, log *logger.Logger) *Notifier {
	return &Notifier{
		sender:       sender,
		mailer:       mailer,
		managerPhone: cfg.GetManagerPhone(),
		managerEmail: cfg.GetManagerEmail(),
		log:          log,
	}
}

// Subscribe wires the notifier onto the event bus.
func (n *Notifier) Subscribe(bus events.Bus) {
	bus.Subscribe(events.LeadQualified{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.LeadQualified)
		if !ok {
			return nil
		}
		return n.handleQualified(ctx, e)
	}))

	bus.Subscribe(events.LeadEscalated{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.LeadEscalated)
		if !ok {
			return nil
		}
		return n.handleEscalated(ctx, e)
	}))
}

// handleQualified alerts the manager about hot and VIP leads. Warm and cold
// leads only show up in the queue.
func (n *Notifier) handleQualified(ctx context.Context, e events.LeadQualified) error {
	if !e.VIP && e.Classification != domain.ClassificationHot {
		return nil
	}

	body := vipAlert(e)
	if n.managerPhone != "" && n.sender != nil {
		if err := n.sender.SendText(ctx, n.managerPhone, body); err != nil {
			n.log.Error("manager whatsapp alert failed", "lead_id", e.LeadID, "error", err)
		}
	}
	if n.managerEmail != "" && n.mailer != nil {
		subject := fmt.Sprintf("Lead VIP qualificado: %s (%d pts)", displayName(e.Name), e.Score)
		if err := n.mailer.Send(ctx, n.managerEmail, subject, body); err != nil {
			n.log.Error("manager email alert failed", "lead_id", e.LeadID, "error", err)
		}
	}
	return nil
}

func (n *Notifier) handleEscalated(ctx context.Context, e events.LeadEscalated) error {
	body := fmt.Sprintf(
		"⚠️ Lead aguardando atendimento humano\n\n👤 Nome: %s\n📱 Telefone: %s\n📋 Motivo: %s",
		displayName(e.Name), e.Phone, e.Reason,
	)
	if n.managerPhone != "" && n.sender != nil {
		if err := n.sender.SendText(ctx, n.managerPhone, body); err != nil {
			n.log.Error("manager escalation alert failed", "lead_id", e.LeadID, "error", err)
		}
	}
	return nil
}

func vipAlert(e events.LeadQualified) string {
	var b strings.Builder
	b.WriteString("🔥 ALERTA VIP! 🔥\n\nLead de alta prioridade qualificado:\n\n")
	fmt.Fprintf(&b, "👤 Nome: %s\n", displayName(e.Name))
	fmt.Fprintf(&b, "📱 Telefone: %s\n", e.Phone)
	if e.Budget != "" {
		fmt.Fprintf(&b, "💰 Orçamento: %s\n", e.Budget)
	}
	if e.Timeframe != "" {
		fmt.Fprintf(&b, "⏰ Prazo: %s\n", e.Timeframe)
	}
	fmt.Fprintf(&b, "📊 Score: %d/%d\n\n", e.Score, scoring.MaxScore)
	fmt.Fprintf(&b, "🎯 Classificação: %s\n", strings.ToUpper(e.Classification))
	fmt.Fprintf(&b, "⭐ Prioridade: %s\n\n", strings.ToUpper(e.Priority))
	b.WriteString("ATENDER IMEDIATAMENTE!")
	return b.String()
}

func displayName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "N/A"
	}
	return name
}

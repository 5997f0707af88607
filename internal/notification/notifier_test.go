package notification

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"leadflow_backend/internal/events"
	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/platform/logger"
)

type fakeSender struct {
	sent []string
}

func (s *fakeSender) SendText(_ context.Context, _, body string) error {
	s.sent = append(s.sent, body)
	return nil
}

type notifyConfig struct{}

func (notifyConfig) GetManagerPhone() string            { return "5511900000000" }
func (notifyConfig) GetManagerEmail() string            { return "" }
func (notifyConfig) GetQualificationWebhookURL() string { return "" }

func newTestNotifier(sender *fakeSender) *Notifier {
	return NewNotifier(sender, nil, notifyConfig{}, logger.New("test"))
}

func TestHandleQualifiedAlertsOnVIP(t *testing.T) {
	sender := &fakeSender{}
	n := newTestNotifier(sender)

	err := n.handleQualified(context.Background(), events.LeadQualified{
		BaseEvent:      events.NewBaseEvent(),
		LeadID:         uuid.New(),
		Phone:          "5511988887777",
		Name:           "Carlos Mendes",
		Score:          150,
		Classification: domain.ClassificationHot,
		Priority:       domain.PriorityVIP,
		VIP:            true,
		Budget:         "uns 15 mil",
		Timeframe:      "preciso pra já",
	})
	if err != nil {
		t.Fatalf("handleQualified: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("alerts sent = %d, want 1", len(sender.sent))
	}
	alert := sender.sent[0]
	for _, want := range []string{"ALERTA VIP", "Carlos Mendes", "5511988887777", "150/175", "HOT"} {
		if !strings.Contains(alert, want) {
			t.Errorf("alert missing %q:\n%s", want, alert)
		}
	}
}

func TestHandleQualifiedSkipsWarmLeads(t *testing.T) {
	sender := &fakeSender{}
	n := newTestNotifier(sender)

	err := n.handleQualified(context.Background(), events.LeadQualified{
		BaseEvent:      events.NewBaseEvent(),
		LeadID:         uuid.New(),
		Classification: domain.ClassificationWarm,
		Priority:       domain.PriorityNormal,
	})
	if err != nil {
		t.Fatalf("handleQualified: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("alerts sent = %d, want 0", len(sender.sent))
	}
}

func TestHandleEscalatedAlertsManager(t *testing.T) {
	sender := &fakeSender{}
	n := newTestNotifier(sender)

	err := n.handleEscalated(context.Background(), events.LeadEscalated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    uuid.New(),
		Phone:     "5511988887777",
		Reason:    "lead solicitou atendimento humano",
	})
	if err != nil {
		t.Fatalf("handleEscalated: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("alerts sent = %d, want 1", len(sender.sent))
	}
	if !strings.Contains(sender.sent[0], "atendimento humano") {
		t.Errorf("alert missing reason:\n%s", sender.sent[0])
	}
}

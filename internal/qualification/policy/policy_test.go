package policy

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/qualification"
	"leadflow_backend/internal/qualification/extract"
	"leadflow_backend/internal/qualification/scoring"
	"leadflow_backend/platform/logger"
)

type fakeStore struct {
	lead     *domain.Lead
	messages []domain.Message
	answers  []domain.Answer
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		lead: &domain.Lead{
			ID:                uuid.New(),
			Phone:             "+5511999990000",
			Status:            domain.StatusInTriage,
			ConversationState: domain.ConversationNew,
			CreatedAt:         time.Now(),
		},
	}
}

func (s *fakeStore) GetLead(_ context.Context, id uuid.UUID) (*domain.Lead, error) {
	if s.lead == nil || s.lead.ID != id {
		return nil, nil
	}
	copied := *s.lead
	return &copied, nil
}

func (s *fakeStore) ListMessages(_ context.Context, _ uuid.UUID) ([]domain.Message, error) {
	return append([]domain.Message(nil), s.messages...), nil
}

func (s *fakeStore) AppendMessage(_ context.Context, leadID uuid.UUID, sender, body string) error {
	s.messages = append(s.messages, domain.Message{
		ID: uuid.New(), LeadID: leadID, Sender: sender, Body: body, CreatedAt: time.Now(),
	})
	if sender == domain.SenderAssistant {
		s.lead.AssistantMsgCount++
	}
	return nil
}

func (s *fakeStore) ListAnswers(_ context.Context, _ uuid.UUID) ([]domain.Answer, error) {
	return append([]domain.Answer(nil), s.answers...), nil
}

func (s *fakeStore) SaveAnswer(_ context.Context, leadID uuid.UUID, questionID, value string) error {
	for i := range s.answers {
		if s.answers[i].QuestionID == questionID {
			s.answers[i].Value = value
			return nil
		}
	}
	s.answers = append(s.answers, domain.Answer{LeadID: leadID, QuestionID: questionID, Value: value})
	return nil
}

func (s *fakeStore) SetConversationState(_ context.Context, _ uuid.UUID, state string) error {
	s.lead.ConversationState = state
	return nil
}

func (s *fakeStore) SetNextQuestion(_ context.Context, _ uuid.UUID, questionID *string) error {
	s.lead.NextQuestionID = questionID
	return nil
}

func (s *fakeStore) MarkEscalated(_ context.Context, _ uuid.UUID, _ string) error {
	s.lead.ConversationState = domain.ConversationEscalated
	now := time.Now()
	s.lead.EscalatedAt = &now
	return nil
}

func (s *fakeStore) UpdateLeadQualification(_ context.Context, _ uuid.UUID, upd QualificationUpdate) error {
	s.lead.Name = upd.Name
	s.lead.Score = &upd.Score
	s.lead.Classification = &upd.Classification
	s.lead.Priority = &upd.Priority
	s.lead.AIQualified = upd.Qualified
	return nil
}

type fakeAutomations struct {
	processed int
	cancelled int
}

func (a *fakeAutomations) ProcessQualified(_ context.Context, _ *domain.Lead, _ scoring.Result) error {
	a.processed++
	return nil
}

func (a *fakeAutomations) ProcessEscalated(_ context.Context, _ *domain.Lead, _ string) error {
	a.cancelled++
	return nil
}

type failingGenerator struct{}

func (failingGenerator) Reply(_ context.Context, _ GenerateRequest) (string, error) {
	return "", errors.New("deadline exceeded")
}

func newTestPolicy(store *fakeStore, auto *fakeAutomations, gen Generator) *Policy {
	cfg := qualification.DefaultConfig()
	return New(cfg, store, scoring.NewEngine(cfg), extract.New(cfg), gen, auto, logger.New("test"))
}

// leadSays persists the inbound message the way the webhook service does
// before running the turn.
func leadSays(t *testing.T, p *Policy, store *fakeStore, body string) string {
	t.Helper()
	if err := store.AppendMessage(context.Background(), store.lead.ID, domain.SenderLead, body); err != nil {
		t.Fatalf("append inbound message: %v", err)
	}
	reply, err := p.HandleMessage(context.Background(), store.lead.ID, body)
	if err != nil {
		t.Fatalf("HandleMessage(%q): %v", body, err)
	}
	return reply
}

func TestEscalationKeywordWinsOverEverything(t *testing.T) {
	store := newFakeStore()
	auto := &fakeAutomations{}
	p := newTestPolicy(store, auto, nil)

	reply := leadSays(t, p, store, "quero falar com um atendente")

	if store.lead.ConversationState != domain.ConversationEscalated {
		t.Fatalf("state = %s, want escalated", store.lead.ConversationState)
	}
	if auto.cancelled != 1 {
		t.Fatalf("cancelled = %d, want pending automations cancelled once", auto.cancelled)
	}
	if reply != p.cfg.Templates.Escalation {
		t.Fatalf("reply = %q, want escalation template", reply)
	}
	if store.lead.EscalatedAt == nil {
		t.Fatal("expected EscalatedAt to be set")
	}
}

func TestTerminalConversationGetsSilence(t *testing.T) {
	store := newFakeStore()
	store.lead.ConversationState = domain.ConversationQualified
	p := newTestPolicy(store, &fakeAutomations{}, nil)

	reply := leadSays(t, p, store, "e aí, alguma novidade?")
	if reply != "" {
		t.Fatalf("reply = %q, want silence on a terminal conversation", reply)
	}
}

func TestFirstMessageGetsGreetingWithoutExtraction(t *testing.T) {
	store := newFakeStore()
	p := newTestPolicy(store, &fakeAutomations{}, nil)

	// Looks like a full name, but first contact never extracts.
	reply := leadSays(t, p, store, "Carlos Pereira")

	if store.lead.ConversationState != domain.ConversationGreeted {
		t.Fatalf("state = %s, want greeted", store.lead.ConversationState)
	}
	if len(store.answers) != 0 {
		t.Fatalf("answers = %+v, first message must not be extracted", store.answers)
	}
	if store.lead.NextQuestionID == nil || *store.lead.NextQuestionID != "nome" {
		t.Fatalf("next question = %v, want nome", store.lead.NextQuestionID)
	}
	if reply == "" {
		t.Fatal("expected a greeting reply")
	}
}

func TestGreetingIsContextual(t *testing.T) {
	cases := []struct {
		message string
		want    string
	}{
		{"socorro, é urgente!", "urgência"},
		{"meu sistema quebrou, tenho um problema", "transtorno"},
		{"quanto custa?", "valores"},
	}

	for _, tc := range cases {
		store := newFakeStore()
		p := newTestPolicy(store, &fakeAutomations{}, nil)

		reply := leadSays(t, p, store, tc.message)
		if !strings.Contains(strings.ToLower(reply), tc.want) {
			t.Fatalf("greeting for %q = %q, want it to mention %q", tc.message, reply, tc.want)
		}
	}
}

func TestTimeoutEscalates(t *testing.T) {
	store := newFakeStore()
	store.lead.ConversationState = domain.ConversationCollecting
	store.lead.CreatedAt = time.Now().Add(-2 * time.Hour)
	store.messages = []domain.Message{
		{Sender: domain.SenderLead, Body: "oi"},
		{Sender: domain.SenderAssistant, Body: "olá!"},
	}
	auto := &fakeAutomations{}
	p := newTestPolicy(store, auto, nil)

	reply := leadSays(t, p, store, "ainda estou aqui")

	if store.lead.ConversationState != domain.ConversationEscalated {
		t.Fatalf("state = %s, want escalated after timeout", store.lead.ConversationState)
	}
	if reply != p.cfg.Templates.Timeout {
		t.Fatalf("reply = %q, want timeout template", reply)
	}
}

func TestInvalidAnswerKeepsQuestionOpen(t *testing.T) {
	store := newFakeStore()
	store.lead.ConversationState = domain.ConversationGreeted
	nome := "nome"
	store.lead.NextQuestionID = &nome
	store.messages = []domain.Message{
		{Sender: domain.SenderLead, Body: "oi"},
		{Sender: domain.SenderAssistant, Body: "olá! qual seu nome completo?"},
	}
	p := newTestPolicy(store, &fakeAutomations{}, nil)

	leadSays(t, p, store, "zé")

	for _, a := range store.answers {
		if a.QuestionID == "nome" {
			t.Fatalf("invalid name was saved: %+v", a)
		}
	}
}

func TestAwaitedQuestionCapturesRawMessage(t *testing.T) {
	store := newFakeStore()
	store.lead.ConversationState = domain.ConversationGreeted
	nome := "nome"
	store.lead.NextQuestionID = &nome
	store.messages = []domain.Message{
		{Sender: domain.SenderLead, Body: "oi"},
		{Sender: domain.SenderAssistant, Body: "olá! qual seu nome completo?"},
	}
	p := newTestPolicy(store, &fakeAutomations{}, nil)

	leadSays(t, p, store, "Ana Beatriz Lima")

	if len(store.answers) != 1 || store.answers[0].QuestionID != "nome" {
		t.Fatalf("answers = %+v, want nome captured", store.answers)
	}
	if store.answers[0].Value != "Ana Beatriz Lima" {
		t.Fatalf("value = %q", store.answers[0].Value)
	}
}

func TestPartialRequiredAnswersNeverFinalize(t *testing.T) {
	store := newFakeStore()
	store.lead.ConversationState = domain.ConversationCollecting
	store.answers = []domain.Answer{
		{QuestionID: "nome", Value: "Ana Lima"},
		{QuestionID: "interesse", Value: "sistema de gestão"},
	}
	// Plenty of messages: the volume heuristic alone must not finalize.
	for i := 0; i < 20; i++ {
		store.messages = append(store.messages, domain.Message{Sender: domain.SenderLead, Body: "mensagem"})
	}
	p := newTestPolicy(store, &fakeAutomations{}, nil)

	leadSays(t, p, store, "ok")

	if store.lead.ConversationState == domain.ConversationQualified {
		t.Fatal("finalized with required questions still unanswered")
	}
	if store.lead.Score != nil {
		t.Fatal("score must only be written at finalization")
	}
}

func TestFinalizationComputesScoreAndCloses(t *testing.T) {
	store := newFakeStore()
	store.lead.ConversationState = domain.ConversationCollecting
	store.answers = []domain.Answer{
		{QuestionID: "nome", Value: "João Silva Santos"},
		{QuestionID: "interesse", Value: "Sistema CRM premium completo"},
		{QuestionID: "orcamento", Value: "15000"},
		{QuestionID: "prazo", Value: "urgente, pra hoje"},
	}
	store.messages = []domain.Message{
		{Sender: domain.SenderLead, Body: "Adorei o atendimento, perfeito!"},
		{Sender: domain.SenderAssistant, Body: "Qual o prazo?"},
	}
	auto := &fakeAutomations{}
	p := newTestPolicy(store, auto, nil)

	// Fifth answer satisfies the MinAnswers leg of the gate once contato lands.
	reply := leadSays(t, p, store, "pode ser whatsapp")

	if store.lead.ConversationState != domain.ConversationQualified {
		t.Fatalf("state = %s, want qualified", store.lead.ConversationState)
	}
	if store.lead.Score == nil {
		t.Fatal("expected authoritative score to be persisted")
	}
	// 20 + 25 + 30 + 25 + 15 = 115 question points + positive sentiment.
	if *store.lead.Score < 115 {
		t.Fatalf("score = %d, want >= 115", *store.lead.Score)
	}
	if auto.processed != 1 {
		t.Fatalf("processed = %d, want qualification automations to run once", auto.processed)
	}
	if !strings.Contains(reply, "João Silva Santos") {
		t.Fatalf("closing message %q must greet the lead by name", reply)
	}
	if !strings.Contains(reply, "•") {
		t.Fatalf("closing message %q must contain the answer summary", reply)
	}
}

func TestGeneratorFailureFallsBackToDeterministicPrompt(t *testing.T) {
	store := newFakeStore()
	store.lead.ConversationState = domain.ConversationCollecting
	store.answers = []domain.Answer{{QuestionID: "nome", Value: "Ana Lima"}}
	store.messages = []domain.Message{
		{Sender: domain.SenderLead, Body: "oi"},
		{Sender: domain.SenderAssistant, Body: "olá!"},
	}
	p := newTestPolicy(store, &fakeAutomations{}, failingGenerator{})

	reply := leadSays(t, p, store, "tudo certo")

	q := p.cfg.Question("interesse")
	if reply != q.Prompt {
		t.Fatalf("reply = %q, want deterministic prompt %q", reply, q.Prompt)
	}
	if store.lead.NextQuestionID == nil || *store.lead.NextQuestionID != "interesse" {
		t.Fatalf("next question = %v, want interesse", store.lead.NextQuestionID)
	}
}

func TestDependentQuestionWaitsForItsDependency(t *testing.T) {
	store := newFakeStore()
	store.lead.ConversationState = domain.ConversationCollecting
	store.answers = []domain.Answer{
		{QuestionID: "nome", Value: "Ana Lima"},
		{QuestionID: "interesse", Value: "consultoria financeira"},
		{QuestionID: "orcamento", Value: "3000"},
		{QuestionID: "prazo", Value: "sem pressa"},
		{QuestionID: "contato", Value: "por email"},
		{QuestionID: "empresa", Value: "é pra uma empresa"},
	}
	p := newTestPolicy(store, &fakeAutomations{}, nil)

	_, prompt := p.nextUtterance("certo", answeredSet(store.answers[:5]))
	if prompt == p.cfg.Question("tamanho_empresa").Prompt {
		t.Fatal("tamanho_empresa asked before empresa was answered")
	}

	id, _ := p.nextUtterance("certo", answeredSet(store.answers))
	if id != "" {
		// All questions answered: nothing left to ask.
		t.Fatalf("next question = %q, want none", id)
	}
}

func TestForceEscalateIsIdempotent(t *testing.T) {
	store := newFakeStore()
	store.lead.ConversationState = domain.ConversationCollecting
	auto := &fakeAutomations{}
	p := newTestPolicy(store, auto, nil)

	if err := p.ForceEscalate(context.Background(), store.lead.ID); err != nil {
		t.Fatalf("ForceEscalate: %v", err)
	}
	if err := p.ForceEscalate(context.Background(), store.lead.ID); err != nil {
		t.Fatalf("ForceEscalate (second): %v", err)
	}
	if store.lead.ConversationState != domain.ConversationEscalated {
		t.Fatalf("state = %s, want escalated", store.lead.ConversationState)
	}
	if auto.cancelled != 1 {
		t.Fatalf("cancelled = %d, want 1 (second call is a no-op)", auto.cancelled)
	}
}

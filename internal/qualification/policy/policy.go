// Package policy implements the conversation state machine that drives a lead
// from first contact to qualification or escalation. One inbound message is
// one turn; turns for the same lead are serialized, and all state is re-read
// from the store at the start of every turn.
package policy

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/qualification"
	"leadflow_backend/internal/qualification/extract"
	"leadflow_backend/internal/qualification/scoring"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/logger"
)

// Store is the persistence surface the policy needs. Implemented by the leads
// repository.
type Store interface {
	GetLead(ctx context.Context, id uuid.UUID) (*domain.Lead, error)
	ListMessages(ctx context.Context, leadID uuid.UUID) ([]domain.Message, error)
	// AppendMessage persists a message and, for assistant messages, bumps the
	// lead's assistant message counter.
	AppendMessage(ctx context.Context, leadID uuid.UUID, sender, body string) error
	ListAnswers(ctx context.Context, leadID uuid.UUID) ([]domain.Answer, error)
	SaveAnswer(ctx context.Context, leadID uuid.UUID, questionID, value string) error
	SetConversationState(ctx context.Context, leadID uuid.UUID, state string) error
	SetNextQuestion(ctx context.Context, leadID uuid.UUID, questionID *string) error
	MarkEscalated(ctx context.Context, leadID uuid.UUID, reason string) error
	UpdateLeadQualification(ctx context.Context, leadID uuid.UUID, upd QualificationUpdate) error
}

// QualificationUpdate is the finalization write: the authoritative score and
// the collected answers denormalized onto the lead row.
type QualificationUpdate struct {
	Name              string
	Score             int
	Classification    string
	Priority          string
	Sentiment         string
	VIP               bool
	Qualified         bool
	Interest          string
	Budget            string
	Timeframe         string
	ContactPreference string
	CustomerType      string
	CompanySize       string
}

// GenerateRequest carries the conversation context for the LLM phrasing of
// the next utterance.
type GenerateRequest struct {
	SystemPrompt string
	History      []domain.Message
	NextQuestion string
	Remaining    int
}

// Generator produces the next assistant utterance. Implementations must
// respect the context deadline; any error falls back to the deterministic
// question prompt.
type Generator interface {
	Reply(ctx context.Context, req GenerateRequest) (string, error)
}

// Automations reacts to conversation outcomes: manager alerts, CRM webhook,
// cold-lead re-engagement scheduling, and on escalation the cancellation of
// pending scheduled sends.
type Automations interface {
	ProcessQualified(ctx context.Context, lead *domain.Lead, result scoring.Result) error
	ProcessEscalated(ctx context.Context, lead *domain.Lead, reason string) error
}

// Policy is the conversation state machine. Safe for concurrent use; turns
// for the same lead are serialized by a per-lead mutex.
type Policy struct {
	cfg       *qualification.Config
	store     Store
	engine    *scoring.Engine
	extractor *extract.Extractor
	generator Generator
	auto      Automations
	log       *logger.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex

	now func() time.Time
}

// New builds a policy. generator may be nil, in which case the deterministic
// prompts are always used.
func New(cfg *qualification.Config, store Store, engine *scoring.Engine, extractor *extract.Extractor, generator Generator, auto Automations, log *logger.Logger) *Policy {
	return &Policy{
		cfg:       cfg,
		store:     store,
		engine:    engine,
		extractor: extractor,
		generator: generator,
		auto:      auto,
		log:       log,
		locks:     make(map[uuid.UUID]*sync.Mutex),
		now:       time.Now,
	}
}

func (p *Policy) leadLock(id uuid.UUID) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	lock, ok := p.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		p.locks[id] = lock
	}
	return lock
}

// HandleMessage runs one conversation turn for an inbound lead message that
// has already been persisted. It returns the assistant reply, or an empty
// string when the assistant must stay silent.
func (p *Policy) HandleMessage(ctx context.Context, leadID uuid.UUID, body string) (string, error) {
	if !p.cfg.Enabled {
		return "", nil
	}

	lock := p.leadLock(leadID)
	lock.Lock()
	defer lock.Unlock()

	lead, err := p.store.GetLead(ctx, leadID)
	if err != nil {
		return "", err
	}
	if lead == nil {
		return "", apperr.NotFound("lead not found")
	}

	// 1. Explicit request for a human wins over everything.
	if p.wantsHuman(body) {
		return p.escalate(ctx, lead, "lead solicitou atendimento humano", p.cfg.Templates.Escalation)
	}

	// 2. Terminal conversations get silence.
	if lead.Terminal() {
		return "", nil
	}

	history, err := p.store.ListMessages(ctx, leadID)
	if err != nil {
		return "", err
	}

	// 3. First contact: greet, ask for the name, extract nothing.
	if countLeadMessages(history) <= 1 && lead.ConversationState == domain.ConversationNew {
		return p.greet(ctx, lead, body)
	}

	// 4. Qualification window expired.
	if p.timedOut(lead) {
		return p.escalate(ctx, lead, "timeout de qualificação", p.cfg.Templates.Timeout)
	}

	answers, err := p.store.ListAnswers(ctx, leadID)
	if err != nil {
		return "", err
	}
	answered := answeredSet(answers)

	// 5. Try to capture an answer from this message.
	if captured, err := p.captureAnswer(ctx, lead, body, answered); err != nil {
		return "", err
	} else if captured {
		answers, err = p.store.ListAnswers(ctx, leadID)
		if err != nil {
			return "", err
		}
		answered = answeredSet(answers)
	}

	if lead.ConversationState == domain.ConversationGreeted {
		if err := p.store.SetConversationState(ctx, leadID, domain.ConversationCollecting); err != nil {
			return "", err
		}
	}

	// 6. Finalize when every required answer is in and the conversation has
	// enough substance.
	if p.readyToFinalize(answered, len(history), len(answers)) {
		return p.finalize(ctx, lead, answers, history)
	}

	// 7. Otherwise keep the conversation moving.
	return p.askNext(ctx, lead, body, history, answered)
}

// ForceEscalate is the manager-initiated escalation. It bypasses the keyword
// detection but follows the same transition.
func (p *Policy) ForceEscalate(ctx context.Context, leadID uuid.UUID) error {
	lock := p.leadLock(leadID)
	lock.Lock()
	defer lock.Unlock()

	lead, err := p.store.GetLead(ctx, leadID)
	if err != nil {
		return err
	}
	if lead == nil {
		return apperr.NotFound("lead not found")
	}
	if lead.ConversationState == domain.ConversationEscalated {
		return nil
	}
	_, err = p.escalate(ctx, lead, "escalação manual", p.cfg.Templates.Escalation)
	return err
}

func (p *Policy) wantsHuman(body string) bool {
	lower := strings.ToLower(body)
	for _, kw := range p.cfg.EscalationKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func (p *Policy) timedOut(lead *domain.Lead) bool {
	timeout := time.Duration(p.cfg.TimeoutMinutes) * time.Minute
	return p.now().Sub(lead.CreatedAt) > timeout
}

func (p *Policy) escalate(ctx context.Context, lead *domain.Lead, reason, reply string) (string, error) {
	if lead.ConversationState == domain.ConversationEscalated {
		return "", nil
	}

	if err := p.store.MarkEscalated(ctx, lead.ID, reason); err != nil {
		return "", err
	}
	if err := p.auto.ProcessEscalated(ctx, lead, reason); err != nil {
		p.log.Error("escalation automations", "lead_id", lead.ID, "error", err)
	}
	if err := p.store.AppendMessage(ctx, lead.ID, domain.SenderAssistant, reply); err != nil {
		return "", err
	}

	p.log.Info("lead escalated to human", "lead_id", lead.ID, "reason", reason)
	return reply, nil
}

func (p *Policy) greet(ctx context.Context, lead *domain.Lead, body string) (string, error) {
	greeting := p.selectGreeting(body)

	if err := p.store.SetConversationState(ctx, lead.ID, domain.ConversationGreeted); err != nil {
		return "", err
	}
	if len(p.cfg.Questions) > 0 {
		first := p.cfg.Questions[0].ID
		if err := p.store.SetNextQuestion(ctx, lead.ID, &first); err != nil {
			return "", err
		}
	}
	if err := p.store.AppendMessage(ctx, lead.ID, domain.SenderAssistant, greeting); err != nil {
		return "", err
	}

	p.log.Info("lead greeted", "lead_id", lead.ID)
	return greeting, nil
}

// captureAnswer stores at most one answer from the message: the awaited
// question first (with validation), the heuristic extractor otherwise. A
// validation reject leaves the question open and falls through to the
// extractor.
func (p *Policy) captureAnswer(ctx context.Context, lead *domain.Lead, body string, answered map[string]bool) (bool, error) {
	if lead.NextQuestionID != nil && !answered[*lead.NextQuestionID] {
		if q := p.cfg.Question(*lead.NextQuestionID); q != nil && extract.Valid(q, body) {
			if err := p.store.SaveAnswer(ctx, lead.ID, q.ID, strings.TrimSpace(body)); err != nil {
				return false, err
			}
			if err := p.store.SetNextQuestion(ctx, lead.ID, nil); err != nil {
				return false, err
			}
			return true, nil
		}
	}

	ext, ok := p.extractor.Extract(body, answered)
	if !ok {
		return false, nil
	}
	if err := p.store.SaveAnswer(ctx, lead.ID, ext.QuestionID, ext.Value); err != nil {
		return false, err
	}
	if lead.NextQuestionID != nil && *lead.NextQuestionID == ext.QuestionID {
		if err := p.store.SetNextQuestion(ctx, lead.ID, nil); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (p *Policy) readyToFinalize(answered map[string]bool, messageCount, answerCount int) bool {
	for _, id := range p.cfg.RequiredQuestionIDs() {
		if !answered[id] {
			return false
		}
	}
	f := p.cfg.Finalization
	return messageCount >= f.MinMessages || answerCount >= f.MinAnswers
}

// finalize runs the scoring engine, persists the authoritative result,
// triggers the automations and closes the conversation.
func (p *Policy) finalize(ctx context.Context, lead *domain.Lead, answers []domain.Answer, history []domain.Message) (string, error) {
	if err := p.store.SetConversationState(ctx, lead.ID, domain.ConversationFinalizing); err != nil {
		return "", err
	}

	byField := p.answersByField(answers)
	result := p.engine.Compute(byField, history)

	upd := QualificationUpdate{
		Name:              byField["name"],
		Score:             result.Total,
		Classification:    result.Classification,
		Priority:          result.Priority,
		Sentiment:         result.Sentiment,
		VIP:               result.VIP,
		Qualified:         result.Qualified,
		Interest:          byField["interesse"],
		Budget:            byField["orcamento"],
		Timeframe:         byField["prazo"],
		ContactPreference: byField["preferencia_contato"],
		CustomerType:      byField["tipo_cliente"],
		CompanySize:       byField["tamanho_empresa"],
	}
	if err := p.store.UpdateLeadQualification(ctx, lead.ID, upd); err != nil {
		return "", err
	}

	lead.Name = upd.Name
	lead.Score = &result.Total
	lead.Classification = &result.Classification
	lead.Priority = &result.Priority
	if err := p.auto.ProcessQualified(ctx, lead, result); err != nil {
		p.log.Error("post-qualification automations", "lead_id", lead.ID, "error", err)
	}

	closing := p.closingMessage(upd.Name, result.Classification, answers)
	if err := p.store.AppendMessage(ctx, lead.ID, domain.SenderAssistant, closing); err != nil {
		return "", err
	}
	if err := p.store.SetConversationState(ctx, lead.ID, domain.ConversationQualified); err != nil {
		return "", err
	}

	p.log.Info("lead qualified",
		"lead_id", lead.ID,
		"score", result.Total,
		"classification", result.Classification,
		"priority", result.Priority,
		"vip", result.VIP,
	)
	return closing, nil
}

// askNext picks the next question and phrases it, through the generator when
// one is wired and responsive, deterministically otherwise.
func (p *Policy) askNext(ctx context.Context, lead *domain.Lead, body string, history []domain.Message, answered map[string]bool) (string, error) {
	questionID, prompt := p.nextUtterance(body, answered)

	reply := prompt
	if p.generator != nil {
		generated, err := p.generator.Reply(ctx, GenerateRequest{
			SystemPrompt: p.systemPrompt(prompt),
			History:      tail(history, 10),
			NextQuestion: prompt,
			Remaining:    p.remaining(answered),
		})
		if err != nil {
			p.log.Warn("generator unavailable, using deterministic prompt", "lead_id", lead.ID, "error", err)
		} else if strings.TrimSpace(generated) != "" {
			reply = strings.TrimSpace(generated)
		}
	}

	var next *string
	if questionID != "" {
		next = &questionID
	}
	if err := p.store.SetNextQuestion(ctx, lead.ID, next); err != nil {
		return "", err
	}
	if err := p.store.AppendMessage(ctx, lead.ID, domain.SenderAssistant, reply); err != nil {
		return "", err
	}
	return reply, nil
}

func (p *Policy) systemPrompt(nextQuestion string) string {
	var b strings.Builder
	b.WriteString(p.cfg.PersonalityPrompt)
	if nextQuestion != "" {
		b.WriteString("\n\nPróxima pergunta a fazer: ")
		b.WriteString(nextQuestion)
	}
	return b.String()
}

func (p *Policy) remaining(answered map[string]bool) int {
	n := 0
	for _, q := range p.cfg.Questions {
		if !answered[q.ID] {
			n++
		}
	}
	return n
}

// closingMessage renders the tiered closing template with the lead name and
// a bullet summary of the collected answers.
func (p *Policy) closingMessage(name, classification string, answers []domain.Answer) string {
	tmpl, ok := p.cfg.Templates.Closing[classification]
	if !ok {
		tmpl = p.cfg.Templates.Closing[domain.ClassificationWarm]
	}
	if name == "" {
		name = "Cliente"
	}

	var lines []string
	for _, a := range answers {
		q := p.cfg.Question(a.QuestionID)
		if q == nil {
			continue
		}
		label := strings.SplitN(q.Prompt, "?", 2)[0]
		lines = append(lines, "• "+label+": "+a.Value)
	}
	summary := strings.Join(lines, "\n")
	if summary == "" {
		summary = "Informações coletadas"
	}

	out := strings.ReplaceAll(tmpl, "{nome}", name)
	out = strings.ReplaceAll(out, "{resumo}", summary)
	return out
}

func (p *Policy) answersByField(answers []domain.Answer) map[string]string {
	byField := make(map[string]string, len(answers))
	for _, a := range answers {
		if q := p.cfg.Question(a.QuestionID); q != nil {
			byField[q.Field()] = a.Value
		}
	}
	return byField
}

func answeredSet(answers []domain.Answer) map[string]bool {
	set := make(map[string]bool, len(answers))
	for _, a := range answers {
		set[a.QuestionID] = true
	}
	return set
}

func countLeadMessages(history []domain.Message) int {
	n := 0
	for _, m := range history {
		if m.Sender == domain.SenderLead {
			n++
		}
	}
	return n
}

func tail(history []domain.Message, n int) []domain.Message {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

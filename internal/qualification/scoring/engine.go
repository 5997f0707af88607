// Package scoring computes the qualification score of a lead from its
// collected answers and conversation history. Compute is pure: same inputs,
// same output, no I/O.
package scoring

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/qualification"
)

// MaxScore is the fixed denominator for the percentage: 165 question points
// plus 10 sentiment points.
const MaxScore = 175

// QuestionScore is the per-question breakdown entry.
type QuestionScore struct {
	Score  int    `json:"score"`
	Reason string `json:"reason"`
	// Answer is the scored answer, truncated to 50 runes.
	Answer string `json:"answer,omitempty"`
}

// Penalty is one applied penalty with its (negative) point value.
type Penalty struct {
	Points int    `json:"points"`
	Reason string `json:"reason"`
}

// Result is the full scoring outcome.
type Result struct {
	Total           int                      `json:"total"`
	MaxScore        int                      `json:"max_score"`
	Percentage      float64                  `json:"percentage"`
	Classification  string                   `json:"classification"`
	Priority        string                   `json:"priority"`
	VIP             bool                     `json:"vip"`
	Sentiment       string                   `json:"sentiment"`
	SentimentScore  int                      `json:"sentiment_score"`
	Qualified       bool                     `json:"qualified"`
	Questions       map[string]QuestionScore `json:"questions"`
	Penalties       []Penalty                `json:"penalties"`
	Recommendations []string                 `json:"recommendations"`
}

// ScorerFunc scores a single non-empty answer for a question spec and returns
// the points plus a human-readable reason.
type ScorerFunc func(answer string, q *qualification.QuestionSpec) (int, string)

// Engine scores leads. Scorers are dispatched by question type through a
// registry so custom question types can be plugged in without touching the
// engine.
type Engine struct {
	cfg     *qualification.Config
	scorers map[string]ScorerFunc
}

var digitsRe = regexp.MustCompile(`\d+`)

// NewEngine builds an engine with the built-in scorers registered.
func NewEngine(cfg *qualification.Config) *Engine {
	e := &Engine{
		cfg:     cfg,
		scorers: make(map[string]ScorerFunc),
	}
	e.Register(qualification.TypeName, scoreName)
	e.Register(qualification.TypeInterest, scoreInterest)
	e.Register(qualification.TypeBudget, scoreBudget)
	e.Register(qualification.TypeTimeframe, scoreTimeframe)
	e.Register(qualification.TypeContact, scoreContact)
	e.Register(qualification.TypeCustomerType, scoreCustomerType)
	e.Register(qualification.TypeCompanySize, scoreCompanySize)
	e.Register(qualification.TypeGeneric, scoreGeneric)
	return e
}

// Register adds or replaces the scorer for a question type.
func (e *Engine) Register(questionType string, fn ScorerFunc) {
	e.scorers[questionType] = fn
}

// Compute scores the lead. Answers are keyed by lead field. The raw total
// (before the zero floor) drives classification; the reported total is
// clamped at zero.
func (e *Engine) Compute(answers map[string]string, history []domain.Message) Result {
	breakdown := make(map[string]QuestionScore, len(e.cfg.Questions))
	total := 0

	for i := range e.cfg.Questions {
		q := &e.cfg.Questions[i]
		answer := strings.TrimSpace(answers[q.Field()])
		if answer == "" {
			breakdown[q.ID] = QuestionScore{Score: 0, Reason: "não respondida"}
			continue
		}

		scorer, ok := e.scorers[q.Type]
		if !ok {
			scorer = scoreGeneric
		}
		points, reason := scorer(answer, q)
		total += points
		breakdown[q.ID] = QuestionScore{Score: points, Reason: reason, Answer: truncate(answer, 50)}
	}

	sentimentScore, sentiment := e.analyzeSentiment(history)
	total += sentimentScore

	penalties := e.applyPenalties(answers, history)
	for _, p := range penalties {
		total += p.Points
	}

	classification, priority := e.classify(total)
	vip := e.detectVIP(answers, total)

	clamped := total
	if clamped < 0 {
		clamped = 0
	}

	res := Result{
		Total:          clamped,
		MaxScore:       MaxScore,
		Percentage:     math.Round(float64(clamped)/MaxScore*1000) / 10,
		Classification: classification,
		Priority:       priority,
		VIP:            vip,
		Sentiment:      sentiment,
		SentimentScore: sentimentScore,
		Qualified:      total >= e.cfg.Thresholds.Qualified,
		Questions:      breakdown,
		Penalties:      penalties,
	}
	res.Recommendations = e.recommend(res, answers)
	return res
}

// PossiblePoints returns the maximum attainable points per question plus the
// sentiment bonus. Used by the status endpoint.
func (e *Engine) PossiblePoints() map[string]int {
	points := make(map[string]int, len(e.cfg.Questions)+1)
	for _, q := range e.cfg.Questions {
		maxPts := 0
		for _, v := range q.Scores {
			if v > maxPts {
				maxPts = v
			}
		}
		points[q.ID] = maxPts
	}
	if e.cfg.Sentiment.Enabled {
		points["sentimento"] = e.cfg.Sentiment.ScoreAdjust[domain.SentimentVeryPositive]
	}
	return points
}

func (e *Engine) classify(total int) (string, string) {
	t := e.cfg.Thresholds
	switch {
	case total >= t.VIP:
		return domain.ClassificationHot, domain.PriorityVIP
	case total >= t.HighPriority:
		return domain.ClassificationWarm, domain.PriorityHigh
	case total >= t.Qualified:
		return domain.ClassificationWarm, domain.PriorityNormal
	default:
		return domain.ClassificationCold, domain.PriorityLow
	}
}

// detectVIP applies the non-score VIP criteria: premium budget combined with
// urgency, or a large company, qualifies regardless of the point total.
func (e *Engine) detectVIP(answers map[string]string, total int) bool {
	if total >= e.cfg.Thresholds.VIP {
		return true
	}

	budget := strings.ToLower(answers["orcamento"])
	timeframe := strings.ToLower(answers["prazo"])
	if containsAny(budget, e.cfg.VIP.BudgetKeywords) && containsAny(timeframe, e.cfg.VIP.UrgencyKeywords) {
		return true
	}

	size := strings.ToLower(answers["tamanho_empresa"])
	return containsAny(size, e.cfg.VIP.CompanySizeKeywords)
}

// analyzeSentiment counts positive and negative keyword hits over
// lead-authored messages only and maps the difference to a label.
func (e *Engine) analyzeSentiment(history []domain.Message) (int, string) {
	s := e.cfg.Sentiment
	if !s.Enabled {
		return 0, domain.SentimentNeutral
	}

	positive, negative := 0, 0
	for _, msg := range history {
		if msg.Sender != domain.SenderLead {
			continue
		}
		text := strings.ToLower(msg.Body)
		for _, kw := range s.PositiveKeywords {
			if strings.Contains(text, kw) {
				positive++
			}
		}
		for _, kw := range s.NegativeKeywords {
			if strings.Contains(text, kw) {
				negative++
			}
		}
	}

	diff := positive - negative
	switch {
	case diff >= 3:
		return s.ScoreAdjust[domain.SentimentVeryPositive], domain.SentimentVeryPositive
	case diff >= 1:
		return s.ScoreAdjust[domain.SentimentPositive], domain.SentimentPositive
	case diff <= -3:
		return s.ScoreAdjust[domain.SentimentVeryNegative], domain.SentimentVeryNegative
	case diff <= -1:
		return s.ScoreAdjust[domain.SentimentNegative], domain.SentimentNegative
	default:
		return s.ScoreAdjust[domain.SentimentNeutral], domain.SentimentNeutral
	}
}

func (e *Engine) applyPenalties(answers map[string]string, history []domain.Message) []Penalty {
	p := e.cfg.Penalties
	var applied []Penalty

	short := 0
	for _, answer := range answers {
		if answer != "" && len([]rune(answer)) <= p.EvasiveMaxLen {
			short++
		}
	}
	if short >= p.EvasiveMinCount {
		applied = append(applied, Penalty{Points: p.EvasiveAnswers, Reason: "respostas evasivas"})
	}

	negatives := 0
	for _, msg := range history {
		if msg.Sender != domain.SenderLead {
			continue
		}
		text := strings.ToLower(msg.Body)
		for _, kw := range e.cfg.NegativeKeywords {
			if strings.Contains(text, kw) {
				negatives++
			}
		}
	}
	if negatives > 0 {
		applied = append(applied, Penalty{
			Points: p.NegativeKeywords * negatives,
			Reason: fmt.Sprintf("keywords negativas x%d", negatives),
		})
	}

	if len(history) > p.LongConversationAfter {
		applied = append(applied, Penalty{Points: p.LongConversation, Reason: "conversa muito longa"})
	}

	return applied
}

// Built-in scorers. Each receives a trimmed, non-empty answer.

func scoreName(answer string, q *qualification.QuestionSpec) (int, string) {
	minWords := 2
	pattern := ""
	if q.Validation != nil {
		if q.Validation.MinWords > 0 {
			minWords = q.Validation.MinWords
		}
		pattern = q.Validation.Regex
	}

	if len(strings.Fields(answer)) < minWords {
		return pick(q, "incompleto", 5), "nome incompleto"
	}
	if pattern != "" {
		matched, err := regexp.MatchString(pattern, answer)
		if err != nil || !matched {
			return pick(q, "incompleto", 5), "nome com caracteres inválidos"
		}
	}
	return pick(q, "completo", 20), "nome completo válido"
}

func scoreInterest(answer string, q *qualification.QuestionSpec) (int, string) {
	lower := strings.ToLower(answer)

	for _, kw := range q.HighValueKeywords {
		if strings.Contains(lower, kw) {
			return pick(q, "resposta_detalhada", 25), "alto valor: " + kw
		}
	}
	for _, kw := range q.LowValueKeywords {
		if strings.Contains(lower, kw) {
			return 5, "baixo valor: " + kw
		}
	}
	if len([]rune(answer)) > 10 {
		return pick(q, "resposta_detalhada", 25), "resposta detalhada"
	}
	return pick(q, "resposta_basica", 10), "resposta básica"
}

// budgetTiers is the evaluation order for the budget ranges.
var budgetTiers = []string{"premium", "alto", "medio", "baixo"}

func scoreBudget(answer string, q *qualification.QuestionSpec) (int, string) {
	lower := strings.ToLower(answer)

	if raw := digitsRe.FindString(answer); raw != "" {
		value, _ := strconv.Atoi(raw)
		switch {
		case value >= rangeMin(q, "premium", 10000):
			return pick(q, "premium", 30), fmt.Sprintf("premium: R$ %d", value)
		case value >= rangeMin(q, "alto", 5000):
			return pick(q, "alto", 25), fmt.Sprintf("alto: R$ %d", value)
		case value >= rangeMin(q, "medio", 2000):
			return pick(q, "medio", 15), fmt.Sprintf("médio: R$ %d", value)
		default:
			return pick(q, "baixo", 5), fmt.Sprintf("baixo: R$ %d", value)
		}
	}

	for _, tier := range budgetTiers {
		for _, kw := range q.Ranges[tier].Keywords {
			if strings.Contains(lower, kw) {
				return pick(q, tier, 10), tier + ": " + kw
			}
		}
	}

	return pick(q, "nao_informado", 0), "orçamento não especificado"
}

// timeframeTiers is the evaluation order for the urgency levels, most urgent
// first so "hoje, no máximo essa semana" scores imediato.
var timeframeTiers = []string{"imediato", "curto", "medio", "longo"}

func scoreTimeframe(answer string, q *qualification.QuestionSpec) (int, string) {
	lower := strings.ToLower(answer)

	for _, level := range timeframeTiers {
		for _, kw := range q.UrgencyKeywords[level] {
			if strings.Contains(lower, kw) {
				return pick(q, level, 10), "urgência " + level + ": " + kw
			}
		}
	}
	return pick(q, "longo", 5), "prazo não definido"
}

func scoreContact(answer string, q *qualification.QuestionSpec) (int, string) {
	lower := strings.ToLower(answer)
	switch {
	case strings.Contains(lower, "whatsapp") || strings.Contains(lower, "zap"):
		return pick(q, "whatsapp", 15), "whatsapp"
	case strings.Contains(lower, "telefone") || strings.Contains(lower, "ligar"):
		return pick(q, "telefone", 15), "telefone"
	case strings.Contains(lower, "email") || strings.Contains(lower, "e-mail"):
		return pick(q, "email", 10), "email"
	case strings.Contains(lower, "qualquer") || strings.Contains(lower, "tanto faz"):
		return pick(q, "qualquer", 12), "qualquer canal"
	default:
		return 10, "preferência registrada"
	}
}

func scoreCustomerType(answer string, q *qualification.QuestionSpec) (int, string) {
	lower := strings.ToLower(answer)
	if strings.Contains(lower, "empresa") || strings.Contains(lower, "negócio") ||
		strings.Contains(lower, "negocio") || strings.Contains(lower, "cnpj") {
		return pick(q, "empresa", 20), "cliente empresarial"
	}
	return pick(q, "pessoal", 10), "cliente pessoa física"
}

var companySizeTiers = []string{"grande", "media", "pequena"}

func scoreCompanySize(answer string, q *qualification.QuestionSpec) (int, string) {
	lower := strings.ToLower(answer)

	if raw := digitsRe.FindString(answer); raw != "" {
		employees, _ := strconv.Atoi(raw)
		switch {
		case employees >= rangeMin(q, "grande", 50):
			return pick(q, "grande", 30), fmt.Sprintf("grande empresa: %d funcionários", employees)
		case employees >= rangeMin(q, "media", 10):
			return pick(q, "media", 20), fmt.Sprintf("média empresa: %d funcionários", employees)
		default:
			return pick(q, "pequena", 10), fmt.Sprintf("pequena empresa: %d funcionários", employees)
		}
	}

	for _, tier := range companySizeTiers {
		for _, kw := range q.Ranges[tier].Keywords {
			if strings.Contains(lower, kw) {
				return pick(q, tier, 10), tier + " empresa"
			}
		}
	}
	return 10, "tamanho não especificado"
}

func scoreGeneric(_ string, _ *qualification.QuestionSpec) (int, string) {
	return 10, "respondida"
}

func pick(q *qualification.QuestionSpec, key string, fallback int) int {
	if v, ok := q.Scores[key]; ok {
		return v
	}
	return fallback
}

func rangeMin(q *qualification.QuestionSpec, tier string, fallback int) int {
	if r, ok := q.Ranges[tier]; ok && r.Min > 0 {
		return r.Min
	}
	return fallback
}

func containsAny(haystack string, needles []string) bool {
	if haystack == "" {
		return false
	}
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

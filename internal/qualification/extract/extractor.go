// Package extract pulls qualification answers out of free-form lead messages.
// Rules run in a fixed order and at most one answer is extracted per message;
// missing an answer is acceptable, inventing one is not.
package extract

import (
	"regexp"
	"strings"

	"leadflow_backend/internal/qualification"
)

// Extraction is one detected answer.
type Extraction struct {
	QuestionID string
	Field      string
	Value      string
}

var (
	namePhraseRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)meu nome é\s+([A-Za-zÀ-ÖØ-öø-ÿ' ]+)`),
		regexp.MustCompile(`(?i)me chamo\s+([A-Za-zÀ-ÖØ-öø-ÿ' ]+)`),
		regexp.MustCompile(`^[Ss]ou\s+(?:o\s+|a\s+)?([A-ZÀ-Ö][a-zà-ÿ']+(?:\s+[A-ZÀ-Ö][a-zà-ÿ']+)+)`),
	}
	// Capitalized words at the start of the message, allowing lowercase
	// particles (de, da, dos...) between them.
	nameShapeRe = regexp.MustCompile(`^([A-ZÀ-Ö][a-zà-ÿ']+(?:\s+(?:de|da|do|dos|das))?(?:\s+[A-ZÀ-Ö][a-zà-ÿ']+(?:\s+(?:de|da|do|dos|das))?)+)`)

	moneyRe       = regexp.MustCompile(`(?i)R\$\s*\d+|\d+\s*(mil|k)\b|\b\d{3,}\b`)
	timeframeRe   = regexp.MustCompile(`(?i)\b(hoje|agora|amanhã|amanha|urgente|breve|dia|dias|semana|mês|mes|meses|ano)\b`)
	companySizeRe = regexp.MustCompile(`(?i)\d+\s*(funcionários|funcionarios|pessoas|colaboradores)`)
)

// nameStoplist rejects greeting-shaped messages that look like two
// capitalized words.
var nameStoplist = []string{
	"bom dia", "boa tarde", "boa noite", "tudo bem", "ola pessoal",
	"olá pessoal", "oi gente",
}

var interestCues = []string{
	"quero", "preciso", "procuro", "interesse", "interessado",
	"interessada", "gostaria",
}

var contactCues = []string{
	"whatsapp", "zap", "telefone", "ligar", "ligação", "ligacao",
	"email", "e-mail", "qualquer canal", "tanto faz",
}

var customerTypeCues = []string{
	"empresa", "negócio", "negocio", "cnpj", "pessoal", "pra mim", "para mim",
}

// Extractor runs the detection rules against the configured questions.
type Extractor struct {
	cfg *qualification.Config
}

func New(cfg *qualification.Config) *Extractor {
	return &Extractor{cfg: cfg}
}

// Extract scans a message for an answer to any still-open question. Answered
// question IDs are skipped, which makes repeated calls on the same message
// idempotent. Rules run in a fixed order (name first, company size last) and
// the first hit wins.
func (e *Extractor) Extract(message string, answered map[string]bool) (Extraction, bool) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Extraction{}, false
	}

	order := []string{
		qualification.TypeName,
		qualification.TypeInterest,
		qualification.TypeBudget,
		qualification.TypeTimeframe,
		qualification.TypeContact,
		qualification.TypeCustomerType,
		qualification.TypeCompanySize,
	}

	for _, typ := range order {
		q := e.questionOfType(typ)
		if q == nil || answered[q.ID] {
			continue
		}

		value, ok := detect(typ, message)
		if !ok {
			continue
		}
		if !Valid(q, value) {
			continue
		}
		return Extraction{QuestionID: q.ID, Field: q.Field(), Value: value}, true
	}

	return Extraction{}, false
}

// Valid reports whether an answer passes the question's validation rule.
// Questions without a rule accept anything non-empty.
func Valid(q *qualification.QuestionSpec, answer string) bool {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return false
	}
	if q.Validation == nil {
		return true
	}
	if q.Validation.MinWords > 0 && len(strings.Fields(answer)) < q.Validation.MinWords {
		return false
	}
	if q.Validation.Regex != "" {
		matched, err := regexp.MatchString(q.Validation.Regex, answer)
		if err != nil || !matched {
			return false
		}
	}
	return true
}

func (e *Extractor) questionOfType(typ string) *qualification.QuestionSpec {
	for i := range e.cfg.Questions {
		if e.cfg.Questions[i].Type == typ {
			return &e.cfg.Questions[i]
		}
	}
	return nil
}

func detect(typ, message string) (string, bool) {
	lower := strings.ToLower(message)

	switch typ {
	case qualification.TypeName:
		return detectName(message, lower)

	case qualification.TypeInterest:
		if containsAny(lower, interestCues) {
			return message, true
		}

	case qualification.TypeBudget:
		if moneyRe.MatchString(message) {
			return message, true
		}

	case qualification.TypeTimeframe:
		if timeframeRe.MatchString(message) {
			return message, true
		}

	case qualification.TypeContact:
		if containsAny(lower, contactCues) {
			return message, true
		}

	case qualification.TypeCustomerType:
		if containsAny(lower, customerTypeCues) {
			return message, true
		}

	case qualification.TypeCompanySize:
		if companySizeRe.MatchString(message) {
			return message, true
		}
	}

	return "", false
}

func detectName(message, lower string) (string, bool) {
	for _, re := range namePhraseRes {
		if m := re.FindStringSubmatch(message); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}

	for _, stop := range nameStoplist {
		if strings.HasPrefix(lower, stop) {
			return "", false
		}
	}
	if m := nameShapeRe.FindStringSubmatch(message); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	return "", false
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

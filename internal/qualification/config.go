// Package qualification holds the immutable behavior configuration for the
// lead qualification engine: question specs, scoring tables, sentiment keyword
// lists, penalties, thresholds and message templates.
//
// The config is loaded once at startup and passed into the scoring engine,
// the answer extractor and the conversation policy by the composition root.
// Nothing in this package reads ambient state.
package qualification

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Question type tags used to select a scoring strategy and an extraction rule.
const (
	TypeName         = "name"
	TypeInterest     = "interest"
	TypeBudget       = "budget"
	TypeTimeframe    = "timeframe"
	TypeContact      = "contact"
	TypeCustomerType = "customer_type"
	TypeCompanySize  = "company_size"
	TypeGeneric      = "generic"
)

// RangeSpec is a numeric tier with a keyword fallback. Used by budget and
// company-size scoring: the first integer in the answer is matched against
// Min, and when no number is present the keywords are tried instead.
type RangeSpec struct {
	Min      int      `json:"min"`
	Keywords []string `json:"keywords,omitempty"`
}

// ValidationRule rejects extracted answers that do not meet the constraint.
// A rejected answer is not persisted and the question remains open.
type ValidationRule struct {
	MinWords int    `json:"min_words,omitempty"`
	Regex    string `json:"regex,omitempty"`
}

// QuestionSpec describes one qualification question. Immutable during a
// conversation.
type QuestionSpec struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Prompt string `json:"prompt"`
	// LeadField is the collected-attributes key the answer is stored under.
	// Defaults to ID when empty.
	LeadField string `json:"lead_field,omitempty"`
	Required  bool   `json:"required"`
	// DependsOn names a question that must be answered before this one is
	// eligible to be asked.
	DependsOn  string          `json:"depends_on,omitempty"`
	Validation *ValidationRule `json:"validation,omitempty"`

	// Scores maps a per-type outcome key (e.g. "completo", "premium",
	// "imediato") to the points it awards.
	Scores map[string]int `json:"scores,omitempty"`

	HighValueKeywords []string             `json:"high_value_keywords,omitempty"`
	LowValueKeywords  []string             `json:"low_value_keywords,omitempty"`
	Ranges            map[string]RangeSpec `json:"ranges,omitempty"`
	UrgencyKeywords   map[string][]string  `json:"urgency_keywords,omitempty"`
}

// Field returns the lead field the answer is stored under.
func (q QuestionSpec) Field() string {
	if q.LeadField != "" {
		return q.LeadField
	}
	return q.ID
}

// SentimentConfig drives the keyword-count sentiment analysis over
// lead-authored messages.
type SentimentConfig struct {
	Enabled          bool           `json:"enabled"`
	PositiveKeywords []string       `json:"positive_keywords"`
	NegativeKeywords []string       `json:"negative_keywords"`
	// ScoreAdjust maps a sentiment label to its score delta.
	ScoreAdjust map[string]int `json:"score_adjust"`
}

// PenaltyConfig holds the (negative) penalty values.
type PenaltyConfig struct {
	EvasiveAnswers   int `json:"evasive_answers"`
	NegativeKeywords int `json:"negative_keywords"`
	LongConversation int `json:"long_conversation"`
	// EvasiveMinCount is how many short answers trigger the evasive penalty.
	EvasiveMinCount int `json:"evasive_min_count"`
	// EvasiveMaxLen is the answer length (runes) considered evasive.
	EvasiveMaxLen int `json:"evasive_max_len"`
	// LongConversationAfter is the message count beyond which the long
	// conversation penalty applies.
	LongConversationAfter int `json:"long_conversation_after"`
}

// ThresholdConfig holds the classification cut-offs.
type ThresholdConfig struct {
	Qualified    int `json:"qualified"`
	HighPriority int `json:"high_priority"`
	VIP          int `json:"vip"`
}

// VIPConfig holds the non-score VIP override criteria.
type VIPConfig struct {
	BudgetKeywords      []string `json:"budget_keywords"`
	UrgencyKeywords     []string `json:"urgency_keywords"`
	CompanySizeKeywords []string `json:"company_size_keywords"`
	MinEmployees        int      `json:"min_employees"`
}

// FinalizationConfig gates the transition to scoring. All required questions
// must be answered AND (message count >= MinMessages OR answer count >=
// MinAnswers).
type FinalizationConfig struct {
	MinMessages int `json:"min_messages"`
	MinAnswers  int `json:"min_answers"`
}

// GreetingConfig holds the context-sensitive openers. The first inbound
// message is scanned for signals and the matching opener is used.
type GreetingConfig struct {
	Default         string   `json:"default"`
	Urgent          string   `json:"urgent"`
	Problem         string   `json:"problem"`
	Product         string   `json:"product"`
	Price           string   `json:"price"`
	UrgentSignals   []string `json:"urgent_signals"`
	ProblemSignals  []string `json:"problem_signals"`
	ProductSignals  []string `json:"product_signals"`
	PriceSignals    []string `json:"price_signals"`
}

// MessageTemplates holds the assistant's fixed utterances. Closing templates
// are keyed by classification tier (hot/warm/cold) and support {nome} and
// {resumo} placeholders.
type MessageTemplates struct {
	Escalation    string            `json:"escalation"`
	Timeout       string            `json:"timeout"`
	InternalError string            `json:"internal_error"`
	GenericProbe  string            `json:"generic_probe"`
	Closing       map[string]string `json:"closing"`
}

// ReengagementConfig drives the scheduled recovery message for cold leads.
type ReengagementConfig struct {
	Enabled    bool   `json:"enabled"`
	DelayHours int    `json:"delay_hours"`
	Template   string `json:"template"`
}

// Config is the full qualification behavior configuration.
type Config struct {
	Enabled            bool               `json:"enabled"`
	CompanyName        string             `json:"company_name"`
	PersonalityPrompt  string             `json:"personality_prompt"`
	TimeoutMinutes     int                `json:"timeout_minutes"`
	Questions          []QuestionSpec     `json:"questions"`
	Sentiment          SentimentConfig    `json:"sentiment"`
	Penalties          PenaltyConfig      `json:"penalties"`
	Thresholds         ThresholdConfig    `json:"thresholds"`
	VIP                VIPConfig          `json:"vip"`
	Finalization       FinalizationConfig `json:"finalization"`
	Greetings          GreetingConfig     `json:"greetings"`
	Templates          MessageTemplates   `json:"templates"`
	Reengagement       ReengagementConfig `json:"reengagement"`
	EscalationKeywords []string           `json:"escalation_keywords"`
	NegativeKeywords   []string           `json:"negative_keywords"`
}

// Question returns the spec with the given id, or nil.
func (c *Config) Question(id string) *QuestionSpec {
	for i := range c.Questions {
		if c.Questions[i].ID == id {
			return &c.Questions[i]
		}
	}
	return nil
}

// RequiredQuestionIDs returns the ids of all required questions.
func (c *Config) RequiredQuestionIDs() []string {
	ids := make([]string, 0, len(c.Questions))
	for _, q := range c.Questions {
		if q.Required {
			ids = append(ids, q.ID)
		}
	}
	return ids
}

// Load reads the qualification config from a JSON file. An empty path returns
// the built-in defaults. Missing sections are filled from the defaults so a
// partial file only overrides what it names.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read qualification config: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse qualification config: %w", err)
	}

	cfg.normalize()
	return cfg, nil
}

// normalize fills zero values that would otherwise disable whole subsystems.
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.TimeoutMinutes <= 0 {
		c.TimeoutMinutes = def.TimeoutMinutes
	}
	if c.Thresholds.Qualified <= 0 {
		c.Thresholds = def.Thresholds
	}
	if c.Finalization.MinMessages <= 0 {
		c.Finalization.MinMessages = def.Finalization.MinMessages
	}
	if c.Finalization.MinAnswers <= 0 {
		c.Finalization.MinAnswers = def.Finalization.MinAnswers
	}
	if c.Penalties.EvasiveMinCount <= 0 {
		c.Penalties.EvasiveMinCount = def.Penalties.EvasiveMinCount
	}
	if c.Penalties.EvasiveMaxLen <= 0 {
		c.Penalties.EvasiveMaxLen = def.Penalties.EvasiveMaxLen
	}
	if c.Penalties.LongConversationAfter <= 0 {
		c.Penalties.LongConversationAfter = def.Penalties.LongConversationAfter
	}
	if len(c.Questions) == 0 {
		c.Questions = def.Questions
	}
}

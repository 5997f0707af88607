// Package transport defines the request and response DTOs for the leads API.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// LeadResponse is the list and queue representation of a lead.
type LeadResponse struct {
	ID                uuid.UUID  `json:"id"`
	Phone             string     `json:"phone"`
	Name              string     `json:"name"`
	Status            string     `json:"status"`
	ConversationState string     `json:"conversationState"`
	AIQualified       bool       `json:"aiQualified"`
	Score             *int       `json:"score,omitempty"`
	Classification    *string    `json:"classification,omitempty"`
	Priority          *string    `json:"priority,omitempty"`
	Sentiment         *string    `json:"sentiment,omitempty"`
	Interest          *string    `json:"interest,omitempty"`
	Budget            *string    `json:"budget,omitempty"`
	Timeframe         *string    `json:"timeframe,omitempty"`
	ContactPreference *string    `json:"contactPreference,omitempty"`
	CustomerType      *string    `json:"customerType,omitempty"`
	CompanySize       *string    `json:"companySize,omitempty"`
	EscalatedAt       *time.Time `json:"escalatedAt,omitempty"`
	QualifiedAt       *time.Time `json:"qualifiedAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// MessageResponse is one conversation entry.
type MessageResponse struct {
	ID        uuid.UUID `json:"id"`
	Sender    string    `json:"sender"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// AnswerResponse is one collected qualification answer.
type AnswerResponse struct {
	QuestionID string    `json:"questionId"`
	Question   string    `json:"question"`
	Value      string    `json:"value"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// LeadDetailResponse is the full lead view with conversation and answers.
type LeadDetailResponse struct {
	LeadResponse
	Messages []MessageResponse `json:"messages"`
	Answers  []AnswerResponse  `json:"answers"`
}

// QuestionScoreResponse is the per-question part of the score breakdown.
type QuestionScoreResponse struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
	Score      int    `json:"score"`
	Reason     string `json:"reason"`
}

// PenaltyResponse is one applied penalty.
type PenaltyResponse struct {
	Points int    `json:"points"`
	Reason string `json:"reason"`
}

// QualificationResponse is the score breakdown for a lead, recomputed from the
// currently stored answers and conversation.
type QualificationResponse struct {
	LeadID          uuid.UUID               `json:"leadId"`
	Total           int                     `json:"total"`
	MaxScore        int                     `json:"maxScore"`
	Percentage      float64                 `json:"percentage"`
	Classification  string                  `json:"classification"`
	Priority        string                  `json:"priority"`
	VIP             bool                    `json:"vip"`
	Sentiment       string                  `json:"sentiment"`
	SentimentScore  int                     `json:"sentimentScore"`
	Qualified       bool                    `json:"qualified"`
	Questions       []QuestionScoreResponse `json:"questions"`
	Penalties       []PenaltyResponse       `json:"penalties"`
	Recommendations []string                `json:"recommendations"`
	// StoredScore is the authoritative score written at finalization, when the
	// lead has been finalized.
	StoredScore *int `json:"storedScore,omitempty"`
}

// EngineQuestionResponse describes one configured question and its weight.
type EngineQuestionResponse struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	Prompt         string `json:"prompt"`
	Required       bool   `json:"required"`
	DependsOn      string `json:"dependsOn,omitempty"`
	PossiblePoints int    `json:"possiblePoints"`
}

// EngineStatusResponse describes the active scoring configuration.
type EngineStatusResponse struct {
	Enabled        bool                     `json:"enabled"`
	MaxScore       int                      `json:"maxScore"`
	QualifiedAt    int                      `json:"qualifiedAt"`
	HighPriorityAt int                      `json:"highPriorityAt"`
	VIPAt          int                      `json:"vipAt"`
	Questions      []EngineQuestionResponse `json:"questions"`
}

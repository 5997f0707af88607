// Package domain holds the lead qualification domain model shared by the
// conversation policy, the scoring engine and the persistence layer.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Lead lifecycle status.
const (
	StatusNew       = "new"
	StatusInTriage  = "in_triage"
	StatusQualified = "qualified"
	StatusAssigned  = "assigned"
	StatusWon       = "won"
	StatusLost      = "lost"
)

// Conversation state as tracked by the assistant. Qualified and escalated are
// terminal: the assistant never replies again once either is reached.
const (
	ConversationNew        = "new"
	ConversationGreeted    = "greeted"
	ConversationCollecting = "collecting"
	ConversationFinalizing = "finalizing"
	ConversationQualified  = "qualified"
	ConversationEscalated  = "escalated"
)

// Message sender kinds.
const (
	SenderLead      = "lead"
	SenderAssistant = "assistant"
	SenderAgent     = "agent"
)

// Classification tiers derived from the qualification score.
const (
	ClassificationHot  = "hot"
	ClassificationWarm = "warm"
	ClassificationCold = "cold"
)

// Priority tiers.
const (
	PriorityVIP    = "vip"
	PriorityHigh   = "high"
	PriorityNormal = "normal"
	PriorityLow    = "low"
)

// Sentiment labels.
const (
	SentimentVeryPositive = "very_positive"
	SentimentPositive     = "positive"
	SentimentNeutral      = "neutral"
	SentimentNegative     = "negative"
	SentimentVeryNegative = "very_negative"
)

// Lead is a prospective customer tracked through the qualification pipeline.
// Leads are never deleted, only status-transitioned.
type Lead struct {
	ID                uuid.UUID
	Phone             string
	Name              string
	Status            string
	ConversationState string
	AIQualified       bool
	Score             *int
	Classification    *string
	Priority          *string
	Sentiment         *string
	// Collected qualification attributes, written at finalization.
	Interest          *string
	Budget            *string
	Timeframe         *string
	ContactPreference *string
	CustomerType      *string
	CompanySize       *string
	// NextQuestionID marks the question the assistant is waiting on, if any.
	NextQuestionID    *string
	AssistantMsgCount int
	AssignedAgentID   *uuid.UUID
	EscalatedAt       *time.Time
	QualifiedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Terminal reports whether the assistant must stay silent for this lead.
func (l Lead) Terminal() bool {
	switch l.ConversationState {
	case ConversationQualified, ConversationEscalated:
		return true
	}
	switch l.Status {
	case StatusQualified, StatusAssigned, StatusWon, StatusLost:
		return true
	}
	return false
}

// Message is a single entry in a lead's conversation history, ordered by
// insertion.
type Message struct {
	ID        uuid.UUID
	LeadID    uuid.UUID
	Sender    string
	Body      string
	CreatedAt time.Time
}

// Answer is a collected qualification answer. Unique per (lead, question); a
// later answer overwrites the earlier one.
type Answer struct {
	LeadID     uuid.UUID
	QuestionID string
	Value      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

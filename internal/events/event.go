// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"leadflow_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadReceived is published when an inbound WhatsApp message creates a new
// lead.
type LeadReceived struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
	Phone  string    `json:"phone"`
	Name   string    `json:"name,omitempty"`
}

func (e LeadReceived) EventName() string { return "leads.lead.received" }

// LeadQualified is published when the conversation policy finalizes a lead
// with its authoritative score.
type LeadQualified struct {
	BaseEvent
	LeadID         uuid.UUID `json:"leadId"`
	Phone          string    `json:"phone"`
	Name           string    `json:"name"`
	Score          int       `json:"score"`
	Classification string    `json:"classification"`
	Priority       string    `json:"priority"`
	Sentiment      string    `json:"sentiment"`
	VIP            bool      `json:"vip"`
	Budget         string    `json:"budget,omitempty"`
	Timeframe      string    `json:"timeframe,omitempty"`
}

func (e LeadQualified) EventName() string { return "leads.lead.qualified" }

// LeadEscalated is published when the assistant hands a conversation over to
// a human.
type LeadEscalated struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
	Phone  string    `json:"phone"`
	Name   string    `json:"name,omitempty"`
	Reason string    `json:"reason"`
}

func (e LeadEscalated) EventName() string { return "leads.lead.escalated" }

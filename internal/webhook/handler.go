package webhook

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"leadflow_backend/platform/httpkit"
	"leadflow_backend/platform/validator"
)

// messagePayload accepts both gateway dialects: Baileys sends from/body/
// notifyName, Venom sends phone/content/name.
type messagePayload struct {
	From       string `json:"from"`
	Body       string `json:"body"`
	NotifyName string `json:"notifyName"`

	Phone   string `json:"phone"`
	Content string `json:"content"`
	Name    string `json:"name"`

	FromMe bool `json:"fromMe"`
}

func (p messagePayload) inbound() InboundMessage {
	msg := InboundMessage{Phone: p.From, Body: p.Body, Name: p.NotifyName}
	if msg.Phone == "" {
		msg.Phone = p.Phone
	}
	if msg.Body == "" {
		msg.Body = p.Content
	}
	if msg.Name == "" {
		msg.Name = p.Name
	}
	return msg
}

type simulatePayload struct {
	Phone   string `json:"phone" validate:"required,min=8,max=20"`
	Content string `json:"content" validate:"required,max=4000"`
	Name    string `json:"name" validate:"max=100"`
}

type Handler struct {
	svc *Service
	val *validator.Validator
}

func NewHandler(svc *Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// HandleMessage processes an inbound gateway webhook.
// POST /api/v1/webhook/message
func (h *Handler) HandleMessage(c *gin.Context) {
	var payload messagePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	// Echoes of our own outbound messages come back through some gateways.
	if payload.FromMe {
		httpkit.OK(c, gin.H{"status": "ignored"})
		return
	}

	result, err := h.svc.Process(c.Request.Context(), payload.inbound(), true)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// HandleSimulate runs a message through the full pipeline without touching
// the WhatsApp gateway. Development aid.
// POST /api/v1/simulate/message
func (h *Handler) HandleSimulate(c *gin.Context) {
	var payload simulatePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(payload); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	msg := InboundMessage{Phone: payload.Phone, Body: payload.Content, Name: payload.Name}
	if msg.Name == "" {
		msg.Name = "Lead Teste"
	}

	result, err := h.svc.Process(c.Request.Context(), msg, false)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

package webhook

import (
	"leadflow_backend/internal/events"
	apphttp "leadflow_backend/internal/http"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/qualification/policy"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/validator"
)

// Module is the webhook bounded context module implementing http.Module.
type Module struct {
	handler *Handler
}

func NewModule(repo *repository.Repository, pol *policy.Policy, sender Sender, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	svc := NewService(repo, pol, sender, bus, log)
	return &Module{handler: NewHandler(svc, val)}
}

func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts the gateway webhook behind the shared rate limiter
// and the unthrottled simulator.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	webhookGroup := ctx.V1.Group("/webhook")
	if ctx.WebhookRateLimiter != nil {
		webhookGroup.Use(ctx.WebhookRateLimiter.RateLimit())
	}
	webhookGroup.POST("/message", m.handler.HandleMessage)

	ctx.V1.POST("/simulate/message", m.handler.HandleSimulate)
}

var _ apphttp.Module = (*Module)(nil)

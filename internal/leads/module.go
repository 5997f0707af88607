// Package leads provides the lead management bounded context module: the
// read API over leads, conversations and qualification results, plus the
// manager escalation action.
package leads

import (
	apphttp "leadflow_backend/internal/http"
	"leadflow_backend/internal/leads/handler"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/leads/service"
	"leadflow_backend/internal/qualification"
	"leadflow_backend/internal/qualification/policy"
	"leadflow_backend/internal/qualification/scoring"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	repo    *repository.Repository
	svc     *service.Service
}

// NewModule wires the leads read services. The repository, policy and engine
// come from the composition root so the webhook module shares them.
func NewModule(repo *repository.Repository, cfg *qualification.Config, engine *scoring.Engine, pol *policy.Policy) *Module {
	svc := service.New(repo, pol, engine, cfg)
	return &Module{
		handler: handler.New(svc),
		repo:    repo,
		svc:     svc,
	}
}

func (m *Module) Name() string {
	return "leads"
}

// Repository returns the shared leads repository for other modules.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts the leads routes and the engine status endpoint.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	leadsGroup := ctx.V1.Group("/leads")
	m.handler.RegisterRoutes(leadsGroup)
	ctx.V1.GET("/qualification/engine", m.handler.EngineStatus)
}

var _ apphttp.Module = (*Module)(nil)

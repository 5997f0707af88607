// Package service exposes lead read models and manager actions on top of the
// repository and the conversation policy.
package service

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/leads/transport"
	"leadflow_backend/internal/qualification"
	"leadflow_backend/internal/qualification/policy"
	"leadflow_backend/internal/qualification/scoring"
	"leadflow_backend/platform/apperr"
)

type Service struct {
	repo   *repository.Repository
	policy *policy.Policy
	engine *scoring.Engine
	cfg    *qualification.Config
}

func New(repo *repository.Repository, pol *policy.Policy, engine *scoring.Engine, cfg *qualification.Config) *Service {
	return &Service{repo: repo, policy: pol, engine: engine, cfg: cfg}
}

// List returns leads, optionally filtered by status.
func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]transport.LeadResponse, error) {
	leads, err := s.repo.ListLeads(ctx, status, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]transport.LeadResponse, 0, len(leads))
	for _, l := range leads {
		out = append(out, toLeadResponse(l))
	}
	return out, nil
}

// QualifiedQueue returns the AI-qualified leads in pickup order: priority tier
// first, score inside the tier.
func (s *Service) QualifiedQueue(ctx context.Context, limit int) ([]transport.LeadResponse, error) {
	leads, err := s.repo.ListQualifiedQueue(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]transport.LeadResponse, 0, len(leads))
	for _, l := range leads {
		out = append(out, toLeadResponse(l))
	}
	return out, nil
}

// GetByID returns the lead with its full conversation and collected answers.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.LeadDetailResponse, error) {
	lead, err := s.repo.GetLead(ctx, id)
	if err != nil {
		return transport.LeadDetailResponse{}, err
	}
	if lead == nil {
		return transport.LeadDetailResponse{}, apperr.NotFound("lead not found")
	}

	var (
		messages []domain.Message
		answers  []domain.Answer
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		messages, err = s.repo.ListMessages(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		answers, err = s.repo.ListAnswers(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return transport.LeadDetailResponse{}, err
	}

	detail := transport.LeadDetailResponse{
		LeadResponse: toLeadResponse(*lead),
		Messages:     make([]transport.MessageResponse, 0, len(messages)),
		Answers:      make([]transport.AnswerResponse, 0, len(answers)),
	}
	for _, m := range messages {
		detail.Messages = append(detail.Messages, transport.MessageResponse{
			ID:        m.ID,
			Sender:    m.Sender,
			Body:      m.Body,
			CreatedAt: m.CreatedAt,
		})
	}
	for _, a := range answers {
		prompt := ""
		if q := s.cfg.Question(a.QuestionID); q != nil {
			prompt = q.Prompt
		}
		detail.Answers = append(detail.Answers, transport.AnswerResponse{
			QuestionID: a.QuestionID,
			Question:   prompt,
			Value:      a.Value,
			UpdatedAt:  a.UpdatedAt,
		})
	}
	return detail, nil
}

// Qualification recomputes the score breakdown from the currently stored
// answers and conversation. For finalized leads the stored score stays
// authoritative and is returned alongside.
func (s *Service) Qualification(ctx context.Context, id uuid.UUID) (transport.QualificationResponse, error) {
	lead, err := s.repo.GetLead(ctx, id)
	if err != nil {
		return transport.QualificationResponse{}, err
	}
	if lead == nil {
		return transport.QualificationResponse{}, apperr.NotFound("lead not found")
	}

	answers, err := s.repo.ListAnswers(ctx, id)
	if err != nil {
		return transport.QualificationResponse{}, err
	}
	history, err := s.repo.ListMessages(ctx, id)
	if err != nil {
		return transport.QualificationResponse{}, err
	}

	byField := make(map[string]string, len(answers))
	for _, a := range answers {
		if q := s.cfg.Question(a.QuestionID); q != nil {
			byField[q.Field()] = a.Value
		}
	}
	result := s.engine.Compute(byField, history)

	resp := transport.QualificationResponse{
		LeadID:          id,
		Total:           result.Total,
		MaxScore:        result.MaxScore,
		Percentage:      result.Percentage,
		Classification:  result.Classification,
		Priority:        result.Priority,
		VIP:             result.VIP,
		Sentiment:       result.Sentiment,
		SentimentScore:  result.SentimentScore,
		Qualified:       result.Qualified,
		Recommendations: result.Recommendations,
		StoredScore:     lead.Score,
	}
	for qid, qs := range result.Questions {
		resp.Questions = append(resp.Questions, transport.QuestionScoreResponse{
			QuestionID: qid,
			Answer:     qs.Answer,
			Score:      qs.Score,
			Reason:     qs.Reason,
		})
	}
	sort.Slice(resp.Questions, func(i, j int) bool {
		return resp.Questions[i].QuestionID < resp.Questions[j].QuestionID
	})
	for _, p := range result.Penalties {
		resp.Penalties = append(resp.Penalties, transport.PenaltyResponse{
			Points: p.Points,
			Reason: p.Reason,
		})
	}
	return resp, nil
}

// Escalate hands the conversation to a human on a manager's request.
func (s *Service) Escalate(ctx context.Context, id uuid.UUID) error {
	return s.policy.ForceEscalate(ctx, id)
}

// EngineStatus describes the active scoring configuration.
func (s *Service) EngineStatus() transport.EngineStatusResponse {
	points := s.engine.PossiblePoints()
	resp := transport.EngineStatusResponse{
		Enabled:        s.cfg.Enabled,
		MaxScore:       scoring.MaxScore,
		QualifiedAt:    s.cfg.Thresholds.Qualified,
		HighPriorityAt: s.cfg.Thresholds.HighPriority,
		VIPAt:          s.cfg.Thresholds.VIP,
	}
	for _, q := range s.cfg.Questions {
		resp.Questions = append(resp.Questions, transport.EngineQuestionResponse{
			ID:             q.ID,
			Type:           q.Type,
			Prompt:         q.Prompt,
			Required:       q.Required,
			DependsOn:      q.DependsOn,
			PossiblePoints: points[q.ID],
		})
	}
	return resp
}

func toLeadResponse(l domain.Lead) transport.LeadResponse {
	return transport.LeadResponse{
		ID:                l.ID,
		Phone:             l.Phone,
		Name:              l.Name,
		Status:            l.Status,
		ConversationState: l.ConversationState,
		AIQualified:       l.AIQualified,
		Score:             l.Score,
		Classification:    l.Classification,
		Priority:          l.Priority,
		Sentiment:         l.Sentiment,
		Interest:          l.Interest,
		Budget:            l.Budget,
		Timeframe:         l.Timeframe,
		ContactPreference: l.ContactPreference,
		CustomerType:      l.CustomerType,
		CompanySize:       l.CompanySize,
		EscalatedAt:       l.EscalatedAt,
		QualifiedAt:       l.QualifiedAt,
		CreatedAt:         l.CreatedAt,
		UpdatedAt:         l.UpdatedAt,
	}
}

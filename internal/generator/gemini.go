// Package generator phrases the assistant's next utterance with Gemini. The
// conversation policy falls back to its deterministic prompts whenever this
// package errors or times out.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/qualification/policy"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"
)

const requestTimeout = 8 * time.Second

// Gemini implements policy.Generator on top of the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
	log    *logger.Logger
}

// New builds the generator, or returns (nil, nil) when no API key is
// configured so the caller can wire a nil Generator.
func New(ctx context.Context, cfg config.AIConfig, log *logger.Logger) (*Gemini, error) {
	if !cfg.IsGeneratorEnabled() {
		return nil, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GetGeminiAPIKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Gemini{client: client, model: cfg.GetGeminiModel(), log: log}, nil
}

// Reply generates the next assistant message from the conversation history
// and the pending question.
func (g *Gemini) Reply(ctx context.Context, req policy.GenerateRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	contents := make([]*genai.Content, 0, len(req.History))
	for _, m := range req.History {
		var role genai.Role = genai.RoleUser
		if m.Sender != domain.SenderLead {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Body, role))
	}
	if len(contents) == 0 {
		contents = append(contents, genai.NewContentFromText(req.NextQuestion, genai.RoleUser))
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(g.systemInstruction(req), genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.7),
		MaxOutputTokens:   200,
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("empty generation")
	}
	return text, nil
}

func (g *Gemini) systemInstruction(req policy.GenerateRequest) string {
	var b strings.Builder
	b.WriteString(req.SystemPrompt)
	fmt.Fprintf(&b, "\n\nPerguntas restantes: %d.", req.Remaining)
	b.WriteString(" Responda em uma única mensagem curta de WhatsApp, em português, e termine fazendo a pergunta indicada.")
	return b.String()
}

var _ policy.Generator = (*Gemini)(nil)

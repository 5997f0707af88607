package scoring

import (
	"strings"

	"leadflow_backend/internal/leads/domain"
)

// recommend builds the follow-up action list shown to agents alongside the
// score. Ordered: classification first, then sentiment, budget and urgency
// hints.
func (e *Engine) recommend(res Result, answers map[string]string) []string {
	var recs []string

	switch res.Classification {
	case domain.ClassificationHot:
		recs = append(recs,
			"🔥 Lead HOT! Atender imediatamente",
			"Oferecer melhor vendedor disponível",
			"Preparar proposta premium",
		)
	case domain.ClassificationWarm:
		recs = append(recs,
			"⚡ Lead qualificado - atender em até 1h",
			"Enviar material complementar",
		)
	default:
		recs = append(recs,
			"❄️ Lead frio - considerar nurturing",
			"Agendar follow-up em 24-48h",
		)
	}

	switch res.Sentiment {
	case domain.SentimentVeryNegative:
		recs = append(recs,
			"⚠️ Sentimento negativo - vendedor experiente",
			"Focar em resolver objeções",
		)
	case domain.SentimentVeryPositive:
		recs = append(recs, "😊 Cliente entusiasmado - momento ideal para fechar")
	}

	budget := strings.ToLower(answers["orcamento"])
	if containsAny(budget, []string{"barato", "grátis", "gratis", "teste"}) {
		recs = append(recs, "💰 Orçamento limitado - apresentar opções básicas primeiro")
	}

	timeframe := strings.ToLower(answers["prazo"])
	if containsAny(timeframe, []string{"hoje", "agora", "urgente"}) {
		recs = append(recs, "⏰ URGENTE - prioridade máxima")
	}

	return recs
}

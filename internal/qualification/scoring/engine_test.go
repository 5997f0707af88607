package scoring

import (
	"reflect"
	"testing"

	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/qualification"
)

func leadMsg(body string) domain.Message {
	return domain.Message{Sender: domain.SenderLead, Body: body}
}

func assistantMsg(body string) domain.Message {
	return domain.Message{Sender: domain.SenderAssistant, Body: body}
}

func TestComputeHotVIPLead(t *testing.T) {
	engine := NewEngine(qualification.DefaultConfig())

	answers := map[string]string{
		"name":                "João Silva Santos",
		"interesse":           "Sistema CRM premium completo para empresa",
		"orcamento":           "50 mil",
		"prazo":               "urgente, preciso hoje",
		"preferencia_contato": "WhatsApp",
		"tipo_cliente":        "Empresa",
		"tamanho_empresa":     "150 funcionários",
	}
	history := []domain.Message{
		leadMsg("Adorei o sistema! Perfeito!"),
		assistantMsg("Que ótimo!"),
		leadMsg("Muito interessante mesmo"),
	}

	res := engine.Compute(answers, history)

	// 20 nome + 25 interesse + 5 orçamento ("50") + 25 prazo + 15 contato +
	// 20 empresa + 30 tamanho + 10 sentimento = 150
	if res.Total != 150 {
		t.Fatalf("total = %d, want 150 (breakdown: %+v)", res.Total, res.Questions)
	}
	if res.Classification != domain.ClassificationHot || res.Priority != domain.PriorityVIP {
		t.Fatalf("classification = %s/%s, want hot/vip", res.Classification, res.Priority)
	}
	if !res.VIP {
		t.Fatal("expected VIP detection")
	}
	if !res.Qualified {
		t.Fatal("expected lead to be qualified")
	}
	if res.Sentiment != domain.SentimentVeryPositive {
		t.Fatalf("sentiment = %s, want very_positive", res.Sentiment)
	}
	if res.Percentage != 85.7 {
		t.Fatalf("percentage = %v, want 85.7", res.Percentage)
	}
}

func TestComputeEvasiveColdLead(t *testing.T) {
	engine := NewEngine(qualification.DefaultConfig())

	answers := map[string]string{
		"name":      "zé",
		"interesse": "ver",
		"orcamento": "sei",
		"prazo":     "dps",
	}

	res := engine.Compute(answers, nil)

	// 5 nome + 10 interesse + 0 orçamento + 5 prazo - 10 evasivas = 10
	if res.Total != 10 {
		t.Fatalf("total = %d, want 10 (breakdown: %+v, penalties: %+v)",
			res.Total, res.Questions, res.Penalties)
	}
	if res.Classification != domain.ClassificationCold || res.Priority != domain.PriorityLow {
		t.Fatalf("classification = %s/%s, want cold/low", res.Classification, res.Priority)
	}
	if res.Qualified {
		t.Fatal("evasive lead must not qualify")
	}
	if len(res.Penalties) != 1 || res.Penalties[0].Points != -10 {
		t.Fatalf("penalties = %+v, want single -10 evasive penalty", res.Penalties)
	}
}

func TestComputeNegativeKeywordPenaltyStacks(t *testing.T) {
	engine := NewEngine(qualification.DefaultConfig())

	answers := map[string]string{"name": "Maria Souza"}
	history := []domain.Message{
		leadMsg("achei muito caro"),
		leadMsg("continua muito caro pra mim"),
	}

	res := engine.Compute(answers, history)

	var negative *Penalty
	for i := range res.Penalties {
		if res.Penalties[i].Points < -10 {
			negative = &res.Penalties[i]
		}
	}
	if negative == nil || negative.Points != -30 {
		t.Fatalf("penalties = %+v, want -15 x2 negative keyword penalty", res.Penalties)
	}
	if res.Sentiment != domain.SentimentNegative && res.Sentiment != domain.SentimentVeryNegative {
		t.Fatalf("sentiment = %s, want a negative label", res.Sentiment)
	}
}

func TestComputeTotalNeverNegative(t *testing.T) {
	engine := NewEngine(qualification.DefaultConfig())

	history := []domain.Message{
		leadMsg("não quero, muito caro"),
		leadMsg("caro demais, desisto"),
		leadMsg("péssimo atendimento, cancelar tudo"),
	}

	res := engine.Compute(map[string]string{}, history)

	if res.Total != 0 {
		t.Fatalf("total = %d, want floor at 0", res.Total)
	}
	if res.Percentage != 0 {
		t.Fatalf("percentage = %v, want 0", res.Percentage)
	}
	if res.Qualified {
		t.Fatal("negative raw score must not qualify")
	}
}

func TestDetectVIPWithoutHotScore(t *testing.T) {
	engine := NewEngine(qualification.DefaultConfig())

	cases := []struct {
		name    string
		answers map[string]string
	}{
		{
			name: "premium budget with urgency",
			answers: map[string]string{
				"orcamento": "uns 50 mil",
				"prazo":     "preciso já",
			},
		},
		{
			name: "large company",
			answers: map[string]string{
				"tamanho_empresa": "empresa grande",
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := engine.Compute(tc.answers, nil)
			if res.Total >= engine.cfg.Thresholds.VIP {
				t.Fatalf("total = %d, scenario must stay below the VIP threshold", res.Total)
			}
			if !res.VIP {
				t.Fatalf("expected VIP override for %q", tc.name)
			}
		})
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	engine := NewEngine(qualification.DefaultConfig())

	answers := map[string]string{
		"name":      "Ana Lima",
		"interesse": "automação de atendimento",
		"orcamento": "R$ 7500",
		"prazo":     "essa semana",
	}
	history := []domain.Message{leadMsg("gostei da proposta")}

	first := engine.Compute(answers, history)
	second := engine.Compute(answers, history)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Compute is not deterministic:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestBudgetScoringTiers(t *testing.T) {
	engine := NewEngine(qualification.DefaultConfig())
	q := engine.cfg.Question("orcamento")
	if q == nil {
		t.Fatal("missing orcamento question")
	}

	cases := []struct {
		answer string
		want   int
	}{
		{"R$ 15000", 30},
		{"uns 5000 reais", 25},
		{"2500", 15},
		{"500 reais", 5},
		{"algo bem barato", 5},
		{"ainda não pensei", 0},
	}

	for _, tc := range cases {
		got, _ := scoreBudget(tc.answer, q)
		if got != tc.want {
			t.Fatalf("scoreBudget(%q) = %d, want %d", tc.answer, got, tc.want)
		}
	}
}

func TestTimeframeScoringPrefersMostUrgentMatch(t *testing.T) {
	engine := NewEngine(qualification.DefaultConfig())
	q := engine.cfg.Question("prazo")

	got, _ := scoreTimeframe("hoje, no máximo essa semana", q)
	if got != 25 {
		t.Fatalf("score = %d, want 25 (imediato wins over curto)", got)
	}
}

func TestPossiblePointsSumToMaxScore(t *testing.T) {
	engine := NewEngine(qualification.DefaultConfig())

	sum := 0
	for _, pts := range engine.PossiblePoints() {
		sum += pts
	}
	if sum != MaxScore {
		t.Fatalf("possible points sum = %d, want %d", sum, MaxScore)
	}
}

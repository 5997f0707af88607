package extract

import (
	"testing"

	"leadflow_backend/internal/qualification"
)

func newExtractor() *Extractor {
	return New(qualification.DefaultConfig())
}

func TestExtractNameFromPhrases(t *testing.T) {
	e := newExtractor()

	cases := []struct {
		message string
		want    string
	}{
		{"meu nome é João Silva", "João Silva"},
		{"Oi, me chamo Maria Oliveira", "Maria Oliveira"},
		{"Sou Pedro Santos", "Pedro Santos"},
		{"Carlos Alberto de Souza", "Carlos Alberto de Souza"},
	}

	for _, tc := range cases {
		got, ok := e.Extract(tc.message, nil)
		if !ok {
			t.Fatalf("Extract(%q) found nothing", tc.message)
		}
		if got.QuestionID != "nome" {
			t.Fatalf("Extract(%q) question = %s, want nome", tc.message, got.QuestionID)
		}
		if got.Value != tc.want {
			t.Fatalf("Extract(%q) value = %q, want %q", tc.message, got.Value, tc.want)
		}
		if got.Field != "name" {
			t.Fatalf("Extract(%q) field = %s, want name", tc.message, got.Field)
		}
	}
}

func TestExtractRejectsGreetingsAsNames(t *testing.T) {
	e := newExtractor()

	for _, message := range []string{"Bom Dia", "Boa Tarde pessoal", "Tudo Bem"} {
		if got, ok := e.Extract(message, nil); ok && got.QuestionID == "nome" {
			t.Fatalf("Extract(%q) extracted a name: %q", message, got.Value)
		}
	}
}

func TestExtractSkipsAnsweredQuestions(t *testing.T) {
	e := newExtractor()

	answered := map[string]bool{"nome": true}
	got, ok := e.Extract("me chamo Ana Clara, quero um orçamento de R$ 5000", answered)
	if !ok {
		t.Fatal("expected an extraction")
	}
	if got.QuestionID == "nome" {
		t.Fatal("answered question must not be re-extracted")
	}
}

func TestExtractAtMostOnePerMessage(t *testing.T) {
	e := newExtractor()

	// Name, budget and timeframe signals in one message: only the first open
	// rule in order fires.
	got, ok := e.Extract("meu nome é Bruno Costa, tenho 5000 reais e preciso pra hoje", nil)
	if !ok {
		t.Fatal("expected an extraction")
	}
	if got.QuestionID != "nome" {
		t.Fatalf("question = %s, want nome (first rule in order)", got.QuestionID)
	}
}

func TestExtractBudgetShapes(t *testing.T) {
	e := newExtractor()
	answered := map[string]bool{"nome": true, "interesse": true}

	for _, message := range []string{"R$ 3500", "uns 10 mil", "tenho 5000 disponível"} {
		got, ok := e.Extract(message, answered)
		if !ok || got.QuestionID != "orcamento" {
			t.Fatalf("Extract(%q) = %+v, ok=%v, want orcamento", message, got, ok)
		}
		if got.Value != message {
			t.Fatalf("budget extraction stores the full message, got %q", got.Value)
		}
	}
}

func TestExtractCompanySize(t *testing.T) {
	e := newExtractor()
	answered := map[string]bool{
		"nome": true, "interesse": true, "orcamento": true,
		"prazo": true, "contato": true, "empresa": true,
	}

	got, ok := e.Extract("somos uns 80 funcionários", answered)
	if !ok || got.QuestionID != "tamanho_empresa" {
		t.Fatalf("got %+v ok=%v, want tamanho_empresa", got, ok)
	}
}

func TestExtractNothingFromSmallTalk(t *testing.T) {
	e := newExtractor()

	if got, ok := e.Extract("ok", nil); ok {
		t.Fatalf("Extract(ok) = %+v, want no extraction", got)
	}
	if _, ok := e.Extract("", nil); ok {
		t.Fatal("empty message must not extract")
	}
}

func TestValidEnforcesNameRule(t *testing.T) {
	cfg := qualification.DefaultConfig()
	q := cfg.Question("nome")

	if Valid(q, "João") {
		t.Fatal("single word must fail the two-word rule")
	}
	if Valid(q, "João Silva123") {
		t.Fatal("digits must fail the letters-only rule")
	}
	if !Valid(q, "João Silva") {
		t.Fatal("valid full name rejected")
	}
}

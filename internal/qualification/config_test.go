package qualification

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if !cfg.Enabled {
		t.Fatal("defaults should enable qualification")
	}
	if len(cfg.Questions) != 7 {
		t.Fatalf("default questions = %d, want 7", len(cfg.Questions))
	}
	if cfg.Thresholds.VIP != 80 || cfg.Thresholds.HighPriority != 60 || cfg.Thresholds.Qualified != 40 {
		t.Fatalf("default thresholds = %+v", cfg.Thresholds)
	}
	if cfg.Finalization.MinMessages != 10 || cfg.Finalization.MinAnswers != 5 {
		t.Fatalf("default finalization = %+v", cfg.Finalization)
	}
}

func TestLoadPartialFileOverridesOnlyNamedSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qualification.json")
	body := `{
		"company_name": "Acme Vendas",
		"timeout_minutes": 45,
		"finalization": {"min_messages": 6, "min_answers": 3}
	}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CompanyName != "Acme Vendas" {
		t.Errorf("company name = %q", cfg.CompanyName)
	}
	if cfg.TimeoutMinutes != 45 {
		t.Errorf("timeout = %d, want 45", cfg.TimeoutMinutes)
	}
	if cfg.Finalization.MinMessages != 6 || cfg.Finalization.MinAnswers != 3 {
		t.Errorf("finalization = %+v", cfg.Finalization)
	}
	// Untouched sections keep their defaults.
	if len(cfg.Questions) != 7 {
		t.Errorf("questions = %d, want 7", len(cfg.Questions))
	}
	if cfg.Thresholds.VIP != 80 {
		t.Errorf("vip threshold = %d, want 80", cfg.Thresholds.VIP)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestQuestionLookupAndRequiredIDs(t *testing.T) {
	cfg := DefaultConfig()

	if q := cfg.Question("orcamento"); q == nil || q.Type != TypeBudget {
		t.Fatalf("Question(orcamento) = %+v", q)
	}
	if q := cfg.Question("inexistente"); q != nil {
		t.Fatalf("Question(inexistente) = %+v, want nil", q)
	}

	required := cfg.RequiredQuestionIDs()
	want := []string{"nome", "interesse", "orcamento", "prazo"}
	if len(required) != len(want) {
		t.Fatalf("required = %v, want %v", required, want)
	}
	for i, id := range want {
		if required[i] != id {
			t.Fatalf("required[%d] = %q, want %q", i, required[i], id)
		}
	}
}

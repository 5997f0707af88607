package policy

import "strings"

// nextUtterance deterministically picks the next question to ask. Context
// hints in the current message take precedence: a budget mention pulls the
// timeframe question forward, a product mention pulls the company size
// question forward. Otherwise the first unanswered question whose dependency
// is satisfied is asked. Returns an empty question id with the generic probe
// when nothing is askable.
func (p *Policy) nextUtterance(body string, answered map[string]bool) (string, string) {
	lower := strings.ToLower(body)

	if mentionsBudget(lower) {
		if q := p.cfg.Question("prazo"); q != nil && !answered[q.ID] {
			return q.ID, q.Prompt
		}
	}
	if matchesAny(lower, p.cfg.Greetings.ProductSignals) {
		if q := p.cfg.Question("tamanho_empresa"); q != nil && !answered[q.ID] && p.dependencyMet(q.DependsOn, answered) {
			return q.ID, q.Prompt
		}
	}

	for _, q := range p.cfg.Questions {
		if answered[q.ID] {
			continue
		}
		if !p.dependencyMet(q.DependsOn, answered) {
			continue
		}
		return q.ID, q.Prompt
	}

	return "", p.cfg.Templates.GenericProbe
}

func (p *Policy) dependencyMet(dependsOn string, answered map[string]bool) bool {
	return dependsOn == "" || answered[dependsOn]
}

func mentionsBudget(lower string) bool {
	for _, kw := range []string{"r$", "reais", "orçamento", "orcamento", "mil", "valor", "investir"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

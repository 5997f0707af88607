package policy

import "strings"

// selectGreeting picks the opener for a first contact from the signals in the
// message. Urgency wins over a reported problem, which wins over product and
// price interest.
func (p *Policy) selectGreeting(body string) string {
	lower := strings.ToLower(body)
	g := p.cfg.Greetings

	greeting := g.Default
	switch {
	case matchesAny(lower, g.UrgentSignals):
		greeting = g.Urgent
	case matchesAny(lower, g.ProblemSignals):
		greeting = g.Problem
	case matchesAny(lower, g.ProductSignals):
		greeting = g.Product
	case matchesAny(lower, g.PriceSignals):
		greeting = g.Price
	}

	return strings.ReplaceAll(greeting, "{empresa}", p.cfg.CompanyName)
}

func matchesAny(text string, signals []string) bool {
	for _, s := range signals {
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}

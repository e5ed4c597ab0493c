// ABOUTME: Tunable keyword policy behind persona intent detection
// ABOUTME: Holds command verbs, fillers, aliases, back-references, and topic rules
package persona

import "fmt"

// TopicRule maps a keyword group to a persona. A rule is skipped when any
// of its SuppressedBy keywords also appears in the message.
type TopicRule struct {
	Persona      string   `json:"persona" yaml:"persona"`
	Keywords     []string `json:"keywords" yaml:"keywords"`
	SuppressedBy []string `json:"suppressed_by,omitempty" yaml:"suppressed_by,omitempty"`
}

// Policy is the keyword table the detector is compiled from. Topics are
// evaluated in order and the first matching rule wins.
type Policy struct {
	CommandVerbs   []string          `json:"command_verbs" yaml:"command_verbs"`
	FillerWords    []string          `json:"filler_words" yaml:"filler_words"`
	Aliases        map[string]string `json:"aliases" yaml:"aliases"`
	ModeSuffix     string            `json:"mode_suffix" yaml:"mode_suffix"`
	BackReferences []string          `json:"back_references" yaml:"back_references"`
	Topics         []TopicRule       `json:"topics" yaml:"topics"`
}

// DefaultPolicy returns the built-in detection table
func DefaultPolicy() Policy {
	return Policy{
		CommandVerbs: []string{"act", "be", "switch", "become"},
		FillerWords: []string{
			"like", "as", "to", "a", "an", "the", "my", "your", "me", "now",
			"over", "more", "skeptical", "supportive", "seasoned", "experienced",
			"friendly", "wise", "tough", "senior",
		},
		Aliases: map[string]string{
			"mentor":            Mentor,
			"investor":          Investor,
			"tech":              TechnicalAdvisor,
			"technical":         TechnicalAdvisor,
			"technical advisor": TechnicalAdvisor,
			"technical expert":  TechnicalAdvisor,
			"tech advisor":      TechnicalAdvisor,
			"technical_advisor": TechnicalAdvisor,
			"business":          BusinessExpert,
			"business expert":   BusinessExpert,
			"business advisor":  BusinessExpert,
			"business_expert":   BusinessExpert,
		},
		ModeSuffix:     "mode",
		BackReferences: []string{"back to", "return to"},
		Topics: []TopicRule{
			{
				Persona: Investor,
				Keywords: []string{
					"investor", "investors", "investment", "investments", "invest",
					"investing", "roi", "return on investment", "market size",
					"unit economics", "valuation", "funding", "fundraising", "pitch",
					"pitch deck", "business case", "venture capital", "vc", "equity",
					"seed round", "series a",
				},
			},
			{
				Persona: TechnicalAdvisor,
				Keywords: []string{
					"technical", "code", "coding", "implementation", "architecture",
					"system design", "algorithm", "algorithms", "programming",
					"tech stack", "api", "apis", "database", "databases",
					"infrastructure", "backend", "frontend", "deployment", "debugging",
					"microservices", "kubernetes",
				},
				SuppressedBy: []string{
					"sales", "revenue", "customers", "customer", "pricing", "marketing",
					"go-to-market",
				},
			},
			{
				Persona: Mentor,
				Keywords: []string{
					"mentor", "mentorship", "learn", "learning", "teach", "teach me",
					"guide", "guide me", "guidance", "roadmap", "coach", "coaching",
				},
			},
		},
	}
}

// Validate checks that every alias and topic names a registered persona
func (p Policy) Validate() error {
	if len(p.CommandVerbs) == 0 {
		return fmt.Errorf("policy needs at least one command verb")
	}
	for alias, id := range p.Aliases {
		if !Valid(id) {
			return fmt.Errorf("alias %q maps to unknown persona %q", alias, id)
		}
	}
	for i, rule := range p.Topics {
		if !Valid(rule.Persona) {
			return fmt.Errorf("topic rule %d names unknown persona %q", i, rule.Persona)
		}
		if len(rule.Keywords) == 0 {
			return fmt.Errorf("topic rule %d for %s has no keywords", i, rule.Persona)
		}
	}
	return nil
}

// ABOUTME: Static registry of personas and their system prompts
// ABOUTME: Provides lookup, listing, and the default persona for new conversations
package persona

import "sort"

// Persona identifiers
const (
	Mentor           = "mentor"
	Investor         = "investor"
	TechnicalAdvisor = "technical_advisor"
	BusinessExpert   = "business_expert"
)

// Default is assigned to brand-new conversations with no persona cue
const Default = BusinessExpert

// Persona is a named system-prompt configuration
type Persona struct {
	ID           string `json:"id"`
	DisplayName  string `json:"display_name"`
	SystemPrompt string `json:"system_prompt"`
}

var registry = map[string]Persona{
	Mentor: {
		ID:          Mentor,
		DisplayName: "Mentor",
		SystemPrompt: "You are a supportive mentor who guides people through challenges with empathy and wisdom. " +
			"You ask probing questions that help people think problems through, and you focus on learning and long-term growth. " +
			"Keep responses concise: 2-4 sentences, direct and actionable.",
	},
	Investor: {
		ID:          Investor,
		DisplayName: "Investor",
		SystemPrompt: "You are a skeptical investor who evaluates business opportunities critically. " +
			"You ask tough questions about market size, competitive advantage, unit economics, and risk. " +
			"Keep responses concise: 2-4 sentences, straight to the point.",
	},
	TechnicalAdvisor: {
		ID:          TechnicalAdvisor,
		DisplayName: "Technical Advisor",
		SystemPrompt: "You are a technical expert who gives practical guidance on architecture, implementation, and tooling. " +
			"You explain complex concepts clearly and favour proven engineering practice. " +
			"Keep responses concise: 2-4 sentences, clear and practical.",
	},
	BusinessExpert: {
		ID:          BusinessExpert,
		DisplayName: "Business Expert",
		SystemPrompt: "You are a business domain expert who advises on strategy, market analysis, operations, and growth. " +
			"You focus on business models, competitive positioning, and operational excellence. " +
			"Keep responses concise: 2-4 sentences, insight without fluff.",
	},
}

// Personas returns a copy of the persona id to system prompt mapping
func Personas() map[string]string {
	out := make(map[string]string, len(registry))
	for id, p := range registry {
		out[id] = p.SystemPrompt
	}
	return out
}

// IDs returns all persona ids in sorted order
func IDs() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// All returns every persona sorted by id
func All() []Persona {
	ids := IDs()
	out := make([]Persona, 0, len(ids))
	for _, id := range ids {
		out = append(out, registry[id])
	}
	return out
}

// Get looks up a persona by id
func Get(id string) (Persona, bool) {
	p, ok := registry[id]
	return p, ok
}

// Valid reports whether id names a registered persona
func Valid(id string) bool {
	_, ok := registry[id]
	return ok
}

// SystemPrompt returns the prompt for id, or the default persona's prompt
// when id is not registered
func SystemPrompt(id string) string {
	if p, ok := registry[id]; ok {
		return p.SystemPrompt
	}
	return registry[Default].SystemPrompt
}

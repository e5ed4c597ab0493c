// ABOUTME: Labelled multi-turn conversations for the routing benchmark
// ABOUTME: Each turn carries the expected persona, routing scenario, and thread continuity

package routing

import (
	"github.com/harper/persona-chat/internal/models"
	"github.com/harper/persona-chat/internal/persona"
)

// Scenario is one scripted conversation for a single user
type Scenario struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Turns       []Turn `json:"turns"`
}

// Turn is one user message and what routing should do with it
type Turn struct {
	Number         int                    `json:"number"`
	UserMessage    string                 `json:"user_message"`
	ExpectPersona  string                 `json:"expect_persona"`
	ExpectScenario models.RoutingScenario `json:"expect_scenario"`
	// SameThreadAs names an earlier turn whose thread this turn must land in
	SameThreadAs int `json:"same_thread_as,omitempty"`
}

// GetSwitchAndReturn covers spawning two personas and recalling the first
func GetSwitchAndReturn() Scenario {
	return Scenario{
		ID:          "switch-return",
		Name:        "Switch and Return",
		Description: "Explicit persona commands spawn threads and a back-reference resumes the earlier one",
		Turns: []Turn{
			{Number: 1, UserMessage: "Hi, I'm building a meal-planning startup", ExpectPersona: persona.BusinessExpert, ExpectScenario: models.NewThreadFirst},
			{Number: 2, UserMessage: "act like a skeptical investor", ExpectPersona: persona.Investor, ExpectScenario: models.PersonaSpawn},
			{Number: 3, UserMessage: "Our churn is 4% a month", ExpectPersona: persona.Investor, ExpectScenario: models.ThreadContinuation, SameThreadAs: 2},
			{Number: 4, UserMessage: "be my mentor for a minute", ExpectPersona: persona.Mentor, ExpectScenario: models.PersonaSpawn},
			{Number: 5, UserMessage: "How should I structure my week?", ExpectPersona: persona.Mentor, ExpectScenario: models.ThreadContinuation, SameThreadAs: 4},
			{Number: 6, UserMessage: "go back to the investor", ExpectPersona: persona.Investor, ExpectScenario: models.PersonaRecall, SameThreadAs: 2},
		},
	}
}

// GetTopicRouting covers implicit switches driven by topic keywords
func GetTopicRouting() Scenario {
	return Scenario{
		ID:          "topic-routing",
		Name:        "Topic Routing",
		Description: "Topic keywords pick a persona; go-to-market words keep technical questions where they are",
		Turns: []Turn{
			{Number: 1, UserMessage: "what valuation should we aim for in our seed round?", ExpectPersona: persona.Investor, ExpectScenario: models.PersonaSpawn},
			{Number: 2, UserMessage: "should our backend use microservices?", ExpectPersona: persona.TechnicalAdvisor, ExpectScenario: models.PersonaSpawn},
			{Number: 3, UserMessage: "how do we price this for customers and fix the api?", ExpectPersona: persona.TechnicalAdvisor, ExpectScenario: models.ThreadContinuation, SameThreadAs: 2},
			{Number: 4, UserMessage: "I want to learn how to lead a team", ExpectPersona: persona.Mentor, ExpectScenario: models.PersonaSpawn},
		},
	}
}

// GetStayOnPersona covers re-requesting the persona already in use
func GetStayOnPersona() Scenario {
	return Scenario{
		ID:          "stay",
		Name:        "Stay on Persona",
		Description: "Asking for the active persona again keeps the thread instead of spawning a duplicate",
		Turns: []Turn{
			{Number: 1, UserMessage: "act like a mentor", ExpectPersona: persona.Mentor, ExpectScenario: models.PersonaSpawn},
			{Number: 2, UserMessage: "act as my mentor please", ExpectPersona: persona.Mentor, ExpectScenario: models.PersonaStay, SameThreadAs: 1},
			{Number: 3, UserMessage: "thanks, that helps", ExpectPersona: persona.Mentor, ExpectScenario: models.ThreadContinuation, SameThreadAs: 1},
		},
	}
}

// GetDefaultRecall covers returning to the default persona's thread
func GetDefaultRecall() Scenario {
	return Scenario{
		ID:          "default-recall",
		Name:        "Default Persona Recall",
		Description: "The default thread can be recalled by alias and mode suffixes recall existing threads",
		Turns: []Turn{
			{Number: 1, UserMessage: "hello", ExpectPersona: persona.BusinessExpert, ExpectScenario: models.NewThreadFirst},
			{Number: 2, UserMessage: "switch to tech", ExpectPersona: persona.TechnicalAdvisor, ExpectScenario: models.PersonaSpawn},
			{Number: 3, UserMessage: "back to business", ExpectPersona: persona.BusinessExpert, ExpectScenario: models.PersonaRecall, SameThreadAs: 1},
			{Number: 4, UserMessage: "tech mode", ExpectPersona: persona.TechnicalAdvisor, ExpectScenario: models.PersonaRecall, SameThreadAs: 2},
		},
	}
}

// GetAllScenarios returns every benchmark scenario
func GetAllScenarios() []Scenario {
	return []Scenario{
		GetSwitchAndReturn(),
		GetTopicRouting(),
		GetStayOnPersona(),
		GetDefaultRecall(),
	}
}

// GetScenario looks a scenario up by id
func GetScenario(id string) (Scenario, bool) {
	for _, s := range GetAllScenarios() {
		if s.ID == id {
			return s, true
		}
	}
	return Scenario{}, false
}

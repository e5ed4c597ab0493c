// ABOUTME: Routing decision types produced by the conversation router
// ABOUTME: Defines the five persona routing scenarios for an incoming turn
package models

// RoutingScenario represents the routing decision type
type RoutingScenario string

const (
	// PersonaStay - Switch requested to the persona already active → keep current thread
	PersonaStay RoutingScenario = "persona_stay"

	// PersonaRecall - Switch requested, user already has a thread for that persona → reuse it
	PersonaRecall RoutingScenario = "persona_recall"

	// PersonaSpawn - Switch requested, no thread for that persona yet → create one
	PersonaSpawn RoutingScenario = "persona_spawn"

	// ThreadContinuation - No switch requested, current thread exists → continue it
	ThreadContinuation RoutingScenario = "thread_continuation"

	// NewThreadFirst - No switch requested and no thread → create one with the default persona
	NewThreadFirst RoutingScenario = "new_thread_first"
)

// IsValid reports whether s is one of the known routing scenarios
func (s RoutingScenario) IsValid() bool {
	switch s {
	case PersonaStay, PersonaRecall, PersonaSpawn, ThreadContinuation, NewThreadFirst:
		return true
	}
	return false
}

// CreatesThread reports whether the scenario results in a brand-new thread
func (s RoutingScenario) CreatesThread() bool {
	return s == PersonaSpawn || s == NewThreadFirst
}

// RoutingDecision contains the routing decision and relevant metadata
type RoutingDecision struct {
	Scenario       RoutingScenario `json:"scenario"`
	ThreadID       string          `json:"thread_id"`
	Persona        string          `json:"persona"`
	UserID         string          `json:"user_id"`
	Requested      string          `json:"requested_persona,omitempty"`
	PreviousThread string          `json:"previous_thread_id,omitempty"`
	DetectionLayer string          `json:"detection_layer,omitempty"`
}

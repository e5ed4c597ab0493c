// ABOUTME: Routing benchmark metrics: persona, scenario, and thread continuity accuracy
// ABOUTME: Deterministic comparison of observed turns against the labelled expectations

package routing

import (
	"fmt"

	"github.com/harper/persona-chat/internal/models"
)

// Observation is what the system actually did for one turn
type Observation struct {
	Turn           int                    `json:"turn"`
	ThreadID       string                 `json:"thread_id"`
	Persona        string                 `json:"persona"`
	Scenario       models.RoutingScenario `json:"scenario"`
	DetectionLayer string                 `json:"detection_layer"`
}

// ScenarioResult is the outcome of one benchmark scenario
type ScenarioResult struct {
	ScenarioID         string         `json:"scenario_id"`
	ScenarioName       string         `json:"scenario_name"`
	Turns              int            `json:"turns"`
	PersonaAccuracy    float64        `json:"persona_accuracy"`
	ScenarioAccuracy   float64        `json:"scenario_accuracy"`
	ContinuityAccuracy float64        `json:"continuity_accuracy"`
	OverallScore       float64        `json:"overall_score"`
	Status             string         `json:"status"` // "PASS" or "FAIL"
	LayerCounts        map[string]int `json:"layer_counts"`
	Failures           []string       `json:"failures,omitempty"`
	Observations       []Observation  `json:"observations"`
}

// MetricsCalculator scores observed turns against a scenario
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// Evaluate compares observations, in turn order, with the scenario's labels
func (m *MetricsCalculator) Evaluate(s Scenario, observed []Observation) ScenarioResult {
	result := ScenarioResult{
		ScenarioID:   s.ID,
		ScenarioName: s.Name,
		Turns:        len(s.Turns),
		LayerCounts:  map[string]int{},
		Observations: observed,
	}
	if len(s.Turns) == 0 {
		result.Status = "FAIL"
		result.Failures = []string{"scenario has no turns"}
		return result
	}

	threadOf := map[int]string{}
	seen := map[string]bool{}
	var personaHits, scenarioHits, continuityHits int

	for i, turn := range s.Turns {
		if i >= len(observed) {
			result.Failures = append(result.Failures, fmt.Sprintf("turn %d: no observation", turn.Number))
			continue
		}
		obs := observed[i]

		layer := obs.DetectionLayer
		if layer == "" {
			layer = "none"
		}
		result.LayerCounts[layer]++

		if obs.Persona == turn.ExpectPersona {
			personaHits++
		} else {
			result.Failures = append(result.Failures,
				fmt.Sprintf("turn %d: persona %s, want %s", turn.Number, obs.Persona, turn.ExpectPersona))
		}

		if obs.Scenario == turn.ExpectScenario {
			scenarioHits++
		} else {
			result.Failures = append(result.Failures,
				fmt.Sprintf("turn %d: scenario %s, want %s", turn.Number, obs.Scenario, turn.ExpectScenario))
		}

		if ok, why := m.continuity(turn, obs, threadOf, seen); ok {
			continuityHits++
		} else {
			result.Failures = append(result.Failures, fmt.Sprintf("turn %d: %s", turn.Number, why))
		}

		threadOf[turn.Number] = obs.ThreadID
		seen[obs.ThreadID] = true
	}

	n := float64(len(s.Turns))
	result.PersonaAccuracy = float64(personaHits) / n
	result.ScenarioAccuracy = float64(scenarioHits) / n
	result.ContinuityAccuracy = float64(continuityHits) / n
	result.OverallScore = (result.PersonaAccuracy + result.ScenarioAccuracy + result.ContinuityAccuracy) / 3

	result.Status = "PASS"
	if len(result.Failures) > 0 {
		result.Status = "FAIL"
	}
	return result
}

// continuity checks that thread-creating turns land in a fresh thread and
// that continuing turns land in the labelled earlier thread
func (m *MetricsCalculator) continuity(turn Turn, obs Observation, threadOf map[int]string, seen map[string]bool) (bool, string) {
	if turn.ExpectScenario.CreatesThread() {
		if seen[obs.ThreadID] {
			return false, "expected a new thread, got an existing one"
		}
		return true, ""
	}
	if turn.SameThreadAs > 0 {
		want, ok := threadOf[turn.SameThreadAs]
		if !ok {
			return false, fmt.Sprintf("same_thread_as refers to unknown turn %d", turn.SameThreadAs)
		}
		if obs.ThreadID != want {
			return false, fmt.Sprintf("expected the thread of turn %d", turn.SameThreadAs)
		}
	}
	return true, ""
}

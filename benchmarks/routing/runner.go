// ABOUTME: Benchmark runner that drives scenarios through the real turn executor
// ABOUTME: Each scenario gets a fresh in-memory store and the offline mock generator

package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/harper/persona-chat/internal/core"
	"github.com/harper/persona-chat/internal/llm"
	"github.com/harper/persona-chat/internal/models"
	"github.com/harper/persona-chat/internal/persona"
	"github.com/harper/persona-chat/internal/storage/sqldb"
	"go.uber.org/zap"
)

const benchmarkUser = "benchmark-user"

// BenchmarkRunner executes routing benchmark scenarios
type BenchmarkRunner struct {
	detector *persona.Detector
	metrics  *MetricsCalculator
	logger   *zap.Logger
	out      io.Writer
	verbose  bool
}

// NewBenchmarkRunner creates a runner that reports progress to out when verbose
func NewBenchmarkRunner(logger *zap.Logger, out io.Writer, verbose bool) *BenchmarkRunner {
	return &BenchmarkRunner{
		detector: persona.DefaultDetector(),
		metrics:  NewMetricsCalculator(),
		logger:   logger,
		out:      out,
		verbose:  verbose,
	}
}

// RunScenario plays one scenario against a fresh store
func (r *BenchmarkRunner) RunScenario(ctx context.Context, s Scenario) (ScenarioResult, error) {
	if r.verbose {
		fmt.Fprintf(r.out, "\n========================================\n")
		fmt.Fprintf(r.out, "RUNNING: %s\n", s.Name)
		fmt.Fprintf(r.out, "========================================\n")
		fmt.Fprintf(r.out, "Description: %s\n\n", s.Description)
	}

	store, err := sqldb.NewStorageInMemory(ctx)
	if err != nil {
		return ScenarioResult{}, fmt.Errorf("failed to create scenario store: %w", err)
	}
	defer store.Close()

	executor := core.NewExecutor(core.ExecutorConfig{
		Store:             store,
		Router:            core.NewRouter(store, r.detector, r.logger),
		Checkpointer:      core.NewCheckpointer(store, nil, 2, r.logger),
		Builder:           core.NewContextBuilder(50, 6000),
		Generator:         llm.NewMockClient(),
		GenerationTimeout: 5 * time.Second,
		Logger:            r.logger,
	})

	observed := make([]Observation, 0, len(s.Turns))
	threadID := ""
	for _, turn := range s.Turns {
		res, err := executor.HandleTurn(ctx, models.TurnRequest{
			UserID:   benchmarkUser,
			Message:  turn.UserMessage,
			ThreadID: threadID,
		})
		if err != nil {
			return ScenarioResult{}, fmt.Errorf("turn %d failed: %w", turn.Number, err)
		}
		threadID = res.ThreadID

		obs := Observation{
			Turn:           turn.Number,
			ThreadID:       res.ThreadID,
			Persona:        res.Persona,
			Scenario:       res.Scenario,
			DetectionLayer: string(r.detector.DetectWithLayer(turn.UserMessage).Layer),
		}
		observed = append(observed, obs)

		if r.verbose {
			fmt.Fprintf(r.out, "[Turn %d] User: %s\n", turn.Number, turn.UserMessage)
			fmt.Fprintf(r.out, "[Turn %d] -> %s (%s, layer=%q)\n\n", turn.Number, res.Persona, res.Scenario, obs.DetectionLayer)
		}
	}

	result := r.metrics.Evaluate(s, observed)

	if r.verbose {
		fmt.Fprintf(r.out, "Persona accuracy:    %.2f\n", result.PersonaAccuracy)
		fmt.Fprintf(r.out, "Scenario accuracy:   %.2f\n", result.ScenarioAccuracy)
		fmt.Fprintf(r.out, "Continuity accuracy: %.2f\n", result.ContinuityAccuracy)
		fmt.Fprintf(r.out, "Status: %s\n", result.Status)
	}

	return result, nil
}

// RunAll plays every scenario in order
func (r *BenchmarkRunner) RunAll(ctx context.Context) ([]ScenarioResult, error) {
	scenarios := GetAllScenarios()
	results := make([]ScenarioResult, 0, len(scenarios))
	for _, s := range scenarios {
		result, err := r.RunScenario(ctx, s)
		if err != nil {
			return results, fmt.Errorf("scenario %s: %w", s.ID, err)
		}
		results = append(results, result)
	}
	return results, nil
}

// Report is the JSON document written by ExportResults
type Report struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Passed      int              `json:"passed"`
	Failed      int              `json:"failed"`
	LayerCounts map[string]int   `json:"layer_counts"`
	Results     []ScenarioResult `json:"results"`
}

// NewReport aggregates scenario results
func NewReport(results []ScenarioResult) Report {
	report := Report{
		GeneratedAt: time.Now().UTC(),
		LayerCounts: map[string]int{},
		Results:     results,
	}
	for _, res := range results {
		if res.Status == "PASS" {
			report.Passed++
		} else {
			report.Failed++
		}
		for layer, n := range res.LayerCounts {
			report.LayerCounts[layer] += n
		}
	}
	return report
}

// ExportResults writes the aggregated report as JSON
func (r *BenchmarkRunner) ExportResults(results []ScenarioResult, outputPath string) error {
	data, err := json.MarshalIndent(NewReport(results), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return nil
}

// ABOUTME: Command-line runner for the persona routing benchmark
// ABOUTME: Executes labelled scenarios offline and writes a JSON report

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/harper/persona-chat/benchmarks/routing"
	"github.com/harper/persona-chat/internal/logging"
)

func main() {
	scenarioID := flag.String("scenario", "", "Run a specific scenario by id. If empty, runs all scenarios.")
	outputPath := flag.String("output", "routing_results.json", "Output path for JSON results")
	verbose := flag.Bool("verbose", false, "Enable verbose output")
	flag.Parse()

	level := "error"
	if *verbose {
		level = "debug"
	}
	logger, err := logging.New(level, "console")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	fmt.Println("========================================")
	fmt.Println("Persona Routing Benchmark")
	fmt.Println("========================================")

	ctx := context.Background()
	runner := routing.NewBenchmarkRunner(logger, os.Stdout, *verbose)

	var results []routing.ScenarioResult
	if *scenarioID == "" {
		results, err = runner.RunAll(ctx)
		if err != nil {
			log.Fatalf("Benchmark failed: %v", err)
		}
	} else {
		scenario, ok := routing.GetScenario(*scenarioID)
		if !ok {
			log.Fatalf("Unknown scenario: %s", *scenarioID)
		}
		result, err := runner.RunScenario(ctx, scenario)
		if err != nil {
			log.Fatalf("Scenario failed: %v", err)
		}
		results = []routing.ScenarioResult{result}
	}

	fmt.Println("\n========================================")
	fmt.Println("BENCHMARK SUMMARY")
	fmt.Println("========================================")

	report := routing.NewReport(results)
	for _, result := range results {
		fmt.Printf("\n%s: %s\n", result.ScenarioID, result.ScenarioName)
		fmt.Printf("  Persona accuracy:    %.2f\n", result.PersonaAccuracy)
		fmt.Printf("  Scenario accuracy:   %.2f\n", result.ScenarioAccuracy)
		fmt.Printf("  Continuity accuracy: %.2f\n", result.ContinuityAccuracy)
		fmt.Printf("  Status: %s\n", result.Status)
		for _, f := range result.Failures {
			fmt.Printf("    - %s\n", f)
		}
	}

	fmt.Println("\n========================================")
	fmt.Printf("Total Scenarios: %d\n", len(results))
	fmt.Printf("Passed: %d\n", report.Passed)
	fmt.Printf("Failed: %d\n", report.Failed)
	fmt.Printf("Detection layers: %v\n", report.LayerCounts)
	fmt.Println("========================================")

	if err := runner.ExportResults(results, *outputPath); err != nil {
		log.Fatalf("Failed to export results: %v", err)
	}

	if report.Failed > 0 {
		os.Exit(1)
	}
}

// Command score runs the compliance scorer against a JSON snapshot file
// without a database. It deduplicates readings to the latest per sensor,
// scores the snapshot, and prints the result. Useful for checking how a
// captured set of readings would score before it reaches the service.
//
// Usage:
//
//	go run ./cmd/score -snapshot readings.json
//
// The snapshot file holds an object with sensor readings and optional
// recommendation entries:
//
//	{"readings": [...], "recommendations": [...]}
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/canopyrisk/compliance-engine/internal/domain"
)

type snapshotFile struct {
	Readings        []domain.SensorReading       `json:"readings"`
	Recommendations []domain.RecommendationEntry `json:"recommendations"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	snapshotPath := flag.String("snapshot", "", "path to a JSON snapshot of readings and recommendations")
	asJSON := flag.Bool("json", false, "print the raw result as JSON")
	flag.Parse()

	if *snapshotPath == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -snapshot")
	}

	raw, err := os.ReadFile(*snapshotPath)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	var snapshot snapshotFile
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return fmt.Errorf("parse snapshot: %w", err)
	}

	latest := domain.LatestPerSensor(snapshot.Readings)
	followed, total := domain.CountRecommendations(snapshot.Recommendations)
	result := domain.Score(latest, followed, total)

	if *asJSON {
		return json.NewEncoder(os.Stdout).Encode(result)
	}

	fmt.Printf("readings: %d (%d after dedup)\n", len(snapshot.Readings), len(latest))
	fmt.Printf("recommendations: %d followed of %d\n", followed, total)
	fmt.Println()

	categories := make([]string, 0, len(result.CategoryScores))
	for name := range result.CategoryScores {
		categories = append(categories, name)
	}
	sort.Strings(categories)
	for _, name := range categories {
		fmt.Printf("  %-24s %3d\n", name, result.CategoryScores[name])
	}

	fmt.Printf("\noverall: %d (%s)\n", result.OverallScore, result.Rank)
	return nil
}

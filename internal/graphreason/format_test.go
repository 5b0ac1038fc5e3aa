package graphreason

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestFormatForAIIsDeterministic(t *testing.T) {
	sim := SimulationResult{
		Resolved: []ResolvedEntity{
			{ID: uuid.New(), Name: "borrows without regrouping", Type: "misconception"},
			{ID: uuid.New(), Name: "number line subtraction", Type: "strategy"},
		},
		Unresolved: []string{"decimal alignment"},
		Outcomes: []OutcomeProjection{
			{Name: "improved accuracy", Weight: 12, Probability: 0.75},
		},
		Differentiators: []Differentiator{
			{Name: "small group setting", Role: "context", Effect: EffectImproves, Magnitude: 0.22, CooccurrenceStrength: 9},
		},
		TotalObservations: 3,
		OutcomeCount:      1,
		HasPatterns:       true,
	}

	first := FormatForAI(sim)
	second := FormatForAI(sim)
	if first != second {
		t.Fatalf("FormatForAI is not deterministic:\n%s\n---\n%s", first, second)
	}

	for _, want := range []string{
		"Situation involves: borrows without regrouping, number line subtraction",
		"Not previously seen: decimal alignment",
		"improved accuracy: seen 12 times, 75% positive",
		"small group setting (context) improves outcomes",
		"Note: this graph has limited data",
	} {
		if !strings.Contains(first, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, first)
		}
	}
}

func TestFormatForAIHandlesEmptyResult(t *testing.T) {
	out := FormatForAI(SimulationResult{})
	if !strings.Contains(out, "no known entities") {
		t.Fatalf("expected empty-resolution message, got:\n%s", out)
	}
	if !strings.Contains(out, "No prior trajectories") {
		t.Fatalf("expected no-patterns message, got:\n%s", out)
	}
	if !strings.Contains(out, "No differentiating factors") {
		t.Fatalf("expected no-differentiators message, got:\n%s", out)
	}
}

package llm

import (
	"context"
	"strings"
	"testing"
)

func TestMockClientIsDeterministic(t *testing.T) {
	client := NewMockClient()
	ctx := context.Background()

	first, err := client.StreamText(ctx, "system", "tell me about fractions", nil)
	if err != nil {
		t.Fatalf("StreamText: %v", err)
	}
	second, err := client.StreamText(ctx, "system", "tell me about fractions", nil)
	if err != nil {
		t.Fatalf("StreamText: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical output for identical input, got %q and %q", first, second)
	}
	if !strings.Contains(first, "fractions") {
		t.Fatalf("expected mock response to echo the prompt, got %q", first)
	}
}

func TestMockClientStreamsDeltasThatConcatenateToFull(t *testing.T) {
	client := NewMockClient()
	ctx := context.Background()

	var deltas []string
	full, err := client.StreamText(ctx, "system", "number sense", func(delta string) error {
		deltas = append(deltas, delta)
		return nil
	})
	if err != nil {
		t.Fatalf("StreamText: %v", err)
	}
	if len(deltas) == 0 {
		t.Fatalf("expected at least one delta")
	}
	if strings.Join(deltas, "") != full {
		t.Fatalf("deltas did not concatenate to full response")
	}
}

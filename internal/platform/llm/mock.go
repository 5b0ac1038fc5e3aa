package llm

import (
	"context"
	"fmt"
	"strings"
)

// mockClient produces a deterministic response derived only from its
// inputs, used when no API key is configured so the rest of the system
// (and its tests) can exercise the full orchestrator loop without a
// network dependency.
type mockClient struct{}

// NewMockClient returns a Client with no external dependencies. Given the
// same system and prompt it always returns the same text.
func NewMockClient() Client {
	return &mockClient{}
}

func (c *mockClient) StreamText(ctx context.Context, system, prompt string, onDelta DeltaFunc) (string, error) {
	response := fmt.Sprintf(
		"Here is a response grounded in what the graph has seen so far. You mentioned: %q. No live model is configured, so this is a deterministic placeholder.",
		strings.TrimSpace(prompt),
	)

	words := strings.Fields(response)
	var full strings.Builder
	for i, w := range words {
		if err := ctx.Err(); err != nil {
			return full.String(), err
		}
		chunk := w
		if i < len(words)-1 {
			chunk += " "
		}
		full.WriteString(chunk)
		if onDelta != nil {
			if err := onDelta(chunk); err != nil {
				return full.String(), err
			}
		}
	}
	return full.String(), nil
}

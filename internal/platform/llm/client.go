// Package llm abstracts the streaming text model the orchestrator prompts
// on every chat turn, so the engine itself never depends on a concrete
// provider's wire format.
package llm

import (
	"context"
	"os"
	"strings"

	"github.com/pckassistant/graph-engine/internal/pkg/logger"
)

// DeltaFunc receives each incremental chunk of model output as it arrives.
// Returning an error aborts the stream; StreamText propagates it.
type DeltaFunc func(delta string) error

// Client streams a single text completion for (system, prompt), invoking
// onDelta for every chunk the provider emits and returning the
// concatenation of all chunks once the stream ends.
type Client interface {
	StreamText(ctx context.Context, system, prompt string, onDelta DeltaFunc) (full string, err error)
}

// NewClient returns a real OpenAI-compatible streaming client when
// OPENAI_API_KEY is set, and a deterministic mock otherwise, so the chat
// endpoint works out of the box in a dev or test environment with no
// model provider configured.
func NewClient(log *logger.Logger) (Client, error) {
	if strings.TrimSpace(os.Getenv("OPENAI_API_KEY")) == "" {
		log.Info("no OPENAI_API_KEY configured, using deterministic mock LLM client")
		return NewMockClient(), nil
	}
	return NewOpenAIClient(log)
}

package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pckassistant/graph-engine/internal/pkg/httpx"
	"github.com/pckassistant/graph-engine/internal/pkg/logger"
)

// openAIClient talks to any OpenAI-compatible chat-completions endpoint
// (the real API, or a self-hosted server implementing the same wire
// format) with streaming enabled.
type openAIClient struct {
	log        *logger.Logger
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	temperature float64
	maxRetries int
}

// NewOpenAIClient builds a streaming client from OPENAI_* environment
// variables. It fails loudly if OPENAI_API_KEY is unset; callers needing a
// no-credentials fallback should use NewMockClient instead.
func NewOpenAIClient(log *logger.Logger) (Client, error) {
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}

	baseURL := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	model := strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if model == "" {
		model = "gpt-4o-mini"
	}

	timeoutSec := 120
	if v := strings.TrimSpace(os.Getenv("OPENAI_TIMEOUT_SECONDS")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	temperature := 0.2
	if v := strings.TrimSpace(os.Getenv("OPENAI_TEMPERATURE")); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			temperature = f
		}
	}

	maxRetries := 3
	if v := strings.TrimSpace(os.Getenv("OPENAI_MAX_RETRIES")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	return &openAIClient{
		log:         log.With("service", "OpenAIClient"),
		httpClient:  &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		baseURL:     baseURL,
		apiKey:      apiKey,
		model:       model,
		temperature: temperature,
		maxRetries:  maxRetries,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatCompletionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

func (c *openAIClient) StreamText(ctx context.Context, system, prompt string, onDelta DeltaFunc) (string, error) {
	body := chatCompletionRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "system", Content: system}, {Role: "user", Content: prompt}},
		Temperature: c.temperature,
		Stream:      true,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	resp, err := c.doWithRetry(ctx, payload)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var full strings.Builder
	err = streamSSE(resp.Body, func(event, data string) error {
		if data == "[DONE]" {
			return nil
		}
		var chunk chatCompletionChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return nil
		}
		for _, choice := range chunk.Choices {
			if choice.Delta.Content == "" {
				continue
			}
			full.WriteString(choice.Delta.Content)
			if onDelta != nil {
				if err := onDelta(choice.Delta.Content); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return full.String(), err
	}
	return full.String(), nil
}

func (c *openAIClient) doWithRetry(ctx context.Context, payload []byte) (*http.Response, error) {
	backoff := 500 * time.Millisecond
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Accept", "text/event-stream")

		resp, err := c.httpClient.Do(req)
		if err == nil && resp.StatusCode < 300 {
			return resp, nil
		}
		if resp != nil && resp.StatusCode >= 300 {
			lastErr = fmt.Errorf("llm request failed: status %d", resp.StatusCode)
			if !httpx.IsRetryableHTTPStatus(resp.StatusCode) || attempt == c.maxRetries {
				resp.Body.Close()
				return nil, lastErr
			}
			sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 10*time.Second))
			resp.Body.Close()
			c.log.Warn("llm request retrying", "attempt", attempt+1, "max_retries", c.maxRetries, "sleep", sleepFor.String())
			time.Sleep(sleepFor)
			backoff *= 2
			continue
		}
		lastErr = err
		if !httpx.IsRetryableError(err) || attempt == c.maxRetries {
			return nil, err
		}
		sleepFor := httpx.JitterSleep(backoff)
		c.log.Warn("llm request retrying", "attempt", attempt+1, "max_retries", c.maxRetries, "sleep", sleepFor.String(), "error", err.Error())
		time.Sleep(sleepFor)
		backoff *= 2
	}
	return nil, lastErr
}

// streamSSE reads a text/event-stream body line by line, grouping
// "data:" lines between blank lines into one event for the callback.
func streamSSE(r io.Reader, onEvent func(event, data string) error) error {
	br := bufio.NewReader(r)
	var eventName string
	var dataLines []string

	flush := func() error {
		if len(dataLines) == 0 {
			eventName = ""
			return nil
		}
		data := strings.Join(dataLines, "\n")
		dataLines = nil
		ev := eventName
		eventName = ""
		return onEvent(ev, data)
	}

	for {
		line, err := br.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return flush()
			}
			return err
		}
		line = strings.TrimRight(line, "\r\n")

		if line == "" {
			if err := flush(); err != nil {
				return err
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		if strings.HasPrefix(line, "event:") {
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			continue
		}
		if strings.HasPrefix(line, "data:") {
			dataLines = append(dataLines, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
			continue
		}
	}
}

package llm

import (
	"strings"
	"testing"
)

func TestStreamSSEParsesMultipleEventsAndPassesDoneThrough(t *testing.T) {
	body := "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n" +
		": keep-alive comment\n\n" +
		"data: [DONE]\n\n"

	var got []string
	err := streamSSE(strings.NewReader(body), func(event, data string) error {
		got = append(got, data)
		return nil
	})
	if err != nil {
		t.Fatalf("streamSSE: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d: %v", len(got), got)
	}
	if got[2] != "[DONE]" {
		t.Fatalf("expected final event to be [DONE], got %q", got[2])
	}
}

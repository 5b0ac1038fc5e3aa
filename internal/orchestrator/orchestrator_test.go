package orchestrator

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/pckassistant/graph-engine/internal/data/repos"
	"github.com/pckassistant/graph-engine/internal/data/repos/testutil"
	"github.com/pckassistant/graph-engine/internal/graphreason"
	"github.com/pckassistant/graph-engine/internal/platform/llm"
	"github.com/pckassistant/graph-engine/internal/sse"
	"github.com/pckassistant/graph-engine/internal/trajectory"
)

type recordingSink struct {
	events []sse.Message
	seq    int64
}

func (s *recordingSink) Emit(eventType sse.EventType, data any) {
	s.seq++
	s.events = append(s.events, sse.Message{Type: eventType, Data: data})
}

func (s *recordingSink) eventTypes(kind sse.EventType) []map[string]any {
	var out []map[string]any
	for _, e := range s.events {
		if e.Type != kind {
			continue
		}
		if m, ok := e.Data.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func newTestOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	store := repos.NewStore(db, log)
	engine := trajectory.NewEngine(store, log, nil, nil)
	reasoner := graphreason.NewReasoner(store, log)
	return New(store, log, engine, reasoner, llm.NewMockClient())
}

func TestRunCompletesAFullTurnAndEmitsExpectedEventOrder(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()
	sink := &recordingSink{}

	out, err := o.Run(ctx, RunInput{
		AccountID: uuid.New().String(),
		Message:   "Teaching [[topic:fractions]] with [[strategy:number line]] today.",
	}, sink)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out == nil {
		t.Fatal("expected non-nil output")
	}
	if out.ConversationID == uuid.Nil || out.TrajectoryID == uuid.Nil || out.MessageID == uuid.Nil {
		t.Fatalf("expected all ids populated, got %+v", out)
	}
	if len(out.EntitiesTouched)+len(out.EntitiesDiscovered) == 0 {
		t.Fatalf("expected at least one entity referenced")
	}

	if len(sink.events) == 0 {
		t.Fatal("expected sink to receive events")
	}
	first := sink.events[0]
	if first.Type != sse.EventTypeTrajectoryEvent {
		t.Fatalf("expected first event to be a trajectory_event, got %q", first.Type)
	}
	firstData, ok := first.Data.(map[string]any)
	if !ok || firstData["eventType"] != "trajectory_start" {
		t.Fatalf("expected first event to be trajectory_start, got %+v", first.Data)
	}

	last := sink.events[len(sink.events)-1]
	if last.Type != sse.EventTypeComplete {
		t.Fatalf("expected terminal event to be complete, got %q", last.Type)
	}

	if len(sink.eventTypes(sse.EventTypeChunk)) == 0 {
		t.Fatal("expected at least one chunk event")
	}
}

func TestRunReusesExistingConversation(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()
	accountID := uuid.New().String()

	first, err := o.Run(ctx, RunInput{AccountID: accountID, Message: "hello there"}, &recordingSink{})
	if err != nil {
		t.Fatalf("Run (first): %v", err)
	}

	second, err := o.Run(ctx, RunInput{
		AccountID:      accountID,
		ConversationID: &first.ConversationID,
		Message:        "follow up message",
	}, &recordingSink{})
	if err != nil {
		t.Fatalf("Run (second): %v", err)
	}
	if second.ConversationID != first.ConversationID {
		t.Fatalf("expected the same conversation id across turns")
	}
}

func TestRunRejectsConversationOwnedByAnotherAccount(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()

	first, err := o.Run(ctx, RunInput{AccountID: uuid.New().String(), Message: "hello"}, &recordingSink{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	_, err = o.Run(ctx, RunInput{
		AccountID:      uuid.New().String(),
		ConversationID: &first.ConversationID,
		Message:        "trying to hijack this thread",
	}, &recordingSink{})
	if err == nil {
		t.Fatal("expected an error when a different account references someone else's conversation")
	}
}

func TestRunRespondsWithMockClientContent(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()
	sink := &recordingSink{}

	_, err := o.Run(ctx, RunInput{AccountID: uuid.New().String(), Message: "what helps with regrouping"}, sink)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	chunks := sink.eventTypes(sse.EventTypeChunk)
	var full string
	for _, c := range chunks {
		if fc, ok := c["fullContent"].(string); ok {
			full = fc
		}
	}
	if !strings.Contains(full, "regrouping") {
		t.Fatalf("expected mock response to echo the prompt, got %q", full)
	}
}

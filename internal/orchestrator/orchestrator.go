// Package orchestrator drives one chat turn end to end: parse tags out of
// what the user said, log touches, simulate likely outcomes, prompt the
// model with that context, stream its reply, parse tags out of the
// reply, fold everything into the trajectory, and persist the messages.
// It knows nothing about Gin or HTTP; a caller supplies a Sink to receive
// the SSE-shaped events it emits along the way.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pckassistant/graph-engine/internal/data/repos"
	types "github.com/pckassistant/graph-engine/internal/domain"
	"github.com/pckassistant/graph-engine/internal/graphreason"
	"github.com/pckassistant/graph-engine/internal/observability"
	engerrors "github.com/pckassistant/graph-engine/internal/pkg/errors"
	"github.com/pckassistant/graph-engine/internal/pkg/dbctx"
	"github.com/pckassistant/graph-engine/internal/pkg/logger"
	"github.com/pckassistant/graph-engine/internal/pkg/pointers"
	"github.com/pckassistant/graph-engine/internal/platform/llm"
	"github.com/pckassistant/graph-engine/internal/sse"
	"github.com/pckassistant/graph-engine/internal/tagparser"
	"github.com/pckassistant/graph-engine/internal/trajectory"
)

// Sink is anything that can receive the events a run produces. sse.Stream
// satisfies it directly; NoopSink is provided for the unary (non-streaming)
// call path, which still runs the full state machine but discards events.
type Sink interface {
	Emit(eventType sse.EventType, data any)
}

type NoopSink struct{}

func (NoopSink) Emit(sse.EventType, any) {}

const systemPrompt = `You are a teaching assistant with access to a shared knowledge graph
of topics, misconceptions, strategies, contexts, constraints, and outcomes
built up from every teacher who has used this tool. When you reference an
entity from that vocabulary, tag it inline like [[strategy:visual models]]
or [[topic:fractions]] so it can be linked into the graph. Prefer strategies
and considerations the graph shows working well for situations like this
one, and say so plainly when the graph has little or no relevant history.`

type RunInput struct {
	AccountID      string
	ConversationID *uuid.UUID
	Message        string

	// TrajectoryID, when set, is used instead of a freshly generated id.
	// The streaming HTTP handler sets this so it can open the trajectory's
	// SSE stream before Run starts emitting into it.
	TrajectoryID *uuid.UUID
}

type RunOutput struct {
	ConversationID     uuid.UUID
	MessageID          uuid.UUID
	TrajectoryID       uuid.UUID
	EntitiesDiscovered []uuid.UUID
	EntitiesTouched    []uuid.UUID
	EdgesTraversed     []trajectory.EdgePair
}

type Orchestrator struct {
	store    *repos.Store
	log      *logger.Logger
	engine   *trajectory.Engine
	reasoner *graphreason.Reasoner
	llm      llm.Client
}

func New(store *repos.Store, log *logger.Logger, engine *trajectory.Engine, reasoner *graphreason.Reasoner, llmClient llm.Client) *Orchestrator {
	return &Orchestrator{
		store:    store,
		log:      log.With("component", "AgentOrchestrator"),
		engine:   engine,
		reasoner: reasoner,
		llm:      llmClient,
	}
}

// mentionEvent is one resolved mention plus whether it existed before this
// turn touched it, which decides whether S8 logs it as a touch or a
// discover.
type mentionEvent struct {
	entityID uuid.UUID
	name     string
	typ      string
	isNew    bool
}

// Run drives S0 through S12. It returns a non-nil error only for failures
// unrelated to the LLM call itself (store errors, invalid input); an LLM
// failure at S5 is reported via a sink error event and a nil, nil return,
// since the caller has already been told what happened over the sink.
func (o *Orchestrator) Run(ctx context.Context, in RunInput, sink Sink) (*RunOutput, error) {
	accountID := strings.TrimSpace(in.AccountID)
	message := strings.TrimSpace(in.Message)
	if accountID == "" {
		return nil, fmt.Errorf("%w: missing account id", engerrors.ErrInvalidArgument)
	}
	if message == "" {
		return nil, fmt.Errorf("%w: empty message", engerrors.ErrInvalidArgument)
	}
	if sink == nil {
		sink = NoopSink{}
	}

	conversationID, err := o.ensureConversation(ctx, accountID, in.ConversationID, message)
	if err != nil {
		return nil, err
	}

	// S0: start
	var trajectoryID uuid.UUID
	if in.TrajectoryID != nil && *in.TrajectoryID != uuid.Nil {
		trajectoryID, err = o.engine.StartTrajectoryWithID(ctx, *in.TrajectoryID, accountID, message, &conversationID)
	} else {
		trajectoryID, err = o.engine.StartTrajectory(ctx, accountID, message, &conversationID)
	}
	if err != nil {
		return nil, err
	}
	sink.Emit(sse.EventTypeTrajectoryEvent, trajectoryEventPayload("trajectory_start", nil))

	if _, err := o.store.Messages.Create(dbctx.Context{Ctx: ctx}, &types.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Role:           string(types.MessageRoleUser),
		Content:        message,
		TrajectoryID:   &trajectoryID,
	}); err != nil {
		return nil, err
	}

	if ctx.Err() != nil {
		return nil, nil
	}

	// S1: tag-parse(user)
	userMentions := tagparser.ExtractMentions(message)
	decisionCtx := tagparser.ExtractDecisionContext(message)

	// S2: log-touch(user-tags)
	walkTouched := make(map[uuid.UUID]bool)
	userEvents, err := o.touchMentions(ctx, accountID, trajectoryID, userMentions, "user", &decisionCtx, walkTouched)
	if err != nil {
		return nil, err
	}
	for _, ev := range userEvents {
		sink.Emit(sse.EventTypeTrajectoryEvent, trajectoryEventPayload("touch", map[string]any{
			"entityId":   ev.entityID.String(),
			"name":       ev.name,
			"entityType": ev.typ,
			"source":     "user",
		}))
	}

	if ctx.Err() != nil {
		return nil, nil
	}

	// S3: simulate(if any tags)
	var sim graphreason.SimulationResult
	simulationUsed := false
	if len(userEvents) > 0 {
		refs := make([]graphreason.EntityRef, 0, len(userEvents))
		for _, ev := range userEvents {
			refs = append(refs, graphreason.EntityRef{Name: ev.name, Type: ev.typ})
		}
		sim = o.reasoner.Simulate(ctx, refs)
		simulationUsed = true

		if _, err := o.engine.LogEvent(ctx, trajectoryID, trajectory.LogEventInput{
			Type: types.EventTypeSimulate,
			Data: map[string]interface{}{
				"outcomeCount":        sim.OutcomeCount,
				"differentiatorCount": len(sim.Differentiators),
				"resolvedCount":       len(sim.Resolved),
				"unresolvedCount":     len(sim.Unresolved),
				"hasPatterns":         sim.HasPatterns,
			},
		}); err != nil {
			return nil, err
		}
		sink.Emit(sse.EventTypeTrajectoryEvent, trajectoryEventPayload("simulate", map[string]any{
			"outcomeCount":        sim.OutcomeCount,
			"differentiatorCount": len(sim.Differentiators),
			"resolvedCount":       len(sim.Resolved),
			"unresolvedCount":     len(sim.Unresolved),
			"hasPatterns":         sim.HasPatterns,
		}))
	}

	if ctx.Err() != nil {
		return nil, nil
	}

	// S4: build-prompt
	prompt := buildPrompt(message, simulationUsed, sim)

	if _, err := o.engine.LogEvent(ctx, trajectoryID, trajectory.LogEventInput{
		Type: types.EventTypeReason,
		Data: map[string]interface{}{
			"resolvedCount":   len(sim.Resolved),
			"unresolvedCount": len(sim.Unresolved),
			"hasPatterns":     sim.HasPatterns,
			"simulationUsed":  simulationUsed,
		},
	}); err != nil {
		return nil, err
	}
	sink.Emit(sse.EventTypeTrajectoryEvent, trajectoryEventPayload("reason", map[string]any{
		"resolvedCount":   len(sim.Resolved),
		"unresolvedCount": len(sim.Unresolved),
		"hasPatterns":     sim.HasPatterns,
		"simulationUsed":  simulationUsed,
	}))

	if ctx.Err() != nil {
		return nil, nil
	}

	// S5/S6: stream-llm / chunk-emit
	var full strings.Builder
	streamStart := time.Now()
	_, err = o.llm.StreamText(ctx, systemPrompt, prompt, func(delta string) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		full.WriteString(delta)
		sink.Emit(sse.EventTypeChunk, map[string]any{
			"content":     delta,
			"fullContent": full.String(),
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, nil
		}
		observability.Current().IncLLMStreamError()
		o.log.Warn("llm stream failed", "trajectoryId", trajectoryID, "error", err)
		sink.Emit(sse.EventTypeError, map[string]any{
			"message": "the assistant failed to respond",
			"error":   err.Error(),
		})
		return nil, nil
	}
	observability.Current().ObserveLLMStream("default", time.Since(streamStart))
	assistantText := full.String()

	if ctx.Err() != nil {
		return nil, nil
	}

	// S7: tag-parse(assistant)
	assistantMentions := tagparser.ExtractMentions(assistantText)

	// S8: log-discover/touch(assistant-tags)
	assistantEvents, err := o.touchMentions(ctx, accountID, trajectoryID, assistantMentions, "assistant", nil, walkTouched)
	if err != nil {
		return nil, err
	}
	newEntities := 0
	for _, ev := range assistantEvents {
		eventType := "touch"
		if ev.isNew {
			eventType = "discover"
			newEntities++
		}
		sink.Emit(sse.EventTypeTrajectoryEvent, trajectoryEventPayload(eventType, map[string]any{
			"entityId":   ev.entityID.String(),
			"name":       ev.name,
			"entityType": ev.typ,
			"source":     "assistant",
		}))
	}

	if ctx.Err() != nil {
		return nil, nil
	}

	// S9: decide-event
	referenced := uniqueEntityIDs(userEvents, assistantEvents)
	if _, err := o.engine.LogEvent(ctx, trajectoryID, trajectory.LogEventInput{
		Type: types.EventTypeDecide,
		Data: map[string]interface{}{
			"action":              "responded",
			"entitiesReferenced":  len(referenced),
			"newEntities":         newEntities,
			"simulationUsed":      simulationUsed,
		},
	}); err != nil {
		return nil, err
	}
	sink.Emit(sse.EventTypeTrajectoryEvent, trajectoryEventPayload("decide", map[string]any{
		"action":             "responded",
		"entitiesReferenced": len(referenced),
		"newEntities":        newEntities,
		"simulationUsed":     simulationUsed,
	}))

	// S10: complete-trajectory
	summary := summarize(assistantText)
	completion, err := o.engine.CompleteTrajectory(ctx, trajectoryID, accountID, summary)
	if err != nil {
		return nil, err
	}

	// S11: persist-assistant-message
	assistantMsg, err := o.store.Messages.Create(dbctx.Context{Ctx: ctx}, &types.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Role:           string(types.MessageRoleAssistant),
		Content:        assistantText,
		TrajectoryID:   &trajectoryID,
	})
	if err != nil {
		return nil, err
	}
	if err := o.store.Conversations.Touch(dbctx.Context{Ctx: ctx}, conversationID); err != nil {
		return nil, err
	}

	out := &RunOutput{
		ConversationID:     conversationID,
		MessageID:          assistantMsg.ID,
		TrajectoryID:       trajectoryID,
		EntitiesTouched:    touchedIDs(userEvents, assistantEvents),
		EntitiesDiscovered: discoveredIDs(assistantEvents),
		EdgesTraversed:     completion.EdgesTraversed,
	}

	// S12: emit-complete
	sink.Emit(sse.EventTypeComplete, map[string]any{
		"conversationId": conversationID.String(),
		"messageId":      assistantMsg.ID.String(),
		"trajectoryId":   trajectoryID.String(),
		"trajectory": map[string]any{
			"entitiesDiscovered": stringifyIDs(out.EntitiesDiscovered),
			"entitiesTouched":    stringifyIDs(out.EntitiesTouched),
			"edgesTraversed":     stringifyEdges(out.EdgesTraversed),
		},
	})

	return out, nil
}

func (o *Orchestrator) ensureConversation(ctx context.Context, accountID string, existing *uuid.UUID, firstMessage string) (uuid.UUID, error) {
	dbc := dbctx.Context{Ctx: ctx}
	if existing != nil && *existing != uuid.Nil {
		conv, err := o.store.Conversations.GetByID(dbc, *existing)
		if err != nil {
			return uuid.Nil, err
		}
		if conv == nil || conv.AccountID != accountID {
			return uuid.Nil, fmt.Errorf("%w: conversation", engerrors.ErrNotFound)
		}
		return conv.ID, nil
	}

	title := summarize(firstMessage)
	conv, err := o.store.Conversations.Create(dbc, &types.Conversation{
		ID:        uuid.New(),
		AccountID: accountID,
		Title:     title,
	})
	if err != nil {
		return uuid.Nil, err
	}
	return conv.ID, nil
}

// touchMentions resolves each mention to a global entity. Discover vs touch
// is a property of the walk, not of the entity: a mention is a discovery
// only if its entity has not appeared earlier in this same trajectory as a
// plain touch, tracked via walkTouched across both the S2 and S8 calls
// within one Run. Mentions are deduplicated by normalized name within the
// call.
func (o *Orchestrator) touchMentions(ctx context.Context, accountID string, trajectoryID uuid.UUID, mentions []tagparser.Mention, source string, decisionCtx *tagparser.DecisionContext, walkTouched map[uuid.UUID]bool) ([]mentionEvent, error) {
	seen := make(map[string]bool, len(mentions))
	out := make([]mentionEvent, 0, len(mentions))

	for _, m := range mentions {
		normalized := strings.ToLower(strings.TrimSpace(m.Name))
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		observability.Current().IncTagParse(m.Type)

		var entityType *string
		if m.Type != "" {
			entityType = pointers.Ptr(m.Type)
		}

		entityID, err := o.engine.FindOrCreateEntity(ctx, accountID, trajectoryID, m.Name, entityType, nil)
		if err != nil {
			return nil, err
		}
		isNew := !walkTouched[entityID]
		walkTouched[entityID] = true

		var evtCtx *tagparser.DecisionContext
		if decisionCtx != nil && !decisionCtx.IsEmpty() && len(out) == 0 {
			evtCtx = decisionCtx
		}

		eventType := types.EventTypeTouch
		if isNew {
			eventType = types.EventTypeDiscover
		}
		if _, err := o.engine.LogEvent(ctx, trajectoryID, trajectory.LogEventInput{
			Type:     eventType,
			EntityID: &entityID,
			Data:     map[string]interface{}{"source": source},
			Context:  evtCtx,
		}); err != nil {
			return nil, err
		}

		resolvedType := m.Type
		if entityType != nil {
			resolvedType = *entityType
		}
		out = append(out, mentionEvent{entityID: entityID, name: m.Name, typ: resolvedType, isNew: isNew})
	}

	return out, nil
}

func trajectoryEventPayload(eventType string, fields map[string]any) map[string]any {
	payload := map[string]any{"eventType": eventType}
	for k, v := range fields {
		payload[k] = v
	}
	return payload
}

func buildPrompt(message string, simulationUsed bool, sim graphreason.SimulationResult) string {
	if !simulationUsed {
		return message
	}
	var b strings.Builder
	b.WriteString(graphreason.FormatForAI(sim))
	b.WriteString("\n\nTeacher's message: ")
	b.WriteString(message)
	return b.String()
}

func summarize(text string) *string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	const maxLen = 120
	if len(text) > maxLen {
		text = text[:maxLen]
	}
	return &text
}

func uniqueEntityIDs(groups ...[]mentionEvent) []uuid.UUID {
	seen := map[uuid.UUID]bool{}
	var out []uuid.UUID
	for _, g := range groups {
		for _, ev := range g {
			if !seen[ev.entityID] {
				seen[ev.entityID] = true
				out = append(out, ev.entityID)
			}
		}
	}
	return out
}

func touchedIDs(groups ...[]mentionEvent) []uuid.UUID {
	seen := map[uuid.UUID]bool{}
	var out []uuid.UUID
	for _, g := range groups {
		for _, ev := range g {
			if ev.isNew || seen[ev.entityID] {
				continue
			}
			seen[ev.entityID] = true
			out = append(out, ev.entityID)
		}
	}
	return out
}

func discoveredIDs(events []mentionEvent) []uuid.UUID {
	var out []uuid.UUID
	for _, ev := range events {
		if ev.isNew {
			out = append(out, ev.entityID)
		}
	}
	return out
}

func stringifyIDs(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func stringifyEdges(pairs []trajectory.EdgePair) []map[string]string {
	out := make([]map[string]string, len(pairs))
	for i, p := range pairs {
		out[i] = map[string]string{"sourceId": p.SourceID.String(), "targetId": p.TargetID.String()}
	}
	return out
}

package graphreason

import (
	"context"
	"sort"

	"github.com/google/uuid"

	types "github.com/pckassistant/graph-engine/internal/domain"
	"github.com/pckassistant/graph-engine/internal/pkg/dbctx"
)

const (
	withoutEntityBaseline = 0.5
	improvesThreshold     = 0.6
	reducesThreshold      = 0.4
	minMagnitude          = 0.1
	cooccurrenceTopN      = 20
	differentiatorTopN    = 5
)

// Simulate projects likely outcomes for a situation described by inputs,
// resolving each to a graph entity and reading edge/cooccurrence structure
// around the resolved set. It never writes to the graph.
func (r *Reasoner) Simulate(ctx context.Context, inputs []EntityRef) SimulationResult {
	resolved := r.Resolve(ctx, inputs)

	result := SimulationResult{
		Resolved:   resolved.Resolved,
		Unresolved: resolved.Unresolved,
	}
	if len(resolved.Resolved) == 0 {
		return result
	}

	ids := make([]uuid.UUID, 0, len(resolved.Resolved))
	for _, e := range resolved.Resolved {
		ids = append(ids, e.ID)
	}

	dbc := dbctx.Context{Ctx: ctx}
	outcomes, total := r.projectOutcomesFromEdges(dbc, ids)
	result.Outcomes = outcomes
	result.TotalObservations = total
	result.OutcomeCount = len(outcomes)
	result.HasPatterns = total > 0

	result.Differentiators = r.findDifferentiatorsFromStructure(dbc, ids)
	return result
}

// projectOutcomesFromEdges walks every edge touching the resolved entities in
// both directions, since a historic edge may have been persisted
// strategy->outcome or outcome->strategy depending on trajectory order, and
// aggregates by the outcome-typed entity at the far end.
func (r *Reasoner) projectOutcomesFromEdges(dbc dbctx.Context, ids []uuid.UUID) ([]OutcomeProjection, int64) {
	edges, err := r.store.Edges.ListInvolving(dbc, ids)
	if err != nil || len(edges) == 0 {
		return nil, 0
	}

	resolvedSet := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		resolvedSet[id] = true
	}

	candidateIDs := make(map[uuid.UUID]bool)
	for _, e := range edges {
		if resolvedSet[e.SourceID] {
			candidateIDs[e.TargetID] = true
		}
		if resolvedSet[e.TargetID] {
			candidateIDs[e.SourceID] = true
		}
	}
	if len(candidateIDs) == 0 {
		return nil, 0
	}

	idList := make([]uuid.UUID, 0, len(candidateIDs))
	for id := range candidateIDs {
		idList = append(idList, id)
	}
	entities, err := r.store.Entities.GetByIDs(dbc, idList)
	if err != nil {
		return nil, 0
	}
	outcomeEntities := make(map[uuid.UUID]*types.Entity)
	for _, e := range entities {
		if e.EntityType != nil && *e.EntityType == string(types.EntityTypeOutcome) {
			outcomeEntities[e.ID] = e
		}
	}
	if len(outcomeEntities) == 0 {
		return nil, 0
	}

	agg := make(map[uuid.UUID]*OutcomeProjection)
	var total int64
	for _, e := range edges {
		var outcomeID uuid.UUID
		switch {
		case resolvedSet[e.SourceID] && outcomeEntities[e.TargetID] != nil:
			outcomeID = e.TargetID
		case resolvedSet[e.TargetID] && outcomeEntities[e.SourceID] != nil:
			outcomeID = e.SourceID
		default:
			continue
		}
		proj, ok := agg[outcomeID]
		if !ok {
			proj = &OutcomeProjection{EntityID: outcomeID, Name: outcomeEntities[outcomeID].Name}
			agg[outcomeID] = proj
		}
		proj.Weight += e.Weight
		proj.PositiveOutcomes += e.PositiveOutcomes
		proj.NegativeOutcomes += e.NegativeOutcomes
		proj.MixedOutcomes += e.MixedOutcomes
		proj.ContributorCount += e.ContributorCount
		total += e.Weight
	}

	out := make([]OutcomeProjection, 0, len(agg))
	for _, proj := range agg {
		if total > 0 {
			proj.Probability = float64(proj.Weight) / float64(total)
		}
		out = append(out, *proj)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Name < out[j].Name
	})
	return out, total
}

// findDifferentiatorsFromStructure ranks context/constraint/strategy
// entities that co-occur with the resolved set by how far the positive rate
// of each candidate's own forward outcome edges sits from the baseline
// positive rate.
func (r *Reasoner) findDifferentiatorsFromStructure(dbc dbctx.Context, ids []uuid.UUID) []Differentiator {
	pairs, err := r.store.Cooccurrences.ListInvolving(dbc, ids)
	if err != nil || len(pairs) == 0 {
		return nil
	}
	resolvedSet := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		resolvedSet[id] = true
	}

	type candidate struct {
		id    uuid.UUID
		count int64
	}
	byID := make(map[uuid.UUID]*candidate)
	for _, p := range pairs {
		var other uuid.UUID
		switch {
		case resolvedSet[p.IDA] && !resolvedSet[p.IDB]:
			other = p.IDB
		case resolvedSet[p.IDB] && !resolvedSet[p.IDA]:
			other = p.IDA
		default:
			continue
		}
		c, ok := byID[other]
		if !ok {
			c = &candidate{id: other}
			byID[other] = c
		}
		c.count += p.Count
	}
	if len(byID) == 0 {
		return nil
	}

	candidates := make([]*candidate, 0, len(byID))
	for _, c := range byID {
		candidates = append(candidates, c)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].count > candidates[j].count })
	if len(candidates) > cooccurrenceTopN {
		candidates = candidates[:cooccurrenceTopN]
	}

	candidateIDs := make([]uuid.UUID, 0, len(candidates))
	for _, c := range candidates {
		candidateIDs = append(candidateIDs, c.id)
	}
	entities, err := r.store.Entities.GetByIDs(dbc, candidateIDs)
	if err != nil {
		return nil
	}
	entityByID := make(map[uuid.UUID]*types.Entity, len(entities))
	for _, e := range entities {
		entityByID[e.ID] = e
	}

	var out []Differentiator
	for _, c := range candidates {
		ent := entityByID[c.id]
		if ent == nil || ent.EntityType == nil {
			continue
		}
		role := *ent.EntityType
		if role != string(types.EntityTypeContext) && role != string(types.EntityTypeConstraint) && role != string(types.EntityTypeStrategy) {
			continue
		}

		withEdges, err := r.store.Edges.ListBySource(dbc, c.id)
		if err != nil || len(withEdges) == 0 {
			continue
		}
		var positive, observed int64
		for _, e := range withEdges {
			if e.PositiveOutcomes+e.NegativeOutcomes+e.MixedOutcomes == 0 {
				continue
			}
			positive += e.PositiveOutcomes
			observed += e.PositiveOutcomes + e.NegativeOutcomes
		}
		if observed == 0 {
			continue
		}
		positiveRate := float64(positive) / float64(observed)
		magnitude := positiveRate - withoutEntityBaseline
		absMagnitude := magnitude
		if absMagnitude < 0 {
			absMagnitude = -absMagnitude
		}
		if absMagnitude <= minMagnitude {
			continue
		}

		effect := EffectMixed
		switch {
		case positiveRate >= improvesThreshold:
			effect = EffectImproves
		case positiveRate <= reducesThreshold:
			effect = EffectReduces
		}

		out = append(out, Differentiator{
			EntityID:             c.id,
			Name:                 ent.Name,
			Role:                 role,
			Effect:               effect,
			Magnitude:            absMagnitude,
			CooccurrenceStrength: c.count,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Magnitude > out[j].Magnitude })
	if len(out) > differentiatorTopN {
		out = out[:differentiatorTopN]
	}
	return out
}

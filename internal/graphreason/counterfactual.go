package graphreason

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

const (
	uncertainMinObservations = 5
	netEffectMagnitudeFloor  = 0.05
)

var positiveOutcomeMarkers = []string{
	"improve", "increase", "gain", "success", "correct", "master", "reduce error", "accuracy",
}

var negativeOutcomeMarkers = []string{
	"decline", "decrease", "regress", "confusion", "failure", "incorrect", "frustration",
}

// Counterfactual compares outcome projections for a situation before and
// after swapping one entity for another, e.g. "what if the strategy had
// been X instead of Y".
func (r *Reasoner) Counterfactual(ctx context.Context, inputs []EntityRef, change Change) CounterfactualResult {
	base := r.Simulate(ctx, inputs)

	altInputs := make([]EntityRef, 0, len(inputs)+1)
	swapped := false
	fromName := strings.ToLower(strings.TrimSpace(change.From.Name))
	for _, in := range inputs {
		if !swapped && strings.ToLower(strings.TrimSpace(in.Name)) == fromName &&
			(change.From.Type == "" || in.Type == change.From.Type) {
			altInputs = append(altInputs, change.To)
			swapped = true
			continue
		}
		altInputs = append(altInputs, in)
	}
	if !swapped {
		altInputs = append(altInputs, change.To)
	}

	alt := r.Simulate(ctx, altInputs)

	comparison := compareOutcomes(base, alt, change)
	return CounterfactualResult{Base: base, Alternative: alt, Comparison: comparison}
}

func compareOutcomes(base, alt SimulationResult, change Change) Comparison {
	baseByName := make(map[string]OutcomeProjection, len(base.Outcomes))
	for _, o := range base.Outcomes {
		baseByName[o.Name] = o
	}
	altByName := make(map[string]OutcomeProjection, len(alt.Outcomes))
	for _, o := range alt.Outcomes {
		altByName[o.Name] = o
	}

	names := make(map[string]bool)
	for name := range baseByName {
		names[name] = true
	}
	for name := range altByName {
		names[name] = true
	}

	shifts := make([]OutcomeShift, 0, len(names))
	for name := range names {
		baseProb := baseByName[name].Probability
		altProb := altByName[name].Probability
		shifts = append(shifts, OutcomeShift{
			Name:     name,
			BaseProb: baseProb,
			AltProb:  altProb,
			Delta:    altProb - baseProb,
		})
	}
	sort.Slice(shifts, func(i, j int) bool { return absF(shifts[i].Delta) > absF(shifts[j].Delta) })

	minObservations := base.TotalObservations
	if alt.TotalObservations < minObservations {
		minObservations = alt.TotalObservations
	}

	netEffect := classifyNetEffect(shifts, minObservations)
	recommendation := buildRecommendation(shifts, netEffect, change)

	return Comparison{OutcomeShifts: shifts, NetEffect: netEffect, Recommendation: recommendation}
}

func classifyNetEffect(shifts []OutcomeShift, minObservations int64) NetEffect {
	if minObservations < uncertainMinObservations {
		return NetEffectUncertain
	}
	if len(shifts) == 0 {
		return NetEffectUncertain
	}

	var score float64
	for _, s := range shifts {
		if absF(s.Delta) <= netEffectMagnitudeFloor {
			continue
		}
		sign := outcomeSign(s.Name)
		score += sign * s.Delta
	}

	switch {
	case score > netEffectMagnitudeFloor:
		return NetEffectPositive
	case score < -netEffectMagnitudeFloor:
		return NetEffectNegative
	default:
		return NetEffectNeutral
	}
}

// outcomeSign gives a +1/-1/0 lexical polarity to an outcome name so a
// probability increase can be read as good or bad news depending on what
// the outcome itself describes. Negative markers are checked first because
// some positive markers are substrings of negative ones ("increase" in
// "decrease", "correct" in "incorrect").
func outcomeSign(name string) float64 {
	lower := strings.ToLower(name)
	for _, marker := range negativeOutcomeMarkers {
		if strings.Contains(lower, marker) {
			return -1
		}
	}
	for _, marker := range positiveOutcomeMarkers {
		if strings.Contains(lower, marker) {
			return 1
		}
	}
	return 0
}

func buildRecommendation(shifts []OutcomeShift, netEffect NetEffect, change Change) string {
	switch netEffect {
	case NetEffectUncertain:
		return fmt.Sprintf("Not enough observed trajectories to judge the effect of %q over %q.", change.To.Name, change.From.Name)
	case NetEffectPositive:
		if len(shifts) > 0 {
			return fmt.Sprintf("%q appears more favorable than %q, most notably shifting %q by %.2f.", change.To.Name, change.From.Name, shifts[0].Name, shifts[0].Delta)
		}
		return fmt.Sprintf("%q appears more favorable than %q.", change.To.Name, change.From.Name)
	case NetEffectNegative:
		if len(shifts) > 0 {
			return fmt.Sprintf("%q appears less favorable than %q, most notably shifting %q by %.2f.", change.To.Name, change.From.Name, shifts[0].Name, shifts[0].Delta)
		}
		return fmt.Sprintf("%q appears less favorable than %q.", change.To.Name, change.From.Name)
	default:
		return fmt.Sprintf("%q and %q show no clear difference in observed outcomes.", change.To.Name, change.From.Name)
	}
}

func absF(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

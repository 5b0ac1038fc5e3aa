// Package graphreason runs structural inference over the current graph
// state. Every function here is a pure read: it never appends an Event
// and never mutates a counter.
package graphreason

import "github.com/google/uuid"

// EntityRef is one input element to Resolve/Simulate/Counterfactual: a
// bare name, optionally qualified with the entity type the caller expects.
type EntityRef struct {
	Name string
	Type string
}

// ResolvedEntity is a name successfully bound to a global entity id.
type ResolvedEntity struct {
	ID   uuid.UUID
	Name string
	Type string
}

type ResolveResult struct {
	Resolved   []ResolvedEntity
	Unresolved []string
}

type OutcomeProjection struct {
	EntityID         uuid.UUID
	Name             string
	Weight           int64
	PositiveOutcomes int64
	NegativeOutcomes int64
	MixedOutcomes    int64
	ContributorCount int64
	Probability      float64
}

type Effect string

const (
	EffectImproves Effect = "improves"
	EffectReduces  Effect = "reduces"
	EffectMixed    Effect = "mixed"
)

type Differentiator struct {
	EntityID              uuid.UUID
	Name                  string
	Role                  string
	Effect                Effect
	Magnitude             float64
	CooccurrenceStrength  int64
}

type SimulationResult struct {
	Resolved            []ResolvedEntity
	Unresolved          []string
	Outcomes            []OutcomeProjection
	Differentiators     []Differentiator
	TotalObservations   int64
	OutcomeCount        int
	HasPatterns         bool
}

type OutcomeShift struct {
	Name      string
	BaseProb  float64
	AltProb   float64
	Delta     float64
}

type NetEffect string

const (
	NetEffectPositive  NetEffect = "positive"
	NetEffectNegative  NetEffect = "negative"
	NetEffectNeutral   NetEffect = "neutral"
	NetEffectUncertain NetEffect = "uncertain"
)

type Comparison struct {
	OutcomeShifts []OutcomeShift
	NetEffect     NetEffect
	Recommendation string
}

type CounterfactualResult struct {
	Base           SimulationResult
	Alternative    SimulationResult
	Comparison     Comparison
}

type Change struct {
	From EntityRef
	To   EntityRef
}

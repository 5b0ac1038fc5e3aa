package graphreason

import (
	"fmt"
	"strings"
)

// FormatForAI renders a simulation as plain text meant to be folded into an
// LLM prompt. It is a pure function of its input so the same SimulationResult
// always produces the same string.
func FormatForAI(sim SimulationResult) string {
	var b strings.Builder

	b.WriteString("Situation involves: ")
	if len(sim.Resolved) == 0 {
		b.WriteString("no known entities")
	} else {
		names := make([]string, len(sim.Resolved))
		for i, e := range sim.Resolved {
			names[i] = e.Name
		}
		b.WriteString(strings.Join(names, ", "))
	}
	b.WriteString(".\n")

	if len(sim.Unresolved) > 0 {
		fmt.Fprintf(&b, "Not previously seen: %s.\n", strings.Join(sim.Unresolved, ", "))
	}

	b.WriteString("\nObserved outcomes from similar situations:\n")
	if !sim.HasPatterns || len(sim.Outcomes) == 0 {
		b.WriteString("No prior trajectories have touched enough of this combination to project outcomes.\n")
	} else {
		for _, o := range sim.Outcomes {
			fmt.Fprintf(&b, "- %s: seen %d times, %.0f%% positive\n", o.Name, o.Weight, o.Probability*100)
		}
	}

	b.WriteString("\nFactors that may influence outcomes:\n")
	if len(sim.Differentiators) == 0 {
		b.WriteString("No differentiating factors found in the graph yet.\n")
	} else {
		for _, d := range sim.Differentiators {
			fmt.Fprintf(&b, "- %s (%s) %s outcomes, magnitude %.2f\n", d.Name, d.Role, d.Effect, d.Magnitude)
		}
	}

	if sim.TotalObservations < uncertainMinObservations {
		b.WriteString("\nNote: this graph has limited data on this combination; treat projections as low-confidence.\n")
	}

	return b.String()
}

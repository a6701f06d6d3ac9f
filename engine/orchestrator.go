package engine

import "sort"

// Evaluation is the output of one EvaluateAll call.
type Evaluation struct {
	Modeled ModeledSpend
	Results []ProgramResult
}

// Orchestrator runs the spend model once and every registered program against it.
type Orchestrator struct {
	Assumptions AssumptionTable
	Registry    *Registry
}

// NewOrchestrator creates an orchestrator over a table and registry.
func NewOrchestrator(table AssumptionTable, registry *Registry) *Orchestrator {
	return &Orchestrator{Assumptions: table, Registry: registry}
}

// EvaluateAll models spend exactly once, evaluates every program with that
// single ModeledSpend, and ranks results by cash back descending.
// Ties keep registration order.
func (o *Orchestrator) EvaluateAll(input FarmInput) Evaluation {
	modeled := ModelSpend(o.Assumptions, input)

	evs := o.Registry.Evaluators()
	results := make([]ProgramResult, 0, len(evs))
	for _, e := range evs {
		results = append(results, e.Evaluate(modeled, input))
	}

	return Evaluation{Modeled: modeled, Results: Rank(results)}
}

// Rank returns a copy of results sorted by EstimatedCashback descending.
func Rank(results []ProgramResult) []ProgramResult {
	ranked := make([]ProgramResult, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].EstimatedCashback > ranked[j].EstimatedCashback
	})
	return ranked
}

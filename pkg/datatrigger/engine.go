// Copyright 2025 Certen Protocol
//
// Engine is the resolved, per-protocol-version set of bindings (spec.md
// §4.6: "Resolved statically per protocol version"). It is built once
// from a Registry-selected table and never mutated.

package datatrigger

// Engine holds every binding active for one protocol version.
type Engine struct {
	bindings []Binding
}

// NewEngine builds an Engine from a literal binding list.
func NewEngine(bindings []Binding) *Engine {
	return &Engine{bindings: append([]Binding{}, bindings...)}
}

// Run executes every binding matching action's (contract, type, kind),
// accumulating errors across all of them rather than stopping at the
// first match (spec.md §4.6: "Results accumulate DataTriggerActionErrors").
func (e *Engine) Run(action Action, ctx Context) Result {
	var combined Result
	for _, b := range e.bindings {
		if !b.Matches(action.ContractID, action.DocumentType, action.Kind) {
			continue
		}
		res := b.Execute(action, ctx)
		combined.Errors = append(combined.Errors, res.Errors...)
	}
	return combined
}

// Copyright 2025 Certen Protocol
//
// Package datatrigger implements the Data Trigger Engine (DTE) described
// in spec.md §4.6: per (contract, document-type, action) bindings that
// may add extra consensus errors. Bindings never mutate state; all side
// effects happen via the Action that already produced them.
//
// Grounded on the original reject_data_trigger_v0 binding: a trigger is a
// pure function of the prospective action plus read-only context,
// returning accumulated errors rather than stopping at the first one.

package datatrigger

import "github.com/driveplatform/core/pkg/schema"

// ActionKind identifies the document transition action a binding matches
// against (spec.md §4.5: DocumentTransitionAction variants).
type ActionKind int

const (
	ActionCreate ActionKind = iota
	ActionReplace
	ActionDelete
)

// Action is the minimal view of a document transition a trigger needs:
// enough to identify what happened without giving it write access.
type Action struct {
	ContractID   schema.Identifier
	DocumentType string
	DocumentID   schema.Identifier
	Kind         ActionKind
	Values       map[string]interface{}
}

// Context carries the read-only state a trigger may consult.
type Context struct {
	Contract    *schema.DataContract
	OwnerID     schema.Identifier
	BlockHeight uint64
}

// ActionError is one error accumulated by a trigger execution.
type ActionError struct {
	ContractID schema.Identifier
	DocumentID schema.Identifier
	Message    string
}

func (e *ActionError) Error() string { return e.Message }

// Result accumulates every ActionError a binding's execution produced.
// An empty Result means the action is accepted.
type Result struct {
	Errors []*ActionError
}

// Accept returns true when Result carries no errors.
func (r Result) Accept() bool { return len(r.Errors) == 0 }

// Binding is a pure function bound to a specific (contract, document
// type, action) triple.
type Binding struct {
	ContractID   schema.Identifier
	DocumentType string
	Kind         ActionKind
	Execute      func(action Action, ctx Context) Result
}

// Matches reports whether b applies to the given (contract, type, kind).
func (b Binding) Matches(contractID schema.Identifier, docType string, kind ActionKind) bool {
	return b.ContractID == contractID && b.DocumentType == docType && b.Kind == kind
}

// Reject is the default binding DTE falls back to for an explicitly
// forbidden (contract, type, action) triple (spec.md §4.6).
func Reject(contractID schema.Identifier, docType string, kind ActionKind) Binding {
	return Binding{
		ContractID:   contractID,
		DocumentType: docType,
		Kind:         kind,
		Execute: func(action Action, ctx Context) Result {
			return Result{Errors: []*ActionError{{
				ContractID: action.ContractID,
				DocumentID: action.DocumentID,
				Message:    "action is not allowed",
			}}}
		},
	}
}

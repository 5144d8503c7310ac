// Copyright 2025 Certen Protocol
//
// Package statetransition implements the State-Transition Validator/
// Executor (STE) described in spec.md §4.5: per-variant structural,
// signature, and state validation, action lowering, data-trigger
// evaluation, SE batching, fee accounting, and apply — grounded on the
// teacher's verification.UnifiedVerifier staged-pipeline shape (a
// config-gated sequence of per-level checks accumulating into one
// result) generalized from 4-level proof-cycle verification to the
// 8-step transition pipeline, and on batch.Processor's config+mutex
// wiring for the top-level engine.

package statetransition

import (
	"errors"
	"fmt"
)

var ErrUnknownActionKind = errors.New("statetransition: unknown document action kind")

// Stage names the STE pipeline step a ConsensusError originated from.
type Stage string

const (
	StageStructural Stage = "BasicError"
	StageSignature  Stage = "SignatureError"
	StageState      Stage = "StateError"
	StageFee        Stage = "FeeError"
)

// ConsensusError is the uniform error type returned by any pipeline
// step; BD records it against the offending transition without
// aborting the block (spec.md §4.5: "any error from steps 1-7 rejects
// only that transition").
type ConsensusError struct {
	Stage   Stage
	Message string
}

func (e *ConsensusError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

func BasicError(format string, args ...interface{}) *ConsensusError {
	return &ConsensusError{Stage: StageStructural, Message: fmt.Sprintf(format, args...)}
}

func SignatureError(format string, args ...interface{}) *ConsensusError {
	return &ConsensusError{Stage: StageSignature, Message: fmt.Sprintf(format, args...)}
}

func StateError(format string, args ...interface{}) *ConsensusError {
	return &ConsensusError{Stage: StageState, Message: fmt.Sprintf(format, args...)}
}

// FeeError reports a rejection rooted in balance/fee accounting —
// BalanceIsNotEnough and its kin (spec.md scenario: "Withdrawal
// insufficient balance ... rejected with FeeError::BalanceIsNotEnough").
func FeeError(format string, args ...interface{}) *ConsensusError {
	return &ConsensusError{Stage: StageFee, Message: fmt.Sprintf(format, args...)}
}

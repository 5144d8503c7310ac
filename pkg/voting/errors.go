// Copyright 2025 Certen Protocol
//
// Package voting implements the Voting Subsystem (VS) described in
// spec.md §4.7: contested-resource vote polls backed by prefunded
// specialized balances. Grounded on the teacher's attestation.Service
// shape (mutex-free here since state lives in the AS transaction: a
// bundle of participants collected against a required threshold, with a
// status/cleanup pass run on a schedule) generalized from off-chain HTTP
// attestation gathering to on-chain contested-index voting.

package voting

import "errors"

var (
	ErrPollNotFound     = errors.New("voting: vote poll not found")
	ErrPollClosed       = errors.New("voting: vote poll has already ended")
	ErrPollNotEnded     = errors.New("voting: vote poll has not reached its end height")
	ErrNoContenders     = errors.New("voting: poll has no contenders to resolve")
)

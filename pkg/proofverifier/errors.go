// Copyright 2025 Certen Protocol

package proofverifier

import "fmt"

// Kind names the class of proof failure, matching the error taxonomy a
// light client dispatches on (spec.md §4.9).
type Kind string

const (
	KindDocumentMissingInProof Kind = "DocumentMissingInProof"
	KindEmptyResponseProof     Kind = "EmptyResponseProof"
	KindInvalidSignature       Kind = "InvalidSignature"
	KindInvalidQuorum          Kind = "InvalidQuorum"
)

// VerificationError is the uniform error type Verify returns; callers
// dispatch on Kind rather than string-matching Error().
type VerificationError struct {
	Kind    Kind
	Message string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("proofverifier: %s: %s", e.Kind, e.Message)
}

func documentMissing(format string, args ...interface{}) *VerificationError {
	return &VerificationError{Kind: KindDocumentMissingInProof, Message: fmt.Sprintf(format, args...)}
}

func emptyResponse(format string, args ...interface{}) *VerificationError {
	return &VerificationError{Kind: KindEmptyResponseProof, Message: fmt.Sprintf(format, args...)}
}

func invalidSignature(format string, args ...interface{}) *VerificationError {
	return &VerificationError{Kind: KindInvalidSignature, Message: fmt.Sprintf(format, args...)}
}

func invalidQuorum(format string, args ...interface{}) *VerificationError {
	return &VerificationError{Kind: KindInvalidQuorum, Message: fmt.Sprintf(format, args...)}
}

package model

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ValidationError reports malformed or missing fields detected before encoding.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// DecodeError reports a log or call whose shape does not match the expected layout.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode: %s: %v", e.Reason, e.Err)
	}
	return "decode: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

// RecoveryError reports an invalid recovery parameter or curve point.
type RecoveryError struct {
	Reason string
	Err    error
}

func (e *RecoveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("recover: %s: %v", e.Reason, e.Err)
	}
	return "recover: " + e.Reason
}

func (e *RecoveryError) Unwrap() error { return e.Err }

// SigningError reports a failed, unavailable or timed out key operation.
type SigningError struct {
	Signer common.Address
	Err    error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("sign %s: %v", e.Signer.Hex(), e.Err)
}

func (e *SigningError) Unwrap() error { return e.Err }

package flows

import (
	"context"
	"errors"

	"github.com/tokenward/tokenward/jwt"
)

// ValidateFailureKind classifies validation failures for root-level mapping.
type ValidateFailureKind int

const (
	ValidateFailureNone ValidateFailureKind = iota
	// ValidateFailureDecode covers malformed payloads, bad signatures, and
	// type mismatches (a refresh token where an access token is expected).
	ValidateFailureDecode
	// ValidateFailureExpired is split from decode for observability only;
	// callers surface the same client-facing outcome.
	ValidateFailureExpired
	// ValidateFailureRevoked covers epoch-revoked and denylisted tokens.
	ValidateFailureRevoked
	// ValidateFailureStore means the revocation store could not answer.
	// Never treated as "not revoked".
	ValidateFailureStore
)

// ValidateResult carries either the verified claim set or failure metadata.
type ValidateResult struct {
	Failure ValidateFailureKind
	Err     error
	Claims  *jwt.Claims
}

// ValidateDeps captures validation dependencies.
type ValidateDeps struct {
	Parse             func(string) (*jwt.Claims, error)
	IsRevoked         func(context.Context, *jwt.Claims) (bool, error)
	ExpiredErr        error
	RevocationEnabled bool
}

// RunValidate decodes a token with expiry enforced, verifies its type tag,
// and, when revocation tracking is enabled, consults the composed
// revocation check.
func RunValidate(ctx context.Context, tokenStr string, expected jwt.TokenType, deps ValidateDeps) ValidateResult {
	claims, err := deps.Parse(tokenStr)
	if err != nil {
		if deps.ExpiredErr != nil && errors.Is(err, deps.ExpiredErr) {
			return ValidateResult{Failure: ValidateFailureExpired, Err: err}
		}
		return ValidateResult{Failure: ValidateFailureDecode, Err: err}
	}
	if !claims.IsType(expected) {
		return ValidateResult{Failure: ValidateFailureDecode, Err: errTokenType}
	}

	if deps.RevocationEnabled {
		revoked, err := deps.IsRevoked(ctx, claims)
		if err != nil {
			return ValidateResult{Failure: ValidateFailureStore, Err: err}
		}
		if revoked {
			return ValidateResult{Failure: ValidateFailureRevoked}
		}
	}

	return ValidateResult{Claims: claims}
}

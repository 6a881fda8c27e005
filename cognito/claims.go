package cognito

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingClaim is returned when a required claim is missing
	ErrMissingClaim = errors.New("missing required claim")
)

// parseClaims converts Claims to ParsedClaims. Access tokens spell the
// username claim differently from ID tokens; either is accepted.
func parseClaims(claims *Claims) (*ParsedClaims, error) {
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: sub", ErrMissingClaim)
	}

	username := claims.CognitoUsername
	if username == "" {
		username = claims.Username
	}

	parsed := &ParsedClaims{
		Sub:           claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Username:      username,
		Groups:        claims.Groups,
		TokenUse:      claims.TokenUse,
	}

	if claims.IssuedAt != nil {
		parsed.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		parsed.ExpiresAt = claims.ExpiresAt.Time
	}

	return parsed, nil
}

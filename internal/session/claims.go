package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultExpirySkew is subtracted from a token's expiry when deciding
// whether it's still usable, so that a token which is valid at check-time
// doesn't expire mid-flight during the network call that follows.
const DefaultExpirySkew = 60 * time.Second

// Claims is the subset of JWT claims this client reads for UX decisions:
// the expiry and the subject identifier. Signature verification is the
// identity provider's job upstream; nothing here treats these claims as
// authoritative for authorization.
type Claims struct {
	jwt.RegisteredClaims
}

// SubjectID returns the token's subject identifier, or "" if absent.
func (c *Claims) SubjectID() string {
	return c.Subject
}

// ExpiresAtUnix returns the expiry as epoch seconds, or 0 if the token
// carries no expiry claim.
func (c *Claims) ExpiresAtUnix() int64 {
	if c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Unix()
}

// DecodeClaims reads the payload of a compact JWT without verifying its
// signature. It fails soft: malformed input, a wrong segment count, or
// invalid encoding all yield nil rather than an error.
func DecodeClaims(token string) *Claims {
	if token == "" {
		return nil
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	return claims
}

// IsExpired reports whether the given token should be considered expired,
// applying the given skew. A token with no decodable expiry is treated as
// expired.
func IsExpired(token string, skew time.Duration) bool {
	claims := DecodeClaims(token)
	if claims == nil || claims.ExpiresAt == nil {
		return true
	}
	return time.Now().After(claims.ExpiresAt.Time.Add(-skew))
}

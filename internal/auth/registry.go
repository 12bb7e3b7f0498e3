package auth

import "context"

// RevocationRegistry records revoked token ids.  Implementations must be
// safe for concurrent use and MarkRevoked must be idempotent.  An entry has
// to outlive the longest-lived token that could carry the jti.
type RevocationRegistry interface {
	MarkRevoked(ctx context.Context, jti string) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

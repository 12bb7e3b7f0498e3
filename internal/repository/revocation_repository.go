package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// StatusBlacklisted is the only status a revocation entry ever has.
const StatusBlacklisted = "blacklisted"

// RevocationEntry is the JSON value stored for a revoked jti.
type RevocationEntry struct {
	JTI       string    `json:"jti"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RevocationRepo is the Redis backed revocation registry.  Keys are
// <prefix>:<jti> and expire after ttl, which must be at least the lifetime
// of any token in circulation.
type RevocationRepo struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

func NewRevocationRepo(rdb redis.UniversalClient, prefix string, ttl time.Duration) *RevocationRepo {
	return &RevocationRepo{rdb: rdb, prefix: prefix, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

func (r *RevocationRepo) key(jti string) string { return r.prefix + ":" + jti }

// MarkRevoked records jti.  SET NX keeps the first entry, so revoking the
// same jti twice is a no-op.  It returns only after Redis acknowledged.
func (r *RevocationRepo) MarkRevoked(ctx context.Context, jti string) error {
	if jti == "" {
		return errors.New("revoke: empty jti")
	}
	now := r.now()
	payload, err := json.Marshal(RevocationEntry{JTI: jti, Status: StatusBlacklisted, CreatedAt: now, UpdatedAt: now})
	if err != nil {
		return err
	}
	if err := r.rdb.SetNX(ctx, r.key(jti), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("revoke %s: %w", jti, err)
	}
	return nil
}

// IsRevoked reports whether jti has been revoked.
func (r *RevocationRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.rdb.Exists(ctx, r.key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("revocation lookup %s: %w", jti, err)
	}
	return n > 0, nil
}

// entry returns the stored entry for jti, or ErrNotFound.
func (r *RevocationRepo) entry(ctx context.Context, jti string) (*RevocationEntry, error) {
	raw, err := r.rdb.Get(ctx, r.key(jti)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var e RevocationEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("decode revocation entry: %w", err)
	}
	return &e, nil
}

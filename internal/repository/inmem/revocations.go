package inmem

import (
	"context"
	"sync"
	"time"
)

// Revocations is an in-memory revocation registry with per-entry expiry.
type Revocations struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]time.Time // jti -> expiry
}

func NewRevocations(ttl time.Duration) *Revocations {
	return &Revocations{ttl: ttl, now: time.Now, entries: map[string]time.Time{}}
}

// MarkRevoked keeps the first expiry when the jti is already present.
func (r *Revocations) MarkRevoked(_ context.Context, jti string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if exp, ok := r.entries[jti]; ok && r.now().Before(exp) {
		return nil
	}
	r.entries[jti] = r.now().Add(r.ttl)
	return nil
}

func (r *Revocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	exp, ok := r.entries[jti]
	if !ok {
		return false, nil
	}
	if !r.now().Before(exp) {
		delete(r.entries, jti)
		return false, nil
	}
	return true, nil
}

// Len reports the number of stored entries, expired ones included.
func (r *Revocations) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

package attempts

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"authflow/internal/domain"
	"authflow/internal/store"
)

// StorageKey is the single well-known key the attempt record lives under.
// One record per client profile; failures against any identity share it.
const StorageKey = "login_attempts"

const (
	DefaultMaxAttempts     = 5
	DefaultLockoutDuration = 15 * time.Minute
)

// Tracker persists a consecutive-failure counter and computes lockout state.
//
// The lockout is advisory only: the record lives in client-controlled storage
// and the end user can clear it. It smooths over retry storms, it is not a
// security control.
type Tracker struct {
	kv          store.KV
	now         func() time.Time
	maxAttempts int
	lockout     time.Duration
	enabled     bool
}

func New(kv store.KV, maxAttempts int, lockout time.Duration, enabled bool) *Tracker {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if lockout <= 0 {
		lockout = DefaultLockoutDuration
	}
	return &Tracker{
		kv:          kv,
		now:         time.Now,
		maxAttempts: maxAttempts,
		lockout:     lockout,
		enabled:     enabled,
	}
}

// WithNow overrides the clock. Tests inject a fake clock here.
func (t *Tracker) WithNow(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// attemptWire is the persisted JSON shape; timestamp is Unix milliseconds.
type attemptWire struct {
	Count     int   `json:"count"`
	Timestamp int64 `json:"timestamp"`
}

// Get reads the current record. Missing or malformed payloads, and storage
// read failures, all fall back to a zero record stamped now; nothing here is
// fatal to a login flow.
func (t *Tracker) Get(ctx context.Context) domain.AttemptRecord {
	zero := domain.AttemptRecord{Count: 0, Timestamp: t.now()}

	raw, ok, err := t.kv.ReadString(ctx, StorageKey)
	if err != nil || !ok {
		return zero
	}

	var wire attemptWire
	if err := json.Unmarshal([]byte(raw), &wire); err != nil || wire.Count < 0 {
		return zero
	}

	return domain.AttemptRecord{
		Count:     wire.Count,
		Timestamp: time.UnixMilli(wire.Timestamp),
	}
}

// IsLocked reports whether submissions should be blocked. Once the lockout
// window has elapsed it clears the persisted record before returning false.
func (t *Tracker) IsLocked(ctx context.Context) bool {
	if !t.enabled {
		return false
	}

	rec := t.Get(ctx)
	if rec.Count < t.maxAttempts {
		return false
	}

	if t.now().Sub(rec.Timestamp) < t.lockout {
		return true
	}

	_ = t.Reset(ctx)
	return false
}

// RecordFailure increments the counter and stamps the failure time. No-op
// when rate limiting is disabled. The count keeps growing past the
// threshold; there is no cap.
func (t *Tracker) RecordFailure(ctx context.Context) error {
	if !t.enabled {
		return nil
	}

	rec := t.Get(ctx)
	wire := attemptWire{
		Count:     rec.Count + 1,
		Timestamp: t.now().UnixMilli(),
	}

	raw, err := json.Marshal(wire)
	if err != nil {
		return err
	}
	return t.kv.WriteString(ctx, StorageKey, string(raw))
}

// Reset clears the counter and removes the persisted entry. Called on any
// successful authentication and on lockout expiry.
func (t *Tracker) Reset(ctx context.Context) error {
	return t.kv.RemoveKey(ctx, StorageKey)
}

// RemainingLockout returns how long the current lockout has left. May be
// zero or negative right at expiry; callers should recheck IsLocked rather
// than trust a non-positive remainder.
func (t *Tracker) RemainingLockout(ctx context.Context) time.Duration {
	rec := t.Get(ctx)
	return t.lockout - t.now().Sub(rec.Timestamp)
}

// RemainingLockoutMinutes is RemainingLockout rounded up to whole minutes
// for user-facing messaging. Only meaningful while locked; right at expiry
// it can be zero or negative, so callers clamp or recheck IsLocked.
func (t *Tracker) RemainingLockoutMinutes(ctx context.Context) int {
	return int(math.Ceil(t.RemainingLockout(ctx).Minutes()))
}

// MaxAttempts exposes the configured threshold for lockout messaging.
func (t *Tracker) MaxAttempts() int { return t.maxAttempts }

package store

import "context"

// KV is the durable client-side storage boundary. Values are opaque strings;
// the attempt record and the cached session are the only users.
//
// Implementations are private to one client profile. Read-then-write callers
// are not protected against concurrent processes mutating the same profile.
type KV interface {
	ReadString(ctx context.Context, key string) (value string, ok bool, err error)
	WriteString(ctx context.Context, key, value string) error
	RemoveKey(ctx context.Context, key string) error
}

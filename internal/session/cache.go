// Package session caches the provider-issued session on the client side.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"authflow/internal/domain"
	"authflow/internal/store"
)

// Mode controls where a session survives to. Mirrors the provider SDK's
// persistence setting.
type Mode string

const (
	// ModeNone discards the session as soon as the flow returns it.
	ModeNone Mode = "none"
	// ModeMemory keeps the session for the process lifetime only.
	ModeMemory Mode = "memory"
	// ModeLocal persists the session to profile storage, sealed at rest.
	ModeLocal Mode = "local"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeNone, ModeMemory, ModeLocal:
		return Mode(s), nil
	case "":
		return ModeLocal, nil
	}
	return "", fmt.Errorf("session persistence: must be one of none, memory, local")
}

const (
	sessionKey = "session"
	sealKeyKey = "session_seal_key"
)

// Cache stores at most one session. Local persistence seals the payload with
// a per-install random key; that keeps tokens out of casual file greps, it
// is not a defense against an attacker who owns the profile directory.
type Cache struct {
	kv   store.KV
	mode Mode
	mem  *domain.Session
}

func NewCache(kv store.KV, mode Mode) *Cache {
	if mode == "" {
		mode = ModeLocal
	}
	return &Cache{kv: kv, mode: mode}
}

// SetMode switches persistence for subsequent saves. Downgrading from local
// removes anything already on disk.
func (c *Cache) SetMode(ctx context.Context, mode Mode) error {
	if mode == c.mode {
		return nil
	}
	if c.mode == ModeLocal {
		if err := c.kv.RemoveKey(ctx, sessionKey); err != nil {
			return err
		}
	}
	c.mode = mode
	return nil
}

func (c *Cache) Save(ctx context.Context, sess domain.Session) error {
	switch c.mode {
	case ModeNone:
		return nil
	case ModeMemory:
		held := sess
		c.mem = &held
		return nil
	}

	held := sess
	c.mem = &held

	plain, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	sealed, err := c.seal(ctx, plain)
	if err != nil {
		return err
	}
	return c.kv.WriteString(ctx, sessionKey, sealed)
}

func (c *Cache) Load(ctx context.Context) (domain.Session, error) {
	if c.mem != nil {
		return *c.mem, nil
	}
	if c.mode != ModeLocal {
		return domain.Session{}, domain.ErrNoSession
	}

	raw, ok, err := c.kv.ReadString(ctx, sessionKey)
	if err != nil {
		return domain.Session{}, fmt.Errorf("read session: %w", err)
	}
	if !ok {
		return domain.Session{}, domain.ErrNoSession
	}

	plain, err := c.open(ctx, raw)
	if err != nil {
		// A session that fails to unseal is treated as absent, the same
		// way a malformed attempt record is.
		return domain.Session{}, domain.ErrNoSession
	}

	var sess domain.Session
	if err := json.Unmarshal(plain, &sess); err != nil {
		return domain.Session{}, domain.ErrNoSession
	}

	held := sess
	c.mem = &held
	return sess, nil
}

func (c *Cache) Clear(ctx context.Context) error {
	c.mem = nil
	return c.kv.RemoveKey(ctx, sessionKey)
}

func (c *Cache) seal(ctx context.Context, plain []byte) (string, error) {
	key, err := c.sealInstallKey(ctx)
	if err != nil {
		return "", err
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", fmt.Errorf("init seal: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}

	out := aead.Seal(nonce, nonce, plain, nil)
	return base64.RawStdEncoding.EncodeToString(out), nil
}

func (c *Cache) open(ctx context.Context, sealed string) ([]byte, error) {
	key, err := c.sealInstallKey(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := base64.RawStdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init seal: %w", err)
	}
	if len(raw) < aead.NonceSize() {
		return nil, fmt.Errorf("sealed session too short")
	}

	nonce, box := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, box, nil)
	if err != nil {
		return nil, fmt.Errorf("unseal session: %w", err)
	}
	return plain, nil
}

// sealInstallKey returns the per-install sealing key, generating one on
// first use.
func (c *Cache) sealInstallKey(ctx context.Context) ([]byte, error) {
	raw, ok, err := c.kv.ReadString(ctx, sealKeyKey)
	if err != nil {
		return nil, fmt.Errorf("read seal key: %w", err)
	}
	if ok {
		key, err := hex.DecodeString(raw)
		if err == nil && len(key) == chacha20poly1305.KeySize {
			return key, nil
		}
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate seal key: %w", err)
	}
	if err := c.kv.WriteString(ctx, sealKeyKey, hex.EncodeToString(key)); err != nil {
		return nil, err
	}
	return key, nil
}

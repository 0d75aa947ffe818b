// Package sealed encrypts the values of another key/value backend at rest.
//
// Values are sealed with XChaCha20-Poly1305 under a key derived from the
// configured secret with HKDF-SHA256. The persisted key name is bound as
// associated data, so a value copied under another key fails to open.
package sealed

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"dreamfront/internal/domain"
)

const version byte = 1

var info = []byte("dreamfront sealed store v1")

// ErrCorrupt is returned when a stored value cannot be opened.
var ErrCorrupt = errors.New("sealed value corrupt")

var _ domain.KVBackend = (*Backend)(nil)

// Backend wraps another backend.
type Backend struct {
	next domain.KVBackend
	aead cipher.AEAD
}

// Wrap derives the sealing key from secret and wraps next.
func Wrap(next domain.KVBackend, secret []byte) (*Backend, error) {
	if len(secret) == 0 {
		return nil, errors.New("sealed: empty secret")
	}
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, info), key); err != nil {
		return nil, fmt.Errorf("sealed: derive key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("sealed: %w", err)
	}
	return &Backend{next: next, aead: aead}, nil
}

// Get opens the value stored under key.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, ok, err := b.next.Get(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}
	plain, err := b.open(key, raw)
	if err != nil {
		return nil, false, err
	}
	return plain, true, nil
}

// Set seals value and stores it under key.
func (b *Backend) Set(ctx context.Context, key string, value []byte) error {
	nonce := make([]byte, b.aead.NonceSize(), 1+b.aead.NonceSize()+len(value)+b.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("sealed: nonce: %w", err)
	}
	out := append([]byte{version}, nonce...)
	out = b.aead.Seal(out, nonce, value, []byte(key))
	return b.next.Set(ctx, key, out)
}

// Delete removes key.
func (b *Backend) Delete(ctx context.Context, key string) error {
	return b.next.Delete(ctx, key)
}

// Clear removes every key.
func (b *Backend) Clear(ctx context.Context) error {
	return b.next.Clear(ctx)
}

func (b *Backend) open(key string, raw []byte) ([]byte, error) {
	ns := b.aead.NonceSize()
	if len(raw) < 1+ns+b.aead.Overhead() || raw[0] != version {
		return nil, fmt.Errorf("%w: %q", ErrCorrupt, key)
	}
	plain, err := b.aead.Open(nil, raw[1:1+ns], raw[1+ns:], []byte(key))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrCorrupt, key)
	}
	return plain, nil
}

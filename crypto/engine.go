// Package crypto implements the seal/open pipeline: AES-256-GCM under a
// per-pair session key, with the routing context bound into the
// authenticated data. Both directions of a conversation share one key,
// which stands in for the key exchange a real second party would perform.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"cipher-relay/domain"
	"cipher-relay/errors"
)

const (
	KeySize   = 32
	NonceSize = 12
	TagSize   = 16

	DefaultMaxPlaintext = 64 * 1024
)

// Engine is stateless apart from its root key and is safe for concurrent
// use; crypto/rand supplies the per-call nonces.
type Engine struct {
	root         []byte
	maxPlaintext int
}

func NewEngine(rootKey []byte, maxPlaintext int) (*Engine, error) {
	if len(rootKey) != KeySize {
		return nil, fmt.Errorf("root key must be %d bytes, got %d", KeySize, len(rootKey))
	}
	if maxPlaintext <= 0 {
		maxPlaintext = DefaultMaxPlaintext
	}
	return &Engine{root: rootKey, maxPlaintext: maxPlaintext}, nil
}

// RandomRootKey draws a fresh process root key.
func RandomRootKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("reading root key entropy: %w", err)
	}
	return key, nil
}

// Seal encrypts plaintext for the given routing pair. The blob layout is
// nonce || tag || ciphertext. Two seals of the same plaintext never produce
// the same blob.
func (e *Engine) Seal(plaintext string, ctx domain.Context) (domain.SealResult, error) {
	if len(plaintext) > e.maxPlaintext {
		return domain.SealResult{}, errors.ErrMessageTooLong
	}
	aead, err := e.pairAEAD(ctx.Sender, ctx.Recipient)
	if err != nil {
		return domain.SealResult{}, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return domain.SealResult{}, fmt.Errorf("reading nonce entropy: %w", err)
	}

	// gcm.Seal appends the tag after the ciphertext; reorder to the
	// nonce || tag || ct wire layout.
	sealed := aead.Seal(nil, nonce, []byte(plaintext), ctx.AssociatedData())
	ctLen := len(sealed) - TagSize
	blob := make([]byte, 0, NonceSize+len(sealed))
	blob = append(blob, nonce...)
	blob = append(blob, sealed[ctLen:]...)
	blob = append(blob, sealed[:ctLen]...)

	return domain.SealResult{Ciphertext: blob, Context: ctx}, nil
}

// Open verifies and decrypts a sealed blob. It is a pure function of its
// input: the same blob always opens the same way, and any alteration of the
// nonce, tag, ciphertext or claimed context yields an IntegrityFailure.
func (e *Engine) Open(result domain.SealResult) domain.OpenResult {
	blob := result.Ciphertext
	if len(blob) < NonceSize+TagSize {
		return domain.IntegrityFailure{Reason: "ciphertext truncated or malformed"}
	}
	aead, err := e.pairAEAD(result.Context.Sender, result.Context.Recipient)
	if err != nil {
		return domain.IntegrityFailure{Reason: err.Error()}
	}

	nonce := blob[:NonceSize]
	tag := blob[NonceSize : NonceSize+TagSize]
	ct := blob[NonceSize+TagSize:]

	sealed := make([]byte, 0, len(ct)+TagSize)
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)

	plaintext, err := aead.Open(nil, nonce, sealed, result.Context.AssociatedData())
	if err != nil {
		return domain.IntegrityFailure{Reason: "authentication tag mismatch: data tampered"}
	}
	return domain.Opened{Plaintext: string(plaintext)}
}

// KeySnippet exposes a short base64 prefix of the pair's session key for the
// messenger page, never the key itself.
func (e *Engine) KeySnippet(a, b string) string {
	key := e.pairKey(a, b)
	return base64.StdEncoding.EncodeToString(key)[:10] + "..."
}

func (e *Engine) pairAEAD(sender, recipient string) (cipher.AEAD, error) {
	block, err := aes.NewCipher(e.pairKey(sender, recipient))
	if err != nil {
		return nil, fmt.Errorf("building pair cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// pairKey derives the shared session key for an unordered pair, so Alice→Bob
// and Bob→Alice encrypt under the same key.
func (e *Engine) pairKey(a, b string) []byte {
	lo, hi := a, b
	if hi < lo {
		lo, hi = hi, lo
	}
	r := hkdf.New(sha256.New, e.root, nil, []byte("session:"+lo+"|"+hi))
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		// HKDF cannot fail before its output limit; keep the invariant loud.
		panic(err)
	}
	return key
}

package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"cipher-relay/domain"
	"cipher-relay/errors"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	key, err := RandomRootKey()
	require.NoError(t, err)
	engine, err := NewEngine(key, 0)
	require.NoError(t, err)
	return engine
}

func TestEngine_Seal_Open_RoundTrip(t *testing.T) {
	req := require.New(t)
	engine := newTestEngine(t)
	ctx := domain.Context{Sender: "Alice", Recipient: "Bob"}

	// When a plaintext is sealed and opened by the same engine
	sealed, err := engine.Seal("hello", ctx)
	req.NoError(err)
	result := engine.Open(sealed)

	// Then the original plaintext comes back
	opened, ok := result.(domain.Opened)
	req.True(ok, "expected Opened, got %#v", result)
	req.Equal("hello", opened.Plaintext)
}

func TestEngine_Seal_FreshNonceEachCall(t *testing.T) {
	req := require.New(t)
	engine := newTestEngine(t)
	ctx := domain.Context{Sender: "Alice", Recipient: "Bob"}

	// When the same plaintext is sealed twice
	first, err := engine.Seal("hello", ctx)
	req.NoError(err)
	second, err := engine.Seal("hello", ctx)
	req.NoError(err)

	// Then the blobs differ
	req.NotEqual(first.Ciphertext, second.Ciphertext)
}

func TestEngine_Open_TamperedByte(t *testing.T) {
	req := require.New(t)
	engine := newTestEngine(t)
	ctx := domain.Context{Sender: "Alice", Recipient: "Bob"}

	sealed, err := engine.Seal("hello", ctx)
	req.NoError(err)

	// When any single byte of the blob is flipped
	for i := range sealed.Ciphertext {
		tampered := make([]byte, len(sealed.Ciphertext))
		copy(tampered, sealed.Ciphertext)
		tampered[i] ^= 0x01

		result := engine.Open(domain.SealResult{Ciphertext: tampered, Context: ctx})

		// Then opening reports an integrity failure, never wrong plaintext
		_, failed := result.(domain.IntegrityFailure)
		req.True(failed, "byte %d: expected IntegrityFailure, got %#v", i, result)
	}
}

func TestEngine_Open_Truncated(t *testing.T) {
	req := require.New(t)
	engine := newTestEngine(t)
	ctx := domain.Context{Sender: "Alice", Recipient: "Bob"}

	sealed, err := engine.Seal("hello", ctx)
	req.NoError(err)

	for _, blob := range [][]byte{nil, {}, sealed.Ciphertext[:10], sealed.Ciphertext[:NonceSize+TagSize-1]} {
		result := engine.Open(domain.SealResult{Ciphertext: blob, Context: ctx})
		_, failed := result.(domain.IntegrityFailure)
		req.True(failed, "len %d: expected IntegrityFailure", len(blob))
	}
}

func TestEngine_Open_WrongContext(t *testing.T) {
	req := require.New(t)
	engine := newTestEngine(t)

	// Given a blob sealed for Alice→Bob
	sealed, err := engine.Seal("hello", domain.Context{Sender: "Alice", Recipient: "Bob"})
	req.NoError(err)

	// When it is opened under a different claimed pair
	result := engine.Open(domain.SealResult{
		Ciphertext: sealed.Ciphertext,
		Context:    domain.Context{Sender: "Alice", Recipient: "Carol"},
	})

	// Then the routing binding makes authentication fail
	_, failed := result.(domain.IntegrityFailure)
	req.True(failed, "expected IntegrityFailure, got %#v", result)
}

func TestEngine_Open_Deterministic(t *testing.T) {
	req := require.New(t)
	engine := newTestEngine(t)
	ctx := domain.Context{Sender: "Alice", Recipient: "Bob"}

	sealed, err := engine.Seal("same blob, same outcome", ctx)
	req.NoError(err)

	req.Equal(engine.Open(sealed), engine.Open(sealed))
}

func TestEngine_Seal_MaxPlaintext(t *testing.T) {
	req := require.New(t)
	key, err := RandomRootKey()
	req.NoError(err)
	engine, err := NewEngine(key, 16)
	req.NoError(err)
	ctx := domain.Context{Sender: "Alice", Recipient: "Bob"}

	_, err = engine.Seal(strings.Repeat("a", 17), ctx)
	req.ErrorIs(err, errors.ErrMessageTooLong)

	_, err = engine.Seal(strings.Repeat("a", 16), ctx)
	req.NoError(err)
}

func TestEngine_Seal_EmptyPlaintext(t *testing.T) {
	req := require.New(t)
	engine := newTestEngine(t)
	ctx := domain.Context{Sender: "Alice", Recipient: "Bob"}

	// The engine itself accepts empty input; rejecting it is dispatcher policy.
	sealed, err := engine.Seal("", ctx)
	req.NoError(err)
	req.Equal(domain.Opened{Plaintext: ""}, engine.Open(sealed))
}

func TestNewEngine_RejectsShortRootKey(t *testing.T) {
	_, err := NewEngine([]byte("too short"), 0)
	require.Error(t, err)
}

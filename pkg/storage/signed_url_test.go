package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("doc-1", "boletim/2025/doc-1.pdf")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	id, path, err := signer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "doc-1", id)
	assert.Equal(t, "boletim/2025/doc-1.pdf", path)
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	token, _, err := signer.Generate("doc-1", "a.pdf")
	require.NoError(t, err)

	signer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, _, err = signer.Parse(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("doc-1", "a.pdf")
	require.NoError(t, err)

	other := NewSignedURLSigner("other", time.Hour)
	_, _, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, _, err = signer.Parse("garbage")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

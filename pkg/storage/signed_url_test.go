package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, signed, err := signer.Sign("job-1", "attendance/lab-1_20240501.csv")
	require.NoError(t, err)

	file, err := signer.Verify(token, false)
	require.NoError(t, err)
	assert.Equal(t, "job-1", file.JobID)
	assert.Equal(t, "attendance/lab-1_20240501.csv", file.Path)
	assert.True(t, signed.ExpiresAt.Equal(file.ExpiresAt))
}

func TestSignedURLSignerExpiry(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	now := time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC)
	signer.now = func() time.Time { return now }
	token, _, err := signer.Sign("job-1", "a.csv")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = signer.Verify(token, false)
	assert.ErrorIs(t, err, ErrTokenExpired)

	file, err := signer.Verify(token, true)
	require.NoError(t, err)
	assert.Equal(t, "a.csv", file.Path)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Sign("job-1", "a.csv")
	require.NoError(t, err)

	other := NewSignedURLSigner("other", time.Hour)
	_, err = other.Verify(token, false)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = signer.Verify("job-1.123.abc", false)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = signer.Sign("job.1", "a.csv")
	assert.Error(t, err)
}

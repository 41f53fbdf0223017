package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIssueAndParseToken(t *testing.T) {
	secret := []byte("test-secret")

	token, expiresAt, err := issueToken(42, secret, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	userID, claims, err := parseToken(token, secret)
	require.NoError(t, err)
	require.Equal(t, 42, userID)
	require.NotEmpty(t, claims.ID)
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, _, err := issueToken(42, []byte("test-secret"), time.Hour)
	require.NoError(t, err)

	_, _, err = parseToken(token, []byte("other-secret"))
	require.ErrorIs(t, err, errInvalidToken)
}

func TestParseToken_Expired(t *testing.T) {
	token, _, err := issueToken(42, []byte("test-secret"), -time.Minute)
	require.NoError(t, err)

	_, _, err = parseToken(token, []byte("test-secret"))
	require.ErrorIs(t, err, errInvalidToken)
}

func TestParseToken_Garbage(t *testing.T) {
	_, _, err := parseToken("not-a-token", []byte("test-secret"))
	require.ErrorIs(t, err, errInvalidToken)
}

func TestMemoryDenylist(t *testing.T) {
	ctx := context.Background()
	d := newMemoryDenylist()

	revoked, err := d.IsRevoked(ctx, "unknown")
	require.NoError(t, err)
	require.False(t, revoked)

	require.NoError(t, d.Revoke(ctx, "jti-1", time.Hour))
	revoked, err = d.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.True(t, revoked)

	// an entry whose ttl has already passed no longer counts as revoked
	require.NoError(t, d.Revoke(ctx, "jti-2", -time.Minute))
	revoked, err = d.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	require.False(t, revoked)
}

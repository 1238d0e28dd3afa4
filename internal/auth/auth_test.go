package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestGenerateAndValidate(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	iss, err := NewIssuer("s3cret", WithClock(fixedClock(now)))
	require.NoError(t, err)

	token, expires, err := iss.GenerateToken("sess-1", 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, now.Add(10*time.Minute), expires)

	claims, err := iss.ParseAndValidate(token)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", claims.SessionID())
	assert.Equal(t, defaultIssuer, claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestGenerateRejectsBadInput(t *testing.T) {
	iss, err := NewIssuer("s3cret")
	require.NoError(t, err)

	_, _, err = iss.GenerateToken("  ", time.Minute)
	assert.Error(t, err)
	_, _, err = iss.GenerateToken("sess", 0)
	assert.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	iss, err := NewIssuer("s3cret", WithClock(func() time.Time { return clock }))
	require.NoError(t, err)

	token, _, err := iss.GenerateToken("sess-1", time.Minute)
	require.NoError(t, err)

	clock = now.Add(2 * time.Minute)
	_, err = iss.ParseAndValidate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestForeignSecretRejected(t *testing.T) {
	a, err := NewIssuer("one")
	require.NoError(t, err)
	b, err := NewIssuer("two")
	require.NoError(t, err)

	token, _, err := a.GenerateToken("sess-1", time.Minute)
	require.NoError(t, err)
	_, err = b.ParseAndValidate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestForeignIssuerRejected(t *testing.T) {
	a, err := NewIssuer("same", WithIssuerName("elsewhere"))
	require.NoError(t, err)
	b, err := NewIssuer("same")
	require.NoError(t, err)

	token, _, err := a.GenerateToken("sess-1", time.Minute)
	require.NoError(t, err)
	_, err = b.ParseAndValidate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestUnexpectedAlgorithmRejected(t *testing.T) {
	iss, err := NewIssuer("s3cret")
	require.NoError(t, err)

	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    defaultIssuer,
		Subject:   "sess-1",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	_, err = iss.ParseAndValidate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRandomSecretWhenEmpty(t *testing.T) {
	a, err := NewIssuer("")
	require.NoError(t, err)
	b, err := NewIssuer("")
	require.NoError(t, err)
	assert.Len(t, a.secret, 32)
	assert.NotEqual(t, a.secret, b.secret)
}

func TestBearerToken(t *testing.T) {
	tok, ok := BearerToken("Bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	tok, ok = BearerToken("bearer   xyz ")
	assert.True(t, ok)
	assert.Equal(t, "xyz", tok)

	_, ok = BearerToken("Basic abc")
	assert.False(t, ok)
	_, ok = BearerToken("Bearer ")
	assert.False(t, ok)
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	_, ok := SessionIDFromContext(ctx)
	assert.False(t, ok)

	ctx = ContextWithSession(ctx, "sess-9")
	ctx = ContextWithToken(ctx, "tok")
	id, ok := SessionIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "sess-9", id)
	tok, ok := TokenFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "tok", tok)
}

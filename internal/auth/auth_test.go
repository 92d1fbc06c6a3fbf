package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=1,p=4$"))

	ok, err := VerifyPassword("correct horse", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = VerifyPassword("x", "$bcrypt$nope")
	assert.Error(t, err)
}

func TestResetTokenHash(t *testing.T) {
	token, hash, err := GenerateResetToken()
	require.NoError(t, err)
	assert.Len(t, token, 64)
	assert.Equal(t, hash, HashToken(token))
	assert.NotEqual(t, token, hash)
}

func TestTokenIssuer(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	token, err := issuer.Issue(42)
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.EqualValues(t, 42, claims.UserID)

	_, err = NewTokenIssuer("other", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Verify("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuerExpiry(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err := issuer.Issue(1)
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret", time.Minute).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuerRejectsOtherAlgorithms(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1})
	s, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret", time.Hour).Verify(s)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIdentityAdminCaller(t *testing.T) {
	assert.True(t, Identity{Kind: AdminKeyHolder}.IsAdminCaller())
	assert.True(t, Identity{Kind: AuthenticatedUser, IsAdmin: true}.IsAdminCaller())
	assert.False(t, Identity{Kind: AuthenticatedUser}.IsAdminCaller())
	assert.False(t, Identity{Kind: APIKeyHolder, IsAdmin: true}.IsAdminCaller())
	assert.Equal(t, "anonymous", Anonymous.String())
}

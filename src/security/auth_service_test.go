package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-with-enough-length"

func TestValidateTokenRoundTrip(t *testing.T) {
	t.Parallel()
	s := NewAuthService(testSecret)

	token, err := s.GenerateToken("user-123", time.Hour)
	require.NoError(t, err)

	userID, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	t.Parallel()
	s := NewAuthService(testSecret)

	token, err := s.GenerateToken("user-123", -time.Minute)
	require.NoError(t, err)

	_, err = s.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	t.Parallel()
	issuer := NewAuthService("some-other-secret-of-decent-length")
	verifier := NewAuthService(testSecret)

	token, err := issuer.GenerateToken("user-123", time.Hour)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsWrongAlgorithm(t *testing.T) {
	t.Parallel()
	s := NewAuthService(testSecret)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "user-123"})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = s.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsMissingSubject(t *testing.T) {
	t.Parallel()
	s := NewAuthService(testSecret)

	claims := jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = s.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	t.Parallel()
	s := NewAuthService(testSecret)

	_, err := s.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

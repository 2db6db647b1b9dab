package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	token, err := GenerateToken(42)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)

	sig, err := ExtractSignature(token)
	require.NoError(t, err)
	assert.NotEmpty(t, sig)
}

func TestValidateRejects(t *testing.T) {
	_, err := ValidateToken("not-a-token")
	assert.Error(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &UserClaims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			Issuer:    jwtIssuer,
		},
	})
	s, err := expired.SignedString(jwtSecret)
	require.NoError(t, err)
	_, err = ValidateToken(s)
	assert.Error(t, err)

	otherKey := jwt.NewWithClaims(jwt.SigningMethodHS256, &UserClaims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			Issuer:    jwtIssuer,
		},
	})
	s, err = otherKey.SignedString([]byte("other"))
	require.NoError(t, err)
	_, err = ValidateToken(s)
	assert.Error(t, err)

	_, err = ExtractSignature("a.b")
	assert.Error(t, err)
}

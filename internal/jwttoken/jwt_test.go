package jwttoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "custos/pkg/domain-errors"
)

func TestGenerateAndValidateToken(t *testing.T) {
	svc := NewService("test-signing-key", "custos", "custos-reviewers")

	token, err := svc.GenerateToken("reviewer_ana", "reviewer", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "reviewer_ana", claims.ActorID)
	assert.Equal(t, "reviewer", claims.Role)
	assert.Equal(t, "custos", claims.Issuer)
}

func TestValidateTokenExpired(t *testing.T) {
	svc := NewService("test-signing-key", "custos", "custos-reviewers")

	token, err := svc.GenerateToken("reviewer_ana", "reviewer", -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Contains(t, err.Error(), "expired")
}

func TestValidateTokenWrongKey(t *testing.T) {
	issuer := NewService("key-one", "custos", "custos-reviewers")
	verifier := NewService("key-two", "custos", "custos-reviewers")

	token, err := issuer.GenerateToken("reviewer_ana", "reviewer", time.Hour)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateTokenMalformed(t *testing.T) {
	svc := NewService("test-signing-key", "custos", "custos-reviewers")

	for _, token := range []string{"", "garbage", "a.b.c"} {
		_, err := svc.ValidateToken(token)
		require.Error(t, err, token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized), token)
	}
}

func TestValidateTokenRejectsNonHMAC(t *testing.T) {
	svc := NewService("test-signing-key", "custos", "custos-reviewers")

	// alg=none tokens must never pass.
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{ActorID: "intruder"})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

package services

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "reachly-test-secret-key-32-chars-min"

func newHMACService(t *testing.T, accessTTL, refreshTTL time.Duration) TokenService {
	t.Helper()
	svc, err := NewTokenService(accessTTL, refreshTTL, "reachly", "reachly-api", false, "", "", testSecret)
	require.NoError(t, err)
	return svc
}

func testRSAKeyPair(t *testing.T) (privPEM, pubPEM string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	priv := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pub := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	return string(priv), string(pub)
}

func TestNewTokenServiceValidation(t *testing.T) {
	tests := []struct {
		name       string
		useRSAKeys bool
		privateKey string
		publicKey  string
		secretKey  string
		expectErr  bool
	}{
		{"hmac with secret", false, "", "", testSecret, false},
		{"hmac without secret", false, "", "", "", true},
		{"rsa without keys", true, "", "", "", true},
		{"rsa with garbage keys", true, "not-pem", "not-pem", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewTokenService(
				15*time.Minute, 7*24*time.Hour,
				"reachly", "reachly-api",
				tt.useRSAKeys, tt.privateKey, tt.publicKey, tt.secretKey,
			)
			if tt.expectErr {
				assert.Error(t, err)
				assert.Nil(t, svc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newHMACService(t, 15*time.Minute, 7*24*time.Hour)

	access, refresh, err := svc.GenerateTokens(42)
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	assert.NotEqual(t, access, refresh)

	accessClaims, err := svc.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, uint(42), accessClaims.CustomerID)
	assert.Equal(t, "access", accessClaims.TokenType)
	assert.NotEmpty(t, accessClaims.TokenID)
	assert.True(t, accessClaims.ExpiresAt.After(accessClaims.IssuedAt))

	refreshClaims, err := svc.ValidateToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, uint(42), refreshClaims.CustomerID)
	assert.Equal(t, "refresh", refreshClaims.TokenType)

	// Token IDs are unique per token
	assert.NotEqual(t, accessClaims.TokenID, refreshClaims.TokenID)
}

func TestTokenIDsUniqueAcrossCalls(t *testing.T) {
	svc := newHMACService(t, 15*time.Minute, 7*24*time.Hour)

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		access, _, err := svc.GenerateTokens(1)
		require.NoError(t, err)
		claims, err := svc.ValidateToken(access)
		require.NoError(t, err)
		assert.False(t, seen[claims.TokenID], "duplicate jti %s", claims.TokenID)
		seen[claims.TokenID] = true
	}
}

func TestValidateTokenRejectsMalformed(t *testing.T) {
	svc := newHMACService(t, 15*time.Minute, 7*24*time.Hour)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrTokenInvalid, "token %q", token)
	}
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	issuer, err := NewTokenService(15*time.Minute, time.Hour, "reachly", "reachly-api", false, "", "", "issuer-secret-key-32-characters-long")
	require.NoError(t, err)
	verifier, err := NewTokenService(15*time.Minute, time.Hour, "reachly", "reachly-api", false, "", "", "verifier-secret-key-32-chars-long!!")
	require.NoError(t, err)

	access, _, err := issuer.GenerateTokens(7)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(access)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateTokenExpired(t *testing.T) {
	// Negative TTL issues a token that is already past its exp claim
	svc := newHMACService(t, -time.Minute, -time.Minute)

	access, _, err := svc.GenerateTokens(7)
	require.NoError(t, err)

	_, err = svc.ValidateToken(access)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestRefreshTokenIssuesNewPair(t *testing.T) {
	svc := newHMACService(t, 15*time.Minute, 7*24*time.Hour)

	_, refresh, err := svc.GenerateTokens(9)
	require.NoError(t, err)

	newAccess, newRefresh, err := svc.RefreshToken(refresh)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(newAccess)
	require.NoError(t, err)
	assert.Equal(t, uint(9), claims.CustomerID)
	assert.Equal(t, "access", claims.TokenType)

	refreshClaims, err := svc.ValidateToken(newRefresh)
	require.NoError(t, err)
	assert.Equal(t, "refresh", refreshClaims.TokenType)
}

func TestRefreshTokenRejectsAccessToken(t *testing.T) {
	svc := newHMACService(t, 15*time.Minute, 7*24*time.Hour)

	access, _, err := svc.GenerateTokens(9)
	require.NoError(t, err)

	_, _, err = svc.RefreshToken(access)
	assert.Error(t, err)
}

func TestRSATokenRoundTrip(t *testing.T) {
	priv, pub := testRSAKeyPair(t)

	svc, err := NewTokenService(15*time.Minute, 7*24*time.Hour, "reachly", "reachly-api", true, priv, pub, "")
	require.NoError(t, err)

	access, _, err := svc.GenerateTokens(3)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, uint(3), claims.CustomerID)
	assert.Equal(t, "access", claims.TokenType)
}

func TestRSAServiceRejectsHMACToken(t *testing.T) {
	priv, pub := testRSAKeyPair(t)

	rsaSvc, err := NewTokenService(15*time.Minute, time.Hour, "reachly", "reachly-api", true, priv, pub, "")
	require.NoError(t, err)
	hmacSvc := newHMACService(t, 15*time.Minute, time.Hour)

	access, _, err := hmacSvc.GenerateTokens(3)
	require.NoError(t, err)

	_, err = rsaSvc.ValidateToken(access)
	assert.Error(t, err)
}

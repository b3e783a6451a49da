package server

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/server/auth"
	"github.com/dmitrijs2005/gophvault/internal/server/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintToken_UsesConfiguredSecretAndValidity(t *testing.T) {
	c := &config.Config{SecretKey: "k3y", AccessTokenValidityDuration: 42 * time.Minute}

	before := time.Now().Truncate(time.Second)
	tok, err := MintToken(c, "ops")
	require.NoError(t, err)

	sub, err := auth.SubjectFromToken(tok, []byte("k3y"))
	require.NoError(t, err)
	assert.Equal(t, "ops", sub)

	claims := &auth.Claims{}
	_, _, err = jwt.NewParser().ParseUnverified(tok, claims)
	require.NoError(t, err)
	lifetime := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	assert.Equal(t, 42*time.Minute, lifetime)
	assert.False(t, claims.IssuedAt.Before(before))
}

func TestMintToken_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		mutate  func(c *config.Config)
	}{
		{name: "empty subject", subject: ""},
		{name: "no secret", subject: "ops", mutate: func(c *config.Config) { c.SecretKey = "" }},
		{name: "zero validity", subject: "ops", mutate: func(c *config.Config) { c.AccessTokenValidityDuration = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &config.Config{SecretKey: "k3y", AccessTokenValidityDuration: time.Minute}
			if tt.mutate != nil {
				tt.mutate(c)
			}
			_, err := MintToken(c, tt.subject)
			assert.Error(t, err)
		})
	}
}

func TestMintToken_DefaultsVerifyAgainstSameSecret(t *testing.T) {
	c := &config.Config{}
	c.LoadDefaults()

	tok, err := MintToken(c, "operator")
	require.NoError(t, err)

	_, err = auth.SubjectFromToken(tok, []byte("other"))
	assert.Error(t, err)
	sub, err := auth.SubjectFromToken(tok, []byte(c.SecretKey))
	require.NoError(t, err)
	assert.Equal(t, "operator", sub)
}

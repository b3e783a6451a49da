package server

import (
	"errors"

	"github.com/dmitrijs2005/gophvault/internal/server/auth"
	"github.com/dmitrijs2005/gophvault/internal/server/config"
)

// MintToken issues a bearer token for subject signed with the configured
// secret and valid for AccessTokenValidityDuration.
func MintToken(c *config.Config, subject string) (string, error) {
	if subject == "" {
		return "", errors.New("token subject is empty")
	}
	if c.SecretKey == "" {
		return "", errors.New("secret key is not configured")
	}
	if c.AccessTokenValidityDuration <= 0 {
		return "", errors.New("access token validity must be positive")
	}
	return auth.GenerateToken(subject, []byte(c.SecretKey), c.AccessTokenValidityDuration)
}

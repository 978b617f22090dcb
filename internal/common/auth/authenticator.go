// Package auth turns bearer tokens into authenticated principals. Tokens are
// either HS256 JWTs signed by the portal or Keycloak access tokens checked
// through the introspection endpoint.
package auth

import (
	"context"
	"strings"

	"verification-workflow/internal/common/config"
	"verification-workflow/internal/common/errors"
	"verification-workflow/internal/models"
)

// Authenticator validates a raw bearer token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Principal, error)
}

// NewFromConfig selects the authenticator named by cfg.Mode.
func NewFromConfig(cfg config.AuthConfig) (Authenticator, error) {
	switch cfg.Mode {
	case "", string(models.ProviderJWT):
		if cfg.JWT.Secret == "" {
			return nil, errors.NewConfigurationError("auth.jwt.secret is required")
		}
		return NewJWTAuthenticator(cfg.JWT.Secret, cfg.JWT.Issuer), nil
	case string(models.ProviderKeycloak):
		if cfg.Keycloak.URL == "" || cfg.Keycloak.Realm == "" {
			return nil, errors.NewConfigurationError("auth.keycloak.url and auth.keycloak.realm are required")
		}
		return NewKeycloakClient(cfg.Keycloak.URL, cfg.Keycloak.Realm, cfg.Keycloak.ClientID, cfg.Keycloak.ClientSecret), nil
	default:
		return nil, errors.NewConfigurationError("auth.mode must be jwt or keycloak")
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errors.NewAuthenticationError("missing bearer token")
	}
	return strings.TrimSpace(token), nil
}

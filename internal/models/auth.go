package models

import "time"

// AuthProvider identifies which authenticator resolved a token.
type AuthProvider string

const (
	ProviderJWT      AuthProvider = "jwt"
	ProviderKeycloak AuthProvider = "keycloak"
)

// Principal is the authenticated subject behind a bearer token.
type Principal struct {
	Subject   string       `json:"sub"`
	Email     string       `json:"email,omitempty"`
	Role      Role         `json:"role,omitempty"`
	Provider  AuthProvider `json:"provider"`
	ExpiresAt *time.Time   `json:"expiresAt,omitempty"`
}

package app

import (
	iauth "github.com/seatplan/seatplan/internal/auth"
)

// JWTServiceConfig converts the auth section into the auth package representation.
func (c AuthConfig) JWTServiceConfig() iauth.JWTConfig {
	return iauth.JWTConfig{
		Secret:         c.JWT.Secret,
		Issuer:         c.JWT.Issuer,
		AccessTokenTTL: c.JWT.TTL,
	}
}

// OIDCVerifierSettings converts the OIDC section into the auth package representation.
func (c AuthConfig) OIDCVerifierSettings() iauth.OIDCSettings {
	return iauth.OIDCSettings{
		Issuer:       c.OIDC.Issuer,
		ClientID:     c.OIDC.ClientID,
		ClientSecret: c.OIDC.ClientSecret,
		RedirectURL:  c.OIDC.RedirectURL,
		Scopes:       c.OIDC.Scopes,
	}
}

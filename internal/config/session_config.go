package config

import "time"

type Session struct{}

var _ SessionConfig = Session{}

// GetRefreshTimeout bounds the single shared refresh call
func (Session) GetRefreshTimeout() time.Duration {
	return GetEnvDuration("REFRESH_TIMEOUT", 10*time.Second)
}

// GetTokenExpiryLeeway is how long before its exp claim an access token is
// already treated as expired. Zero disables the check.
func (Session) GetTokenExpiryLeeway() time.Duration {
	return GetEnvDuration("TOKEN_EXPIRY_LEEWAY", 5*time.Second)
}

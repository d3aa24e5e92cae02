package config

import (
	"time"

	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	APIConfig
	SessionConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetRegisterForm() string
	GetPageSize() int
}

type APIConfig interface {
	GetAPIBaseURL() string
	GetAPITimeout() time.Duration
}

type SessionConfig interface {
	GetRefreshTimeout() time.Duration
	GetTokenExpiryLeeway() time.Duration
}

type mainConfig struct {
	EnvVars
	API
	Session
}

// New loads any .env files (existing environment variables win) and returns
// the environment backed configuration.
func New(envFiles ...string) Config {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}
	return mainConfig{}
}

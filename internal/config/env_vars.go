package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	portEnvVar         = "PORT"
	appNameVar         = "APP_NAME"
	registerFormEnvVar = "REGISTER_FORM"
	pageSizeEnvVar     = "PAGE_SIZE"

	loopbackHost = "127.0.0.1"
)

// Register form variants
const (
	RegisterFormProfile  = "profile"
	RegisterFormUsername = "username"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

// GetPort returns the listen address. A bare port binds to loopback only;
// set PORT to ":8080" or "0.0.0.0:8080" to listen on every interface.
func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if !strings.Contains(port, ":") {
		port = fmt.Sprintf("%s:%s", loopbackHost, port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Admin Console")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

// GetRegisterForm selects which registration form the console serves:
// "profile" (first/last name and date of birth) or "username".
func (EnvVars) GetRegisterForm() string {
	form := strings.ToLower(GetEnv(registerFormEnvVar, RegisterFormProfile))
	if form != RegisterFormUsername {
		return RegisterFormProfile
	}
	return form
}

func (EnvVars) GetPageSize() int {
	return GetEnvInt(pageSizeEnvVar, 10)
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetEnvInt returns the positive integer value of envVar, or defaultValue when
// it is unset or invalid.
func GetEnvInt(envVar string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(envVar))
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

// GetEnvDuration parses envVar with time.ParseDuration ("30s", "2m").
func GetEnvDuration(envVar string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(envVar))
	if err != nil || d < 0 {
		return defaultValue
	}
	return d
}

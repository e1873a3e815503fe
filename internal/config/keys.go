package config

import "os"

const tokenEnvVar = EnvPrefix + "_BACKEND_API_TOKEN"

// KeySource represents where a secret comes from.
type KeySource string

const (
	KeySourceEnv    KeySource = "env"
	KeySourceConfig KeySource = "config"
	KeySourceNone   KeySource = "none"
)

// KeyStatus represents the status of a secret.
type KeyStatus struct {
	Name   string    `json:"name"`
	Source KeySource `json:"source"`
	IsSet  bool      `json:"is_set"`
	Masked string    `json:"masked,omitempty"` // e.g., "tok...abc"
}

// CheckKeys returns the status of the secrets the dashboard uses.
func CheckKeys(cfg *Config) []KeyStatus {
	return []KeyStatus{
		checkKey("Backend API Token", cfg.Backend.APIToken, tokenEnvVar),
	}
}

// checkKey checks if a key is set and where it came from.
func checkKey(name, value, envVar string) KeyStatus {
	status := KeyStatus{
		Name:   name,
		IsSet:  value != "",
		Source: KeySourceNone,
	}
	if value == "" {
		return status
	}

	status.Source = KeySourceConfig
	if os.Getenv(envVar) != "" {
		status.Source = KeySourceEnv
	}
	status.Masked = maskKey(value)
	return status
}

// maskKey masks a secret for display, showing only first 3 and last 3 chars.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-3:]
}

// Redacted returns a copy of cfg with secrets masked, safe to serve or print.
func (c *Config) Redacted() Config {
	out := *c
	out.API.CORSOrigins = append([]string(nil), c.API.CORSOrigins...)
	if out.Backend.APIToken != "" {
		out.Backend.APIToken = maskKey(out.Backend.APIToken)
	}
	return out
}

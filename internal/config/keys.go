package config

import (
	"net/url"
	"os"
	"regexp"
)

// CredentialSource represents where a credential comes from.
type CredentialSource string

const (
	SourceEnv    CredentialSource = "env"
	SourceConfig CredentialSource = "config"
	SourceNone   CredentialSource = "none"
)

// CredentialStatus represents the status of a credential.
type CredentialStatus struct {
	Name   string           `json:"name"`
	Source CredentialSource `json:"source"`
	IsSet  bool             `json:"is_set"`
	Masked string           `json:"masked,omitempty"` // e.g., "postgres://etl:xxxxx@db/prices"
}

// CheckCredentials returns the status of the credentials the configured
// store needs.
func CheckCredentials(cfg *Config) []CredentialStatus {
	return []CredentialStatus{
		checkCredential("Store DSN", cfg.Store.DSN, EnvPrefix+"_STORE_DSN", "DATABASE_URL"),
	}
}

// checkCredential checks if a value is set and where it came from.
func checkCredential(name, value string, envVars ...string) CredentialStatus {
	status := CredentialStatus{
		Name:   name,
		IsSet:  value != "",
		Source: SourceNone,
	}
	if value == "" {
		return status
	}

	status.Source = SourceConfig
	for _, env := range envVars {
		if os.Getenv(env) == value {
			status.Source = SourceEnv
			break
		}
	}
	status.Masked = MaskDSN(value)
	return status
}

var passwordParam = regexp.MustCompile(`(?i)(password\s*=\s*)('[^']*'|\S+)`)

// MaskDSN hides the password of a URL or key=value connection string.
func MaskDSN(dsn string) string {
	if dsn == "" {
		return ""
	}
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" && u.Host != "" {
		return u.Redacted()
	}
	if passwordParam.MatchString(dsn) {
		return passwordParam.ReplaceAllString(dsn, "${1}xxxxx")
	}
	return maskKey(dsn)
}

// maskKey masks a secret for display, showing only first 3 and last 3 chars.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-3:]
}

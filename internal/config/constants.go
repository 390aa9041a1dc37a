package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// NeonctlCredentials is the subset of the neonctl CLI credentials file used
// as a fallback API key.
type NeonctlCredentials struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
}

func getNeonctlCredentialsPath() string {
	if dir := os.Getenv("NEONCTL_CONFIG_DIR"); dir != "" {
		return filepath.Join(dir, "credentials.json")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "neonctl", "credentials.json")
}

// LoadNeonctlCredentials reads the token neonctl saved after `neonctl auth`.
// It returns nil when the file is absent or unusable.
func LoadNeonctlCredentials() *NeonctlCredentials {
	path := getNeonctlCredentialsPath()
	if path == "" {
		return nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	return parseNeonctlCredentials(content)
}

func parseNeonctlCredentials(content []byte) *NeonctlCredentials {
	var creds NeonctlCredentials
	if err := json.Unmarshal(content, &creds); err != nil {
		return nil
	}
	if creds.AccessToken == "" {
		return nil
	}
	return &creds
}

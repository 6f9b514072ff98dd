package client

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

const credentialsFile = ".beamit.json"

// DefaultCredentialsPath is the cached-credentials location in the
// user's home directory.
func DefaultCredentialsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, credentialsFile), nil
}

// LoadCredentials reads cached credentials. A missing file is not an
// error; it just means nobody logged in yet.
func LoadCredentials(path string) (Credentials, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Credentials{}, nil
		}
		return Credentials{}, err
	}
	var creds Credentials
	if err := json.Unmarshal(b, &creds); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

// SaveCredentials writes the triple with owner-only permissions; the
// token is a bearer credential.
func SaveCredentials(path string, creds Credentials) error {
	b, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

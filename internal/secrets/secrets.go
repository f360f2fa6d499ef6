// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets resolves API credentials. A credential is looked up in the
// process environment first (optionally seeded from a .env file) and then in a
// directory of plain-text files, where the filename is the key name and the
// trimmed file contents are the value.
//
// Supported key files: gemini-api-key, anthropic-api-key, serper-api-key.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Credential names one secret by its environment variable and key file.
type Credential struct {
	// Name is the human-readable service name used in error messages.
	Name   string
	EnvVar string
	File   string
}

var (
	GeminiAPIKey    = Credential{Name: "Gemini API key", EnvVar: "GEMINI_API_KEY", File: "gemini-api-key"}
	AnthropicAPIKey = Credential{Name: "Anthropic API key", EnvVar: "ANTHROPIC_API_KEY", File: "anthropic-api-key"}
	SerperAPIKey    = Credential{Name: "Serper API key", EnvVar: "SERPER_API_KEY", File: "serper-api-key"}
)

// MissingCredentialError reports a credential that is absent from both the
// environment and the secrets directory.
type MissingCredentialError struct {
	Credential Credential
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("%s not configured: set %s (or add .secrets/%s)",
		e.Credential.Name, e.Credential.EnvVar, e.Credential.File)
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// LoadDotEnv copies KEY=VALUE pairs from the given env files into the
// process environment. Variables already set are left alone. Files that do
// not exist are skipped; it returns the files that were loaded.
func LoadDotEnv(paths ...string) ([]string, error) {
	var loaded []string
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return loaded, fmt.Errorf("checking %s: %w", p, err)
		}
		if err := godotenv.Load(p); err != nil {
			return loaded, fmt.Errorf("loading %s: %w", p, err)
		}
		loaded = append(loaded, p)
	}
	return loaded, nil
}

// Lookup returns the credential value from the environment, falling back to
// the key files returned by Load.
func Lookup(c Credential, files map[string]string) (string, bool) {
	if v := strings.TrimSpace(os.Getenv(c.EnvVar)); v != "" {
		return v, true
	}
	if v, ok := files[c.File]; ok && v != "" {
		return v, true
	}
	return "", false
}

// Require is Lookup that fails with MissingCredentialError.
func Require(c Credential, files map[string]string) (string, error) {
	v, ok := Lookup(c, files)
	if !ok {
		return "", &MissingCredentialError{Credential: c}
	}
	return v, nil
}

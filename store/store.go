// Package store persists the small bits of local state the client owns:
// API credentials and view preferences. Bookings and sessions are never
// stored; every view fetches them fresh.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
)

type Credentials struct {
	APIBaseURL string `json:"api_base_url"`
	Token      string `json:"token"`
}

type ViewPrefs struct {
	ShowPast bool `json:"show_past"`
}

func LoadCredentials() (Credentials, error) {
	var creds Credentials
	err := loadJSON("auth.json", &creds)
	return creds, err
}

func SaveCredentials(creds Credentials) error {
	return saveJSON("auth.json", creds, 0o600)
}

func LoadViewPrefs() (ViewPrefs, error) {
	var prefs ViewPrefs
	err := loadJSON("prefs.json", &prefs)
	return prefs, err
}

func SaveViewPrefs(prefs ViewPrefs) error {
	return saveJSON("prefs.json", prefs, 0o644)
}

func loadJSON(name string, out any) error {
	path, err := configPath(name)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, out)
}

func saveJSON(name string, data any, perm os.FileMode) error {
	path, err := configPath(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, perm)
}

func configPath(name string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "playtime-cli", name), nil
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// credentialsEnv names the variable checked after the --credentials flag.
const credentialsEnv = "MENTORHUB_SERVICE_ACCOUNT"

// defaultCredentialsFile is looked for next to the binary before scanning.
const defaultCredentialsFile = "serviceAccountKey.json"

type serviceCredentials struct {
	Type          string `json:"type"`
	ProjectID     string `json:"project_id"`
	APIKey        string `json:"api_key"`
	TokenSecret   string `json:"token_secret"`
	MongoURI      string `json:"mongo_uri"`
	MongoDatabase string `json:"mongo_database"`
}

func (c serviceCredentials) secret() string {
	if c.TokenSecret != "" {
		return c.TokenSecret
	}
	return c.APIKey
}

// findCredentials resolves the credential file: the flag, then the
// environment, then the default file in dir, then the first *.json in dir
// whose type is service_account.
func findCredentials(flagPath string, getenv func(string) string, dir string) (string, error) {
	if flagPath != "" {
		return flagPath, nil
	}
	if p := getenv(credentialsEnv); p != "" {
		return p, nil
	}
	def := filepath.Join(dir, defaultCredentialsFile)
	if _, err := os.Stat(def); err == nil {
		return def, nil
	}

	matches, _ := filepath.Glob(filepath.Join(dir, "*.json"))
	sort.Strings(matches)
	for _, m := range matches {
		if c, err := readCredentials(m); err == nil && c.Type == "service_account" {
			return m, nil
		}
	}
	return "", fmt.Errorf("no service credential JSON found in %s; pass --credentials or set %s", dir, credentialsEnv)
}

func readCredentials(path string) (serviceCredentials, error) {
	var c serviceCredentials
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	if c.Type != "service_account" {
		return c, fmt.Errorf("%s: not a service account credential", path)
	}
	if strings.TrimSpace(c.MongoURI) == "" || strings.TrimSpace(c.MongoDatabase) == "" {
		return c, errors.New(path + ": mongo_uri and mongo_database are required")
	}
	return c, nil
}

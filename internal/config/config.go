// Package config resolves configuration env-first: process environment wins,
// then a .env file, then a YAML config file applied into the environment for
// known keys.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// KnownKeys lists the environment variables cyberguard recognizes.
var KnownKeys = []string{
	"CYBERGUARD_ADDR",
	"CYBERGUARD_OPENAI_BASE_URL",
	"CYBERGUARD_OPENAI_API_KEY",
	"CYBERGUARD_CHAT_MODEL",
	"CYBERGUARD_EMBEDDING_MODEL",
	"CYBERGUARD_SQLITE_PATH",
	"CYBERGUARD_DOCS_DIR",
	"CYBERGUARD_SNAPSHOT_PREFIX",
	"CYBERGUARD_QUIZ_BANK",
	"CYBERGUARD_LOG_LEVEL",
	"CYBERGUARD_RATE_LIMIT_RPS",
}

// LoadAndApply loads .env from the working directory (if present) and then a
// YAML config file, filling in known keys that the environment does not
// already set. The config file path comes from CYBERGUARD_CONFIG or defaults
// to ~/.cyberguard/config.yaml. Missing files are not errors.
func LoadAndApply() error {
	_ = godotenv.Load()

	path := os.Getenv("CYBERGUARD_CONFIG")
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			return nil
		}
		path = filepath.Join(home, ".cyberguard", "config.yaml")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var data map[string]any
	if err := yaml.Unmarshal(b, &data); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	for _, key := range KnownKeys {
		if os.Getenv(key) != "" {
			continue
		}
		if v, ok := lookupInsensitive(data, key); ok {
			os.Setenv(key, fmt.Sprint(v))
		}
	}
	return nil
}

func lookupInsensitive(m map[string]any, key string) (any, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// Get returns the value of key or def when unset.
func Get(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Defaults used across the binary.
func Addr() string           { return Get("CYBERGUARD_ADDR", ":5000") }
func DocsDir() string        { return Get("CYBERGUARD_DOCS_DIR", "data/documents") }
func SnapshotPrefix() string { return Get("CYBERGUARD_SNAPSHOT_PREFIX", "data/vector_store/cyberguard") }
func SQLitePath() string     { return Get("CYBERGUARD_SQLITE_PATH", "data/cyberguard.db") }
func ChatModel() string      { return Get("CYBERGUARD_CHAT_MODEL", "gpt-3.5-turbo") }
func EmbeddingModel() string { return Get("CYBERGUARD_EMBEDDING_MODEL", "") }
func QuizBankPath() string   { return Get("CYBERGUARD_QUIZ_BANK", "") }

// Package config collects process configuration. Values come from the
// environment, with a .env file at the project root loaded first when one
// exists.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is read once at startup and passed down by the composition root.
type Config struct {
	HTTPAddr      string
	DatabasePath  string
	ReportDir     string
	ArchivePath   string
	ArchiveRemote string
	EmbedModel    string
	StepWorkers   int
	StepRetries   int
}

// FindProjectRoot walks up from the working directory until it finds a
// go.mod, which marks the project root in development.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

// LoadEnv loads .env from the project root. Missing files are fine, the
// environment simply stays as-is.
func LoadEnv() error {
	root, err := FindProjectRoot()
	if err != nil {
		return err
	}
	envPath := filepath.Join(root, ".env")
	if _, err := os.Stat(envPath); err != nil {
		return nil
	}
	return godotenv.Load(envPath)
}

// FromEnv builds a Config from environment variables with defaults.
// DatabasePath stays empty when unset so the caller can pick the
// platform-specific default.
func FromEnv() Config {
	return Config{
		HTTPAddr:      getenv("ARIZOR_HTTP_ADDR", ":8080"),
		DatabasePath:  os.Getenv("ARIZOR_DB_PATH"),
		ReportDir:     getenv("ARIZOR_REPORT_DIR", "reports"),
		ArchivePath:   os.Getenv("ARIZOR_ARCHIVE_PATH"),
		ArchiveRemote: os.Getenv("ARIZOR_ARCHIVE_REMOTE"),
		EmbedModel:    getenv("ARIZOR_EMBED_MODEL", "text-embedding-004"),
		StepWorkers:   getenvInt("ARIZOR_STEP_WORKERS", 4),
		StepRetries:   getenvInt("ARIZOR_STEP_RETRIES", 2),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

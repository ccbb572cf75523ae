package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ListenAddr string
	JWTKey     string

	StorageBackend string // "memory" or "firestore"
	GCPProjectID   string

	UploadDir string

	TypingTTL time.Duration
	DedupTTL  time.Duration

	OTLPEndpoint string // empty disables telemetry
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getMillisEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

// Load reads all env vars and builds the config.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:     getEnv("CHAT_LISTEN_ADDR", "127.0.0.1:8747"),
		JWTKey:         getEnv("CHAT_JWT_KEY", ""),
		StorageBackend: getEnv("CHAT_STORAGE_BACKEND", "memory"),
		GCPProjectID:   getEnv("CHAT_GCP_PROJECT", ""),
		UploadDir:      getEnv("CHAT_UPLOAD_DIR", "uploads/files"),
		TypingTTL:      getMillisEnv("CHAT_TYPING_TTL_MS", 3000*time.Millisecond),
		DedupTTL:       getMillisEnv("CHAT_DEDUP_TTL_MS", 5000*time.Millisecond),
		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.JWTKey == "" {
		return nil, errors.New("CHAT_JWT_KEY must be set")
	}
	if cfg.StorageBackend == "firestore" && cfg.GCPProjectID == "" {
		return nil, errors.New("CHAT_GCP_PROJECT must be set with the firestore backend")
	}

	return cfg, nil
}

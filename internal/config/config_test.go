package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CHAT_JWT_KEY", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ListenAddr != "127.0.0.1:8747" {
		t.Fatalf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.StorageBackend != "memory" {
		t.Fatalf("StorageBackend = %q", cfg.StorageBackend)
	}
	if cfg.TypingTTL != 3*time.Second || cfg.DedupTTL != 5*time.Second {
		t.Fatalf("TTLs = %v, %v", cfg.TypingTTL, cfg.DedupTTL)
	}
	if cfg.UploadDir != "uploads/files" {
		t.Fatalf("UploadDir = %q", cfg.UploadDir)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CHAT_JWT_KEY", "secret")
	t.Setenv("CHAT_LISTEN_ADDR", ":9000")
	t.Setenv("CHAT_TYPING_TTL_MS", "1500")
	t.Setenv("CHAT_DEDUP_TTL_MS", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ListenAddr != ":9000" {
		t.Fatalf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.TypingTTL != 1500*time.Millisecond {
		t.Fatalf("TypingTTL = %v", cfg.TypingTTL)
	}
	// Unparseable values fall back to the default.
	if cfg.DedupTTL != 5*time.Second {
		t.Fatalf("DedupTTL = %v", cfg.DedupTTL)
	}
}

func TestLoad_MissingJWTKey(t *testing.T) {
	t.Setenv("CHAT_JWT_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("missing CHAT_JWT_KEY accepted")
	}
}

func TestLoad_FirestoreNeedsProject(t *testing.T) {
	t.Setenv("CHAT_JWT_KEY", "secret")
	t.Setenv("CHAT_STORAGE_BACKEND", "firestore")
	t.Setenv("CHAT_GCP_PROJECT", "")

	if _, err := Load(); err == nil {
		t.Fatal("firestore backend without a project accepted")
	}

	t.Setenv("CHAT_GCP_PROJECT", "demo-project")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.GCPProjectID != "demo-project" {
		t.Fatalf("GCPProjectID = %q", cfg.GCPProjectID)
	}
}

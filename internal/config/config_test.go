package config

import (
	"os"
	"testing"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set %s: %v", key, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	setEnv(t, "QUILL_SESSION_SECRET", "test-secret-key-32-bytes-long!!!")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBPath != "./data/quill.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "./data/quill.db")
	}
	if cfg.ServerHost != "localhost" {
		t.Errorf("ServerHost = %q, want %q", cfg.ServerHost, "localhost")
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want %q", cfg.Env, "development")
	}
	if cfg.EventRetentionDays != 90 {
		t.Errorf("EventRetentionDays = %d, want %d", cfg.EventRetentionDays, 90)
	}
	if cfg.DoSeed {
		t.Error("DoSeed should default to false")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Clearenv()
	customSecret := "custom-secret-key-32-bytes-long!"
	setEnv(t, "QUILL_SESSION_SECRET", customSecret)
	setEnv(t, "QUILL_DB_PATH", "/custom/path.db")
	setEnv(t, "QUILL_SERVER_HOST", "0.0.0.0")
	setEnv(t, "QUILL_SERVER_PORT", "3000")
	setEnv(t, "QUILL_ENV", "production")
	setEnv(t, "QUILL_DO_SEED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.SessionSecret != customSecret {
		t.Errorf("SessionSecret = %q, want %q", cfg.SessionSecret, customSecret)
	}
	if cfg.DBPath != "/custom/path.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "/custom/path.db")
	}
	if cfg.ServerAddr() != "0.0.0.0:3000" {
		t.Errorf("ServerAddr() = %q, want %q", cfg.ServerAddr(), "0.0.0.0:3000")
	}
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() should be false for production")
	}
	if !cfg.DoSeed {
		t.Error("DoSeed should be true")
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail without QUILL_SESSION_SECRET")
	}
}

func TestLoad_ShortSecret(t *testing.T) {
	os.Clearenv()
	setEnv(t, "QUILL_SESSION_SECRET", "too-short")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject a short session secret")
	}
}

func TestLoad_WeakSecret(t *testing.T) {
	os.Clearenv()
	setEnv(t, "QUILL_SESSION_SECRET", "change-me-to-32-byte-secret-key!")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject a known weak secret")
	}
}

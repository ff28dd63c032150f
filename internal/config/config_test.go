package config

import (
	"strings"
	"testing"
)

const validSecret = "Abc123!xyz-Long-Enough-Secret-0042"

func setValidEnv(t *testing.T) {
	t.Helper()
	t.Setenv("QUILL_SESSION_SECRET", validSecret)
	t.Setenv("QUILL_ADMIN_EMAIL", "admin@example.com")
}

func TestLoad_Defaults(t *testing.T) {
	setValidEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.DBPath != "./data/quill.db" {
		t.Errorf("DBPath = %q; want default", cfg.DBPath)
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d; want 8080", cfg.ServerPort)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q; want development", cfg.Env)
	}
	if !cfg.IsDevelopment() {
		t.Error("IsDevelopment should be true by default")
	}
	if cfg.ServerAddr() != "localhost:8080" {
		t.Errorf("ServerAddr = %q; want localhost:8080", cfg.ServerAddr())
	}
	if cfg.AdminEmail != "admin@example.com" {
		t.Errorf("AdminEmail = %q", cfg.AdminEmail)
	}
}

func TestLoad_MissingSessionSecret(t *testing.T) {
	t.Setenv("QUILL_SESSION_SECRET", "")
	t.Setenv("QUILL_ADMIN_EMAIL", "admin@example.com")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing session secret")
	}
}

func TestLoad_ShortSessionSecret(t *testing.T) {
	t.Setenv("QUILL_SESSION_SECRET", "tooshort")
	t.Setenv("QUILL_ADMIN_EMAIL", "admin@example.com")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for short session secret")
	}
	if !strings.Contains(err.Error(), "QUILL_SESSION_SECRET") {
		t.Errorf("error should mention the variable, got: %v", err)
	}
}

func TestLoad_WeakSessionSecret(t *testing.T) {
	t.Setenv("QUILL_SESSION_SECRET", "REPLACE_WITH_YOUR_OWN_SECRET_KEY!")
	t.Setenv("QUILL_ADMIN_EMAIL", "admin@example.com")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for known weak secret")
	}
}

func TestLoad_InvalidAdminEmail(t *testing.T) {
	t.Setenv("QUILL_SESSION_SECRET", validSecret)
	t.Setenv("QUILL_ADMIN_EMAIL", "not-an-email")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid admin email")
	}
}

func TestLoad_ProductionEnv(t *testing.T) {
	setValidEnv(t)
	t.Setenv("QUILL_ENV", "production")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment should be false in production")
	}
}

func TestHasMinimumEntropy(t *testing.T) {
	tests := []struct {
		secret string
		want   bool
	}{
		{"Abc123!xyz", true},
		{"abc123xyz!", true},
		{"abcdefghij", false},
		{"ABCDEF1234", false},
	}

	for _, tt := range tests {
		if got := hasMinimumEntropy(tt.secret); got != tt.want {
			t.Errorf("hasMinimumEntropy(%q) = %v; want %v", tt.secret, got, tt.want)
		}
	}
}

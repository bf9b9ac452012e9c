package config

import (
	"strings"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PIXELCUT_API_KEY", "key")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.StorageBackend != "local" || cfg.LedgerBackend != "sqlite" {
		t.Errorf("unexpected backends %q/%q", cfg.StorageBackend, cfg.LedgerBackend)
	}
	if cfg.ProviderTimeout != 2*time.Minute {
		t.Errorf("ProviderTimeout = %v, want 2m", cfg.ProviderTimeout)
	}
	if cfg.ResultFetchTimeout != 30*time.Second {
		t.Errorf("ResultFetchTimeout = %v, want 30s", cfg.ResultFetchTimeout)
	}
	if cfg.DBName != "fitly" {
		t.Errorf("DBName = %q, want fitly", cfg.DBName)
	}
	if cfg.ChromeDPEnabled || cfg.BlockPrivateFetch {
		t.Errorf("ChromeDPEnabled/BlockPrivateFetch = %v/%v, want both off", cfg.ChromeDPEnabled, cfg.BlockPrivateFetch)
	}
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "jwt auth without secret",
			env:     map[string]string{"JWT_SECRET": "", "PIXELCUT_API_KEY": "key"},
			wantErr: "JWT_SECRET",
		},
		{
			name:    "remote auth without url",
			env:     map[string]string{"AUTH_MODE": "remote", "AUTH_URL": "", "PIXELCUT_API_KEY": "key"},
			wantErr: "AUTH_URL",
		},
		{
			name:    "gemini without key",
			env:     map[string]string{"JWT_SECRET": "s", "PROVIDER": "gemini", "GEMINI_API_KEY": ""},
			wantErr: "GEMINI_API_KEY",
		},
		{
			name:    "s3 without bucket",
			env:     map[string]string{"JWT_SECRET": "s", "PIXELCUT_API_KEY": "k", "STORAGE_BACKEND": "s3", "AWS_BUCKET_NAME": ""},
			wantErr: "AWS_BUCKET_NAME",
		},
		{
			name:    "unknown ledger backend",
			env:     map[string]string{"JWT_SECRET": "s", "PIXELCUT_API_KEY": "k", "LEDGER_BACKEND": "postgres"},
			wantErr: "LEDGER_BACKEND",
		},
		{
			name:    "backend names are case insensitive",
			env:     map[string]string{"JWT_SECRET": "s", "PIXELCUT_API_KEY": "k", "LEDGER_BACKEND": "Memory"},
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Parse()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Parse() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Parse() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

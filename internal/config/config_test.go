package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/newthinker/recstore/internal/core"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return cfgPath
}

func TestLoad_FromFile(t *testing.T) {
	cfgPath := writeConfig(t, `
log:
  development: true
  level: debug

storage:
  backend: s3
  codec: yaml
  s3:
    bucket: recordings
    region: eu-central-1
    prefix: lab-a
`)

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if !cfg.Log.Development {
		t.Error("expected development logging")
	}
	if cfg.Storage.Backend != "s3" {
		t.Errorf("expected s3, got %s", cfg.Storage.Backend)
	}
	if cfg.Storage.S3.Bucket != "recordings" {
		t.Errorf("expected bucket recordings, got %s", cfg.Storage.S3.Bucket)
	}
	if cfg.Storage.Codec != "yaml" {
		t.Errorf("expected yaml codec, got %s", cfg.Storage.Codec)
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfgPath := writeConfig(t, `
log:
  level: info
`)

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Storage.Backend != "localfs" || cfg.Storage.Codec != "msgpack" {
		t.Errorf("expected localfs/msgpack defaults, got %s/%s", cfg.Storage.Backend, cfg.Storage.Codec)
	}
	if !cfg.Metrics.Enabled {
		t.Error("expected metrics enabled by default")
	}
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_S3_SECRET", "s3cr3t")
	cfgPath := writeConfig(t, `
storage:
  backend: s3
  s3:
    bucket: b
    secret_key: ${TEST_S3_SECRET}
`)

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Storage.S3.SecretKey != "s3cr3t" {
		t.Errorf("expected expanded secret, got %q", cfg.Storage.S3.SecretKey)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Storage.Backend != "localfs" {
		t.Errorf("expected default backend localfs, got %s", cfg.Storage.Backend)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr *core.Error
	}{
		{
			name: "valid localfs",
			cfg:  Config{Storage: StorageConfig{Backend: "localfs", Codec: "msgpack"}},
		},
		{
			name: "valid s3",
			cfg: Config{Storage: StorageConfig{Backend: "s3", Codec: "yaml",
				S3: S3Config{Bucket: "b", Region: "us-east-1"}}},
		},
		{
			name:    "unknown codec",
			cfg:     Config{Storage: StorageConfig{Backend: "localfs", Codec: "json"}},
			wantErr: core.ErrConfigInvalid,
		},
		{
			name:    "unknown backend",
			cfg:     Config{Storage: StorageConfig{Backend: "ftp", Codec: "msgpack"}},
			wantErr: core.ErrConfigInvalid,
		},
		{
			name:    "s3 without bucket",
			cfg:     Config{Storage: StorageConfig{Backend: "s3", Codec: "msgpack"}},
			wantErr: core.ErrConfigMissing,
		},
		{
			name: "s3 without region or endpoint",
			cfg: Config{Storage: StorageConfig{Backend: "s3", Codec: "msgpack",
				S3: S3Config{Bucket: "b"}}},
			wantErr: core.ErrConfigMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

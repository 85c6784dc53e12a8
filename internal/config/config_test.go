package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/warden/internal/config"
)

const baseConfig = `
shutdown_timeout = "30s"
version = "0.1.0"

[server]
host = "0.0.0.0"
port = 8080
write_timeout = "5m"

[database]
host = "localhost"
name = "warden"
user = "warden"
password = "warden"

[storage]
container_name = "thumbnails"
connection_string = "UseDevelopmentStorage=true"

[api]
base_path = "/api"
max_source_size = "500MB"

[api.pagination]
default_page_size = 25
max_page_size = 50

[agent]
name = "test-vision"

[agent.provider]
name = "ollama"
base_url = "http://localhost:11434"

[agent.model]
name = "llava:13b"

[analysis]
sample_rate = 0.5
quota_capacity = 5

[analysis.cloud]
enabled = true
project = "moderation"
bucket = "warden-staging"

[broadcast]
throttle_interval = "500ms"

[broadcast.mqtt]
enabled = true
broker = "tcp://localhost:1883"
`

const overlayConfig = `
[server]
port = 9090

[database]
host = "prodhost"

[analysis]
quota_capacity = 8
`

const minimalConfig = `
[database]
user = "warden"

[storage]
connection_string = "conn"
`

func writeConfig(t *testing.T, dir, filename, content string) string {
	t.Helper()
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.toml", baseConfig)

	cfg, err := config.LoadFrom(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"server port", cfg.Server.Port, 8080},
		{"log level default", cfg.Logging.Level, "info"},
		{"log format default", cfg.Logging.Format, "text"},
		{"server write timeout", cfg.Server.WriteTimeoutDuration(), 5 * time.Minute},
		{"server read header default", cfg.Server.ReadHeaderTimeoutDuration(), 10 * time.Second},
		{"db host", cfg.Database.Host, "localhost"},
		{"storage container", cfg.Storage.ContainerName, "thumbnails"},
		{"api base path", cfg.API.BasePath, "/api"},
		{"api max source", cfg.API.MaxSourceSizeBytes(), int64(500 * 1024 * 1024)},
		{"pagination max", cfg.API.Pagination.MaxPageSize, 50},
		{"agent name", cfg.Agent.Name, "test-vision"},
		{"agent provider", cfg.Agent.Provider.Name, "ollama"},
		{"agent model", cfg.Agent.Model.Name, "llava:13b"},
		{"agent base url", cfg.Agent.Provider.BaseURL, "http://localhost:11434"},
		{"sample rate", cfg.Analysis.SampleRate, 0.5},
		{"quota capacity", cfg.Analysis.QuotaCapacity, 5},
		{"cloud bucket", cfg.Analysis.Cloud.Bucket, "warden-staging"},
		{"cloud staging prefix", cfg.Analysis.Cloud.StagingPrefix, "temp-analysis"},
		{"throttle", cfg.Broadcast.ThrottleIntervalDuration(), 500 * time.Millisecond},
		{"mqtt broker", cfg.Broadcast.MQTT.Broker, "tcp://localhost:1883"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %v, want %v", tt.got, tt.expected)
			}
		})
	}
}

func TestLoadWithOverlay(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.toml", baseConfig)
	writeConfig(t, dir, "config.staging.toml", overlayConfig)

	t.Setenv(config.EnvWardenEnv, "staging")

	cfg, err := config.LoadFrom(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server port: got %d, want 9090 (from overlay)", cfg.Server.Port)
	}
	if cfg.Database.Host != "prodhost" {
		t.Errorf("db host: got %s, want prodhost (from overlay)", cfg.Database.Host)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("db port: got %d, want 5432 (default)", cfg.Database.Port)
	}
	if cfg.Analysis.QuotaCapacity != 8 {
		t.Errorf("quota capacity: got %d, want 8 (from overlay)", cfg.Analysis.QuotaCapacity)
	}
	if !cfg.Analysis.Cloud.Enabled {
		t.Error("cloud disabled by overlay that does not mention it")
	}
}

func TestLoadEnvVarOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.toml", baseConfig)

	t.Setenv("WARDEN_VERSION", "2.0.0")
	t.Setenv("WARDEN_SERVER_PORT", "3000")
	t.Setenv("WARDEN_SERVER_IDLE_TIMEOUT", "90s")
	t.Setenv("WARDEN_ANALYSIS_SAMPLE_RATE", "0.25")
	t.Setenv("WARDEN_CLOUD_BUCKET", "other-bucket")
	t.Setenv("WARDEN_BROADCAST_THROTTLE_INTERVAL", "1s")
	t.Setenv("WARDEN_AGENT_MODEL_NAME", "llava:34b")

	cfg, err := config.LoadFrom(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Version != "2.0.0" {
		t.Errorf("version: got %s, want 2.0.0", cfg.Version)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("server port: got %d, want 3000", cfg.Server.Port)
	}
	if cfg.Server.IdleTimeoutDuration() != 90*time.Second {
		t.Errorf("idle timeout: got %v, want 90s", cfg.Server.IdleTimeoutDuration())
	}
	if cfg.Analysis.SampleRate != 0.25 {
		t.Errorf("sample rate: got %g, want 0.25", cfg.Analysis.SampleRate)
	}
	if cfg.Analysis.Cloud.Bucket != "other-bucket" {
		t.Errorf("cloud bucket: got %s", cfg.Analysis.Cloud.Bucket)
	}
	if cfg.Broadcast.ThrottleIntervalDuration() != time.Second {
		t.Errorf("throttle: got %v", cfg.Broadcast.ThrottleIntervalDuration())
	}
	if cfg.Agent.Model.Name != "llava:34b" {
		t.Errorf("agent model: got %s", cfg.Agent.Model.Name)
	}
}

func TestLoadNoConfigFile(t *testing.T) {
	dir := t.TempDir()

	t.Setenv("WARDEN_DB_USER", "testuser")
	t.Setenv("WARDEN_STORAGE_CONNECTION_STRING", "conn")

	cfg, err := config.LoadFrom(filepath.Join(dir, "config.toml"))
	if err != nil {
		t.Fatalf("load without config.toml failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port default: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.User != "testuser" {
		t.Errorf("db user: got %s, want testuser", cfg.Database.User)
	}
	if cfg.Analysis.QuotaCapacity != 5 {
		t.Errorf("quota capacity default: got %d, want 5", cfg.Analysis.QuotaCapacity)
	}
	if cfg.Analysis.Cloud.Enabled {
		t.Error("cloud enabled by default")
	}
	if cfg.Agent.Name == "" {
		t.Error("agent name not defaulted")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		overlay string
		want    string
	}{
		{"bad shutdown timeout", `shutdown_timeout = "never"`, "shutdown_timeout"},
		{"bad port", "[server]\nport = 70000", "invalid port"},
		{"bad source size", "[api]\nmax_source_size = \"lots\"", "max_source_size"},
		{"bad sample rate", "[analysis]\nsample_rate = -1.0", "sample_rate"},
		{"cloud without bucket", "[analysis.cloud]\nenabled = true", "bucket required"},
		{"mqtt without broker", "[broadcast.mqtt]\nenabled = true", "broker required"},
		{"bad log level", "[logging]\nlevel = \"loud\"", "invalid level"},
		{"bad log format", "[logging]\nformat = \"xml\"", "format must be"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeConfig(t, dir, "config.toml", tt.overlay+"\n"+minimalConfig)

			_, err := config.LoadFrom(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want containing %q", err.Error(), tt.want)
			}
		})
	}
}

package database_test

import (
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/warden/pkg/database"
)

func TestFinalizeDefaults(t *testing.T) {
	cfg := database.Config{User: "warden"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"host", cfg.Host, "localhost"},
		{"port", cfg.Port, 5432},
		{"name", cfg.Name, "warden"},
		{"ssl_mode", cfg.SSLMode, "disable"},
		{"app_name", cfg.AppName, "warden"},
		{"max_open_conns", cfg.MaxOpenConns, 25},
		{"max_idle_conns", cfg.MaxIdleConns, 5},
		{"conn_max_lifetime", cfg.ConnMaxLifetime, "15m"},
		{"conn_timeout", cfg.ConnTimeout, "5s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %v, want %v", tt.got, tt.expected)
			}
		})
	}
}

func TestFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_DB_HOST", "db.internal")
	t.Setenv("TEST_DB_PORT", "6543")
	t.Setenv("TEST_DB_USER", "moderator")
	t.Setenv("TEST_DB_MAX_OPEN", "40")
	t.Setenv("TEST_DB_TIMEOUT", "12s")

	env := &database.Env{
		Host:         "TEST_DB_HOST",
		Port:         "TEST_DB_PORT",
		User:         "TEST_DB_USER",
		MaxOpenConns: "TEST_DB_MAX_OPEN",
		ConnTimeout:  "TEST_DB_TIMEOUT",
	}

	cfg := database.Config{}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.Host != "db.internal" {
		t.Errorf("host = %q, want db.internal", cfg.Host)
	}
	if cfg.Port != 6543 {
		t.Errorf("port = %d, want 6543", cfg.Port)
	}
	if cfg.User != "moderator" {
		t.Errorf("user = %q, want moderator", cfg.User)
	}
	if cfg.MaxOpenConns != 40 {
		t.Errorf("max_open_conns = %d, want 40", cfg.MaxOpenConns)
	}
	if cfg.ConnTimeoutDuration() != 12*time.Second {
		t.Errorf("conn timeout = %v, want 12s", cfg.ConnTimeoutDuration())
	}
}

func TestFinalizeValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  database.Config
		want string
	}{
		{"missing user", database.Config{}, "user required"},
		{"idle exceeds open", database.Config{User: "u", MaxOpenConns: 2, MaxIdleConns: 3}, "exceeds max_open_conns"},
		{"bad lifetime", database.Config{User: "u", ConnMaxLifetime: "forever"}, "invalid conn_max_lifetime"},
		{"bad timeout", database.Config{User: "u", ConnTimeout: "soon"}, "invalid conn_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want containing %q", err.Error(), tt.want)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := database.Config{Host: "localhost", Port: 5432, Name: "warden", User: "base"}
	base.Merge(&database.Config{Host: "override", MaxOpenConns: 9})

	if base.Host != "override" {
		t.Errorf("host = %q, want override", base.Host)
	}
	if base.User != "base" {
		t.Errorf("user = %q, want base", base.User)
	}
	if base.MaxOpenConns != 9 {
		t.Errorf("max_open_conns = %d, want 9", base.MaxOpenConns)
	}
}

func TestConnectionStrings(t *testing.T) {
	cfg := database.Config{
		Host: "h", Port: 5432, Name: "n", User: "u", Password: "p", SSLMode: "disable",
	}

	if got, want := cfg.Dsn(), "host=h port=5432 dbname=n user=u password=p sslmode=disable"; got != want {
		t.Errorf("Dsn() = %q, want %q", got, want)
	}
	if got, want := cfg.URL(), "postgres://u:p@h:5432/n?sslmode=disable"; got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}

	cfg.AppName = "warden"
	cfg.Password = "p@ss/word"
	if got, want := cfg.Dsn(), "host=h port=5432 dbname=n user=u password=p@ss/word sslmode=disable application_name=warden"; got != want {
		t.Errorf("Dsn() = %q, want %q", got, want)
	}
	if got, want := cfg.URL(), "postgres://u:p%40ss%2Fword@h:5432/n?application_name=warden&sslmode=disable"; got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}
}

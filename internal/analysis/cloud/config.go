package cloud

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds Google Cloud settings for the cloud analyzer.
type Config struct {
	Enabled         bool   `toml:"enabled"`
	Project         string `toml:"project"`
	Bucket          string `toml:"bucket"`
	CredentialsFile string `toml:"credentials_file"`
	StagingPrefix   string `toml:"staging_prefix"`
}

// Env maps config fields to environment variable names.
type Env struct {
	Enabled         string
	Project         string
	Bucket          string
	CredentialsFile string
	StagingPrefix   string
}

// Finalize applies defaults, environment overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. Enabled is only ever turned on.
func (c *Config) Merge(overlay *Config) {
	if overlay.Enabled {
		c.Enabled = true
	}
	if overlay.Project != "" {
		c.Project = overlay.Project
	}
	if overlay.Bucket != "" {
		c.Bucket = overlay.Bucket
	}
	if overlay.CredentialsFile != "" {
		c.CredentialsFile = overlay.CredentialsFile
	}
	if overlay.StagingPrefix != "" {
		c.StagingPrefix = overlay.StagingPrefix
	}
}

func (c *Config) loadDefaults() {
	if c.StagingPrefix == "" {
		c.StagingPrefix = "temp-analysis"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Enabled != "" {
		if v := os.Getenv(env.Enabled); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.Enabled = b
			}
		}
	}
	if env.Project != "" {
		if v := os.Getenv(env.Project); v != "" {
			c.Project = v
		}
	}
	if env.Bucket != "" {
		if v := os.Getenv(env.Bucket); v != "" {
			c.Bucket = v
		}
	}
	if env.CredentialsFile != "" {
		if v := os.Getenv(env.CredentialsFile); v != "" {
			c.CredentialsFile = v
		}
	}
	if env.StagingPrefix != "" {
		if v := os.Getenv(env.StagingPrefix); v != "" {
			c.StagingPrefix = v
		}
	}
}

func (c *Config) validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Bucket == "" {
		return fmt.Errorf("bucket required when cloud analysis is enabled")
	}
	return nil
}

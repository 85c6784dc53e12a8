package storage

import (
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"
)

// Thumbnail defaults.
const (
	DefaultContainer       = "warden"
	DefaultThumbnailPrefix = "thumbnails"
)

// Azure container names: lowercase letters, digits, and single hyphens,
// starting and ending with a letter or digit.
var containerName = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9]|-[a-z0-9])+$`)

// Config holds the Azure Blob Storage account and the layout of generated
// thumbnails within it.
type Config struct {
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
	// ThumbnailPrefix is the virtual directory thumbnails are written under.
	ThumbnailPrefix  string `toml:"thumbnail_prefix"`
}

// Env names the environment variables that override Config.
type Env struct {
	ContainerName    string
	ConnectionString string
	ThumbnailPrefix  string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	if c.ContainerName == "" {
		c.ContainerName = DefaultContainer
	}
	if c.ThumbnailPrefix == "" {
		c.ThumbnailPrefix = DefaultThumbnailPrefix
	}
	if env != nil {
		c.loadEnv(env)
	}
	c.ThumbnailPrefix = strings.Trim(c.ThumbnailPrefix, "/")
	return c.validate()
}

// Merge overwrites non-empty fields from overlay.
func (c *Config) Merge(overlay *Config) {
	for dst, v := range c.fields(overlay) {
		if v != "" {
			*dst = v
		}
	}
}

// ThumbnailKey returns the blob key of the thumbnail named id.
func (c *Config) ThumbnailKey(id string) string {
	return path.Join(c.ThumbnailPrefix, id+".jpg")
}

func (c *Config) fields(src *Config) map[*string]string {
	return map[*string]string{
		&c.ContainerName:    src.ContainerName,
		&c.ConnectionString: src.ConnectionString,
		&c.ThumbnailPrefix:  src.ThumbnailPrefix,
	}
}

func (c *Config) loadEnv(env *Env) {
	for dst, name := range map[*string]string{
		&c.ContainerName:    env.ContainerName,
		&c.ConnectionString: env.ConnectionString,
		&c.ThumbnailPrefix:  env.ThumbnailPrefix,
	} {
		if name == "" {
			continue
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
}

func (c *Config) validate() error {
	switch {
	case c.ConnectionString == "":
		return fmt.Errorf("connection_string required")
	case len(c.ContainerName) < 3 || len(c.ContainerName) > 63, !containerName.MatchString(c.ContainerName):
		return fmt.Errorf("container_name %q is not a valid container name", c.ContainerName)
	case c.ThumbnailPrefix == "":
		return fmt.Errorf("thumbnail_prefix required")
	}
	if err := ValidateKey(c.ThumbnailPrefix); err != nil {
		return fmt.Errorf("thumbnail_prefix: %w", err)
	}
	return nil
}

package config

import (
	"fmt"
	"os"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

const (
	EnvAgentName         = "WARDEN_AGENT_NAME"
	EnvAgentProviderName = "WARDEN_AGENT_PROVIDER_NAME"
	EnvAgentBaseURL      = "WARDEN_AGENT_BASE_URL"
	EnvAgentModelName    = "WARDEN_AGENT_MODEL_NAME"
	EnvAgentToken        = "WARDEN_AGENT_TOKEN"
	EnvAgentDeployment   = "WARDEN_AGENT_DEPLOYMENT"
	EnvAgentAPIVersion   = "WARDEN_AGENT_API_VERSION"
	EnvAgentAuthType     = "WARDEN_AGENT_AUTH_TYPE"
)

// DefaultAgentName names the vision agent behind the local detectors.
const DefaultAgentName = "warden-vision"

// providerOptions maps environment variables to provider option keys.
var providerOptions = map[string]string{
	EnvAgentToken:      "token",
	EnvAgentDeployment: "deployment",
	EnvAgentAPIVersion: "api_version",
	EnvAgentAuthType:   "auth_type",
}

// FinalizeAgent finalizes the go-agents AgentConfig used by the vision
// detectors: go-agents defaults, environment overrides, then validation.
func FinalizeAgent(c *gaconfig.AgentConfig) error {
	loadAgentDefaults(c)
	loadAgentEnv(c)
	return validateAgent(c)
}

func loadAgentDefaults(c *gaconfig.AgentConfig) {
	defaults := gaconfig.DefaultAgentConfig()
	defaults.Merge(c)
	*c = defaults

	if c.Name == "" {
		c.Name = DefaultAgentName
	}
}

func loadAgentEnv(c *gaconfig.AgentConfig) {
	if c.Provider == nil {
		c.Provider = &gaconfig.ProviderConfig{}
	}
	if c.Provider.Options == nil {
		c.Provider.Options = make(map[string]any)
	}
	if c.Model == nil {
		c.Model = &gaconfig.ModelConfig{}
	}

	if v := os.Getenv(EnvAgentName); v != "" {
		c.Name = v
	}
	if v := os.Getenv(EnvAgentProviderName); v != "" {
		c.Provider.Name = v
	}
	if v := os.Getenv(EnvAgentBaseURL); v != "" {
		c.Provider.BaseURL = v
	}
	if v := os.Getenv(EnvAgentModelName); v != "" {
		c.Model.Name = v
	}

	for env, key := range providerOptions {
		if v := os.Getenv(env); v != "" {
			c.Provider.Options[key] = v
		}
	}
}

func validateAgent(c *gaconfig.AgentConfig) error {
	switch {
	case c.Provider == nil || c.Provider.Name == "":
		return fmt.Errorf("provider name required")
	case c.Model == nil:
		return fmt.Errorf("model required")
	}
	return nil
}

package main

import (
	"fmt"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"

	"github.com/JaimeStill/warden/internal/config"
)

func loadAgent() (gaconfig.AgentConfig, error) {
	var cfg gaconfig.AgentConfig
	if err := config.FinalizeAgent(&cfg); err != nil {
		return cfg, fmt.Errorf("agent config: %w", err)
	}
	return cfg, nil
}

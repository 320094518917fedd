package main

import (
	"fmt"

	"github.com/taskforge-dev/taskforge/agent"
	"github.com/taskforge-dev/taskforge/config"
	"github.com/taskforge-dev/taskforge/model"
	"github.com/taskforge-dev/taskforge/model/anthropic"
	"github.com/taskforge-dev/taskforge/model/google"
	"github.com/taskforge-dev/taskforge/model/openai"
)

// buildModel resolves one role's provider config into a concrete
// model.ChatModel. Unknown providers are a configuration error caught
// at startup, not at the first Chat call.
func buildModel(c config.ModelConfig) (model.ChatModel, error) {
	switch c.Provider {
	case "anthropic":
		return anthropic.NewChatModel(c.APIKey, c.Model), nil
	case "openai":
		return openai.NewChatModel(c.APIKey, c.Model), nil
	case "google":
		return google.NewChatModel(c.APIKey, c.Model), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", c.Provider)
	}
}

// buildRegistry builds an agent.Registry from a fully-resolved Config.
func buildRegistry(cfg config.Config) (*agent.Registry, map[agent.ModelRole]string, error) {
	models := make(map[agent.ModelRole]model.ChatModel)
	names := make(map[agent.ModelRole]string)

	roles := map[agent.ModelRole]config.ModelConfig{
		agent.RolePrimary:    cfg.Primary,
		agent.RoleSummarizer: cfg.Summarizer,
		agent.RoleResearch:   cfg.Research,
		agent.RoleSupervisor: cfg.Supervisor,
	}
	for role, rc := range roles {
		m, err := buildModel(rc)
		if err != nil {
			return nil, nil, fmt.Errorf("role %s: %w", role, err)
		}
		models[role] = m
		names[role] = rc.Model
	}

	return agent.NewRegistry(models), names, nil
}

// Package agent binds the engine's five node roles to the four
// configured model roles (primary, summarizer, research, supervisor),
// enforces per-role token budgets, and repairs malformed model output
// via the Normaliser before a node ever sees it.
package agent

import "github.com/taskforge-dev/taskforge/model"

// ModelRole is the model-role tag read from the configuration file,
// distinct from the five node roles in nodes/.
type ModelRole string

const (
	RolePrimary    ModelRole = "primary"
	RoleSummarizer ModelRole = "summarizer"
	RoleResearch   ModelRole = "research"
	RoleSupervisor ModelRole = "supervisor"
)

// Registry holds the configured ChatModel per ModelRole. A role absent
// from configuration falls back to RolePrimary.
type Registry struct {
	models map[ModelRole]model.ChatModel
}

// NewRegistry builds a Registry from a role→model map. RolePrimary must
// be present; NewRegistry panics otherwise, since every fallback path
// depends on it existing.
func NewRegistry(models map[ModelRole]model.ChatModel) *Registry {
	if _, ok := models[RolePrimary]; !ok {
		panic("agent: registry requires a primary model")
	}
	return &Registry{models: models}
}

// For returns the model bound to role, falling back to primary if role
// was never configured or its model is nil (graceful degradation on
// role-model unavailability).
func (r *Registry) For(role ModelRole) model.ChatModel {
	if m, ok := r.models[role]; ok && m != nil {
		return m
	}
	return r.models[RolePrimary]
}

package strategy

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/social-intel/internal/model"
)

// Registry maps each platform to its ordered strategy cascade. Order is the
// priority order: cheapest and richest structured source first, then
// progressively leaner fallbacks.
type Registry struct {
	byPlatform map[model.Platform][]Strategy
	order      []model.Platform // registration order for deterministic iteration
}

// NewRegistry creates an empty registry. Platform packages register their
// cascades incrementally.
func NewRegistry() *Registry {
	return &Registry{byPlatform: make(map[model.Platform][]Strategy)}
}

// Register appends strategies to a platform's cascade in priority order.
func (r *Registry) Register(p model.Platform, strategies ...Strategy) {
	if _, ok := r.byPlatform[p]; !ok {
		r.order = append(r.order, p)
	}
	r.byPlatform[p] = append(r.byPlatform[p], strategies...)
}

// Strategies returns a platform's cascade in priority order.
func (r *Registry) Strategies(p model.Platform) ([]Strategy, error) {
	ss, ok := r.byPlatform[p]
	if !ok || len(ss) == 0 {
		return nil, eris.Errorf("strategy: no strategies registered for platform %q", p)
	}
	return ss, nil
}

// Platforms returns the registered platforms in registration order.
func (r *Registry) Platforms() []model.Platform {
	out := make([]model.Platform, len(r.order))
	copy(out, r.order)
	return out
}

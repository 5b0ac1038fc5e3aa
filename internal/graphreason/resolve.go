package graphreason

import (
	"context"
	"strings"

	"github.com/pckassistant/graph-engine/internal/data/repos"
	types "github.com/pckassistant/graph-engine/internal/domain"
	"github.com/pckassistant/graph-engine/internal/pkg/dbctx"
	"github.com/pckassistant/graph-engine/internal/pkg/logger"
)

type Reasoner struct {
	store *repos.Store
	log   *logger.Logger
}

func NewReasoner(store *repos.Store, log *logger.Logger) *Reasoner {
	return &Reasoner{store: store, log: log.With("component", "GraphReasoner")}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Resolve binds each input ref to a global entity, first by exact
// normalized-name match (optionally constrained by type), falling back to
// a substring search ordered by touch_count when the exact match misses.
func (r *Reasoner) Resolve(ctx context.Context, inputs []EntityRef) ResolveResult {
	dbc := dbctx.Context{Ctx: ctx}
	var out ResolveResult

	for _, in := range inputs {
		name := normalize(in.Name)
		if name == "" {
			continue
		}

		exact, err := r.store.Entities.FindByNormalizedName(dbc, name)
		if err == nil && exact != nil {
			if in.Type == "" || (exact.EntityType != nil && *exact.EntityType == in.Type) {
				out.Resolved = append(out.Resolved, toResolvedEntity(exact))
				continue
			}
		}

		var typePtr *string
		if in.Type != "" {
			typePtr = &in.Type
		}
		partial, err := r.store.Entities.SearchByPartialName(dbc, name, typePtr)
		if err == nil && partial != nil {
			out.Resolved = append(out.Resolved, toResolvedEntity(partial))
			continue
		}

		out.Unresolved = append(out.Unresolved, in.Name)
	}

	return out
}

func toResolvedEntity(e *types.Entity) ResolvedEntity {
	entityType := ""
	if e.EntityType != nil {
		entityType = *e.EntityType
	}
	return ResolvedEntity{ID: e.ID, Name: e.Name, Type: entityType}
}

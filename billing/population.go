/*
population.go - Resolves a generation scope into a concrete population

PURPOSE:
  Turns a PopulationScope (a classroom, an explicit id set, or "all
  active") into the list of entities a generation run will bill or pay.

CONTRACT:
  - Read-only; never mutates anything.
  - Tenant is an explicit parameter, never an ambient lookup.
  - A scope that resolves to nobody is NOT an error: it yields an empty
    population so re-running generation against a stale classroom stays
    idempotent-safe.
  - Explicit ids are filtered to entities that exist; missing ids are
    silently absent. The generator must not mistake that for a skip.
  - Only active entities are eligible, regardless of scope.
*/
package billing

import "context"

// Resolver resolves generation scopes against the entity store.
type Resolver struct {
	Entities EntityStore
}

func NewResolver(entities EntityStore) *Resolver {
	return &Resolver{Entities: entities}
}

// Resolve returns the billable population for a scope.
// Returns ErrMissingTenant when the request carries no tenant; every other
// empty outcome is an empty slice with a nil error.
func (r *Resolver) Resolve(ctx context.Context, tenant TenantID, kind EntityKind, scope PopulationScope) ([]BillableEntity, error) {
	if tenant == "" {
		return nil, ErrMissingTenant
	}

	switch {
	case scope.Classroom != "":
		entities, err := r.Entities.ListClassroom(ctx, tenant, scope.Classroom)
		if err != nil {
			return nil, err
		}
		return filterBillable(entities), nil

	case len(scope.Entities) > 0:
		entities, err := r.Entities.GetMany(ctx, tenant, scope.Entities)
		if err != nil {
			return nil, err
		}
		return filterBillable(entities), nil

	case scope.AllActive:
		return r.Entities.ListActive(ctx, tenant, kind)

	default:
		// Nothing selected: empty population, not an error.
		return nil, nil
	}
}

func filterBillable(entities []BillableEntity) []BillableEntity {
	out := entities[:0:0]
	for _, e := range entities {
		if e.Billable() {
			out = append(out, e)
		}
	}
	return out
}

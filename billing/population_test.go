package billing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skolara/records-engine/billing"
	"github.com/skolara/records-engine/billing/store"
)

// =============================================================================
// POPULATION RESOLUTION
// =============================================================================

func TestResolve_AllActive_FiltersByKind(t *testing.T) {
	// GIVEN: A tenant with students and staff
	// WHEN: Resolving all-active for students
	// THEN: Only students come back

	mem := store.NewMemory()
	ctx := context.Background()

	seedStudent(t, mem, "s1", "Aisha", "class-5a")
	seedStaff(t, mem, "t1", "Ms. Rahman", 3000)

	resolver := billing.NewResolver(mem)
	population, err := resolver.Resolve(ctx, testTenant, billing.KindStudent, billing.ScopeAllActive())
	require.NoError(t, err)

	require.Len(t, population, 1)
	assert.Equal(t, billing.EntityID("s1"), population[0].ID)
}

func TestResolve_Classroom_ExcludesOtherRooms(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	seedStudent(t, mem, "s1", "Aisha", "class-5a")
	seedStudent(t, mem, "s2", "Bilal", "class-5b")

	resolver := billing.NewResolver(mem)
	population, err := resolver.Resolve(ctx, testTenant, billing.KindStudent, billing.ScopeClassroom("class-5a"))
	require.NoError(t, err)

	require.Len(t, population, 1)
	assert.Equal(t, billing.EntityID("s1"), population[0].ID)
}

func TestResolve_ExplicitIDs_UnknownIDsIgnored(t *testing.T) {
	// GIVEN: Two students and a request naming one of them plus a ghost id
	// WHEN: Resolving by explicit IDs
	// THEN: Only the real student resolves; the ghost is silently absent

	mem := store.NewMemory()
	ctx := context.Background()

	seedStudent(t, mem, "s1", "Aisha", "class-5a")
	seedStudent(t, mem, "s2", "Bilal", "class-5a")

	resolver := billing.NewResolver(mem)
	population, err := resolver.Resolve(ctx, testTenant, billing.KindStudent, billing.ScopeEntities("s1", "ghost"))
	require.NoError(t, err)

	require.Len(t, population, 1)
	assert.Equal(t, billing.EntityID("s1"), population[0].ID)
}

func TestResolve_OtherTenant_Invisible(t *testing.T) {
	// GIVEN: A student belonging to another tenant
	// WHEN: Resolving for our tenant
	// THEN: The population is empty

	mem := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, mem.SaveEntity(ctx, billing.BillableEntity{
		ID: "s1", TenantID: "other-school", Kind: billing.KindStudent,
		Name: "Aisha", Status: billing.StatusActive,
	}))

	resolver := billing.NewResolver(mem)
	population, err := resolver.Resolve(ctx, testTenant, billing.KindStudent, billing.ScopeAllActive())
	require.NoError(t, err)
	assert.Empty(t, population)
}

func TestResolve_MissingTenant_Error(t *testing.T) {
	resolver := billing.NewResolver(store.NewMemory())

	_, err := resolver.Resolve(context.Background(), "", billing.KindStudent, billing.ScopeAllActive())
	assert.ErrorIs(t, err, billing.ErrMissingTenant)
}

func TestResolve_EmptyScope_EmptyPopulation(t *testing.T) {
	// GIVEN: A scope with no selector at all
	// WHEN: Resolving
	// THEN: Empty population, no error (nothing was asked for)

	mem := store.NewMemory()
	seedStudent(t, mem, "s1", "Aisha", "class-5a")

	resolver := billing.NewResolver(mem)
	population, err := resolver.Resolve(context.Background(), testTenant, billing.KindStudent, billing.PopulationScope{})
	require.NoError(t, err)
	assert.Empty(t, population)
}

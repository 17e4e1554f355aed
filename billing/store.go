/*
store.go - Persistence interfaces between the engine and the database

PURPOSE:
  Defines what the engine needs from storage. Implementations live in
  store/sqlite (production) and billing/store (in-memory, for tests).

UNIQUENESS CONTRACT:
  The store is the authoritative guard for the one-record-per-
  (entity, period, family) invariant. InsertFee/InsertSalary MUST fail
  with billing.ErrDuplicatePeriodRecord when a record for the same key
  exists, typically via a database unique index. The generator's batch
  existence lookup is only a pre-filter: two concurrent runs can both
  pass it for the same entity, and the constraint decides the winner.

PAYMENT CONTRACT:
  MarkPaid performs the Unpaid -> Paid transition atomically: the update
  must apply only when the record is still unpaid, and return
  ErrAlreadyPaid otherwise. Implementations do this with a conditional
  UPDATE, not a read-then-write.

SEE ALSO:
  - generator.go: How the pre-filter and constraint interact
  - store/sqlite/sqlite.go: Production implementation
  - store/memory.go: In-memory implementation
*/
package billing

import (
	"context"
	"time"
)

// =============================================================================
// ENTITY STORE - Students and staff (the generation population source)
// =============================================================================

// EntityStore is the engine's read/write view of students and staff.
// List methods return only active entities; GetMany returns whatever exists
// regardless of status (the resolver applies eligibility).
type EntityStore interface {
	// ListActive returns all active entities of a kind for a tenant.
	ListActive(ctx context.Context, tenant TenantID, kind EntityKind) ([]BillableEntity, error)

	// ListClassroom returns active students of one classroom.
	// An unknown classroom yields an empty slice, not an error.
	ListClassroom(ctx context.Context, tenant TenantID, classroom ClassroomID) ([]BillableEntity, error)

	// GetMany returns the entities that exist among ids, in no particular
	// order. Missing ids are silently absent from the result.
	GetMany(ctx context.Context, tenant TenantID, ids []EntityID) ([]BillableEntity, error)

	// GetEntity returns one entity, or ErrEntityNotFound.
	GetEntity(ctx context.Context, tenant TenantID, id EntityID) (BillableEntity, error)

	// SaveEntity creates or replaces an entity.
	SaveEntity(ctx context.Context, e BillableEntity) error
}

// =============================================================================
// RECORD STORE - Fee and salary records
// =============================================================================

// RecordStore persists the two financial record families.
type RecordStore interface {
	// InsertFee persists a new fee record. Fails with
	// ErrDuplicatePeriodRecord if the (student, period) slot is taken.
	InsertFee(ctx context.Context, r FeeRecord) error

	// InsertSalary persists a new salary record. Fails with
	// ErrDuplicatePeriodRecord if the (staff, period) slot is taken.
	InsertSalary(ctx context.Context, r SalaryRecord) error

	// ExistingEntities returns the subset of ids that already have a record
	// of the family for the period. One query for the whole population.
	ExistingEntities(ctx context.Context, tenant TenantID, family RecordFamily, period PeriodKey, ids []EntityID) (map[EntityID]bool, error)

	// GetFee / GetSalary return one record, or ErrRecordNotFound.
	GetFee(ctx context.Context, id RecordID) (FeeRecord, error)
	GetSalary(ctx context.Context, id RecordID) (SalaryRecord, error)

	// ListFees / ListSalaries return every record of a period for a tenant,
	// unpaginated. Summaries fold over these so totals are tenant-wide,
	// never limited to a loaded page.
	ListFees(ctx context.Context, tenant TenantID, period PeriodKey) ([]FeeRecord, error)
	ListSalaries(ctx context.Context, tenant TenantID, period PeriodKey) ([]SalaryRecord, error)

	// MarkPaid transitions an unpaid record to paid, recording mode and date.
	// Returns ErrRecordNotFound if the record doesn't exist and
	// ErrAlreadyPaid if it is already paid. The check-and-set is atomic.
	MarkPaid(ctx context.Context, family RecordFamily, id RecordID, mode PaymentMode, paidOn time.Time) error
}

// =============================================================================
// RUN STORE - Audit trail of generation runs (scheduler + manual)
// =============================================================================

// GenerationRun records one completed bulk run for audit and dashboards.
type GenerationRun struct {
	ID           string
	TenantID     TenantID
	Family       RecordFamily
	Period       PeriodKey
	CreatedCount int
	SkippedCount int
	TriggeredBy  string // "scheduler" or an API actor
	CreatedAt    time.Time
}

type RunStore interface {
	SaveRun(ctx context.Context, run GenerationRun) error
	ListRuns(ctx context.Context, tenant TenantID) ([]GenerationRun, error)
}

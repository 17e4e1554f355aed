// Package attendance implements day-keyed attendance marking and monthly
// summaries. It reuses the billing engine's population resolution and skip
// accounting; the record key is a single date instead of a (month, year)
// period, and the payload is a status instead of a component map.
package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/skolara/records-engine/billing"
)

// =============================================================================
// STATUS
// =============================================================================

type Status string

const (
	StatusPresent  Status = "present"
	StatusAbsent   Status = "absent"
	StatusLeave    Status = "leave"
	StatusHalfDay  Status = "half_day"
	StatusOvertime Status = "overtime"
)

// Statuses lists every status in a stable order, for summaries and validation.
var Statuses = []Status{StatusPresent, StatusAbsent, StatusLeave, StatusHalfDay, StatusOvertime}

// ValidStatus reports whether s is one of the enumerated statuses.
func ValidStatus(s Status) bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// =============================================================================
// RECORD
// =============================================================================

// ErrDuplicateDay is returned by stores when an insert would violate the
// one-record-per-(entity, date) invariant. The marker converts it into a
// skip, exactly like the billing generator does for period records.
var ErrDuplicateDay = errors.New("attendance already marked for day")

// Record is one entity's attendance for one day.
type Record struct {
	ID          billing.RecordID
	TenantID    billing.TenantID
	EntityID    billing.EntityID
	Date        time.Time // normalized to UTC midnight (billing.Day)
	Status      Status
	HoursWorked decimal.Decimal // optional, overtime/half-day bookkeeping
	Notes       string
	CreatedAt   time.Time
}

// =============================================================================
// STORE
// =============================================================================

// Store persists attendance records. The uniqueness contract mirrors the
// billing RecordStore: Insert must fail with ErrDuplicateDay when the
// (entity, date) slot is taken, enforced by a database unique index.
type Store interface {
	Insert(ctx context.Context, r Record) error

	// MarkedEntities returns the subset of ids already marked on the date.
	// One query for the whole population.
	MarkedEntities(ctx context.Context, tenant billing.TenantID, date time.Time, ids []billing.EntityID) (map[billing.EntityID]bool, error)

	// ListMonth returns all records with a date inside the period,
	// optionally filtered to one entity (entity == "" means everyone).
	ListMonth(ctx context.Context, tenant billing.TenantID, period billing.PeriodKey, entity billing.EntityID) ([]Record, error)
}

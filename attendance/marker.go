/*
marker.go - Idempotent bulk attendance marking

PURPOSE:
  Marks a population's attendance for one day without duplicating
  existing marks. Structurally identical to billing's bulk generator:
  resolve population, batch-lookup the already-marked set, insert the
  rest, accumulate skips, never abort the batch. The only differences
  are the key (a date, not a period) and the payload (a status, not a
  component map).

SEE ALSO:
  - billing/generator.go: The period-keyed original of this algorithm
  - summary.go: Monthly tallies over the marked records
*/
package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/skolara/records-engine/billing"
)

// MarkRequest describes one bulk marking run.
type MarkRequest struct {
	TenantID    billing.TenantID
	Kind        billing.EntityKind
	Date        time.Time
	Scope       billing.PopulationScope
	Status      Status
	HoursWorked decimal.Decimal
	Notes       string
}

// Marker performs bulk attendance marking.
type Marker struct {
	Resolver *billing.Resolver
	Store    Store

	Now func() time.Time
}

func NewMarker(entities billing.EntityStore, store Store) *Marker {
	return &Marker{
		Resolver: billing.NewResolver(entities),
		Store:    store,
		Now:      time.Now,
	}
}

// Mark creates the missing attendance records for the request's population
// and day, and reports created/skipped exactly like a generation run.
func (m *Marker) Mark(ctx context.Context, req MarkRequest) (billing.GenerationResult, error) {
	day := billing.Day(req.Date)
	result := billing.GenerationResult{
		Family: billing.FamilyAttendance,
		Period: billing.CurrentPeriod(day),
	}

	if !ValidStatus(req.Status) {
		return result, &StatusError{Status: req.Status}
	}

	population, err := m.Resolver.Resolve(ctx, req.TenantID, req.Kind, req.Scope)
	if err != nil {
		return result, err
	}
	if len(population) == 0 {
		return result, nil
	}

	ids := make([]billing.EntityID, len(population))
	for i, e := range population {
		ids[i] = e.ID
	}

	marked, err := m.Store.MarkedEntities(ctx, req.TenantID, day, ids)
	if err != nil {
		return result, err
	}

	now := time.Now()
	if m.Now != nil {
		now = m.Now()
	}

	for _, entity := range population {
		if marked[entity.ID] {
			result.Skipped = append(result.Skipped, billing.SkippedEntity{
				EntityID:   entity.ID,
				EntityName: entity.Name,
				Reason:     billing.SkipDuplicate,
			})
			continue
		}

		record := Record{
			ID:          billing.RecordID(uuid.NewString()),
			TenantID:    req.TenantID,
			EntityID:    entity.ID,
			Date:        day,
			Status:      req.Status,
			HoursWorked: req.HoursWorked,
			Notes:       req.Notes,
			CreatedAt:   now,
		}

		if err := m.Store.Insert(ctx, record); err != nil {
			skip := billing.SkippedEntity{
				EntityID:   entity.ID,
				EntityName: entity.Name,
				Reason:     billing.SkipInsertFailed,
				Detail:     err.Error(),
			}
			if errors.Is(err, ErrDuplicateDay) {
				skip.Reason = billing.SkipDuplicate
				skip.Detail = ""
			}
			result.Skipped = append(result.Skipped, skip)
			continue
		}

		result.Created = append(result.Created, billing.CreatedRecord{
			RecordID:   record.ID,
			EntityID:   entity.ID,
			EntityName: entity.Name,
			EntityCode: entity.Code,
		})
	}

	return result, nil
}

// StatusError reports a rejected attendance status.
type StatusError struct {
	Status Status
}

func (e *StatusError) Error() string {
	return "invalid attendance status " + string(e.Status)
}

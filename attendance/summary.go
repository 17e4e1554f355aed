/*
summary.go - Monthly attendance summaries

PURPOSE:
  Scans a month of attendance records and tallies counts per status.
  When no single-entity filter is given, also produces a per-entity
  breakdown; entity display names are resolved afterward in one batch
  lookup, never per row.

SHAPE:
  Counts.Total() == TotalRecords always; an empty month yields an
  all-zero summary with no error.
*/
package attendance

import (
	"context"

	"github.com/skolara/records-engine/billing"
)

// StatusCounts tallies records per status.
type StatusCounts struct {
	Present  int
	Absent   int
	Leave    int
	HalfDay  int
	Overtime int
}

func (c StatusCounts) Total() int {
	return c.Present + c.Absent + c.Leave + c.HalfDay + c.Overtime
}

func (c *StatusCounts) add(s Status) {
	switch s {
	case StatusPresent:
		c.Present++
	case StatusAbsent:
		c.Absent++
	case StatusLeave:
		c.Leave++
	case StatusHalfDay:
		c.HalfDay++
	case StatusOvertime:
		c.Overtime++
	}
}

// EntityBreakdown is one entity's share of a monthly summary.
type EntityBreakdown struct {
	EntityID   billing.EntityID
	EntityName string
	Counts     StatusCounts
}

// MonthlySummary is the month-wide tally, with per-entity breakdown when
// the scan was not filtered to a single entity.
type MonthlySummary struct {
	Period       billing.PeriodKey
	TotalRecords int
	Counts       StatusCounts
	PerEntity    map[billing.EntityID]*EntityBreakdown // nil when entity-filtered
}

// Summarizer computes monthly summaries from the attendance store.
type Summarizer struct {
	Store    Store
	Entities billing.EntityStore
}

func NewSummarizer(store Store, entities billing.EntityStore) *Summarizer {
	return &Summarizer{Store: store, Entities: entities}
}

// Summarize tallies the month. Pass entity == "" for a tenant-wide summary
// with per-entity breakdown, or a specific id for that entity only.
func (s *Summarizer) Summarize(ctx context.Context, tenant billing.TenantID, period billing.PeriodKey, entity billing.EntityID) (MonthlySummary, error) {
	if !period.Valid() {
		return MonthlySummary{}, billing.ErrInvalidPeriod
	}

	records, err := s.Store.ListMonth(ctx, tenant, period, entity)
	if err != nil {
		return MonthlySummary{}, err
	}

	summary := MonthlySummary{Period: period}
	if entity == "" {
		summary.PerEntity = make(map[billing.EntityID]*EntityBreakdown)
	}

	for _, r := range records {
		summary.TotalRecords++
		summary.Counts.add(r.Status)

		if summary.PerEntity != nil {
			b, ok := summary.PerEntity[r.EntityID]
			if !ok {
				b = &EntityBreakdown{EntityID: r.EntityID}
				summary.PerEntity[r.EntityID] = b
			}
			b.Counts.add(r.Status)
		}
	}

	if len(summary.PerEntity) > 0 {
		if err := s.resolveNames(ctx, tenant, summary.PerEntity); err != nil {
			return MonthlySummary{}, err
		}
	}

	return summary, nil
}

// resolveNames fills display names with one GetMany call.
func (s *Summarizer) resolveNames(ctx context.Context, tenant billing.TenantID, breakdown map[billing.EntityID]*EntityBreakdown) error {
	ids := make([]billing.EntityID, 0, len(breakdown))
	for id := range breakdown {
		ids = append(ids, id)
	}

	entities, err := s.Entities.GetMany(ctx, tenant, ids)
	if err != nil {
		return err
	}

	for _, e := range entities {
		if b, ok := breakdown[e.ID]; ok {
			b.EntityName = e.Name
		}
	}
	return nil
}

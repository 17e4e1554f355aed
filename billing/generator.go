/*
generator.go - Idempotent bulk generation of period records

PURPOSE:
  Creates the missing fee/salary records for a population and a period,
  and reports exactly what happened: which records were created, which
  entities were skipped and why.

ALGORITHM:
  1. Resolve the population (population.go).
  2. One batch query for the entities that already have a record for
     this period. Per-entity existence checks would be both slow and a
     race hazard; the batch lookup is a pre-filter only.
  3. Insert a record for each remaining entity. The store's unique
     constraint on (entity, period, family) is the authoritative guard:
     a concurrent run that wins the race surfaces here as
     ErrDuplicatePeriodRecord, which becomes an ordinary skip.
  4. Any other insert failure becomes a skip with the error message as
     detail. One bad entity never aborts the batch.

IDEMPOTENCY:
  Running the same request twice creates nothing on the second run and
  reports every entity as skipped with SkipDuplicate. A run interrupted
  midway is completed by simply re-running it.

SEE ALSO:
  - store.go: The uniqueness and atomicity contracts
  - attendance/marker.go: The same algorithm keyed on a day
*/
package billing

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
)

// Generator performs bulk fee and salary generation.
type Generator struct {
	Resolver *Resolver
	Records  RecordStore

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

func NewGenerator(entities EntityStore, records RecordStore) *Generator {
	return &Generator{
		Resolver: NewResolver(entities),
		Records:  records,
		Now:      time.Now,
	}
}

// GenerateFees creates the missing fee records for the request's population
// and period. The base amount of every record is the component sum; the
// request's late fee and discount are stamped onto each record.
func (g *Generator) GenerateFees(ctx context.Context, req GenerationRequest) (GenerationResult, error) {
	result := GenerationResult{Family: FamilyFee, Period: req.Period}

	population, existing, err := g.prepare(ctx, req, KindStudent, FamilyFee)
	if err != nil {
		return result, err
	}

	total := req.Components.Sum()
	now := g.now()

	for _, entity := range population {
		if existing[entity.ID] {
			result.Skipped = append(result.Skipped, skipDuplicate(entity))
			continue
		}

		record := FeeRecord{
			ID:         RecordID(uuid.NewString()),
			TenantID:   req.TenantID,
			StudentID:  entity.ID,
			Period:     req.Period,
			Components: req.Components.Clone(),
			Total:      total,
			LateFee:    req.LateFee,
			Discount:   req.Discount,
			Notes:      req.Notes,
			CreatedAt:  now,
		}

		if err := g.Records.InsertFee(ctx, record); err != nil {
			result.Skipped = append(result.Skipped, skipFromError(entity, err))
			continue
		}

		result.Created = append(result.Created, CreatedRecord{
			RecordID:   record.ID,
			EntityID:   entity.ID,
			EntityName: entity.Name,
			EntityCode: entity.Code,
			Amount:     FeeFinalAmount(record),
		})
	}

	return result, nil
}

// GenerateSalaries creates the missing salary records. The base amount is
// each entity's monthly rate; the request's allowances, bonuses and
// deductions are stamped onto each record.
//
// An entity with no rate set still gets a record with base zero, so the
// run completes and the slip is visible for correction. The zero base is
// logged because paying zero silently is rarely what anyone wants.
func (g *Generator) GenerateSalaries(ctx context.Context, req GenerationRequest) (GenerationResult, error) {
	result := GenerationResult{Family: FamilySalary, Period: req.Period}

	population, existing, err := g.prepare(ctx, req, KindStaff, FamilySalary)
	if err != nil {
		return result, err
	}

	now := g.now()

	for _, entity := range population {
		if existing[entity.ID] {
			result.Skipped = append(result.Skipped, skipDuplicate(entity))
			continue
		}

		if entity.Rate.IsZero() {
			log.Printf("[generator] staff %s (%s) has no monthly rate; creating %s salary with base 0",
				entity.ID, entity.Name, req.Period)
		}

		record := SalaryRecord{
			ID:         RecordID(uuid.NewString()),
			TenantID:   req.TenantID,
			StaffID:    entity.ID,
			Period:     req.Period,
			Base:       entity.Rate,
			Allowances: req.Components.Clone(),
			Bonuses:    req.Bonuses,
			Deductions: req.Deductions.Clone(),
			Notes:      req.Notes,
			CreatedAt:  now,
		}

		if err := g.Records.InsertSalary(ctx, record); err != nil {
			result.Skipped = append(result.Skipped, skipFromError(entity, err))
			continue
		}

		result.Created = append(result.Created, CreatedRecord{
			RecordID:   record.ID,
			EntityID:   entity.ID,
			EntityName: entity.Name,
			EntityCode: entity.Code,
			Amount:     SalaryGross(record),
		})
	}

	return result, nil
}

// prepare validates the request, resolves the population, and fetches the
// already-generated set in a single batch lookup.
func (g *Generator) prepare(ctx context.Context, req GenerationRequest, kind EntityKind, family RecordFamily) ([]BillableEntity, map[EntityID]bool, error) {
	if !req.Period.Valid() {
		return nil, nil, ErrInvalidPeriod
	}

	population, err := g.Resolver.Resolve(ctx, req.TenantID, kind, req.Scope)
	if err != nil {
		return nil, nil, err
	}
	if len(population) == 0 {
		return nil, nil, nil
	}

	ids := make([]EntityID, len(population))
	for i, e := range population {
		ids[i] = e.ID
	}

	existing, err := g.Records.ExistingEntities(ctx, req.TenantID, family, req.Period, ids)
	if err != nil {
		return nil, nil, err
	}

	return population, existing, nil
}

func (g *Generator) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

func skipDuplicate(e BillableEntity) SkippedEntity {
	return SkippedEntity{
		EntityID:   e.ID,
		EntityName: e.Name,
		Reason:     SkipDuplicate,
	}
}

// skipFromError classifies an insert failure. A unique-constraint loss to a
// concurrent run is reported the same as the pre-filter catching it.
func skipFromError(e BillableEntity, err error) SkippedEntity {
	s := SkippedEntity{
		EntityID:   e.ID,
		EntityName: e.Name,
		Reason:     SkipInsertFailed,
		Detail:     err.Error(),
	}
	if isDuplicate(err) {
		s.Reason = SkipDuplicate
		s.Detail = ""
	}
	return s
}

func isDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicatePeriodRecord)
}

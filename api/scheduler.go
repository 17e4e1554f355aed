/*
scheduler.go - Automated monthly generation scheduler

PURPOSE:
  Periodically generates the current month's fee and salary records for
  every configured tenant. Because generation is idempotent (duplicates
  become skips, never double-bills), the check can fire as often as we
  like; entities added mid-month are picked up on the next tick.

DESIGN:
  - Runs in a background goroutine with a configurable check interval
  - Runs immediately on start, then on each tick
  - Every run is persisted to generation_runs with triggered_by=scheduler
  - Salary amounts derive from entity rates; fee runs use the configured
    default component map

SHUTDOWN:
  Stop() stops the ticker and waits for an in-flight run to complete.

SEE ALSO:
  - billing/generator.go: The idempotent generation this leans on
  - cmd/server/main.go: Wires the scheduler into server lifecycle
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skolara/records-engine/billing"
)

// GenerationScheduler fires idempotent monthly generation runs.
type GenerationScheduler struct {
	Store         Stores
	Tenants       []billing.TenantID
	FeeComponents billing.ComponentMap
	CheckInterval time.Duration
	Enabled       bool

	generator *billing.Generator
	ticker    *time.Ticker
	stop      chan bool
	wg        sync.WaitGroup
	mu        sync.Mutex
}

// NewGenerationScheduler creates a new scheduler.
func NewGenerationScheduler(store Stores, tenants []billing.TenantID, feeComponents billing.ComponentMap) *GenerationScheduler {
	return &GenerationScheduler{
		Store:         store,
		Tenants:       tenants,
		FeeComponents: feeComponents,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		generator:     billing.NewGenerator(store, store),
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (gs *GenerationScheduler) Start() {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if !gs.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}
	if len(gs.Tenants) == 0 {
		log.Println("[Scheduler] No tenants configured, not starting")
		return
	}

	gs.ticker = time.NewTicker(gs.CheckInterval)
	gs.wg.Add(1)

	go gs.run()

	log.Printf("[Scheduler] Started with check interval: %v", gs.CheckInterval)
}

// Stop stops the scheduler.
func (gs *GenerationScheduler) Stop() {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.ticker != nil {
		gs.ticker.Stop()
		close(gs.stop)
		gs.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (gs *GenerationScheduler) run() {
	defer gs.wg.Done()

	// Run immediately on start
	gs.generateAll()

	for {
		select {
		case <-gs.ticker.C:
			gs.generateAll()
		case <-gs.stop:
			return
		}
	}
}

func (gs *GenerationScheduler) generateAll() {
	ctx := context.Background()
	period := billing.CurrentPeriod(time.Now())

	for _, tenant := range gs.Tenants {
		gs.generateTenant(ctx, tenant, period)
	}
}

func (gs *GenerationScheduler) generateTenant(ctx context.Context, tenant billing.TenantID, period billing.PeriodKey) {
	if len(gs.FeeComponents) > 0 {
		result, err := gs.generator.GenerateFees(ctx, billing.GenerationRequest{
			TenantID:   tenant,
			Period:     period,
			Scope:      billing.ScopeAllActive(),
			Components: gs.FeeComponents,
			Notes:      "auto-generated",
		})
		if err != nil {
			log.Printf("[Scheduler] Fee generation failed for %s: %v", tenant, err)
		} else {
			gs.recordRun(ctx, tenant, result)
		}
	}

	result, err := gs.generator.GenerateSalaries(ctx, billing.GenerationRequest{
		TenantID: tenant,
		Period:   period,
		Scope:    billing.ScopeAllActive(),
		Notes:    "auto-generated",
	})
	if err != nil {
		log.Printf("[Scheduler] Salary generation failed for %s: %v", tenant, err)
		return
	}
	gs.recordRun(ctx, tenant, result)
}

func (gs *GenerationScheduler) recordRun(ctx context.Context, tenant billing.TenantID, result billing.GenerationResult) {
	// All-skip runs happen every tick after the first; don't log or
	// persist them, they carry no information.
	if result.CreatedCount() == 0 {
		return
	}

	log.Printf("[Scheduler] Generated %d %s records for %s in %s (%d skipped)",
		result.CreatedCount(), result.Family, tenant, result.Period, result.SkippedCount())

	run := billing.GenerationRun{
		ID:           uuid.NewString(),
		TenantID:     tenant,
		Family:       result.Family,
		Period:       result.Period,
		CreatedCount: result.CreatedCount(),
		SkippedCount: result.SkippedCount(),
		TriggeredBy:  "scheduler",
		CreatedAt:    time.Now().UTC(),
	}
	if err := gs.Store.SaveRun(ctx, run); err != nil {
		log.Printf("[Scheduler] Failed to record run: %v", err)
	}
}

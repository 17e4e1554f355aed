// Package store provides in-memory implementations of the billing and
// attendance storage interfaces, for tests and development.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/skolara/records-engine/attendance"
	"github.com/skolara/records-engine/billing"
)

// =============================================================================
// MEMORY STORE - Implements billing.EntityStore, billing.RecordStore,
// billing.RunStore and attendance.Store with the same uniqueness semantics
// the SQLite store enforces via unique indexes.
// =============================================================================

type Memory struct {
	mu         sync.RWMutex
	entities   map[billing.EntityID]billing.BillableEntity
	fees       map[billing.RecordID]billing.FeeRecord
	salaries   map[billing.RecordID]billing.SalaryRecord
	attendance map[billing.RecordID]attendance.Record
	runs       []billing.GenerationRun

	// Uniqueness guards, keyed the way the SQLite indexes are.
	feeSlots    map[periodSlot]billing.RecordID
	salarySlots map[periodSlot]billing.RecordID
	daySlots    map[daySlot]billing.RecordID

	// FailInsertFor simulates storage failures for the named entities,
	// so tests can exercise partial-failure isolation.
	FailInsertFor map[billing.EntityID]error
}

type periodSlot struct {
	Entity billing.EntityID
	Period billing.PeriodKey
}

type daySlot struct {
	Entity billing.EntityID
	Day    string
}

func NewMemory() *Memory {
	return &Memory{
		entities:    make(map[billing.EntityID]billing.BillableEntity),
		fees:        make(map[billing.RecordID]billing.FeeRecord),
		salaries:    make(map[billing.RecordID]billing.SalaryRecord),
		attendance:  make(map[billing.RecordID]attendance.Record),
		feeSlots:    make(map[periodSlot]billing.RecordID),
		salarySlots: make(map[periodSlot]billing.RecordID),
		daySlots:    make(map[daySlot]billing.RecordID),
	}
}

// =============================================================================
// ENTITY STORE
// =============================================================================

func (m *Memory) ListActive(_ context.Context, tenant billing.TenantID, kind billing.EntityKind) ([]billing.BillableEntity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []billing.BillableEntity
	for _, e := range m.entities {
		if e.TenantID == tenant && e.Kind == kind && e.Billable() {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *Memory) ListClassroom(_ context.Context, tenant billing.TenantID, classroom billing.ClassroomID) ([]billing.BillableEntity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []billing.BillableEntity
	for _, e := range m.entities {
		if e.TenantID == tenant && e.ClassroomID == classroom && e.Billable() {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *Memory) GetMany(_ context.Context, tenant billing.TenantID, ids []billing.EntityID) ([]billing.BillableEntity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []billing.BillableEntity
	for _, id := range ids {
		if e, ok := m.entities[id]; ok && e.TenantID == tenant {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *Memory) GetEntity(_ context.Context, tenant billing.TenantID, id billing.EntityID) (billing.BillableEntity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entities[id]
	if !ok || e.TenantID != tenant {
		return billing.BillableEntity{}, billing.ErrEntityNotFound
	}
	return e, nil
}

func (m *Memory) SaveEntity(_ context.Context, e billing.BillableEntity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entities[e.ID] = e
	return nil
}

// =============================================================================
// RECORD STORE
// =============================================================================

func (m *Memory) InsertFee(_ context.Context, r billing.FeeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.FailInsertFor[r.StudentID]; err != nil {
		return err
	}

	slot := periodSlot{Entity: r.StudentID, Period: r.Period}
	if _, taken := m.feeSlots[slot]; taken {
		return &billing.DuplicateRecordError{EntityID: r.StudentID, Period: r.Period, Family: billing.FamilyFee}
	}
	m.feeSlots[slot] = r.ID
	m.fees[r.ID] = r
	return nil
}

func (m *Memory) InsertSalary(_ context.Context, r billing.SalaryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.FailInsertFor[r.StaffID]; err != nil {
		return err
	}

	slot := periodSlot{Entity: r.StaffID, Period: r.Period}
	if _, taken := m.salarySlots[slot]; taken {
		return &billing.DuplicateRecordError{EntityID: r.StaffID, Period: r.Period, Family: billing.FamilySalary}
	}
	m.salarySlots[slot] = r.ID
	m.salaries[r.ID] = r
	return nil
}

func (m *Memory) ExistingEntities(_ context.Context, tenant billing.TenantID, family billing.RecordFamily, period billing.PeriodKey, ids []billing.EntityID) (map[billing.EntityID]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	slots := m.feeSlots
	if family == billing.FamilySalary {
		slots = m.salarySlots
	}

	out := make(map[billing.EntityID]bool)
	for _, id := range ids {
		if _, ok := slots[periodSlot{Entity: id, Period: period}]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (m *Memory) GetFee(_ context.Context, id billing.RecordID) (billing.FeeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.fees[id]
	if !ok {
		return billing.FeeRecord{}, billing.ErrRecordNotFound
	}
	return r, nil
}

func (m *Memory) GetSalary(_ context.Context, id billing.RecordID) (billing.SalaryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.salaries[id]
	if !ok {
		return billing.SalaryRecord{}, billing.ErrRecordNotFound
	}
	return r, nil
}

func (m *Memory) ListFees(_ context.Context, tenant billing.TenantID, period billing.PeriodKey) ([]billing.FeeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []billing.FeeRecord
	for _, r := range m.fees {
		if r.TenantID == tenant && r.Period == period {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Memory) ListSalaries(_ context.Context, tenant billing.TenantID, period billing.PeriodKey) ([]billing.SalaryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []billing.SalaryRecord
	for _, r := range m.salaries {
		if r.TenantID == tenant && r.Period == period {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Memory) MarkPaid(_ context.Context, family billing.RecordFamily, id billing.RecordID, mode billing.PaymentMode, paidOn time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch family {
	case billing.FamilyFee:
		r, ok := m.fees[id]
		if !ok {
			return billing.ErrRecordNotFound
		}
		if r.Paid {
			return &billing.AlreadyPaidError{RecordID: id, Mode: r.PaymentMode}
		}
		r.Paid = true
		r.PaymentMode = mode
		r.PaidOn = &paidOn
		m.fees[id] = r
		return nil

	case billing.FamilySalary:
		r, ok := m.salaries[id]
		if !ok {
			return billing.ErrRecordNotFound
		}
		if r.Paid {
			return &billing.AlreadyPaidError{RecordID: id, Mode: r.PaymentMode}
		}
		r.Paid = true
		r.PaymentMode = mode
		r.PaidOn = &paidOn
		m.salaries[id] = r
		return nil

	default:
		return billing.ErrRecordNotFound
	}
}

// =============================================================================
// ATTENDANCE STORE
// =============================================================================

func (m *Memory) Insert(_ context.Context, r attendance.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.FailInsertFor[r.EntityID]; err != nil {
		return err
	}

	slot := daySlot{Entity: r.EntityID, Day: billing.DayString(r.Date)}
	if _, taken := m.daySlots[slot]; taken {
		return attendance.ErrDuplicateDay
	}
	m.daySlots[slot] = r.ID
	m.attendance[r.ID] = r
	return nil
}

func (m *Memory) MarkedEntities(_ context.Context, tenant billing.TenantID, date time.Time, ids []billing.EntityID) (map[billing.EntityID]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	day := billing.DayString(date)
	out := make(map[billing.EntityID]bool)
	for _, id := range ids {
		if _, ok := m.daySlots[daySlot{Entity: id, Day: day}]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (m *Memory) ListMonth(_ context.Context, tenant billing.TenantID, period billing.PeriodKey, entity billing.EntityID) ([]attendance.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []attendance.Record
	for _, r := range m.attendance {
		if r.TenantID != tenant || !period.Contains(r.Date) {
			continue
		}
		if entity != "" && r.EntityID != entity {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// =============================================================================
// RUN STORE
// =============================================================================

func (m *Memory) SaveRun(_ context.Context, run billing.GenerationRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *Memory) ListRuns(_ context.Context, tenant billing.TenantID) ([]billing.GenerationRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []billing.GenerationRun
	for _, r := range m.runs {
		if r.TenantID == tenant {
			out = append(out, r)
		}
	}
	return out, nil
}

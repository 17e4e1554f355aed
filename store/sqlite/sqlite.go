/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements billing.EntityStore, billing.RecordStore, billing.RunStore
  and attendance.Store using database/sql + mattn/go-sqlite3. The same
  patterns apply to PostgreSQL with minor dialect changes.

UNIQUENESS ENFORCEMENT:
  The database, not application code, is the authoritative guard for the
  engine's idempotency invariants:
  - idx_unique_fee_period:      one fee record per (student, month, year)
  - idx_unique_salary_period:   one salary record per (staff, month, year)
  - idx_unique_attendance_day:  one attendance record per (entity, date)
  Unique-violation errors are mapped onto the domain sentinels
  (billing.ErrDuplicatePeriodRecord, attendance.ErrDuplicateDay) so the
  generators convert them into ordinary skip outcomes. Two concurrent
  generation runs can both pass the in-memory pre-filter; whichever
  insert lands second loses here and becomes a skip, never a duplicate.

PAYMENT ATOMICITY:
  MarkPaid is a single conditional UPDATE (... WHERE paid = FALSE), so
  the already-paid check and the transition cannot interleave with
  another writer.

KEY TABLES:
  entities:           Students and staff (tenant, classroom, rate, status)
  fee_records:        Per-period fee bills with component breakdown
  salary_records:     Per-period salary slips with allowances/deductions
  attendance_records: Day-keyed attendance marks
  generation_runs:    Audit trail of bulk runs (scheduler + manual)

WAL MODE:
  SQLite is opened with WAL for better concurrency: readers don't block,
  single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/records.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production PostgreSQL, use a
  versioned migration tool instead.

SEE ALSO:
  - billing/store.go: Interface contracts
  - billing/store/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/skolara/records-engine/attendance"
	"github.com/skolara/records-engine/billing"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; with :memory: every pool connection would
	// even get its own database. A single connection sidesteps both.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Students and staff
	CREATE TABLE IF NOT EXISTS entities (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		code TEXT,
		classroom_id TEXT,
		rate TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL DEFAULT 'active',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entities_tenant_kind
		ON entities(tenant_id, kind, status);
	CREATE INDEX IF NOT EXISTS idx_entities_classroom
		ON entities(tenant_id, classroom_id) WHERE classroom_id IS NOT NULL;

	-- Fee records (one per student per period)
	CREATE TABLE IF NOT EXISTS fee_records (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		student_id TEXT NOT NULL,
		month INTEGER NOT NULL,
		year INTEGER NOT NULL,
		components_json TEXT NOT NULL,
		total TEXT NOT NULL,
		late_fee TEXT NOT NULL DEFAULT '0',
		discount TEXT NOT NULL DEFAULT '0',
		paid BOOLEAN NOT NULL DEFAULT FALSE,
		payment_mode TEXT,
		paid_on TEXT,
		notes TEXT,
		created_at TEXT NOT NULL
	);

	-- CRITICAL: the idempotency guard. Concurrent generation runs can both
	-- pass the pre-filter; this index decides, and the loser skips.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_fee_period
		ON fee_records(student_id, month, year);
	CREATE INDEX IF NOT EXISTS idx_fee_records_tenant_period
		ON fee_records(tenant_id, year, month);

	-- Salary records (one per staff member per period)
	CREATE TABLE IF NOT EXISTS salary_records (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		staff_id TEXT NOT NULL,
		month INTEGER NOT NULL,
		year INTEGER NOT NULL,
		base TEXT NOT NULL,
		allowances_json TEXT NOT NULL,
		bonuses TEXT NOT NULL DEFAULT '0',
		deductions_json TEXT NOT NULL,
		paid BOOLEAN NOT NULL DEFAULT FALSE,
		payment_mode TEXT,
		paid_on TEXT,
		notes TEXT,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_salary_period
		ON salary_records(staff_id, month, year);
	CREATE INDEX IF NOT EXISTS idx_salary_records_tenant_period
		ON salary_records(tenant_id, year, month);

	-- Attendance (one mark per entity per day)
	CREATE TABLE IF NOT EXISTS attendance_records (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		date TEXT NOT NULL,
		status TEXT NOT NULL,
		hours_worked TEXT NOT NULL DEFAULT '0',
		notes TEXT,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_attendance_day
		ON attendance_records(entity_id, date);
	CREATE INDEX IF NOT EXISTS idx_attendance_tenant_date
		ON attendance_records(tenant_id, date);

	-- Generation runs (audit trail)
	CREATE TABLE IF NOT EXISTS generation_runs (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		family TEXT NOT NULL,
		month INTEGER NOT NULL,
		year INTEGER NOT NULL,
		created_count INTEGER NOT NULL DEFAULT 0,
		skipped_count INTEGER NOT NULL DEFAULT 0,
		triggered_by TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_generation_runs_tenant
		ON generation_runs(tenant_id, created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ENTITY STORE (billing.EntityStore interface)
// =============================================================================

const entityColumns = `id, tenant_id, kind, name, code, classroom_id, rate, status, created_at`

func (s *Store) ListActive(ctx context.Context, tenant billing.TenantID, kind billing.EntityKind) ([]billing.BillableEntity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + entityColumns + ` FROM entities
		WHERE tenant_id = ? AND kind = ? AND status = 'active'
		ORDER BY name ASC`
	return s.queryEntities(ctx, query, tenant, kind)
}

func (s *Store) ListClassroom(ctx context.Context, tenant billing.TenantID, classroom billing.ClassroomID) ([]billing.BillableEntity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + entityColumns + ` FROM entities
		WHERE tenant_id = ? AND classroom_id = ? AND status = 'active'
		ORDER BY name ASC`
	return s.queryEntities(ctx, query, tenant, classroom)
}

func (s *Store) GetMany(ctx context.Context, tenant billing.TenantID, ids []billing.EntityID) ([]billing.BillableEntity, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + entityColumns + ` FROM entities
		WHERE tenant_id = ? AND id IN (` + placeholders(len(ids)) + `)`

	args := make([]any, 0, len(ids)+1)
	args = append(args, tenant)
	for _, id := range ids {
		args = append(args, id)
	}
	return s.queryEntities(ctx, query, args...)
}

func (s *Store) GetEntity(ctx context.Context, tenant billing.TenantID, id billing.EntityID) (billing.BillableEntity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + entityColumns + ` FROM entities WHERE tenant_id = ? AND id = ?`
	entities, err := s.queryEntities(ctx, query, tenant, id)
	if err != nil {
		return billing.BillableEntity{}, err
	}
	if len(entities) == 0 {
		return billing.BillableEntity{}, billing.ErrEntityNotFound
	}
	return entities[0], nil
}

func (s *Store) SaveEntity(ctx context.Context, e billing.BillableEntity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO entities (id, tenant_id, kind, name, code, classroom_id, rate, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			code = excluded.code,
			classroom_id = excluded.classroom_id,
			rate = excluded.rate,
			status = excluded.status
	`
	_, err := s.db.ExecContext(ctx, query,
		e.ID, e.TenantID, e.Kind, e.Name,
		nullString(e.Code), nullString(string(e.ClassroomID)),
		e.Rate.Value.String(), e.Status,
		createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save entity: %w", err)
	}
	return nil
}

func (s *Store) queryEntities(ctx context.Context, query string, args ...any) ([]billing.BillableEntity, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	var entities []billing.BillableEntity
	for rows.Next() {
		var (
			e         billing.BillableEntity
			code      sql.NullString
			classroom sql.NullString
			rate      string
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.TenantID, &e.Kind, &e.Name, &code, &classroom, &rate, &e.Status, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		e.Code = code.String
		e.ClassroomID = billing.ClassroomID(classroom.String)
		e.Rate = billing.MustParseMoney(rate)
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

// =============================================================================
// RECORD STORE (billing.RecordStore interface)
// =============================================================================

func (s *Store) InsertFee(ctx context.Context, r billing.FeeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	componentsJSON, err := json.Marshal(moneyMapToFloats(r.Components))
	if err != nil {
		return fmt.Errorf("failed to encode fee components: %w", err)
	}

	query := `
		INSERT INTO fee_records
		(id, tenant_id, student_id, month, year, components_json, total, late_fee, discount,
		 paid, payment_mode, paid_on, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, FALSE, NULL, NULL, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		r.ID, r.TenantID, r.StudentID, int(r.Period.Month), r.Period.Year,
		string(componentsJSON), r.Total.Value.String(),
		r.LateFee.Value.String(), r.Discount.Value.String(),
		nullString(r.Notes), r.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return &billing.DuplicateRecordError{EntityID: r.StudentID, Period: r.Period, Family: billing.FamilyFee}
		}
		return fmt.Errorf("failed to insert fee record: %w", err)
	}
	return nil
}

func (s *Store) InsertSalary(ctx context.Context, r billing.SalaryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	allowancesJSON, err := json.Marshal(moneyMapToFloats(r.Allowances))
	if err != nil {
		return fmt.Errorf("failed to encode allowances: %w", err)
	}
	deductionsJSON, err := json.Marshal(moneyMapToFloats(r.Deductions))
	if err != nil {
		return fmt.Errorf("failed to encode deductions: %w", err)
	}

	query := `
		INSERT INTO salary_records
		(id, tenant_id, staff_id, month, year, base, allowances_json, bonuses, deductions_json,
		 paid, payment_mode, paid_on, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, FALSE, NULL, NULL, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		r.ID, r.TenantID, r.StaffID, int(r.Period.Month), r.Period.Year,
		r.Base.Value.String(), string(allowancesJSON),
		r.Bonuses.Value.String(), string(deductionsJSON),
		nullString(r.Notes), r.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return &billing.DuplicateRecordError{EntityID: r.StaffID, Period: r.Period, Family: billing.FamilySalary}
		}
		return fmt.Errorf("failed to insert salary record: %w", err)
	}
	return nil
}

func (s *Store) ExistingEntities(ctx context.Context, tenant billing.TenantID, family billing.RecordFamily, period billing.PeriodKey, ids []billing.EntityID) (map[billing.EntityID]bool, error) {
	if len(ids) == 0 {
		return map[billing.EntityID]bool{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	table, column := "fee_records", "student_id"
	if family == billing.FamilySalary {
		table, column = "salary_records", "staff_id"
	}

	query := `SELECT ` + column + ` FROM ` + table + `
		WHERE tenant_id = ? AND month = ? AND year = ?
		  AND ` + column + ` IN (` + placeholders(len(ids)) + `)`

	args := make([]any, 0, len(ids)+3)
	args = append(args, tenant, int(period.Month), period.Year)
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing records: %w", err)
	}
	defer rows.Close()

	out := make(map[billing.EntityID]bool)
	for rows.Next() {
		var id billing.EntityID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan existing record: %w", err)
		}
		out[id] = true
	}
	return out, rows.Err()
}

const feeColumns = `id, tenant_id, student_id, month, year, components_json, total, late_fee, discount, paid, payment_mode, paid_on, notes, created_at`

func (s *Store) GetFee(ctx context.Context, id billing.RecordID) (billing.FeeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.queryFees(ctx, `SELECT `+feeColumns+` FROM fee_records WHERE id = ?`, id)
	if err != nil {
		return billing.FeeRecord{}, err
	}
	if len(rows) == 0 {
		return billing.FeeRecord{}, billing.ErrRecordNotFound
	}
	return rows[0], nil
}

func (s *Store) ListFees(ctx context.Context, tenant billing.TenantID, period billing.PeriodKey) ([]billing.FeeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + feeColumns + ` FROM fee_records
		WHERE tenant_id = ? AND month = ? AND year = ?
		ORDER BY created_at ASC`
	return s.queryFees(ctx, query, tenant, int(period.Month), period.Year)
}

func (s *Store) queryFees(ctx context.Context, query string, args ...any) ([]billing.FeeRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fee records: %w", err)
	}
	defer rows.Close()

	var records []billing.FeeRecord
	for rows.Next() {
		var (
			r              billing.FeeRecord
			month, year    int
			componentsJSON string
			total          string
			lateFee        string
			discount       string
			paymentMode    sql.NullString
			paidOn         sql.NullString
			notes          sql.NullString
			createdAt      string
		)
		err := rows.Scan(&r.ID, &r.TenantID, &r.StudentID, &month, &year,
			&componentsJSON, &total, &lateFee, &discount,
			&r.Paid, &paymentMode, &paidOn, &notes, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fee record: %w", err)
		}

		r.Period = billing.PeriodKey{Month: time.Month(month), Year: year}
		r.Components = floatsToMoneyMap(componentsJSON)
		r.Total = billing.MustParseMoney(total)
		r.LateFee = billing.MustParseMoney(lateFee)
		r.Discount = billing.MustParseMoney(discount)
		r.PaymentMode = billing.PaymentMode(paymentMode.String)
		r.PaidOn = parseDatePtr(paidOn)
		r.Notes = notes.String
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

		records = append(records, r)
	}
	return records, rows.Err()
}

const salaryColumns = `id, tenant_id, staff_id, month, year, base, allowances_json, bonuses, deductions_json, paid, payment_mode, paid_on, notes, created_at`

func (s *Store) GetSalary(ctx context.Context, id billing.RecordID) (billing.SalaryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.querySalaries(ctx, `SELECT `+salaryColumns+` FROM salary_records WHERE id = ?`, id)
	if err != nil {
		return billing.SalaryRecord{}, err
	}
	if len(rows) == 0 {
		return billing.SalaryRecord{}, billing.ErrRecordNotFound
	}
	return rows[0], nil
}

func (s *Store) ListSalaries(ctx context.Context, tenant billing.TenantID, period billing.PeriodKey) ([]billing.SalaryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + salaryColumns + ` FROM salary_records
		WHERE tenant_id = ? AND month = ? AND year = ?
		ORDER BY created_at ASC`
	return s.querySalaries(ctx, query, tenant, int(period.Month), period.Year)
}

func (s *Store) querySalaries(ctx context.Context, query string, args ...any) ([]billing.SalaryRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query salary records: %w", err)
	}
	defer rows.Close()

	var records []billing.SalaryRecord
	for rows.Next() {
		var (
			r              billing.SalaryRecord
			month, year    int
			base           string
			allowancesJSON string
			bonuses        string
			deductionsJSON string
			paymentMode    sql.NullString
			paidOn         sql.NullString
			notes          sql.NullString
			createdAt      string
		)
		err := rows.Scan(&r.ID, &r.TenantID, &r.StaffID, &month, &year,
			&base, &allowancesJSON, &bonuses, &deductionsJSON,
			&r.Paid, &paymentMode, &paidOn, &notes, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan salary record: %w", err)
		}

		r.Period = billing.PeriodKey{Month: time.Month(month), Year: year}
		r.Base = billing.MustParseMoney(base)
		r.Allowances = floatsToMoneyMap(allowancesJSON)
		r.Bonuses = billing.MustParseMoney(bonuses)
		r.Deductions = floatsToMoneyMap(deductionsJSON)
		r.PaymentMode = billing.PaymentMode(paymentMode.String)
		r.PaidOn = parseDatePtr(paidOn)
		r.Notes = notes.String
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

		records = append(records, r)
	}
	return records, rows.Err()
}

// MarkPaid transitions a record to paid with a single conditional UPDATE.
// The WHERE paid = FALSE clause makes the check-and-set atomic; a second
// caller matches zero rows and gets ErrAlreadyPaid.
func (s *Store) MarkPaid(ctx context.Context, family billing.RecordFamily, id billing.RecordID, mode billing.PaymentMode, paidOn time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	table := "fee_records"
	if family == billing.FamilySalary {
		table = "salary_records"
	}

	query := `UPDATE ` + table + `
		SET paid = TRUE, payment_mode = ?, paid_on = ?
		WHERE id = ? AND paid = FALSE`

	res, err := s.db.ExecContext(ctx, query, mode, billing.DayString(paidOn), id)
	if err != nil {
		return fmt.Errorf("failed to mark record paid: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check payment update: %w", err)
	}
	if affected == 0 {
		// Zero rows means the record is missing or already paid.
		var paid bool
		err := s.db.QueryRowContext(ctx, `SELECT paid FROM `+table+` WHERE id = ?`, id).Scan(&paid)
		if err == sql.ErrNoRows {
			return billing.ErrRecordNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check record state: %w", err)
		}
		return &billing.AlreadyPaidError{RecordID: id}
	}
	return nil
}

// =============================================================================
// ATTENDANCE STORE (attendance.Store interface)
// =============================================================================

func (s *Store) Insert(ctx context.Context, r attendance.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO attendance_records
		(id, tenant_id, entity_id, date, status, hours_worked, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.TenantID, r.EntityID, billing.DayString(r.Date),
		r.Status, r.HoursWorked.String(),
		nullString(r.Notes), r.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return attendance.ErrDuplicateDay
		}
		return fmt.Errorf("failed to insert attendance record: %w", err)
	}
	return nil
}

func (s *Store) MarkedEntities(ctx context.Context, tenant billing.TenantID, date time.Time, ids []billing.EntityID) (map[billing.EntityID]bool, error) {
	if len(ids) == 0 {
		return map[billing.EntityID]bool{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT entity_id FROM attendance_records
		WHERE tenant_id = ? AND date = ?
		  AND entity_id IN (` + placeholders(len(ids)) + `)`

	args := make([]any, 0, len(ids)+2)
	args = append(args, tenant, billing.DayString(date))
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query marked entities: %w", err)
	}
	defer rows.Close()

	out := make(map[billing.EntityID]bool)
	for rows.Next() {
		var id billing.EntityID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan marked entity: %w", err)
		}
		out[id] = true
	}
	return out, rows.Err()
}

func (s *Store) ListMonth(ctx context.Context, tenant billing.TenantID, period billing.PeriodKey, entity billing.EntityID) ([]attendance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, tenant_id, entity_id, date, status, hours_worked, notes, created_at
		FROM attendance_records
		WHERE tenant_id = ? AND date >= ? AND date <= ?`
	args := []any{tenant, billing.DayString(period.Start()), billing.DayString(period.End())}

	if entity != "" {
		query += ` AND entity_id = ?`
		args = append(args, entity)
	}
	query += ` ORDER BY date ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		var (
			r         attendance.Record
			date      string
			hours     string
			notes     sql.NullString
			createdAt string
		)
		if err := rows.Scan(&r.ID, &r.TenantID, &r.EntityID, &date, &r.Status, &hours, &notes, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		r.Date, _ = time.Parse("2006-01-02", date)
		r.HoursWorked = mustDecimal(hours)
		r.Notes = notes.String
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

// =============================================================================
// RUN STORE (billing.RunStore interface)
// =============================================================================

func (s *Store) SaveRun(ctx context.Context, run billing.GenerationRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO generation_runs
		(id, tenant_id, family, month, year, created_count, skipped_count, triggered_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		run.ID, run.TenantID, run.Family, int(run.Period.Month), run.Period.Year,
		run.CreatedCount, run.SkippedCount, nullString(run.TriggeredBy),
		run.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save generation run: %w", err)
	}
	return nil
}

func (s *Store) ListRuns(ctx context.Context, tenant billing.TenantID) ([]billing.GenerationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, tenant_id, family, month, year, created_count, skipped_count, triggered_by, created_at
		FROM generation_runs WHERE tenant_id = ? ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, tenant)
	if err != nil {
		return nil, fmt.Errorf("failed to query generation runs: %w", err)
	}
	defer rows.Close()

	var runs []billing.GenerationRun
	for rows.Next() {
		var (
			run         billing.GenerationRun
			month, year int
			triggeredBy sql.NullString
			createdAt   string
		)
		if err := rows.Scan(&run.ID, &run.TenantID, &run.Family, &month, &year,
			&run.CreatedCount, &run.SkippedCount, &triggeredBy, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan generation run: %w", err)
		}
		run.Period = billing.PeriodKey{Month: time.Month(month), Year: year}
		run.TriggeredBy = triggeredBy.String
		run.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func parseDatePtr(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", ns.String)
	if err != nil {
		return nil
	}
	return &t
}

func moneyMapToFloats(m billing.ComponentMap) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v.Float64()
	}
	return out
}

func floatsToMoneyMap(jsonStr string) billing.ComponentMap {
	var floats map[string]float64
	if err := json.Unmarshal([]byte(jsonStr), &floats); err != nil {
		return billing.ComponentMap{}
	}
	out := make(billing.ComponentMap, len(floats))
	for k, v := range floats {
		out[k] = billing.NewMoney(v)
	}
	return out
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}

/*
Package billing provides the periodic record generation engine.

PURPOSE:
  This package contains the domain types and algorithms for generating
  per-period financial records (tuition fees for students, salaries for
  staff) across a population of entities, transitioning those records
  through their payment lifecycle, and summarizing them for reporting.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A monetary amount backed by decimal.Decimal
  - ComponentMap: A named breakdown (tuition, transport, ...) summed into a base amount
  - BillableEntity: A student or staff member subject to periodic records
  - FeeRecord / SalaryRecord: The two financial record families
  - GenerationRequest / GenerationResult: Input and outcome of a bulk run

DESIGN PRINCIPLES:
  1. Idempotency: At most one record per (entity, period, family) — enforced
     at the store, pre-filtered in the generator
  2. Precision: Uses decimal.Decimal to avoid floating-point errors
  3. Partial-failure isolation: One bad entity never aborts a batch
  4. Derivation: Final/gross/net amounts are computed by shared pure
     functions (money.go), never stored and never recomputed inline

USAGE:
  req := billing.GenerationRequest{
      TenantID:   "school-1",
      Period:     billing.NewPeriodKey(time.June, 2025),
      Scope:      billing.ScopeClassroom("class-6a"),
      Components: billing.ComponentMap{"tuition": billing.NewMoney(1000)},
  }
  result, err := generator.GenerateFees(ctx, req)

SEE ALSO:
  - period.go: Period keys and month boundaries
  - money.go: Shared amount derivations
  - generator.go: The idempotent bulk generator
  - payment.go: Unpaid -> Paid transition
*/
package billing

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Monetary amount (currency-agnostic, tenant decides)
// =============================================================================

type Money struct {
	Value decimal.Decimal
}

func NewMoney(value float64) Money {
	return Money{Value: decimal.NewFromFloat(value)}
}

func NewMoneyFromInt(value int) Money {
	return Money{Value: decimal.NewFromInt(int64(value))}
}

func MustParseMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{Value: decimal.Zero}
	}
	return Money{Value: d}
}

func ZeroMoney() Money { return Money{Value: decimal.Zero} }

func (m Money) Add(b Money) Money        { return Money{Value: m.Value.Add(b.Value)} }
func (m Money) Sub(b Money) Money        { return Money{Value: m.Value.Sub(b.Value)} }
func (m Money) Neg() Money               { return Money{Value: m.Value.Neg()} }
func (m Money) IsZero() bool             { return m.Value.IsZero() }
func (m Money) IsNegative() bool         { return m.Value.IsNegative() }
func (m Money) IsPositive() bool         { return m.Value.IsPositive() }
func (m Money) Equal(b Money) bool       { return m.Value.Equal(b.Value) }
func (m Money) GreaterThan(b Money) bool { return m.Value.GreaterThan(b.Value) }
func (m Money) LessThan(b Money) bool    { return m.Value.LessThan(b.Value) }
func (m Money) String() string           { return m.Value.StringFixed(2) }

// Float64 is for JSON responses only. Internal math stays on decimal.
func (m Money) Float64() float64 {
	f, _ := m.Value.Float64()
	return f
}

// =============================================================================
// COMPONENT MAP - Named amount breakdown
// =============================================================================

// ComponentMap is a free-form breakdown of named amounts, e.g.
// {"tuition": 1000, "transport": 200} for fees or
// {"housing": 300, "medical": 150} for salary allowances.
// Key order is irrelevant; a nil map sums to zero.
type ComponentMap map[string]Money

// Sum adds up all component values. Missing entries contribute zero.
func (c ComponentMap) Sum() Money {
	total := ZeroMoney()
	for _, v := range c {
		total = total.Add(v)
	}
	return total
}

// Names returns the component names in sorted order (for stable output).
func (c ComponentMap) Names() []string {
	names := make([]string, 0, len(c))
	for k := range c {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy so stored records don't alias request maps.
func (c ComponentMap) Clone() ComponentMap {
	if c == nil {
		return nil
	}
	out := make(ComponentMap, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type TenantID string
type EntityID string
type RecordID string
type ClassroomID string

// RecordFamily identifies which periodic record family an operation targets.
type RecordFamily string

const (
	FamilyFee        RecordFamily = "fee"
	FamilySalary     RecordFamily = "salary"
	FamilyAttendance RecordFamily = "attendance"
)

// =============================================================================
// BILLABLE ENTITY - Student or staff member
// =============================================================================

type EntityKind string

const (
	KindStudent EntityKind = "student"
	KindStaff   EntityKind = "staff"
)

type EntityStatus string

const (
	StatusActive   EntityStatus = "active"
	StatusInactive EntityStatus = "inactive"
	StatusResigned EntityStatus = "resigned"
)

// BillableEntity is a student or staff member eligible for periodic records.
// Rate is the per-period base amount: the agreed monthly fee for a student,
// the monthly salary for a staff member.
type BillableEntity struct {
	ID          EntityID
	TenantID    TenantID
	Kind        EntityKind
	Name        string
	Code        string // display code: admission number / employee number
	ClassroomID ClassroomID
	Rate        Money
	Status      EntityStatus
	CreatedAt   time.Time
}

// Billable reports whether the entity is eligible for record generation.
// Only active entities are; inactive and resigned are excluded everywhere.
func (e BillableEntity) Billable() bool {
	return e.Status == StatusActive
}

// =============================================================================
// PAYMENT MODES
// =============================================================================

type PaymentMode string

const (
	PayCash         PaymentMode = "cash"
	PayOnline       PaymentMode = "online"
	PayCheque       PaymentMode = "cheque"
	PayCard         PaymentMode = "card"
	PayBankTransfer PaymentMode = "bank_transfer"
)

// ValidPaymentMode reports whether mode is one of the accepted enum values.
func ValidPaymentMode(mode PaymentMode) bool {
	switch mode {
	case PayCash, PayOnline, PayCheque, PayCard, PayBankTransfer:
		return true
	}
	return false
}

// =============================================================================
// FINANCIAL RECORDS
// =============================================================================

// FeeRecord is a student's fee bill for one period.
// Total is the component sum captured at generation time; the amount actually
// owed is derived via FeeFinalAmount (total + late fee - discount).
type FeeRecord struct {
	ID         RecordID
	TenantID   TenantID
	StudentID  EntityID
	Period     PeriodKey
	Components ComponentMap
	Total      Money
	LateFee    Money
	Discount   Money

	Paid        bool
	PaymentMode PaymentMode // empty while unpaid
	PaidOn      *time.Time  // nil while unpaid
	Notes       string
	CreatedAt   time.Time
}

// SalaryRecord is a staff member's salary slip for one period.
// Base is the entity's monthly rate captured at generation time.
// Gross and net are always derived (SalaryGross, SalaryNet), never stored.
type SalaryRecord struct {
	ID         RecordID
	TenantID   TenantID
	StaffID    EntityID
	Period     PeriodKey
	Base       Money
	Allowances ComponentMap
	Bonuses    Money
	Deductions ComponentMap

	Paid        bool
	PaymentMode PaymentMode
	PaidOn      *time.Time
	Notes       string
	CreatedAt   time.Time
}

// =============================================================================
// GENERATION REQUEST / RESULT
// =============================================================================

// PopulationScope selects which entities a generation run targets.
// Exactly one selector should be set; helpers below construct valid scopes.
type PopulationScope struct {
	Classroom ClassroomID
	Entities  []EntityID
	AllActive bool
}

func ScopeClassroom(id ClassroomID) PopulationScope { return PopulationScope{Classroom: id} }
func ScopeEntities(ids ...EntityID) PopulationScope { return PopulationScope{Entities: ids} }
func ScopeAllActive() PopulationScope               { return PopulationScope{AllActive: true} }

// GenerationRequest describes one bulk generation run.
// Components holds fee components for fee runs and allowances for salary
// runs. LateFee/Discount apply to fees only; Bonuses/Deductions to salaries.
type GenerationRequest struct {
	TenantID   TenantID
	Period     PeriodKey
	Scope      PopulationScope
	Components ComponentMap
	LateFee    Money
	Discount   Money
	Bonuses    Money
	Deductions ComponentMap
	Notes      string
}

type SkipReason string

const (
	// SkipDuplicate: the entity already has a record for this period.
	// Expected and harmless on re-runs.
	SkipDuplicate SkipReason = "duplicate_period_record"

	// SkipInsertFailed: the store rejected this entity's record. The batch
	// continues; Detail carries the underlying error message.
	SkipInsertFailed SkipReason = "insert_failed"
)

// CreatedRecord summarizes one record produced by a generation run.
type CreatedRecord struct {
	RecordID   RecordID
	EntityID   EntityID
	EntityName string
	EntityCode string
	Amount     Money // derived final amount (fee) or gross (salary)
}

// SkippedEntity explains why a candidate entity produced no new record.
type SkippedEntity struct {
	EntityID   EntityID
	EntityName string
	Reason     SkipReason
	Detail     string
}

// GenerationResult reports exactly what a bulk run did. It is ephemeral:
// returned to the caller for display, never persisted.
type GenerationResult struct {
	Family  RecordFamily
	Period  PeriodKey
	Created []CreatedRecord
	Skipped []SkippedEntity
}

func (r GenerationResult) CreatedCount() int { return len(r.Created) }
func (r GenerationResult) SkippedCount() int { return len(r.Skipped) }

package billing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/skolara/records-engine/billing"
)

// =============================================================================
// PERIOD KEYS
// =============================================================================

func TestPeriodKey_Valid(t *testing.T) {
	tests := []struct {
		name  string
		month time.Month
		year  int
		want  bool
	}{
		{"january", time.January, 2026, true},
		{"december", time.December, 2026, true},
		{"month zero", time.Month(0), 2026, false},
		{"month thirteen", time.Month(13), 2026, false},
		{"year zero", time.June, 0, false},
		{"negative year", time.June, -5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := billing.NewPeriodKey(tt.month, tt.year)
			assert.Equal(t, tt.want, p.Valid())
		})
	}
}

func TestPeriodKey_Bounds(t *testing.T) {
	// February 2024 is a leap month; the period must cover the 29th.
	feb := billing.NewPeriodKey(time.February, 2024)

	assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), feb.Start())
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), feb.End())

	assert.True(t, feb.Contains(time.Date(2024, time.February, 29, 15, 30, 0, 0, time.UTC)))
	assert.False(t, feb.Contains(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, feb.Contains(time.Date(2024, time.January, 31, 23, 59, 59, 0, time.UTC)))
}

func TestPeriodKey_NextPrevious_YearRollover(t *testing.T) {
	dec := billing.NewPeriodKey(time.December, 2025)
	jan := billing.NewPeriodKey(time.January, 2026)

	assert.Equal(t, jan, dec.Next())
	assert.Equal(t, dec, jan.Previous())
}

func TestPeriodKey_String(t *testing.T) {
	assert.Equal(t, "2026-04", billing.NewPeriodKey(time.April, 2026).String())
	assert.Equal(t, "2026-11", billing.NewPeriodKey(time.November, 2026).String())
}

func TestCurrentPeriod(t *testing.T) {
	now := time.Date(2026, time.September, 17, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, billing.NewPeriodKey(time.September, 2026), billing.CurrentPeriod(now))
}

// =============================================================================
// DAY TRUNCATION
// =============================================================================

func TestDay_TruncatesToUTCMidnight(t *testing.T) {
	stamp := time.Date(2026, time.April, 10, 18, 45, 12, 999, time.UTC)
	day := billing.Day(stamp)

	assert.Equal(t, time.Date(2026, time.April, 10, 0, 0, 0, 0, time.UTC), day)
	assert.Equal(t, "2026-04-10", billing.DayString(stamp))
}

// =============================================================================
// DERIVED AMOUNTS
// =============================================================================

func TestFeeFinalAmount(t *testing.T) {
	rec := billing.FeeRecord{
		Total:    billing.NewMoney(500),
		LateFee:  billing.NewMoney(25),
		Discount: billing.NewMoney(75),
	}
	assert.True(t, billing.FeeFinalAmount(rec).Equal(billing.NewMoney(450)))
}

func TestSalaryGrossAndNet(t *testing.T) {
	rec := billing.SalaryRecord{
		Base:       billing.NewMoney(3000),
		Allowances: billing.ComponentMap{"housing": billing.NewMoney(400)},
		Bonuses:    billing.NewMoney(100),
		Deductions: billing.ComponentMap{"tax": billing.NewMoney(350)},
	}
	assert.True(t, billing.SalaryGross(rec).Equal(billing.NewMoney(3500)))
	assert.True(t, billing.SalaryNet(rec).Equal(billing.NewMoney(3150)))
}

func TestComponentMap_Sum(t *testing.T) {
	assert.True(t, billing.ComponentMap{}.Sum().IsZero())

	m := billing.ComponentMap{
		"a": billing.NewMoney(1.10),
		"b": billing.NewMoney(2.20),
	}
	assert.True(t, m.Sum().Equal(billing.NewMoney(3.30)), "decimal sum must be exact")
}

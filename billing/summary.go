/*
summary.go - Period summaries for financial records

PURPOSE:
  Tallies paid vs unpaid and sums the derived amounts on each side for a
  period. Dashboards and reports consume these instead of aggregating
  whatever page of results happens to be loaded: the Summarizer folds
  over the store's unpaginated period listing, so totals are tenant-wide.

SHAPE:
  sum(counts) == total_records always holds; an empty period yields an
  all-zero summary, never an error.

SEE ALSO:
  - money.go: The derivations folded here (FeeFinalAmount, SalaryGross)
  - attendance/summary.go: The attendance counterpart
*/
package billing

import "context"

// FinancialSummary is the dashboard shape for one record family and period.
type FinancialSummary struct {
	Family       RecordFamily
	Period       PeriodKey
	TotalRecords int
	PaidCount    int
	UnpaidCount  int
	PaidAmount   Money
	UnpaidAmount Money
}

// Summarizer computes financial summaries from the record store.
type Summarizer struct {
	Records RecordStore
}

func NewSummarizer(records RecordStore) *Summarizer {
	return &Summarizer{Records: records}
}

// SummarizeFees aggregates every fee record of the period for the tenant.
func (s *Summarizer) SummarizeFees(ctx context.Context, tenant TenantID, period PeriodKey) (FinancialSummary, error) {
	records, err := s.Records.ListFees(ctx, tenant, period)
	if err != nil {
		return FinancialSummary{}, err
	}
	return FeeSummary(period, records), nil
}

// SummarizeSalaries aggregates every salary record of the period.
func (s *Summarizer) SummarizeSalaries(ctx context.Context, tenant TenantID, period PeriodKey) (FinancialSummary, error) {
	records, err := s.Records.ListSalaries(ctx, tenant, period)
	if err != nil {
		return FinancialSummary{}, err
	}
	return SalarySummary(period, records), nil
}

// FeeSummary folds an explicit record collection. Exposed for callers that
// already hold the records (receipt batches, exports).
func FeeSummary(period PeriodKey, records []FeeRecord) FinancialSummary {
	summary := FinancialSummary{
		Family:       FamilyFee,
		Period:       period,
		PaidAmount:   ZeroMoney(),
		UnpaidAmount: ZeroMoney(),
	}
	for _, r := range records {
		amount := FeeFinalAmount(r)
		summary.TotalRecords++
		if r.Paid {
			summary.PaidCount++
			summary.PaidAmount = summary.PaidAmount.Add(amount)
		} else {
			summary.UnpaidCount++
			summary.UnpaidAmount = summary.UnpaidAmount.Add(amount)
		}
	}
	return summary
}

// SalarySummary folds an explicit record collection using gross amounts.
func SalarySummary(period PeriodKey, records []SalaryRecord) FinancialSummary {
	summary := FinancialSummary{
		Family:       FamilySalary,
		Period:       period,
		PaidAmount:   ZeroMoney(),
		UnpaidAmount: ZeroMoney(),
	}
	for _, r := range records {
		amount := SalaryGross(r)
		summary.TotalRecords++
		if r.Paid {
			summary.PaidCount++
			summary.PaidAmount = summary.PaidAmount.Add(amount)
		} else {
			summary.UnpaidCount++
			summary.UnpaidAmount = summary.UnpaidAmount.Add(amount)
		}
	}
	return summary
}

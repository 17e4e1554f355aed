/*
money.go - Shared amount derivations

PURPOSE:
  The single definition of every derived monetary amount. All read paths
  (list views, receipts, slips, summaries, exports) call these functions
  instead of recomputing inline, so the numbers cannot drift between
  call sites.

DERIVATIONS:
  FeeFinalAmount = total + late_fee - discount
  SalaryGross    = base + sum(allowances) + bonuses
  SalaryNet      = gross - sum(deductions)

  Net salary is derived here like everything else. It is never stored,
  so it cannot fall out of sync with its inputs.

SEE ALSO:
  - types.go: ComponentMap.Sum (missing components contribute zero)
  - summary.go: Folds these derivations into period totals
*/
package billing

// FeeFinalAmount returns the amount actually owed on a fee record.
func FeeFinalAmount(r FeeRecord) Money {
	return r.Total.Add(r.LateFee).Sub(r.Discount)
}

// SalaryGross returns the gross payable on a salary record.
func SalaryGross(r SalaryRecord) Money {
	return r.Base.Add(r.Allowances.Sum()).Add(r.Bonuses)
}

// SalaryNet returns the net payable after deductions.
func SalaryNet(r SalaryRecord) Money {
	return SalaryGross(r).Sub(r.Deductions.Sum())
}

/*
payment.go - The Unpaid -> Paid transition

PURPOSE:
  The only state machine in the engine. A record starts unpaid and can be
  marked paid exactly once, recording how and when. There is no reverse
  transition here; corrections are a tenant-admin concern.

STATE DIAGRAM:
  Unpaid --MarkPaid(mode, date)--> Paid (terminal)

GUARDS:
  - The mode must be one of the enumerated payment modes; rejected before
    any mutation.
  - Marking an already-paid record is rejected with ErrAlreadyPaid rather
    than silently overwriting mode/date, so a historic payment can never
    be accidentally re-dated. The store performs the check-and-set
    atomically (conditional update), not as a read-then-write.

INVARIANT:
  paid=false <=> mode unset and paid-on unset
  paid=true  <=> both set
*/
package billing

import (
	"context"
	"time"
)

// PaymentProcessor applies payment transitions to financial records.
type PaymentProcessor struct {
	Records RecordStore

	Now func() time.Time
}

func NewPaymentProcessor(records RecordStore) *PaymentProcessor {
	return &PaymentProcessor{Records: records, Now: time.Now}
}

// MarkPaid marks a record of the given family paid. A zero paidOn defaults
// to today. Returns ErrInvalidPaymentMode, ErrRecordNotFound, or
// ErrAlreadyPaid; on success the record carries mode and date.
func (p *PaymentProcessor) MarkPaid(ctx context.Context, family RecordFamily, id RecordID, mode PaymentMode, paidOn time.Time) error {
	if !ValidPaymentMode(mode) {
		return &PaymentModeError{Mode: mode}
	}

	if paidOn.IsZero() {
		now := time.Now()
		if p.Now != nil {
			now = p.Now()
		}
		paidOn = Day(now)
	} else {
		paidOn = Day(paidOn)
	}

	return p.Records.MarkPaid(ctx, family, id, mode, paidOn)
}

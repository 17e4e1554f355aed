/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

VALIDATION:
  Request types carry go-playground/validator struct tags. Handlers run
  decodeAndValidate before touching domain logic, so malformed bodies
  never reach the engine.

MONEY:
  Amounts cross the wire as float64 and are converted to decimal at the
  boundary. Internally everything is decimal; floats exist only in JSON.

SEE ALSO:
  - handlers.go: Uses these types
  - billing/types.go: Domain model these map onto
*/
package api

import (
	"time"

	"github.com/skolara/records-engine/attendance"
	"github.com/skolara/records-engine/billing"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ScopeRequest selects which entities a bulk operation targets.
// Exactly one selector should be set; all_active wins if combined.
type ScopeRequest struct {
	ClassroomID string   `json:"classroom_id,omitempty"`
	EntityIDs   []string `json:"entity_ids,omitempty"`
	AllActive   bool     `json:"all_active,omitempty"`
}

func (s ScopeRequest) toScope() billing.PopulationScope {
	if s.AllActive {
		return billing.ScopeAllActive()
	}
	if s.ClassroomID != "" {
		return billing.ScopeClassroom(billing.ClassroomID(s.ClassroomID))
	}
	ids := make([]billing.EntityID, len(s.EntityIDs))
	for i, id := range s.EntityIDs {
		ids[i] = billing.EntityID(id)
	}
	return billing.ScopeEntities(ids...)
}

// GenerateFeesRequest is the body of POST /api/fees/generate.
type GenerateFeesRequest struct {
	Month      int                `json:"month" validate:"required,min=1,max=12"`
	Year       int                `json:"year" validate:"required,min=2000,max=2100"`
	Scope      ScopeRequest       `json:"scope"`
	Components map[string]float64 `json:"components" validate:"required,min=1"`
	LateFee    float64            `json:"late_fee" validate:"gte=0"`
	Discount   float64            `json:"discount" validate:"gte=0"`
	Notes      string             `json:"notes"`
}

// GenerateSalariesRequest is the body of POST /api/salaries/generate.
type GenerateSalariesRequest struct {
	Month      int                `json:"month" validate:"required,min=1,max=12"`
	Year       int                `json:"year" validate:"required,min=2000,max=2100"`
	Scope      ScopeRequest       `json:"scope"`
	Allowances map[string]float64 `json:"allowances"`
	Bonuses    float64            `json:"bonuses" validate:"gte=0"`
	Deductions map[string]float64 `json:"deductions"`
	Notes      string             `json:"notes"`
}

// MarkAttendanceRequest is the body of POST /api/attendance/mark.
type MarkAttendanceRequest struct {
	Kind        string       `json:"kind" validate:"required,oneof=student staff"`
	Date        string       `json:"date" validate:"required,datetime=2006-01-02"`
	Scope       ScopeRequest `json:"scope"`
	Status      string       `json:"status" validate:"required"`
	HoursWorked float64      `json:"hours_worked" validate:"gte=0"`
	Notes       string       `json:"notes"`
}

// PayRequest is the body of POST /api/records/{id}/pay.
type PayRequest struct {
	Family string `json:"family" validate:"required,oneof=fee salary"`
	Mode   string `json:"mode" validate:"required"`
	PaidOn string `json:"paid_on,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// CreateEntityRequest is the body of POST /api/students and POST /api/staff.
type CreateEntityRequest struct {
	Name        string  `json:"name" validate:"required"`
	Code        string  `json:"code"`
	ClassroomID string  `json:"classroom_id"`
	Rate        float64 `json:"rate" validate:"gte=0"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// CreatedRecordDTO is one successful creation within a bulk run.
type CreatedRecordDTO struct {
	RecordID   string  `json:"record_id"`
	EntityID   string  `json:"entity_id"`
	EntityName string  `json:"entity_name"`
	EntityCode string  `json:"entity_code,omitempty"`
	Amount     float64 `json:"amount"`
}

// SkippedEntityDTO is one skipped entity within a bulk run.
type SkippedEntityDTO struct {
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Reason     string `json:"reason"`
	Detail     string `json:"detail,omitempty"`
}

// GenerationResultDTO is the response of every bulk operation.
type GenerationResultDTO struct {
	Family       string             `json:"family"`
	Period       string             `json:"period"`
	CreatedCount int                `json:"created_count"`
	SkippedCount int                `json:"skipped_count"`
	Created      []CreatedRecordDTO `json:"created"`
	Skipped      []SkippedEntityDTO `json:"skipped"`
}

func toGenerationResultDTO(r billing.GenerationResult) GenerationResultDTO {
	dto := GenerationResultDTO{
		Family:       string(r.Family),
		Period:       r.Period.String(),
		CreatedCount: r.CreatedCount(),
		SkippedCount: r.SkippedCount(),
		Created:      make([]CreatedRecordDTO, 0, len(r.Created)),
		Skipped:      make([]SkippedEntityDTO, 0, len(r.Skipped)),
	}
	for _, c := range r.Created {
		dto.Created = append(dto.Created, CreatedRecordDTO{
			RecordID:   string(c.RecordID),
			EntityID:   string(c.EntityID),
			EntityName: c.EntityName,
			EntityCode: c.EntityCode,
			Amount:     c.Amount.Float64(),
		})
	}
	for _, s := range r.Skipped {
		dto.Skipped = append(dto.Skipped, SkippedEntityDTO{
			EntityID:   string(s.EntityID),
			EntityName: s.EntityName,
			Reason:     string(s.Reason),
			Detail:     s.Detail,
		})
	}
	return dto
}

// FeeRecordDTO represents a fee record in API responses.
type FeeRecordDTO struct {
	ID          string             `json:"id"`
	StudentID   string             `json:"student_id"`
	Period      string             `json:"period"`
	Components  map[string]float64 `json:"components"`
	Total       float64            `json:"total"`
	LateFee     float64            `json:"late_fee"`
	Discount    float64            `json:"discount"`
	FinalAmount float64            `json:"final_amount"`
	Paid        bool               `json:"paid"`
	PaymentMode string             `json:"payment_mode,omitempty"`
	PaidOn      string             `json:"paid_on,omitempty"`
	Notes       string             `json:"notes,omitempty"`
	CreatedAt   string             `json:"created_at"`
}

func toFeeRecordDTO(r billing.FeeRecord) FeeRecordDTO {
	dto := FeeRecordDTO{
		ID:          string(r.ID),
		StudentID:   string(r.StudentID),
		Period:      r.Period.String(),
		Components:  moneyMapToFloats(r.Components),
		Total:       r.Total.Float64(),
		LateFee:     r.LateFee.Float64(),
		Discount:    r.Discount.Float64(),
		FinalAmount: billing.FeeFinalAmount(r).Float64(),
		Paid:        r.Paid,
		PaymentMode: string(r.PaymentMode),
		Notes:       r.Notes,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
	if r.PaidOn != nil {
		dto.PaidOn = billing.DayString(*r.PaidOn)
	}
	return dto
}

// SalaryRecordDTO represents a salary record in API responses.
type SalaryRecordDTO struct {
	ID          string             `json:"id"`
	StaffID     string             `json:"staff_id"`
	Period      string             `json:"period"`
	Base        float64            `json:"base"`
	Allowances  map[string]float64 `json:"allowances"`
	Bonuses     float64            `json:"bonuses"`
	Deductions  map[string]float64 `json:"deductions"`
	Gross       float64            `json:"gross"`
	Net         float64            `json:"net"`
	Paid        bool               `json:"paid"`
	PaymentMode string             `json:"payment_mode,omitempty"`
	PaidOn      string             `json:"paid_on,omitempty"`
	Notes       string             `json:"notes,omitempty"`
	CreatedAt   string             `json:"created_at"`
}

func toSalaryRecordDTO(r billing.SalaryRecord) SalaryRecordDTO {
	dto := SalaryRecordDTO{
		ID:          string(r.ID),
		StaffID:     string(r.StaffID),
		Period:      r.Period.String(),
		Base:        r.Base.Float64(),
		Allowances:  moneyMapToFloats(r.Allowances),
		Bonuses:     r.Bonuses.Float64(),
		Deductions:  moneyMapToFloats(r.Deductions),
		Gross:       billing.SalaryGross(r).Float64(),
		Net:         billing.SalaryNet(r).Float64(),
		Paid:        r.Paid,
		PaymentMode: string(r.PaymentMode),
		Notes:       r.Notes,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
	if r.PaidOn != nil {
		dto.PaidOn = billing.DayString(*r.PaidOn)
	}
	return dto
}

// FinancialSummaryDTO is the response of the fee/salary summary endpoints.
type FinancialSummaryDTO struct {
	Family       string  `json:"family"`
	Period       string  `json:"period"`
	TotalRecords int     `json:"total_records"`
	PaidCount    int     `json:"paid_count"`
	UnpaidCount  int     `json:"unpaid_count"`
	PaidAmount   float64 `json:"paid_amount"`
	UnpaidAmount float64 `json:"unpaid_amount"`
}

func toFinancialSummaryDTO(s billing.FinancialSummary) FinancialSummaryDTO {
	return FinancialSummaryDTO{
		Family:       string(s.Family),
		Period:       s.Period.String(),
		TotalRecords: s.TotalRecords,
		PaidCount:    s.PaidCount,
		UnpaidCount:  s.UnpaidCount,
		PaidAmount:   s.PaidAmount.Float64(),
		UnpaidAmount: s.UnpaidAmount.Float64(),
	}
}

// StatusCountsDTO mirrors attendance.StatusCounts.
type StatusCountsDTO struct {
	Present  int `json:"present"`
	Absent   int `json:"absent"`
	Leave    int `json:"leave"`
	HalfDay  int `json:"half_day"`
	Overtime int `json:"overtime"`
	Total    int `json:"total"`
}

func toStatusCountsDTO(c attendance.StatusCounts) StatusCountsDTO {
	return StatusCountsDTO{
		Present:  c.Present,
		Absent:   c.Absent,
		Leave:    c.Leave,
		HalfDay:  c.HalfDay,
		Overtime: c.Overtime,
		Total:    c.Total(),
	}
}

// EntityBreakdownDTO is one entity's attendance counts within a month.
type EntityBreakdownDTO struct {
	EntityID   string          `json:"entity_id"`
	EntityName string          `json:"entity_name"`
	Counts     StatusCountsDTO `json:"counts"`
}

// AttendanceSummaryDTO is the response of GET /api/attendance/summary.
type AttendanceSummaryDTO struct {
	Period       string               `json:"period"`
	TotalRecords int                  `json:"total_records"`
	Counts       StatusCountsDTO      `json:"counts"`
	PerEntity    []EntityBreakdownDTO `json:"per_entity,omitempty"`
}

// ReceiptDTO is a printable payment receipt for a paid fee record.
type ReceiptDTO struct {
	RecordID    string  `json:"record_id"`
	StudentID   string  `json:"student_id"`
	StudentName string  `json:"student_name"`
	Period      string  `json:"period"`
	Amount      float64 `json:"amount"`
	PaymentMode string  `json:"payment_mode"`
	PaidOn      string  `json:"paid_on"`
}

// EntityDTO represents a student or staff member in API responses.
type EntityDTO struct {
	ID          string  `json:"id"`
	Kind        string  `json:"kind"`
	Name        string  `json:"name"`
	Code        string  `json:"code,omitempty"`
	ClassroomID string  `json:"classroom_id,omitempty"`
	Rate        float64 `json:"rate"`
	Status      string  `json:"status"`
}

func toEntityDTO(e billing.BillableEntity) EntityDTO {
	return EntityDTO{
		ID:          string(e.ID),
		Kind:        string(e.Kind),
		Name:        e.Name,
		Code:        e.Code,
		ClassroomID: string(e.ClassroomID),
		Rate:        e.Rate.Float64(),
		Status:      string(e.Status),
	}
}

// GenerationRunDTO is one audit-trail entry for a bulk run.
type GenerationRunDTO struct {
	ID           string `json:"id"`
	Family       string `json:"family"`
	Period       string `json:"period"`
	CreatedCount int    `json:"created_count"`
	SkippedCount int    `json:"skipped_count"`
	TriggeredBy  string `json:"triggered_by,omitempty"`
	CreatedAt    string `json:"created_at"`
}

func toGenerationRunDTO(r billing.GenerationRun) GenerationRunDTO {
	return GenerationRunDTO{
		ID:           string(r.ID),
		Family:       string(r.Family),
		Period:       r.Period.String(),
		CreatedCount: r.CreatedCount,
		SkippedCount: r.SkippedCount,
		TriggeredBy:  r.TriggeredBy,
		CreatedAt:    r.CreatedAt.Format(time.RFC3339),
	}
}

// DashboardDTO is the at-a-glance view for the current period.
type DashboardDTO struct {
	Period     string              `json:"period"`
	Fees       FinancialSummaryDTO `json:"fees"`
	Salaries   FinancialSummaryDTO `json:"salaries"`
	Attendance StatusCountsDTO     `json:"attendance"`
	Students   int                 `json:"active_students"`
	Staff      int                 `json:"active_staff"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func moneyMapToFloats(m billing.ComponentMap) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v.Float64()
	}
	return out
}

func floatsToMoneyMap(m map[string]float64) billing.ComponentMap {
	out := make(billing.ComponentMap, len(m))
	for k, v := range m {
		out[k] = billing.NewMoney(v)
	}
	return out
}

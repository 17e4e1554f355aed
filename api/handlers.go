/*
handlers.go - HTTP API handlers for the records engine

PURPOSE:
  Exposes the record generation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Generation:
    POST   /api/fees/generate        Bulk-generate fee records for a period
    POST   /api/salaries/generate    Bulk-generate salary records for a period
    POST   /api/attendance/mark      Bulk-mark attendance for a day

  Records:
    GET    /api/fees                 List fee records for a period
    GET    /api/salaries             List salary records for a period
    POST   /api/records/{id}/pay     Mark a record as paid
    GET    /api/records/{id}/receipt Payment receipt for a paid fee

  Summaries:
    GET    /api/fees/summary         Paid/unpaid totals for a period
    GET    /api/salaries/summary     Paid/unpaid totals for a period
    GET    /api/attendance/summary   Status counts for a month
    GET    /api/dashboard            Current-period overview

  Entities:
    GET    /api/students, POST /api/students
    GET    /api/staff,    POST /api/staff

  Admin:
    GET    /api/admin/runs           Generation run audit trail

TENANCY:
  Every request must carry an X-Tenant-ID header. There is no ambient
  session; the tenant is an explicit parameter all the way down, and a
  missing header is a 400 before any store access.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, missing tenant
  - 404: Resource not found
  - 409: Conflict (already paid, duplicate record)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - billing/generator.go: Bulk generation semantics
*/
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/skolara/records-engine/attendance"
	"github.com/skolara/records-engine/billing"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Stores bundles the persistence interfaces the handlers need. The SQLite
// store satisfies all of them; tests can mix and match.
type Stores interface {
	billing.EntityStore
	billing.RecordStore
	billing.RunStore
	attendance.Store
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store Stores

	generator  *billing.Generator
	payments   *billing.PaymentProcessor
	marker     *attendance.Marker
	summarizer *billing.Summarizer
	attSummary *attendance.Summarizer
	validate   *validator.Validate
}

// NewHandler creates a new handler with the given store.
func NewHandler(store Stores) *Handler {
	return &Handler{
		Store:      store,
		generator:  billing.NewGenerator(store, store),
		payments:   billing.NewPaymentProcessor(store),
		marker:     attendance.NewMarker(store, store),
		summarizer: billing.NewSummarizer(store),
		attSummary: attendance.NewSummarizer(store, store),
		validate:   validator.New(),
	}
}

// =============================================================================
// GENERATION ENDPOINTS
// =============================================================================

// GenerateFees bulk-generates fee records for a period.
// POST /api/fees/generate
func (h *Handler) GenerateFees(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var req GenerateFeesRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.generator.GenerateFees(r.Context(), billing.GenerationRequest{
		TenantID:   tenant,
		Period:     billing.NewPeriodKey(time.Month(req.Month), req.Year),
		Scope:      req.Scope.toScope(),
		Components: floatsToMoneyMap(req.Components),
		LateFee:    billing.NewMoney(req.LateFee),
		Discount:   billing.NewMoney(req.Discount),
		Notes:      req.Notes,
	})
	if err != nil {
		writeDomainError(w, "Failed to generate fee records", err)
		return
	}

	h.recordRun(r, tenant, result, "api")
	writeJSON(w, http.StatusOK, toGenerationResultDTO(result))
}

// GenerateSalaries bulk-generates salary records for a period.
// POST /api/salaries/generate
func (h *Handler) GenerateSalaries(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var req GenerateSalariesRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.generator.GenerateSalaries(r.Context(), billing.GenerationRequest{
		TenantID:   tenant,
		Period:     billing.NewPeriodKey(time.Month(req.Month), req.Year),
		Scope:      req.Scope.toScope(),
		Components: floatsToMoneyMap(req.Allowances),
		Bonuses:    billing.NewMoney(req.Bonuses),
		Deductions: floatsToMoneyMap(req.Deductions),
		Notes:      req.Notes,
	})
	if err != nil {
		writeDomainError(w, "Failed to generate salary records", err)
		return
	}

	h.recordRun(r, tenant, result, "api")
	writeJSON(w, http.StatusOK, toGenerationResultDTO(result))
}

// MarkAttendance bulk-marks attendance for a day.
// POST /api/attendance/mark
func (h *Handler) MarkAttendance(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var req MarkAttendanceRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	result, err := h.marker.Mark(r.Context(), attendance.MarkRequest{
		TenantID:    tenant,
		Kind:        billing.EntityKind(req.Kind),
		Date:        date,
		Scope:       req.Scope.toScope(),
		Status:      attendance.Status(req.Status),
		HoursWorked: decimal.NewFromFloat(req.HoursWorked),
		Notes:       req.Notes,
	})
	if err != nil {
		writeDomainError(w, "Failed to mark attendance", err)
		return
	}

	writeJSON(w, http.StatusOK, toGenerationResultDTO(result))
}

// =============================================================================
// RECORD ENDPOINTS
// =============================================================================

// ListFees lists fee records for a period.
// GET /api/fees?month=&year=
func (h *Handler) ListFees(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	period, ok := requirePeriod(w, r)
	if !ok {
		return
	}

	records, err := h.Store.ListFees(r.Context(), tenant, period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list fee records", err)
		return
	}

	dtos := make([]FeeRecordDTO, 0, len(records))
	for _, rec := range records {
		dtos = append(dtos, toFeeRecordDTO(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": dtos})
}

// ListSalaries lists salary records for a period.
// GET /api/salaries?month=&year=
func (h *Handler) ListSalaries(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	period, ok := requirePeriod(w, r)
	if !ok {
		return
	}

	records, err := h.Store.ListSalaries(r.Context(), tenant, period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list salary records", err)
		return
	}

	dtos := make([]SalaryRecordDTO, 0, len(records))
	for _, rec := range records {
		dtos = append(dtos, toSalaryRecordDTO(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": dtos})
}

// PayRecord marks a fee or salary record as paid.
// POST /api/records/{id}/pay
func (h *Handler) PayRecord(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireTenant(w, r); !ok {
		return
	}

	id := billing.RecordID(chi.URLParam(r, "id"))

	var req PayRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	var paidOn time.Time
	if req.PaidOn != "" {
		// Validated by the datetime tag, parse cannot fail here.
		paidOn, _ = time.Parse("2006-01-02", req.PaidOn)
	}

	family := billing.FamilyFee
	if req.Family == "salary" {
		family = billing.FamilySalary
	}

	if err := h.payments.MarkPaid(r.Context(), family, id, billing.PaymentMode(req.Mode), paidOn); err != nil {
		writeDomainError(w, "Failed to mark record paid", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "paid"})
}

// GetReceipt returns a payment receipt for a paid fee record.
// GET /api/records/{id}/receipt
func (h *Handler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}

	id := billing.RecordID(chi.URLParam(r, "id"))

	rec, err := h.Store.GetFee(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get fee record", err)
		return
	}
	if !rec.Paid || rec.PaidOn == nil {
		writeError(w, http.StatusBadRequest, "Record is not paid", nil)
		return
	}

	receipt := ReceiptDTO{
		RecordID:    string(rec.ID),
		StudentID:   string(rec.StudentID),
		Period:      rec.Period.String(),
		Amount:      billing.FeeFinalAmount(rec).Float64(),
		PaymentMode: string(rec.PaymentMode),
		PaidOn:      billing.DayString(*rec.PaidOn),
	}
	if student, err := h.Store.GetEntity(r.Context(), tenant, rec.StudentID); err == nil {
		receipt.StudentName = student.Name
	}

	writeJSON(w, http.StatusOK, receipt)
}

// =============================================================================
// SUMMARY ENDPOINTS
// =============================================================================

// FeeSummary returns paid/unpaid totals for fee records in a period.
// GET /api/fees/summary?month=&year=
func (h *Handler) FeeSummary(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	period, ok := requirePeriod(w, r)
	if !ok {
		return
	}

	summary, err := h.summarizer.SummarizeFees(r.Context(), tenant, period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to summarize fees", err)
		return
	}
	writeJSON(w, http.StatusOK, toFinancialSummaryDTO(summary))
}

// SalarySummary returns paid/unpaid totals for salary records in a period.
// GET /api/salaries/summary?month=&year=
func (h *Handler) SalarySummary(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	period, ok := requirePeriod(w, r)
	if !ok {
		return
	}

	summary, err := h.summarizer.SummarizeSalaries(r.Context(), tenant, period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to summarize salaries", err)
		return
	}
	writeJSON(w, http.StatusOK, toFinancialSummaryDTO(summary))
}

// AttendanceSummary returns monthly attendance counts, optionally for a
// single entity.
// GET /api/attendance/summary?month=&year=&entity_id=
func (h *Handler) AttendanceSummary(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	period, ok := requirePeriod(w, r)
	if !ok {
		return
	}

	entity := billing.EntityID(r.URL.Query().Get("entity_id"))

	summary, err := h.attSummary.Summarize(r.Context(), tenant, period, entity)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to summarize attendance", err)
		return
	}

	dto := AttendanceSummaryDTO{
		Period:       summary.Period.String(),
		TotalRecords: summary.TotalRecords,
		Counts:       toStatusCountsDTO(summary.Counts),
	}
	for _, b := range summary.PerEntity {
		dto.PerEntity = append(dto.PerEntity, EntityBreakdownDTO{
			EntityID:   string(b.EntityID),
			EntityName: b.EntityName,
			Counts:     toStatusCountsDTO(b.Counts),
		})
	}
	sort.Slice(dto.PerEntity, func(i, j int) bool {
		return dto.PerEntity[i].EntityID < dto.PerEntity[j].EntityID
	})

	writeJSON(w, http.StatusOK, dto)
}

// Dashboard returns the current-period overview.
// GET /api/dashboard
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	period := billing.CurrentPeriod(time.Now())

	fees, err := h.summarizer.SummarizeFees(ctx, tenant, period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to summarize fees", err)
		return
	}
	salaries, err := h.summarizer.SummarizeSalaries(ctx, tenant, period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to summarize salaries", err)
		return
	}
	att, err := h.attSummary.Summarize(ctx, tenant, period, "")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to summarize attendance", err)
		return
	}
	students, err := h.Store.ListActive(ctx, tenant, billing.KindStudent)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list students", err)
		return
	}
	staff, err := h.Store.ListActive(ctx, tenant, billing.KindStaff)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list staff", err)
		return
	}

	writeJSON(w, http.StatusOK, DashboardDTO{
		Period:     period.String(),
		Fees:       toFinancialSummaryDTO(fees),
		Salaries:   toFinancialSummaryDTO(salaries),
		Attendance: toStatusCountsDTO(att.Counts),
		Students:   len(students),
		Staff:      len(staff),
	})
}

// =============================================================================
// ENTITY ENDPOINTS
// =============================================================================

// ListStudents lists active students.
// GET /api/students
func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	h.listEntities(w, r, billing.KindStudent)
}

// ListStaff lists active staff members.
// GET /api/staff
func (h *Handler) ListStaff(w http.ResponseWriter, r *http.Request) {
	h.listEntities(w, r, billing.KindStaff)
}

func (h *Handler) listEntities(w http.ResponseWriter, r *http.Request, kind billing.EntityKind) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}

	entities, err := h.Store.ListActive(r.Context(), tenant, kind)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list entities", err)
		return
	}

	dtos := make([]EntityDTO, 0, len(entities))
	for _, e := range entities {
		dtos = append(dtos, toEntityDTO(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{"entities": dtos})
}

// CreateStudent creates a student.
// POST /api/students
func (h *Handler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	h.createEntity(w, r, billing.KindStudent)
}

// CreateStaff creates a staff member.
// POST /api/staff
func (h *Handler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	h.createEntity(w, r, billing.KindStaff)
}

func (h *Handler) createEntity(w http.ResponseWriter, r *http.Request, kind billing.EntityKind) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var req CreateEntityRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	entity := billing.BillableEntity{
		ID:          billing.EntityID(uuid.NewString()),
		TenantID:    tenant,
		Kind:        kind,
		Name:        req.Name,
		Code:        req.Code,
		ClassroomID: billing.ClassroomID(req.ClassroomID),
		Rate:        billing.NewMoney(req.Rate),
		Status:      billing.StatusActive,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.Store.SaveEntity(r.Context(), entity); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create entity", err)
		return
	}

	writeJSON(w, http.StatusCreated, toEntityDTO(entity))
}

// =============================================================================
// ADMIN ENDPOINTS
// =============================================================================

// ListRuns returns the generation run audit trail.
// GET /api/admin/runs
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}

	runs, err := h.Store.ListRuns(r.Context(), tenant)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}

	dtos := make([]GenerationRunDTO, 0, len(runs))
	for _, run := range runs {
		dtos = append(dtos, toGenerationRunDTO(run))
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": dtos})
}

// recordRun persists an audit-trail entry for a completed bulk run. A
// failure to record the run never fails the run itself.
func (h *Handler) recordRun(r *http.Request, tenant billing.TenantID, result billing.GenerationResult, triggeredBy string) {
	run := billing.GenerationRun{
		ID:           uuid.NewString(),
		TenantID:     tenant,
		Family:       result.Family,
		Period:       result.Period,
		CreatedCount: result.CreatedCount(),
		SkippedCount: result.SkippedCount(),
		TriggeredBy:  triggeredBy,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.Store.SaveRun(r.Context(), run); err != nil {
		log.Printf("warning: failed to record generation run: %v", err)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// requireTenant extracts the tenant from the X-Tenant-ID header, writing a
// 400 if absent.
func requireTenant(w http.ResponseWriter, r *http.Request) (billing.TenantID, bool) {
	tenant := billing.TenantID(r.Header.Get("X-Tenant-ID"))
	if tenant == "" {
		writeError(w, http.StatusBadRequest, "Missing X-Tenant-ID header", billing.ErrMissingTenant)
		return "", false
	}
	return tenant, true
}

// requirePeriod parses month/year query parameters, writing a 400 on
// missing or out-of-range values.
func requirePeriod(w http.ResponseWriter, r *http.Request) (billing.PeriodKey, bool) {
	month, err1 := strconv.Atoi(r.URL.Query().Get("month"))
	year, err2 := strconv.Atoi(r.URL.Query().Get("year"))
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "month and year query parameters are required", nil)
		return billing.PeriodKey{}, false
	}

	period := billing.NewPeriodKey(time.Month(month), year)
	if !period.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid period", billing.ErrInvalidPeriod)
		return billing.PeriodKey{}, false
	}
	return period, true
}

// decodeAndValidate decodes the JSON body into dst and runs struct
// validation, writing a 400 on failure.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

// writeDomainError maps domain errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	var statusErr *attendance.StatusError
	switch {
	case billing.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, billing.ErrAlreadyPaid),
		errors.Is(err, billing.ErrDuplicatePeriodRecord),
		errors.Is(err, attendance.ErrDuplicateDay):
		writeError(w, http.StatusConflict, message, err)
	case billing.IsClientError(err), errors.As(err, &statusErr):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

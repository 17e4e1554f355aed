/*
handlers_test.go - End-to-end tests for the HTTP API

Drives the full stack (router -> handlers -> engine -> SQLite) through
httptest, covering the bulk generation, payment, and summary flows.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skolara/records-engine/billing"
	"github.com/skolara/records-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

const testTenant = "school-1"

type testAPI struct {
	t      *testing.T
	server *httptest.Server
	store  *sqlite.Store
}

func newTestAPI(t *testing.T) *testAPI {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	server := httptest.NewServer(NewRouter(NewHandler(store)))
	t.Cleanup(server.Close)

	return &testAPI{t: t, server: server, store: store}
}

func (a *testAPI) seedStudent(id, name string, classroom billing.ClassroomID) {
	a.t.Helper()
	require.NoError(a.t, a.store.SaveEntity(context.Background(), billing.BillableEntity{
		ID:          billing.EntityID(id),
		TenantID:    testTenant,
		Kind:        billing.KindStudent,
		Name:        name,
		ClassroomID: classroom,
		Status:      billing.StatusActive,
		CreatedAt:   time.Now().UTC(),
	}))
}

func (a *testAPI) seedStaff(id, name string, rate float64) {
	a.t.Helper()
	require.NoError(a.t, a.store.SaveEntity(context.Background(), billing.BillableEntity{
		ID:        billing.EntityID(id),
		TenantID:  testTenant,
		Kind:      billing.KindStaff,
		Name:      name,
		Rate:      billing.NewMoney(rate),
		Status:    billing.StatusActive,
		CreatedAt: time.Now().UTC(),
	}))
}

// do sends a request with the tenant header and decodes the JSON response.
func (a *testAPI) do(method, path string, body any, out any) *http.Response {
	a.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, a.server.URL+path, &buf)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", testTenant)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(a.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func juneFees(classroom string) GenerateFeesRequest {
	return GenerateFeesRequest{
		Month:      6,
		Year:       2025,
		Scope:      ScopeRequest{ClassroomID: classroom},
		Components: map[string]float64{"tuition": 1000, "transport": 200},
	}
}

// =============================================================================
// FEE GENERATION FLOW
// =============================================================================

func TestAPI_GenerateFees_ThenRerun(t *testing.T) {
	// GIVEN: Classroom C with 3 active students
	// WHEN: Generating June 2025 fees, then re-running the identical request
	// THEN: First run creates 3 records of 1200 each; second run skips all 3

	api := newTestAPI(t)
	api.seedStudent("s1", "Aisha", "class-c")
	api.seedStudent("s2", "Bilal", "class-c")
	api.seedStudent("s3", "Chen", "class-c")

	var first GenerationResultDTO
	resp := api.do(http.MethodPost, "/api/fees/generate", juneFees("class-c"), &first)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, 3, first.CreatedCount)
	assert.Equal(t, 0, first.SkippedCount)
	assert.Equal(t, "2025-06", first.Period)
	for _, created := range first.Created {
		assert.Equal(t, 1200.0, created.Amount)
	}

	var second GenerationResultDTO
	resp = api.do(http.MethodPost, "/api/fees/generate", juneFees("class-c"), &second)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, 0, second.CreatedCount)
	assert.Equal(t, 3, second.SkippedCount)
	for _, skipped := range second.Skipped {
		assert.Equal(t, "duplicate_period_record", skipped.Reason)
	}

	var listing struct {
		Records []FeeRecordDTO `json:"records"`
	}
	resp = api.do(http.MethodGet, "/api/fees?month=6&year=2025", nil, &listing)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, listing.Records, 3, "rerun must not add records")
	for _, rec := range listing.Records {
		assert.Equal(t, 1200.0, rec.Total)
		assert.Equal(t, 1200.0, rec.FinalAmount)
		assert.False(t, rec.Paid)
	}
}

func TestAPI_GenerateFees_ValidationErrors(t *testing.T) {
	api := newTestAPI(t)

	// Month 13 fails struct validation before reaching the engine.
	bad := juneFees("class-c")
	bad.Month = 13
	resp := api.do(http.MethodPost, "/api/fees/generate", bad, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Missing components.
	bad = juneFees("class-c")
	bad.Components = nil
	resp = api.do(http.MethodPost, "/api/fees/generate", bad, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_MissingTenantHeader_Rejected(t *testing.T) {
	api := newTestAPI(t)

	req, err := http.NewRequest(http.MethodGet, api.server.URL+"/api/students", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// PAYMENT FLOW
// =============================================================================

func TestAPI_PayRecord_ThenReceipt(t *testing.T) {
	// GIVEN: A generated fee record
	// WHEN: Paying it by cash and fetching the receipt
	// THEN: The record flips to paid and the receipt carries mode and date

	api := newTestAPI(t)
	api.seedStudent("s1", "Aisha", "class-c")

	var gen GenerationResultDTO
	api.do(http.MethodPost, "/api/fees/generate", juneFees("class-c"), &gen)
	require.Equal(t, 1, gen.CreatedCount)
	recordID := gen.Created[0].RecordID

	resp := api.do(http.MethodPost, fmt.Sprintf("/api/records/%s/pay", recordID),
		PayRequest{Family: "fee", Mode: "cash"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var receipt ReceiptDTO
	resp = api.do(http.MethodGet, fmt.Sprintf("/api/records/%s/receipt", recordID), nil, &receipt)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, recordID, receipt.RecordID)
	assert.Equal(t, "Aisha", receipt.StudentName)
	assert.Equal(t, "cash", receipt.PaymentMode)
	assert.Equal(t, 1200.0, receipt.Amount)
	assert.Equal(t, billing.DayString(time.Now()), receipt.PaidOn, "paid-on defaults to today")
}

func TestAPI_PayRecord_Conflicts(t *testing.T) {
	api := newTestAPI(t)
	api.seedStudent("s1", "Aisha", "class-c")

	var gen GenerationResultDTO
	api.do(http.MethodPost, "/api/fees/generate", juneFees("class-c"), &gen)
	recordID := gen.Created[0].RecordID

	// Invalid mode -> 400
	resp := api.do(http.MethodPost, fmt.Sprintf("/api/records/%s/pay", recordID),
		map[string]string{"family": "fee", "mode": ""}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = api.do(http.MethodPost, fmt.Sprintf("/api/records/%s/pay", recordID),
		PayRequest{Family: "fee", Mode: "barter"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Pay once -> 200
	resp = api.do(http.MethodPost, fmt.Sprintf("/api/records/%s/pay", recordID),
		PayRequest{Family: "fee", Mode: "cash"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Pay again -> 409
	resp = api.do(http.MethodPost, fmt.Sprintf("/api/records/%s/pay", recordID),
		PayRequest{Family: "fee", Mode: "online"}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Unknown record -> 404
	resp = api.do(http.MethodPost, "/api/records/nope/pay",
		PayRequest{Family: "fee", Mode: "cash"}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// SALARY FLOW
// =============================================================================

func TestAPI_GenerateSalaries_ZeroRateIncluded(t *testing.T) {
	// GIVEN: 5 active staff, one with no monthly rate
	// WHEN: Generating June 2025 salaries
	// THEN: 5 records created; the rateless one has base 0

	api := newTestAPI(t)
	for i, rate := range []float64{3000, 2500, 2500, 2800, 0} {
		api.seedStaff(fmt.Sprintf("t%d", i+1), fmt.Sprintf("Teacher %d", i+1), rate)
	}

	var result GenerationResultDTO
	resp := api.do(http.MethodPost, "/api/salaries/generate", GenerateSalariesRequest{
		Month: 6,
		Year:  2025,
		Scope: ScopeRequest{AllActive: true},
	}, &result)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, 5, result.CreatedCount)
	assert.Equal(t, 0, result.SkippedCount)

	var listing struct {
		Records []SalaryRecordDTO `json:"records"`
	}
	api.do(http.MethodGet, "/api/salaries?month=6&year=2025", nil, &listing)
	require.Len(t, listing.Records, 5)

	var zeroBase int
	for _, rec := range listing.Records {
		if rec.Base == 0 {
			zeroBase++
			assert.Equal(t, 0.0, rec.Gross)
		}
	}
	assert.Equal(t, 1, zeroBase)
}

// =============================================================================
// ATTENDANCE FLOW
// =============================================================================

func TestAPI_Attendance_MarkAndSummarize(t *testing.T) {
	// GIVEN: 10 staff members on June 2, 2025: 7 present, 2 absent, 1 leave
	// WHEN: Marking in three bulk calls and summarizing the month
	// THEN: Counts come back 7/2/1 with total 10

	api := newTestAPI(t)
	ids := make([]string, 10)
	for i := range ids {
		ids[i] = fmt.Sprintf("t%d", i+1)
		api.seedStaff(ids[i], fmt.Sprintf("Teacher %d", i+1), 2000)
	}

	mark := func(entityIDs []string, status string) {
		var result GenerationResultDTO
		resp := api.do(http.MethodPost, "/api/attendance/mark", MarkAttendanceRequest{
			Kind:   "staff",
			Date:   "2025-06-02",
			Scope:  ScopeRequest{EntityIDs: entityIDs},
			Status: status,
		}, &result)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, len(entityIDs), result.CreatedCount)
	}

	mark(ids[:7], "present")
	mark(ids[7:9], "absent")
	mark(ids[9:], "leave")

	var summary AttendanceSummaryDTO
	resp := api.do(http.MethodGet, "/api/attendance/summary?month=6&year=2025", nil, &summary)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, 10, summary.TotalRecords)
	assert.Equal(t, 7, summary.Counts.Present)
	assert.Equal(t, 2, summary.Counts.Absent)
	assert.Equal(t, 1, summary.Counts.Leave)
	assert.Equal(t, 0, summary.Counts.HalfDay)
	assert.Equal(t, 0, summary.Counts.Overtime)
	assert.Equal(t, 10, summary.Counts.Total)
	assert.Len(t, summary.PerEntity, 10)

	// Re-marking the same day is a bulk no-op.
	var rerun GenerationResultDTO
	resp = api.do(http.MethodPost, "/api/attendance/mark", MarkAttendanceRequest{
		Kind:   "staff",
		Date:   "2025-06-02",
		Scope:  ScopeRequest{EntityIDs: ids},
		Status: "present",
	}, &rerun)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, rerun.CreatedCount)
	assert.Equal(t, 10, rerun.SkippedCount)
}

func TestAPI_Attendance_InvalidStatus_Rejected(t *testing.T) {
	api := newTestAPI(t)
	api.seedStaff("t1", "Teacher 1", 2000)

	resp := api.do(http.MethodPost, "/api/attendance/mark", MarkAttendanceRequest{
		Kind:   "staff",
		Date:   "2025-06-02",
		Scope:  ScopeRequest{AllActive: true},
		Status: "vacationing",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// SUMMARIES AND DASHBOARD
// =============================================================================

func TestAPI_FeeSummary(t *testing.T) {
	api := newTestAPI(t)
	api.seedStudent("s1", "Aisha", "class-c")
	api.seedStudent("s2", "Bilal", "class-c")

	var gen GenerationResultDTO
	api.do(http.MethodPost, "/api/fees/generate", juneFees("class-c"), &gen)
	require.Equal(t, 2, gen.CreatedCount)

	api.do(http.MethodPost, fmt.Sprintf("/api/records/%s/pay", gen.Created[0].RecordID),
		PayRequest{Family: "fee", Mode: "online"}, nil)

	var summary FinancialSummaryDTO
	resp := api.do(http.MethodGet, "/api/fees/summary?month=6&year=2025", nil, &summary)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, 2, summary.TotalRecords)
	assert.Equal(t, 1, summary.PaidCount)
	assert.Equal(t, 1, summary.UnpaidCount)
	assert.Equal(t, 1200.0, summary.PaidAmount)
	assert.Equal(t, 1200.0, summary.UnpaidAmount)
}

func TestAPI_EntityManagement(t *testing.T) {
	api := newTestAPI(t)

	var created EntityDTO
	resp := api.do(http.MethodPost, "/api/students", CreateEntityRequest{
		Name:        "Aisha",
		Code:        "STU-001",
		ClassroomID: "class-c",
	}, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "student", created.Kind)
	assert.Equal(t, "active", created.Status)

	var listing struct {
		Entities []EntityDTO `json:"entities"`
	}
	resp = api.do(http.MethodGet, "/api/students", nil, &listing)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, listing.Entities, 1)
	assert.Equal(t, created.ID, listing.Entities[0].ID)

	// Name is required.
	resp = api.do(http.MethodPost, "/api/staff", CreateEntityRequest{}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_RunAuditTrail(t *testing.T) {
	api := newTestAPI(t)
	api.seedStudent("s1", "Aisha", "class-c")

	api.do(http.MethodPost, "/api/fees/generate", juneFees("class-c"), nil)

	var listing struct {
		Runs []GenerationRunDTO `json:"runs"`
	}
	resp := api.do(http.MethodGet, "/api/admin/runs", nil, &listing)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, listing.Runs, 1)
	assert.Equal(t, "fee", listing.Runs[0].Family)
	assert.Equal(t, 1, listing.Runs[0].CreatedCount)
	assert.Equal(t, "api", listing.Runs[0].TriggeredBy)
}

package attendance_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skolara/records-engine/attendance"
	"github.com/skolara/records-engine/billing"
	"github.com/skolara/records-engine/billing/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

const testTenant = billing.TenantID("school-1")

var april10 = time.Date(2026, time.April, 10, 0, 0, 0, 0, time.UTC)

func newTestMarker() (*attendance.Marker, *store.Memory) {
	mem := store.NewMemory()
	return attendance.NewMarker(mem, mem), mem
}

func seedStudents(t *testing.T, mem *store.Memory, classroom billing.ClassroomID, n int) []billing.EntityID {
	t.Helper()
	ids := make([]billing.EntityID, n)
	for i := 0; i < n; i++ {
		id := billing.EntityID(fmt.Sprintf("s%d", i+1))
		ids[i] = id
		require.NoError(t, mem.SaveEntity(context.Background(), billing.BillableEntity{
			ID:          id,
			TenantID:    testTenant,
			Kind:        billing.KindStudent,
			Name:        fmt.Sprintf("Student %d", i+1),
			ClassroomID: classroom,
			Status:      billing.StatusActive,
		}))
	}
	return ids
}

func markRequest(date time.Time, scope billing.PopulationScope, status attendance.Status) attendance.MarkRequest {
	return attendance.MarkRequest{
		TenantID: testTenant,
		Kind:     billing.KindStudent,
		Date:     date,
		Scope:    scope,
		Status:   status,
	}
}

// =============================================================================
// BULK MARKING
// =============================================================================

func TestMark_FreshDay_AllCreated(t *testing.T) {
	// GIVEN: A classroom of four students with no marks on April 10
	// WHEN: Marking the classroom present
	// THEN: Four records created, none skipped

	marker, mem := newTestMarker()
	ctx := context.Background()

	seedStudents(t, mem, "class-5a", 4)

	result, err := marker.Mark(ctx, markRequest(april10, billing.ScopeClassroom("class-5a"), attendance.StatusPresent))
	require.NoError(t, err)

	assert.Equal(t, 4, result.CreatedCount())
	assert.Equal(t, 0, result.SkippedCount())
	assert.Equal(t, billing.FamilyAttendance, result.Family)
}

func TestMark_SameDayTwice_AllSkipped(t *testing.T) {
	// GIVEN: A classroom already marked present on April 10
	// WHEN: Marking the same classroom again for the same day
	// THEN: Everyone is skipped as duplicate; no second marks exist

	marker, mem := newTestMarker()
	ctx := context.Background()

	seedStudents(t, mem, "class-5a", 3)

	first, err := marker.Mark(ctx, markRequest(april10, billing.ScopeClassroom("class-5a"), attendance.StatusPresent))
	require.NoError(t, err)
	require.Equal(t, 3, first.CreatedCount())

	second, err := marker.Mark(ctx, markRequest(april10, billing.ScopeClassroom("class-5a"), attendance.StatusAbsent))
	require.NoError(t, err)

	assert.Equal(t, 0, second.CreatedCount())
	assert.Equal(t, 3, second.SkippedCount())
	for _, s := range second.Skipped {
		assert.Equal(t, billing.SkipDuplicate, s.Reason)
	}

	records, err := mem.ListMonth(ctx, testTenant, billing.CurrentPeriod(april10), "")
	require.NoError(t, err)
	assert.Len(t, records, 3, "first marks must survive the second attempt unchanged")
	for _, r := range records {
		assert.Equal(t, attendance.StatusPresent, r.Status)
	}
}

func TestMark_DifferentTimesOfDay_SameDayKey(t *testing.T) {
	// GIVEN: A student marked at 08:00
	// WHEN: Marking the same student at 16:30 the same day
	// THEN: The second mark is a duplicate; the day key ignores clock time

	marker, mem := newTestMarker()
	ctx := context.Background()

	seedStudents(t, mem, "class-5a", 1)

	morning := time.Date(2026, time.April, 10, 8, 0, 0, 0, time.UTC)
	afternoon := time.Date(2026, time.April, 10, 16, 30, 0, 0, time.UTC)

	first, err := marker.Mark(ctx, markRequest(morning, billing.ScopeEntities("s1"), attendance.StatusPresent))
	require.NoError(t, err)
	require.Equal(t, 1, first.CreatedCount())

	second, err := marker.Mark(ctx, markRequest(afternoon, billing.ScopeEntities("s1"), attendance.StatusPresent))
	require.NoError(t, err)
	assert.Equal(t, 1, second.SkippedCount())

	_ = mem
}

func TestMark_ConsecutiveDays_Independent(t *testing.T) {
	// GIVEN: A student marked on April 10
	// WHEN: Marking the same student on April 11
	// THEN: The second day creates a record; uniqueness is per day

	marker, mem := newTestMarker()
	ctx := context.Background()

	seedStudents(t, mem, "class-5a", 1)

	first, err := marker.Mark(ctx, markRequest(april10, billing.ScopeEntities("s1"), attendance.StatusPresent))
	require.NoError(t, err)
	require.Equal(t, 1, first.CreatedCount())

	second, err := marker.Mark(ctx, markRequest(april10.AddDate(0, 0, 1), billing.ScopeEntities("s1"), attendance.StatusPresent))
	require.NoError(t, err)
	assert.Equal(t, 1, second.CreatedCount())
}

func TestMark_InvalidStatus_Rejected(t *testing.T) {
	// GIVEN: A request with status "vacationing"
	// WHEN: Marking
	// THEN: The whole request is rejected before any record is written

	marker, mem := newTestMarker()
	ctx := context.Background()

	seedStudents(t, mem, "class-5a", 2)

	_, err := marker.Mark(ctx, markRequest(april10, billing.ScopeClassroom("class-5a"), "vacationing"))

	var statusErr *attendance.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, attendance.Status("vacationing"), statusErr.Status)

	records, err := mem.ListMonth(ctx, testTenant, billing.CurrentPeriod(april10), "")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestMark_OvertimeWithHours(t *testing.T) {
	// GIVEN: A staff member working overtime
	// WHEN: Marking overtime with 3.5 hours
	// THEN: The hours are stored on the record

	marker, mem := newTestMarker()
	ctx := context.Background()

	require.NoError(t, mem.SaveEntity(ctx, billing.BillableEntity{
		ID: "t1", TenantID: testTenant, Kind: billing.KindStaff, Name: "Ms. Rahman",
		Rate: billing.NewMoney(3000), Status: billing.StatusActive,
	}))

	req := attendance.MarkRequest{
		TenantID:    testTenant,
		Kind:        billing.KindStaff,
		Date:        april10,
		Scope:       billing.ScopeEntities("t1"),
		Status:      attendance.StatusOvertime,
		HoursWorked: decimal.NewFromFloat(3.5),
	}
	result, err := marker.Mark(ctx, req)
	require.NoError(t, err)
	require.Equal(t, 1, result.CreatedCount())

	records, err := mem.ListMonth(ctx, testTenant, billing.CurrentPeriod(april10), "t1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, attendance.StatusOvertime, records[0].Status)
	assert.True(t, records[0].HoursWorked.Equal(decimal.NewFromFloat(3.5)))
}

// =============================================================================
// MONTHLY SUMMARY
// =============================================================================

func TestSummarize_CountsPerStatus(t *testing.T) {
	// GIVEN: Ten students: 7 present, 2 absent, 1 on leave for April 10
	// WHEN: Summarizing the month
	// THEN: Counts are 7/2/1, total 10, with a per-entity breakdown

	marker, mem := newTestMarker()
	ctx := context.Background()

	ids := seedStudents(t, mem, "class-5a", 10)

	_, err := marker.Mark(ctx, markRequest(april10, billing.ScopeEntities(ids[:7]...), attendance.StatusPresent))
	require.NoError(t, err)
	_, err = marker.Mark(ctx, markRequest(april10, billing.ScopeEntities(ids[7:9]...), attendance.StatusAbsent))
	require.NoError(t, err)
	_, err = marker.Mark(ctx, markRequest(april10, billing.ScopeEntities(ids[9]), attendance.StatusLeave))
	require.NoError(t, err)

	summarizer := attendance.NewSummarizer(mem, mem)
	summary, err := summarizer.Summarize(ctx, testTenant, billing.CurrentPeriod(april10), "")
	require.NoError(t, err)

	assert.Equal(t, 10, summary.TotalRecords)
	assert.Equal(t, 7, summary.Counts.Present)
	assert.Equal(t, 2, summary.Counts.Absent)
	assert.Equal(t, 1, summary.Counts.Leave)
	assert.Equal(t, summary.TotalRecords, summary.Counts.Total())

	require.Len(t, summary.PerEntity, 10)
	b := summary.PerEntity[ids[9]]
	require.NotNil(t, b)
	assert.Equal(t, 1, b.Counts.Leave)
	assert.Equal(t, "Student 10", b.EntityName, "names resolved from the entity store")
}

func TestSummarize_EntityFiltered_NoBreakdown(t *testing.T) {
	// GIVEN: A month of marks for one student
	// WHEN: Summarizing for that entity only
	// THEN: Counts cover just that entity and PerEntity is nil

	marker, mem := newTestMarker()
	ctx := context.Background()

	seedStudents(t, mem, "class-5a", 2)

	for day := 10; day < 15; day++ {
		date := time.Date(2026, time.April, day, 0, 0, 0, 0, time.UTC)
		status := attendance.StatusPresent
		if day == 12 {
			status = attendance.StatusAbsent
		}
		_, err := marker.Mark(ctx, markRequest(date, billing.ScopeEntities("s1", "s2"), status))
		require.NoError(t, err)
	}

	summarizer := attendance.NewSummarizer(mem, mem)
	summary, err := summarizer.Summarize(ctx, testTenant, billing.NewPeriodKey(time.April, 2026), "s1")
	require.NoError(t, err)

	assert.Equal(t, 5, summary.TotalRecords)
	assert.Equal(t, 4, summary.Counts.Present)
	assert.Equal(t, 1, summary.Counts.Absent)
	assert.Nil(t, summary.PerEntity)
}

func TestSummarize_EmptyMonth_ZeroCounts(t *testing.T) {
	// GIVEN: No attendance records
	// WHEN: Summarizing
	// THEN: All-zero summary, no error

	mem := store.NewMemory()
	summarizer := attendance.NewSummarizer(mem, mem)

	summary, err := summarizer.Summarize(context.Background(), testTenant, billing.NewPeriodKey(time.April, 2026), "")
	require.NoError(t, err)

	assert.Equal(t, 0, summary.TotalRecords)
	assert.Equal(t, 0, summary.Counts.Total())
}

// =============================================================================
// STATUS VALIDATION
// =============================================================================

func TestValidStatus(t *testing.T) {
	for _, s := range attendance.Statuses {
		assert.True(t, attendance.ValidStatus(s), "status %q should be valid", s)
	}
	assert.False(t, attendance.ValidStatus(""))
	assert.False(t, attendance.ValidStatus("Present"), "statuses are case-sensitive")
}

/*
handlers_test.go - HTTP tests for API handlers

Tests for:
- Case creation with initial dates (auto-calculation through the API)
- Date edits: cascade clears, manual pins, recalculation
- Computations: filing window, constraints, validation, status check
- Section session persistence and overrides
- Deadline scheduler alerts
*/
package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/perm-engine/generic"
	"github.com/warp/perm-engine/perm"
	"github.com/warp/perm-engine/store/sqlite"
)

// =============================================================================
// TEST INFRASTRUCTURE
// =============================================================================

func setupTestHandler(t *testing.T, today string) *Handler {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	engine, err := perm.NewEngine(perm.DefaultRuleSet(), generic.FixedDate(generic.MustParseDate(today)))
	require.NoError(t, err)
	return NewHandler(store, engine)
}

func doRequest(t *testing.T, h *Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	NewRouter(h).ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func caseRequest(dates map[string]string) CaseRequest {
	return CaseRequest{
		ID:                    "case-1",
		EmployerName:          "Acme Corp",
		BeneficiaryIdentifier: "A-123",
		Dates:                 dates,
	}
}

// recruitmentDone: first step 2024-01-14, last 2024-02-14, PWD valid to year end.
func recruitmentDone() map[string]string {
	return map[string]string{
		"pwdDeterminationDate":    "2023-12-01",
		"pwdExpirationDate":       "2024-12-31",
		"sundayAdFirstDate":       "2024-01-14",
		"sundayAdSecondDate":      "2024-01-21",
		"jobOrderStartDate":       "2024-01-15",
		"noticeOfFilingStartDate": "2024-01-15",
	}
}

func createCase(t *testing.T, h *Handler, dates map[string]string) CaseDTO {
	t.Helper()
	rec := doRequest(t, h, http.MethodPost, "/api/cases", caseRequest(dates))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[CaseDTO](t, rec)
}

// =============================================================================
// CASES
// =============================================================================

func TestCreateCase_CalculatesInitialDates(t *testing.T) {
	// GIVEN: A new case with only a determination date
	// WHEN: Creating it
	// THEN: The expiration is calculated and owned by the engine

	h := setupTestHandler(t, "2024-06-01")

	dto := createCase(t, h, map[string]string{"pwdDeterminationDate": "2024-05-15"})

	assert.Equal(t, "case-1", dto.ID)
	assert.Equal(t, "pwd", dto.CaseStatus)
	assert.Equal(t, "working", dto.ProgressStatus)
	assert.Equal(t, "2024-08-13", dto.Dates["pwdExpirationDate"])
	assert.Equal(t, []string{"pwdExpirationDate"}, dto.AutoCalculatedFields)

	rec := doRequest(t, h, http.MethodGet, "/api/cases/case-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stored := decode[CaseDTO](t, rec)
	assert.Equal(t, "2024-08-13", stored.Dates["pwdExpirationDate"])
	assert.Equal(t, []string{"pwdExpirationDate"}, stored.AutoCalculatedFields)
}

func TestCreateCase_GeneratesID(t *testing.T) {
	h := setupTestHandler(t, "2024-06-01")
	req := caseRequest(nil)
	req.ID = ""

	rec := doRequest(t, h, http.MethodPost, "/api/cases", req)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, decode[CaseDTO](t, rec).ID, 36)
}

func TestCreateCase_Rejects(t *testing.T) {
	h := setupTestHandler(t, "2024-06-01")

	missing := caseRequest(nil)
	missing.EmployerName = ""
	badStatus := caseRequest(nil)
	badStatus.CaseStatus = "archived"

	cases := []struct {
		name string
		req  CaseRequest
	}{
		{"missing employer", missing},
		{"unknown status", badStatus},
		{"unknown date field", caseRequest(map[string]string{"favoriteDate": "2024-01-01"})},
		{"malformed date", caseRequest(map[string]string{"pwdFilingDate": "2024-02-30"})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodPost, "/api/cases", tc.req)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}

	rec := doRequest(t, h, http.MethodGet, "/api/cases", nil)
	assert.Empty(t, decode[[]CaseDTO](t, rec), "nothing was stored")
}

func TestUpdateCase_KeepsDates(t *testing.T) {
	h := setupTestHandler(t, "2024-06-01")
	createCase(t, h, map[string]string{"pwdFilingDate": "2024-01-02"})

	req := caseRequest(map[string]string{"pwdFilingDate": "2024-03-03"})
	req.CaseStatus = "recruitment"
	rec := doRequest(t, h, http.MethodPut, "/api/cases/case-1", req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	dto := decode[CaseDTO](t, rec)
	assert.Equal(t, "recruitment", dto.CaseStatus)
	assert.Equal(t, "2024-01-02", dto.Dates["pwdFilingDate"], "dates only change through PATCH /dates")
}

func TestDeleteCase(t *testing.T) {
	h := setupTestHandler(t, "2024-06-01")
	createCase(t, h, nil)

	rec := doRequest(t, h, http.MethodDelete, "/api/cases/case-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusNotFound, doRequest(t, h, http.MethodGet, "/api/cases/case-1", nil).Code)
	assert.Equal(t, http.StatusNotFound, doRequest(t, h, http.MethodDelete, "/api/cases/case-1", nil).Code)
}

// =============================================================================
// DATES
// =============================================================================

func TestUpdateDates_ClearCascades(t *testing.T) {
	// GIVEN: A determination with its auto expiration
	// WHEN: The determination is cleared
	// THEN: The patch writes "" for both and the stored case agrees

	h := setupTestHandler(t, "2024-06-01")
	createCase(t, h, map[string]string{"pwdDeterminationDate": "2024-05-15"})

	rec := doRequest(t, h, http.MethodPatch, "/api/cases/case-1/dates",
		UpdateDatesRequest{Dates: map[string]string{"pwdDeterminationDate": ""}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[DatesUpdateResponse](t, rec)
	assert.Equal(t, map[string]string{"pwdDeterminationDate": "", "pwdExpirationDate": ""}, resp.Patch)
	assert.Empty(t, resp.Case.AutoCalculatedFields)

	stored := decode[CaseDTO](t, doRequest(t, h, http.MethodGet, "/api/cases/case-1", nil))
	value, present := stored.Dates["pwdExpirationDate"]
	assert.True(t, present)
	assert.Equal(t, "", value)
}

func TestUpdateDates_ManualPinThenRecalculate(t *testing.T) {
	h := setupTestHandler(t, "2024-06-01")
	createCase(t, h, map[string]string{"pwdDeterminationDate": "2024-05-15"})

	// Typing into the calculated field pins it
	rec := doRequest(t, h, http.MethodPatch, "/api/cases/case-1/dates",
		UpdateDatesRequest{Dates: map[string]string{"pwdExpirationDate": "2024-09-01"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"pwdExpirationDate"}, decode[DatesUpdateResponse](t, rec).Case.ManualFields)

	// A new determination leaves the pin alone
	rec = doRequest(t, h, http.MethodPatch, "/api/cases/case-1/dates",
		UpdateDatesRequest{Dates: map[string]string{"pwdDeterminationDate": "2024-05-20"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-09-01", decode[DatesUpdateResponse](t, rec).Case.Dates["pwdExpirationDate"])

	// Recalculate drops the pin
	rec = doRequest(t, h, http.MethodPost, "/api/cases/case-1/dates/pwdExpirationDate/recalculate", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[DatesUpdateResponse](t, rec)
	assert.Equal(t, "2024-08-18", resp.Case.Dates["pwdExpirationDate"])
	assert.Empty(t, resp.Case.ManualFields)
	assert.Equal(t, []string{"pwdExpirationDate"}, resp.Case.AutoCalculatedFields)
}

func TestUpdateDates_Errors(t *testing.T) {
	h := setupTestHandler(t, "2024-06-01")
	createCase(t, h, nil)

	cases := []struct {
		name   string
		path   string
		dates  map[string]string
		status int
	}{
		{"unknown field", "/api/cases/case-1/dates", map[string]string{"favoriteDate": "2024-01-01"}, http.StatusBadRequest},
		{"malformed date", "/api/cases/case-1/dates", map[string]string{"pwdFilingDate": "01/02/2024"}, http.StatusBadRequest},
		{"missing case", "/api/cases/nope/dates", map[string]string{"pwdFilingDate": "2024-01-02"}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodPatch, tc.path, UpdateDatesRequest{Dates: tc.dates})
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}

	rec := doRequest(t, h, http.MethodPost, "/api/cases/case-1/dates/pwdFilingDate/recalculate", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "not a calculated field")
}

// =============================================================================
// COMPUTATIONS
// =============================================================================

func TestGetFilingWindow(t *testing.T) {
	h := setupTestHandler(t, "2024-04-01")
	createCase(t, h, recruitmentDone())

	rec := doRequest(t, h, http.MethodGet, "/api/cases/case-1/filing-window", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	w := decode[FilingWindowDTO](t, rec)
	assert.True(t, w.IsOpen)
	assert.Equal(t, "2024-03-15", w.OpensOn)
	assert.Equal(t, "2024-07-12", w.ClosesOn)
	assert.Equal(t, 102, w.DaysRemaining)
	assert.False(t, w.IsPwdLimited)
	assert.Equal(t, 120, w.LengthDays)
	assert.Equal(t, "14.3", w.ElapsedPercent.String())
}

func TestGetConstraints(t *testing.T) {
	h := setupTestHandler(t, "2024-04-01")
	createCase(t, h, recruitmentDone())

	rec := doRequest(t, h, http.MethodGet, "/api/cases/case-1/constraints", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	cs := decode[map[string]ConstraintDTO](t, rec)
	assert.Len(t, cs, len(perm.Catalogue))
	assert.Equal(t, "2024-03-15", cs["eta9089FilingDate"].Min)
	assert.Equal(t, "2024-04-01", cs["eta9089FilingDate"].Max)
	assert.Equal(t, string(perm.BindingToday), cs["eta9089FilingDate"].Binding)
}

func TestGetValidation(t *testing.T) {
	h := setupTestHandler(t, "2024-06-01")
	createCase(t, h, map[string]string{
		"sundayAdFirstDate":  "2024-01-15", // Monday
		"sundayAdSecondDate": "2024-01-21",
	})

	rec := doRequest(t, h, http.MethodGet, "/api/cases/case-1/validation", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	v := decode[ValidationDTO](t, rec)
	assert.False(t, v.Valid)
	require.NotEmpty(t, v.Errors)
	var rules []string
	for _, e := range v.Errors {
		rules = append(rules, e.RuleID)
	}
	assert.Contains(t, rules, "sunday_ad_not_sunday")
}

func TestCheckStatus(t *testing.T) {
	h := setupTestHandler(t, "2024-06-01")
	createCase(t, h, recruitmentDone())

	rec := doRequest(t, h, http.MethodPost, "/api/cases/case-1/status-check",
		StatusCheckRequest{CaseStatus: "i140", ProgressStatus: "working"})
	require.Equal(t, http.StatusOK, rec.Code)
	check := decode[StatusCheckDTO](t, rec)
	assert.False(t, check.Valid)
	assert.Contains(t, check.Warning, "I-140 selected")

	rec = doRequest(t, h, http.MethodPost, "/api/cases/case-1/status-check",
		StatusCheckRequest{CaseStatus: "eta9089", ProgressStatus: "working"})
	assert.True(t, decode[StatusCheckDTO](t, rec).Valid)
}

func TestGetProgressAndDeadlines(t *testing.T) {
	h := setupTestHandler(t, "2024-06-20")
	createCase(t, h, recruitmentDone())

	rec := doRequest(t, h, http.MethodGet, "/api/cases/case-1/progress", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[ProgressDTO](t, rec)
	assert.Equal(t, "50", p.Total.String())
	require.Len(t, p.Stages, 4)

	rec = doRequest(t, h, http.MethodGet, "/api/cases/case-1/deadlines", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ds := decode[[]DeadlineDTO](t, rec)
	require.NotEmpty(t, ds)
	assert.Equal(t, "ready_to_file", ds[0].Kind)
	assert.Equal(t, "expired", ds[0].Urgency)
}

func TestGetRules(t *testing.T) {
	h := setupTestHandler(t, "2024-06-01")

	rec := doRequest(t, h, http.MethodGet, "/api/rules", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.EqualValues(t, 30, doc["job_order_days"])
	assert.EqualValues(t, 180, doc["recruitment_cap_days"])
}

// =============================================================================
// SECTIONS
// =============================================================================

func TestSections_OverridePersists(t *testing.T) {
	// GIVEN: A case without a PWD determination
	// WHEN: Forcing the recruitment section open, then undoing it
	// THEN: The override and its warning survive a reload, then disappear

	h := setupTestHandler(t, "2024-06-01")
	createCase(t, h, nil)

	states := decode[[]SectionStateDTO](t, doRequest(t, h, http.MethodGet, "/api/cases/case-1/sections", nil))
	require.Len(t, states, len(perm.Sections))
	assert.Equal(t, "recruitment", states[1].Section)
	assert.False(t, states[1].IsEnabled)
	assert.Equal(t, "Enter PWD determination date first", states[1].DisabledReason)

	rec := doRequest(t, h, http.MethodPost, "/api/cases/case-1/sections/recruitment/override", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	states = decode[[]SectionStateDTO](t, doRequest(t, h, http.MethodGet, "/api/cases/case-1/sections", nil))
	assert.True(t, states[1].IsOpen)
	assert.True(t, states[1].IsManualOverride)
	assert.True(t, states[1].IsInteractable)
	assert.Equal(t, perm.OverrideWarning, states[1].OverrideWarning)

	rec = doRequest(t, h, http.MethodDelete, "/api/cases/case-1/sections/recruitment/override", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	states = decode[[]SectionStateDTO](t, rec)
	assert.False(t, states[1].IsOpen)
	assert.False(t, states[1].IsManualOverride)
}

func TestSections_ToggleAndUnknown(t *testing.T) {
	h := setupTestHandler(t, "2024-06-01")
	createCase(t, h, nil)

	// PWD is the first incomplete stage, so it starts open
	states := decode[[]SectionStateDTO](t, doRequest(t, h, http.MethodGet, "/api/cases/case-1/sections", nil))
	assert.True(t, states[0].IsOpen)

	rec := doRequest(t, h, http.MethodPost, "/api/cases/case-1/sections/pwd/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[[]SectionStateDTO](t, rec)[0].IsOpen)

	rec = doRequest(t, h, http.MethodPost, "/api/cases/case-1/sections/billing/open", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// SCHEDULER
// =============================================================================

func TestDeadlineScheduler_RecordsAlertsOnce(t *testing.T) {
	// GIVEN: A case whose filing window closes in 22 days (2024-07-12)
	// WHEN: The scheduler runs twice
	// THEN: Alerts inside the 30-day horizon are recorded once

	h := setupTestHandler(t, "2024-06-20")
	createCase(t, h, recruitmentDone())

	scheduler := NewDeadlineScheduler(h.Store, h.Engine)
	h.Scheduler = scheduler

	// ready_to_file (overdue), eta9089_filing and recruitment_expires;
	// the PWD expiration is 194 days out
	assert.Equal(t, 3, scheduler.RunNow())
	assert.Equal(t, 0, scheduler.RunNow())

	rec := doRequest(t, h, http.MethodGet, "/api/alerts?case_id=case-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[AlertsResponse](t, rec)
	require.Len(t, resp.Alerts, 3)
	assert.Equal(t, "2024-03-15", resp.Alerts[0].DueDate)

	next, err := time.Parse(time.RFC3339, resp.NextRun)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(scheduler.CheckInterval), next, time.Minute)

	scheduler.Enabled = false
	rec = doRequest(t, h, http.MethodGet, "/api/alerts", nil)
	assert.Empty(t, decode[AlertsResponse](t, rec).NextRun)
}

func TestDeadlineScheduler_StartStop(t *testing.T) {
	h := setupTestHandler(t, "2024-06-20")
	scheduler := NewDeadlineScheduler(h.Store, h.Engine)
	scheduler.Enabled = false

	scheduler.Start()
	scheduler.Stop()

	scheduler.Enabled = true
	scheduler.Start()
	scheduler.Stop()
	scheduler.Stop()
}

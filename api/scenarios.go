/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built cases at representative stages of the PERM workflow
	so the form client (and a tester) can see every section state, window
	state and deadline kind without typing dates by hand.

AVAILABLE SCENARIOS:

	new-case:                Header only, nothing dated
	awaiting-determination:  PWD filed, no determination yet
	recruitment-in-progress: PWD determined, Sunday ads and job order running
	waiting-period:          Recruitment complete, inside the 30-day wait
	window-open:             Professional case, filing window open
	pwd-limited:             Window closes early on the PWD expiration
	certified:               ETA 9089 certified, I-140 not yet filed
	i140-rfe:                I-140 filed with an open RFE

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Build each case header
 3. Apply its dates as user edits through the engine, so every derived
    field is calculated (and owned) exactly as if typed in the form
 4. Persist header, dates and ownership

All dates are relative to the engine's today, so a scenario looks the same
whenever it is loaded.

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "window-open"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create builder function returning the seeded cases
 3. Add it to scenarioBuilders

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: applyDates, the same path PATCH /dates uses
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/warp/perm-engine/generic"
	"github.com/warp/perm-engine/perm"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "new-case",
		Name:        "New Case",
		Description: "Employer and beneficiary entered, nothing filed yet",
		Stage:       string(perm.StagePWD),
	},
	{
		ID:          "awaiting-determination",
		Name:        "Awaiting Determination",
		Description: "PWD request filed 45 days ago, determination pending",
		Stage:       string(perm.StagePWD),
	},
	{
		ID:          "recruitment-in-progress",
		Name:        "Recruitment In Progress",
		Description: "Sunday ads published, job order running, notice of filing still to post",
		Stage:       string(perm.StageRecruitment),
	},
	{
		ID:          "waiting-period",
		Name:        "30-Day Waiting Period",
		Description: "Recruitment finished 10 days ago; the filing window opens in 20 days",
		Stage:       string(perm.StageRecruitment),
	},
	{
		ID:          "window-open",
		Name:        "Filing Window Open",
		Description: "Professional occupation with three additional methods; ETA 9089 can be filed now",
		Stage:       string(perm.StageETA9089),
	},
	{
		ID:          "pwd-limited",
		Name:        "PWD-Limited Window",
		Description: "The PWD expires before the 180-day recruitment limit and closes the window early",
		Stage:       string(perm.StageETA9089),
	},
	{
		ID:          "certified",
		Name:        "ETA 9089 Certified",
		Description: "Labor certification approved; the I-140 must be filed before it expires",
		Stage:       string(perm.StageI140),
	},
	{
		ID:          "i140-rfe",
		Name:        "I-140 With RFE",
		Description: "I-140 filed and a Request for Evidence received",
		Stage:       string(perm.StageI140),
	},
}

// seededCase is a case header plus the dates typed into it.
type seededCase struct {
	header perm.Case
	dates  map[generic.Field]generic.Date
}

var scenarioBuilders = map[string]func(today generic.Date) []seededCase{
	"new-case":                newCaseScenario,
	"awaiting-determination":  awaitingDeterminationScenario,
	"recruitment-in-progress": recruitmentInProgressScenario,
	"waiting-period":          waitingPeriodScenario,
	"window-open":             windowOpenScenario,
	"pwd-limited":             pwdLimitedScenario,
	"certified":               certifiedScenario,
	"i140-rfe":                i140RFEScenario,
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}

	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:          h.currentScenario,
		Name:        h.currentScenario,
		Description: "Currently loaded scenario",
	})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if _, ok := scenarioBuilders[req.ScenarioID]; !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err := h.loadScenario(r.Context(), req.ScenarioID); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) loadScenario(ctx context.Context, id string) error {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	if err := h.Store.Reset(ctx); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	h.currentScenario = ""

	for _, sc := range scenarioBuilders[id](h.Engine.Today()) {
		if err := h.seed(ctx, sc); err != nil {
			return fmt.Errorf("seed %s: %w", sc.header.ID, err)
		}
	}

	h.currentScenario = id
	return nil
}

// seed stores one case, running its dates through the engine.
func (h *Handler) seed(ctx context.Context, sc seededCase) error {
	edits := make(map[string]string, len(sc.dates))
	for f, d := range sc.dates {
		edits[string(f)] = d.String()
	}

	c := sc.header
	c.Dates = generic.Dates{}
	if c.ProgressStatus == "" {
		c.ProgressStatus = perm.ProgressWorking
	}

	u, err := h.applyDates(c, generic.Ownership{}, edits)
	if err != nil {
		return err
	}
	if err := h.Store.SaveCase(ctx, &u.Case); err != nil {
		return err
	}
	return h.Store.WriteFields(ctx, u.Case.ID, u.Patch, u.Ownership)
}

// =============================================================================
// SCENARIO BUILDERS
// =============================================================================

func header(id, employer, beneficiary, title string, status perm.CaseStatus) perm.Case {
	return perm.Case{
		ID:                    id,
		EmployerName:          employer,
		BeneficiaryIdentifier: beneficiary,
		PositionTitle:         title,
		CaseStatus:            status,
	}
}

// recruitmentEndingOn lays out complete base recruitment whose last step is
// the job order end on last. The ends of the job order and notice of filing
// are left to the engine.
func recruitmentEndingOn(last generic.Date) (first generic.Date, dates map[generic.Field]generic.Date) {
	jobOrderStart := last.AddDays(-30)
	first = jobOrderStart.LastSundayOnOrBefore()
	return first, map[generic.Field]generic.Date{
		perm.SundayAdFirstDate:       first,
		perm.SundayAdSecondDate:      first.AddDays(7),
		perm.JobOrderStartDate:       jobOrderStart,
		perm.NoticeOfFilingStartDate: last.AddDays(-25),
	}
}

// withPWD adds a determination 30 days before the first recruitment step and
// the expiration printed on the determination letter.
func withPWD(dates map[generic.Field]generic.Date, first, expiration generic.Date) map[generic.Field]generic.Date {
	determination := first.AddDays(-30)
	dates[perm.PWDFilingDate] = determination.AddDays(-90)
	dates[perm.PWDDeterminationDate] = determination
	dates[perm.PWDExpirationDate] = expiration
	return dates
}

func newCaseScenario(_ generic.Date) []seededCase {
	return []seededCase{{
		header: header("case-new", "Northwind Labs", "NW-0001", "Data Engineer", perm.CaseStatusPWD),
	}}
}

func awaitingDeterminationScenario(today generic.Date) []seededCase {
	c := header("case-pwd", "Contoso Ltd", "CT-1042", "Mechanical Engineer", perm.CaseStatusPWD)
	c.ProgressStatus = perm.ProgressFiled
	return []seededCase{{
		header: c,
		dates:  map[generic.Field]generic.Date{perm.PWDFilingDate: today.AddDays(-45)},
	}}
}

func recruitmentInProgressScenario(today generic.Date) []seededCase {
	first := today.AddDays(-14).LastSundayOnOrBefore()
	determination := today.AddDays(-60)
	return []seededCase{{
		header: header("case-recruiting", "Fabrikam Inc", "FB-2210", "Financial Analyst", perm.CaseStatusRecruitment),
		dates: map[generic.Field]generic.Date{
			perm.PWDFilingDate:        determination.AddDays(-90),
			perm.PWDDeterminationDate: determination,
			perm.SundayAdFirstDate:    first,
			perm.SundayAdSecondDate:   first.AddDays(7),
			perm.JobOrderStartDate:    today.AddDays(-10),
		},
	}}
}

func waitingPeriodScenario(today generic.Date) []seededCase {
	first, dates := recruitmentEndingOn(today.AddDays(-10))
	return []seededCase{{
		header: header("case-waiting", "Tailspin Toys", "TT-3307", "Product Designer", perm.CaseStatusRecruitment),
		dates:  withPWD(dates, first, first.AddDays(335)),
	}}
}

func windowOpenScenario(today generic.Date) []seededCase {
	last := today.AddDays(-45)
	first, dates := recruitmentEndingOn(last)

	c := header("case-window", "Litware Corp", "LW-4481", "Senior Software Engineer", perm.CaseStatusETA9089)
	c.IsProfessionalOccupation = true
	c.RecruitmentMethods = []perm.RecruitmentMethod{
		{Method: perm.MethodEmployerWebsite, Date: last.AddDays(-20).String(), Description: "Careers page posting"},
		{Method: perm.MethodJobSearchWebsite, Date: last.AddDays(-15).String()},
		{Method: perm.MethodEmployeeReferral, Date: last.AddDays(-5).String(), Description: "Internal referral bonus"},
	}
	return []seededCase{{header: c, dates: withPWD(dates, first, first.AddDays(335))}}
}

func pwdLimitedScenario(today generic.Date) []seededCase {
	first, dates := recruitmentEndingOn(today.AddDays(-45))
	return []seededCase{{
		header: header("case-pwd-limited", "Adventure Works", "AW-5120", "Industrial Chemist", perm.CaseStatusETA9089),
		dates:  withPWD(dates, first, today.AddDays(20)),
	}}
}

func certifiedScenario(today generic.Date) []seededCase {
	first, dates := recruitmentEndingOn(today.AddDays(-240))
	dates = withPWD(dates, first, first.AddDays(335))
	dates[perm.ETA9089FilingDate] = today.AddDays(-200)
	dates[perm.ETA9089CertificationDate] = today.AddDays(-20)
	return []seededCase{{
		header: header("case-certified", "Wide World Importers", "WW-6031", "Logistics Manager", perm.CaseStatusI140),
		dates:  dates,
	}}
}

func i140RFEScenario(today generic.Date) []seededCase {
	first, dates := recruitmentEndingOn(today.AddDays(-300))
	dates = withPWD(dates, first, first.AddDays(335))
	dates[perm.ETA9089FilingDate] = today.AddDays(-260)
	dates[perm.ETA9089CertificationDate] = today.AddDays(-120)
	dates[perm.I140FilingDate] = today.AddDays(-90)
	dates[perm.I140ReceiptDate] = today.AddDays(-85)
	dates[perm.RFEReceivedDate] = today.AddDays(-10)
	dates[perm.RFEDueDate] = today.AddDays(77)

	c := header("case-rfe", "Proseware Inc", "PW-7719", "Research Scientist", perm.CaseStatusI140)
	c.ProgressStatus = perm.ProgressRFIRFE
	return []seededCase{{header: c, dates: dates}}
}

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

TYPES:
  Case:
    CaseDTO, CaseRequest, RecruitmentMethodDTO

  Dates:
    UpdateDatesRequest, DatesUpdateResponse

  Computations:
    ConstraintDTO, FilingWindowDTO, SectionStateDTO, ValidationDTO,
    StatusCheckRequest, StatusCheckDTO, DeadlineDTO, ProgressDTO

  Scheduler:
    AlertDTO, AlertsResponse

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

DATES:
  Date fields keep their catalogue names ("pwdDeterminationDate") as map
  keys; values are "YYYY-MM-DD" and "" means cleared.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/rules.go: RuleSetJSON returned by GET /api/rules
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/perm-engine/generic"
	"github.com/warp/perm-engine/perm"
	"github.com/warp/perm-engine/store/sqlite"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// RecruitmentMethodDTO is one professional recruitment step.
type RecruitmentMethodDTO struct {
	Method      string `json:"method"`
	Date        string `json:"date"`
	Description string `json:"description,omitempty"`
}

// CaseDTO represents a case in API responses.
type CaseDTO struct {
	ID                       string                 `json:"id"`
	EmployerName             string                 `json:"employer_name"`
	BeneficiaryIdentifier    string                 `json:"beneficiary_identifier"`
	PositionTitle            string                 `json:"position_title,omitempty"`
	CaseStatus               string                 `json:"case_status"`
	ProgressStatus           string                 `json:"progress_status"`
	IsProfessionalOccupation bool                   `json:"is_professional_occupation"`
	RecruitmentMethods       []RecruitmentMethodDTO `json:"recruitment_methods"`
	Dates                    map[string]string      `json:"dates"`
	AutoCalculatedFields     []string               `json:"auto_calculated_fields"`
	ManualFields             []string               `json:"manual_fields"`
	ApplicantsCount          int                    `json:"applicants_count"`
	Notes                    string                 `json:"notes,omitempty"`
	CreatedAt                string                 `json:"created_at,omitempty"`
	UpdatedAt                string                 `json:"updated_at,omitempty"`
}

// CaseRequest creates or updates a case header. Dates are honoured on
// create only; later edits go through PATCH /dates.
type CaseRequest struct {
	ID                       string                 `json:"id"`
	EmployerName             string                 `json:"employer_name"`
	BeneficiaryIdentifier    string                 `json:"beneficiary_identifier"`
	PositionTitle            string                 `json:"position_title"`
	CaseStatus               string                 `json:"case_status"`
	ProgressStatus           string                 `json:"progress_status"`
	IsProfessionalOccupation bool                   `json:"is_professional_occupation"`
	RecruitmentMethods       []RecruitmentMethodDTO `json:"recruitment_methods"`
	Dates                    map[string]string      `json:"dates,omitempty"`
	ApplicantsCount          int                    `json:"applicants_count"`
	Notes                    string                 `json:"notes"`
}

// UpdateDatesRequest carries user edits; "" clears a field.
type UpdateDatesRequest struct {
	Dates map[string]string `json:"dates"`
}

// DatesUpdateResponse returns the case after the edit and every field the
// edit changed, including cascade clears.
type DatesUpdateResponse struct {
	Case  CaseDTO           `json:"case"`
	Patch map[string]string `json:"patch"`
}

// ConstraintDTO is the allowed range of one field. Empty min/max = unbounded.
type ConstraintDTO struct {
	Min     string `json:"min,omitempty"`
	Max     string `json:"max,omitempty"`
	Hint    string `json:"hint,omitempty"`
	Binding string `json:"binding,omitempty"`
}

// FilingWindowDTO is the ETA 9089 filing window.
type FilingWindowDTO struct {
	IsOpen         bool            `json:"is_open"`
	OpensOn        string          `json:"opens_on,omitempty"`
	ClosesOn       string          `json:"closes_on,omitempty"`
	CloseFromCap   string          `json:"close_from_cap,omitempty"`
	DaysUntilOpen  int             `json:"days_until_open"`
	DaysRemaining  int             `json:"days_remaining"`
	DaysPastClose  int             `json:"days_past_close"`
	IsPwdLimited   bool            `json:"is_pwd_limited"`
	LengthDays     int             `json:"length_days"`
	ElapsedPercent decimal.Decimal `json:"elapsed_percent"`
}

// SectionStateDTO is the display state of one form section.
type SectionStateDTO struct {
	Section          string `json:"section"`
	IsEnabled        bool   `json:"is_enabled"`
	IsOpen           bool   `json:"is_open"`
	IsInteractable   bool   `json:"is_interactable"`
	IsManualOverride bool   `json:"is_manual_override"`
	OverrideWarning  string `json:"override_warning,omitempty"`
	DisabledReason   string `json:"disabled_reason,omitempty"`
	StatusInfo       string `json:"status_info,omitempty"`
}

// FieldErrorDTO is one validation finding.
type FieldErrorDTO struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	RuleID  string `json:"rule_id"`
}

// ValidationDTO is a full validation report.
type ValidationDTO struct {
	Valid    bool            `json:"valid"`
	Errors   []FieldErrorDTO `json:"errors"`
	Warnings []FieldErrorDTO `json:"warnings"`
}

// StatusCheckRequest is a case/progress status the user is about to pick.
type StatusCheckRequest struct {
	CaseStatus     string `json:"case_status"`
	ProgressStatus string `json:"progress_status"`
}

// StatusCheckDTO never blocks the selection; Warning explains a mismatch.
type StatusCheckDTO struct {
	Valid   bool   `json:"valid"`
	Warning string `json:"warning,omitempty"`
}

// DeadlineDTO is one upcoming (or overdue) deadline.
type DeadlineDTO struct {
	Kind          string `json:"kind"`
	Label         string `json:"label"`
	Date          string `json:"date"`
	DaysRemaining int    `json:"days_remaining"`
	Urgency       string `json:"urgency"`
}

// StageProgressDTO is one stage's share of the total.
type StageProgressDTO struct {
	Stage   string          `json:"stage"`
	Percent decimal.Decimal `json:"percent"`
}

// ProgressDTO is the weighted completion of a case.
type ProgressDTO struct {
	Total  decimal.Decimal    `json:"total"`
	Stages []StageProgressDTO `json:"stages"`
}

// AlertDTO is one recorded scheduler alert.
type AlertDTO struct {
	ID            string `json:"id"`
	CaseID        string `json:"case_id"`
	Kind          string `json:"kind"`
	Label         string `json:"label"`
	DueDate       string `json:"due_date"`
	DaysRemaining int    `json:"days_remaining"`
	Urgency       string `json:"urgency"`
	CreatedAt     string `json:"created_at"`
}

// AlertsResponse lists recorded alerts and when the scheduler runs next.
type AlertsResponse struct {
	Alerts  []AlertDTO `json:"alerts"`
	NextRun string     `json:"next_run,omitempty"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Stage       string `json:"stage,omitempty"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toCaseDTO(c *perm.Case, own generic.Ownership) CaseDTO {
	dto := CaseDTO{
		ID:                       c.ID,
		EmployerName:             c.EmployerName,
		BeneficiaryIdentifier:    c.BeneficiaryIdentifier,
		PositionTitle:            c.PositionTitle,
		CaseStatus:               string(c.CaseStatus),
		ProgressStatus:           string(c.ProgressStatus),
		IsProfessionalOccupation: c.IsProfessionalOccupation,
		RecruitmentMethods:       make([]RecruitmentMethodDTO, len(c.RecruitmentMethods)),
		Dates:                    toDateMap(c.Dates),
		AutoCalculatedFields:     []string{},
		ManualFields:             []string{},
		ApplicantsCount:          c.ApplicantsCount,
		Notes:                    c.Notes,
	}
	for i, m := range c.RecruitmentMethods {
		dto.RecruitmentMethods[i] = RecruitmentMethodDTO{Method: m.Method, Date: m.Date, Description: m.Description}
	}
	for _, f := range own.AutoFields() {
		dto.AutoCalculatedFields = append(dto.AutoCalculatedFields, string(f))
	}
	for _, info := range perm.Catalogue {
		if own.IsManual(info.Field) {
			dto.ManualFields = append(dto.ManualFields, string(info.Field))
		}
	}
	if !c.CreatedAt.IsZero() {
		dto.CreatedAt = c.CreatedAt.Format(time.RFC3339)
	}
	if !c.UpdatedAt.IsZero() {
		dto.UpdatedAt = c.UpdatedAt.Format(time.RFC3339)
	}
	return dto
}

// toCase builds a case header from a request. Dates are left empty.
func (req CaseRequest) toCase() perm.Case {
	c := perm.Case{
		ID:                       req.ID,
		EmployerName:             req.EmployerName,
		BeneficiaryIdentifier:    req.BeneficiaryIdentifier,
		PositionTitle:            req.PositionTitle,
		CaseStatus:               perm.CaseStatus(req.CaseStatus),
		ProgressStatus:           perm.ProgressStatus(req.ProgressStatus),
		IsProfessionalOccupation: req.IsProfessionalOccupation,
		Dates:                    generic.Dates{},
		ApplicantsCount:          req.ApplicantsCount,
		Notes:                    req.Notes,
	}
	if c.CaseStatus == "" {
		c.CaseStatus = perm.CaseStatusPWD
	}
	if c.ProgressStatus == "" {
		c.ProgressStatus = perm.ProgressWorking
	}
	for _, m := range req.RecruitmentMethods {
		c.RecruitmentMethods = append(c.RecruitmentMethods, perm.RecruitmentMethod{
			Method: m.Method, Date: m.Date, Description: m.Description,
		})
	}
	return c
}

func toDateMap(d generic.Dates) map[string]string {
	out := make(map[string]string, len(d))
	for f, v := range d {
		out[string(f)] = v
	}
	return out
}

func toConstraintDTOs(m map[generic.Field]perm.DateConstraint) map[string]ConstraintDTO {
	out := make(map[string]ConstraintDTO, len(m))
	for f, dc := range m {
		out[string(f)] = ConstraintDTO{
			Min:     dc.Min.String(),
			Max:     dc.Max.String(),
			Hint:    dc.Hint,
			Binding: string(dc.Binding),
		}
	}
	return out
}

func toFilingWindowDTO(w perm.FilingWindowStatus) FilingWindowDTO {
	return FilingWindowDTO{
		IsOpen:         w.IsOpen,
		OpensOn:        w.OpensOn.String(),
		ClosesOn:       w.ClosesOn.String(),
		CloseFromCap:   w.CloseFromCap.String(),
		DaysUntilOpen:  w.DaysUntilOpen,
		DaysRemaining:  w.DaysRemaining,
		DaysPastClose:  w.DaysPastClose,
		IsPwdLimited:   w.IsPwdLimited,
		LengthDays:     w.Period().Length(),
		ElapsedPercent: w.ElapsedPercent,
	}
}

// toSectionDTOs lists sections in display order.
func toSectionDTOs(states map[perm.Section]perm.SectionState) []SectionStateDTO {
	dtos := make([]SectionStateDTO, 0, len(perm.Sections))
	for _, sec := range perm.Sections {
		st := states[sec]
		dtos = append(dtos, SectionStateDTO{
			Section:          string(sec),
			IsEnabled:        st.IsEnabled,
			IsOpen:           st.IsOpen,
			IsInteractable:   st.IsInteractable(),
			IsManualOverride: st.IsManualOverride,
			OverrideWarning:  st.OverrideWarning,
			DisabledReason:   st.DisabledReason,
			StatusInfo:       st.StatusInfo,
		})
	}
	return dtos
}

func toValidationDTO(r generic.ValidationResult) ValidationDTO {
	conv := func(errs []generic.FieldError) []FieldErrorDTO {
		out := make([]FieldErrorDTO, len(errs))
		for i, e := range errs {
			out[i] = FieldErrorDTO{Field: e.Field, Message: e.Message, RuleID: e.RuleID}
		}
		return out
	}
	return ValidationDTO{Valid: r.Valid, Errors: conv(r.Errors), Warnings: conv(r.Warnings)}
}

func toDeadlineDTOs(ds []perm.Deadline) []DeadlineDTO {
	dtos := make([]DeadlineDTO, len(ds))
	for i, d := range ds {
		dtos[i] = DeadlineDTO{
			Kind:          string(d.Kind),
			Label:         d.Label,
			Date:          d.Date.String(),
			DaysRemaining: d.DaysRemaining,
			Urgency:       string(d.Urgency),
		}
	}
	return dtos
}

func toProgressDTO(p perm.Progress) ProgressDTO {
	dto := ProgressDTO{Total: p.Total, Stages: make([]StageProgressDTO, len(p.Stages))}
	for i, s := range p.Stages {
		dto.Stages[i] = StageProgressDTO{Stage: string(s.Stage), Percent: s.Percent}
	}
	return dto
}

func toAlertDTOs(alerts []sqlite.DeadlineAlert) []AlertDTO {
	dtos := make([]AlertDTO, len(alerts))
	for i, a := range alerts {
		dtos[i] = AlertDTO{
			ID:            a.ID,
			CaseID:        a.CaseID,
			Kind:          string(a.Kind),
			Label:         a.Label,
			DueDate:       a.DueDate.String(),
			DaysRemaining: a.DaysRemaining,
			Urgency:       string(a.Urgency),
			CreatedAt:     a.CreatedAt.Format(time.RFC3339),
		}
	}
	return dtos
}

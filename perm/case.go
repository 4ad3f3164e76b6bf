package perm

import (
	"time"

	"github.com/warp/perm-engine/generic"
)

// =============================================================================
// CASE - The authoritative record every computation reads
// =============================================================================

type Case struct {
	ID                    string
	EmployerName          string
	BeneficiaryIdentifier string
	PositionTitle         string
	CaseStatus            CaseStatus
	ProgressStatus        ProgressStatus

	IsProfessionalOccupation bool
	RecruitmentMethods       []RecruitmentMethod

	Dates generic.Dates

	ApplicantsCount int
	Notes           string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Date is shorthand for c.Dates.Date; malformed values read as absent.
func (c *Case) Date(f generic.Field) (generic.Date, bool) {
	return c.Dates.Date(f)
}

// Has reports whether f holds a valid date. Malformed values read as absent,
// the same way Date does.
func (c *Case) Has(f generic.Field) bool {
	_, ok := c.Dates.Date(f)
	return ok
}

// CaseStatus is the stage the user says the case is in.
type CaseStatus string

const (
	CaseStatusPWD         CaseStatus = "pwd"
	CaseStatusRecruitment CaseStatus = "recruitment"
	CaseStatusETA9089     CaseStatus = "eta9089"
	CaseStatusI140        CaseStatus = "i140"
	CaseStatusClosed      CaseStatus = "closed"
)

var CaseStatuses = []CaseStatus{CaseStatusPWD, CaseStatusRecruitment, CaseStatusETA9089, CaseStatusI140, CaseStatusClosed}

// ProgressStatus is the user's progress label within the current stage.
type ProgressStatus string

const (
	ProgressWorking       ProgressStatus = "working"
	ProgressWaitingIntake ProgressStatus = "waiting_intake"
	ProgressFiled         ProgressStatus = "filed"
	ProgressApproved      ProgressStatus = "approved"
	ProgressUnderReview   ProgressStatus = "under_review"
	ProgressRFIRFE        ProgressStatus = "rfi_rfe"
)

var ProgressStatuses = []ProgressStatus{ProgressWorking, ProgressWaitingIntake, ProgressFiled, ProgressApproved, ProgressUnderReview, ProgressRFIRFE}

func (s CaseStatus) IsValid() bool {
	for _, v := range CaseStatuses {
		if v == s {
			return true
		}
	}
	return false
}

func (s ProgressStatus) IsValid() bool {
	for _, v := range ProgressStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// =============================================================================
// RECRUITMENT METHODS - Professional occupations only
// =============================================================================

// RecruitmentMethod is one of the additional recruitment steps required for
// professional occupations (20 CFR 656.17(e)(1)(ii)).
type RecruitmentMethod struct {
	Method      string
	Date        string
	Description string
}

// Recognised method codes.
const (
	MethodJobFair               = "job_fair"
	MethodEmployerWebsite       = "employer_website"
	MethodJobSearchWebsite      = "job_search_website"
	MethodOnCampusRecruiting    = "on_campus_recruiting"
	MethodTradeOrganization     = "trade_professional_organization"
	MethodPrivateEmploymentFirm = "private_employment_firm"
	MethodEmployeeReferral      = "employee_referral_program"
	MethodCampusPlacement       = "campus_placement_office"
	MethodLocalNewspaper        = "local_ethnic_newspaper"
	MethodRadioTV               = "radio_tv_ad"
)

var RecruitmentMethodCodes = []string{
	MethodJobFair, MethodEmployerWebsite, MethodJobSearchWebsite, MethodOnCampusRecruiting,
	MethodTradeOrganization, MethodPrivateEmploymentFirm, MethodEmployeeReferral,
	MethodCampusPlacement, MethodLocalNewspaper, MethodRadioTV,
}

// IsComplete is true when both method and date are filled in.
func (m RecruitmentMethod) IsComplete() bool {
	return m.Method != "" && m.Date != ""
}

// ParsedDate returns the entry's date; malformed dates read as absent.
func (m RecruitmentMethod) ParsedDate() (generic.Date, bool) {
	if m.Date == "" {
		return generic.Date{}, false
	}
	d, err := generic.ParseDate(m.Date)
	if err != nil {
		return generic.Date{}, false
	}
	return d, true
}

func isMethodCode(s string) bool {
	for _, code := range RecruitmentMethodCodes {
		if code == s {
			return true
		}
	}
	return false
}

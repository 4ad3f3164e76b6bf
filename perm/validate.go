/*
validate.go - Cross-field validation of a case

PURPOSE:
  Validate runs two independent passes and reports both:
    1. schema   - required fields, enums, lengths, counts, date syntax
    2. business - date relationships between fields
  The business pass never depends on the schema pass succeeding, so a case
  with a bad enum still gets its Sunday-ad ordering checked. Both passes
  report into one generic.Validation builder.

RULE IDS:
  required, enum, max_length, min_value, unknown_field, invalid_date,
  invalid_method, sunday_ad_order, sunday_ad_not_sunday, date_order,
  method_date_before_determination, method_date_after_deadline,
  professional_methods_incomplete, stale_professional_data
*/
package perm

import (
	"fmt"

	"github.com/warp/perm-engine/generic"
)

const (
	MaxNameLength = 200
	MaxTextLength = 10000
)

// Validate checks c. It never fails; every problem is in the result.
func (e *Engine) Validate(c *Case) generic.ValidationResult {
	v := &generic.Validation{}
	validateSchema(v, c)
	e.validateBusinessRules(v, c)
	return v.Result()
}

// ValidateSchema runs only the schema pass. Saves are refused on its errors;
// business findings never block a save.
func (e *Engine) ValidateSchema(c *Case) generic.ValidationResult {
	v := &generic.Validation{}
	validateSchema(v, c)
	return v.Result()
}

// =============================================================================
// SCHEMA
// =============================================================================

func validateSchema(v *generic.Validation, c *Case) {
	requireText(v, "employerName", c.EmployerName, MaxNameLength)
	requireText(v, "beneficiaryIdentifier", c.BeneficiaryIdentifier, MaxNameLength)
	maxLength(v, "positionTitle", c.PositionTitle, MaxNameLength)
	maxLength(v, "notes", c.Notes, MaxTextLength)

	switch {
	case c.CaseStatus == "":
		v.Error("caseStatus", "required", "Case status is required")
	case !c.CaseStatus.IsValid():
		v.Error("caseStatus", "enum", fmt.Sprintf("Unknown case status %q", c.CaseStatus))
	}
	if c.ProgressStatus != "" && !c.ProgressStatus.IsValid() {
		v.Error("progressStatus", "enum", fmt.Sprintf("Unknown progress status %q", c.ProgressStatus))
	}
	if c.ApplicantsCount < 0 {
		v.Error("applicantsCount", "min_value", "Applicants count cannot be negative")
	}

	for _, f := range c.Dates.Keys() {
		if !IsKnownField(f) {
			v.Error(string(f), "unknown_field", fmt.Sprintf("Unknown date field %q", f))
			continue
		}
		if raw := c.Dates.Get(f); raw != "" {
			if _, err := generic.ParseDate(raw); err != nil {
				v.Error(string(f), "invalid_date", fmt.Sprintf("%q is not a valid YYYY-MM-DD date", raw))
			}
		}
	}

	for i, m := range c.RecruitmentMethods {
		path := fmt.Sprintf("recruitmentMethods[%d]", i)
		if m.Method != "" && !isMethodCode(m.Method) {
			v.Error(path+".method", "invalid_method", fmt.Sprintf("Unknown recruitment method %q", m.Method))
		}
		if m.Date != "" {
			if _, err := generic.ParseDate(m.Date); err != nil {
				v.Error(path+".date", "invalid_date", fmt.Sprintf("%q is not a valid YYYY-MM-DD date", m.Date))
			}
		}
		maxLength(v, path+".description", m.Description, MaxTextLength)
	}
}

func requireText(v *generic.Validation, field, value string, limit int) {
	if value == "" {
		v.Error(field, "required", field+" is required")
		return
	}
	maxLength(v, field, value, limit)
}

func maxLength(v *generic.Validation, field, value string, limit int) {
	if n := len([]rune(value)); n > limit {
		v.Error(field, "max_length", fmt.Sprintf("Must be at most %d characters (got %d)", limit, n))
	}
}

// =============================================================================
// BUSINESS RULES
// =============================================================================

// dateOrder pairs must satisfy Before <= After (or < when Strict).
var dateOrder = []struct {
	Before, After generic.Field
	Strict        bool
}{
	{PWDFilingDate, PWDDeterminationDate, true},
	{PWDDeterminationDate, PWDExpirationDate, true},
	{NoticeOfFilingStartDate, NoticeOfFilingEndDate, true},
	{JobOrderStartDate, JobOrderEndDate, true},
	{AdditionalRecruitmentStartDate, AdditionalRecruitmentEndDate, false},
	{ETA9089FilingDate, ETA9089CertificationDate, true},
	{ETA9089CertificationDate, ETA9089ExpirationDate, true},
	{RFIReceivedDate, RFISubmittedDate, false},
	{I140FilingDate, I140ApprovalDate, true},
	{I140FilingDate, I140DenialDate, true},
	{RFEReceivedDate, RFESubmittedDate, false},
}

func (e *Engine) validateBusinessRules(v *generic.Validation, c *Case) {
	first, hasFirst := c.Date(SundayAdFirstDate)
	second, hasSecond := c.Date(SundayAdSecondDate)
	if hasFirst && hasSecond && !second.After(first) {
		v.Error(string(SundayAdSecondDate), "sunday_ad_order", "Second Sunday ad must be after the first")
	}
	if hasFirst && !first.IsSunday() {
		v.Error(string(SundayAdFirstDate), "sunday_ad_not_sunday", first.String()+" is not a Sunday")
	}
	if hasSecond && !second.IsSunday() {
		v.Error(string(SundayAdSecondDate), "sunday_ad_not_sunday", second.String()+" is not a Sunday")
	}

	for _, o := range dateOrder {
		before, ok1 := c.Date(o.Before)
		after, ok2 := c.Date(o.After)
		if !ok1 || !ok2 {
			continue
		}
		if after.Before(before) || (o.Strict && after.Equal(before)) {
			v.Error(string(o.After), "date_order", fmt.Sprintf("%s must be after %s", label(o.After), label(o.Before)))
		}
	}

	if c.IsProfessionalOccupation {
		e.validateMethods(v, c)
	} else if hasStaleProfessionalData(c) {
		v.Warn("isProfessionalOccupation", "stale_professional_data",
			"Professional recruitment data is recorded but the occupation is not marked professional; it is ignored")
	}
}

func (e *Engine) validateMethods(v *generic.Validation, c *Case) {
	determination, hasDetermination := c.Date(PWDDeterminationDate)

	var deadline generic.Date
	off := e.rules.MethodOffset
	if first, ok := FirstRecruitmentDate(c); ok {
		deadline = first.AddDays(off.FromFirstRecruitment)
	}
	if exp, ok := c.Date(PWDExpirationDate); ok {
		d := exp.AddDays(-off.BeforePWDExpiration)
		if deadline.IsZero() || d.Before(deadline) {
			deadline = d
		}
	}

	for i, m := range c.RecruitmentMethods {
		d, ok := m.ParsedDate()
		if !ok {
			continue
		}
		path := fmt.Sprintf("recruitmentMethods[%d].date", i)
		if hasDetermination && d.Before(determination) {
			v.Error(path, "method_date_before_determination", "Must be on or after the PWD determination date ("+determination.String()+")")
		}
		if !deadline.IsZero() && d.After(deadline) {
			v.Error(path, "method_date_after_deadline", "Must be on or before "+deadline.String())
		}
	}

	if n := CompleteMethodCount(c); n < e.rules.MinRecruitmentMethods {
		msg := fmt.Sprintf("Professional occupations need %d additional recruitment methods (%d complete)", e.rules.MinRecruitmentMethods, n)
		if c.CaseStatus == CaseStatusETA9089 || c.CaseStatus == CaseStatusI140 || c.Has(ETA9089FilingDate) {
			v.Error("recruitmentMethods", "professional_methods_incomplete", msg)
		} else {
			v.Warn("recruitmentMethods", "professional_methods_incomplete", msg)
		}
	}
}

func hasStaleProfessionalData(c *Case) bool {
	if len(c.RecruitmentMethods) > 0 {
		return true
	}
	for _, info := range Catalogue {
		if info.Professional && c.Has(info.Field) {
			return true
		}
	}
	return false
}

func label(f generic.Field) string {
	if info, ok := Lookup(f); ok {
		return info.Label
	}
	return string(f)
}

// =============================================================================
// STATUS SELECTION
// =============================================================================

// StatusCheck is a non-blocking verdict on a chosen status pair.
type StatusCheck struct {
	Valid   bool
	Warning string
}

// ValidateStatusSelection reports the first mismatch between the chosen
// stage/progress labels and the dates actually recorded.
func (e *Engine) ValidateStatusSelection(status CaseStatus, progress ProgressStatus, c *Case) StatusCheck {
	if w := e.statusMismatch(status, progress, c); w != "" {
		return StatusCheck{Warning: w}
	}
	return StatusCheck{Valid: true}
}

func (e *Engine) statusMismatch(status CaseStatus, progress ProgressStatus, c *Case) string {
	if !status.IsValid() {
		return fmt.Sprintf("Unknown case status %q", status)
	}
	if progress != "" && !progress.IsValid() {
		return fmt.Sprintf("Unknown progress status %q", progress)
	}

	switch status {
	case CaseStatusRecruitment:
		if !c.Has(PWDDeterminationDate) {
			return "Recruitment selected but no PWD determination date is recorded"
		}
	case CaseStatusETA9089:
		if !e.IsRecruitmentComplete(c) && !c.Has(ETA9089FilingDate) {
			return "ETA 9089 selected but recruitment is not complete"
		}
	case CaseStatusI140:
		if !c.Has(ETA9089CertificationDate) {
			return "I-140 selected but no ETA 9089 certification date is recorded"
		}
	}

	filing, decision := stageKeyFields(status)
	switch progress {
	case ProgressFiled, ProgressUnderReview:
		if filing != "" && !c.Has(filing) {
			return fmt.Sprintf("Marked %s but no %s is recorded", progress, label(filing))
		}
		if status == CaseStatusRecruitment && progress == ProgressFiled {
			return "Recruitment is not a filing; use working or approved"
		}
	case ProgressApproved:
		if status == CaseStatusRecruitment {
			if !e.IsRecruitmentComplete(c) {
				return "Marked approved but recruitment is not complete"
			}
			break
		}
		if decision != "" && !c.Has(decision) {
			return fmt.Sprintf("Marked approved but no %s is recorded", label(decision))
		}
	case ProgressRFIRFE:
		switch status {
		case CaseStatusETA9089:
			if !c.Has(RFIReceivedDate) {
				return "Marked RFI but no RFI received date is recorded"
			}
		case CaseStatusI140:
			if !c.Has(RFEReceivedDate) {
				return "Marked RFE but no RFE received date is recorded"
			}
		default:
			return "RFI/RFE only applies to the ETA 9089 and I-140 stages"
		}
	}
	return ""
}

// stageKeyFields returns the filing and decision fields of a stage.
func stageKeyFields(status CaseStatus) (filing, decision generic.Field) {
	switch status {
	case CaseStatusPWD:
		return PWDFilingDate, PWDDeterminationDate
	case CaseStatusETA9089:
		return ETA9089FilingDate, ETA9089CertificationDate
	case CaseStatusI140:
		return I140FilingDate, I140ApprovalDate
	}
	return "", ""
}

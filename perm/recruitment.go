package perm

import "github.com/warp/perm-engine/generic"

// =============================================================================
// RECRUITMENT DATE AGGREGATOR
// =============================================================================

// baseRecruitmentFields must all be populated before recruitment is complete.
var baseRecruitmentFields = []generic.Field{
	SundayAdFirstDate, SundayAdSecondDate,
	JobOrderStartDate, JobOrderEndDate,
	NoticeOfFilingStartDate, NoticeOfFilingEndDate,
}

// FirstRecruitmentDate is the earliest recruitment step. Method dates count
// only for professional occupations. Malformed values are skipped.
func FirstRecruitmentDate(c *Case) (generic.Date, bool) {
	dates := []generic.Date{
		c.Dates.DateOrZero(SundayAdFirstDate),
		c.Dates.DateOrZero(JobOrderStartDate),
		c.Dates.DateOrZero(NoticeOfFilingStartDate),
	}
	if c.IsProfessionalOccupation {
		dates = append(dates, methodDates(c)...)
	}
	return generic.Earliest(dates...)
}

// LastRecruitmentDate is the latest recruitment step. When isProfessional is
// false, professional-only fields are ignored even if populated.
func LastRecruitmentDate(c *Case, isProfessional bool) (generic.Date, bool) {
	dates := []generic.Date{
		c.Dates.DateOrZero(SundayAdSecondDate),
		c.Dates.DateOrZero(JobOrderEndDate),
		c.Dates.DateOrZero(NoticeOfFilingEndDate),
	}
	if isProfessional {
		dates = append(dates, c.Dates.DateOrZero(AdditionalRecruitmentEndDate))
		dates = append(dates, methodDates(c)...)
	}
	return generic.Latest(dates...)
}

// IsBaseRecruitmentComplete is true when both Sunday ads, the job order and
// the notice of filing are fully dated.
func IsBaseRecruitmentComplete(c *Case) bool {
	for _, f := range baseRecruitmentFields {
		if _, ok := c.Dates.Date(f); !ok {
			return false
		}
	}
	return true
}

// CompleteMethodCount counts method entries with both a code and a date.
func CompleteMethodCount(c *Case) int {
	n := 0
	for _, m := range c.RecruitmentMethods {
		if m.IsComplete() {
			n++
		}
	}
	return n
}

// IsRecruitmentComplete gates the ETA 9089 stage.
func (e *Engine) IsRecruitmentComplete(c *Case) bool {
	if !IsBaseRecruitmentComplete(c) {
		return false
	}
	if !c.IsProfessionalOccupation {
		return true
	}
	return CompleteMethodCount(c) >= e.rules.MinRecruitmentMethods
}

func methodDates(c *Case) []generic.Date {
	out := make([]generic.Date, 0, len(c.RecruitmentMethods))
	for _, m := range c.RecruitmentMethods {
		if d, ok := m.ParsedDate(); ok {
			out = append(out, d)
		}
	}
	return out
}

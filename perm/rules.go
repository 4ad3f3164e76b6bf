/*
rules.go - Statutory offsets and deadline rule set

PURPOSE:
  Every regulatory constant the engine uses lives in one RuleSet value so the
  calculations read as formulas over named offsets, and so a deployment can
  override them (see factory.RuleSetFactory) without code changes.

DEFAULTS (20 CFR 656):
  PWD validity:         determination Apr 2 - Jun 30 -> +90 days;
                        Jul 1 - Dec 31 -> Jun 30 of the following year;
                        Jan 1 - Apr 1  -> Jun 30 of the same year
  Notice of filing:     10 business days
  Job order:            30 calendar days
  ETA 9089 validity:    180 days from certification
  RFI response:         30 days from receipt
  Filing window:        opens 30 days after the last recruitment step,
                        closes 180 days after the first one or at PWD expiration

RECRUITMENT OFFSET TABLE:
  Each recruitment field has two competing upper bounds: "N days from first
  recruitment" and "M days before PWD expiration". The earlier one wins.

  Field                     N     M    Sunday snap
  noticeOfFilingStartDate   150   30
  jobOrderStartDate         120   60
  sundayAdFirstDate         143   37   yes
  sundayAdSecondDate        150   30   yes
  additionalRecruitment*    150   30
  recruitment method dates  150   30
*/
package perm

import (
	"fmt"
	"time"

	"github.com/warp/perm-engine/generic"
)

// MonthDay is a day of the year without a year.
type MonthDay struct {
	Month time.Month
	Day   int
}

// In returns the date of md in year.
func (md MonthDay) In(year int) generic.Date {
	return generic.NewDate(year, md.Month, md.Day)
}

func (md MonthDay) String() string {
	return fmt.Sprintf("%02d-%02d", int(md.Month), md.Day)
}

// Offset is one row of the recruitment offset table.
type Offset struct {
	FromFirstRecruitment int  // max = first recruitment + N days
	BeforePWDExpiration  int  // max = PWD expiration - M days
	SnapToSunday         bool // snap the bound back to the last Sunday on or before it
}

// RuleSet holds all statutory offsets.
type RuleSet struct {
	// PWD expiration
	PWDShortWindowStart  MonthDay // first day of the "+N days" window
	PWDShortWindowEnd    MonthDay // last day of the "+N days" window
	PWDShortValidityDays int
	PWDFixedExpiration   MonthDay // fixed expiry used outside the short window

	NoticeOfFilingBusinessDays int
	JobOrderDays               int
	ETA9089ValidityDays        int
	RFIResponseDays            int

	FilingWaitDays     int // window opens this many days after the last recruitment step
	RecruitmentCapDays int // window closes this many days after the first recruitment step
	SundayAdGapDays    int // minimum gap between the two Sunday ads

	// MinRecruitmentMethods is the number of complete additional methods a
	// professional occupation needs.
	MinRecruitmentMethods int

	Offsets map[generic.Field]Offset

	// MethodOffset bounds the dates of professional recruitment methods.
	MethodOffset Offset
}

// DefaultRuleSet returns the statutory defaults.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		PWDShortWindowStart:  MonthDay{Month: time.April, Day: 2},
		PWDShortWindowEnd:    MonthDay{Month: time.June, Day: 30},
		PWDShortValidityDays: 90,
		PWDFixedExpiration:   MonthDay{Month: time.June, Day: 30},

		NoticeOfFilingBusinessDays: 10,
		JobOrderDays:               30,
		ETA9089ValidityDays:        180,
		RFIResponseDays:            30,

		FilingWaitDays:     30,
		RecruitmentCapDays: 180,
		SundayAdGapDays:    7,

		MinRecruitmentMethods: 3,

		Offsets: map[generic.Field]Offset{
			NoticeOfFilingStartDate:        {FromFirstRecruitment: 150, BeforePWDExpiration: 30},
			JobOrderStartDate:              {FromFirstRecruitment: 120, BeforePWDExpiration: 60},
			SundayAdFirstDate:              {FromFirstRecruitment: 143, BeforePWDExpiration: 37, SnapToSunday: true},
			SundayAdSecondDate:             {FromFirstRecruitment: 150, BeforePWDExpiration: 30, SnapToSunday: true},
			AdditionalRecruitmentStartDate: {FromFirstRecruitment: 150, BeforePWDExpiration: 30},
			AdditionalRecruitmentEndDate:   {FromFirstRecruitment: 150, BeforePWDExpiration: 30},
		},
		MethodOffset: Offset{FromFirstRecruitment: 150, BeforePWDExpiration: 30},
	}
}

// Validate checks that every offset is usable.
func (r RuleSet) Validate() error {
	positive := []struct {
		key   string
		value int
	}{
		{"pwd.short_validity_days", r.PWDShortValidityDays},
		{"notice_of_filing_business_days", r.NoticeOfFilingBusinessDays},
		{"job_order_days", r.JobOrderDays},
		{"eta9089_validity_days", r.ETA9089ValidityDays},
		{"rfi_response_days", r.RFIResponseDays},
		{"filing_wait_days", r.FilingWaitDays},
		{"recruitment_cap_days", r.RecruitmentCapDays},
		{"sunday_ad_gap_days", r.SundayAdGapDays},
		{"min_recruitment_methods", r.MinRecruitmentMethods},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return &generic.RuleSetError{Key: p.key, Reason: "must be positive"}
		}
	}

	days := []struct {
		key string
		md  MonthDay
	}{
		{"pwd.short_window_start", r.PWDShortWindowStart},
		{"pwd.short_window_end", r.PWDShortWindowEnd},
		{"pwd.fixed_expiration", r.PWDFixedExpiration},
	}
	for _, d := range days {
		if !validMonthDay(d.md) {
			return &generic.RuleSetError{Key: d.key, Reason: fmt.Sprintf("%s is not a day of the year", d.md)}
		}
	}
	if monthDayAfter(r.PWDShortWindowStart, r.PWDShortWindowEnd) {
		return &generic.RuleSetError{Key: "pwd.short_window_end", Reason: "ends before it starts"}
	}

	for f, off := range r.Offsets {
		if !IsKnownField(f) {
			return &generic.RuleSetError{Key: "offsets." + string(f), Reason: "unknown field"}
		}
		if off.FromFirstRecruitment < 0 || off.BeforePWDExpiration < 0 {
			return &generic.RuleSetError{Key: "offsets." + string(f), Reason: "offsets must not be negative"}
		}
	}
	return nil
}

func validMonthDay(md MonthDay) bool {
	if md.Month < time.January || md.Month > time.December || md.Day < 1 {
		return false
	}
	// 2024 is a leap year so Feb 29 is accepted.
	return md.In(2024).Month() == md.Month
}

func monthDayAfter(a, b MonthDay) bool {
	if a.Month != b.Month {
		return a.Month > b.Month
	}
	return a.Day > b.Day
}

// offsetFor returns the table row of f.
func (r RuleSet) offsetFor(f generic.Field) (Offset, bool) {
	off, ok := r.Offsets[f]
	return off, ok
}

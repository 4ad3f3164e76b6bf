package perm

import (
	"github.com/shopspring/decimal"

	"github.com/warp/perm-engine/generic"
)

// =============================================================================
// FILING WINDOW - When ETA 9089 may be filed
// =============================================================================

// FilingWindowStatus describes the ETA 9089 filing window relative to today.
// Zero dates mean "not known yet".
type FilingWindowStatus struct {
	IsOpen   bool
	OpensOn  generic.Date // last recruitment + wait; zero until recruitment is complete
	ClosesOn generic.Date // earlier of CloseFromCap and PWD expiration

	// CloseFromCap is first recruitment + cap, reported separately so callers
	// can show which bound applies.
	CloseFromCap generic.Date

	DaysUntilOpen int // 0 once open or when OpensOn is unknown
	DaysRemaining int // 0 once closed or when ClosesOn is unknown
	DaysPastClose int // days since the window closed, 0 while it has not
	IsPwdLimited  bool

	// ElapsedPercent is the share of [OpensOn, ClosesOn] already behind
	// today, 0-100 with one decimal place.
	ElapsedPercent decimal.Decimal
}

// Period returns the window as a date range.
func (s FilingWindowStatus) Period() generic.Period {
	return generic.Period{Start: s.OpensOn, End: s.ClosesOn}
}

// FilingWindow computes the window from the recruitment dates, the PWD
// expiration and today.
func (e *Engine) FilingWindow(c *Case) FilingWindowStatus {
	return e.filingWindow(c, e.Today())
}

func (e *Engine) filingWindow(c *Case, today generic.Date) FilingWindowStatus {
	var s FilingWindowStatus
	complete := e.IsRecruitmentComplete(c)

	if last, ok := LastRecruitmentDate(c, c.IsProfessionalOccupation); ok && complete {
		s.OpensOn = last.AddDays(e.rules.FilingWaitDays)
	}
	if first, ok := FirstRecruitmentDate(c); ok {
		s.CloseFromCap = first.AddDays(e.rules.RecruitmentCapDays)
	}

	pwdExp, hasPWD := c.Date(PWDExpirationDate)
	switch {
	case hasPWD && !s.CloseFromCap.IsZero():
		s.ClosesOn = generic.MinDate(s.CloseFromCap, pwdExp)
		// Ties go to the cap.
		s.IsPwdLimited = pwdExp.Before(s.CloseFromCap)
	case hasPWD:
		s.ClosesOn = pwdExp
	default:
		s.ClosesOn = s.CloseFromCap
	}

	s.IsOpen = complete && s.Period().Contains(today)

	if !s.OpensOn.IsZero() {
		s.DaysUntilOpen = max(0, generic.DaysBetween(today, s.OpensOn))
	}
	if !s.ClosesOn.IsZero() {
		s.DaysRemaining = max(0, generic.DaysBetween(today, s.ClosesOn))
		s.DaysPastClose = max(0, generic.DaysBetween(s.ClosesOn, today))
	}
	s.ElapsedPercent = elapsedPercent(s.Period(), today)
	return s
}

func elapsedPercent(p generic.Period, today generic.Date) decimal.Decimal {
	if !p.IsBounded() || p.IsEmpty() || today.Before(p.Start) {
		return decimal.Zero
	}
	total := generic.DaysBetween(p.Start, p.End)
	elapsed := generic.DaysBetween(p.Start, today)
	if total == 0 || elapsed >= total {
		return decimal.NewFromInt(100)
	}
	return decimal.NewFromInt(int64(elapsed)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(1)
}

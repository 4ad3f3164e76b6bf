/*
constraints.go - Per-field min/max date bounds

PURPOSE:
  For every catalogued field, compute the range a user may enter and a hint
  naming the bound that binds. Bounds come from three places:
    1. the prior-stage trigger dates ("strictly after X" is min = X + 1 day)
    2. the recruitment offset table (two competing upper bounds)
    3. today, for historical fields that cannot be in the future

TIE-BREAKS:
  Candidates for the same side are applied in a fixed order and only a
  strictly tighter one replaces the current bound. Recruitment offsets are
  applied before PWD offsets, so a tie is attributed to recruitment. Today is
  applied last.
*/
package perm

import (
	"fmt"
	"strings"

	"github.com/warp/perm-engine/generic"
)

// Binding names what produced a constraint's max.
type Binding string

const (
	BindingNone        Binding = ""
	BindingRecruitment Binding = "recruitment"
	BindingPWD         Binding = "pwd"
	BindingWindow      Binding = "filing_window"
	BindingField       Binding = "field"
	BindingToday       Binding = "today"
)

// DateConstraint is the allowed range of one field. Zero Min/Max mean
// unbounded on that side.
type DateConstraint struct {
	Min     generic.Date
	Max     generic.Date
	Hint    string
	Binding Binding
}

// Allows reports whether d is inside the range.
func (dc DateConstraint) Allows(d generic.Date) bool {
	if !dc.Min.IsZero() && d.Before(dc.Min) {
		return false
	}
	if !dc.Max.IsZero() && d.After(dc.Max) {
		return false
	}
	return true
}

// bounds accumulates candidates for one field.
type bounds struct {
	c       DateConstraint
	minHint string
	maxHint string
	notes   []string
}

func (b *bounds) atLeast(d generic.Date, hint string) {
	if d.IsZero() {
		return
	}
	if b.c.Min.IsZero() || d.After(b.c.Min) {
		b.c.Min = d
		b.minHint = hint
	}
}

func (b *bounds) atMost(d generic.Date, binding Binding, hint string) {
	if d.IsZero() {
		return
	}
	if b.c.Max.IsZero() || d.Before(b.c.Max) {
		b.c.Max = d
		b.c.Binding = binding
		b.maxHint = hint
	}
}

func (b *bounds) note(s string) { b.notes = append(b.notes, s) }

func (b *bounds) constraint() DateConstraint {
	var parts []string
	for _, s := range append([]string{b.minHint, b.maxHint}, b.notes...) {
		if s != "" {
			parts = append(parts, s)
		}
	}
	out := b.c
	out.Hint = strings.Join(parts, "; ")
	return out
}

// =============================================================================
// CONSTRAINT ENGINE
// =============================================================================

// Constraints returns a DateConstraint for every catalogued field.
func (e *Engine) Constraints(c *Case) map[generic.Field]DateConstraint {
	today := e.Today()
	ctx := constraintInput{
		c:      c,
		today:  today,
		window: e.filingWindow(c, today),
	}
	ctx.first, _ = FirstRecruitmentDate(c)
	ctx.pwdExp, _ = c.Date(PWDExpirationDate)

	out := make(map[generic.Field]DateConstraint, len(Catalogue))
	for _, info := range Catalogue {
		b := &bounds{}
		e.constrain(b, info.Field, ctx)
		if info.NotFuture {
			b.atMost(today, BindingToday, "Cannot be in the future")
		}
		out[info.Field] = b.constraint()
	}
	return out
}

type constraintInput struct {
	c      *Case
	today  generic.Date
	first  generic.Date
	pwdExp generic.Date
	window FilingWindowStatus
}

func (in constraintInput) date(f generic.Field) generic.Date {
	return in.c.Dates.DateOrZero(f)
}

func (e *Engine) constrain(b *bounds, f generic.Field, in constraintInput) {
	if off, ok := e.rules.offsetFor(f); ok {
		e.recruitmentBounds(b, off, in)
	}

	switch f {
	case PWDDeterminationDate:
		after(b, in, PWDFilingDate, "PWD filing date")
	case PWDExpirationDate:
		after(b, in, PWDDeterminationDate, "PWD determination date")

	case SundayAdSecondDate:
		if first := in.date(SundayAdFirstDate); !first.IsZero() {
			b.atLeast(first.AddDays(e.rules.SundayAdGapDays),
				fmt.Sprintf("At least %d days after the first Sunday ad", e.rules.SundayAdGapDays))
		}
	case JobOrderEndDate:
		if start := in.date(JobOrderStartDate); !start.IsZero() {
			b.atLeast(start.AddDays(e.rules.JobOrderDays),
				fmt.Sprintf("Job order must run at least %d days", e.rules.JobOrderDays))
		}
	case NoticeOfFilingEndDate:
		if start := in.date(NoticeOfFilingStartDate); !start.IsZero() {
			b.atLeast(start.AddBusinessDays(e.rules.NoticeOfFilingBusinessDays),
				fmt.Sprintf("Notice must be posted %d business days", e.rules.NoticeOfFilingBusinessDays))
		}
	case AdditionalRecruitmentEndDate:
		onOrAfter(b, in, AdditionalRecruitmentStartDate, "additional recruitment start")

	case ETA9089FilingDate:
		e.filingBounds(b, in)
	case ETA9089AuditDate, ETA9089CertificationDate, RFIReceivedDate:
		after(b, in, ETA9089FilingDate, "ETA 9089 filing date")
	case ETA9089ExpirationDate:
		after(b, in, ETA9089CertificationDate, "certification date")
	case RFIDueDate:
		after(b, in, RFIReceivedDate, "RFI received date")
	case RFISubmittedDate:
		onOrAfter(b, in, RFIReceivedDate, "RFI received date")

	case I140FilingDate:
		onOrAfter(b, in, ETA9089CertificationDate, "ETA 9089 certification")
		if exp := in.date(ETA9089ExpirationDate); !exp.IsZero() {
			b.atMost(exp, BindingField, "File before the certification expires ("+exp.String()+")")
		}
	case I140ReceiptDate:
		onOrAfter(b, in, I140FilingDate, "I-140 filing date")
	case I140ApprovalDate, I140DenialDate:
		if in.c.Has(I140ReceiptDate) {
			after(b, in, I140ReceiptDate, "I-140 receipt date")
		} else {
			after(b, in, I140FilingDate, "I-140 filing date")
		}
	case RFEReceivedDate:
		after(b, in, I140FilingDate, "I-140 filing date")
	case RFEDueDate:
		after(b, in, RFEReceivedDate, "RFE received date")
	case RFESubmittedDate:
		onOrAfter(b, in, RFEReceivedDate, "RFE received date")
	}
}

// recruitmentBounds applies one offset table row. Recruitment must follow the
// determination and finish before whichever of the two caps comes first.
func (e *Engine) recruitmentBounds(b *bounds, off Offset, in constraintInput) {
	after(b, in, PWDDeterminationDate, "PWD determination date")

	snap := func(d generic.Date) generic.Date {
		if off.SnapToSunday {
			return d.LastSundayOnOrBefore()
		}
		return d
	}
	if !in.first.IsZero() {
		d := snap(in.first.AddDays(off.FromFirstRecruitment))
		b.atMost(d, BindingRecruitment,
			fmt.Sprintf("Within %d days of first recruitment (%s)", off.FromFirstRecruitment, in.first))
	}
	if !in.pwdExp.IsZero() {
		d := snap(in.pwdExp.AddDays(-off.BeforePWDExpiration))
		b.atMost(d, BindingPWD,
			fmt.Sprintf("At least %d days before PWD expiration (%s)", off.BeforePWDExpiration, in.pwdExp))
	}
	if off.SnapToSunday {
		b.note("Must be a Sunday")
	}
}

func (e *Engine) filingBounds(b *bounds, in constraintInput) {
	w := in.window
	if w.OpensOn.IsZero() {
		b.note("Complete all recruitment to compute the filing window")
	} else {
		b.atLeast(w.OpensOn, fmt.Sprintf("Filing window opens %s (%d days after last recruitment)", w.OpensOn, e.rules.FilingWaitDays))
	}
	switch {
	case w.ClosesOn.IsZero():
	case w.IsPwdLimited || w.CloseFromCap.IsZero():
		b.atMost(w.ClosesOn, BindingPWD, "Filing window closes at PWD expiration ("+w.ClosesOn.String()+")")
	default:
		b.atMost(w.ClosesOn, BindingWindow,
			fmt.Sprintf("Filing window closes %d days after first recruitment (%s)", e.rules.RecruitmentCapDays, w.ClosesOn))
	}
}

// after sets min = source + 1 day.
func after(b *bounds, in constraintInput, source generic.Field, label string) {
	if d := in.date(source); !d.IsZero() {
		b.atLeast(d.AddDays(1), "Must be after "+label+" ("+d.String()+")")
	}
}

// onOrAfter sets min = source.
func onOrAfter(b *bounds, in constraintInput, source generic.Field, label string) {
	if d := in.date(source); !d.IsZero() {
		b.atLeast(d, "On or after "+label+" ("+d.String()+")")
	}
}

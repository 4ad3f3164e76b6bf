package perm

import (
	"fmt"
	"strings"

	"github.com/warp/perm-engine/generic"
)

// =============================================================================
// AUTO-CALCULATION RULES
// =============================================================================

// chainLinks carry no calculation. They exist so that clearing a filing date
// also clears what was derived from the decision that followed it.
var chainLinks = []generic.Link{
	{From: PWDFilingDate, To: PWDDeterminationDate},
	{From: ETA9089FilingDate, To: ETA9089CertificationDate},
}

func (e *Engine) derivationRules() []generic.Rule {
	r := e.rules
	return []generic.Rule{
		{Name: "pwd_expiration", Source: PWDDeterminationDate, Target: PWDExpirationDate, Compute: r.PWDExpiration},
		{Name: "notice_of_filing_end", Source: NoticeOfFilingStartDate, Target: NoticeOfFilingEndDate, Compute: func(d generic.Date) generic.Date {
			return d.AddBusinessDays(r.NoticeOfFilingBusinessDays)
		}},
		{Name: "job_order_end", Source: JobOrderStartDate, Target: JobOrderEndDate, Compute: func(d generic.Date) generic.Date {
			return d.AddDays(r.JobOrderDays)
		}},
		{Name: "eta9089_expiration", Source: ETA9089CertificationDate, Target: ETA9089ExpirationDate, Compute: func(d generic.Date) generic.Date {
			return d.AddDays(r.ETA9089ValidityDays)
		}},
		{Name: "rfi_due", Source: RFIReceivedDate, Target: RFIDueDate, Compute: func(d generic.Date) generic.Date {
			return d.AddDays(r.RFIResponseDays)
		}},
	}
}

// PWDExpiration applies the three-band validity rule to a determination date.
func (r RuleSet) PWDExpiration(determination generic.Date) generic.Date {
	year := determination.Year()
	switch {
	case determination.Before(r.PWDShortWindowStart.In(year)):
		return r.PWDFixedExpiration.In(year)
	case determination.After(r.PWDShortWindowEnd.In(year)):
		return r.PWDFixedExpiration.In(year + 1)
	default:
		return determination.AddDays(r.PWDShortValidityDays)
	}
}

// =============================================================================
// TRIGGER / MANUAL OVERRIDE
// =============================================================================

// Update is the result of a field change: the new case, its ownership and
// the patch to hand to a generic.FieldStore ("" clears).
type Update struct {
	Case      Case
	Ownership generic.Ownership
	Patch     generic.Dates
}

// TriggerCalculation reacts to a change of field: dependants are recomputed
// when it holds a date, cascade-cleared when it does not. c is not mutated.
func (e *Engine) TriggerCalculation(c Case, own generic.Ownership, field generic.Field) Update {
	d := e.deriver.Trigger(c.Dates, own, field)
	c.Dates = d.Dates
	return Update{Case: c, Ownership: d.Ownership, Patch: d.Patch}
}

// MarkAsManual exempts field from further auto-updates.
func (e *Engine) MarkAsManual(own generic.Ownership, field generic.Field) generic.Ownership {
	return generic.MarkManual(own, field)
}

// SetDate records a user edit and triggers calculation from it. A value typed
// into a derived field pins it; an empty value clears it and releases the pin.
func (e *Engine) SetDate(c Case, own generic.Ownership, field generic.Field, value string) (Update, error) {
	if !IsKnownField(field) {
		return Update{}, fmt.Errorf("%w: %s", generic.ErrUnknownField, field)
	}
	value = strings.TrimSpace(value)
	if value != "" {
		if _, err := generic.ParseDate(value); err != nil {
			return Update{}, &generic.DateParseError{Field: field, Value: value, Err: err}
		}
	}

	switch {
	case value == "":
		own = generic.Release(own, field)
	case e.deriver.IsDerived(field):
		own = e.MarkAsManual(own, field)
	default:
		own = generic.Release(own, field)
	}

	prev := c.Dates.Get(field)
	c.Dates = c.Dates.Clone()
	c.Dates[field] = value

	u := e.TriggerCalculation(c, own, field)
	if prev != value {
		u.Patch[field] = value
	}
	return u, nil
}

// Recalculate drops the manual pin of a derived field and recomputes it from
// its sources.
func (e *Engine) Recalculate(c Case, own generic.Ownership, field generic.Field) (Update, error) {
	if !e.deriver.IsDerived(field) {
		return Update{}, fmt.Errorf("%w: %s is not calculated", generic.ErrUnknownField, field)
	}
	own = generic.Release(own, field)
	u := Update{Case: c, Ownership: own, Patch: generic.Dates{}}
	for _, source := range e.deriver.Graph().Parents(field) {
		next := e.TriggerCalculation(u.Case, u.Ownership, source)
		u.Case, u.Ownership = next.Case, next.Ownership
		u.Patch.Apply(next.Patch)
	}
	return u, nil
}

package perm

import (
	"sort"

	"github.com/warp/perm-engine/generic"
)

// =============================================================================
// DEADLINE TRACKER
// =============================================================================

type DeadlineKind string

const (
	DeadlinePWDExpiration      DeadlineKind = "pwd_expiration"
	DeadlineReadyToFile        DeadlineKind = "ready_to_file"
	DeadlineETA9089Filing      DeadlineKind = "eta9089_filing"
	DeadlineRecruitmentExpires DeadlineKind = "recruitment_expires"
	DeadlineETA9089Expiration  DeadlineKind = "eta9089_expiration"
	DeadlineI140               DeadlineKind = "i140_deadline"
	DeadlineRFIDue             DeadlineKind = "rfi_due"
	DeadlineRFEDue             DeadlineKind = "rfe_due"
)

var deadlineLabels = map[DeadlineKind]string{
	DeadlinePWDExpiration:      "PWD Expiration",
	DeadlineReadyToFile:        "Ready to File",
	DeadlineETA9089Filing:      "ETA 9089 Filing",
	DeadlineRecruitmentExpires: "Recruitment Expires",
	DeadlineETA9089Expiration:  "ETA 9089 Expiration",
	DeadlineI140:               "I-140 Deadline",
	DeadlineRFIDue:             "RFI Response Due",
	DeadlineRFEDue:             "RFE Response Due",
}

func (k DeadlineKind) Label() string { return deadlineLabels[k] }

// Urgency buckets a deadline by days remaining.
type Urgency string

const (
	UrgencyExpired  Urgency = "expired"  // < 0
	UrgencyCritical Urgency = "critical" // <= 7
	UrgencyUrgent   Urgency = "urgent"   // <= 30
	UrgencyNormal   Urgency = "normal"   // <= 90
	UrgencyFuture   Urgency = "future"
)

func UrgencyFor(daysRemaining int) Urgency {
	switch {
	case daysRemaining < 0:
		return UrgencyExpired
	case daysRemaining <= 7:
		return UrgencyCritical
	case daysRemaining <= 30:
		return UrgencyUrgent
	case daysRemaining <= 90:
		return UrgencyNormal
	default:
		return UrgencyFuture
	}
}

type Deadline struct {
	Kind          DeadlineKind
	Label         string
	Date          generic.Date
	DaysRemaining int // signed; negative once passed
	Urgency       Urgency
}

// Deadlines returns the open deadlines of c ordered by date, then kind. A
// deadline disappears once the action it guards has been recorded.
func (e *Engine) Deadlines(c *Case) []Deadline {
	if c.CaseStatus == CaseStatusClosed {
		return nil
	}
	today := e.Today()
	w := e.filingWindow(c, today)

	var out []Deadline
	add := func(kind DeadlineKind, d generic.Date) {
		if d.IsZero() {
			return
		}
		days := generic.DaysBetween(today, d)
		out = append(out, Deadline{Kind: kind, Label: kind.Label(), Date: d, DaysRemaining: days, Urgency: UrgencyFor(days)})
	}

	if !c.Has(ETA9089FilingDate) {
		add(DeadlinePWDExpiration, c.Dates.DateOrZero(PWDExpirationDate))
		add(DeadlineRecruitmentExpires, w.CloseFromCap)
		if e.IsRecruitmentComplete(c) {
			add(DeadlineReadyToFile, w.OpensOn)
			add(DeadlineETA9089Filing, w.ClosesOn)
		}
	}
	if !c.Has(RFISubmittedDate) {
		add(DeadlineRFIDue, c.Dates.DateOrZero(RFIDueDate))
	}
	if c.Has(ETA9089CertificationDate) && !c.Has(I140FilingDate) {
		exp := c.Dates.DateOrZero(ETA9089ExpirationDate)
		add(DeadlineETA9089Expiration, exp)
		add(DeadlineI140, exp)
	}
	if !c.Has(RFESubmittedDate) {
		add(DeadlineRFEDue, c.Dates.DateOrZero(RFEDueDate))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

/*
sections.go - Section gate state machine

PURPOSE:
  Each form section is enabled from the completeness of the stages before
  it. The user can open/close sections and, for a disabled one, force it
  open with a manual override.

STATE:
  Enabled   - derived on every read (never stored)
  Open      - stored once the user touches it; otherwise defaults to the
              first incomplete stage
  Override  - stored; the warning is shown only while the section is still
              not enabled, so normal progression makes it moot

GATES:
  pwd          always
  recruitment  PWD determination date present
  eta9089      recruitment complete AND window open, or already filed
  i140         ETA 9089 certification date present
  notes        always
*/
package perm

import (
	"fmt"

	"github.com/warp/perm-engine/generic"
)

type Section string

const (
	SectionPWD         Section = "pwd"
	SectionRecruitment Section = "recruitment"
	SectionETA9089     Section = "eta9089"
	SectionI140        Section = "i140"
	SectionNotes       Section = "notes"
)

// Sections in display order.
var Sections = []Section{SectionPWD, SectionRecruitment, SectionETA9089, SectionI140, SectionNotes}

// OverrideWarning is shown on a section forced open before its prerequisites.
const OverrideWarning = "Opened manually before prerequisites are complete. Deadlines and constraints for this section may be inaccurate."

// ParseSection validates a section name.
func ParseSection(s string) (Section, error) {
	for _, sec := range Sections {
		if string(sec) == s {
			return sec, nil
		}
	}
	return "", fmt.Errorf("%w: %q", generic.ErrUnknownSection, s)
}

type SectionState struct {
	IsEnabled        bool
	IsOpen           bool
	IsManualOverride bool
	OverrideWarning  string
	DisabledReason   string
	StatusInfo       string
}

// IsInteractable is true when the user may edit the section.
func (s SectionState) IsInteractable() bool {
	return s.IsEnabled || s.IsManualOverride
}

// =============================================================================
// SESSION - The only stateful part, owned by one editing session
// =============================================================================

// SectionSession stores explicit open states and overrides. A section missing
// from Open has never been touched and uses its default.
type SectionSession struct {
	Open     map[Section]bool
	Override map[Section]bool
}

func NewSectionSession() *SectionSession {
	return &SectionSession{Open: map[Section]bool{}, Override: map[Section]bool{}}
}

// OpenState returns the explicit open state, false for untouched sections.
func (s *SectionSession) OpenState(sec Section) (open, touched bool) {
	open, touched = s.Open[sec]
	return open, touched
}

func (s *SectionSession) OpenSection(sec Section) error  { return s.setOpen(sec, true) }
func (s *SectionSession) CloseSection(sec Section) error { return s.setOpen(sec, false) }

// EnableOverride force-opens sec.
func (s *SectionSession) EnableOverride(sec Section) error {
	if err := s.setOpen(sec, true); err != nil {
		return err
	}
	s.Override[sec] = true
	return nil
}

// DisableOverride reverses EnableOverride: the flag goes and the section closes.
func (s *SectionSession) DisableOverride(sec Section) error {
	if err := s.setOpen(sec, false); err != nil {
		return err
	}
	delete(s.Override, sec)
	return nil
}

func (s *SectionSession) setOpen(sec Section, open bool) error {
	if _, err := ParseSection(string(sec)); err != nil {
		return err
	}
	if s == nil {
		return generic.ErrNoSession
	}
	s.ensure()
	s.Open[sec] = open
	return nil
}

func (s *SectionSession) ensure() {
	if s.Open == nil {
		s.Open = map[Section]bool{}
	}
	if s.Override == nil {
		s.Override = map[Section]bool{}
	}
}

// =============================================================================
// GATES
// =============================================================================

// SectionStates computes every section for c. A nil session means nothing
// has been touched yet.
func (e *Engine) SectionStates(c *Case, session *SectionSession) map[Section]SectionState {
	if session == nil {
		session = NewSectionSession()
	}
	window := e.FilingWindow(c)
	defaultOpen := e.firstIncompleteStage(c)

	out := make(map[Section]SectionState, len(Sections))
	for _, sec := range Sections {
		st := e.gate(sec, c, window)
		st.IsManualOverride = session.Override[sec]
		if st.IsManualOverride && !st.IsEnabled {
			st.OverrideWarning = OverrideWarning
		}
		if open, touched := session.OpenState(sec); touched {
			st.IsOpen = open
		} else {
			st.IsOpen = sec == defaultOpen && st.IsInteractable()
		}
		out[sec] = st
	}
	return out
}

// ToggleSection flips the current open state of sec, resolving the default
// first when the section was never touched. session must be non-nil.
func (e *Engine) ToggleSection(c *Case, session *SectionSession, sec Section) error {
	if _, err := ParseSection(string(sec)); err != nil {
		return err
	}
	current := e.SectionStates(c, session)[sec].IsOpen
	return session.setOpen(sec, !current)
}

// IsSectionInteractable is SectionState.IsInteractable for one section.
func (e *Engine) IsSectionInteractable(c *Case, session *SectionSession, sec Section) bool {
	return e.SectionStates(c, session)[sec].IsInteractable()
}

func (e *Engine) gate(sec Section, c *Case, w FilingWindowStatus) SectionState {
	switch sec {
	case SectionRecruitment:
		if !c.Has(PWDDeterminationDate) {
			return SectionState{DisabledReason: "Enter PWD determination date first"}
		}
		st := SectionState{IsEnabled: true}
		if exp, ok := c.Date(PWDExpirationDate); ok {
			st.StatusInfo = "PWD expires on " + exp.String()
		}
		return st

	case SectionETA9089:
		return e.eta9089Gate(c, w)

	case SectionI140:
		if !c.Has(ETA9089CertificationDate) {
			return SectionState{DisabledReason: "Enter ETA 9089 certification date first"}
		}
		st := SectionState{IsEnabled: true}
		if exp, ok := c.Date(ETA9089ExpirationDate); ok && !c.Has(I140FilingDate) {
			st.StatusInfo = "File I-140 before " + exp.String()
		}
		return st
	}
	return SectionState{IsEnabled: true}
}

func (e *Engine) eta9089Gate(c *Case, w FilingWindowStatus) SectionState {
	if c.Has(ETA9089FilingDate) {
		return SectionState{IsEnabled: true}
	}
	if !e.IsRecruitmentComplete(c) {
		return SectionState{DisabledReason: "Complete all recruitment activities first"}
	}
	today := e.Today()
	switch {
	case w.IsOpen:
		return SectionState{
			IsEnabled:  true,
			StatusInfo: fmt.Sprintf("Filing window closes on %s (%d days remaining)", w.ClosesOn, w.DaysRemaining),
		}
	case !w.ClosesOn.IsZero() && w.ClosesOn.Before(w.OpensOn):
		return SectionState{
			DisabledReason: fmt.Sprintf("Filing window closes on %s before it opens on %s", w.ClosesOn, w.OpensOn),
		}
	case today.Before(w.OpensOn):
		return SectionState{
			DisabledReason: fmt.Sprintf("%d-day waiting period: %d days remaining", e.rules.FilingWaitDays, w.DaysUntilOpen),
			StatusInfo:     "Filing window opens on " + w.OpensOn.String(),
		}
	default:
		return SectionState{DisabledReason: "Filing window closed on " + w.ClosesOn.String()}
	}
}

// firstIncompleteStage is the section open by default.
func (e *Engine) firstIncompleteStage(c *Case) Section {
	switch {
	case !c.Has(PWDDeterminationDate):
		return SectionPWD
	case !e.IsRecruitmentComplete(c):
		return SectionRecruitment
	case !c.Has(ETA9089CertificationDate):
		return SectionETA9089
	case !c.Has(I140ApprovalDate) && !c.Has(I140DenialDate):
		return SectionI140
	}
	return ""
}

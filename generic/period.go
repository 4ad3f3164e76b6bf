package generic

// =============================================================================
// PERIOD - Closed date range [Start, End]
// =============================================================================

// Period is a date range whose ends are both inclusive. Either end may be
// zero, meaning that side is not known yet.
type Period struct {
	Start Date
	End   Date
}

// IsBounded is true when both ends are known.
func (p Period) IsBounded() bool { return !p.Start.IsZero() && !p.End.IsZero() }

// IsEmpty is true for a bounded period whose end precedes its start.
func (p Period) IsEmpty() bool { return p.IsBounded() && p.End.Before(p.Start) }

// Contains returns true if d is within [Start, End]. An unknown end never contains.
func (p Period) Contains(d Date) bool {
	if !p.IsBounded() {
		return false
	}
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Length is the inclusive number of days, 0 for unbounded or empty periods.
func (p Period) Length() int {
	if !p.IsBounded() || p.IsEmpty() {
		return 0
	}
	return DaysBetween(p.Start, p.End) + 1
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

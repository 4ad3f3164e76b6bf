/*
Package generic provides the domain-agnostic core of the deadline engine.

PURPOSE:
  This package contains the building blocks that do not know anything about
  immigration filings: calendar dates and business-day arithmetic, an injected
  clock, field maps with explicit-clear semantics, per-field ownership
  (auto-calculated vs. manually entered), a derivation graph that computes and
  cascade-clears dependent fields, and a validation result container.

KEY CONCEPTS IN THIS FILE (types.go):
  - Field: A stage-qualified field name (e.g. "pwdFilingDate")
  - Dates: The mutable field map of one record
  - Origin / Ownership: The per-field tag Unset | Auto | Manual

THE EMPTY-STRING CONTRACT:
  A record's field map distinguishes three states per key:
    absent  -> unknown; persistence writes leave the stored value alone
    ""      -> intentional clear; persistence writes store "no value"
    "2024-05-15" -> a calendar date
  Every engine write that means "clear this" writes "", never deletes the key.

SEE ALSO:
  - derive.go: Trigger / cascade-clear over the derivation graph
  - graph.go: Directed acyclic dependency graph
  - store.go: Persistence contract
*/
package generic

import "sort"

// =============================================================================
// FIELDS
// =============================================================================

type Field string

// Dates is a record's field map; see the package doc for the empty-string contract.
type Dates map[Field]string

// Get returns the raw value; absent and cleared both read as "".
func (d Dates) Get(f Field) string { return d[f] }

// Has reports whether f holds a non-empty value.
func (d Dates) Has(f Field) bool { return d[f] != "" }

// Date parses f. Malformed values degrade to "absent" rather than failing,
// so one corrupt field cannot take down a whole computation.
func (d Dates) Date(f Field) (Date, bool) {
	v := d[f]
	if v == "" {
		return Date{}, false
	}
	parsed, err := ParseDate(v)
	if err != nil {
		return Date{}, false
	}
	return parsed, true
}

// DateOrZero is Date without the ok flag.
func (d Dates) DateOrZero(f Field) Date {
	v, _ := d.Date(f)
	return v
}

func (d Dates) Clone() Dates {
	out := make(Dates, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Apply merges a patch: keys present in p overwrite (including ""), keys
// absent from p are left untouched.
func (d Dates) Apply(p Dates) {
	for k, v := range p {
		d[k] = v
	}
}

// Keys returns the field names in sorted order.
func (d Dates) Keys() []Field {
	keys := make([]Field, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// =============================================================================
// OWNERSHIP - Who holds the current value of a field
// =============================================================================

// Origin tags one field. A field is exactly one of these at any time.
type Origin uint8

const (
	OriginUnset  Origin = iota // Never touched: eligible for calculation, not cleared by cascades
	OriginAuto                 // Holds an engine-computed value
	OriginManual               // Pinned by the user: skipped by calculation and cascades
)

func (o Origin) String() string {
	switch o {
	case OriginAuto:
		return "auto"
	case OriginManual:
		return "manual"
	default:
		return "unset"
	}
}

// ParseOrigin is the inverse of String; unknown text reads as OriginUnset.
func ParseOrigin(s string) Origin {
	switch s {
	case "auto":
		return OriginAuto
	case "manual":
		return OriginManual
	default:
		return OriginUnset
	}
}

// Ownership maps fields to their Origin. Missing keys are OriginUnset.
// Explicit OriginUnset entries are kept so a persisted ownership map can be
// reset field by field.
type Ownership map[Field]Origin

func (o Ownership) Of(f Field) Origin { return o[f] }
func (o Ownership) IsAuto(f Field) bool { return o[f] == OriginAuto }
func (o Ownership) IsManual(f Field) bool { return o[f] == OriginManual }

// AutoFields is the auto-calculated field set, sorted.
func (o Ownership) AutoFields() []Field {
	var out []Field
	for f, origin := range o {
		if origin == OriginAuto {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (o Ownership) Clone() Ownership {
	out := make(Ownership, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// NewOwnership builds an ownership map with the given fields marked auto.
func NewOwnership(auto ...Field) Ownership {
	o := make(Ownership, len(auto))
	for _, f := range auto {
		o[f] = OriginAuto
	}
	return o
}

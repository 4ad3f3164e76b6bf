/*
Package factory provides JSON/YAML to Go rule-set conversion.

PURPOSE:
  Converts rule-set override documents into perm.RuleSet values. This lets a
  deployment adjust statutory offsets (for example after a regulation change)
  without code changes: the document is merged over perm.DefaultRuleSet and
  the result is validated before an engine is built from it.

DOCUMENT SCHEMA (every key optional; absent keys keep the default):
  {
    "pwd": {
      "short_window_start": "04-02",
      "short_window_end": "06-30",
      "short_validity_days": 90,
      "fixed_expiration": "06-30"
    },
    "notice_of_filing_business_days": 10,
    "job_order_days": 30,
    "eta9089_validity_days": 180,
    "rfi_response_days": 30,
    "filing_wait_days": 30,
    "recruitment_cap_days": 180,
    "sunday_ad_gap_days": 7,
    "min_recruitment_methods": 3,
    "offsets": {
      "jobOrderStartDate": {"from_first_recruitment": 120, "before_pwd_expiration": 60}
    },
    "method_offset": {"from_first_recruitment": 150, "before_pwd_expiration": 30}
  }

  The same keys are accepted in YAML.

USAGE:
  f := NewRuleSetFactory()
  rules, err := f.LoadFile("rules.yaml")
  engine, err := perm.NewEngine(rules, generic.SystemClock{})

SEE ALSO:
  - perm/rules.go: RuleSet and the statutory defaults
*/
package factory

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/warp/perm-engine/generic"
	"github.com/warp/perm-engine/perm"
)

// =============================================================================
// DOCUMENT SCHEMA TYPES
// =============================================================================

// RuleSetJSON is the document form of a rule-set override. Pointer fields
// distinguish "not given" from zero.
type RuleSetJSON struct {
	PWD                        *PWDJSON              `json:"pwd,omitempty" yaml:"pwd,omitempty"`
	NoticeOfFilingBusinessDays *int                  `json:"notice_of_filing_business_days,omitempty" yaml:"notice_of_filing_business_days,omitempty"`
	JobOrderDays               *int                  `json:"job_order_days,omitempty" yaml:"job_order_days,omitempty"`
	ETA9089ValidityDays        *int                  `json:"eta9089_validity_days,omitempty" yaml:"eta9089_validity_days,omitempty"`
	RFIResponseDays            *int                  `json:"rfi_response_days,omitempty" yaml:"rfi_response_days,omitempty"`
	FilingWaitDays             *int                  `json:"filing_wait_days,omitempty" yaml:"filing_wait_days,omitempty"`
	RecruitmentCapDays         *int                  `json:"recruitment_cap_days,omitempty" yaml:"recruitment_cap_days,omitempty"`
	SundayAdGapDays            *int                  `json:"sunday_ad_gap_days,omitempty" yaml:"sunday_ad_gap_days,omitempty"`
	MinRecruitmentMethods      *int                  `json:"min_recruitment_methods,omitempty" yaml:"min_recruitment_methods,omitempty"`
	Offsets                    map[string]OffsetJSON `json:"offsets,omitempty" yaml:"offsets,omitempty"`
	MethodOffset               *OffsetJSON           `json:"method_offset,omitempty" yaml:"method_offset,omitempty"`
}

// PWDJSON holds the PWD validity bands. Month-days are "MM-DD".
type PWDJSON struct {
	ShortWindowStart  string `json:"short_window_start,omitempty" yaml:"short_window_start,omitempty"`
	ShortWindowEnd    string `json:"short_window_end,omitempty" yaml:"short_window_end,omitempty"`
	ShortValidityDays *int   `json:"short_validity_days,omitempty" yaml:"short_validity_days,omitempty"`
	FixedExpiration   string `json:"fixed_expiration,omitempty" yaml:"fixed_expiration,omitempty"`
}

// OffsetJSON is one row of the recruitment offset table.
type OffsetJSON struct {
	FromFirstRecruitment *int  `json:"from_first_recruitment,omitempty" yaml:"from_first_recruitment,omitempty"`
	BeforePWDExpiration  *int  `json:"before_pwd_expiration,omitempty" yaml:"before_pwd_expiration,omitempty"`
	SnapToSunday         *bool `json:"snap_to_sunday,omitempty" yaml:"snap_to_sunday,omitempty"`
}

// Format selects the document syntax.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// =============================================================================
// RULE SET FACTORY
// =============================================================================

// RuleSetFactory converts override documents to perm.RuleSet.
type RuleSetFactory struct{}

// NewRuleSetFactory creates a new rule-set factory.
func NewRuleSetFactory() *RuleSetFactory {
	return &RuleSetFactory{}
}

// Parse decodes data in the given format and merges it over the defaults.
// Unknown keys are rejected so a typo cannot silently keep a default.
func (f *RuleSetFactory) Parse(data []byte, format Format) (perm.RuleSet, error) {
	var rj RuleSetJSON
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&rj); err != nil && !errors.Is(err, io.EOF) {
			return perm.RuleSet{}, fmt.Errorf("%w: failed to parse rule set JSON: %v", generic.ErrInvalidRuleSet, err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&rj); err != nil && !errors.Is(err, io.EOF) {
			return perm.RuleSet{}, fmt.Errorf("%w: failed to parse rule set YAML: %v", generic.ErrInvalidRuleSet, err)
		}
	default:
		return perm.RuleSet{}, fmt.Errorf("%w: unsupported format %q", generic.ErrInvalidRuleSet, format)
	}
	return f.FromJSON(rj)
}

// ParseJSON is Parse with FormatJSON.
func (f *RuleSetFactory) ParseJSON(data []byte) (perm.RuleSet, error) {
	return f.Parse(data, FormatJSON)
}

// ParseYAML is Parse with FormatYAML.
func (f *RuleSetFactory) ParseYAML(data []byte) (perm.RuleSet, error) {
	return f.Parse(data, FormatYAML)
}

// LoadFile reads a rule-set document; the format follows the extension
// (.yaml/.yml, anything else is JSON).
func (f *RuleSetFactory) LoadFile(path string) (perm.RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return perm.RuleSet{}, fmt.Errorf("read rule set: %w", err)
	}
	return f.Parse(data, FormatForPath(path))
}

// FormatForPath guesses the format from a file extension.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// FromJSON merges rj over perm.DefaultRuleSet and validates the result.
func (f *RuleSetFactory) FromJSON(rj RuleSetJSON) (perm.RuleSet, error) {
	r := perm.DefaultRuleSet()

	if rj.PWD != nil {
		if err := mergePWD(&r, *rj.PWD); err != nil {
			return perm.RuleSet{}, err
		}
	}

	setInt(&r.NoticeOfFilingBusinessDays, rj.NoticeOfFilingBusinessDays)
	setInt(&r.JobOrderDays, rj.JobOrderDays)
	setInt(&r.ETA9089ValidityDays, rj.ETA9089ValidityDays)
	setInt(&r.RFIResponseDays, rj.RFIResponseDays)
	setInt(&r.FilingWaitDays, rj.FilingWaitDays)
	setInt(&r.RecruitmentCapDays, rj.RecruitmentCapDays)
	setInt(&r.SundayAdGapDays, rj.SundayAdGapDays)
	setInt(&r.MinRecruitmentMethods, rj.MinRecruitmentMethods)

	for name, oj := range rj.Offsets {
		field := generic.Field(name)
		r.Offsets[field] = mergeOffset(r.Offsets[field], oj)
	}
	if rj.MethodOffset != nil {
		r.MethodOffset = mergeOffset(r.MethodOffset, *rj.MethodOffset)
	}

	if err := r.Validate(); err != nil {
		return perm.RuleSet{}, err
	}
	return r, nil
}

// ToJSON renders r as a complete document.
func (f *RuleSetFactory) ToJSON(r perm.RuleSet) RuleSetJSON {
	ptr := func(n int) *int { return &n }
	offset := func(o perm.Offset) OffsetJSON {
		snap := o.SnapToSunday
		return OffsetJSON{
			FromFirstRecruitment: ptr(o.FromFirstRecruitment),
			BeforePWDExpiration:  ptr(o.BeforePWDExpiration),
			SnapToSunday:         &snap,
		}
	}

	rj := RuleSetJSON{
		PWD: &PWDJSON{
			ShortWindowStart:  r.PWDShortWindowStart.String(),
			ShortWindowEnd:    r.PWDShortWindowEnd.String(),
			ShortValidityDays: ptr(r.PWDShortValidityDays),
			FixedExpiration:   r.PWDFixedExpiration.String(),
		},
		NoticeOfFilingBusinessDays: ptr(r.NoticeOfFilingBusinessDays),
		JobOrderDays:               ptr(r.JobOrderDays),
		ETA9089ValidityDays:        ptr(r.ETA9089ValidityDays),
		RFIResponseDays:            ptr(r.RFIResponseDays),
		FilingWaitDays:             ptr(r.FilingWaitDays),
		RecruitmentCapDays:         ptr(r.RecruitmentCapDays),
		SundayAdGapDays:            ptr(r.SundayAdGapDays),
		MinRecruitmentMethods:      ptr(r.MinRecruitmentMethods),
		Offsets:                    make(map[string]OffsetJSON, len(r.Offsets)),
	}
	for field, o := range r.Offsets {
		rj.Offsets[string(field)] = offset(o)
	}
	mo := offset(r.MethodOffset)
	rj.MethodOffset = &mo
	return rj
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func mergePWD(r *perm.RuleSet, pj PWDJSON) error {
	days := []struct {
		key string
		raw string
		dst *perm.MonthDay
	}{
		{"pwd.short_window_start", pj.ShortWindowStart, &r.PWDShortWindowStart},
		{"pwd.short_window_end", pj.ShortWindowEnd, &r.PWDShortWindowEnd},
		{"pwd.fixed_expiration", pj.FixedExpiration, &r.PWDFixedExpiration},
	}
	for _, d := range days {
		if d.raw == "" {
			continue
		}
		md, err := ParseMonthDay(d.raw)
		if err != nil {
			return &generic.RuleSetError{Key: d.key, Reason: err.Error()}
		}
		*d.dst = md
	}
	setInt(&r.PWDShortValidityDays, pj.ShortValidityDays)
	return nil
}

func mergeOffset(base perm.Offset, oj OffsetJSON) perm.Offset {
	setInt(&base.FromFirstRecruitment, oj.FromFirstRecruitment)
	setInt(&base.BeforePWDExpiration, oj.BeforePWDExpiration)
	if oj.SnapToSunday != nil {
		base.SnapToSunday = *oj.SnapToSunday
	}
	return base
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

// ParseMonthDay parses "MM-DD". Feb 29 is accepted.
func ParseMonthDay(s string) (perm.MonthDay, error) {
	t, err := time.Parse("01-02", s)
	if err != nil || len(s) != 5 {
		return perm.MonthDay{}, fmt.Errorf("%q is not MM-DD", s)
	}
	return perm.MonthDay{Month: t.Month(), Day: t.Day()}, nil
}

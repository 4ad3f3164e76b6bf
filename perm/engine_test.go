package perm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/perm-engine/generic"
	"github.com/warp/perm-engine/perm"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func date(s string) generic.Date { return generic.MustParseDate(s) }

func newEngine(t *testing.T, today string) *perm.Engine {
	t.Helper()
	e, err := perm.NewEngine(perm.DefaultRuleSet(), generic.FixedDate(date(today)))
	require.NoError(t, err)
	return e
}

func newCase(dates generic.Dates) *perm.Case {
	if dates == nil {
		dates = generic.Dates{}
	}
	return &perm.Case{
		ID:                    "case-1",
		EmployerName:          "Acme Corp",
		BeneficiaryIdentifier: "A-123",
		CaseStatus:            perm.CaseStatusPWD,
		ProgressStatus:        perm.ProgressWorking,
		Dates:                 dates,
	}
}

// recruitmentDone is a complete, non-professional recruitment:
// first step 2024-01-14, last step 2024-02-14.
func recruitmentDone() generic.Dates {
	return generic.Dates{
		perm.PWDDeterminationDate:    "2023-12-01",
		perm.PWDExpirationDate:       "2024-12-31",
		perm.SundayAdFirstDate:       "2024-01-14",
		perm.SundayAdSecondDate:      "2024-01-21",
		perm.JobOrderStartDate:       "2024-01-15",
		perm.JobOrderEndDate:         "2024-02-14",
		perm.NoticeOfFilingStartDate: "2024-01-15",
		perm.NoticeOfFilingEndDate:   "2024-01-29",
	}
}

func methods(dates ...string) []perm.RecruitmentMethod {
	codes := perm.RecruitmentMethodCodes
	out := make([]perm.RecruitmentMethod, 0, len(dates))
	for i, d := range dates {
		out = append(out, perm.RecruitmentMethod{Method: codes[i%len(codes)], Date: d})
	}
	return out
}

// =============================================================================
// ENGINE
// =============================================================================

func TestNewEngine_RejectsInvalidRuleSet(t *testing.T) {
	rules := perm.DefaultRuleSet()
	rules.JobOrderDays = 0

	_, err := perm.NewEngine(rules, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, generic.ErrInvalidRuleSet)
}

func TestNewEngine_BuildsDependencyGraph(t *testing.T) {
	e := newEngine(t, "2024-06-01")
	g := e.Deriver().Graph()

	assert.Equal(t, []generic.Field{perm.PWDDeterminationDate, perm.PWDExpirationDate}, g.Descendants(perm.PWDFilingDate))
	assert.Equal(t, []generic.Field{perm.ETA9089CertificationDate, perm.ETA9089ExpirationDate}, g.Descendants(perm.ETA9089FilingDate))
	assert.True(t, e.Deriver().IsDerived(perm.RFIDueDate))
	assert.False(t, e.Deriver().IsDerived(perm.PWDDeterminationDate), "chain links carry no calculation")
}

func TestEngine_Today_ComesFromClock(t *testing.T) {
	e := newEngine(t, "2024-06-01")
	assert.Equal(t, "2024-06-01", e.Today().String())
}

package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/perm-engine/generic"
	"github.com/warp/perm-engine/perm"
	"github.com/warp/perm-engine/store/sqlite"
)

var _ generic.FieldStore = (*sqlite.Store)(nil)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedCase(t *testing.T, store *sqlite.Store, id string) *perm.Case {
	t.Helper()
	c := &perm.Case{
		ID:                    id,
		EmployerName:          "Acme Corp",
		BeneficiaryIdentifier: "A-123",
		CaseStatus:            perm.CaseStatusPWD,
		ProgressStatus:        perm.ProgressWorking,
	}
	require.NoError(t, store.SaveCase(context.Background(), c))
	return c
}

// =============================================================================
// CASES
// =============================================================================

func TestSaveCase_RoundTripsHeader(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	c := &perm.Case{
		ID:                       "case-1",
		EmployerName:             "Acme Corp",
		BeneficiaryIdentifier:    "A-123",
		PositionTitle:            "Software Engineer",
		CaseStatus:               perm.CaseStatusRecruitment,
		ProgressStatus:           perm.ProgressWorking,
		IsProfessionalOccupation: true,
		RecruitmentMethods: []perm.RecruitmentMethod{
			{Method: perm.MethodJobFair, Date: "2024-02-01", Description: "Spring fair"},
			{Method: perm.MethodEmployerWebsite, Date: "2024-02-05"},
		},
		ApplicantsCount: 4,
		Notes:           "Expedite",
	}
	require.NoError(t, store.SaveCase(ctx, c))
	assert.False(t, c.CreatedAt.IsZero())

	got, err := store.GetCase(ctx, "case-1")
	require.NoError(t, err)
	assert.Equal(t, "Software Engineer", got.PositionTitle)
	assert.Equal(t, perm.CaseStatusRecruitment, got.CaseStatus)
	assert.True(t, got.IsProfessionalOccupation)
	assert.Equal(t, c.RecruitmentMethods, got.RecruitmentMethods)
	assert.Equal(t, 4, got.ApplicantsCount)
	assert.Empty(t, got.Dates)
}

func TestSaveCase_UpdateKeepsFields(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	c := seedCase(t, store, "case-1")
	require.NoError(t, store.WriteFields(ctx, "case-1", generic.Dates{perm.PWDFilingDate: "2024-01-02"}, nil))

	c.CaseStatus = perm.CaseStatusRecruitment
	require.NoError(t, store.SaveCase(ctx, c))

	got, err := store.GetCase(ctx, "case-1")
	require.NoError(t, err)
	assert.Equal(t, perm.CaseStatusRecruitment, got.CaseStatus)
	assert.Equal(t, "2024-01-02", got.Dates[perm.PWDFilingDate])
}

func TestGetCase_NotFound(t *testing.T) {
	_, err := newStore(t).GetCase(context.Background(), "nope")
	assert.ErrorIs(t, err, generic.ErrRecordNotFound)
}

func TestListCases_IncludesDates(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	seedCase(t, store, "case-b")
	seedCase(t, store, "case-a")
	require.NoError(t, store.WriteFields(ctx, "case-b", generic.Dates{perm.PWDFilingDate: "2024-01-02"}, nil))

	cases, err := store.ListCases(ctx)
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, "case-a", cases[0].ID)
	assert.Empty(t, cases[0].Dates)
	assert.Equal(t, "2024-01-02", cases[1].Dates[perm.PWDFilingDate])
}

func TestDeleteCase_Cascades(t *testing.T) {
	// GIVEN: A case with fields, a session and an alert
	// WHEN: The case is deleted
	// THEN: Everything attached to it is gone

	ctx := context.Background()
	store := newStore(t)
	seedCase(t, store, "case-1")
	require.NoError(t, store.WriteFields(ctx, "case-1", generic.Dates{perm.PWDFilingDate: "2024-01-02"}, nil))
	session := perm.NewSectionSession()
	require.NoError(t, session.OpenSection(perm.SectionPWD))
	require.NoError(t, store.SaveSession(ctx, "case-1", session))
	_, err := store.SaveAlert(ctx, sqlite.DeadlineAlert{CaseID: "case-1", Kind: perm.DeadlinePWDExpiration, DueDate: generic.MustParseDate("2024-06-30")})
	require.NoError(t, err)

	require.NoError(t, store.DeleteCase(ctx, "case-1"))

	dates, _, err := store.LoadFields(ctx, "case-1")
	require.NoError(t, err)
	assert.Empty(t, dates)
	alerts, err := store.ListAlerts(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, alerts)

	assert.ErrorIs(t, store.DeleteCase(ctx, "case-1"), generic.ErrRecordNotFound)
}

// =============================================================================
// FIELDS
// =============================================================================

func TestWriteFields_EmptyStringClears_AbsentKeyIgnored(t *testing.T) {
	// GIVEN: A case with a determination and an auto expiration
	// WHEN: A patch clears the expiration and omits the determination
	// THEN: The expiration reads back as "", the determination survives

	ctx := context.Background()
	store := newStore(t)
	seedCase(t, store, "case-1")

	require.NoError(t, store.WriteFields(ctx, "case-1", generic.Dates{
		perm.PWDDeterminationDate: "2024-05-15",
		perm.PWDExpirationDate:    "2024-08-13",
	}, generic.NewOwnership(perm.PWDExpirationDate)))

	dates, own, err := store.LoadFields(ctx, "case-1")
	require.NoError(t, err)
	assert.True(t, own.IsAuto(perm.PWDExpirationDate))

	require.NoError(t, store.WriteFields(ctx, "case-1",
		generic.Dates{perm.PWDExpirationDate: ""},
		generic.Ownership{perm.PWDExpirationDate: generic.OriginUnset}))

	dates, own, err = store.LoadFields(ctx, "case-1")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-15", dates[perm.PWDDeterminationDate])
	value, present := dates[perm.PWDExpirationDate]
	assert.True(t, present)
	assert.Equal(t, "", value)
	assert.Empty(t, own.AutoFields())
}

func TestWriteFields_OwnershipOnlyPatchKeepsValue(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	seedCase(t, store, "case-1")
	require.NoError(t, store.WriteFields(ctx, "case-1", generic.Dates{perm.PWDExpirationDate: "2024-09-01"}, nil))

	require.NoError(t, store.WriteFields(ctx, "case-1", nil, generic.MarkManual(nil, perm.PWDExpirationDate)))

	dates, own, err := store.LoadFields(ctx, "case-1")
	require.NoError(t, err)
	assert.Equal(t, "2024-09-01", dates[perm.PWDExpirationDate])
	assert.True(t, own.IsManual(perm.PWDExpirationDate))
}

func TestWriteFields_UnknownCase(t *testing.T) {
	err := newStore(t).WriteFields(context.Background(), "nope", generic.Dates{perm.PWDFilingDate: "2024-01-02"}, nil)
	assert.ErrorIs(t, err, generic.ErrRecordNotFound)
}

// =============================================================================
// SESSIONS
// =============================================================================

func TestSession_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	seedCase(t, store, "case-1")

	empty, err := store.LoadSession(ctx, "case-1")
	require.NoError(t, err)
	_, touched := empty.OpenState(perm.SectionPWD)
	assert.False(t, touched)

	session := perm.NewSectionSession()
	require.NoError(t, session.CloseSection(perm.SectionPWD))
	require.NoError(t, session.EnableOverride(perm.SectionI140))
	require.NoError(t, store.SaveSession(ctx, "case-1", session))

	got, err := store.LoadSession(ctx, "case-1")
	require.NoError(t, err)
	open, touched := got.OpenState(perm.SectionPWD)
	assert.True(t, touched)
	assert.False(t, open)
	open, _ = got.OpenState(perm.SectionI140)
	assert.True(t, open)
	assert.True(t, got.Override[perm.SectionI140])
	_, touched = got.OpenState(perm.SectionRecruitment)
	assert.False(t, touched)

	// Saving again replaces, not merges
	require.NoError(t, session.DisableOverride(perm.SectionI140))
	require.NoError(t, store.SaveSession(ctx, "case-1", session))
	got, err = store.LoadSession(ctx, "case-1")
	require.NoError(t, err)
	assert.False(t, got.Override[perm.SectionI140])
}

// =============================================================================
// ALERTS
// =============================================================================

func TestSaveAlert_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	seedCase(t, store, "case-1")

	alert := sqlite.DeadlineAlert{
		CaseID:        "case-1",
		Kind:          perm.DeadlineETA9089Filing,
		Label:         perm.DeadlineETA9089Filing.Label(),
		DueDate:       generic.MustParseDate("2024-07-12"),
		DaysRemaining: 12,
		Urgency:       perm.UrgencyUrgent,
	}
	created, err := store.SaveAlert(ctx, alert)
	require.NoError(t, err)
	assert.True(t, created)

	alert.DaysRemaining = 11
	created, err = store.SaveAlert(ctx, alert)
	require.NoError(t, err)
	assert.False(t, created, "same case, kind and date")

	alerts, err := store.ListAlerts(ctx, "case-1")
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "2024-07-12", alerts[0].DueDate.String())
	assert.Equal(t, 12, alerts[0].DaysRemaining)
	assert.NotEmpty(t, alerts[0].ID)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	seedCase(t, store, "case-1")

	require.NoError(t, store.Reset(ctx))

	cases, err := store.ListCases(ctx)
	require.NoError(t, err)
	assert.Empty(t, cases)
}

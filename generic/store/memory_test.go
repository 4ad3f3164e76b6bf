package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/perm-engine/generic"
	"github.com/warp/perm-engine/generic/store"
)

var _ generic.FieldStore = (*store.Memory)(nil)

func TestMemory_EmptyStringClears_AbsentKeyIgnored(t *testing.T) {
	// GIVEN: A record with two stored dates
	// WHEN: A patch writes "" for one and omits the other
	// THEN: The first is cleared, the second survives

	ctx := context.Background()
	m := store.NewMemory()
	require.NoError(t, m.WriteFields(ctx, "case-1", generic.Dates{
		"pwdDeterminationDate": "2024-05-15",
		"pwdExpirationDate":    "2024-08-13",
	}, generic.NewOwnership("pwdExpirationDate")))

	require.NoError(t, m.WriteFields(ctx, "case-1", generic.Dates{"pwdExpirationDate": ""},
		generic.Ownership{"pwdExpirationDate": generic.OriginUnset}))

	dates, own, err := m.LoadFields(ctx, "case-1")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-15", dates["pwdDeterminationDate"])
	value, present := dates["pwdExpirationDate"]
	assert.True(t, present)
	assert.Equal(t, "", value)
	assert.Empty(t, own.AutoFields())
}

func TestMemory_LoadReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	require.NoError(t, m.WriteFields(ctx, "case-1", generic.Dates{"a": "2024-01-01"}, nil))

	dates, _, _ := m.LoadFields(ctx, "case-1")
	dates["a"] = "mutated"

	again, _, _ := m.LoadFields(ctx, "case-1")
	assert.Equal(t, "2024-01-01", again["a"])
}

func TestMemory_UnknownRecordIsEmpty(t *testing.T) {
	dates, own, err := store.NewMemory().LoadFields(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, dates)
	assert.Empty(t, own)
}

func TestMemory_Delete(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	require.NoError(t, m.WriteFields(ctx, "case-1", generic.Dates{"a": "2024-01-01"}, nil))
	require.NoError(t, m.Delete(ctx, "case-1"))

	dates, _, _ := m.LoadFields(ctx, "case-1")
	assert.Empty(t, dates)
}

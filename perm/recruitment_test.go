package perm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/perm-engine/generic"
	"github.com/warp/perm-engine/perm"
)

func TestFirstRecruitmentDate(t *testing.T) {
	c := newCase(generic.Dates{
		perm.SundayAdFirstDate:       "2024-01-14",
		perm.JobOrderStartDate:       "2024-01-10",
		perm.NoticeOfFilingStartDate: "bogus",
	})
	c.RecruitmentMethods = methods("2024-01-02")

	got, ok := perm.FirstRecruitmentDate(c)
	assert.True(t, ok)
	assert.Equal(t, "2024-01-10", got.String(), "methods ignored when not professional")

	c.IsProfessionalOccupation = true
	got, _ = perm.FirstRecruitmentDate(c)
	assert.Equal(t, "2024-01-02", got.String())

	_, ok = perm.FirstRecruitmentDate(newCase(nil))
	assert.False(t, ok)
}

func TestLastRecruitmentDate_ProfessionalFieldsExcludedWhenFlagOff(t *testing.T) {
	dates := recruitmentDone()
	dates[perm.AdditionalRecruitmentEndDate] = "2024-03-20"
	c := newCase(dates)
	c.RecruitmentMethods = methods("2024-03-25")

	got, ok := perm.LastRecruitmentDate(c, false)
	assert.True(t, ok)
	assert.Equal(t, "2024-02-14", got.String())

	got, _ = perm.LastRecruitmentDate(c, true)
	assert.Equal(t, "2024-03-25", got.String())
}

func TestIsRecruitmentComplete(t *testing.T) {
	e := newEngine(t, "2024-03-01")

	partial := recruitmentDone()
	delete(partial, perm.NoticeOfFilingEndDate)
	assert.False(t, e.IsRecruitmentComplete(newCase(partial)))

	assert.True(t, e.IsRecruitmentComplete(newCase(recruitmentDone())))

	prof := newCase(recruitmentDone())
	prof.IsProfessionalOccupation = true
	prof.RecruitmentMethods = append(methods("2024-02-01", "2024-02-02"), perm.RecruitmentMethod{Method: perm.MethodJobFair})
	assert.False(t, e.IsRecruitmentComplete(prof), "an entry without a date is not complete")
	assert.Equal(t, 2, perm.CompleteMethodCount(prof))

	prof.RecruitmentMethods[2].Date = "2024-02-03"
	assert.True(t, e.IsRecruitmentComplete(prof))
}

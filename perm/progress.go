package perm

import "github.com/shopspring/decimal"

// =============================================================================
// PROGRESS - Stage-weighted completion percentage
// =============================================================================

// Each stage is worth a quarter of the case.
var stageWeight = decimal.NewFromInt(25)

// StageProgress is one stage's share, 0-25.
type StageProgress struct {
	Stage   Stage
	Percent decimal.Decimal
}

type Progress struct {
	Stages []StageProgress
	Total  decimal.Decimal // 0-100, one decimal place
}

// Progress scores how far c has come through the four stages.
func (e *Engine) Progress(c *Case) Progress {
	var p Progress
	total := decimal.Zero
	for _, stage := range Stages {
		pct := e.stageProgress(stage, c).Round(1)
		p.Stages = append(p.Stages, StageProgress{Stage: stage, Percent: pct})
		total = total.Add(pct)
	}
	p.Total = total.Round(1)
	return p
}

func (e *Engine) stageProgress(stage Stage, c *Case) decimal.Decimal {
	partial := func(done bool, filed bool, filedShare int64) decimal.Decimal {
		switch {
		case done:
			return stageWeight
		case filed:
			return decimal.NewFromInt(filedShare)
		}
		return decimal.Zero
	}

	switch stage {
	case StagePWD:
		return partial(c.Has(PWDDeterminationDate), c.Has(PWDFilingDate), 10)
	case StageRecruitment:
		if e.IsRecruitmentComplete(c) {
			return stageWeight
		}
		// Professional cases also count their method entries.
		done, steps := 0, len(baseRecruitmentFields)
		for _, f := range baseRecruitmentFields {
			if c.Has(f) {
				done++
			}
		}
		if c.IsProfessionalOccupation {
			done += min(CompleteMethodCount(c), e.rules.MinRecruitmentMethods)
			steps += e.rules.MinRecruitmentMethods
		}
		return stageWeight.Mul(decimal.NewFromInt(int64(done))).Div(decimal.NewFromInt(int64(steps)))
	case StageETA9089:
		return partial(c.Has(ETA9089CertificationDate), c.Has(ETA9089FilingDate), 15)
	case StageI140:
		return partial(c.Has(I140ApprovalDate) || c.Has(I140DenialDate), c.Has(I140FilingDate), 15)
	}
	return decimal.Zero
}

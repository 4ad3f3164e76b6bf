// Package perm implements the PERM labor-certification deadline engine.
// It uses the generic engine with PERM-specific fields, statutory offsets,
// section gates and validation rules.
package perm

import "github.com/warp/perm-engine/generic"

// =============================================================================
// DATE FIELDS
// =============================================================================

// Stage 1: Prevailing Wage Determination
const (
	PWDFilingDate        generic.Field = "pwdFilingDate"
	PWDDeterminationDate generic.Field = "pwdDeterminationDate"
	PWDExpirationDate    generic.Field = "pwdExpirationDate"
)

// Stage 2: Recruitment
const (
	SundayAdFirstDate              generic.Field = "sundayAdFirstDate"
	SundayAdSecondDate             generic.Field = "sundayAdSecondDate"
	JobOrderStartDate              generic.Field = "jobOrderStartDate"
	JobOrderEndDate                generic.Field = "jobOrderEndDate"
	NoticeOfFilingStartDate        generic.Field = "noticeOfFilingStartDate"
	NoticeOfFilingEndDate          generic.Field = "noticeOfFilingEndDate"
	AdditionalRecruitmentStartDate generic.Field = "additionalRecruitmentStartDate"
	AdditionalRecruitmentEndDate   generic.Field = "additionalRecruitmentEndDate"
)

// Stage 3: ETA 9089
const (
	ETA9089FilingDate        generic.Field = "eta9089FilingDate"
	ETA9089AuditDate         generic.Field = "eta9089AuditDate"
	ETA9089CertificationDate generic.Field = "eta9089CertificationDate"
	ETA9089ExpirationDate    generic.Field = "eta9089ExpirationDate"
	RFIReceivedDate          generic.Field = "rfiReceivedDate"
	RFIDueDate               generic.Field = "rfiDueDate"
	RFISubmittedDate         generic.Field = "rfiSubmittedDate"
)

// Stage 4: I-140
const (
	I140FilingDate   generic.Field = "i140FilingDate"
	I140ReceiptDate  generic.Field = "i140ReceiptDate"
	I140ApprovalDate generic.Field = "i140ApprovalDate"
	I140DenialDate   generic.Field = "i140DenialDate"
	RFEReceivedDate  generic.Field = "rfeReceivedDate"
	RFEDueDate       generic.Field = "rfeDueDate"
	RFESubmittedDate generic.Field = "rfeSubmittedDate"
)

// =============================================================================
// STAGES
// =============================================================================

// Stage is one step of the fixed statutory workflow.
type Stage string

const (
	StagePWD         Stage = "pwd"
	StageRecruitment Stage = "recruitment"
	StageETA9089     Stage = "eta9089"
	StageI140        Stage = "i140"
)

// Stages in workflow order.
var Stages = []Stage{StagePWD, StageRecruitment, StageETA9089, StageI140}

// FieldInfo describes one date field of the catalogue.
type FieldInfo struct {
	Field generic.Field
	Stage Stage
	Label string

	// NotFuture marks historical fields (filing, determination, receipt, ...):
	// their max is capped to today.
	NotFuture bool

	// Professional marks fields only meaningful for professional occupations.
	Professional bool
}

// Catalogue lists every date field in stage order. Order is significant:
// constraint maps and validation reports follow it.
var Catalogue = []FieldInfo{
	{Field: PWDFilingDate, Stage: StagePWD, Label: "PWD filing date", NotFuture: true},
	{Field: PWDDeterminationDate, Stage: StagePWD, Label: "PWD determination date", NotFuture: true},
	{Field: PWDExpirationDate, Stage: StagePWD, Label: "PWD expiration date"},

	{Field: SundayAdFirstDate, Stage: StageRecruitment, Label: "First Sunday ad"},
	{Field: SundayAdSecondDate, Stage: StageRecruitment, Label: "Second Sunday ad"},
	{Field: JobOrderStartDate, Stage: StageRecruitment, Label: "Job order start"},
	{Field: JobOrderEndDate, Stage: StageRecruitment, Label: "Job order end"},
	{Field: NoticeOfFilingStartDate, Stage: StageRecruitment, Label: "Notice of filing start"},
	{Field: NoticeOfFilingEndDate, Stage: StageRecruitment, Label: "Notice of filing end"},
	{Field: AdditionalRecruitmentStartDate, Stage: StageRecruitment, Label: "Additional recruitment start", Professional: true},
	{Field: AdditionalRecruitmentEndDate, Stage: StageRecruitment, Label: "Additional recruitment end", Professional: true},

	{Field: ETA9089FilingDate, Stage: StageETA9089, Label: "ETA 9089 filing date", NotFuture: true},
	{Field: ETA9089AuditDate, Stage: StageETA9089, Label: "ETA 9089 audit date", NotFuture: true},
	{Field: ETA9089CertificationDate, Stage: StageETA9089, Label: "ETA 9089 certification date", NotFuture: true},
	{Field: ETA9089ExpirationDate, Stage: StageETA9089, Label: "ETA 9089 expiration date"},
	{Field: RFIReceivedDate, Stage: StageETA9089, Label: "RFI received date", NotFuture: true},
	{Field: RFIDueDate, Stage: StageETA9089, Label: "RFI due date"},
	{Field: RFISubmittedDate, Stage: StageETA9089, Label: "RFI submitted date", NotFuture: true},

	{Field: I140FilingDate, Stage: StageI140, Label: "I-140 filing date", NotFuture: true},
	{Field: I140ReceiptDate, Stage: StageI140, Label: "I-140 receipt date", NotFuture: true},
	{Field: I140ApprovalDate, Stage: StageI140, Label: "I-140 approval date", NotFuture: true},
	{Field: I140DenialDate, Stage: StageI140, Label: "I-140 denial date", NotFuture: true},
	{Field: RFEReceivedDate, Stage: StageI140, Label: "RFE received date", NotFuture: true},
	{Field: RFEDueDate, Stage: StageI140, Label: "RFE due date"},
	{Field: RFESubmittedDate, Stage: StageI140, Label: "RFE submitted date", NotFuture: true},
}

var catalogueIndex = func() map[generic.Field]FieldInfo {
	idx := make(map[generic.Field]FieldInfo, len(Catalogue))
	for _, info := range Catalogue {
		idx[info.Field] = info
	}
	return idx
}()

// Lookup returns the catalogue entry of f.
func Lookup(f generic.Field) (FieldInfo, bool) {
	info, ok := catalogueIndex[f]
	return info, ok
}

// IsKnownField reports whether f is a catalogued date field.
func IsKnownField(f generic.Field) bool {
	_, ok := catalogueIndex[f]
	return ok
}

// FieldsOf returns the fields of one stage in catalogue order.
func FieldsOf(stage Stage) []generic.Field {
	var out []generic.Field
	for _, info := range Catalogue {
		if info.Stage == stage {
			out = append(out, info.Field)
		}
	}
	return out
}

package generic

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// FieldError ties a message to a field path such as "sundayAdSecondDate" or
// "recruitmentMethods[2].date".
type FieldError struct {
	Field   string
	Message string
	RuleID  string
}

type ValidationResult struct {
	Valid    bool
	Errors   []FieldError
	Warnings []FieldError
}

// Validation accumulates findings. Nothing short-circuits: every check runs
// and reports independently.
type Validation struct {
	errors   []FieldError
	warnings []FieldError
}

func (v *Validation) Error(field, ruleID, message string) {
	v.errors = append(v.errors, FieldError{Field: field, Message: message, RuleID: ruleID})
}

func (v *Validation) Warn(field, ruleID, message string) {
	v.warnings = append(v.warnings, FieldError{Field: field, Message: message, RuleID: ruleID})
}

func (v *Validation) Result() ValidationResult {
	return ValidationResult{
		Valid:    len(v.errors) == 0,
		Errors:   append([]FieldError{}, v.errors...),
		Warnings: append([]FieldError{}, v.warnings...),
	}
}

// HasError reports whether an error was recorded for field.
func (r ValidationResult) HasError(field string) bool {
	for _, e := range r.Errors {
		if e.Field == field {
			return true
		}
	}
	return false
}

// HasRule reports whether any error or warning carries ruleID.
func (r ValidationResult) HasRule(ruleID string) bool {
	for _, e := range r.Errors {
		if e.RuleID == ruleID {
			return true
		}
	}
	for _, w := range r.Warnings {
		if w.RuleID == ruleID {
			return true
		}
	}
	return false
}

package service

// FieldViolations carries accumulated per-field rule violations up to the
// handler, which renders them as a 422 validation envelope.
type FieldViolations struct {
	Fields map[string]string
}

func (e *FieldViolations) Error() string { return "validation failed" }

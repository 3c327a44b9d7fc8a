package api

import "github.com/go-playground/validator/v10"

// structValidator handles the one plain "is this a well-formed
// identifier" check that fits a struct tag (the severity enum) without
// forcing every JSON body through the full read_data three-way predicate
// jsonvalidate.go implements by hand. Name charsets are enforced by the
// router's path patterns instead.
var structValidator = validator.New()

type severityParam struct {
	Severity string `validate:"required,oneof=ok warning critical unknown"`
}

// validSeverityPath reports whether severity is one of the four buckets
// spec §4.5's GET /aggregates/<name>/results/<severity> accepts.
func validSeverityPath(severity string) bool {
	return structValidator.Struct(severityParam{Severity: severity}) == nil
}

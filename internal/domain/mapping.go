package domain

import "github.com/tbourn/go-graceful-response/internal/fault"

// ErrorMapping associates an error category with the envelope produced for
// it.
//
// Fields:
//   - Category: the error category this mapping is registered on.
//   - Code: envelope code (opaque to the pipeline).
//   - Message: envelope message; may be a text/template referencing the
//     error's fields ({{.id}}) or its text ({{.error}}).
//   - Status: HTTP status override; 0 keeps the projection's default.
//   - UseErrorMessage: use the error's own text instead of Message.
//   - Translations: alternative message templates keyed by BCP 47 tag.
type ErrorMapping struct {
	Category        fault.Category
	Code            string
	Message         string
	Status          int
	UseErrorMessage bool
	Translations    map[string]string
}

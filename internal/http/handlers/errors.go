// Package handlers – request decoding errors.
//
// Handlers never pick status codes. Decoding and validation failures are
// turned into categorized errors here and the pipeline maps them:
//
//   - malformed JSON, wrong types, empty body  -> bad_request
//   - body over the size limit                  -> bad_request ("request body too large")
//   - binding tag violations                    -> validation, one line per field
//   - malformed path IDs                        -> bad_request
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/tbourn/go-graceful-response/internal/fault"
)

// bindJSON decodes the request body into dst and runs binding validation.
func bindJSON(c *gin.Context, dst any) error {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return fault.Invalid(describeValidation(verrs)).With("fields", fieldNames(verrs))
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fault.Wrap(fault.CategoryBadRequest, err, "request body too large").
			With("limit", tooLarge.Limit)
	}
	return fault.BadRequest(err)
}

// pathUUID returns the named path parameter, which must be a UUID.
func pathUUID(c *gin.Context, name string) (string, error) {
	id := c.Param(name)
	if _, err := uuid.Parse(id); err != nil {
		return "", fault.Newf(fault.CategoryBadRequest, "%s must be a UUID", name).With("param", name)
	}
	return id, nil
}

func describeValidation(verrs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid (%s)", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

func fieldNames(verrs validator.ValidationErrors) []string {
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, strings.ToLower(fe.Field()))
	}
	return out
}

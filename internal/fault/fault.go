// Package fault defines the error categories understood by the response
// pipeline and a small categorized error type that services return.
//
// A category is a stable, machine-friendly identifier ("not_found",
// "validation", ...). Categories form a hierarchy (see DefaultParents) so a
// mapping registered on a broad category such as "client" also covers its
// descendants. An error declares its category by implementing Categorized;
// the first categorized error found in the unwrap chain wins.
//
// Third-party sentinel errors that cannot implement Categorized (for example
// gorm.ErrRecordNotFound) are attached to a category through an Alias.
package fault

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"net/http"
	"strconv"
	"time"
)

// Category identifies a class of errors.
type Category string

// Built-in categories.
const (
	CategoryClient       Category = "client"
	CategoryBadRequest   Category = "bad_request"
	CategoryValidation   Category = "validation"
	CategoryNotFound     Category = "not_found"
	CategoryConflict     Category = "conflict"
	CategoryDuplicate    Category = "duplicate"
	CategoryUnauthorized Category = "unauthorized"
	CategoryForbidden    Category = "forbidden"
	CategoryRateLimited  Category = "rate_limited"
	CategoryMethod       Category = "method_not_allowed"

	CategoryServer      Category = "server"
	CategoryInternal    Category = "internal"
	CategoryUnavailable Category = "unavailable"
	CategoryPanic       Category = "panic"
)

// DefaultParents returns the built-in category hierarchy as a child -> parent
// table. Roots ("client", "server") have no entry.
func DefaultParents() map[Category]Category {
	return map[Category]Category{
		CategoryBadRequest:   CategoryClient,
		CategoryValidation:   CategoryBadRequest,
		CategoryNotFound:     CategoryClient,
		CategoryConflict:     CategoryClient,
		CategoryDuplicate:    CategoryConflict,
		CategoryUnauthorized: CategoryClient,
		CategoryForbidden:    CategoryClient,
		CategoryRateLimited:  CategoryClient,
		CategoryMethod:       CategoryClient,
		CategoryInternal:     CategoryServer,
		CategoryUnavailable:  CategoryServer,
		CategoryPanic:        CategoryInternal,
	}
}

// Categorized is implemented by errors that know their category.
type Categorized interface {
	error
	Category() Category
}

// CategoryOf returns the category of the first categorized error in err's
// chain.
func CategoryOf(err error) (Category, bool) {
	var c Categorized
	if errors.As(err, &c) {
		return c.Category(), true
	}
	return "", false
}

// Error is a categorized error carrying optional template fields and
// transport headers. Values are treated as immutable; With and WithHeader
// return modified copies.
type Error struct {
	category Category
	msg      string
	fields   map[string]any
	header   http.Header
	cause    error
}

// New returns an error of category c.
func New(c Category, msg string) *Error {
	return &Error{category: c, msg: msg}
}

// Newf is New with fmt.Sprintf formatting.
func Newf(c Category, format string, args ...any) *Error {
	return New(c, fmt.Sprintf(format, args...))
}

// Wrap returns an error of category c wrapping cause.
func Wrap(c Category, cause error, msg string) *Error {
	return &Error{category: c, msg: msg, cause: cause}
}

func (e *Error) Error() string {
	switch {
	case e.cause == nil:
		return e.msg
	case e.msg == "":
		return e.cause.Error()
	default:
		return e.msg + ": " + e.cause.Error()
	}
}

func (e *Error) Unwrap() error { return e.cause }

// Category implements Categorized.
func (e *Error) Category() Category { return e.category }

// Message returns the message without the wrapped cause.
func (e *Error) Message() string { return e.msg }

// Fields returns a copy of the attached fields. Message templates can
// reference them by name.
func (e *Error) Fields() map[string]any {
	return maps.Clone(e.fields)
}

// Header returns a copy of the transport headers attached to the error.
func (e *Error) Header() http.Header {
	return e.header.Clone()
}

// With returns a copy of e with field key set to v.
func (e *Error) With(key string, v any) *Error {
	cp := *e
	cp.fields = maps.Clone(e.fields)
	if cp.fields == nil {
		cp.fields = make(map[string]any, 1)
	}
	cp.fields[key] = v
	return &cp
}

// WithHeader returns a copy of e carrying header key=value.
func (e *Error) WithHeader(key, value string) *Error {
	cp := *e
	cp.header = e.header.Clone()
	if cp.header == nil {
		cp.header = make(http.Header, 1)
	}
	cp.header.Set(key, value)
	return &cp
}

// NotFound reports a missing resource. The resource name and id are exposed
// as the "resource" and "id" fields.
func NotFound(resource string, id any) *Error {
	return Newf(CategoryNotFound, "%s not found", resource).
		With("resource", resource).
		With("id", id)
}

// Invalid reports a request that failed validation.
func Invalid(msg string) *Error { return New(CategoryValidation, msg) }

// BadRequest reports a malformed request, wrapping the decoding error.
func BadRequest(cause error) *Error { return Wrap(CategoryBadRequest, cause, "malformed request") }

// Conflict reports a state conflict.
func Conflict(msg string) *Error { return New(CategoryConflict, msg) }

// Duplicate reports a uniqueness violation on field/value.
func Duplicate(field string, value any) *Error {
	return Newf(CategoryDuplicate, "%s already exists", field).
		With("field", field).
		With("value", value)
}

// RateLimited reports a throttled request. The wait is exposed as the
// "retry_after" field (seconds) and as a Retry-After header.
func RateLimited(retryAfter time.Duration) *Error {
	secs := int(math.Ceil(retryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return New(CategoryRateLimited, "rate limit exceeded").
		With("retry_after", secs).
		WithHeader("Retry-After", strconv.Itoa(secs))
}

// MethodNotAllowed reports an unsupported HTTP method on a known route.
func MethodNotAllowed(method, path string) *Error {
	return Newf(CategoryMethod, "method %s not allowed on %s", method, path).
		With("method", method).
		With("path", path)
}

// RouteNotFound reports an unknown route.
func RouteNotFound(path string) *Error {
	return NotFound("route", path)
}

// Panic converts a recovered panic value into an error.
func Panic(v any) *Error {
	if err, ok := v.(error); ok {
		return Wrap(CategoryPanic, err, "panic")
	}
	return Newf(CategoryPanic, "panic: %v", v).With("value", fmt.Sprint(v))
}

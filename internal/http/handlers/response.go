// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the Responder, which guarantees uniform response bodies
// for both success and failure cases:
//
//   - Handlers return (value, error) and are adapted with Responder.Wrap.
//   - A nil error wraps the value in a success envelope, unless the request
//     is excluded or the value's type is configured to be written raw.
//   - A non-nil error runs through the error pipeline, which picks the
//     envelope, status and extra headers.
//
// Example error response (flat style):
//
//	HTTP/1.1 404 Not Found
//	{ "code": "NOT_FOUND", "message": "Resource missing" }
//
// Example success response (nested style):
//
//	HTTP/1.1 201 Created
//	{ "status": { "code": "OK", "message": "ok" }, "payload": { "id": "abc123" } }
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-graceful-response/internal/domain"
	"github.com/tbourn/go-graceful-response/internal/http/middleware"
	"github.com/tbourn/go-graceful-response/internal/pipeline"
)

// HandlerFunc is an endpoint that leaves response writing to the Responder.
// Set a non-200 success status with c.Status before returning.
type HandlerFunc func(c *gin.Context) (any, error)

// ResponderOptions configures success rendering.
type ResponderOptions struct {
	Style          domain.Style
	SuccessCode    string
	SuccessMessage string
	// RawTypes lists Go type names (as printed by %T) written without an
	// envelope, e.g. "[]uint8" or "string".
	RawTypes []string
}

// Responder writes success envelopes and hands errors to the pipeline.
type Responder struct {
	ctl  *pipeline.Controller
	opts ResponderOptions
	raw  map[string]struct{}
}

// NewResponder returns a Responder bound to ctl.
func NewResponder(ctl *pipeline.Controller, opts ResponderOptions) *Responder {
	raw := make(map[string]struct{}, len(opts.RawTypes))
	for _, t := range opts.RawTypes {
		raw[t] = struct{}{}
	}
	return &Responder{ctl: ctl, opts: opts, raw: raw}
}

// Style returns the configured envelope style.
func (r *Responder) Style() domain.Style { return r.opts.Style }

// Wrap adapts h to a gin handler.
func (r *Responder) Wrap(h HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := h(c)
		if err != nil {
			r.Fail(c, err)
			return
		}
		if c.Writer.Written() {
			return
		}
		r.Succeed(c, c.Writer.Status(), v)
	}
}

// Succeed writes v with the given status. Statuses that forbid a body
// (204, 304, 1xx) only write the header.
func (r *Responder) Succeed(c *gin.Context, status int, v any) {
	if !bodyAllowed(status) {
		c.Status(status)
		c.Writer.WriteHeaderNow()
		return
	}

	if middleware.IsExcluded(c) || r.isRaw(v) {
		writeRaw(c, status, v)
		return
	}

	env, ok := v.(domain.Envelope)
	if !ok {
		env = domain.Success(r.opts.SuccessCode, r.opts.SuccessMessage, v)
	}
	if env.Status != 0 {
		status = env.Status
	}
	middleware.SetEnvelopeCode(c, env.Code)
	c.JSON(status, env.Render(r.opts.Style))
}

// Fail runs err through the pipeline and writes the resulting envelope. A
// rejected error gets a bare 500 and stays attached to the gin context.
// Server errors are logged with the request-scoped logger.
func (r *Responder) Fail(c *gin.Context, err error) {
	if c.Writer.Written() {
		c.Abort()
		return
	}

	res, rerr := r.ctl.Handle(c.Request.Context(), err)
	if rerr != nil {
		_ = c.Error(rerr)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	h := c.Writer.Header()
	for k, vs := range res.Header {
		h[k] = append([]string(nil), vs...)
	}

	if res.Status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Err(err).
			Int("status", res.Status).
			Str("code", res.Envelope.Code).
			Msg("api error")
	}

	middleware.SetEnvelopeCode(c, res.Envelope.Code)
	c.AbortWithStatusJSON(res.Status, res.Envelope.Render(r.opts.Style))
}

func (r *Responder) isRaw(v any) bool {
	if v == nil || len(r.raw) == 0 {
		return false
	}
	_, ok := r.raw[fmt.Sprintf("%T", v)]
	return ok
}

func writeRaw(c *gin.Context, status int, v any) {
	switch x := v.(type) {
	case nil:
		c.Status(status)
		c.Writer.WriteHeaderNow()
	case []byte:
		ct := c.Writer.Header().Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}
		c.Data(status, ct, x)
	case string:
		c.String(status, "%s", x)
	default:
		c.JSON(status, x)
	}
}

func bodyAllowed(status int) bool {
	switch {
	case status >= 100 && status <= 199:
		return false
	case status == http.StatusNoContent, status == http.StatusNotModified:
		return false
	}
	return true
}

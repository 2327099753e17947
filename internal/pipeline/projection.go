package pipeline

import (
	"errors"
	"net/http"

	"github.com/tbourn/go-graceful-response/internal/domain"
)

// DefaultContentType identifies the body as a JSON envelope.
const DefaultContentType = "application/json; charset=utf-8"

// HTTPProjector derives the status and headers to send with an envelope.
type HTTPProjector interface {
	Project(env domain.Envelope, err error) (int, http.Header)
}

// HTTPProjectorFunc adapts a function to HTTPProjector.
type HTTPProjectorFunc func(env domain.Envelope, err error) (int, http.Header)

// Project implements HTTPProjector.
func (f HTTPProjectorFunc) Project(env domain.Envelope, err error) (int, http.Header) {
	return f(env, err)
}

// Projection is the default HTTPProjector.
type Projection struct {
	// DefaultStatus is used when the envelope carries no override.
	DefaultStatus int
	// ContentType is always set and never overwritten by error headers.
	ContentType string
}

// NewProjection returns a projection answering defaultStatus (500 when 0).
func NewProjection(defaultStatus int) Projection {
	return Projection{DefaultStatus: defaultStatus, ContentType: DefaultContentType}
}

type headerCarrier interface {
	Header() http.Header
}

// Project implements HTTPProjector. The envelope's status override wins
// over DefaultStatus. Headers carried by the error (for example
// Retry-After) are merged in, except Content-Type.
func (p Projection) Project(env domain.Envelope, err error) (int, http.Header) {
	status := p.DefaultStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if env.Status != 0 {
		status = env.Status
	}

	h := make(http.Header)
	var hc headerCarrier
	if err != nil && errors.As(err, &hc) {
		for k, vs := range hc.Header() {
			if http.CanonicalHeaderKey(k) == "Content-Type" {
				continue
			}
			for _, v := range vs {
				h.Add(k, v)
			}
		}
	}

	ct := p.ContentType
	if ct == "" {
		ct = DefaultContentType
	}
	h.Set("Content-Type", ct)
	return status, h
}

package pipeline

import (
	"context"
	"net/http"

	"github.com/tbourn/go-graceful-response/internal/domain"
)

// RejectStrategy handles errors the predicate chain rejected.
//
// Returning a non-nil error declines the error: the caller falls back to its
// own default handling. Returning a nil error means the strategy produced
// the Result itself.
type RejectStrategy interface {
	Reject(ctx context.Context, err error) (Result, error)
}

// RejectFunc adapts a function to RejectStrategy.
type RejectFunc func(ctx context.Context, err error) (Result, error)

// Reject implements RejectStrategy.
func (f RejectFunc) Reject(ctx context.Context, err error) (Result, error) { return f(ctx, err) }

// Propagate is the default strategy: the error is handed back unchanged.
type Propagate struct{}

// Reject implements RejectStrategy.
func (Propagate) Reject(_ context.Context, err error) (Result, error) {
	return Result{}, err
}

// GenericFailure answers every rejected error with the same envelope. It
// must be installed explicitly with WithReject.
type GenericFailure struct {
	Code        string
	Message     string
	Status      int
	ContentType string
}

// Reject implements RejectStrategy.
func (g GenericFailure) Reject(context.Context, error) (Result, error) {
	status := g.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	ct := g.ContentType
	if ct == "" {
		ct = DefaultContentType
	}
	h := make(http.Header, 1)
	h.Set("Content-Type", ct)
	return Result{
		Status:   status,
		Header:   h,
		Envelope: domain.Failure(g.Code, g.Message),
	}, nil
}

package pipeline

import (
	"context"

	"github.com/tbourn/go-graceful-response/internal/domain"
)

// BeforeFunc observes an accepted error before it is processed.
type BeforeFunc func(ctx context.Context, err error)

// AfterFunc observes the envelope produced for an error, before projection.
type AfterFunc func(ctx context.Context, env domain.Envelope, err error)

// NoBefore and NoAfter are the "no hook registered" values.
var (
	NoBefore BeforeFunc = func(context.Context, error) {}
	NoAfter  AfterFunc  = func(context.Context, domain.Envelope, error) {}
)

// Hooks report their own failures; a panic is swallowed here so it cannot
// block the response.
func (f BeforeFunc) call(ctx context.Context, err error) {
	defer func() { _ = recover() }()
	f(ctx, err)
}

func (f AfterFunc) call(ctx context.Context, env domain.Envelope, err error) {
	defer func() { _ = recover() }()
	f(ctx, env, err)
}

// Before combines hooks into one, run in order. Nil entries are skipped and
// each hook is isolated from the others' panics.
func Before(fns ...BeforeFunc) BeforeFunc {
	fns = compactBefore(fns)
	switch len(fns) {
	case 0:
		return NoBefore
	case 1:
		return fns[0]
	}
	return func(ctx context.Context, err error) {
		for _, f := range fns {
			f.call(ctx, err)
		}
	}
}

// After combines hooks into one, run in order. Nil entries are skipped and
// each hook is isolated from the others' panics.
func After(fns ...AfterFunc) AfterFunc {
	fns = compactAfter(fns)
	switch len(fns) {
	case 0:
		return NoAfter
	case 1:
		return fns[0]
	}
	return func(ctx context.Context, env domain.Envelope, err error) {
		for _, f := range fns {
			f.call(ctx, env, err)
		}
	}
}

func compactBefore(fns []BeforeFunc) []BeforeFunc {
	out := fns[:0:0]
	for _, f := range fns {
		if f != nil {
			out = append(out, f)
		}
	}
	return out
}

func compactAfter(fns []AfterFunc) []AfterFunc {
	out := fns[:0:0]
	for _, f := range fns {
		if f != nil {
			out = append(out, f)
		}
	}
	return out
}

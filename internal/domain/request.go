package domain

import "context"

// RequestMeta describes the HTTP request an error was raised in. The
// transport stores it in the context handed to pipeline hooks.
type RequestMeta struct {
	ID     string
	Method string
	Path   string
}

type requestMetaKey struct{}

// WithRequestMeta returns a copy of ctx carrying m.
func WithRequestMeta(ctx context.Context, m RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, m)
}

// RequestMetaFrom returns the metadata stored by WithRequestMeta.
func RequestMetaFrom(ctx context.Context) (RequestMeta, bool) {
	m, ok := ctx.Value(requestMetaKey{}).(RequestMeta)
	return m, ok
}

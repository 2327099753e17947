package pipeline

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/text/language"

	"github.com/tbourn/go-graceful-response/internal/domain"
	"github.com/tbourn/go-graceful-response/internal/fault"
)

// Reserved envelope returned when neither a mapping nor a fallback applies.
const (
	UnmappedCode    = "UNMAPPED_ERROR"
	UnmappedMessage = "unhandled error"
)

// ExceptionProcessor converts an accepted error into an envelope.
type ExceptionProcessor interface {
	Process(ctx context.Context, err error) domain.Envelope
}

// ExceptionProcessorFunc adapts a function to ExceptionProcessor.
type ExceptionProcessorFunc func(ctx context.Context, err error) domain.Envelope

// Process implements ExceptionProcessor.
func (f ExceptionProcessorFunc) Process(ctx context.Context, err error) domain.Envelope {
	return f(ctx, err)
}

// Processor is the table-driven ExceptionProcessor. The table is swapped
// atomically, so Process never observes a half-updated configuration.
type Processor struct {
	table atomic.Pointer[Table]
}

// NewProcessor returns a processor over t. A nil t behaves like EmptyTable.
func NewProcessor(t *Table) *Processor {
	p := &Processor{}
	p.Swap(t)
	return p
}

// Swap publishes a new table.
func (p *Processor) Swap(t *Table) {
	if t == nil {
		t = EmptyTable()
	}
	p.table.Store(t)
}

// Table returns the current snapshot.
func (p *Processor) Table() *Table { return p.table.Load() }

// Process maps err to an envelope. Precedence: exact category, nearest
// mapped ancestor, fallback, then the reserved unmapped envelope. It never
// returns an empty envelope.
func (p *Processor) Process(ctx context.Context, err error) domain.Envelope {
	t := p.table.Load()
	e, c := t.lookup(err)
	if e == nil {
		return domain.Failure(UnmappedCode, UnmappedMessage)
	}

	var msg string
	if e.mapping.UseErrorMessage && err != nil {
		msg = err.Error()
	} else {
		msg = t.messageFor(e, LocaleFrom(ctx)).render(templateData(err, c))
	}

	env := domain.Failure(e.mapping.Code, msg)
	env.Status = e.mapping.Status
	return env
}

// Category classifies err with the current table's aliases.
func (p *Processor) Category(err error) (fault.Category, bool) {
	return fault.Classify(err, p.table.Load().aliases)
}

type fieldCarrier interface {
	Fields() map[string]any
}

// templateData exposes the error's own fields plus "error" (its text) and
// "category".
func templateData(err error, c fault.Category) map[string]any {
	data := map[string]any{"category": string(c)}
	if err == nil {
		return data
	}
	var fc fieldCarrier
	if errors.As(err, &fc) {
		for k, v := range fc.Fields() {
			data[k] = v
		}
	}
	data["error"] = err.Error()
	return data
}

type localeKey struct{}

// WithLocale returns a copy of ctx carrying the caller's preferred
// languages, most preferred first.
func WithLocale(ctx context.Context, tags ...language.Tag) context.Context {
	return context.WithValue(ctx, localeKey{}, tags)
}

// LocaleFrom returns the languages stored by WithLocale.
func LocaleFrom(ctx context.Context) []language.Tag {
	if ctx == nil {
		return nil
	}
	tags, _ := ctx.Value(localeKey{}).([]language.Tag)
	return tags
}

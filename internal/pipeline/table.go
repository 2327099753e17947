package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"golang.org/x/text/language"

	"github.com/tbourn/go-graceful-response/internal/domain"
	"github.com/tbourn/go-graceful-response/internal/fault"
)

// Table is an immutable snapshot of the error mapping configuration with
// every category's mapping resolved ahead of time.
type Table struct {
	exact    map[fault.Category]*entry
	resolved map[fault.Category]*entry
	fallback *entry
	aliases  []fault.Alias
	graph    *Graph
}

type entry struct {
	mapping   domain.ErrorMapping
	message   msgTemplate
	localized map[language.Tag]msgTemplate

	// Built from this entry's own translations only.
	tags    []language.Tag // tags[0] is language.Und: "use the default message"
	matcher language.Matcher
}

// msgTemplate renders a mapping message. Messages without template actions
// are returned verbatim.
type msgTemplate struct {
	raw string
	t   *template.Template
}

// EmptyTable returns a table with no mappings and no fallback. Every error
// processed against it yields the reserved unmapped envelope.
func EmptyTable() *Table {
	return &Table{}
}

// NewTable validates mappings and precomputes, for every known category,
// the mapping to use: its own registration or the nearest mapped ancestor.
// fallback and g may be nil. Invalid entries are configuration errors.
func NewTable(g *Graph, mappings []domain.ErrorMapping, fallback *domain.ErrorMapping, aliases []fault.Alias) (*Table, error) {
	t := &Table{
		exact:   make(map[fault.Category]*entry, len(mappings)),
		aliases: append([]fault.Alias(nil), aliases...),
		graph:   g,
	}

	for i, m := range mappings {
		if m.Category == "" {
			return nil, fmt.Errorf("pipeline: mapping #%d has no category", i)
		}
		if _, dup := t.exact[m.Category]; dup {
			return nil, fmt.Errorf("pipeline: category %q mapped twice", m.Category)
		}
		e, err := newEntry(m)
		if err != nil {
			return nil, fmt.Errorf("pipeline: mapping %q: %w", m.Category, err)
		}
		t.exact[m.Category] = e
	}
	if fallback != nil {
		e, err := newEntry(*fallback)
		if err != nil {
			return nil, fmt.Errorf("pipeline: fallback mapping: %w", err)
		}
		t.fallback = e
	}
	for i, a := range t.aliases {
		if a.Target == nil || a.Category == "" {
			return nil, fmt.Errorf("pipeline: alias #%d is incomplete", i)
		}
	}

	t.resolved = make(map[fault.Category]*entry, len(t.exact))
	for c, e := range t.exact {
		t.resolved[c] = e
	}
	for _, c := range g.Categories() {
		if _, ok := t.resolved[c]; ok {
			continue
		}
		for _, anc := range g.Ancestors(c) {
			if e, ok := t.exact[anc]; ok {
				t.resolved[c] = e
				break
			}
		}
	}

	return t, nil
}

func newEntry(m domain.ErrorMapping) (*entry, error) {
	if strings.TrimSpace(m.Code) == "" {
		return nil, errors.New("empty code")
	}
	if m.Status != 0 && (m.Status < 100 || m.Status > 599) {
		return nil, fmt.Errorf("status %d out of range", m.Status)
	}
	msg, err := parseMessage(m.Message)
	if err != nil {
		return nil, err
	}
	e := &entry{mapping: m, message: msg}
	if len(m.Translations) > 0 {
		e.localized = make(map[language.Tag]msgTemplate, len(m.Translations))
		for raw, text := range m.Translations {
			tag, err := language.Parse(raw)
			if err != nil {
				return nil, fmt.Errorf("translation tag %q: %w", raw, err)
			}
			mt, err := parseMessage(text)
			if err != nil {
				return nil, fmt.Errorf("translation %q: %w", raw, err)
			}
			e.localized[tag] = mt
			e.tags = append(e.tags, tag)
		}
		sort.Slice(e.tags, func(i, j int) bool { return e.tags[i].String() < e.tags[j].String() })
		e.tags = append([]language.Tag{language.Und}, e.tags...)
		e.matcher = language.NewMatcher(e.tags)
	}
	return e, nil
}

func parseMessage(raw string) (msgTemplate, error) {
	if !strings.Contains(raw, "{{") {
		return msgTemplate{raw: raw}, nil
	}
	t, err := template.New("message").Option("missingkey=error").Parse(raw)
	if err != nil {
		return msgTemplate{}, fmt.Errorf("message template: %w", err)
	}
	return msgTemplate{raw: raw, t: t}, nil
}

// render executes the template; any execution failure yields the raw text.
func (m msgTemplate) render(data map[string]any) string {
	if m.t == nil {
		return m.raw
	}
	var b strings.Builder
	if err := m.t.Execute(&b, data); err != nil {
		return m.raw
	}
	return b.String()
}

// Categories lists the categories with an exact registration.
func (t *Table) Categories() []fault.Category {
	out := make([]fault.Category, 0, len(t.exact))
	for c := range t.exact {
		out = append(out, c)
	}
	return out
}

// Lookup returns the mapping that applies to err and the category err was
// classified into. ok is false when neither a mapping nor a fallback
// applies.
func (t *Table) Lookup(err error) (m domain.ErrorMapping, c fault.Category, ok bool) {
	e, c := t.lookup(err)
	if e == nil {
		return domain.ErrorMapping{}, c, false
	}
	return e.mapping, c, true
}

func (t *Table) lookup(err error) (*entry, fault.Category) {
	c, ok := fault.Classify(err, t.aliases)
	if ok {
		if e := t.resolved[c]; e != nil {
			return e, c
		}
	}
	return t.fallback, c
}

// messageFor picks the entry's translation best matching the requested
// locales.
func (t *Table) messageFor(e *entry, want []language.Tag) msgTemplate {
	if e.matcher == nil || len(want) == 0 {
		return e.message
	}
	_, idx, conf := e.matcher.Match(want...)
	if idx <= 0 || conf == language.No {
		return e.message
	}
	if mt, ok := e.localized[e.tags[idx]]; ok {
		return mt
	}
	return e.message
}

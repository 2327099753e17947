package pipeline

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/tbourn/go-graceful-response/internal/fault"
)

// ErrNilPredicate is returned when registering a nil predicate.
var ErrNilPredicate = errors.New("pipeline: nil predicate")

// Predicate gates interception: returning false rejects the error.
// Predicates must be pure. A panicking predicate is a configuration bug and
// is not recovered.
type Predicate func(err error) bool

// Chain is an append-only, ordered sequence of predicates. Readers see a
// complete snapshot; Append publishes a new slice instead of mutating the
// current one. The zero value is an empty chain.
type Chain struct {
	preds atomic.Pointer[[]Predicate]
}

// NewChain returns a chain holding ps in order.
func NewChain(ps ...Predicate) (*Chain, error) {
	c := &Chain{}
	if err := c.Append(ps...); err != nil {
		return nil, err
	}
	return c, nil
}

// Append adds ps to the end of the chain. Nothing is added if any
// predicate is nil.
func (c *Chain) Append(ps ...Predicate) error {
	for _, p := range ps {
		if p == nil {
			return ErrNilPredicate
		}
	}
	if len(ps) == 0 {
		return nil
	}
	for {
		old := c.preds.Load()
		var cur []Predicate
		if old != nil {
			cur = *old
		}
		next := make([]Predicate, 0, len(cur)+len(ps))
		next = append(next, cur...)
		next = append(next, ps...)
		if c.preds.CompareAndSwap(old, &next) {
			return nil
		}
	}
}

// Len returns the number of registered predicates.
func (c *Chain) Len() int {
	if p := c.preds.Load(); p != nil {
		return len(*p)
	}
	return 0
}

// Evaluate runs the predicates in order and stops at the first false.
func (c *Chain) Evaluate(err error) bool {
	p := c.preds.Load()
	if p == nil {
		return true
	}
	for _, pred := range *p {
		if !pred(err) {
			return false
		}
	}
	return true
}

// ExcludeMessageContaining rejects errors whose text contains substr.
func ExcludeMessageContaining(substr string) Predicate {
	return func(err error) bool {
		return err == nil || !strings.Contains(err.Error(), substr)
	}
}

// ExcludeCategories rejects errors classified into one of cats. Only the
// category declared by the error itself is considered, not its ancestors.
func ExcludeCategories(cats ...fault.Category) Predicate {
	set := make(map[fault.Category]struct{}, len(cats))
	for _, c := range cats {
		set[c] = struct{}{}
	}
	return func(err error) bool {
		c, ok := fault.CategoryOf(err)
		if !ok {
			return true
		}
		_, excluded := set[c]
		return !excluded
	}
}

// Not inverts p.
func Not(p Predicate) Predicate {
	return func(err error) bool { return !p(err) }
}

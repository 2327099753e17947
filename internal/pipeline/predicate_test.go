package pipeline

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-graceful-response/internal/domain"
	"github.com/tbourn/go-graceful-response/internal/fault"
)

func TestChain_EmptyAcceptsEverything(t *testing.T) {
	var c Chain
	assert.True(t, c.Evaluate(errors.New("x")))
	assert.True(t, c.Evaluate(nil))
	assert.Equal(t, 0, c.Len())
}

func TestChain_AppendRejectsNilAtomically(t *testing.T) {
	c, err := NewChain(func(error) bool { return true })
	require.NoError(t, err)

	err = c.Append(func(error) bool { return false }, nil)
	assert.ErrorIs(t, err, ErrNilPredicate)
	assert.Equal(t, 1, c.Len(), "nothing is added when one predicate is nil")

	_, err = NewChain(nil)
	assert.ErrorIs(t, err, ErrNilPredicate)
}

func TestChain_Helpers(t *testing.T) {
	msg := ExcludeMessageContaining("ignore")
	assert.False(t, msg(errors.New("please ignore")))
	assert.True(t, msg(errors.New("keep")))
	assert.True(t, msg(nil))

	cats := ExcludeCategories(fault.CategoryNotFound)
	assert.False(t, cats(fault.NotFound("item", 1)))
	assert.True(t, cats(fault.Duplicate("name", "x")))
	assert.True(t, cats(errors.New("plain")))

	assert.True(t, Not(cats)(fault.NotFound("item", 1)))
}

// Readers racing with Append must always see a complete prefix of the
// registrations.
func TestChain_ConcurrentAppendAndEvaluate(t *testing.T) {
	c := &Chain{}
	const writers, perWriter = 8, 50

	var wg sync.WaitGroup
	stop := make(chan struct{})
	var readerWG sync.WaitGroup
	for i := 0; i < 4; i++ {
		readerWG.Add(1)
		go func() {
			defer readerWG.Done()
			last := 0
			for {
				select {
				case <-stop:
					return
				default:
				}
				assert.True(t, c.Evaluate(errors.New("x")))
				n := c.Len()
				assert.GreaterOrEqual(t, n, last)
				last = n
			}
		}()
	}

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				assert.NoError(t, c.Append(func(error) bool { return true }))
			}
		}()
	}
	wg.Wait()
	close(stop)
	readerWG.Wait()

	assert.Equal(t, writers*perWriter, c.Len())
}

func TestController_ConcurrentHandle(t *testing.T) {
	ctl, err := New(NewProcessor(nil), NewProjection(0))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%4 == 0 {
				assert.NoError(t, ctl.Predicates().Append(ExcludeMessageContaining("never-matches")))
			}
			res, err := ctl.Handle(context.Background(), errors.New("boom"))
			assert.NoError(t, err)
			assert.Equal(t, UnmappedCode, res.Envelope.Code)
		}(i)
	}
	wg.Wait()
}

func TestProjection_StatusAndHeaders(t *testing.T) {
	p := NewProjection(http.StatusBadRequest)

	status, h := p.Project(domain.Failure("X", "x"), errors.New("plain"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, DefaultContentType, h.Get("Content-Type"))

	env := domain.Failure("RATE", "slow down")
	env.Status = http.StatusTooManyRequests
	rl := fault.RateLimited(1500 * time.Millisecond).WithHeader("Content-Type", "text/plain")
	status, h = p.Project(env, rl)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "2", h.Get("Retry-After"))
	assert.Equal(t, DefaultContentType, h.Get("Content-Type"))

	status, _ = Projection{}.Project(domain.Failure("X", "x"), nil)
	assert.Equal(t, http.StatusInternalServerError, status)
}

func TestHooks_ComposeSkipsNil(t *testing.T) {
	var got []string
	b := Before(nil, func(context.Context, error) { got = append(got, "a") }, nil)
	b.call(context.Background(), nil)
	assert.Equal(t, []string{"a"}, got)

	// An all-nil composition is the no-op hook, not nil.
	require.NotNil(t, Before(nil, nil))
	require.NotNil(t, After())
	After().call(context.Background(), domain.Envelope{}, nil)
}

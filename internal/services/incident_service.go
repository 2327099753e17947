// Package services – IncidentService
//
// This file implements the incident log: a pipeline after-hook that persists
// one row per intercepted error, and the read side used by the incidents API
// (paginated listing and per-code aggregates).
package services

import (
	"context"
	"regexp"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-graceful-response/internal/domain"
	"github.com/tbourn/go-graceful-response/internal/fault"
	"github.com/tbourn/go-graceful-response/internal/pipeline"
	"github.com/tbourn/go-graceful-response/internal/utils"
)

// IncidentRepo defines the repository contract required by IncidentService.
type IncidentRepo interface {
	CreateIncident(ctx context.Context, db *gorm.DB, in *domain.Incident) error
	CountIncidents(ctx context.Context, db *gorm.DB, code string) (int64, error)
	ListIncidentsPage(ctx context.Context, db *gorm.DB, code string, offset, limit int) ([]domain.Incident, error)
	IncidentCountsByCode(ctx context.Context, db *gorm.DB, since *time.Time) ([]domain.CodeCount, error)
}

// IncidentService records and queries incidents.
type IncidentService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the incident repository used by this service.
	Repo IncidentRepo

	// Classify resolves an error's category for the stored row. Defaults to
	// fault.CategoryOf; the composition root passes the processor's
	// alias-aware classifier.
	Classify func(error) (fault.Category, bool)
	// WriteTimeout bounds a single insert made by the recorder hook.
	WriteTimeout time.Duration
	// MaxCauseRunes caps the stored error text.
	MaxCauseRunes int
	// Skip, when set, drops incidents whose category it reports true for.
	Skip func(fault.Category) bool

	mu     sync.RWMutex
	queue  chan *domain.Incident
	closed bool
	done   chan struct{}
}

// NewIncidentService constructs an IncidentService with defaults.
func NewIncidentService(db *gorm.DB, r IncidentRepo) *IncidentService {
	return &IncidentService{
		DB:            db,
		Repo:          r,
		Classify:      fault.CategoryOf,
		WriteTimeout:  2 * time.Second,
		MaxCauseRunes: 1000,
	}
}

// Recorder returns an after-hook that stores failure envelopes. Insert
// errors are logged with the request logger and never reach the caller.
//
// After Async the hook only enqueues; otherwise it writes inline.
func (s *IncidentService) Recorder() pipeline.AfterFunc {
	return func(ctx context.Context, env domain.Envelope, err error) {
		if env.IsSuccess() {
			return
		}
		in := &domain.Incident{
			Code:    env.Code,
			Message: env.Message,
		}
		if meta, ok := domain.RequestMetaFrom(ctx); ok {
			in.RequestID = meta.ID
			in.Method = meta.Method
			in.Path = meta.Path
		}
		if err != nil {
			in.Cause = clipRunes(err.Error(), s.MaxCauseRunes)
			if s.Classify != nil {
				if c, ok := s.Classify(err); ok {
					in.Category = string(c)
				}
			}
		}
		if s.Skip != nil && s.Skip(fault.Category(in.Category)) {
			return
		}

		s.mu.RLock()
		q, closed := s.queue, s.closed
		if q != nil && !closed {
			select {
			case q <- in:
				s.mu.RUnlock()
				return
			default:
			}
		}
		s.mu.RUnlock()
		if q != nil {
			zerolog.Ctx(ctx).Warn().
				Str("code", in.Code).
				Str("request_id", in.RequestID).
				Bool("stopped", closed).
				Msg("incident dropped")
			return
		}

		// The request may already be cancelled (client went away); the
		// incident is still worth keeping.
		s.write(context.WithoutCancel(ctx), zerolog.Ctx(ctx), in)
	}
}

// Async moves inserts made by Recorder onto one background writer fed by a
// queue of size n (at least 1). Incidents arriving while the queue is full
// are dropped and logged. stop flushes what is queued and waits for the
// writer; it is safe to call more than once.
func (s *IncidentService) Async(n int) (stop func()) {
	if n < 1 {
		n = 1
	}
	s.mu.Lock()
	s.queue = make(chan *domain.Incident, n)
	s.closed = false
	s.done = make(chan struct{})
	q, done := s.queue, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		for in := range q {
			s.write(context.Background(), &log.Logger, in)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.closed = true
			close(q)
			s.mu.Unlock()
			<-done
		})
	}
}

func (s *IncidentService) write(ctx context.Context, l *zerolog.Logger, in *domain.Incident) {
	if s.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.WriteTimeout)
		defer cancel()
	}
	if werr := s.Repo.CreateIncident(ctx, s.DB, in); werr != nil {
		l.Warn().
			Err(werr).
			Str("code", in.Code).
			Str("request_id", in.RequestID).
			Msg("incident not recorded")
	}
}

// ListPage returns a page of incidents, newest first. code filters by
// envelope code when non-empty.
func (s *IncidentService) ListPage(ctx context.Context, code string, page, pageSize int) ([]domain.Incident, int64, error) {
	if code != "" && !codeRE.MatchString(code) {
		return nil, 0, ErrBadCode
	}
	_, pageSize, offset := utils.Window(page, pageSize)

	total, err := s.Repo.CountIncidents(ctx, s.DB, code)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Incident{}, 0, nil
	}

	items, err := s.Repo.ListIncidentsPage(ctx, s.DB, code, offset, pageSize)
	return items, total, err
}

// CountsByCode aggregates incidents per code. A non-nil since limits the
// window.
func (s *IncidentService) CountsByCode(ctx context.Context, since *time.Time) ([]domain.CodeCount, error) {
	out, err := s.Repo.IncidentCountsByCode(ctx, s.DB, since)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.CodeCount{}
	}
	return out, nil
}

var codeRE = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

func clipRunes(s string, max int) string {
	if max > 0 && utf8.RuneCountInString(s) > max {
		return string([]rune(s)[:max])
	}
	return s
}

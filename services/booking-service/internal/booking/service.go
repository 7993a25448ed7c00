// Package booking resolves appointment reservations against a shared store.
package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/carefinder/libs/db"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultStoreTimeout       = 5 * time.Second
	DefaultCancellationNotice = 24 * time.Hour
)

type Config struct {
	// Location is the single zone every date and time is interpreted in.
	Location           *time.Location
	StoreTimeout       time.Duration
	CancellationNotice time.Duration
	// Now overrides the wall clock, mainly for tests.
	Now func() time.Time
}

type Service struct {
	store   storage.Store
	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer

	loc          *time.Location
	now          func() time.Time
	storeTimeout time.Duration
	notice       time.Duration
	newID        func() string
}

func NewService(store storage.Store, logger *slog.Logger, metrics *Metrics, cfg Config) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = DefaultStoreTimeout
	}
	if cfg.CancellationNotice <= 0 {
		cfg.CancellationNotice = DefaultCancellationNotice
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if metrics == nil {
		var err error
		if metrics, err = NewMetrics(); err != nil {
			logger.Warn("booking metrics unavailable", "err", err)
			metrics = &Metrics{}
		}
	}
	return &Service{
		store:        store,
		logger:       logger,
		metrics:      metrics,
		tracer:       otel.Tracer("github.com/md-rashed-zaman/carefinder/booking"),
		loc:          cfg.Location,
		now:          cfg.Now,
		storeTimeout: cfg.StoreTimeout,
		notice:       cfg.CancellationNotice,
		newID:        uuid.NewString,
	}
}

// clock returns the current instant in the service zone.
func (s *Service) clock() time.Time { return s.now().In(s.loc) }

func (s *Service) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}

func (s *Service) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperr.KindOf(err)))
	}
	span.End()
}

func count(ctx context.Context, c metric.Int64Counter) {
	if c != nil {
		c.Add(ctx, 1)
	}
}

// storeFailure classifies a storage error that is not a domain outcome.
// Reservation failures cannot be read as a rejection: the write may have
// committed before the deadline fired.
func storeFailure(op string, err error, reservation bool) error {
	msg := op + " failed"
	if reservation {
		msg = op + " outcome unknown; re-check appointment state before retrying"
	}
	if db.IsTimeout(err) || errors.Is(err, context.Canceled) {
		return apperr.Timeout(msg, err)
	}
	return apperr.Unavailable(msg, err)
}

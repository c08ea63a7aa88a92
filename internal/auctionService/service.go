package auction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auction-lifecycle/internal/auctionerrors"
	"auction-lifecycle/internal/events"
	"auction-lifecycle/internal/metrics"
	model "auction-lifecycle/internal/models"
	"auction-lifecycle/internal/repository"
	"auction-lifecycle/utils"
)

const (
	defaultBackendTimeout = 2 * time.Second
	defaultMaxAttempts    = 3
)

// Service owns the auction lifecycle: listing registry, bid ledger, auction
// clock and settlement gate. Every listing mutation is a conditional update on
// the listing version; lost races are retried up to maxAttempts times.
type Service struct {
	repo        repository.AuctionDB
	publisher   events.Publisher
	timeout     time.Duration
	maxAttempts int
	now         func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithBackendTimeout bounds every persistence call
func WithBackendTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMaxAttempts sets how many times a conflicting update is attempted before
// ErrConflict is returned to the caller
func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewAuctionService creates a new Service instance. publisher may be nil.
func NewAuctionService(repo repository.AuctionDB, publisher events.Publisher, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		publisher:   publisher,
		timeout:     defaultBackendTimeout,
		maxAttempts: defaultMaxAttempts,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// call runs one backend operation under the configured timeout. Failures that
// are not part of the store contract are reported as ErrUnavailable.
func (s *Service) call(ctx context.Context, fn func(ctx context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := fn(callCtx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		return err
	case errors.Is(err, auctionerrors.ErrNotFound),
		errors.Is(err, auctionerrors.ErrConflict),
		errors.Is(err, auctionerrors.ErrAlreadySettled),
		errors.Is(err, auctionerrors.ErrInvalidInput):
		return err
	default:
		return fmt.Errorf("%w: %w", auctionerrors.ErrUnavailable, err)
	}
}

// retry re-runs fn while it loses optimistic-update races
func (s *Service) retry(ctx context.Context, operation string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = fn()
		if !errors.Is(err, auctionerrors.ErrConflict) {
			return err
		}
		metrics.ConflictRetries.WithLabelValues(operation).Inc()
		utils.Debug("service: update conflict", map[string]any{
			"operation": operation,
			"attempt":   attempt,
		})
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return fmt.Errorf("service: %s gave up after %d attempts: %w", operation, s.maxAttempts, err)
}

func (s *Service) getListing(ctx context.Context, listingID string) (model.Listing, error) {
	var listing model.Listing
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		listing, err = s.repo.GetListing(ctx, listingID)
		return err
	})
	return listing, err
}

func (s *Service) publish(eventType model.EventType, listing model.Listing, bid *model.Bid) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(model.Event{
		Type:       eventType,
		ListingID:  listing.ListingID,
		Version:    listing.Version,
		Listing:    listing,
		Bid:        bid,
		OccurredAt: s.now(),
	})
}

func requireCaller(caller model.Caller) error {
	if caller.UserID == "" {
		return fmt.Errorf("service: %w - missing caller identity", auctionerrors.ErrUnauthorized)
	}
	return nil
}

func requireRole(caller model.Caller, roles ...model.Role) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	for _, r := range roles {
		if caller.Role == r {
			return nil
		}
	}
	return fmt.Errorf("service: %w - role %q may not perform this action", auctionerrors.ErrForbidden, caller.Role)
}

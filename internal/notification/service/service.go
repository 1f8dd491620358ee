// Package service delivers workflow notifications. Dispatch enqueues onto a
// bounded inbox and returns immediately; a background worker persists the
// entries, shedding load through a circuit breaker when the store is
// unhealthy. Delivery is best effort and never blocks a workflow transition.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"hrportal/internal/notification/models"
	id "hrportal/pkg/domain"
	dErrors "hrportal/pkg/domain-errors"
	"hrportal/pkg/platform/circuit"
	"hrportal/pkg/platform/sentinel"
	"hrportal/pkg/requestcontext"
)

// Store is the persistence seam for notifications.
type Store interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID id.UserID) ([]*models.Notification, error)
	MarkRead(ctx context.Context, notifID id.NotificationID, ownerID id.UserID, now time.Time) (*models.Notification, error)
}

const (
	defaultInboxSize     = 1024
	defaultProbeInterval = 30 * time.Second
)

// Service owns notification delivery and the read-state API.
type Service struct {
	store   Store
	inbox   chan *models.Notification
	breaker *circuit.Breaker
	logger  *slog.Logger

	// touched only by the Run goroutine
	probeInterval time.Duration
	lastProbe     time.Time
}

type Option func(*Service)

// WithInboxSize bounds the delivery queue.
func WithInboxSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.inbox = make(chan *models.Notification, n)
		}
	}
}

// WithBreaker replaces the default store breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(s *Service) { s.breaker = b }
}

func New(store Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:         store,
		inbox:         make(chan *models.Notification, defaultInboxSize),
		breaker:       circuit.New("notification-store", circuit.WithFailureThreshold(5)),
		logger:        logger,
		probeInterval: defaultProbeInterval,
		lastProbe:     time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch queues a notification for delivery. A full inbox drops the
// notification; the caller only logs that.
func (s *Service) Dispatch(ctx context.Context, userID id.UserID, requestID id.RequestID, kind, message string) error {
	ref := requestID
	n, err := models.NewNotification(
		id.NotificationID(uuid.New()), userID, &ref, kind, message, requestcontext.Now(ctx))
	if err != nil {
		return err
	}

	select {
	case s.inbox <- n:
		return nil
	default:
		return dErrors.New(dErrors.CodeUnavailable, "notification inbox is full")
	}
}

// Run consumes the inbox until ctx is cancelled. Store failures are logged
// and counted against the breaker; while the breaker is open, notifications
// are dropped without touching the store.
func (s *Service) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n := <-s.inbox:
			s.deliver(ctx, n)
		}
	}
}

func (s *Service) deliver(ctx context.Context, n *models.Notification) {
	if s.breaker.IsOpen() && !s.allowProbe() {
		s.logger.WarnContext(ctx, "dropping notification, store unavailable",
			"notification_id", n.ID, "user_id", n.UserID)
		return
	}

	if err := s.store.Create(ctx, n); err != nil {
		if _, change := s.breaker.RecordFailure(); change.Opened {
			s.logger.WarnContext(ctx, "notification store breaker opened", "breaker", s.breaker.Name())
		}
		s.logger.ErrorContext(ctx, "failed to persist notification",
			"notification_id", n.ID, "user_id", n.UserID, "error", err)
		return
	}
	if _, change := s.breaker.RecordSuccess(); change.Closed {
		s.logger.InfoContext(ctx, "notification store breaker closed", "breaker", s.breaker.Name())
	}
}

// allowProbe lets one write through per probe interval while the breaker is
// open, so the breaker can observe recovery.
func (s *Service) allowProbe() bool {
	now := time.Now()
	if now.Sub(s.lastProbe) < s.probeInterval {
		return false
	}
	s.lastProbe = now
	return true
}

// List returns the user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID id.UserID) ([]*models.Notification, error) {
	ns, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list notifications")
	}
	if ns == nil {
		ns = []*models.Notification{}
	}
	return ns, nil
}

// MarkRead flips the read flag on one of the user's notifications. Someone
// else's notification reads as absent.
func (s *Service) MarkRead(ctx context.Context, ownerID id.UserID, notifID id.NotificationID) (*models.Notification, error) {
	n, err := s.store.MarkRead(ctx, notifID, ownerID, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "notification not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark notification read")
	}
	return n, nil
}

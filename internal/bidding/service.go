// Package bidding implements the bid lifecycle: creation, invitations,
// vendor submissions, reminders and comparison.
package bidding

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"procurement/internal/apperr"
	"procurement/internal/metrics"
	"procurement/internal/validation"
	"procurement/models"
)

// Store is the persistence the lifecycle needs. Implementations return
// apperr sentinels for missing rows and duplicate submissions.
type Store interface {
	GetUser(ctx context.Context, id int) (*models.User, error)

	CreateVendor(ctx context.Context, v *models.Vendor) error
	GetVendor(ctx context.Context, id int) (*models.Vendor, error)
	GetVendorsByIDs(ctx context.Context, buyerID int, ids []int) ([]models.Vendor, error)
	ListVendors(ctx context.Context, buyerID int, f models.VendorFilter) ([]models.Vendor, error)
	SetVendorMaterialClasses(ctx context.Context, vendorID int, classes []string) error
	ListMaterialClasses(ctx context.Context, buyerID int) ([]string, error)

	CreateBid(ctx context.Context, b *models.Bid, vendorIDs []int) error
	GetBid(ctx context.Context, id int) (*models.Bid, error)
	ListBids(ctx context.Context, buyerID, limit, offset int) ([]models.BidSummary, error)
	ListBidsDueBetween(ctx context.Context, from, to time.Time) ([]models.BidSummary, error)
	UpdateBid(ctx context.Context, b *models.Bid) error
	ExtendDueDate(ctx context.Context, bidID int, due time.Time) error
	MarkReminded(ctx context.Context, bidID int, at time.Time) error
	DeleteBid(ctx context.Context, bidID int) error

	AddInvitations(ctx context.Context, bidID int, vendorIDs []int) ([]int, error)
	RecordSubmission(ctx context.Context, sub *models.Submission) error
}

// Notifier delivers lifecycle emails. A returned error never undoes the
// operation that triggered it.
type Notifier interface {
	BidInvitation(ctx context.Context, bid *models.Bid, buyer *models.User, invitations []models.Invitation) error
	DueDateExtended(ctx context.Context, bid *models.Bid, buyer *models.User, invitations []models.Invitation) error
	Reminder(ctx context.Context, bid *models.Bid, buyer *models.User, invitations []models.Invitation) error
	SubmissionReceived(ctx context.Context, bid *models.Bid, buyer *models.User, inv models.Invitation, sub *models.Submission) error
}

const (
	defaultReminderWindow   = 48 * time.Hour
	defaultReminderInterval = 24 * time.Hour
)

type Service struct {
	store     Store
	notifier  Notifier
	validator validation.Validator
	policy    validation.Policy
	now       func() time.Time
	log       *zap.Logger

	reminderWindow   time.Duration
	reminderInterval time.Duration
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithReminders sets how close to the due date the sweep reminds vendors and
// how long it waits before reminding the same bid again.
func WithReminders(window, minInterval time.Duration) Option {
	return func(s *Service) {
		if window > 0 {
			s.reminderWindow = window
		}
		if minInterval > 0 {
			s.reminderInterval = minInterval
		}
	}
}

func NewService(store Store, notifier Notifier, validator validation.Validator, policy validation.Policy, opts ...Option) *Service {
	s := &Service{
		store:            store,
		notifier:         notifier,
		validator:        validator,
		policy:           policy,
		now:              time.Now,
		log:              zap.NewNop(),
		reminderWindow:   defaultReminderWindow,
		reminderInterval: defaultReminderInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func requireBuyer(actor models.Identity) error {
	if !actor.IsBuyer() {
		return apperr.ErrUnauthorized.WithMessage("Only buyers can manage bids")
	}
	return nil
}

// ownedBid loads a bid and checks that actor created it.
func (s *Service) ownedBid(ctx context.Context, actor models.Identity, bidID int) (*models.Bid, error) {
	if err := requireBuyer(actor); err != nil {
		return nil, err
	}
	bid, err := s.store.GetBid(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if bid.BuyerID != actor.UserID {
		return nil, apperr.ErrUnauthorized
	}
	return bid, nil
}

// checkContent resolves a validator outcome under the configured policy.
func (s *Service) checkContent(res validation.Result, err error, prefix string) error {
	res, err = s.runPolicy(res, err)
	if err != nil {
		return err
	}
	if !res.IsValid {
		return apperr.Validation(prefix + res.Message)
	}
	return nil
}

// notify logs delivery failures; they never fail the calling operation.
func (s *Service) notify(kind string, bidID int, err error) {
	if err == nil {
		metrics.Notifications.WithLabelValues(kind, "sent").Inc()
		return
	}
	metrics.Notifications.WithLabelValues(kind, "failed").Inc()
	s.log.Warn("notification failed",
		zap.String("kind", kind),
		zap.Int("bid_id", bidID),
		zap.Bool("delivery", errors.Is(err, apperr.ErrDeliveryFailed)),
		zap.Error(err),
	)
}

// buyerOf loads the bid owner for email context. A lookup failure leaves the
// emails without buyer details.
func (s *Service) buyerOf(ctx context.Context, bid *models.Bid) *models.User {
	buyer, err := s.store.GetUser(ctx, bid.BuyerID)
	if err != nil {
		s.log.Warn("buyer lookup failed", zap.Int("bid_id", bid.ID), zap.Error(err))
		return &models.User{ID: bid.BuyerID}
	}
	return buyer
}

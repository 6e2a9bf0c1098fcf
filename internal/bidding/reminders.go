package bidding

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"procurement/internal/apperr"
	"procurement/internal/metrics"
	"procurement/models"
)

// ReminderResult reports how many vendors a reminder went to.
type ReminderResult struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// SendReminders emails every vendor that has not responded yet and records
// the reminder time on the bid.
func (s *Service) SendReminders(ctx context.Context, actor models.Identity, bidID int) (*ReminderResult, error) {
	bid, err := s.ownedBid(ctx, actor, bidID)
	if err != nil {
		return nil, err
	}
	if bid.IsExpired(s.now()) {
		return nil, apperr.ErrBidExpired.WithMessage("Cannot send reminders for expired bids")
	}
	pending := bid.PendingInvitations()
	if len(pending) == 0 {
		return nil, apperr.Validation("All vendors have already responded")
	}
	if err := s.remind(ctx, bid, pending); err != nil {
		return nil, err
	}
	return &ReminderResult{
		Message: fmt.Sprintf("Reminders sent to %d vendors", len(pending)),
		Count:   len(pending),
	}, nil
}

func (s *Service) MarkReminded(ctx context.Context, actor models.Identity, bidID int) error {
	if _, err := s.ownedBid(ctx, actor, bidID); err != nil {
		return err
	}
	return s.store.MarkReminded(ctx, bidID, s.now())
}

func (s *Service) remind(ctx context.Context, bid *models.Bid, pending []models.Invitation) error {
	s.notify("reminder", bid.ID, s.notifier.Reminder(ctx, bid, s.buyerOf(ctx, bid), pending))
	if err := s.store.MarkReminded(ctx, bid.ID, s.now()); err != nil {
		return err
	}
	s.log.Info("reminders sent", zap.Int("bid_id", bid.ID), zap.Int("vendors", len(pending)))
	return nil
}

// SweepReminders reminds pending vendors of active bids due within the
// reminder window, skipping bids reminded less than the minimum interval ago.
// It returns the number of bids reminded.
func (s *Service) SweepReminders(ctx context.Context) (int, error) {
	now := s.now()
	due, err := s.store.ListBidsDueBetween(ctx, now, now.Add(s.reminderWindow))
	if err != nil {
		return 0, err
	}

	var (
		errs     error
		reminded int
	)
	for _, summary := range due {
		if summary.RespondedCount >= summary.InvitedCount {
			continue
		}
		if last := summary.LastReminderSent; last != nil && now.Sub(*last) < s.reminderInterval {
			continue
		}
		if err := ctx.Err(); err != nil {
			return reminded, multierr.Append(errs, err)
		}

		bid, err := s.store.GetBid(ctx, summary.ID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("bid %d: %w", summary.ID, err))
			continue
		}
		pending := bid.PendingInvitations()
		if len(pending) == 0 {
			continue
		}
		if err := s.remind(ctx, bid, pending); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("bid %d: %w", summary.ID, err))
			continue
		}
		reminded++
		metrics.RemindersSent.Inc()
	}
	return reminded, errs
}

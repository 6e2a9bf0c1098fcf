package bidding

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"procurement/internal/apperr"
	"procurement/internal/metrics"
	"procurement/internal/validation"
	"procurement/models"
)

// SubmissionInput is a vendor's priced response to one bid.
type SubmissionInput struct {
	Items  []models.ItemResponse  `json:"items"`
	Header *models.HeaderResponse `json:"headerResponse,omitempty"`
}

// SubmitResponse records the vendor's one and only response to the bid and
// notifies the buyer.
func (s *Service) SubmitResponse(ctx context.Context, bidID, vendorID int, in SubmissionInput) (*models.Submission, error) {
	sub, err := s.submit(ctx, bidID, vendorID, in)
	if err != nil {
		metrics.Submissions.WithLabelValues("rejected").Inc()
		return nil, err
	}
	metrics.Submissions.WithLabelValues("accepted").Inc()
	return sub, nil
}

func (s *Service) submit(ctx context.Context, bidID, vendorID int, in SubmissionInput) (*models.Submission, error) {
	bid, err := s.store.GetBid(ctx, bidID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.ErrNotInvited
	}
	if err != nil {
		return nil, err
	}
	inv, ok := bid.Invitation(vendorID)
	if !ok {
		return nil, apperr.ErrNotInvited
	}
	now := s.now()
	if bid.IsExpired(now) {
		return nil, apperr.ErrBidExpired.WithMessage("This bid has expired and is no longer accepting responses")
	}
	if inv.HasResponded {
		return nil, apperr.ErrAlreadyResponded
	}
	if len(in.Items) == 0 {
		return nil, apperr.Validation("Invalid submission data")
	}

	header := in.Header
	if header.IsEmpty() {
		header = nil
	}
	sub := &models.Submission{
		BidID:       bidID,
		VendorID:    vendorID,
		SubmittedAt: now,
		Items:       in.Items,
		Header:      header,
	}
	if res := validation.CheckSubmission(sub); !res.IsValid {
		return nil, apperr.Validation(res.Message)
	}
	seen := make(map[int]bool, len(sub.Items))
	for _, item := range sub.Items {
		if !bid.HasItem(item.ItemID) {
			return nil, apperr.Validationf("Item %d does not belong to this bid", item.ItemID)
		}
		if seen[item.ItemID] {
			return nil, apperr.Validationf("Item %d is priced more than once", item.ItemID)
		}
		seen[item.ItemID] = true
	}

	res, verr := s.validator.ValidateSubmission(ctx, sub)
	if err := s.checkContent(res, verr, "Validation error: "); err != nil {
		return nil, err
	}

	if err := s.store.RecordSubmission(ctx, sub); err != nil {
		return nil, err
	}
	inv.HasResponded = true
	inv.RespondedAt = &sub.SubmittedAt
	inv.Submission = sub
	s.log.Info("submission recorded",
		zap.Int("bid_id", bidID),
		zap.Int("vendor_id", vendorID),
		zap.Int("items", len(sub.Items)),
	)

	s.notify("submission", bidID, s.notifier.SubmissionReceived(ctx, bid, s.buyerOf(ctx, bid), *inv, sub))
	return sub, nil
}

// ValidateItems runs the configured validator over items without storing anything.
func (s *Service) ValidateItems(ctx context.Context, items []models.BidItem) (validation.Result, error) {
	if res := validation.CheckItems(items); !res.IsValid {
		return res, nil
	}
	return s.runPolicy(s.validator.ValidateItems(ctx, items))
}

// ValidateSubmission runs the configured validator over a submission without storing it.
func (s *Service) ValidateSubmission(ctx context.Context, sub *models.Submission) (validation.Result, error) {
	if res := validation.CheckSubmission(sub); !res.IsValid {
		return res, nil
	}
	return s.runPolicy(s.validator.ValidateSubmission(ctx, sub))
}

func (s *Service) runPolicy(res validation.Result, err error) (validation.Result, error) {
	if err != nil {
		s.log.Warn("validator failed", zap.String("policy", string(s.policy)), zap.Error(err))
		metrics.ValidatorErrors.WithLabelValues(string(s.policy)).Inc()
	}
	res, err = s.policy.Apply(res, err)
	if err != nil {
		return validation.Result{}, apperr.ErrValidationFailed.WithMessage("Validation is currently unavailable").WithInternal(err)
	}
	return res, nil
}

package bidding

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"procurement/internal/apperr"
	"procurement/internal/comparison"
	"procurement/internal/metrics"
	"procurement/internal/validation"
	"procurement/models"
)

const (
	defaultPageLimit = 5
	maxPageLimit     = 50
)

// CreateBidInput is a buyer's request to open a bid.
type CreateBidInput struct {
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	DueDate      time.Time            `json:"dueDate"`
	Requirements *models.Requirements `json:"requirements,omitempty"`
	Items        []models.BidItem     `json:"items"`
	VendorIDs    []int                `json:"vendorIds"`
}

func (s *Service) CreateBid(ctx context.Context, actor models.Identity, in CreateBidInput) (*models.Bid, error) {
	if err := requireBuyer(actor); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || strings.TrimSpace(in.Description) == "" || in.DueDate.IsZero() {
		return nil, apperr.Validation("Title, description, and due date are required")
	}
	if len(in.Items) == 0 {
		return nil, apperr.Validation("Bid must contain at least one item")
	}
	vendorIDs := uniqueIDs(in.VendorIDs)
	if len(vendorIDs) == 0 {
		return nil, apperr.Validation("At least one vendor must be invited")
	}
	if res := validation.CheckItems(in.Items); !res.IsValid {
		return nil, apperr.Validation(res.Message)
	}
	if in.Requirements != nil {
		if err := validation.Struct(in.Requirements); err != nil {
			return nil, apperr.Validation(err.Error())
		}
	}

	vendors, err := s.store.GetVendorsByIDs(ctx, actor.UserID, vendorIDs)
	if err != nil {
		return nil, err
	}
	if len(vendors) != len(vendorIDs) {
		return nil, apperr.NotFound("vendor")
	}

	res, verr := s.validator.ValidateItems(ctx, in.Items)
	if err := s.checkContent(res, verr, "AI validation failed: "); err != nil {
		return nil, err
	}

	bid := &models.Bid{
		BuyerID:      actor.UserID,
		Title:        in.Title,
		Description:  in.Description,
		DueDate:      in.DueDate,
		Requirements: in.Requirements,
		Items:        in.Items,
	}
	if err := s.store.CreateBid(ctx, bid, vendorIDs); err != nil {
		return nil, err
	}
	metrics.BidsCreated.Inc()

	bid.Invitations = make([]models.Invitation, 0, len(vendors))
	for _, v := range vendors {
		bid.Invitations = append(bid.Invitations, models.Invitation{
			BidID:       bid.ID,
			VendorID:    v.ID,
			CompanyName: v.CompanyName,
			Email:       v.Email,
		})
	}
	s.log.Info("bid created", zap.Int("bid_id", bid.ID), zap.Int("items", len(bid.Items)), zap.Int("vendors", len(vendors)))

	s.notify("invitation", bid.ID, s.notifier.BidInvitation(ctx, bid, s.buyerOf(ctx, bid), bid.Invitations))
	return bid, nil
}

func (s *Service) GetBid(ctx context.Context, actor models.Identity, bidID int) (*models.Bid, error) {
	return s.ownedBid(ctx, actor, bidID)
}

// ListBids pages through the buyer's bids, newest first.
func (s *Service) ListBids(ctx context.Context, actor models.Identity, limit, offset int) ([]models.BidSummary, error) {
	if err := requireBuyer(actor); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	bids, err := s.store.ListBids(ctx, actor.UserID, limit, offset)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range bids {
		bids[i].Status = statusAt(bids[i].DueDate, now)
	}
	return bids, nil
}

// VendorBid is what an invited vendor sees: the bid without other vendors' data.
type VendorBid struct {
	Bid        *models.Bid        `json:"bid"`
	Invitation models.Invitation  `json:"invitation"`
	Status     models.BidStatus   `json:"status"`
	Submission *models.Submission `json:"submission,omitempty"`
}

func (s *Service) GetBidForVendor(ctx context.Context, bidID, vendorID int) (*VendorBid, error) {
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
	own := *inv
	own.Submission = nil

	view := *bid
	view.Invitations = nil
	return &VendorBid{
		Bid:        &view,
		Invitation: own,
		Status:     bid.Status(s.now()),
		Submission: inv.Submission,
	}, nil
}

func (s *Service) ExtendDueDate(ctx context.Context, actor models.Identity, bidID int, due time.Time) (*models.Bid, error) {
	bid, err := s.ownedBid(ctx, actor, bidID)
	if err != nil {
		return nil, err
	}
	if !due.After(s.now()) {
		return nil, apperr.Validation("New due date must be in the future")
	}
	if err := s.store.ExtendDueDate(ctx, bidID, due); err != nil {
		return nil, err
	}
	bid.DueDate = due
	s.log.Info("due date extended", zap.Int("bid_id", bidID), zap.Time("due_date", due))

	s.notify("extension", bidID, s.notifier.DueDateExtended(ctx, bid, s.buyerOf(ctx, bid), bid.Invitations))
	return bid, nil
}

// UpdateBidInput changes a bid's descriptive fields. Nil fields are left as
// they are. Items are immutable and the due date moves only through ExtendDueDate.
type UpdateBidInput struct {
	Title        *string              `json:"title"`
	Description  *string              `json:"description"`
	Requirements *models.Requirements `json:"requirements"`
}

func (s *Service) UpdateBid(ctx context.Context, actor models.Identity, bidID int, in UpdateBidInput) (*models.Bid, error) {
	bid, err := s.ownedBid(ctx, actor, bidID)
	if err != nil {
		return nil, err
	}
	if in.Title == nil && in.Description == nil && in.Requirements == nil {
		return nil, apperr.Validation("Nothing to update")
	}
	if in.Title != nil {
		bid.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		bid.Description = strings.TrimSpace(*in.Description)
	}
	if bid.Title == "" || bid.Description == "" {
		return nil, apperr.Validation("Title and description cannot be empty")
	}
	if in.Requirements != nil {
		if err := validation.Struct(in.Requirements); err != nil {
			return nil, apperr.Validation(err.Error())
		}
		bid.Requirements = in.Requirements
	}

	if err := s.store.UpdateBid(ctx, bid); err != nil {
		return nil, err
	}
	s.log.Info("bid updated", zap.Int("bid_id", bidID))
	return bid, nil
}

// AddVendors invites more vendors. Vendors already invited are skipped and
// only the newly added ones are emailed.
func (s *Service) AddVendors(ctx context.Context, actor models.Identity, bidID int, vendorIDs []int) (*models.Bid, error) {
	bid, err := s.ownedBid(ctx, actor, bidID)
	if err != nil {
		return nil, err
	}
	if bid.IsExpired(s.now()) {
		return nil, apperr.ErrBidExpired.WithMessage("Cannot add vendors to an expired bid")
	}
	vendorIDs = uniqueIDs(vendorIDs)
	if len(vendorIDs) == 0 {
		return nil, apperr.Validation("At least one vendor must be selected")
	}
	vendors, err := s.store.GetVendorsByIDs(ctx, actor.UserID, vendorIDs)
	if err != nil {
		return nil, err
	}
	if len(vendors) != len(vendorIDs) {
		return nil, apperr.NotFound("vendor")
	}

	added, err := s.store.AddInvitations(ctx, bidID, vendorIDs)
	if err != nil {
		return nil, err
	}
	if len(added) == 0 {
		return bid, nil
	}

	isNew := make(map[int]bool, len(added))
	for _, id := range added {
		isNew[id] = true
	}
	var fresh []models.Invitation
	for _, v := range vendors {
		if !isNew[v.ID] {
			continue
		}
		inv := models.Invitation{BidID: bidID, VendorID: v.ID, CompanyName: v.CompanyName, Email: v.Email}
		fresh = append(fresh, inv)
		bid.Invitations = append(bid.Invitations, inv)
	}
	s.log.Info("vendors added", zap.Int("bid_id", bidID), zap.Ints("vendor_ids", added))

	s.notify("invitation", bidID, s.notifier.BidInvitation(ctx, bid, s.buyerOf(ctx, bid), fresh))
	return bid, nil
}

// BidVendors lists the vendors invited to a bid and the buyer's other vendors
// matching the bid requirements.
type BidVendors struct {
	Invited    []models.Invitation `json:"invited"`
	Candidates []models.Vendor     `json:"candidates"`
}

func (s *Service) ListBidVendors(ctx context.Context, actor models.Identity, bidID int) (*BidVendors, error) {
	bid, err := s.ownedBid(ctx, actor, bidID)
	if err != nil {
		return nil, err
	}
	var filter models.VendorFilter
	if r := bid.Requirements; r != nil {
		filter = models.VendorFilter{Tier: r.Tier, MaterialClass: r.MaterialClass, Location: r.Location}
	}
	vendors, err := s.store.ListVendors(ctx, actor.UserID, filter)
	if err != nil {
		return nil, err
	}
	out := &BidVendors{Invited: bid.Invitations, Candidates: []models.Vendor{}}
	for i := range out.Invited {
		out.Invited[i].Submission = nil
	}
	for _, v := range vendors {
		if _, invited := bid.Invitation(v.ID); !invited {
			out.Candidates = append(out.Candidates, v)
		}
	}
	return out, nil
}

func (s *Service) DeleteBid(ctx context.Context, actor models.Identity, bidID int) error {
	if _, err := s.ownedBid(ctx, actor, bidID); err != nil {
		return err
	}
	if err := s.store.DeleteBid(ctx, bidID); err != nil {
		return err
	}
	s.log.Info("bid deleted", zap.Int("bid_id", bidID))
	return nil
}

// Compare builds the response comparison table for the bid owner.
func (s *Service) Compare(ctx context.Context, actor models.Identity, bidID int, opts comparison.Options) (*comparison.Table, error) {
	bid, err := s.ownedBid(ctx, actor, bidID)
	if err != nil {
		return nil, err
	}
	table := comparison.Build(bid, opts)
	return &table, nil
}

func statusAt(due, now time.Time) models.BidStatus {
	if !due.After(now) {
		return models.BidExpired
	}
	return models.BidActive
}

func uniqueIDs(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

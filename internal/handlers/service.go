package handlers

import (
	"context"
	"time"

	"procurement/internal/auth"
	"procurement/internal/bidding"
	"procurement/internal/comparison"
	"procurement/internal/validation"
	"procurement/models"
)

// BidService is the lifecycle surface the handlers call.
type BidService interface {
	CreateBid(ctx context.Context, actor models.Identity, in bidding.CreateBidInput) (*models.Bid, error)
	GetBid(ctx context.Context, actor models.Identity, bidID int) (*models.Bid, error)
	ListBids(ctx context.Context, actor models.Identity, limit, offset int) ([]models.BidSummary, error)
	UpdateBid(ctx context.Context, actor models.Identity, bidID int, in bidding.UpdateBidInput) (*models.Bid, error)
	ExtendDueDate(ctx context.Context, actor models.Identity, bidID int, due time.Time) (*models.Bid, error)
	AddVendors(ctx context.Context, actor models.Identity, bidID int, vendorIDs []int) (*models.Bid, error)
	ListBidVendors(ctx context.Context, actor models.Identity, bidID int) (*bidding.BidVendors, error)
	DeleteBid(ctx context.Context, actor models.Identity, bidID int) error
	SendReminders(ctx context.Context, actor models.Identity, bidID int) (*bidding.ReminderResult, error)
	Compare(ctx context.Context, actor models.Identity, bidID int, opts comparison.Options) (*comparison.Table, error)

	GetBidForVendor(ctx context.Context, bidID, vendorID int) (*bidding.VendorBid, error)
	SubmitResponse(ctx context.Context, bidID, vendorID int, in bidding.SubmissionInput) (*models.Submission, error)

	CreateVendor(ctx context.Context, actor models.Identity, v models.Vendor) (*models.Vendor, error)
	ListVendors(ctx context.Context, actor models.Identity, filter models.VendorFilter) ([]models.Vendor, error)
	SetMaterialClasses(ctx context.Context, actor models.Identity, vendorID int, classes []string) (*models.Vendor, error)
	VendorMaterialClasses(ctx context.Context, actor models.Identity, vendorID int) ([]string, error)
	ListMaterialClasses(ctx context.Context, actor models.Identity) ([]string, error)

	ValidateItems(ctx context.Context, items []models.BidItem) (validation.Result, error)
	ValidateSubmission(ctx context.Context, sub *models.Submission) (validation.Result, error)
}

type AuthService interface {
	Register(ctx context.Context, in auth.RegisterInput) (*auth.Session, error)
	Login(ctx context.Context, in auth.LoginInput) (*auth.Session, error)
}

// VendorLinks verifies the token carried by a vendor submission link.
type VendorLinks interface {
	ParseVendorToken(token string, bidID int) (int, error)
}

package bidding

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"procurement/internal/apperr"
	"procurement/internal/validation"
	"procurement/models"
)

func (s *Service) CreateVendor(ctx context.Context, actor models.Identity, v models.Vendor) (*models.Vendor, error) {
	if err := requireBuyer(actor); err != nil {
		return nil, err
	}
	v.ID = 0
	v.BuyerID = actor.UserID
	v.Email = strings.ToLower(strings.TrimSpace(v.Email))
	v.CompanyName = strings.TrimSpace(v.CompanyName)
	v.MaterialClasses = cleanClasses(v.MaterialClasses)
	if err := validation.Struct(v); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if err := s.store.CreateVendor(ctx, &v); err != nil {
		return nil, err
	}
	s.log.Info("vendor created", zap.Int("vendor_id", v.ID), zap.Int("buyer_id", actor.UserID))
	return &v, nil
}

func (s *Service) ListVendors(ctx context.Context, actor models.Identity, filter models.VendorFilter) ([]models.Vendor, error) {
	if err := requireBuyer(actor); err != nil {
		return nil, err
	}
	return s.store.ListVendors(ctx, actor.UserID, filter)
}

// SetMaterialClasses replaces the vendor's material class tags.
func (s *Service) SetMaterialClasses(ctx context.Context, actor models.Identity, vendorID int, classes []string) (*models.Vendor, error) {
	v, err := s.ownedVendor(ctx, actor, vendorID)
	if err != nil {
		return nil, err
	}
	classes = cleanClasses(classes)
	if err := s.store.SetVendorMaterialClasses(ctx, vendorID, classes); err != nil {
		return nil, err
	}
	v.MaterialClasses = classes
	return v, nil
}

// VendorMaterialClasses returns the tags of one of the buyer's vendors.
func (s *Service) VendorMaterialClasses(ctx context.Context, actor models.Identity, vendorID int) ([]string, error) {
	v, err := s.ownedVendor(ctx, actor, vendorID)
	if err != nil {
		return nil, err
	}
	return v.MaterialClasses, nil
}

// ListMaterialClasses is the catalog of distinct tags across the buyer's vendors.
func (s *Service) ListMaterialClasses(ctx context.Context, actor models.Identity) ([]string, error) {
	if err := requireBuyer(actor); err != nil {
		return nil, err
	}
	return s.store.ListMaterialClasses(ctx, actor.UserID)
}

func (s *Service) ownedVendor(ctx context.Context, actor models.Identity, vendorID int) (*models.Vendor, error) {
	if err := requireBuyer(actor); err != nil {
		return nil, err
	}
	v, err := s.store.GetVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if v.BuyerID != actor.UserID {
		return nil, apperr.ErrUnauthorized
	}
	return v, nil
}

func cleanClasses(classes []string) []string {
	seen := make(map[string]bool, len(classes))
	out := make([]string, 0, len(classes))
	for _, c := range classes {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

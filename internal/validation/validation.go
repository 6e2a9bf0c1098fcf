// Package validation checks bid items and vendor submissions before they are stored.
package validation

import (
	"context"
	"errors"
	"fmt"

	"procurement/models"
)

// Result is the verdict of a validator. Message is set when IsValid is false.
type Result struct {
	IsValid bool   `json:"isValid"`
	Message string `json:"message,omitempty"`
}

func Valid() Result { return Result{IsValid: true} }

func Invalid(msg string) Result { return Result{Message: msg} }

// Validator inspects content for quality problems. An error means the
// validator itself failed and says nothing about the content.
type Validator interface {
	ValidateItems(ctx context.Context, items []models.BidItem) (Result, error)
	ValidateSubmission(ctx context.Context, sub *models.Submission) (Result, error)
}

// Policy decides what a validator failure means for the caller.
type Policy string

const (
	PolicyAllow  Policy = "allow"
	PolicyReject Policy = "reject"
)

var ErrValidatorUnavailable = errors.New("validator unavailable")

func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyAllow, PolicyReject:
		return Policy(s), nil
	case "":
		return PolicyAllow, nil
	}
	return "", fmt.Errorf("unknown validator error policy %q", s)
}

// Apply resolves a validator outcome. Under PolicyAllow a failed validator
// counts as valid; under PolicyReject the failure is returned.
func (p Policy) Apply(res Result, err error) (Result, error) {
	if err == nil {
		return res, nil
	}
	if p == PolicyReject {
		return Result{}, fmt.Errorf("%w: %w", ErrValidatorUnavailable, err)
	}
	return Valid(), nil
}

// Chain runs validators in order and stops at the first invalid result or error.
type Chain []Validator

func (c Chain) ValidateItems(ctx context.Context, items []models.BidItem) (Result, error) {
	for _, v := range c {
		res, err := v.ValidateItems(ctx, items)
		if err != nil || !res.IsValid {
			return res, err
		}
	}
	return Valid(), nil
}

func (c Chain) ValidateSubmission(ctx context.Context, sub *models.Submission) (Result, error) {
	for _, v := range c {
		res, err := v.ValidateSubmission(ctx, sub)
		if err != nil || !res.IsValid {
			return res, err
		}
	}
	return Valid(), nil
}

// CheckItems enforces the required fields of every item.
func CheckItems(items []models.BidItem) Result {
	if len(items) == 0 {
		return Invalid("At least one item is required")
	}
	for _, item := range items {
		var fe FieldErrors
		if !errors.As(Struct(item), &fe) {
			continue
		}
		switch {
		case fe.Has("materialCode"):
			return Invalid("Material code is required for all items")
		case fe.Has("description"):
			return Invalid("Description is required for all items")
		case fe.Has("quantity"):
			return Invalid("Quantity must be a positive number for all items")
		case fe.Has("uom"):
			return Invalid("Unit of measure is required for all items")
		default:
			return Invalid(fe.Error())
		}
	}
	return Valid()
}

// CheckSubmission enforces the required fields of a submission.
func CheckSubmission(sub *models.Submission) Result {
	if sub == nil || sub.VendorID == 0 {
		return Invalid("Vendor ID is required")
	}
	if len(sub.Items) == 0 && sub.Header.IsEmpty() {
		return Invalid("Submission must include either item responses or header-level information")
	}
	for _, item := range sub.Items {
		var fe FieldErrors
		if !errors.As(Struct(item), &fe) {
			continue
		}
		switch {
		case fe.Has("itemId"):
			return Invalid("Item ID is required for all items")
		case fe.Has("price"):
			return Invalid("Valid price is required for all items")
		case fe.Has("leadTime"):
			return Invalid("Valid lead time is required for all items")
		default:
			return Invalid(fe.Error())
		}
	}
	return Valid()
}

package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"procurement/models"
)

var (
	suspiciousTerms = []string{"test", "dummy", "sample", "xxx", "fake"}

	minPlausiblePrice = decimal.RequireFromString("0.01")
	maxPlausiblePrice = decimal.NewFromInt(1_000_000)
)

const (
	minDescriptionLen = 5
	maxPlausibleQty   = 10_000
	maxLeadTimeDays   = 365
)

// Heuristic flags implausible content with fixed thresholds. It never returns an error.
type Heuristic struct{}

func (Heuristic) ValidateItems(_ context.Context, items []models.BidItem) (Result, error) {
	if res := CheckItems(items); !res.IsValid {
		return res, nil
	}

	flagged := 0
	for _, item := range items {
		if suspiciousItem(item) {
			flagged++
		}
	}
	if flagged > 0 {
		return Invalid(fmt.Sprintf(
			"Potential issues detected in %d items. Please review the material codes and descriptions for accuracy.", flagged)), nil
	}
	return Valid(), nil
}

func (Heuristic) ValidateSubmission(_ context.Context, sub *models.Submission) (Result, error) {
	if res := CheckSubmission(sub); !res.IsValid {
		return res, nil
	}

	flagged := 0
	for _, item := range sub.Items {
		if suspiciousResponse(item) {
			flagged++
		}
	}
	if flagged > 0 {
		return Invalid(fmt.Sprintf(
			"Potential issues detected in %d items. Please review the prices and lead times for accuracy.", flagged)), nil
	}
	return Valid(), nil
}

func suspiciousItem(item models.BidItem) bool {
	description := strings.ToLower(item.Description)
	if len([]rune(description)) < minDescriptionLen {
		return true
	}
	for _, term := range suspiciousTerms {
		if strings.Contains(description, term) {
			return true
		}
	}
	return item.Quantity > maxPlausibleQty
}

func suspiciousResponse(item models.ItemResponse) bool {
	if item.Price.LessThanOrEqual(minPlausiblePrice) || item.Price.GreaterThan(maxPlausiblePrice) {
		return true
	}
	return item.LeadTime <= 0 || item.LeadTime > maxLeadTimeDays
}

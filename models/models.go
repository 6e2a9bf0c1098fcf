package models

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Role of an authenticated user.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleVendor Role = "vendor"
)

// User is an account holder, created at registration.
type User struct {
	ID           int       `db:"id" json:"id"`
	UUID         uuid.UUID `db:"uuid" json:"uuid"`
	Name         string    `db:"name" json:"name" validate:"required,max=255"`
	Email        string    `db:"email" json:"email" validate:"required,email,max=255"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         Role      `db:"role" json:"role" validate:"required,oneof=buyer vendor"`
	CompanyName  string    `db:"company_name" json:"companyName" validate:"max=255"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// Identity is what the session layer knows about the caller.
type Identity struct {
	UserID      int    `json:"userId"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
	CompanyName string `json:"companyName"`
}

// IsBuyer reports whether the identity may own bids.
func (i Identity) IsBuyer() bool {
	return i.UserID > 0 && i.Role == RoleBuyer
}

// Vendor is a supplier record owned by one buyer.
type Vendor struct {
	ID              int       `db:"id" json:"id"`
	UUID            uuid.UUID `db:"uuid" json:"uuid"`
	BuyerID         int       `db:"buyer_id" json:"buyerId"`
	CompanyName     string    `db:"company_name" json:"companyName" validate:"required,max=255"`
	Email           string    `db:"email" json:"email" validate:"required,email,max=255"`
	ContactName     string    `db:"contact_name" json:"contactName,omitempty" validate:"max=255"`
	Phone           string    `db:"phone" json:"phone,omitempty" validate:"max=50"`
	Tier            string    `db:"tier" json:"tier" validate:"max=50"`
	Location        string    `db:"location" json:"location,omitempty" validate:"max=255"`
	MaterialClasses []string  `db:"-" json:"materialClasses"`
}

// HasMaterialClass reports whether the vendor is tagged with class.
func (v Vendor) HasMaterialClass(class string) bool {
	for _, c := range v.MaterialClasses {
		if c == class {
			return true
		}
	}
	return false
}

// VendorFilter narrows the vendor directory. Empty or "all" fields match everything.
// Tier matches exactly; location and material class match as case-insensitive
// substrings. Search looks at company name, email and contact name.
type VendorFilter struct {
	Tier          string `json:"tier"`
	MaterialClass string `json:"materialClass"`
	Location      string `json:"location"`
	Search        string `json:"q"`
}

// Matches applies the filter to a single vendor.
func (f VendorFilter) Matches(v Vendor) bool {
	if filterActive(f.Tier) && f.Tier != v.Tier {
		return false
	}
	if filterActive(f.Location) && !containsFold(v.Location, f.Location) {
		return false
	}
	if filterActive(f.MaterialClass) && !slices.ContainsFunc(v.MaterialClasses, func(c string) bool {
		return containsFold(c, f.MaterialClass)
	}) {
		return false
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		return containsFold(v.CompanyName, q) || containsFold(v.Email, q) || containsFold(v.ContactName, q)
	}
	return true
}

func filterActive(v string) bool {
	return v != "" && v != "all"
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// Requirements describe which vendors a bid targets. They drive vendor
// discovery only and are not enforced on submissions.
type Requirements struct {
	Tier          string `db:"tier" json:"tier" validate:"max=50"`
	MaterialClass string `db:"material_class" json:"materialClass" validate:"max=255"`
	Location      string `db:"location" json:"location" validate:"max=255"`
	MinBidAmount  int    `db:"min_bid_amount" json:"minBidAmount" validate:"gte=0"`
}

// BidItem is one requested line. Items are immutable once the bid exists.
type BidItem struct {
	ID           int       `db:"id" json:"id"`
	UUID         uuid.UUID `db:"uuid" json:"uuid"`
	BidID        int       `db:"bid_id" json:"bidId"`
	MaterialCode string    `db:"material_code" json:"materialCode" validate:"required,max=100"`
	Description  string    `db:"description" json:"description" validate:"required"`
	Quantity     int       `db:"quantity" json:"quantity" validate:"gt=0"`
	UOM          string    `db:"uom" json:"uom" validate:"required,max=50"`
	Packaging    string    `db:"packaging" json:"packaging,omitempty" validate:"max=100"`
	Remarks      string    `db:"remarks" json:"remarks,omitempty"`
}

// Invitation links a vendor to a bid. It moves from pending to responded once.
type Invitation struct {
	BidID        int         `db:"bid_id" json:"bidId"`
	VendorID     int         `db:"vendor_id" json:"vendorId"`
	CompanyName  string      `db:"company_name" json:"companyName"`
	Email        string      `db:"email" json:"email"`
	HasResponded bool        `db:"has_responded" json:"hasResponded"`
	RespondedAt  *time.Time  `db:"responded_at" json:"respondedAt,omitempty"`
	Submission   *Submission `db:"-" json:"response,omitempty"`
}

// ItemResponse is a vendor's price for one bid item.
type ItemResponse struct {
	ItemID       int             `db:"item_id" json:"itemId" validate:"required"`
	Price        decimal.Decimal `db:"price" json:"price" validate:"gt=0"`
	LeadTime     int             `db:"lead_time" json:"leadTime" validate:"gte=0"`
	Incoterm     string          `db:"incoterm" json:"incoterm" validate:"max=100"`
	PaymentTerms string          `db:"payment_terms" json:"paymentTerms" validate:"max=100"`
}

// HeaderResponse holds terms that apply to every item unless an item overrides them.
type HeaderResponse struct {
	Incoterm        string `json:"incoterm" validate:"max=100"`
	PaymentTerms    string `json:"paymentTerms" validate:"max=100"`
	AdditionalNotes string `json:"additionalNotes,omitempty"`
}

// IsEmpty reports whether no header field was supplied.
func (h *HeaderResponse) IsEmpty() bool {
	return h == nil || (h.Incoterm == "" && h.PaymentTerms == "" && h.AdditionalNotes == "")
}

// Submission is a vendor's priced response. There is at most one per (bid, vendor).
type Submission struct {
	ID          int             `json:"id"`
	UUID        uuid.UUID       `json:"uuid"`
	BidID       int             `json:"bidId"`
	VendorID    int             `json:"vendorId"`
	SubmittedAt time.Time       `json:"submittedAt"`
	Items       []ItemResponse  `json:"items" validate:"dive"`
	Header      *HeaderResponse `json:"headerResponse,omitempty"`
}

// Bid is a buyer's procurement request.
type Bid struct {
	ID               int           `db:"id" json:"id"`
	UUID             uuid.UUID     `db:"uuid" json:"uuid"`
	BuyerID          int           `db:"buyer_id" json:"buyerId"`
	Title            string        `db:"title" json:"title" validate:"required,max=255"`
	Description      string        `db:"description" json:"description"`
	CreatedAt        time.Time     `db:"created_at" json:"createdAt"`
	DueDate          time.Time     `db:"due_date" json:"dueDate" validate:"required"`
	LastReminderSent *time.Time    `db:"last_reminder_sent" json:"lastReminderSent,omitempty"`
	Requirements     *Requirements `db:"-" json:"requirements,omitempty"`
	Items            []BidItem     `db:"-" json:"items"`
	Invitations      []Invitation  `db:"-" json:"invitedVendors"`
}

// BidStatus is derived from the due date and never stored.
type BidStatus string

const (
	BidActive  BidStatus = "active"
	BidExpired BidStatus = "expired"
)

// Status computes the bid state at now.
func (b *Bid) Status(now time.Time) BidStatus {
	if b.IsExpired(now) {
		return BidExpired
	}
	return BidActive
}

// IsExpired reports whether the due date is at or before now.
func (b *Bid) IsExpired(now time.Time) bool {
	return !b.DueDate.After(now)
}

// HasItem reports whether itemID belongs to this bid.
func (b *Bid) HasItem(itemID int) bool {
	for _, it := range b.Items {
		if it.ID == itemID {
			return true
		}
	}
	return false
}

// Invitation returns the invitation for vendorID, if any.
func (b *Bid) Invitation(vendorID int) (*Invitation, bool) {
	for i := range b.Invitations {
		if b.Invitations[i].VendorID == vendorID {
			return &b.Invitations[i], true
		}
	}
	return nil, false
}

// PendingInvitations returns invitations without a response.
func (b *Bid) PendingInvitations() []Invitation {
	var pending []Invitation
	for _, inv := range b.Invitations {
		if !inv.HasResponded {
			pending = append(pending, inv)
		}
	}
	return pending
}

// BidSummary is a list row for a buyer's bids.
type BidSummary struct {
	ID               int        `db:"id" json:"id"`
	UUID             uuid.UUID  `db:"uuid" json:"uuid"`
	Title            string     `db:"title" json:"title"`
	Description      string     `db:"description" json:"description"`
	CreatedAt        time.Time  `db:"created_at" json:"createdAt"`
	DueDate          time.Time  `db:"due_date" json:"dueDate"`
	LastReminderSent *time.Time `db:"last_reminder_sent" json:"lastReminderSent,omitempty"`
	ItemCount        int        `db:"item_count" json:"itemCount"`
	InvitedCount     int        `db:"invited_count" json:"invitedCount"`
	RespondedCount   int        `db:"responded_count" json:"respondedCount"`
	Status           BidStatus  `db:"-" json:"status"`
}

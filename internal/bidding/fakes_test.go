package bidding

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"procurement/internal/apperr"
	"procurement/internal/validation"
	"procurement/models"
)

// memStore keeps bids and vendors in memory with the same error contract as db.Storage.
type memStore struct {
	mu       sync.Mutex
	users    map[int]*models.User
	vendors  map[int]*models.Vendor
	bids     map[int]*models.Bid
	nextID   int
	reminded map[int]time.Time
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[int]*models.User{},
		vendors:  map[int]*models.Vendor{},
		bids:     map[int]*models.Bid{},
		reminded: map[int]time.Time{},
		nextID:   100,
	}
}

func (m *memStore) id() int {
	m.nextID++
	return m.nextID
}

func (m *memStore) GetUser(_ context.Context, id int) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.NotFound("user")
	}
	cpy := *u
	return &cpy, nil
}

func (m *memStore) CreateVendor(_ context.Context, v *models.Vendor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v.ID = m.id()
	cpy := *v
	m.vendors[v.ID] = &cpy
	return nil
}

func (m *memStore) GetVendor(_ context.Context, id int) (*models.Vendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vendors[id]
	if !ok {
		return nil, apperr.NotFound("vendor")
	}
	cpy := *v
	return &cpy, nil
}

func (m *memStore) GetVendorsByIDs(_ context.Context, buyerID int, ids []int) ([]models.Vendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Vendor
	for _, id := range ids {
		if v, ok := m.vendors[id]; ok && v.BuyerID == buyerID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (m *memStore) ListVendors(_ context.Context, buyerID int, f models.VendorFilter) ([]models.Vendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Vendor{}
	for _, v := range m.vendors {
		if v.BuyerID == buyerID && f.Matches(*v) {
			out = append(out, *v)
		}
	}
	slices.SortFunc(out, func(a, b models.Vendor) int { return a.ID - b.ID })
	return out, nil
}

func (m *memStore) SetVendorMaterialClasses(_ context.Context, vendorID int, classes []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vendors[vendorID]
	if !ok {
		return apperr.NotFound("vendor")
	}
	v.MaterialClasses = slices.Clone(classes)
	return nil
}

func (m *memStore) ListMaterialClasses(_ context.Context, buyerID int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	classes := []string{}
	for _, v := range m.vendors {
		if v.BuyerID != buyerID {
			continue
		}
		for _, c := range v.MaterialClasses {
			if !slices.Contains(classes, c) {
				classes = append(classes, c)
			}
		}
	}
	slices.Sort(classes)
	return classes, nil
}

func (m *memStore) CreateBid(_ context.Context, b *models.Bid, vendorIDs []int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = m.id()
	for i := range b.Items {
		b.Items[i].ID = m.id()
		b.Items[i].BidID = b.ID
	}
	stored := *b
	stored.Items = slices.Clone(b.Items)
	stored.Invitations = nil
	for _, id := range vendorIDs {
		v := m.vendors[id]
		stored.Invitations = append(stored.Invitations, models.Invitation{
			BidID: b.ID, VendorID: id, CompanyName: v.CompanyName, Email: v.Email,
		})
	}
	m.bids[b.ID] = &stored
	return nil
}

func (m *memStore) GetBid(_ context.Context, id int) (*models.Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bids[id]
	if !ok {
		return nil, apperr.NotFound("bid")
	}
	cpy := *b
	cpy.Items = slices.Clone(b.Items)
	cpy.Invitations = slices.Clone(b.Invitations)
	return &cpy, nil
}

func (m *memStore) ListBids(_ context.Context, buyerID, limit, offset int) ([]models.BidSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []models.BidSummary
	for _, b := range m.bids {
		if b.BuyerID == buyerID {
			all = append(all, summarize(b))
		}
	}
	slices.SortFunc(all, func(a, b models.BidSummary) int { return b.ID - a.ID })
	if offset >= len(all) {
		return []models.BidSummary{}, nil
	}
	return all[offset:min(len(all), offset+limit)], nil
}

func (m *memStore) ListBidsDueBetween(_ context.Context, from, to time.Time) ([]models.BidSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.BidSummary
	for _, b := range m.bids {
		if b.DueDate.After(from) && !b.DueDate.After(to) {
			out = append(out, summarize(b))
		}
	}
	slices.SortFunc(out, func(a, b models.BidSummary) int { return a.DueDate.Compare(b.DueDate) })
	return out, nil
}

func summarize(b *models.Bid) models.BidSummary {
	s := models.BidSummary{
		ID:               b.ID,
		Title:            b.Title,
		DueDate:          b.DueDate,
		LastReminderSent: b.LastReminderSent,
		ItemCount:        len(b.Items),
		InvitedCount:     len(b.Invitations),
	}
	for _, inv := range b.Invitations {
		if inv.HasResponded {
			s.RespondedCount++
		}
	}
	return s
}

func (m *memStore) UpdateBid(_ context.Context, upd *models.Bid) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bids[upd.ID]
	if !ok {
		return apperr.NotFound("bid")
	}
	b.Title = upd.Title
	b.Description = upd.Description
	if upd.Requirements != nil {
		req := *upd.Requirements
		b.Requirements = &req
	}
	return nil
}

func (m *memStore) ExtendDueDate(_ context.Context, bidID int, due time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bids[bidID]
	if !ok {
		return apperr.NotFound("bid")
	}
	b.DueDate = due
	return nil
}

func (m *memStore) MarkReminded(_ context.Context, bidID int, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bids[bidID]
	if !ok {
		return apperr.NotFound("bid")
	}
	b.LastReminderSent = &at
	m.reminded[bidID] = at
	return nil
}

func (m *memStore) DeleteBid(_ context.Context, bidID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bids[bidID]; !ok {
		return apperr.NotFound("bid")
	}
	delete(m.bids, bidID)
	return nil
}

func (m *memStore) AddInvitations(_ context.Context, bidID int, vendorIDs []int) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bids[bidID]
	if !ok {
		return nil, apperr.NotFound("bid")
	}
	added := []int{}
	for _, id := range vendorIDs {
		if _, exists := b.Invitation(id); exists {
			continue
		}
		v := m.vendors[id]
		b.Invitations = append(b.Invitations, models.Invitation{
			BidID: bidID, VendorID: id, CompanyName: v.CompanyName, Email: v.Email,
		})
		added = append(added, id)
	}
	return added, nil
}

func (m *memStore) RecordSubmission(_ context.Context, sub *models.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bids[sub.BidID]
	if !ok {
		return apperr.ErrNotInvited
	}
	inv, ok := b.Invitation(sub.VendorID)
	if !ok {
		return apperr.ErrNotInvited
	}
	if inv.HasResponded {
		return apperr.ErrAlreadyResponded
	}
	sub.ID = m.id()
	at := sub.SubmittedAt
	inv.HasResponded = true
	inv.RespondedAt = &at
	stored := *sub
	inv.Submission = &stored
	return nil
}

type notification struct {
	kind    string
	bidID   int
	vendors []int
}

// recordingNotifier captures calls and optionally fails them.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
	err  error
}

func (r *recordingNotifier) record(kind string, bid *models.Bid, invs []models.Invitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := notification{kind: kind, bidID: bid.ID}
	for _, inv := range invs {
		n.vendors = append(n.vendors, inv.VendorID)
	}
	r.sent = append(r.sent, n)
	return r.err
}

func (r *recordingNotifier) BidInvitation(_ context.Context, bid *models.Bid, _ *models.User, invs []models.Invitation) error {
	return r.record("invitation", bid, invs)
}

func (r *recordingNotifier) DueDateExtended(_ context.Context, bid *models.Bid, _ *models.User, invs []models.Invitation) error {
	return r.record("extension", bid, invs)
}

func (r *recordingNotifier) Reminder(_ context.Context, bid *models.Bid, _ *models.User, invs []models.Invitation) error {
	return r.record("reminder", bid, invs)
}

func (r *recordingNotifier) SubmissionReceived(_ context.Context, bid *models.Bid, _ *models.User, inv models.Invitation, _ *models.Submission) error {
	return r.record("submission", bid, []models.Invitation{inv})
}

func (r *recordingNotifier) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, n := range r.sent {
		out = append(out, n.kind)
	}
	return out
}

// stubValidator returns a fixed verdict or error.
type stubValidator struct {
	res validation.Result
	err error
}

func (s stubValidator) ValidateItems(context.Context, []models.BidItem) (validation.Result, error) {
	return s.res, s.err
}

func (s stubValidator) ValidateSubmission(context.Context, *models.Submission) (validation.Result, error) {
	return s.res, s.err
}

var errValidatorDown = errors.New("validator down")

package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"procurement/internal/apperr"
	"procurement/models"
)

func newMockStorage(t *testing.T) (*Storage, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		conn.Close()
	})
	return NewStorage(sqlx.NewDb(conn, "postgres")), mock
}

var due = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func TestCreateBidSingleTransaction(t *testing.T) {
	s, mock := newMockStorage(t)
	created := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO bids`).
		WithArgs(sqlmock.AnyArg(), 7, "Copper", "", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(11, created))
	mock.ExpectExec(`INSERT INTO bid_requirements`).
		WithArgs(11, "gold", "metals", "EU", 0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`INSERT INTO bid_items`).
		WithArgs(sqlmock.AnyArg(), 11, "RM-1", "Copper wire", 100, "kg", "", "").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(21))
	mock.ExpectQuery(`INSERT INTO vendor_invitations`).
		WithArgs(11, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"vendor_id"}).AddRow(1).AddRow(2))
	mock.ExpectCommit()

	bid := &models.Bid{
		BuyerID:      7,
		Title:        "Copper",
		DueDate:      due,
		Requirements: &models.Requirements{Tier: "gold", MaterialClass: "metals", Location: "EU"},
		Items:        []models.BidItem{{MaterialCode: "RM-1", Description: "Copper wire", Quantity: 100, UOM: "kg"}},
	}
	require.NoError(t, s.CreateBid(context.Background(), bid, []int{1, 2}))
	require.Equal(t, 11, bid.ID)
	require.Equal(t, created, bid.CreatedAt)
	require.Equal(t, 21, bid.Items[0].ID)
	require.Equal(t, 11, bid.Items[0].BidID)
}

func TestCreateBidRollsBackOnChildFailure(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO bids`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(11, time.Now()))
	mock.ExpectQuery(`INSERT INTO bid_items`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	bid := &models.Bid{BuyerID: 7, Title: "Copper", DueDate: due,
		Items: []models.BidItem{{MaterialCode: "RM-1", Description: "Copper wire", Quantity: 1, UOM: "kg"}}}
	require.ErrorContains(t, s.CreateBid(context.Background(), bid, []int{1}), "disk full")
}

func TestAddInvitationsReturnsOnlyNewVendors(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`ON CONFLICT \(bid_id, vendor_id\) DO NOTHING`).
		WithArgs(4, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"vendor_id"}).AddRow(3))
	mock.ExpectCommit()

	added, err := s.AddInvitations(context.Background(), 4, []int{1, 3})
	require.NoError(t, err)
	require.Equal(t, []int{3}, added)
}

func TestRecordSubmission(t *testing.T) {
	sub := func() *models.Submission {
		return &models.Submission{
			BidID: 4, VendorID: 9, SubmittedAt: due,
			Items: []models.ItemResponse{{ItemID: 21, Price: decimal.RequireFromString("10.50"), LeadTime: 5}},
		}
	}

	t.Run("stores submission", func(t *testing.T) {
		s, mock := newMockStorage(t)
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE vendor_invitations`).
			WithArgs(sqlmock.AnyArg(), 4, 9).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`INSERT INTO vendor_submissions`).
			WithArgs(sqlmock.AnyArg(), 4, 9, sqlmock.AnyArg(), "", "", "").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(31))
		mock.ExpectExec(`INSERT INTO vendor_item_responses`).
			WithArgs(31, 21, sqlmock.AnyArg(), 5, "", "").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		in := sub()
		require.NoError(t, s.RecordSubmission(context.Background(), in))
		require.Equal(t, 31, in.ID)
	})

	t.Run("second submission rejected", func(t *testing.T) {
		s, mock := newMockStorage(t)
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE vendor_invitations`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT EXISTS`).WithArgs(4, 9).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectRollback()

		require.ErrorIs(t, s.RecordSubmission(context.Background(), sub()), apperr.ErrAlreadyResponded)
	})

	t.Run("not invited", func(t *testing.T) {
		s, mock := newMockStorage(t)
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE vendor_invitations`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT EXISTS`).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectRollback()

		require.ErrorIs(t, s.RecordSubmission(context.Background(), sub()), apperr.ErrNotInvited)
	})

	t.Run("unique violation maps to already responded", func(t *testing.T) {
		s, mock := newMockStorage(t)
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE vendor_invitations`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`INSERT INTO vendor_submissions`).WillReturnError(&pq.Error{Code: "23505"})
		mock.ExpectRollback()

		require.ErrorIs(t, s.RecordSubmission(context.Background(), sub()), apperr.ErrAlreadyResponded)
	})
}

func TestDeleteBidRemovesChildrenFirst(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectBegin()
	for _, table := range []string{"vendor_item_responses", "vendor_submissions", "vendor_invitations", "bid_items", "bid_requirements"} {
		mock.ExpectExec(`DELETE FROM ` + table).WithArgs(4).WillReturnResult(sqlmock.NewResult(0, 2))
	}
	mock.ExpectExec(`DELETE FROM bids`).WithArgs(4).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.DeleteBid(context.Background(), 4))
}

func TestDeleteBidMissing(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectBegin()
	for i := 0; i < 5; i++ {
		mock.ExpectExec(`DELETE FROM`).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec(`DELETE FROM bids`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	require.ErrorIs(t, s.DeleteBid(context.Background(), 4), apperr.ErrNotFound)
}

func TestGetBidNotFound(t *testing.T) {
	s, mock := newMockStorage(t)
	mock.ExpectQuery(`FROM bids WHERE id = \$1`).WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.GetBid(context.Background(), 99)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGetBidAssemblesSubmissions(t *testing.T) {
	s, mock := newMockStorage(t)
	responded := due.Add(-time.Hour)

	mock.ExpectQuery(`FROM bids WHERE id = \$1`).WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"id", "uuid", "buyer_id", "title", "description", "created_at", "due_date", "last_reminder_sent"}).
			AddRow(4, "8a4e1f56-9f0e-4a43-b1b6-1f2a3c4d5e6f", 7, "Copper", "", due.Add(-48*time.Hour), due, nil))
	mock.ExpectQuery(`FROM bid_requirements`).WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"tier"}))
	mock.ExpectQuery(`FROM bid_items`).WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"id", "uuid", "bid_id", "material_code", "description", "quantity", "uom", "packaging", "remarks"}).
			AddRow(21, "1b7e3a1c-0d4f-4b8e-9a2c-3d4e5f6a7b8c", 4, "I1", "Copper wire", 100, "kg", "", "").
			AddRow(22, "2c8f4b2d-1e5a-4c9f-8b3d-4e5f6a7b8c9d", 4, "I2", "Steel bolts", 200, "pcs", "", ""))
	mock.ExpectQuery(`FROM vendor_invitations vi`).WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"bid_id", "vendor_id", "company_name", "email", "has_responded", "responded_at"}).
			AddRow(4, 1, "V1", "v1@vendors.test", true, responded).
			AddRow(4, 2, "V2", "v2@vendors.test", false, nil))
	mock.ExpectQuery(`FROM vendor_submissions WHERE bid_id`).WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"id", "uuid", "bid_id", "vendor_id", "submitted_at", "header_incoterm", "header_payment_terms", "additional_notes"}).
			AddRow(31, "3d9a5c3e-2f6b-4d0a-9c4e-5f6a7b8c9d0e", 4, 1, responded, "FOB", "", ""))
	mock.ExpectQuery(`FROM vendor_item_responses r`).WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"submission_id", "item_id", "price", "lead_time", "incoterm", "payment_terms"}).
			AddRow(31, 21, "10.50", 5, "", ""))

	bid, err := s.GetBid(context.Background(), 4)
	require.NoError(t, err)
	require.Nil(t, bid.Requirements)
	require.Len(t, bid.Items, 2)
	require.Len(t, bid.Invitations, 2)

	v1 := bid.Invitations[0]
	require.NotNil(t, v1.Submission)
	require.Equal(t, "FOB", v1.Submission.Header.Incoterm)
	require.Len(t, v1.Submission.Items, 1)
	require.True(t, decimal.RequireFromString("10.5").Equal(v1.Submission.Items[0].Price))
	require.Nil(t, bid.Invitations[1].Submission)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s, mock := newMockStorage(t)
	mock.ExpectQuery(`INSERT INTO users`).WillReturnError(&pq.Error{Code: "23505"})

	err := s.CreateUser(context.Background(), &models.User{Email: "a@b.test", Role: models.RoleBuyer})
	require.ErrorIs(t, err, apperr.ErrValidationFailed)
}

func TestListVendorsFilters(t *testing.T) {
	s, mock := newMockStorage(t)
	mock.ExpectQuery(`v.buyer_id = \$1 AND v.tier = \$2 AND EXISTS .*material_class ILIKE '%' \|\| \$3 \|\| '%'`).
		WithArgs(7, "gold", "metals").
		WillReturnRows(sqlmock.NewRows([]string{"id", "uuid", "buyer_id", "company_name", "email", "contact_name", "phone", "tier", "location", "material_classes"}).
			AddRow(1, "4e0b6d4f-3a7c-4e1b-8d5f-6a7b8c9d0e1f", 7, "Alpha", "a@v.test", "", "", "gold", "EU", "{metals,plastics}"))

	vendors, err := s.ListVendors(context.Background(), 7, models.VendorFilter{Tier: "gold", MaterialClass: "metals", Location: "all"})
	require.NoError(t, err)
	require.Len(t, vendors, 1)
	require.Equal(t, []string{"metals", "plastics"}, vendors[0].MaterialClasses)
	require.True(t, vendors[0].HasMaterialClass("metals"))
}

func TestListVendorsPartialMatchAndSearch(t *testing.T) {
	s, mock := newMockStorage(t)
	mock.ExpectQuery(`v.location ILIKE '%' \|\| \$2 \|\| '%' AND EXISTS .*x.material_class ILIKE '%' \|\| \$3 \|\| '%'.*` +
		`\(v.company_name ILIKE '%' \|\| \$4 \|\| '%' OR v.email ILIKE .*\$4.* OR v.contact_name ILIKE .*\$4`).
		WithArgs(7, "berlin", "steel", `50\%`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "uuid", "buyer_id", "company_name", "email", "contact_name", "phone", "tier", "location", "material_classes"}).
			AddRow(3, "4e0b6d4f-3a7c-4e1b-8d5f-6a7b8c9d0e1f", 7, "50% Steel GmbH", "s@v.test", "", "", "", "Berlin, DE", `{"Steel Pipes"}`))

	vendors, err := s.ListVendors(context.Background(), 7, models.VendorFilter{
		Location: "berlin", MaterialClass: "steel", Search: " 50% ",
	})
	require.NoError(t, err)
	require.Len(t, vendors, 1)
	require.Equal(t, []string{"Steel Pipes"}, vendors[0].MaterialClasses)
}

func TestUpdateBidUpsertsRequirements(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE bids SET title = \$1, description = \$2 WHERE id = \$3`).
		WithArgs("Copper cable", "Phase 2", 11).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO bid_requirements .* ON CONFLICT \(bid_id\) DO UPDATE`).
		WithArgs(11, "", "copper", "EU", 500).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	bid := &models.Bid{ID: 11, Title: "Copper cable", Description: "Phase 2",
		Requirements: &models.Requirements{MaterialClass: "copper", Location: "EU", MinBidAmount: 500}}
	require.NoError(t, s.UpdateBid(context.Background(), bid))
}

func TestUpdateBidMissing(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE bids SET title`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := s.UpdateBid(context.Background(), &models.Bid{ID: 99, Title: "x", Description: "y"})
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListMaterialClasses(t *testing.T) {
	s, mock := newMockStorage(t)
	mock.ExpectQuery(`SELECT DISTINCT mc.material_class .* WHERE v.buyer_id = \$1`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"material_class"}).AddRow("Copper").AddRow("Steel Pipes"))

	classes, err := s.ListMaterialClasses(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, []string{"Copper", "Steel Pipes"}, classes)
}

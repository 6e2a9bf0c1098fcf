package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"procurement/internal/apperr"
	"procurement/models"
)

// CreateBid writes the bid, its requirements, items and invitations in one transaction.
func (s *Storage) CreateBid(ctx context.Context, b *models.Bid, vendorIDs []int) error {
	b.UUID = uuid.New()
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
            INSERT INTO bids (uuid, buyer_id, title, description, due_date)
            VALUES ($1, $2, $3, $4, $5)
            RETURNING id, created_at`
		if err := tx.QueryRowContext(ctx, query,
			b.UUID, b.BuyerID, b.Title, b.Description, b.DueDate).
			Scan(&b.ID, &b.CreatedAt); err != nil {
			return err
		}

		if b.Requirements != nil {
			r := b.Requirements
			if _, err := tx.ExecContext(ctx, `
                INSERT INTO bid_requirements (bid_id, tier, material_class, location, min_bid_amount)
                VALUES ($1, $2, $3, $4, $5)`,
				b.ID, r.Tier, r.MaterialClass, r.Location, r.MinBidAmount); err != nil {
				return err
			}
		}

		for i := range b.Items {
			it := &b.Items[i]
			it.UUID = uuid.New()
			it.BidID = b.ID
			if err := tx.QueryRowContext(ctx, `
                INSERT INTO bid_items (uuid, bid_id, material_code, description, quantity, uom, packaging, remarks)
                VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
                RETURNING id`,
				it.UUID, it.BidID, it.MaterialCode, it.Description, it.Quantity, it.UOM, it.Packaging, it.Remarks).
				Scan(&it.ID); err != nil {
				return err
			}
		}

		if _, err := insertInvitations(ctx, tx, b.ID, vendorIDs); err != nil {
			return err
		}
		return nil
	})
}

// AddInvitations returns the vendor ids that were not already invited.
func (s *Storage) AddInvitations(ctx context.Context, bidID int, vendorIDs []int) ([]int, error) {
	var added []int
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		added, err = insertInvitations(ctx, tx, bidID, vendorIDs)
		return err
	})
	return added, err
}

func insertInvitations(ctx context.Context, tx *sqlx.Tx, bidID int, vendorIDs []int) ([]int, error) {
	if len(vendorIDs) == 0 {
		return nil, nil
	}
	query := `
        INSERT INTO vendor_invitations (bid_id, vendor_id)
        SELECT $1, unnest($2::int[])
        ON CONFLICT (bid_id, vendor_id) DO NOTHING
        RETURNING vendor_id`
	added := []int{}
	if err := tx.SelectContext(ctx, &added, query, bidID, pq.Array(vendorIDs)); err != nil {
		return nil, err
	}
	return added, nil
}

type submissionRow struct {
	ID              int       `db:"id"`
	UUID            uuid.UUID `db:"uuid"`
	BidID           int       `db:"bid_id"`
	VendorID        int       `db:"vendor_id"`
	SubmittedAt     time.Time `db:"submitted_at"`
	Incoterm        string    `db:"header_incoterm"`
	PaymentTerms    string    `db:"header_payment_terms"`
	AdditionalNotes string    `db:"additional_notes"`
}

type itemResponseRow struct {
	SubmissionID int `db:"submission_id"`
	models.ItemResponse
}

// GetBid loads the bid with requirements, items, invitations and submissions.
func (s *Storage) GetBid(ctx context.Context, id int) (*models.Bid, error) {
	b := &models.Bid{}
	err := s.db.GetContext(ctx, b, `
        SELECT id, uuid, buyer_id, title, description, created_at, due_date, last_reminder_sent
        FROM bids WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err, "bid")
	}

	req := &models.Requirements{}
	err = s.db.GetContext(ctx, req, `
        SELECT tier, material_class, location, min_bid_amount
        FROM bid_requirements WHERE bid_id = $1`, id)
	switch {
	case err == nil:
		b.Requirements = req
	case !errors.Is(err, sql.ErrNoRows):
		return nil, err
	}

	b.Items = []models.BidItem{}
	if err := s.db.SelectContext(ctx, &b.Items, `
        SELECT id, uuid, bid_id, material_code, description, quantity, uom, packaging, remarks
        FROM bid_items WHERE bid_id = $1 ORDER BY id`, id); err != nil {
		return nil, err
	}

	b.Invitations = []models.Invitation{}
	if err := s.db.SelectContext(ctx, &b.Invitations, `
        SELECT vi.bid_id, vi.vendor_id, v.company_name, v.email, vi.has_responded, vi.responded_at
        FROM vendor_invitations vi
        JOIN vendors v ON v.id = vi.vendor_id
        WHERE vi.bid_id = $1
        ORDER BY vi.id`, id); err != nil {
		return nil, err
	}

	var subs []submissionRow
	if err := s.db.SelectContext(ctx, &subs, `
        SELECT id, uuid, bid_id, vendor_id, submitted_at, header_incoterm, header_payment_terms, additional_notes
        FROM vendor_submissions WHERE bid_id = $1`, id); err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return b, nil
	}

	var responses []itemResponseRow
	if err := s.db.SelectContext(ctx, &responses, `
        SELECT r.submission_id, r.item_id, r.price, r.lead_time, r.incoterm, r.payment_terms
        FROM vendor_item_responses r
        JOIN vendor_submissions s ON s.id = r.submission_id
        WHERE s.bid_id = $1
        ORDER BY r.id`, id); err != nil {
		return nil, err
	}

	bySubmission := make(map[int]*models.Submission, len(subs))
	byVendor := make(map[int]*models.Submission, len(subs))
	for _, row := range subs {
		sub := &models.Submission{
			ID:          row.ID,
			UUID:        row.UUID,
			BidID:       row.BidID,
			VendorID:    row.VendorID,
			SubmittedAt: row.SubmittedAt,
			Items:       []models.ItemResponse{},
		}
		header := &models.HeaderResponse{
			Incoterm:        row.Incoterm,
			PaymentTerms:    row.PaymentTerms,
			AdditionalNotes: row.AdditionalNotes,
		}
		if !header.IsEmpty() {
			sub.Header = header
		}
		bySubmission[row.ID] = sub
		byVendor[row.VendorID] = sub
	}
	for _, r := range responses {
		if sub, ok := bySubmission[r.SubmissionID]; ok {
			sub.Items = append(sub.Items, r.ItemResponse)
		}
	}
	for i := range b.Invitations {
		b.Invitations[i].Submission = byVendor[b.Invitations[i].VendorID]
	}
	return b, nil
}

const summarySelect = `
        SELECT b.id, b.uuid, b.title, b.description, b.created_at, b.due_date, b.last_reminder_sent,
               (SELECT COUNT(1) FROM bid_items i WHERE i.bid_id = b.id) AS item_count,
               (SELECT COUNT(1) FROM vendor_invitations vi WHERE vi.bid_id = b.id) AS invited_count,
               (SELECT COUNT(1) FROM vendor_invitations vi WHERE vi.bid_id = b.id AND vi.has_responded) AS responded_count
        FROM bids b`

func (s *Storage) ListBids(ctx context.Context, buyerID, limit, offset int) ([]models.BidSummary, error) {
	bids := []models.BidSummary{}
	err := s.db.SelectContext(ctx, &bids, summarySelect+`
        WHERE b.buyer_id = $1
        ORDER BY b.created_at DESC
        LIMIT $2 OFFSET $3`, buyerID, limit, offset)
	return bids, err
}

// ListBidsDueBetween returns bids whose due date falls in (from, to].
func (s *Storage) ListBidsDueBetween(ctx context.Context, from, to time.Time) ([]models.BidSummary, error) {
	bids := []models.BidSummary{}
	err := s.db.SelectContext(ctx, &bids, summarySelect+`
        WHERE b.due_date > $1 AND b.due_date <= $2
        ORDER BY b.due_date ASC`, from, to)
	return bids, err
}

// UpdateBid writes title, description and requirements in one transaction.
// Requirements are upserted when set and left alone otherwise.
func (s *Storage) UpdateBid(ctx context.Context, b *models.Bid) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE bids SET title = $1, description = $2 WHERE id = $3`,
			b.Title, b.Description, b.ID)
		if err := requireRow(res, err, "bid"); err != nil {
			return err
		}
		if b.Requirements == nil {
			return nil
		}
		r := b.Requirements
		_, err = tx.ExecContext(ctx, `
            INSERT INTO bid_requirements (bid_id, tier, material_class, location, min_bid_amount)
            VALUES ($1, $2, $3, $4, $5)
            ON CONFLICT (bid_id) DO UPDATE
            SET tier = EXCLUDED.tier, material_class = EXCLUDED.material_class,
                location = EXCLUDED.location, min_bid_amount = EXCLUDED.min_bid_amount`,
			b.ID, r.Tier, r.MaterialClass, r.Location, r.MinBidAmount)
		return err
	})
}

func (s *Storage) ExtendDueDate(ctx context.Context, bidID int, due time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE bids SET due_date = $1 WHERE id = $2`, due, bidID)
	return requireRow(res, err, "bid")
}

func (s *Storage) MarkReminded(ctx context.Context, bidID int, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE bids SET last_reminder_sent = $1 WHERE id = $2`, at, bidID)
	return requireRow(res, err, "bid")
}

// DeleteBid removes the bid and every child row, leaves first.
func (s *Storage) DeleteBid(ctx context.Context, bidID int) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		steps := []string{
			`DELETE FROM vendor_item_responses WHERE submission_id IN (SELECT id FROM vendor_submissions WHERE bid_id = $1)`,
			`DELETE FROM vendor_submissions WHERE bid_id = $1`,
			`DELETE FROM vendor_invitations WHERE bid_id = $1`,
			`DELETE FROM bid_items WHERE bid_id = $1`,
			`DELETE FROM bid_requirements WHERE bid_id = $1`,
		}
		for _, q := range steps {
			if _, err := tx.ExecContext(ctx, q, bidID); err != nil {
				return err
			}
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM bids WHERE id = $1`, bidID)
		return requireRow(res, err, "bid")
	})
}

func requireRow(res sql.Result, err error, what string) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound(what)
	}
	return nil
}

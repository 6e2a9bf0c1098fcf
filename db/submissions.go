package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"procurement/internal/apperr"
	"procurement/models"
)

// RecordSubmission flips the invitation to responded and stores the submission.
// A pair that was never invited yields ErrNotInvited; a second submission yields
// ErrAlreadyResponded and leaves the first one untouched.
func (s *Storage) RecordSubmission(ctx context.Context, sub *models.Submission) error {
	sub.UUID = uuid.New()
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
            UPDATE vendor_invitations
            SET has_responded = true, responded_at = $1
            WHERE bid_id = $2 AND vendor_id = $3 AND NOT has_responded`,
			sub.SubmittedAt, sub.BidID, sub.VendorID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			var invited bool
			if err := tx.GetContext(ctx, &invited, `
                SELECT EXISTS (SELECT 1 FROM vendor_invitations WHERE bid_id = $1 AND vendor_id = $2)`,
				sub.BidID, sub.VendorID); err != nil {
				return err
			}
			if invited {
				return apperr.ErrAlreadyResponded
			}
			return apperr.ErrNotInvited
		}

		header := sub.Header
		if header == nil {
			header = &models.HeaderResponse{}
		}
		err = tx.QueryRowContext(ctx, `
            INSERT INTO vendor_submissions
                (uuid, bid_id, vendor_id, submitted_at, header_incoterm, header_payment_terms, additional_notes)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
            RETURNING id`,
			sub.UUID, sub.BidID, sub.VendorID, sub.SubmittedAt,
			header.Incoterm, header.PaymentTerms, header.AdditionalNotes).
			Scan(&sub.ID)
		if isUniqueViolation(err) {
			return apperr.ErrAlreadyResponded
		}
		if err != nil {
			return err
		}

		for _, item := range sub.Items {
			if _, err := tx.ExecContext(ctx, `
                INSERT INTO vendor_item_responses
                    (submission_id, item_id, price, lead_time, incoterm, payment_terms)
                VALUES ($1, $2, $3, $4, $5, $6)`,
				sub.ID, item.ItemID, item.Price, item.LeadTime, item.Incoterm, item.PaymentTerms); err != nil {
				return err
			}
		}
		return nil
	})
}

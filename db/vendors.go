package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"procurement/models"
)

// vendorRow carries the aggregated material classes next to the vendor columns.
type vendorRow struct {
	models.Vendor
	Classes pq.StringArray `db:"material_classes"`
}

func (r vendorRow) toModel() models.Vendor {
	v := r.Vendor
	v.MaterialClasses = []string(r.Classes)
	if v.MaterialClasses == nil {
		v.MaterialClasses = []string{}
	}
	return v
}

const vendorSelect = `
        SELECT v.id, v.uuid, v.buyer_id, v.company_name, v.email, v.contact_name, v.phone, v.tier, v.location,
               COALESCE(array_agg(mc.material_class ORDER BY mc.material_class)
                        FILTER (WHERE mc.material_class IS NOT NULL), '{}') AS material_classes
        FROM vendors v
        LEFT JOIN vendor_material_classes mc ON mc.vendor_id = v.id`

const vendorGroupBy = ` GROUP BY v.id`

func (s *Storage) CreateVendor(ctx context.Context, v *models.Vendor) error {
	v.UUID = uuid.New()
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
            INSERT INTO vendors (uuid, buyer_id, company_name, email, contact_name, phone, tier, location)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
            RETURNING id`
		if err := tx.QueryRowContext(ctx, query,
			v.UUID, v.BuyerID, v.CompanyName, v.Email, v.ContactName, v.Phone, v.Tier, v.Location).
			Scan(&v.ID); err != nil {
			return err
		}
		return insertMaterialClasses(ctx, tx, v.ID, v.MaterialClasses)
	})
}

func (s *Storage) GetVendor(ctx context.Context, id int) (*models.Vendor, error) {
	var row vendorRow
	err := s.db.GetContext(ctx, &row, vendorSelect+` WHERE v.id = $1`+vendorGroupBy, id)
	if err != nil {
		return nil, notFound(err, "vendor")
	}
	v := row.toModel()
	return &v, nil
}

// GetVendorsByIDs returns the buyer's vendors among ids, ordered by id.
func (s *Storage) GetVendorsByIDs(ctx context.Context, buyerID int, ids []int) ([]models.Vendor, error) {
	query := vendorSelect + ` WHERE v.buyer_id = $1 AND v.id = ANY($2)` + vendorGroupBy + ` ORDER BY v.id`
	var rows []vendorRow
	if err := s.db.SelectContext(ctx, &rows, query, buyerID, pq.Array(ids)); err != nil {
		return nil, err
	}
	return toVendors(rows), nil
}

// ListVendors applies filter fields that are neither empty nor "all". Tier is
// exact, location and material class are case-insensitive substrings.
func (s *Storage) ListVendors(ctx context.Context, buyerID int, f models.VendorFilter) ([]models.Vendor, error) {
	conds := []string{"v.buyer_id = $1"}
	args := []interface{}{buyerID}

	if active(f.Tier) {
		args = append(args, f.Tier)
		conds = append(conds, fmt.Sprintf("v.tier = $%d", len(args)))
	}
	if active(f.Location) {
		args = append(args, likeEscape(f.Location))
		conds = append(conds, fmt.Sprintf("v.location ILIKE '%%' || $%d || '%%'", len(args)))
	}
	if active(f.MaterialClass) {
		args = append(args, likeEscape(f.MaterialClass))
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM vendor_material_classes x WHERE x.vendor_id = v.id AND x.material_class ILIKE '%%' || $%d || '%%')", len(args)))
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		args = append(args, likeEscape(q))
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(v.company_name ILIKE '%%' || $%d || '%%' OR v.email ILIKE '%%' || $%d || '%%' OR v.contact_name ILIKE '%%' || $%d || '%%')", n, n, n))
	}

	query := vendorSelect + " WHERE " + strings.Join(conds, " AND ") + vendorGroupBy + " ORDER BY v.company_name ASC"
	var rows []vendorRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return toVendors(rows), nil
}

// SetVendorMaterialClasses replaces the vendor's class set.
func (s *Storage) SetVendorMaterialClasses(ctx context.Context, vendorID int, classes []string) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM vendor_material_classes WHERE vendor_id = $1`, vendorID); err != nil {
			return err
		}
		return insertMaterialClasses(ctx, tx, vendorID, classes)
	})
}

// ListMaterialClasses returns the distinct tags used by the buyer's vendors.
func (s *Storage) ListMaterialClasses(ctx context.Context, buyerID int) ([]string, error) {
	classes := []string{}
	err := s.db.SelectContext(ctx, &classes, `
        SELECT DISTINCT mc.material_class
        FROM vendor_material_classes mc
        JOIN vendors v ON v.id = mc.vendor_id
        WHERE v.buyer_id = $1
        ORDER BY mc.material_class`, buyerID)
	if err != nil {
		return nil, err
	}
	return classes, nil
}

func insertMaterialClasses(ctx context.Context, tx *sqlx.Tx, vendorID int, classes []string) error {
	if len(classes) == 0 {
		return nil
	}
	query := `
        INSERT INTO vendor_material_classes (vendor_id, material_class)
        SELECT $1, unnest($2::text[])
        ON CONFLICT DO NOTHING`
	_, err := tx.ExecContext(ctx, query, vendorID, pq.StringArray(classes))
	return err
}

func toVendors(rows []vendorRow) []models.Vendor {
	vendors := make([]models.Vendor, 0, len(rows))
	for _, r := range rows {
		vendors = append(vendors, r.toModel())
	}
	return vendors
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likeEscape makes v match literally inside an ILIKE pattern.
func likeEscape(v string) string {
	return likeEscaper.Replace(v)
}

func active(v string) bool {
	return v != "" && v != "all"
}

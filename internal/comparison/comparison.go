// Package comparison projects vendor submissions of a loaded bid into a per-item table.
package comparison

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"procurement/models"
)

type SortField string

const (
	SortByPrice       SortField = "price"
	SortByLeadTime    SortField = "leadTime"
	SortByCompanyName SortField = "companyName"
)

type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Options select and order the rows. VendorID 0 means all vendors.
type Options struct {
	VendorID  int
	SortField SortField
	SortOrder SortOrder
	Filter    string
}

// ParseOptions reads query values; unknown sort values fall back to price ascending.
func ParseOptions(vendor, sortField, sortOrder, filter string) (Options, error) {
	opts := Options{
		SortField: SortField(sortField),
		SortOrder: SortOrder(sortOrder),
		Filter:    strings.TrimSpace(filter),
	}
	if vendor != "" && vendor != "all" {
		id, err := strconv.Atoi(vendor)
		if err != nil || id <= 0 {
			return Options{}, fmt.Errorf("invalid vendor filter %q", vendor)
		}
		opts.VendorID = id
	}
	opts.normalize()
	return opts, nil
}

func (o *Options) normalize() {
	switch o.SortField {
	case SortByPrice, SortByLeadTime, SortByCompanyName:
	default:
		o.SortField = SortByPrice
	}
	if o.SortOrder != Desc {
		o.SortOrder = Asc
	}
}

type ResponseRow struct {
	VendorID     int             `json:"vendorId"`
	CompanyName  string          `json:"companyName"`
	Price        decimal.Decimal `json:"price"`
	LeadTime     int             `json:"leadTime"`
	Incoterm     string          `json:"incoterm"`
	PaymentTerms string          `json:"paymentTerms"`
}

type ItemView struct {
	Item        models.BidItem `json:"item"`
	Responses   []ResponseRow  `json:"responses"`
	NoResponses bool           `json:"noResponses"`
}

type HeaderRow struct {
	VendorID        int    `json:"vendorId"`
	CompanyName     string `json:"companyName"`
	Incoterm        string `json:"incoterm"`
	PaymentTerms    string `json:"paymentTerms"`
	AdditionalNotes string `json:"additionalNotes,omitempty"`
}

// Summary counts are taken over every invitation, regardless of filters.
type Summary struct {
	Invited   int `json:"invited"`
	Responded int `json:"responded"`
}

func (s Summary) String() string {
	return fmt.Sprintf("%d of %d vendors responded", s.Responded, s.Invited)
}

type Table struct {
	Summary Summary     `json:"summary"`
	Items   []ItemView  `json:"items"`
	Headers []HeaderRow `json:"headers"`
}

// Build never emits a row for an item outside the bid or for a vendor that has not responded.
func Build(bid *models.Bid, opts Options) Table {
	opts.normalize()

	table := Table{
		Items:   []ItemView{},
		Headers: []HeaderRow{},
	}
	table.Summary.Invited = len(bid.Invitations)

	var responding []models.Invitation
	for _, inv := range bid.Invitations {
		if !inv.HasResponded || inv.Submission == nil {
			continue
		}
		table.Summary.Responded++
		if opts.VendorID != 0 && inv.VendorID != opts.VendorID {
			continue
		}
		responding = append(responding, inv)
	}

	needle := strings.ToLower(opts.Filter)
	for _, item := range bid.Items {
		if needle != "" &&
			!strings.Contains(strings.ToLower(item.MaterialCode), needle) &&
			!strings.Contains(strings.ToLower(item.Description), needle) {
			continue
		}

		rows := []ResponseRow{}
		for _, inv := range responding {
			for _, r := range inv.Submission.Items {
				if r.ItemID != item.ID {
					continue
				}
				rows = append(rows, ResponseRow{
					VendorID:     inv.VendorID,
					CompanyName:  inv.CompanyName,
					Price:        r.Price,
					LeadTime:     r.LeadTime,
					Incoterm:     r.Incoterm,
					PaymentTerms: r.PaymentTerms,
				})
				break
			}
		}
		slices.SortStableFunc(rows, rowComparator(opts))

		table.Items = append(table.Items, ItemView{
			Item:        item,
			Responses:   rows,
			NoResponses: len(rows) == 0,
		})
	}

	for _, inv := range responding {
		h := inv.Submission.Header
		if h.IsEmpty() {
			continue
		}
		table.Headers = append(table.Headers, HeaderRow{
			VendorID:        inv.VendorID,
			CompanyName:     inv.CompanyName,
			Incoterm:        h.Incoterm,
			PaymentTerms:    h.PaymentTerms,
			AdditionalNotes: h.AdditionalNotes,
		})
	}
	if opts.SortField == SortByCompanyName {
		slices.SortStableFunc(table.Headers, func(a, b HeaderRow) int {
			return directed(opts.SortOrder, strings.Compare(a.CompanyName, b.CompanyName))
		})
	}

	return table
}

func rowComparator(opts Options) func(a, b ResponseRow) int {
	return func(a, b ResponseRow) int {
		var c int
		switch opts.SortField {
		case SortByLeadTime:
			c = cmp.Compare(a.LeadTime, b.LeadTime)
		case SortByCompanyName:
			c = strings.Compare(a.CompanyName, b.CompanyName)
		default:
			c = a.Price.Cmp(b.Price)
		}
		return directed(opts.SortOrder, c)
	}
}

func directed(order SortOrder, c int) int {
	if order == Desc {
		return -c
	}
	return c
}

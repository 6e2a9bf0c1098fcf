// Package csvimport turns a spreadsheet export into bid items.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"procurement/models"
)

var ErrNoItems = errors.New("no valid items found in the CSV file")

const defaultUOM = "ea"

// Accepted header names per field, in priority order. Headers are matched lowercased.
var (
	codeHeaders        = []string{"materialcode", "material_code", "material code", "code", "sku"}
	descriptionHeaders = []string{"description", "desc", "name", "item", "product"}
	quantityHeaders    = []string{"quantity", "qty", "amount"}
	uomHeaders         = []string{"uom", "unit", "unit of measure", "measure"}
	packagingHeaders   = []string{"packaging", "package", "packing"}
	remarksHeaders     = []string{"remarks", "notes", "comment", "comments"}
)

// Parse reads a header row and one item per following row. Rows without both a
// material code and a description are dropped.
func Parse(r io.Reader) ([]models.BidItem, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoItems
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, seen := columns[key]; !seen {
			columns[key] = i
		}
	}

	var items []models.BidItem
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		row := rowReader{columns: columns, record: record}
		code := row.first(codeHeaders)
		description := row.first(descriptionHeaders)
		if code == "" || description == "" {
			continue
		}

		uom := row.first(uomHeaders)
		if uom == "" {
			uom = defaultUOM
		}

		items = append(items, models.BidItem{
			MaterialCode: code,
			Description:  description,
			Quantity:     parseQuantity(row.first(quantityHeaders)),
			UOM:          uom,
			Packaging:    row.first(packagingHeaders),
			Remarks:      row.first(remarksHeaders),
		})
	}

	if len(items) == 0 {
		return nil, ErrNoItems
	}
	return items, nil
}

type rowReader struct {
	columns map[string]int
	record  []string
}

// first returns the first non-empty value among the given headers.
func (r rowReader) first(names []string) string {
	for _, name := range names {
		idx, ok := r.columns[name]
		if !ok || idx >= len(r.record) {
			continue
		}
		if v := strings.TrimSpace(r.record[idx]); v != "" {
			return v
		}
	}
	return ""
}

// parseQuantity reads the leading integer of raw, so "12.7" and "12abc" give
// 12 and "1e300" gives 1. Values with no digits or outside int32 give 1.
func parseQuantity(raw string) int {
	raw = strings.TrimSpace(raw)
	end := 0
	if end < len(raw) && (raw[end] == '+' || raw[end] == '-') {
		end++
	}
	digits := end
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == digits {
		return 1
	}
	n, err := strconv.ParseInt(raw[:end], 10, 32)
	if err != nil {
		return 1
	}
	return int(n)
}

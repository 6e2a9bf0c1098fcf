package comparison

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"procurement/models"
)

func sampleBid() *models.Bid {
	return &models.Bid{
		ID:    1,
		Title: "B1",
		Items: []models.BidItem{
			{ID: 11, MaterialCode: "I1", Description: "Copper wire", Quantity: 100, UOM: "kg"},
			{ID: 12, MaterialCode: "I2", Description: "Steel bolts", Quantity: 200, UOM: "pcs"},
		},
		Invitations: []models.Invitation{
			{
				BidID: 1, VendorID: 1, CompanyName: "V1", HasResponded: true,
				Submission: &models.Submission{
					VendorID: 1,
					Items: []models.ItemResponse{
						{ItemID: 11, Price: decimal.RequireFromString("10.50"), LeadTime: 5},
					},
				},
			},
			{BidID: 1, VendorID: 2, CompanyName: "V2"},
		},
	}
}

func TestBuildScenario(t *testing.T) {
	table := Build(sampleBid(), Options{})

	require.Equal(t, "1 of 2 vendors responded", table.Summary.String())
	require.Len(t, table.Items, 2)

	i1 := table.Items[0]
	require.Equal(t, "I1", i1.Item.MaterialCode)
	require.False(t, i1.NoResponses)
	require.Len(t, i1.Responses, 1)
	require.Equal(t, 1, i1.Responses[0].VendorID)
	require.True(t, decimal.RequireFromString("10.5").Equal(i1.Responses[0].Price))
	require.Equal(t, 5, i1.Responses[0].LeadTime)

	i2 := table.Items[1]
	require.True(t, i2.NoResponses)
	require.Empty(t, i2.Responses)
	require.Empty(t, table.Headers)
}

func TestBuildIgnoresPendingAndForeignItems(t *testing.T) {
	bid := sampleBid()
	// pending invitation carrying a stale submission and a response for an unknown item
	bid.Invitations[1].Submission = &models.Submission{
		Items: []models.ItemResponse{{ItemID: 12, Price: decimal.NewFromInt(1), LeadTime: 1}},
	}
	bid.Invitations[0].Submission.Items = append(bid.Invitations[0].Submission.Items,
		models.ItemResponse{ItemID: 99, Price: decimal.NewFromInt(3), LeadTime: 2})

	table := Build(bid, Options{})
	for _, view := range table.Items {
		require.True(t, bid.HasItem(view.Item.ID))
		for _, row := range view.Responses {
			require.Equal(t, 1, row.VendorID)
		}
	}
	require.True(t, table.Items[1].NoResponses)
}

func multiVendorBid() *models.Bid {
	bid := sampleBid()
	bid.Invitations = []models.Invitation{
		{VendorID: 1, CompanyName: "Bravo", HasResponded: true, Submission: &models.Submission{
			Items:  []models.ItemResponse{{ItemID: 11, Price: decimal.RequireFromString("9.99"), LeadTime: 10}},
			Header: &models.HeaderResponse{Incoterm: "FOB"},
		}},
		{VendorID: 2, CompanyName: "Alpha", HasResponded: true, Submission: &models.Submission{
			Items:  []models.ItemResponse{{ItemID: 11, Price: decimal.RequireFromString("12"), LeadTime: 3}},
			Header: &models.HeaderResponse{PaymentTerms: "Net 30"},
		}},
		{VendorID: 3, CompanyName: "Charlie", HasResponded: true, Submission: &models.Submission{
			Items: []models.ItemResponse{{ItemID: 11, Price: decimal.RequireFromString("100"), LeadTime: 7}},
		}},
	}
	return bid
}

func vendorOrder(rows []ResponseRow) []int {
	ids := make([]int, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.VendorID)
	}
	return ids
}

func TestBuildSorting(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want []int
	}{
		{"price numeric asc", Options{SortField: SortByPrice, SortOrder: Asc}, []int{1, 2, 3}},
		{"price desc", Options{SortField: SortByPrice, SortOrder: Desc}, []int{3, 2, 1}},
		{"lead time", Options{SortField: SortByLeadTime}, []int{2, 3, 1}},
		{"company", Options{SortField: SortByCompanyName}, []int{2, 1, 3}},
		{"unknown falls back to price", Options{SortField: "rating", SortOrder: "up"}, []int{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := Build(multiVendorBid(), tt.opts)
			require.Equal(t, tt.want, vendorOrder(table.Items[0].Responses))
		})
	}
}

func TestBuildHeaders(t *testing.T) {
	table := Build(multiVendorBid(), Options{SortField: SortByPrice})
	require.Len(t, table.Headers, 2)
	require.Equal(t, "Bravo", table.Headers[0].CompanyName)

	table = Build(multiVendorBid(), Options{SortField: SortByCompanyName})
	require.Equal(t, "Alpha", table.Headers[0].CompanyName)
	require.Equal(t, "Net 30", table.Headers[0].PaymentTerms)
}

func TestBuildFilters(t *testing.T) {
	table := Build(multiVendorBid(), Options{VendorID: 2, Filter: "COPPER"})
	require.Len(t, table.Items, 1)
	require.Equal(t, []int{2}, vendorOrder(table.Items[0].Responses))
	require.Len(t, table.Headers, 1)
	require.Equal(t, "3 of 3 vendors responded", table.Summary.String())
}

func TestParseOptions(t *testing.T) {
	opts, err := ParseOptions("all", "leadTime", "desc", "  bolt ")
	require.NoError(t, err)
	require.Equal(t, Options{SortField: SortByLeadTime, SortOrder: Desc, Filter: "bolt"}, opts)

	opts, err = ParseOptions("7", "", "", "")
	require.NoError(t, err)
	require.Equal(t, 7, opts.VendorID)
	require.Equal(t, SortByPrice, opts.SortField)
	require.Equal(t, Asc, opts.SortOrder)

	_, err = ParseOptions("abc", "", "", "")
	require.Error(t, err)
}

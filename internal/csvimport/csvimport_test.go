package csvimport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDefaultsUOM(t *testing.T) {
	items, err := Parse(strings.NewReader("code,desc,qty\nRM-1,Steel Bar,50\n"))
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "RM-1", items[0].MaterialCode)
	require.Equal(t, "Steel Bar", items[0].Description)
	require.Equal(t, 50, items[0].Quantity)
	require.Equal(t, "ea", items[0].UOM)
}

func TestParseSynonymsAndDrops(t *testing.T) {
	input := strings.Join([]string{
		" Material Code ,Product,Amount,Unit of Measure,Packing,Notes",
		"A-1,Copper wire,abc,kg,drum,urgent",
		"A-2,,10,pcs,,",
		",Orphan description,3,pcs,,",
		"",
		"A-3,Brass fittings,12.7",
	}, "\n")

	items, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.Equal(t, "A-1", items[0].MaterialCode)
	require.Equal(t, 1, items[0].Quantity)
	require.Equal(t, "kg", items[0].UOM)
	require.Equal(t, "drum", items[0].Packaging)
	require.Equal(t, "urgent", items[0].Remarks)

	require.Equal(t, "A-3", items[1].MaterialCode)
	require.Equal(t, 12, items[1].Quantity)
	require.Equal(t, "ea", items[1].UOM)
}

func TestParseNoItems(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	require.ErrorIs(t, err, ErrNoItems)

	_, err = Parse(strings.NewReader("sku,qty\nX,1\n"))
	require.ErrorIs(t, err, ErrNoItems)
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"", 1},
		{"50", 50},
		{" 7 ", 7},
		{"12abc", 12},
		{"12.7", 12},
		{"+3", 3},
		{"1e300", 1},
		{"99999999999", 1},
		{"abc", 1},
		{"-", 1},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			require.Equal(t, tt.want, parseQuantity(tt.raw))
		})
	}
}

func TestParseHugeQuantityFallsBack(t *testing.T) {
	items, err := Parse(strings.NewReader("code,desc,qty\nRM-1,Steel Bar,1e300\nRM-2,Steel Rod,12abc\n"))
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, 1, items[0].Quantity)
	require.Equal(t, 12, items[1].Quantity)
}

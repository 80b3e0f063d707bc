package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quoteproc/quote-processor/constants"
	"github.com/quoteproc/quote-processor/internal/llm"
)

func TestNormalizeRequiredFieldInvariant(t *testing.T) {
	tests := []struct {
		name  string
		input llm.CandidateItem
		check func(t *testing.T, item CanonicalItem)
	}{
		{
			name:  "empty candidate gets all defaults",
			input: llm.CandidateItem{},
			check: func(t *testing.T, item CanonicalItem) {
				assert.True(t, strings.HasPrefix(item.ItemCode, "AUTO-"), "code should be generated, got %q", item.ItemCode)
				assert.Equal(t, constants.UnknownItemName, item.ItemName)
				assert.Equal(t, constants.DefaultItemGroup, item.ItemGroup)
				assert.Equal(t, constants.DefaultUOM, item.StockUOM)
			},
		},
		{
			name: "fully populated candidate keeps its values",
			input: llm.CandidateItem{
				"item_code":  "WIDGET-1",
				"item_name":  "Widget",
				"item_group": "Gadgets",
				"stock_uom":  "Box",
			},
			check: func(t *testing.T, item CanonicalItem) {
				assert.Equal(t, "WIDGET-1", item.ItemCode)
				assert.Equal(t, "Widget", item.ItemName)
				assert.Equal(t, "Gadgets", item.ItemGroup)
				assert.Equal(t, "Box", item.StockUOM)
			},
		},
		{
			name:  "code falls back to id",
			input: llm.CandidateItem{"id": "SKU-9", "name": "Thing"},
			check: func(t *testing.T, item CanonicalItem) {
				assert.Equal(t, "SKU-9", item.ItemCode)
				assert.Equal(t, "Thing", item.ItemName)
			},
		},
		{
			name:  "code prefers item_code over code and id",
			input: llm.CandidateItem{"item_code": "A", "code": "B", "id": "C"},
			check: func(t *testing.T, item CanonicalItem) {
				assert.Equal(t, "A", item.ItemCode)
			},
		},
		{
			name:  "name falls back to description",
			input: llm.CandidateItem{"description": "A very nice widget"},
			check: func(t *testing.T, item CanonicalItem) {
				assert.Equal(t, "A very nice widget", item.ItemName)
				assert.Equal(t, "A very nice widget", item.Description)
			},
		},
		{
			name:  "numeric code is stringified",
			input: llm.CandidateItem{"item_code": float64(1042), "item_name": "Numbered"},
			check: func(t *testing.T, item CanonicalItem) {
				assert.Equal(t, "1042", item.ItemCode)
			},
		},
		{
			name:  "whitespace-only values count as missing",
			input: llm.CandidateItem{"item_name": "   ", "item_group": "\t"},
			check: func(t *testing.T, item CanonicalItem) {
				assert.Equal(t, constants.UnknownItemName, item.ItemName)
				assert.Equal(t, constants.DefaultItemGroup, item.ItemGroup)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Normalize([]llm.CandidateItem{tt.input})
			require.Len(t, out, 1)
			item := out[0]
			assert.NotEmpty(t, item.ItemCode)
			assert.NotEmpty(t, item.ItemName)
			assert.NotEmpty(t, item.ItemGroup)
			assert.NotEmpty(t, item.StockUOM)
			tt.check(t, item)
		})
	}
}

func TestNormalizeRekeysHeaderVariants(t *testing.T) {
	out := Normalize([]llm.CandidateItem{{
		"  Item   Code ": "QP-1",
		"Item Name":      "Quoted Part",
		"STOCK UOM":      "Pair",
		"Standard Rate":  "12.50",
	}})
	require.Len(t, out, 1)

	item := out[0]
	assert.Equal(t, "QP-1", item.ItemCode)
	assert.Equal(t, "Quoted Part", item.ItemName)
	assert.Equal(t, "Pair", item.StockUOM)
	require.NotNil(t, item.StandardRate)
	assert.InDelta(t, 12.50, *item.StandardRate, 0.001)
}

func TestNormalizeOptionalFields(t *testing.T) {
	t.Run("absent optionals stay unset", func(t *testing.T) {
		out := Normalize([]llm.CandidateItem{{"item_name": "Bare"}})
		require.Len(t, out, 1)
		assert.Empty(t, out[0].Description)
		assert.Nil(t, out[0].StandardRate)
		assert.Nil(t, out[0].IsStockItem)
	})

	t.Run("numeric rate passes through", func(t *testing.T) {
		out := Normalize([]llm.CandidateItem{{"item_name": "Priced", "standard_rate": 99.99}})
		require.Len(t, out, 1)
		require.NotNil(t, out[0].StandardRate)
		assert.InDelta(t, 99.99, *out[0].StandardRate, 0.001)
	})

	t.Run("unparseable rate is dropped", func(t *testing.T) {
		out := Normalize([]llm.CandidateItem{{"item_name": "Odd", "standard_rate": "call for price"}})
		require.Len(t, out, 1)
		assert.Nil(t, out[0].StandardRate)
	})

	t.Run("is_stock_item coerces to int", func(t *testing.T) {
		out := Normalize([]llm.CandidateItem{{"item_name": "Stocked", "is_stock_item": float64(1)}})
		require.Len(t, out, 1)
		require.NotNil(t, out[0].IsStockItem)
		assert.Equal(t, 1, *out[0].IsStockItem)
	})
}

func TestNormalizeBatch(t *testing.T) {
	t.Run("nil input yields empty output", func(t *testing.T) {
		assert.Empty(t, Normalize(nil))
	})

	t.Run("order and count preserved", func(t *testing.T) {
		out := Normalize([]llm.CandidateItem{
			{"item_code": "X-1"},
			{"item_code": "X-2"},
			{"item_code": "X-3"},
		})
		require.Len(t, out, 3)
		assert.Equal(t, "X-1", out[0].ItemCode)
		assert.Equal(t, "X-2", out[1].ItemCode)
		assert.Equal(t, "X-3", out[2].ItemCode)
	})
}

// Mirrors a quote spreadsheet that names items but carries no codes or
// groups: every record still comes out complete.
func TestNormalizeQuoteSheetRows(t *testing.T) {
	out := Normalize([]llm.CandidateItem{
		{"item_name": "Test Widget A", "description": "A sample widget", "standard_rate": 25.00, "stock_uom": "Nos"},
		{"item_name": "Test Widget B", "description": "Another widget", "standard_rate": 45.50, "stock_uom": "Box"},
	})
	require.Len(t, out, 2)

	for _, item := range out {
		assert.True(t, strings.HasPrefix(item.ItemCode, "AUTO-"))
		assert.Equal(t, constants.DefaultItemGroup, item.ItemGroup)
		assert.NotNil(t, item.StandardRate)
	}
	assert.Equal(t, "Test Widget A", out[0].ItemName)
	assert.Equal(t, "Box", out[1].StockUOM)
}

package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/quoteproc/quote-processor/constants"
	"github.com/quoteproc/quote-processor/internal/llm"
)

// CanonicalItem is a normalized record ready for upsert. The four
// required fields are guaranteed non-empty for any input, including an
// empty candidate mapping. Optional fields are nil/empty when the
// candidate carried nothing usable; no defaults are synthesized for them.
type CanonicalItem struct {
	ItemCode     string
	ItemName     string
	ItemGroup    string
	StockUOM     string
	Description  string
	StandardRate *float64
	IsStockItem  *int
}

// Normalize maps candidate records onto the canonical item schema.
// It is a total function: it never fails, and every output record
// satisfies the required-field invariant.
func Normalize(candidates []llm.CandidateItem) []CanonicalItem {
	out := make([]CanonicalItem, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, normalizeOne(rekey(c)))
	}
	return out
}

// rekey collapses arbitrary header variants onto a consistent
// vocabulary: trim, lowercase, whitespace to underscores.
func rekey(c llm.CandidateItem) map[string]any {
	m := make(map[string]any, len(c))
	for k, v := range c {
		key := strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(k))), "_")
		m[key] = v
	}
	return m
}

func normalizeOne(m map[string]any) CanonicalItem {
	item := CanonicalItem{
		ItemCode:  firstString(m, "item_code", "code", "id"),
		ItemName:  firstString(m, "item_name", "name", "description"),
		ItemGroup: firstString(m, "item_group"),
		StockUOM:  firstString(m, "stock_uom"),
	}
	if item.ItemCode == "" {
		item.ItemCode = fmt.Sprintf("AUTO-%d", time.Now().UnixNano())
	}
	if item.ItemName == "" {
		item.ItemName = constants.UnknownItemName
	}
	if item.ItemGroup == "" {
		item.ItemGroup = constants.DefaultItemGroup
	}
	if item.StockUOM == "" {
		item.StockUOM = constants.DefaultUOM
	}

	item.Description = asString(m["description"])
	if rate, ok := asFloat(m["standard_rate"]); ok {
		item.StandardRate = &rate
	}
	if v, ok := asFloat(m["is_stock_item"]); ok {
		stock := int(v)
		item.IsStockItem = &stock
	}
	return item
}

// firstString returns the first non-empty scalar under the given keys,
// in priority order.
func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := asString(m[k]); s != "" {
			return s
		}
	}
	return ""
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f, true
		}
	case int:
		return float64(t), true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

package models

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// SortKey selects the ordering of a product listing.
type SortKey string

const (
	SortByName      SortKey = "name"
	SortByPriceAsc  SortKey = "price_asc"
	SortByPriceDesc SortKey = "price_desc"
)

// ParseSortKey maps a query value onto a SortKey. Unknown values sort by name.
func ParseSortKey(s string) SortKey {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "price_asc", "price_ascending":
		return SortByPriceAsc
	case "price_desc", "price_descending":
		return SortByPriceDesc
	default:
		return SortByName
	}
}

// ProductFilters holds the optional criteria of a product listing.
// A nil pointer means the criterion is not applied.
type ProductFilters struct {
	Text       string
	CategoryID *uint
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Sort       SortKey
}

// ParseProductFilters reads listing criteria from query parameters.
// Malformed values are dropped rather than reported, so a listing always
// renders whatever the query string contains. The search text is used as
// typed, surrounding spaces included; only an empty value is absent.
func ParseProductFilters(q url.Values) ProductFilters {
	filters := ProductFilters{
		Text: q.Get("query"),
		Sort: ParseSortKey(q.Get("sort_by")),
	}

	if idStr := strings.TrimSpace(q.Get("category_id")); idStr != "" {
		if id, err := strconv.ParseUint(idStr, 10, 32); err == nil && id > 0 {
			v := uint(id)
			filters.CategoryID = &v
		}
	}

	filters.MinPrice = parsePriceBound(q.Get("min_price"))
	filters.MaxPrice = parsePriceBound(q.Get("max_price"))

	return filters
}

func parsePriceBound(s string) *decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return nil
	}
	return &d
}

// predicate is a single WHERE clause with its bound arguments.
// Clause text is fixed by this package; only args carry user input.
type predicate struct {
	clause string
	args   []any
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern matches s literally anywhere in a value. Case folding is
// left to LOWER() in SQL so both sides fold the same way.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func (f ProductFilters) predicates() []predicate {
	var preds []predicate

	if f.Text != "" {
		pattern := containsPattern(f.Text)
		preds = append(preds, predicate{
			clause: `(LOWER(products.name) LIKE LOWER(?) ESCAPE '\' OR LOWER(products.code) LIKE LOWER(?) ESCAPE '\')`,
			args:   []any{pattern, pattern},
		})
	}
	if f.CategoryID != nil {
		preds = append(preds, predicate{clause: "products.category_id = ?", args: []any{*f.CategoryID}})
	}
	if f.MinPrice != nil {
		preds = append(preds, predicate{clause: "products.price >= ?", args: []any{*f.MinPrice}})
	}
	if f.MaxPrice != nil {
		preds = append(preds, predicate{clause: "products.price <= ?", args: []any{*f.MaxPrice}})
	}

	return preds
}

// orderBy returns the ORDER BY expression for the sort key. products.id
// breaks ties so equal prices or names keep a stable order.
func (f ProductFilters) orderBy() string {
	switch f.Sort {
	case SortByPriceAsc:
		return "products.price ASC, products.id ASC"
	case SortByPriceDesc:
		return "products.price DESC, products.id ASC"
	default:
		return "products.name ASC, products.id ASC"
	}
}

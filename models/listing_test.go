package models

import (
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSortKey(t *testing.T) {
	testCases := []struct {
		input    string
		expected SortKey
	}{
		{"price_asc", SortByPriceAsc},
		{"price_ascending", SortByPriceAsc},
		{"PRICE_DESC", SortByPriceDesc},
		{"price_descending", SortByPriceDesc},
		{"name", SortByName},
		{"", SortByName},
		{"newest", SortByName},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParseSortKey(tc.input))
		})
	}
}

func TestParseProductFilters(t *testing.T) {
	testCases := []struct {
		name         string
		query        string
		checkFilters func(t *testing.T, f ProductFilters)
	}{
		{
			name:  "Empty query",
			query: "",
			checkFilters: func(t *testing.T, f ProductFilters) {
				assert.Empty(t, f.Text)
				assert.Nil(t, f.CategoryID)
				assert.Nil(t, f.MinPrice)
				assert.Nil(t, f.MaxPrice)
				assert.Equal(t, SortByName, f.Sort)
			},
		},
		{
			name:  "All filters",
			query: "query=+Chari+&category_id=3&min_price=10.5&max_price=400&sort_by=price_desc",
			checkFilters: func(t *testing.T, f ProductFilters) {
				assert.Equal(t, " Chari ", f.Text, "search text is kept as typed")
				require.NotNil(t, f.CategoryID)
				assert.Equal(t, uint(3), *f.CategoryID)
				require.NotNil(t, f.MinPrice)
				assert.True(t, decimal.RequireFromString("10.5").Equal(*f.MinPrice))
				require.NotNil(t, f.MaxPrice)
				assert.True(t, decimal.NewFromInt(400).Equal(*f.MaxPrice))
				assert.Equal(t, SortByPriceDesc, f.Sort)
			},
		},
		{
			name:  "Malformed category is dropped",
			query: "category_id=abc",
			checkFilters: func(t *testing.T, f ProductFilters) {
				assert.Nil(t, f.CategoryID)
			},
		},
		{
			name:  "Zero and negative categories are dropped",
			query: "category_id=0",
			checkFilters: func(t *testing.T, f ProductFilters) {
				assert.Nil(t, f.CategoryID)
			},
		},
		{
			name:  "Malformed and negative prices are dropped",
			query: "min_price=cheap&max_price=-1",
			checkFilters: func(t *testing.T, f ProductFilters) {
				assert.Nil(t, f.MinPrice)
				assert.Nil(t, f.MaxPrice)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := url.ParseQuery(tc.query)
			require.NoError(t, err)
			tc.checkFilters(t, ParseProductFilters(q))
		})
	}
}

func TestPredicatesBindUserInput(t *testing.T) {
	lo := decimal.NewFromInt(5)
	f := ProductFilters{Text: "50%_off' OR 1=1 --", MinPrice: &lo}

	preds := f.predicates()
	require.Len(t, preds, 2)
	assert.NotContains(t, preds[0].clause, "OR 1=1")
	assert.Equal(t, []any{`%50\%\_off' OR 1=1 --%`, `%50\%\_off' OR 1=1 --%`}, preds[0].args)
	assert.Equal(t, "products.price >= ?", preds[1].clause)
}

// --- Query execution against sqlite ---

func seedListing(t *testing.T, r *ProductsRepository, c *CategoriesRepository) (baseSet, jungle Category) {
	t.Helper()
	baseSet = Category{Name: "Base Set"}
	jungle = Category{Name: "Jungle"}
	require.NoError(t, c.CreateCategory(&baseSet))
	require.NoError(t, c.CreateCategory(&jungle))

	items := []Product{
		{Name: "Charizard", Code: "BS-004", Price: decimal.RequireFromString("350.00"), CategoryID: &baseSet.ID},
		{Name: "Blastoise", Code: "BS-002", Price: decimal.RequireFromString("120.00"), CategoryID: &baseSet.ID},
		{Name: "Pikachu", Code: "BS-058", Price: decimal.RequireFromString("8.50"), CategoryID: &baseSet.ID},
		{Name: "Snorlax", Code: "JU-011", Price: decimal.RequireFromString("25.00"), CategoryID: &jungle.ID},
		{Name: "Scyther", Code: "JU-010", Price: decimal.RequireFromString("25.00"), CategoryID: &jungle.ID},
		{Name: "100% Promo", Code: "PR_1", Price: decimal.RequireFromString("5.00")},
		{Name: "ÉVOLI Holo", Code: "ÉV-133", Price: decimal.RequireFromString("15.00"), CategoryID: &jungle.ID},
	}
	for i := range items {
		require.NoError(t, r.CreateProduct(&items[i]))
	}
	return baseSet, jungle
}

func codes(products []Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Code
	}
	return out
}

func TestGetFilteredProducts(t *testing.T) {
	db := newTestDB(t)
	products := NewProductsRepository(db)
	categories := NewCategoriesRepository(db)
	baseSet, _ := seedListing(t, products, categories)

	testCases := []struct {
		name     string
		query    string
		expected []string
	}{
		{name: "No filters sorts by name", query: "", expected: []string{"PR_1", "BS-002", "BS-004", "BS-058", "JU-010", "JU-011", "ÉV-133"}},
		{name: "Case-insensitive name match", query: "query=CHARI", expected: []string{"BS-004"}},
		{name: "Code match", query: "query=ju-0", expected: []string{"JU-010", "JU-011"}},
		{name: "Non-ASCII name, same case", query: "query=ÉVOLI", expected: []string{"ÉV-133"}},
		{name: "Non-ASCII name, lower case", query: "query=évoli", expected: []string{"ÉV-133"}},
		{name: "Non-ASCII name, mixed case", query: "query=éVoLi+hOLO", expected: []string{"ÉV-133"}},
		{name: "Non-ASCII code, lower case", query: "query=év-1", expected: []string{"ÉV-133"}},
		{name: "Surrounding spaces are part of the text", query: "query=+holo", expected: []string{"ÉV-133"}},
		{name: "Leading space does not match a name start", query: "query=+chari", expected: []string{}},
		{name: "Percent is literal", query: "query=100%25", expected: []string{"PR_1"}},
		{name: "Underscore is literal", query: "query=r_", expected: []string{"PR_1"}},
		{name: "Category", query: "category_id=" + uintStr(baseSet.ID), expected: []string{"BS-002", "BS-004", "BS-058"}},
		{name: "Malformed category ignored", query: "category_id=abc&query=s", expected: []string{"BS-002", "BS-004", "BS-058", "JU-010", "JU-011"}},
		{name: "Price range", query: "min_price=20&max_price=130", expected: []string{"BS-002", "JU-010", "JU-011"}},
		{name: "Price range with non-ASCII names", query: "min_price=10&max_price=20", expected: []string{"ÉV-133"}},
		{name: "Inverted range is empty", query: "min_price=200&max_price=100", expected: []string{}},
		{name: "Price ascending, ties by id", query: "sort_by=price_asc", expected: []string{"PR_1", "BS-058", "ÉV-133", "JU-011", "JU-010", "BS-002", "BS-004"}},
		{name: "Price descending, ties by id", query: "sort_by=price_desc", expected: []string{"BS-004", "BS-002", "JU-011", "JU-010", "ÉV-133", "BS-058", "PR_1"}},
		{name: "Unknown sort falls back to name", query: "sort_by=random&category_id=" + uintStr(baseSet.ID), expected: []string{"BS-002", "BS-004", "BS-058"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := url.ParseQuery(tc.query)
			require.NoError(t, err)

			result, err := products.GetFilteredProducts(ParseProductFilters(q))

			require.NoError(t, err)
			assert.Equal(t, tc.expected, codes(result))
		})
	}
}

func TestGetFilteredProductsPriceRangeHolds(t *testing.T) {
	db := newTestDB(t)
	products := NewProductsRepository(db)
	seedListing(t, products, NewCategoriesRepository(db))

	bounds := [][2]string{{"0", "10"}, {"8.50", "25"}, {"25", "25"}, {"100", "1000"}}
	for _, b := range bounds {
		lo, hi := decimal.RequireFromString(b[0]), decimal.RequireFromString(b[1])
		result, err := products.GetFilteredProducts(ProductFilters{MinPrice: &lo, MaxPrice: &hi, Sort: SortByPriceDesc})
		require.NoError(t, err)

		for i, p := range result {
			assert.True(t, p.Price.GreaterThanOrEqual(lo) && p.Price.LessThanOrEqual(hi), "%s outside [%s, %s]", p.Price, lo, hi)
			if i > 0 {
				assert.True(t, result[i-1].Price.GreaterThanOrEqual(p.Price), "prices must not increase")
			}
		}
	}
}

func TestGetFilteredProductsLoadsCategory(t *testing.T) {
	db := newTestDB(t)
	products := NewProductsRepository(db)
	seedListing(t, products, NewCategoriesRepository(db))

	result, err := products.GetFilteredProducts(ProductFilters{Text: "charizard"})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "Base Set", result[0].CategoryName())
	assert.Equal(t, "350.00", result[0].Price.StringFixed(2))

	promo, err := products.GetFilteredProducts(ProductFilters{Text: "promo"})
	require.NoError(t, err)
	require.Len(t, promo, 1)
	assert.Empty(t, promo[0].CategoryName())
}

package catalog

import (
	"fmt"
	"strings"
)

const defaultListLimit = 20

// ProductFilter is the storefront listing query. Zero values mean
// "no constraint". It mirrors the public product listing parameters.
type ProductFilter struct {
	Collection string
	Category   string
	Sizes      []string
	Colors     []string
	Gender     string
	Brands     []string
	Materials  []string
	MinPrice   float64
	MaxPrice   float64
	Search     string
	SortBy     string
	Limit      int
}

// toSQL renders the filter into a WHERE/ORDER BY/LIMIT tail with positional
// arguments. Only published products are listed.
func (f ProductFilter) toSQL() (string, []any) {
	clauses := []string{"is_published = TRUE"}
	args := make([]any, 0, 8)

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Collection != "" && !strings.EqualFold(f.Collection, "all") {
		clauses = append(clauses, "collection = "+arg(f.Collection))
	}
	if f.Category != "" && !strings.EqualFold(f.Category, "all") {
		clauses = append(clauses, "category = "+arg(f.Category))
	}
	if len(f.Sizes) > 0 {
		clauses = append(clauses, "sizes && "+arg(f.Sizes))
	}
	if len(f.Colors) > 0 {
		clauses = append(clauses, "colors && "+arg(f.Colors))
	}
	if f.Gender != "" {
		clauses = append(clauses, "gender = "+arg(f.Gender))
	}
	if len(f.Brands) > 0 {
		clauses = append(clauses, "brand = ANY("+arg(f.Brands)+")")
	}
	if len(f.Materials) > 0 {
		clauses = append(clauses, "material = ANY("+arg(f.Materials)+")")
	}
	if f.MinPrice > 0 {
		clauses = append(clauses, "price >= "+arg(f.MinPrice))
	}
	if f.MaxPrice > 0 {
		clauses = append(clauses, "price <= "+arg(f.MaxPrice))
	}
	if f.Search != "" {
		pattern := "%" + escapeLike(f.Search) + "%"
		clauses = append(clauses, "(name ILIKE "+arg(pattern)+" OR description ILIKE "+arg(pattern)+")")
	}

	var order string
	switch f.SortBy {
	case "priceAsc":
		order = " ORDER BY price ASC"
	case "priceDesc":
		order = " ORDER BY price DESC"
	case "popularity":
		order = " ORDER BY rating DESC"
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	return " WHERE " + strings.Join(clauses, " AND ") + order + " LIMIT " + arg(limit), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralizes LIKE wildcards in a user-supplied search term so a
// search for "100%" matches the literal text, not every row.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Package normalize maps raw tabular rows onto canonical catalog products.
//
// Source files arrive with arbitrary column names ("Product Name", "Stock
// Status", "Target Gender") and messy values ("$120.00", "Sold Out", "Men").
// This package owns the full cleanup: header canonicalization, synonym-based
// field resolution, numeric/currency parsing, and enum coercion with
// defaults. Normalization never fails; every field with a stated default is
// guaranteed a value, and unparseable optional values are left absent rather
// than zeroed.
package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/stylelens/ingest/internal/catalog"
)

// RawRow maps a normalized header name to the raw cell value.
// Headers are lowercased with whitespace collapsed to underscores before
// synonym resolution runs, so lookups are case- and space-insensitive.
type RawRow map[string]string

// FieldSynonyms binds one canonical field to its accepted header synonyms,
// in precedence order. The first synonym with a non-empty cell wins.
type FieldSynonyms struct {
	Field   string
	Aliases []string
}

// Synonyms is the ordered resolution table for every canonical field.
// Order inside each alias list is precedence order.
var Synonyms = []FieldSynonyms{
	{Field: "product_id", Aliases: []string{"product_id"}},
	{Field: "name", Aliases: []string{"name", "product_name", "title"}},
	{Field: "product_type", Aliases: []string{"product_type", "type", "category"}},
	{Field: "description", Aliases: []string{"description"}},
	{Field: "brand", Aliases: []string{"brand", "brand_name"}},
	{Field: "price", Aliases: []string{"price"}},
	{Field: "currency", Aliases: []string{"currency"}},
	{Field: "color", Aliases: []string{"color", "colour"}},
	{Field: "size", Aliases: []string{"size"}},
	{Field: "material", Aliases: []string{"material"}},
	{Field: "gender", Aliases: []string{"gender", "target_gender"}},
	{Field: "season", Aliases: []string{"season"}},
	{Field: "availability_status", Aliases: []string{"availability_status", "stock_status", "status"}},
	{Field: "image_url", Aliases: []string{"image_url", "image"}},
	{Field: "product_url", Aliases: []string{"product_url", "website"}},
	{Field: "trend_id", Aliases: []string{"trend_id"}},
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Header canonicalizes a raw column header: trim, lowercase, and collapse
// internal whitespace to single underscores. "Stock Status" -> "stock_status".
func Header(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	return whitespaceRun.ReplaceAllString(s, "_")
}

// MakeRawRow builds a RawRow from a header row and a data row.
// Cells beyond the header width are dropped; missing cells are absent keys.
// When two columns normalize to the same header, the first one wins.
func MakeRawRow(headers, cells []string) RawRow {
	row := make(RawRow, len(headers))
	for i, h := range headers {
		if i >= len(cells) {
			break
		}
		key := Header(h)
		if key == "" {
			continue
		}
		if _, exists := row[key]; !exists {
			row[key] = cells[i]
		}
	}
	return row
}

// Resolve returns the first non-empty value among the synonyms registered
// for field, trimmed. Returns "" when no synonym matches.
func Resolve(row RawRow, field string) string {
	for _, fs := range Synonyms {
		if fs.Field != field {
			continue
		}
		for _, alias := range fs.Aliases {
			if v := strings.TrimSpace(row[alias]); v != "" {
				return v
			}
		}
		return ""
	}
	return ""
}

// Normalizer converts raw rows to canonical products.
type Normalizer struct {
	// DefaultTrendID is the trend association applied when a row carries no
	// explicit trend_id column. Nil means no association.
	DefaultTrendID *int
}

// Rows normalizes every raw row in order. Row indices are 1-based, matching
// spreadsheet data rows below the header.
func (n *Normalizer) Rows(rows []RawRow) []catalog.Product {
	products := make([]catalog.Product, len(rows))
	for i, row := range rows {
		products[i] = n.Row(row, i+1)
	}
	return products
}

// Row normalizes one raw row into a canonical product. rowIndex is the
// 1-based position of the row in the source file, used to synthesize a
// product_id when the source has none.
//
// Row is pure: the same input always yields the same product, and the input
// map is never modified.
func (n *Normalizer) Row(row RawRow, rowIndex int) catalog.Product {
	p := catalog.Product{
		ProductID:          Resolve(row, "product_id"),
		Name:               Resolve(row, "name"),
		ProductType:        strings.ToLower(Resolve(row, "product_type")),
		Description:        Resolve(row, "description"),
		Brand:              Resolve(row, "brand"),
		Price:              Price(Resolve(row, "price")),
		Currency:           Currency(Resolve(row, "currency")),
		Color:              Resolve(row, "color"),
		Size:               Resolve(row, "size"),
		Material:           Resolve(row, "material"),
		Gender:             Gender(Resolve(row, "gender")),
		Season:             Resolve(row, "season"),
		AvailabilityStatus: Availability(Resolve(row, "availability_status")),
		ImageURL:           Resolve(row, "image_url"),
		ProductURL:         Resolve(row, "product_url"),
	}

	if p.ProductID == "" {
		p.ProductID = fmt.Sprintf("CSV_%04d", rowIndex)
	}

	if raw := Resolve(row, "trend_id"); raw != "" {
		if id, err := strconv.Atoi(raw); err == nil {
			p.TrendID = &id
		} else {
			p.TrendID = n.DefaultTrendID
		}
	} else {
		p.TrendID = n.DefaultTrendID
	}

	return p
}

// Gender coerces a raw gender value to one of the canonical genders.
// Unrecognized and empty values map to unisex.
func Gender(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "m", "male", "man", "men":
		return catalog.GenderMale
	case "f", "female", "woman", "women":
		return catalog.GenderFemale
	default:
		return catalog.GenderUnisex
	}
}

// Availability coerces a raw availability value to one of the canonical
// statuses. The value is lowercased and snake_cased first; already-canonical
// values pass through, known aliases are mapped, and anything unrecognized
// falls back to in_stock.
func Availability(raw string) string {
	v := whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(raw)), "_")
	if catalog.ValidAvailability(v) {
		return v
	}
	switch v {
	case "available":
		return catalog.AvailabilityInStock
	case "unavailable", "sold_out":
		return catalog.AvailabilityOutOfStock
	case "preorder", "coming_soon":
		return catalog.AvailabilityPreOrder
	default:
		return catalog.AvailabilityInStock
	}
}

// Currency uppercases a raw currency code, defaulting to USD when empty.
func Currency(raw string) string {
	v := strings.ToUpper(strings.TrimSpace(raw))
	if v == "" {
		return catalog.DefaultCurrency
	}
	return v
}

// currencyArtifacts are stripped from price cells before numeric parsing.
var currencyArtifacts = strings.NewReplacer(
	"$", "",
	"£", "", // pound
	"€", "", // euro
	"¥", "", // yen
	",", "",
)

// Price parses a raw price cell. Currency symbols and thousands separators
// are stripped before parsing. Returns nil for empty, unparseable, negative,
// or non-finite values; absence, not zero.
func Price(raw string) *float64 {
	cleaned := strings.TrimSpace(currencyArtifacts.Replace(raw))
	if cleaned == "" {
		return nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return nil
	}
	return &v
}

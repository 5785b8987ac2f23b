package core

import (
	"fmt"
	"math"
	"strings"

	"github.com/stylelens/ingest/internal/catalog"
)

// ValidateRow runs every business rule against a canonical product and
// returns the full violation list. Rules never short-circuit, so a row with
// several problems reports all of them at once.
func ValidateRow(p catalog.Product) []string {
	var reasons []string

	if strings.TrimSpace(p.Name) == "" {
		reasons = append(reasons, "Product name is required")
	}
	if strings.TrimSpace(p.ProductType) == "" {
		reasons = append(reasons, "Product type is required")
	}
	if p.Price != nil {
		if v := *p.Price; v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			reasons = append(reasons, fmt.Sprintf("Price must be a non-negative number, got %v", v))
		}
	}
	if !catalog.ValidGender(p.Gender) {
		reasons = append(reasons, fmt.Sprintf("Gender %q is not one of male, female, unisex", p.Gender))
	}
	if !catalog.ValidAvailability(p.AvailabilityStatus) {
		reasons = append(reasons, fmt.Sprintf("Availability status %q is not recognized", p.AvailabilityStatus))
	}

	return reasons
}

// PartitionRows validates canonical products in order and splits them into
// the upload set and the excluded set. Row numbers in violations are 1-based
// positions within the data rows, matching what a user sees in a spreadsheet
// below the header.
func PartitionRows(products []catalog.Product) (valid []catalog.Product, invalid []RowViolation) {
	for i, p := range products {
		reasons := ValidateRow(p)
		if len(reasons) == 0 {
			valid = append(valid, p)
			continue
		}
		invalid = append(invalid, RowViolation{Row: i + 1, Reasons: reasons})
	}
	return valid, invalid
}

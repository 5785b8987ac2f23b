// Package catalog defines the canonical product record and the wire types
// of the catalog service's bulk upload endpoint.
//
// The types here are the contract between the ingestion pipeline and the
// remote catalog: the pipeline produces Product values, the transport ships
// them in BulkRequest envelopes, and the server answers with BulkResponse
// counts that are trusted verbatim.
package catalog

// Gender values accepted by the catalog.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderUnisex = "unisex"
)

// Availability statuses accepted by the catalog.
const (
	AvailabilityInStock      = "in_stock"
	AvailabilityOutOfStock   = "out_of_stock"
	AvailabilityDiscontinued = "discontinued"
	AvailabilityPreOrder     = "pre_order"
)

// DefaultCurrency is assumed when the source row carries no currency column.
const DefaultCurrency = "USD"

// Genders lists the allowed gender values.
var Genders = []string{GenderMale, GenderFemale, GenderUnisex}

// AvailabilityStatuses lists the allowed availability values.
var AvailabilityStatuses = []string{
	AvailabilityInStock,
	AvailabilityOutOfStock,
	AvailabilityDiscontinued,
	AvailabilityPreOrder,
}

// ValidGender reports whether g is one of the allowed gender values.
func ValidGender(g string) bool {
	for _, v := range Genders {
		if g == v {
			return true
		}
	}
	return false
}

// ValidAvailability reports whether s is one of the allowed availability values.
func ValidAvailability(s string) bool {
	for _, v := range AvailabilityStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Product is the canonical product record produced by normalization.
//
// Price is a pointer because absence is meaningful: an unparseable or missing
// price is left nil, never coerced to zero. TrendID follows the same rule.
// The server dedups on ProductID, so resubmitting an already-stored record is
// a skip rather than a duplicate insert.
type Product struct {
	ProductID          string   `json:"product_id"`
	Name               string   `json:"name"`
	ProductType        string   `json:"product_type"`
	Description        string   `json:"description,omitempty"`
	Brand              string   `json:"brand,omitempty"`
	Price              *float64 `json:"price,omitempty"`
	Currency           string   `json:"currency"`
	Color              string   `json:"color,omitempty"`
	Size               string   `json:"size,omitempty"`
	Material           string   `json:"material,omitempty"`
	Gender             string   `json:"gender"`
	Season             string   `json:"season,omitempty"`
	AvailabilityStatus string   `json:"availability_status"`
	ImageURL           string   `json:"image_url,omitempty"`
	ProductURL         string   `json:"product_url,omitempty"`
	TrendID            *int     `json:"trend_id,omitempty"`
}

// BulkRequest is the body of one bulk upload call. Each request carries at
// most one batch of products.
type BulkRequest struct {
	Products []Product `json:"products"`
}

// BulkResponse is the per-batch outcome reported by the catalog service.
//
// SkippedCount covers rows whose product_id already existed; ErrorCount
// covers rows the server rejected despite passing client-side validation.
// The pipeline never reinterprets these counts.
type BulkResponse struct {
	UploadedCount int      `json:"uploaded_count"`
	SkippedCount  int      `json:"skipped_count"`
	ErrorCount    int      `json:"error_count"`
	Errors        []string `json:"errors,omitempty"`
}

package core

import (
	"time"

	"github.com/stylelens/ingest/internal/catalog"
)

// Upload pacing defaults. One batch per request, a fixed pause between
// requests as static client-side backpressure.
const (
	DefaultBatchSize    = 10
	DefaultPaceInterval = 500 * time.Millisecond
)

// SplitBatches partitions valid records into ordered batches of at most size
// records. The final batch holds the remainder. A nil or empty input yields
// no batches.
func SplitBatches(products []catalog.Product, size int) [][]catalog.Product {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var batches [][]catalog.Product
	for start := 0; start < len(products); start += size {
		end := start + size
		if end > len(products) {
			end = len(products)
		}
		batches = append(batches, products[start:end])
	}
	return batches
}

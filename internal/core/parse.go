package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/stylelens/ingest/internal/normalize"
)

// ErrNoHeader is returned when the source contains no non-empty rows.
var ErrNoHeader = errors.New("csv file has no header row")

// ParseCSV reads the whole source and returns one raw row per non-empty data
// line, keyed by normalized header name. The first non-empty line is the
// header. Ragged rows are tolerated; cells beyond the header width are
// dropped and missing trailing cells read as empty.
//
// Any read or quoting error aborts the parse. Callers treat a parse failure
// as fatal for the run.
func ParseCSV(r io.Reader) ([]normalize.RawRow, error) {
	cr := csv.NewReader(newSanitizedReader(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var headers []string
	var rows []normalize.RawRow

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		if isEmptyRecord(record) {
			continue
		}
		if headers == nil {
			headers = make([]string, len(record))
			for i, cell := range record {
				headers[i] = normalize.Header(cell)
			}
			continue
		}
		rows = append(rows, normalize.MakeRawRow(headers, record))
	}

	if headers == nil {
		return nil, ErrNoHeader
	}
	return rows, nil
}

func isEmptyRecord(record []string) bool {
	for _, cell := range record {
		if cell != "" {
			return false
		}
	}
	return true
}

// Package ingest decodes uploaded transfer files into the raw record
// sequence the detection pipeline consumes. It is the only place that
// touches file content; the core never sees anything but records.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/muletrace/mule-engine/pkg/models"
)

// requiredColumns must all appear in the CSV header row, in any order.
var requiredColumns = []string{
	"transaction_id",
	"sender_id",
	"receiver_id",
	"amount",
	"timestamp",
}

// ReadCSV decodes a headered CSV stream into raw records. Column order
// is free; unknown columns are ignored. Field values are whitespace
// trimmed but otherwise untouched — per-row validation of amount and
// timestamp is the graph builder's job, not the decoder's.
func ReadCSV(r io.Reader) ([]models.RawRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	// Ragged rows decode with missing fields left empty; the graph builder
	// rejects them per row instead of the whole file failing here.
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("CSV header is missing column %q", col)
		}
	}

	var records []models.RawRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}

		records = append(records, models.RawRecord{
			TransactionID: field(row, idx, "transaction_id"),
			SenderID:      field(row, idx, "sender_id"),
			ReceiverID:    field(row, idx, "receiver_id"),
			Amount:        field(row, idx, "amount"),
			Timestamp:     field(row, idx, "timestamp"),
		})
	}

	return records, nil
}

func field(row []string, idx map[string]int, col string) string {
	i := idx[col]
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

package aws

import (
	"bytes"
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
)

// EncodeReport writes rows under the column headers as gzipped CSV. The gzip
// header carries no name or timestamp so identical rows encode identically.
func EncodeReport(cols Columns, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if err := writeCSV(zw, cols, rows); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeCSV writes rows under the column headers as plain CSV.
func EncodeCSV(cols Columns, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCSV(&buf, cols, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCSV(w io.Writer, cols Columns, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(cols.Headers()); err != nil {
		return err
	}
	for i, row := range rows {
		if len(row) != len(cols) {
			return fmt.Errorf("row %d has %d fields, expected %d", i, len(row), len(cols))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

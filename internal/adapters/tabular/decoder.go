// Package tabular turns uploaded survey spreadsheets into canonical rows.
package tabular

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/samirrijal/drillmap/internal/core/domain"
)

// Source formats reported by Decode.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Encoding selects how CSV bytes are decoded.
type Encoding string

const (
	// EncodingAuto uses UTF-8 when the file is valid UTF-8 and Windows-1251 otherwise.
	EncodingAuto        Encoding = "auto"
	EncodingUTF8        Encoding = "utf-8"
	EncodingWindows1251 Encoding = "windows-1251"
)

// ParseEncoding accepts the spellings allowed in configuration.
func ParseEncoding(s string) Encoding {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "utf-8", "utf8":
		return EncodingUTF8
	case "windows-1251", "cp1251":
		return EncodingWindows1251
	default:
		return EncodingAuto
	}
}

// Decoder implements ports.SurveyDecoder for CSV and XLSX files.
type Decoder struct {
	Encoding Encoding
	// MaxBytes caps how much is read from r; 0 means no limit.
	MaxBytes int64
}

// NewDecoder creates a Decoder.
func NewDecoder(enc Encoding, maxBytes int64) *Decoder {
	return &Decoder{Encoding: enc, MaxBytes: maxBytes}
}

// Decode reads the whole file and maps its columns onto the canonical field
// names. The format is chosen by file extension.
func (d *Decoder) Decode(r io.Reader, fileName string) ([]domain.SurveyRow, string, error) {
	if d.MaxBytes > 0 {
		r = io.LimitReader(r, d.MaxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", fileName, err)
	}
	if d.MaxBytes > 0 && int64(len(data)) > d.MaxBytes {
		return nil, "", fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrFileTooLarge, fileName, d.MaxBytes)
	}

	var (
		format  string
		records [][]string
	)
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv", ".txt":
		format = FormatCSV
		records, err = readCSV(data, d.Encoding)
	case ".xlsx":
		format = FormatXLSX
		records, err = readXLSX(bytes.NewReader(data))
	default:
		return nil, "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, filepath.Ext(fileName))
	}
	if err != nil {
		return nil, format, err
	}

	rows, err := toSurveyRows(records)
	if err != nil {
		return nil, format, err
	}
	return rows, format, nil
}

// toSurveyRows treats the first non-empty record as the header. Blank rows
// are skipped; Line counts the remaining data rows from 1.
func toSurveyRows(records [][]string) ([]domain.SurveyRow, error) {
	headerAt := -1
	for i, rec := range records {
		if !isEmptyRow(rec) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, domain.ErrEmptyFile
	}

	cols, err := mapHeader(records[headerAt])
	if err != nil {
		return nil, err
	}

	var rows []domain.SurveyRow
	for _, rec := range records[headerAt+1:] {
		if isEmptyRow(rec) {
			continue
		}
		row := domain.SurveyRow{Line: len(rows) + 1}
		row.HoleName = strings.TrimSpace(cell(rec, cols, domain.FieldHoleName))
		row.RawStartPointX = value(rec, cols, domain.FieldRawStartPointX)
		row.RawStartPointY = value(rec, cols, domain.FieldRawStartPointY)
		row.RawStartPointZ = value(rec, cols, domain.FieldRawStartPointZ)
		row.RawEndPointX = value(rec, cols, domain.FieldRawEndPointX)
		row.RawEndPointY = value(rec, cols, domain.FieldRawEndPointY)
		row.RawEndPointZ = value(rec, cols, domain.FieldRawEndPointZ)
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, domain.ErrEmptyFile
	}
	return rows, nil
}

func cell(rec []string, cols map[string]int, field string) string {
	pos, ok := cols[field]
	if !ok || pos >= len(rec) {
		return ""
	}
	return rec[pos]
}

// value returns nil for an absent or blank cell so the parser sees a missing value.
func value(rec []string, cols map[string]int, field string) any {
	s := strings.TrimSpace(cell(rec, cols, field))
	if s == "" {
		return nil
	}
	return s
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

package tabular

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"github.com/samirrijal/drillmap/internal/core/domain"
)

func TestDecode_CSVSemicolonDecimalComma(t *testing.T) {
	data := "HoleName;RawStartPointX;RawStartPointY;RawStartPointZ\n" +
		"BH-1;4458,914;7317,3475;351,2\n" +
		"\n" +
		"BH-2;4460;7320;\n"

	rows, format, err := NewDecoder(EncodingAuto, 0).Decode(strings.NewReader(data), "collars.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if format != FormatCSV {
		t.Errorf("expected csv, got %s", format)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].HoleName != "BH-1" || rows[0].RawStartPointX != "4458,914" || rows[0].Line != 1 {
		t.Errorf("unexpected first row %+v", rows[0])
	}
	if rows[1].Line != 2 || rows[1].RawStartPointZ != nil {
		t.Errorf("expected line 2 with missing z, got %+v", rows[1])
	}
	if rows[1].RawEndPointX != nil {
		t.Errorf("expected absent end point column to be nil, got %v", rows[1].RawEndPointX)
	}
}

func TestDecode_CSVBOMAndTabs(t *testing.T) {
	data := "\xef\xbb\xbfhole_name\tRAW START POINT X\tRawStartPointY\n" +
		"A\t1\t2\n"

	rows, _, err := NewDecoder(EncodingWindows1251, 0).Decode(strings.NewReader(data), "a.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].HoleName != "A" || rows[0].RawStartPointX != "1" {
		t.Errorf("unexpected rows %+v", rows)
	}
}

func TestDecode_CSVWindows1251(t *testing.T) {
	utf := "HoleName,RawStartPointX,RawStartPointY\nСкв-1,10,20\n"
	encoded, err := charmap.Windows1251.NewEncoder().String(utf)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	rows, _, err := NewDecoder(EncodingAuto, 0).Decode(strings.NewReader(encoded), "cyr.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows[0].HoleName != "Скв-1" {
		t.Errorf("expected Скв-1, got %q", rows[0].HoleName)
	}
}

func TestDecode_MissingColumns(t *testing.T) {
	data := "HoleName,X,Y\nA,1,2\n"

	_, _, err := NewDecoder(EncodingAuto, 0).Decode(strings.NewReader(data), "a.csv")
	if !errors.Is(err, domain.ErrMissingColumns) {
		t.Fatalf("expected ErrMissingColumns, got %v", err)
	}
	if !strings.Contains(err.Error(), "RawStartPointX") || !strings.Contains(err.Error(), "RawStartPointY") {
		t.Errorf("expected both missing columns listed, got %v", err)
	}
}

func TestDecode_Empty(t *testing.T) {
	tests := map[string]string{
		"no content":  "",
		"blank lines": "\n\n",
		"header only": "HoleName,RawStartPointX,RawStartPointY\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := NewDecoder(EncodingAuto, 0).Decode(strings.NewReader(data), "a.csv")
			if !errors.Is(err, domain.ErrEmptyFile) {
				t.Errorf("expected ErrEmptyFile, got %v", err)
			}
		})
	}
}

func TestDecode_UnsupportedFormat(t *testing.T) {
	_, _, err := NewDecoder(EncodingAuto, 0).Decode(strings.NewReader("x"), "survey.xls")
	if !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestDecode_TooLarge(t *testing.T) {
	data := "HoleName,RawStartPointX,RawStartPointY\nA,1,2\n"
	_, _, err := NewDecoder(EncodingAuto, 10).Decode(strings.NewReader(data), "a.csv")
	if !errors.Is(err, domain.ErrFileTooLarge) {
		t.Errorf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestDecode_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"HoleName", "RawStartPointX", "RawStartPointY", "RawEndPointX", "RawEndPointY"},
		{"BH-1", 4458.914, 7317.3475, 4460.5, 7318},
		{"BH-2", "4470,1", 7330, nil, nil},
	}
	for i, row := range rows {
		cellRef, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cellRef, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}

	got, format, err := NewDecoder(EncodingAuto, 0).Decode(bytes.NewReader(buf.Bytes()), "Survey.XLSX")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if format != FormatXLSX {
		t.Errorf("expected xlsx, got %s", format)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[0].RawStartPointX != "4458.914" || got[0].RawEndPointY != "7318" {
		t.Errorf("unexpected first row %+v", got[0])
	}
	if got[1].RawStartPointX != "4470,1" || got[1].RawEndPointX != nil {
		t.Errorf("unexpected second row %+v", got[1])
	}
}

func TestMapHeader_ExactBeatsSubstring(t *testing.T) {
	cols, err := mapHeader([]string{"RawStartPointX (old)", "HoleName", "RawStartPointX", "RawStartPointY"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cols[domain.FieldRawStartPointX] != 2 {
		t.Errorf("expected exact column 2, got %d", cols[domain.FieldRawStartPointX])
	}
	if _, ok := cols[domain.FieldRawEndPointX]; ok {
		t.Error("expected no end point column")
	}
}

func TestDetectDelimiter(t *testing.T) {
	tests := map[string]rune{
		"a,b,c\n":            ',',
		"a;b;c\n1,5;2,5;3\n": ';',
		"a\tb\tc":            '\t',
		"\"a;b\",c,d\n":      ',',
		"single\n":           ',',
	}
	for in, want := range tests {
		if got := detectDelimiter([]byte(in)); got != want {
			t.Errorf("detectDelimiter(%q): expected %q, got %q", in, want, got)
		}
	}
}

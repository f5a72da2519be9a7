package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var candidateDelimiters = []rune{',', ';', '\t'}

func readCSV(data []byte, enc Encoding) ([][]string, error) {
	text, err := decodeText(data, enc)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = detectDelimiter(text)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return records, nil
}

// decodeText converts data to UTF-8. A byte order mark always wins over the
// configured encoding and is removed.
func decodeText(data []byte, enc Encoding) ([]byte, error) {
	var fallback transform.Transformer = encoding.Nop.NewDecoder()
	switch enc {
	case EncodingWindows1251:
		fallback = charmap.Windows1251.NewDecoder()
	case EncodingAuto:
		if !utf8.Valid(data) {
			fallback = charmap.Windows1251.NewDecoder()
		}
	}

	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), unicode.BOMOverride(fallback)))
	if err != nil {
		return nil, fmt.Errorf("decode csv text: %w", err)
	}
	return out, nil
}

// detectDelimiter picks the candidate that occurs most often, outside quotes,
// on the first non-empty line. Comma is the default.
func detectDelimiter(text []byte) rune {
	var line []byte
	for len(text) > 0 {
		i := bytes.IndexByte(text, '\n')
		if i < 0 {
			line, text = text, nil
		} else {
			line, text = text[:i], text[i+1:]
		}
		if len(bytes.TrimSpace(line)) > 0 {
			break
		}
	}

	counts := make(map[rune]int, len(candidateDelimiters))
	inQuotes := false
	for _, r := range string(line) {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes {
			counts[r]++
		}
	}

	best := ','
	for _, d := range candidateDelimiters {
		if counts[d] > counts[best] {
			best = d
		}
	}
	return best
}

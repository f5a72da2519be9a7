package tabular

import (
	"fmt"
	"strings"

	"github.com/samirrijal/drillmap/internal/core/domain"
)

var canonicalFields = []string{
	domain.FieldHoleName,
	domain.FieldRawStartPointX,
	domain.FieldRawStartPointY,
	domain.FieldRawStartPointZ,
	domain.FieldRawEndPointX,
	domain.FieldRawEndPointY,
	domain.FieldRawEndPointZ,
}

// mapHeader returns the column index of each canonical field found in header.
// Names are compared case-insensitively with spaces, underscores and dashes
// removed. An exact match wins; otherwise the first header containing the
// field name is used, so "RawStartPointX (m)" still maps.
func mapHeader(header []string) (map[string]int, error) {
	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = headerKey(h)
	}

	cols := make(map[string]int, len(canonicalFields))
	taken := make(map[int]bool, len(header))
	for _, field := range canonicalFields {
		want := headerKey(field)
		for i, k := range keys {
			if k == want && !taken[i] {
				cols[field], taken[i] = i, true
				break
			}
		}
	}
	for _, field := range canonicalFields {
		if _, ok := cols[field]; ok {
			continue
		}
		want := headerKey(field)
		for i, k := range keys {
			if !taken[i] && strings.Contains(k, want) {
				cols[field], taken[i] = i, true
				break
			}
		}
	}

	var missing []string
	for _, field := range domain.RequiredFields {
		if _, ok := cols[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrMissingColumns, strings.Join(missing, ", "))
	}
	return cols, nil
}

func headerKey(s string) string {
	s = strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))
	s = strings.ToLower(s)
	return strings.NewReplacer(" ", "", "_", "", "-", "", "\t", "").Replace(s)
}

package natsadapter

import (
	"strings"
	"testing"

	"github.com/samirrijal/drillmap/internal/core/domain"
)

func TestDatasetSubject(t *testing.T) {
	got := DatasetSubject(domain.EventDatasetReprocessed, "0b7c")
	if got != "drillmap.dataset.reprocessed.0b7c" {
		t.Errorf("expected drillmap.dataset.reprocessed.0b7c, got %s", got)
	}
}

func TestDatasetSubject_MatchesStreamWildcard(t *testing.T) {
	for _, typ := range []string{domain.EventDatasetProcessed, domain.EventDatasetReprocessed, domain.EventDatasetDeleted} {
		subj := DatasetSubject(typ, "id")
		if !strings.HasPrefix(subj, strings.TrimSuffix(DatasetSubjectAll, ">")) {
			t.Errorf("subject %s not covered by %s", subj, DatasetSubjectAll)
		}
		if strings.ContainsAny(subj, " *>") {
			t.Errorf("subject %s contains wildcard or space", subj)
		}
	}
}

func TestDatasetSubjectFilter(t *testing.T) {
	tests := []struct {
		eventType, id, want string
	}{
		{"", "", "drillmap.dataset.>"},
		{"deleted", "", "drillmap.dataset.deleted.*"},
		{"", "abc", "drillmap.dataset.*.abc"},
		{"processed", "abc", "drillmap.dataset.processed.abc"},
	}
	for _, tt := range tests {
		if got := DatasetSubjectFilter(tt.eventType, tt.id); got != tt.want {
			t.Errorf("DatasetSubjectFilter(%q, %q): expected %s, got %s", tt.eventType, tt.id, tt.want, got)
		}
	}
}

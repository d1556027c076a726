package feed

import (
	"cmp"
	"fmt"
	"log/slog"
	"unicode"
)

// Bengali is the U+0980–U+09FF Unicode block.
var Bengali = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0x0980, Hi: 0x09FF, Stride: 1}},
}

// Filterer drops candidates written in an excluded script.
type Filterer struct {
	excluded []*unicode.RangeTable
}

func NewFilterer(excluded ...*unicode.RangeTable) *Filterer {
	return &Filterer{excluded: excluded}
}

// NewLanguageFilterer returns the default filter, which rejects Bengali text.
func NewLanguageFilterer() *Filterer {
	return NewFilterer(Bengali)
}

func (f *Filterer) Run(candidates []Candidate) []Candidate {
	if len(f.excluded) == 0 {
		return candidates
	}

	kept := make([]Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		if isFiltered, reason := f.applyFilters(candidate); isFiltered {
			slog.Debug("Candidate filtered", "source", candidate.SourceURL, "reason", reason)
			continue
		}
		kept = append(kept, candidate)
	}

	return kept
}

func (f *Filterer) applyFilters(candidate Candidate) (bool, string) {
	for _, field := range []string{"title", "summary"} {
		if f.containsExcluded(f.getFieldValue(candidate, field)) {
			return true, fmt.Sprintf("Excluded by %s filter: contains excluded script", field)
		}
	}

	return false, ""
}

func (f *Filterer) containsExcluded(value string) bool {
	for _, r := range value {
		if unicode.In(r, f.excluded...) {
			return true
		}
	}
	return false
}

func (f *Filterer) getFieldValue(candidate Candidate, field string) string {
	switch field {
	case "title":
		return candidate.Title
	case "summary":
		return cmp.Or(candidate.body, candidate.Summary)
	default:
		return ""
	}
}

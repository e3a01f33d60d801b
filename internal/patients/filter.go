// Package patients implements the data-loading patient list: a view that
// retrieves a bounded collection once per mount, tracks load status, can be
// torn down mid-flight, and narrows the collection with a live text query.
package patients

import (
	"strings"

	"github.com/me/asilo/pkg/model"
)

// NormalizeQuery trims the query and lowercases it for matching.
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Matches reports whether any searchable field of p contains term. term must
// already be normalized. Empty fields are skipped, so an absent city never
// matches anything.
func Matches(p model.Patient, term string) bool {
	if term == "" {
		return true
	}
	for _, v := range p.SearchFields() {
		if v == "" {
			continue
		}
		if strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return false
}

// Filter returns the records matching query, in their original order. An
// empty or whitespace-only query returns records unchanged.
func Filter(records []model.Patient, query string) []model.Patient {
	term := NormalizeQuery(query)
	if term == "" {
		return records
	}
	out := make([]model.Patient, 0, len(records))
	for _, p := range records {
		if Matches(p, term) {
			out = append(out, p)
		}
	}
	return out
}

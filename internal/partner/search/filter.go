// Package search implements the directory's client-equivalent query pipeline:
// free-text and structured filtering, priority ordering and pagination over an
// in-memory partner list.
package search

import (
	"slices"
	"strings"

	"github.com/gartstein/partnerhub/internal/partner/models"
)

// Matches reports whether p satisfies the free-text query and every non-empty
// filter category. Categories are OR'ed internally and AND'ed together.
//
// The query is a case-insensitive substring match against the name,
// description, industries, focus areas, platforms and service models.
func Matches(p models.Partner, query string, filters models.FilterOptions) bool {
	return matchesQuery(p, query) && matchesFilters(p, filters)
}

// Filter returns the partners that match, preserving input order.
func Filter(partners []models.Partner, query string, filters models.FilterOptions) []models.Partner {
	out := make([]models.Partner, 0, len(partners))
	for _, p := range partners {
		if Matches(p, query, filters) {
			out = append(out, p)
		}
	}
	return out
}

func matchesQuery(p models.Partner, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	if containsFold(p.Name, q) || containsFold(p.Description, q) {
		return true
	}
	for _, field := range [][]string{p.Industries, p.FocusAreas, p.FacebookPlatforms, p.ServiceModels} {
		if slices.ContainsFunc(field, func(v string) bool { return containsFold(v, q) }) {
			return true
		}
	}
	return false
}

func matchesFilters(p models.Partner, f models.FilterOptions) bool {
	if len(f.Products) > 0 && !anyEqualFold(p.FacebookPlatforms, f.Products) {
		return false
	}
	if len(f.PartnerTypes) > 0 && !anyEqualFold(p.ServiceModels, f.PartnerTypes) {
		return false
	}
	if len(f.PricingModels) > 0 && !anyEqualFold(p.ServiceModels, f.PricingModels) {
		return false
	}
	if len(f.Regions) > 0 && !anyExact(p.Countries, f.Regions) {
		return false
	}
	if len(f.KeyServices) > 0 && !anyFragment(f.KeyServices, p.FocusAreas, p.Industries) {
		return false
	}
	return true
}

// anyEqualFold reports whether some value equals some wanted entry, ignoring
// case. Platform and service-model enums arrive in mixed case upstream
// ("WHATSAPP" vs "WhatsApp").
func anyEqualFold(values, wanted []string) bool {
	for _, v := range values {
		for _, w := range wanted {
			if strings.EqualFold(v, w) {
				return true
			}
		}
	}
	return false
}

// Country names are matched exactly.
func anyExact(values, wanted []string) bool {
	for _, v := range values {
		if slices.Contains(wanted, v) {
			return true
		}
	}
	return false
}

// Blank fragments carry no constraint; a set of only blanks matches everything.
func anyFragment(fragments []string, fields ...[]string) bool {
	constrained := false
	for _, frag := range fragments {
		f := strings.ToLower(strings.TrimSpace(frag))
		if f == "" {
			continue
		}
		constrained = true
		for _, field := range fields {
			if slices.ContainsFunc(field, func(v string) bool { return containsFold(v, f) }) {
				return true
			}
		}
	}
	return !constrained
}

// containsFold expects lowerNeedle to be lower-cased already.
func containsFold(haystack, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(haystack), lowerNeedle)
}

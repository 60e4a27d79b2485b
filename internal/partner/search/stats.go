package search

import (
	"slices"

	"github.com/gartstein/partnerhub/internal/partner/models"
)

// ComputeStats aggregates the directory header figures over all partners.
func ComputeStats(partners []models.Partner) models.Stats {
	platforms := make(map[string]struct{})
	countries := make(map[string]struct{})
	saas := 0
	for _, p := range partners {
		if slices.Contains(p.ServiceModels, models.ServiceModelSaaS) {
			saas++
		}
		for _, pl := range p.FacebookPlatforms {
			platforms[pl] = struct{}{}
		}
		for _, c := range p.Countries {
			countries[c] = struct{}{}
		}
	}
	return models.Stats{
		TotalPartners:      len(partners),
		SaaSPartners:       saas,
		PlatformsSupported: len(platforms),
		CountriesCovered:   len(countries),
	}
}

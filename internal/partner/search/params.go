package search

import (
	"fmt"
	"net/url"
	"strings"

	e "github.com/gartstein/partnerhub/internal/partner/errors"
	"github.com/gartstein/partnerhub/internal/partner/models"
	"github.com/gorilla/schema"
)

// ListParams is the REST query shape of the partner listing. Field names
// follow the store's column names, not the FilterOptions names:
//
//	products      -> facebook_platforms
//	partnerTypes  -> service_models (also the legacy service_model)
//	pricingModels -> pricing_models (matched against service models)
//	regions       -> countries
//	keyServices   -> focus_areas | industries (also focus_area, industry)
type ListParams struct {
	Page              int      `schema:"page,omitempty"`
	Search            string   `schema:"search,omitempty"`
	FacebookPlatforms []string `schema:"facebook_platforms,omitempty"`
	ServiceModels     []string `schema:"service_models,omitempty"`
	PricingModels     []string `schema:"pricing_models,omitempty"`
	Countries         []string `schema:"countries,omitempty"`
	FocusAreas        []string `schema:"focus_areas,omitempty"`
	Industries        []string `schema:"industries,omitempty"`
	Industry          string   `schema:"industry,omitempty"`
	FocusArea         string   `schema:"focus_area,omitempty"`
	ServiceModel      string   `schema:"service_model,omitempty"`
	Priority          []string `schema:"priority,omitempty"`
}

var (
	decoder = schema.NewDecoder()
	encoder = schema.NewEncoder()
)

func init() {
	decoder.IgnoreUnknownKeys(true)
}

// ParseListParams decodes a listing query. Malformed values are dropped and
// reported with an ErrValidation-wrapped error alongside the usable params.
func ParseListParams(values url.Values) (ListParams, error) {
	var p ListParams
	if err := decoder.Decode(&p, values); err != nil {
		return p, fmt.Errorf("%w: %v", e.ErrValidation, err)
	}
	return p, nil
}

// Filters maps the REST params onto FilterOptions.
func (p ListParams) Filters() models.FilterOptions {
	f := models.FilterOptions{
		Products:      clean(p.FacebookPlatforms),
		PartnerTypes:  clean(append(append([]string{}, p.ServiceModels...), p.ServiceModel)),
		PricingModels: clean(p.PricingModels),
		Regions:       clean(p.Countries),
		KeyServices:   clean(append(append(append([]string{}, p.FocusAreas...), p.Industries...), p.FocusArea, p.Industry)),
	}
	return f
}

// Query builds the search query for these params.
func (p ListParams) Query(defaultPriority []string) Query {
	priority := clean(p.Priority)
	if len(priority) == 0 {
		priority = defaultPriority
	}
	return Query{
		Text:         p.Search,
		Filters:      p.Filters(),
		Priority:     priority,
		Page:         p.Page,
		ItemsPerPage: ItemsPerPage,
	}
}

// ToListParams is the inverse mapping used when filtering is delegated to the
// REST layer.
func ToListParams(query string, f models.FilterOptions, page int) ListParams {
	return ListParams{
		Page:              page,
		Search:            strings.TrimSpace(query),
		FacebookPlatforms: clean(f.Products),
		ServiceModels:     clean(f.PartnerTypes),
		PricingModels:     clean(f.PricingModels),
		Countries:         clean(f.Regions),
		FocusAreas:        clean(f.KeyServices),
	}
}

// Values encodes the params as a URL query.
func (p ListParams) Values() (url.Values, error) {
	values := url.Values{}
	if err := encoder.Encode(p, values); err != nil {
		return nil, err
	}
	return values, nil
}

func clean(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

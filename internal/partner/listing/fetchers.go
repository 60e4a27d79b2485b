package listing

import (
	"context"

	"github.com/gartstein/partnerhub/internal/partner/models"
	"github.com/gartstein/partnerhub/internal/partner/search"
)

// PartnerSource yields the full partner collection, e.g. the partner cache.
type PartnerSource interface {
	Get(ctx context.Context) ([]models.Partner, error)
}

// CacheFetcher filters, orders and pages the full collection locally.
type CacheFetcher struct {
	Source       PartnerSource
	ItemsPerPage int
}

func (f CacheFetcher) FetchPage(ctx context.Context, params Params, page int) (search.Page, error) {
	partners, err := f.Source.Get(ctx)
	if err != nil {
		return search.Page{}, err
	}
	return search.Run(partners, search.Query{
		Text:         params.Search,
		Filters:      params.Filters,
		Priority:     params.Priority,
		Page:         page,
		ItemsPerPage: f.ItemsPerPage,
	}), nil
}

// PartnerAPI lists partners with server-side filtering.
type PartnerAPI interface {
	ListPartners(ctx context.Context, params search.ListParams) (search.Page, error)
}

// APIFetcher delegates filtering and paging to the partner API.
type APIFetcher struct {
	API PartnerAPI
}

func (f APIFetcher) FetchPage(ctx context.Context, params Params, page int) (search.Page, error) {
	lp := search.ToListParams(params.Search, params.Filters, page)
	lp.Priority = params.Priority
	return f.API.ListPartners(ctx, lp)
}

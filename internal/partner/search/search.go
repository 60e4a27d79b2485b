package search

import (
	"fmt"

	e "github.com/gartstein/partnerhub/internal/partner/errors"
	"github.com/gartstein/partnerhub/internal/partner/models"
)

// Query bundles everything that determines a result page.
type Query struct {
	Text         string
	Filters      models.FilterOptions
	Priority     []string
	Page         int
	ItemsPerPage int
}

// Validate reports paging input that Run would have to clamp. The error wraps
// ErrValidation; it is informational and never prevents a search.
func (q Query) Validate() error {
	if q.Page < 1 {
		return fmt.Errorf("%w: page %d clamped to 1", e.ErrValidation, q.Page)
	}
	if q.ItemsPerPage < 0 {
		return fmt.Errorf("%w: items per page %d replaced by %d", e.ErrValidation, q.ItemsPerPage, ItemsPerPage)
	}
	return nil
}

// Run filters, priority-orders and paginates partners.
func Run(partners []models.Partner, q Query) Page {
	matched := Filter(partners, q.Text, q.Filters)
	ordered := ApplyPriorityOrder(matched, q.Priority)
	return Paginate(ordered, q.Page, q.ItemsPerPage)
}

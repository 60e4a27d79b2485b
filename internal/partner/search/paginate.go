package search

import (
	"github.com/gartstein/partnerhub/internal/partner/models"
)

// ItemsPerPage is the fixed directory page size.
const ItemsPerPage = 12

// Page is one slice of a filtered, ordered partner list.
type Page struct {
	Items       []models.Partner `json:"items"`
	HasMore     bool             `json:"hasMore"`
	TotalCount  int              `json:"totalCount"`
	CurrentPage int              `json:"currentPage"`
	TotalPages  int              `json:"totalPages"`
}

// Paginate returns page (1-based) of partners. A page below 1 is clamped to 1
// and a non-positive itemsPerPage falls back to ItemsPerPage. Pages past the
// end yield no items.
func Paginate(partners []models.Partner, page, itemsPerPage int) Page {
	page, itemsPerPage = sanitize(page, itemsPerPage)

	total := len(partners)
	start := min((page-1)*itemsPerPage, total)
	end := min(page*itemsPerPage, total)

	items := make([]models.Partner, end-start)
	copy(items, partners[start:end])

	return Page{
		Items:       items,
		HasMore:     page*itemsPerPage < total,
		TotalCount:  total,
		CurrentPage: page,
		TotalPages:  (total + itemsPerPage - 1) / itemsPerPage,
	}
}

func sanitize(page, itemsPerPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if itemsPerPage < 1 {
		itemsPerPage = ItemsPerPage
	}
	return page, itemsPerPage
}

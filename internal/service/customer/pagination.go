// internal/service/customer/pagination.go
package customer

import "retention-service/internal/domain/customer"

const DefaultPageSize = 700

// Page is one slice of a result set.
type Page struct {
	Items      []customer.Customer
	Page       int
	PageSize   int
	Total      int
	TotalPages int
}

// Paginate returns the 1-based page of items. A page past the end clamps to
// the last page, so a non-empty input never yields an empty page.
func Paginate(items []customer.Customer, page, size int) Page {
	if size < 1 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	total := len(items)
	totalPages := max(1, (total+size-1)/size)
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * size
	end := min(start+size, total)
	return Page{
		Items:      items[start:end:end],
		Page:       page,
		PageSize:   size,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Authoritative picks the collection the UI should page through: the
// filtered output when some predicate is active, otherwise the raw store.
func Authoritative(store, filtered []customer.Customer, state *customer.FilterState) []customer.Customer {
	if state != nil && state.Active() {
		return filtered
	}
	return store
}

package domain

// Page is the paginated envelope handed to the presentation layer.
// Pages are 1-based; PageCount is ceil(Total/limit).
type Page[T any] struct {
	Items     []T  `json:"items"`
	Total     int  `json:"total"`
	Page      int  `json:"page"`
	PageCount int  `json:"page_count"`
	HasNext   bool `json:"has_next"`
	HasPrev   bool `json:"has_prev"`
}

// NewPage assembles the envelope around one page of items.
func NewPage[T any](items []T, total, page, limit int) *Page[T] {
	if page < 1 {
		page = 1
	}
	pageCount := 0
	if limit > 0 {
		pageCount = (total + limit - 1) / limit
	}
	return &Page[T]{
		Items:     items,
		Total:     total,
		Page:      page,
		PageCount: pageCount,
		HasNext:   page < pageCount,
		HasPrev:   page > 1 && total > 0,
	}
}

// PageOffset returns the number of rows to skip for a 1-based page.
func PageOffset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}

package response

// Pagination describes one page of an in-memory list. From and To are
// 1-based and inclusive; From is 0 when the page is empty.
type Pagination struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	TotalPages int  `json:"total_pages"`
	TotalItems int  `json:"total_items"`
	HasMore    bool `json:"has_more"`
	From       int  `json:"from"`
	To         int  `json:"to"`
}

// NewPagination clamps page to at least 1. A pageSize below 1 puts every item
// on a single page.
func NewPagination(page, pageSize, total int) *Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = max(total, 1)
	}
	start := min((page-1)*pageSize, total)
	end := min(start+pageSize, total)

	p := &Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: (total + pageSize - 1) / pageSize,
		HasMore:    end < total,
		To:         end,
	}
	if start < end {
		p.From = start + 1
	}
	return p
}

// Bounds returns the half-open slice range [lo, hi) of the page.
func (p *Pagination) Bounds() (lo, hi int) {
	if p.From == 0 {
		return p.To, p.To
	}
	return p.From - 1, p.To
}

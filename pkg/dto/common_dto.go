package dto

type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalItems  int64 `json:"total_items"`
	Limit       int   `json:"limit"`
}

// NewPaginationMeta derives page metadata from a total row count.
func NewPaginationMeta(page, limit int, total int64) PaginationMeta {
	totalPages := int(total) / limit
	if int(total)%limit != 0 {
		totalPages++
	}
	return PaginationMeta{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  total,
		Limit:       limit,
	}
}

type PageQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// Normalize clamps page/limit to sane values.
func (q *PageQuery) Normalize(defaultLimit, maxLimit int) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
}

func (q PageQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

type IDUri struct {
	ID string `uri:"id" binding:"required,uuid"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// ImportSummary is the shared shape of spreadsheet import results: the
// import never aborts on a bad row, it tallies and reports.
type ImportSummary struct {
	Message string   `json:"message"`
	Total   int      `json:"total"`
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

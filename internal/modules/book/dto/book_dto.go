package dto

import (
	"time"

	commonDto "anoa.com/perpussekolah/pkg/dto"
	"github.com/google/uuid"
)

type BookResponse struct {
	ID           uuid.UUID `json:"id"`
	BookCode     string    `json:"book_code"`
	ISBN         *string   `json:"isbn"`
	Title        string    `json:"title"`
	Publisher    *string   `json:"publisher"`
	Author       *string   `json:"author"`
	LocationRack *string   `json:"location_rack"`
	PublishYear  *int      `json:"publish_year"`
	Stock        int       `json:"stock"`
	Abstract     *string   `json:"abstract"`
	CoverURL     *string   `json:"cover_url"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CreateBookRequest struct {
	BookCode     string  `json:"bookCode" binding:"required"`
	ISBN         *string `json:"isbn,omitempty"`
	Title        string  `json:"title" binding:"required"`
	Publisher    *string `json:"publisher,omitempty"`
	Author       *string `json:"author,omitempty"`
	LocationRack *string `json:"locationRack,omitempty"`
	PublishYear  *int    `json:"publishYear,omitempty"`
	Stock        *int    `json:"stock,omitempty"`
	Abstract     *string `json:"abstract,omitempty"`
}

type UpdateBookRequest struct {
	BookCode     *string `json:"bookCode,omitempty"`
	ISBN         *string `json:"isbn,omitempty"`
	Title        *string `json:"title,omitempty"`
	Publisher    *string `json:"publisher,omitempty"`
	Author       *string `json:"author,omitempty"`
	LocationRack *string `json:"locationRack,omitempty"`
	PublishYear  *int    `json:"publishYear,omitempty"`
	Stock        *int    `json:"stock,omitempty"`
	Abstract     *string `json:"abstract,omitempty"`
}

type ListBooksQuery struct {
	commonDto.PageQuery
	Search string `form:"search"`
}

type ListBooksResponse struct {
	Books      []BookResponse           `json:"books"`
	Pagination commonDto.PaginationMeta `json:"pagination"`
}

type PublicSearchQuery struct {
	commonDto.PageQuery
	Q        string `form:"q"`
	SearchBy string `form:"searchBy"`
}

type SearchStatistics struct {
	TotalBooks       int64 `json:"total_books"`
	TotalStock       int   `json:"total_stock"`
	UniquePublishers int   `json:"unique_publishers"`
	UniqueYears      int   `json:"unique_years"`
	UniqueLocations  int   `json:"unique_locations"`
}

type SearchPagination struct {
	Total       int64 `json:"total"`
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalPages  int   `json:"total_pages"`
	HasNextPage bool  `json:"has_next_page"`
	HasPrevPage bool  `json:"has_prev_page"`
}

type SearchInfo struct {
	Query        string `json:"query"`
	SearchBy     string `json:"search_by"`
	ResultsCount int    `json:"results_count"`
}

type PublicSearchResponse struct {
	Books      []BookResponse   `json:"books"`
	Pagination SearchPagination `json:"pagination"`
	Statistics SearchStatistics `json:"statistics"`
	SearchInfo SearchInfo       `json:"search_info"`
}

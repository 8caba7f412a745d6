package dto

import (
	"time"

	bookDto "anoa.com/perpussekolah/internal/modules/book/dto"
	commonDto "anoa.com/perpussekolah/pkg/dto"
	"github.com/google/uuid"
)

type CreateBorrowingRequest struct {
	UserID  string     `json:"userId" binding:"required,uuid"`
	BookID  string     `json:"bookId" binding:"required,uuid"`
	DueDate *time.Time `json:"dueDate,omitempty"`
}

type BorrowingResponse struct {
	ID         uuid.UUID             `json:"id"`
	UserID     uuid.UUID             `json:"user_id"`
	BookID     uuid.UUID             `json:"book_id"`
	Book       *bookDto.BookResponse `json:"book,omitempty"`
	Status     string                `json:"status"`
	BorrowedAt time.Time             `json:"borrowed_at"`
	DueDate    *time.Time            `json:"due_date"`
	ReturnedAt *time.Time            `json:"returned_at"`
}

type ListBorrowingsQuery struct {
	commonDto.PageQuery
	Status string `form:"status"`
}

type ListBorrowingsResponse struct {
	Borrowings []BorrowingResponse      `json:"borrowings"`
	Pagination commonDto.PaginationMeta `json:"pagination"`
}

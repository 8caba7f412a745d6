package repository

import (
	"context"
	"errors"

	"anoa.com/perpussekolah/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SearchFields names the columns the free-text catalog search spans.
var SearchFields = []string{"title", "book_code", "author", "isbn", "publisher"}

type BookFilter struct {
	// Search is matched case-insensitively as a substring.
	Search string
	// Field restricts the match to one column of SearchFields; empty means
	// all of them.
	Field  string
	Offset int
	Limit  int
}

type BookRepository interface {
	Create(ctx context.Context, book *model.Book) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Book, error)
	// FindByCode returns (nil, nil) when no book has the code.
	FindByCode(ctx context.Context, code string) (*model.Book, error)
	Search(ctx context.Context, filter BookFilter) ([]model.Book, int64, error)
	Update(ctx context.Context, book *model.Book) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountActiveBorrowings(ctx context.Context, bookID uuid.UUID) (int64, error)
}

type bookRepository struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) Create(ctx context.Context, book *model.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

func (r *bookRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	var book model.Book
	if err := r.db.WithContext(ctx).First(&book, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *bookRepository) FindByCode(ctx context.Context, code string) (*model.Book, error) {
	var book model.Book
	err := r.db.WithContext(ctx).Where("book_code = ?", code).First(&book).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &book, nil
}

func (r *bookRepository) Search(ctx context.Context, filter BookFilter) ([]model.Book, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Book{})

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		if filter.Field != "" {
			query = query.Where(filter.Field+" ILIKE ?", pattern)
		} else {
			or := r.db.Where(SearchFields[0]+" ILIKE ?", pattern)
			for _, f := range SearchFields[1:] {
				or = or.Or(f+" ILIKE ?", pattern)
			}
			query = query.Where(or)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var books []model.Book
	err := query.
		Order("created_at DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&books).Error
	return books, total, err
}

func (r *bookRepository) Update(ctx context.Context, book *model.Book) error {
	return r.db.WithContext(ctx).Save(book).Error
}

func (r *bookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Book{}, "id = ?", id).Error
}

func (r *bookRepository) CountActiveBorrowings(ctx context.Context, bookID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Borrowing{}).
		Where("book_id = ? AND status = ?", bookID, model.BorrowingStatusActive).
		Count(&count).Error
	return count, err
}

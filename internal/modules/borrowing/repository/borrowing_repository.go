package repository

import (
	"context"
	"errors"

	"anoa.com/perpussekolah/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BorrowingFilter struct {
	Status string
	Offset int
	Limit  int
}

type BorrowingRepository interface {
	InTx(ctx context.Context, fn func(repo BorrowingRepository) error) error
	Create(ctx context.Context, borrowing *model.Borrowing) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Borrowing, error)
	FindActiveByUserAndBook(ctx context.Context, userID, bookID uuid.UUID) (*model.Borrowing, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]model.Borrowing, error)
	FindAll(ctx context.Context, filter BorrowingFilter) ([]model.Borrowing, int64, error)
	CountActiveByBook(ctx context.Context, bookID uuid.UUID) (int64, error)
	Update(ctx context.Context, borrowing *model.Borrowing) error
}

type borrowingRepository struct {
	db *gorm.DB
}

func NewBorrowingRepository(db *gorm.DB) BorrowingRepository {
	return &borrowingRepository{db: db}
}

func (r *borrowingRepository) InTx(ctx context.Context, fn func(repo BorrowingRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&borrowingRepository{db: tx})
	})
}

func (r *borrowingRepository) Create(ctx context.Context, borrowing *model.Borrowing) error {
	return r.db.WithContext(ctx).Create(borrowing).Error
}

func (r *borrowingRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Borrowing, error) {
	var borrowing model.Borrowing
	err := r.db.WithContext(ctx).
		Preload("Book").
		First(&borrowing, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &borrowing, nil
}

func (r *borrowingRepository) FindActiveByUserAndBook(ctx context.Context, userID, bookID uuid.UUID) (*model.Borrowing, error) {
	var borrowing model.Borrowing
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ? AND status = ?", userID, bookID, model.BorrowingStatusActive).
		First(&borrowing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &borrowing, nil
}

func (r *borrowingRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]model.Borrowing, error) {
	var borrowings []model.Borrowing
	err := r.db.WithContext(ctx).
		Preload("Book").
		Where("user_id = ?", userID).
		Order("borrowed_at DESC").
		Find(&borrowings).Error
	return borrowings, err
}

func (r *borrowingRepository) FindAll(ctx context.Context, filter BorrowingFilter) ([]model.Borrowing, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Borrowing{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var borrowings []model.Borrowing
	err := query.
		Preload("Book").
		Order("borrowed_at DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&borrowings).Error
	if err != nil {
		return nil, 0, err
	}
	return borrowings, total, nil
}

func (r *borrowingRepository) CountActiveByBook(ctx context.Context, bookID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Borrowing{}).
		Where("book_id = ? AND status = ?", bookID, model.BorrowingStatusActive).
		Count(&count).Error
	return count, err
}

func (r *borrowingRepository) Update(ctx context.Context, borrowing *model.Borrowing) error {
	return r.db.WithContext(ctx).Save(borrowing).Error
}

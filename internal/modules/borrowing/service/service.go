package borrowing

import (
	"context"
	"errors"
	"time"

	"anoa.com/perpussekolah/internal/model"
	bookDto "anoa.com/perpussekolah/internal/modules/book/dto"
	bookRepo "anoa.com/perpussekolah/internal/modules/book/repository"
	"anoa.com/perpussekolah/internal/modules/borrowing/dto"
	"anoa.com/perpussekolah/internal/modules/borrowing/repository"
	userRepo "anoa.com/perpussekolah/internal/modules/user/repository"
	"anoa.com/perpussekolah/pkg/apperror"
	commonDto "anoa.com/perpussekolah/pkg/dto"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type BorrowingService interface {
	Borrow(ctx context.Context, req dto.CreateBorrowingRequest) (*dto.BorrowingResponse, error)
	Return(ctx context.Context, id string) (*dto.BorrowingResponse, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]dto.BorrowingResponse, error)
	ListAll(ctx context.Context, query dto.ListBorrowingsQuery) (*dto.ListBorrowingsResponse, error)
}

type borrowingService struct {
	repo     repository.BorrowingRepository
	bookRepo bookRepo.BookRepository
	userRepo userRepo.UserRepository
}

func NewBorrowingService(repo repository.BorrowingRepository, bookRepo bookRepo.BookRepository, userRepo userRepo.UserRepository) BorrowingService {
	return &borrowingService{repo: repo, bookRepo: bookRepo, userRepo: userRepo}
}

// Borrow hands a copy to a user. The availability check and the insert run
// in one transaction so two concurrent requests cannot both take the last copy.
func (s *borrowingService) Borrow(ctx context.Context, req dto.CreateBorrowingRequest) (*dto.BorrowingResponse, error) {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, apperror.BadRequest("id user tidak valid")
	}
	bookID, err := uuid.Parse(req.BookID)
	if err != nil {
		return nil, apperror.BadRequest("id buku tidak valid")
	}

	user, err := s.userRepo.FindByID(ctx, userID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user tidak ditemukan")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperror.BadRequest("akun user sudah tidak aktif")
	}

	book, err := s.bookRepo.FindByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Buku tidak ditemukan")
		}
		return nil, err
	}

	borrowing := &model.Borrowing{
		UserID:     userID,
		BookID:     bookID,
		Status:     model.BorrowingStatusActive,
		BorrowedAt: time.Now(),
		DueDate:    req.DueDate,
	}

	err = s.repo.InTx(ctx, func(tx repository.BorrowingRepository) error {
		existing, err := tx.FindActiveByUserAndBook(ctx, userID, bookID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperror.BadRequest("User masih meminjam buku ini")
		}

		active, err := tx.CountActiveByBook(ctx, bookID)
		if err != nil {
			return err
		}
		if active >= int64(book.Stock) {
			return apperror.BadRequest("Stok buku tidak tersedia")
		}

		return tx.Create(ctx, borrowing)
	})
	if err != nil {
		return nil, err
	}

	borrowing.Book = *book
	res := toBorrowingResponse(borrowing)
	return &res, nil
}

func (s *borrowingService) Return(ctx context.Context, id string) (*dto.BorrowingResponse, error) {
	borrowingID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.BadRequest("id peminjaman tidak valid")
	}

	borrowing, err := s.repo.FindByID(ctx, borrowingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Data peminjaman tidak ditemukan")
		}
		return nil, err
	}
	if borrowing.Status == model.BorrowingStatusReturned {
		return nil, apperror.BadRequest("Buku sudah dikembalikan")
	}

	now := time.Now()
	borrowing.Status = model.BorrowingStatusReturned
	borrowing.ReturnedAt = &now
	if err := s.repo.Update(ctx, borrowing); err != nil {
		return nil, err
	}

	res := toBorrowingResponse(borrowing)
	return &res, nil
}

func (s *borrowingService) ListByUser(ctx context.Context, userID uuid.UUID) ([]dto.BorrowingResponse, error) {
	borrowings, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toBorrowingResponses(borrowings), nil
}

func (s *borrowingService) ListAll(ctx context.Context, query dto.ListBorrowingsQuery) (*dto.ListBorrowingsResponse, error) {
	query.Normalize(defaultPageSize, maxPageSize)

	status := query.Status
	if status != model.BorrowingStatusActive && status != model.BorrowingStatusReturned {
		status = ""
	}

	borrowings, total, err := s.repo.FindAll(ctx, repository.BorrowingFilter{
		Status: status,
		Offset: query.Offset(),
		Limit:  query.Limit,
	})
	if err != nil {
		return nil, err
	}

	return &dto.ListBorrowingsResponse{
		Borrowings: toBorrowingResponses(borrowings),
		Pagination: commonDto.NewPaginationMeta(query.Page, query.Limit, total),
	}, nil
}

func toBorrowingResponse(borrowing *model.Borrowing) dto.BorrowingResponse {
	res := dto.BorrowingResponse{
		ID:         borrowing.ID,
		UserID:     borrowing.UserID,
		BookID:     borrowing.BookID,
		Status:     borrowing.Status,
		BorrowedAt: borrowing.BorrowedAt,
		DueDate:    borrowing.DueDate,
		ReturnedAt: borrowing.ReturnedAt,
	}
	if borrowing.Book.ID != uuid.Nil {
		res.Book = &bookDto.BookResponse{
			ID:           borrowing.Book.ID,
			BookCode:     borrowing.Book.BookCode,
			ISBN:         borrowing.Book.ISBN,
			Title:        borrowing.Book.Title,
			Publisher:    borrowing.Book.Publisher,
			Author:       borrowing.Book.Author,
			LocationRack: borrowing.Book.LocationRack,
			PublishYear:  borrowing.Book.PublishYear,
			Stock:        borrowing.Book.Stock,
			Abstract:     borrowing.Book.Abstract,
			CoverURL:     borrowing.Book.CoverURL,
			CreatedAt:    borrowing.Book.CreatedAt,
			UpdatedAt:    borrowing.Book.UpdatedAt,
		}
	}
	return res
}

func toBorrowingResponses(borrowings []model.Borrowing) []dto.BorrowingResponse {
	responses := make([]dto.BorrowingResponse, 0, len(borrowings))
	for i := range borrowings {
		responses = append(responses, toBorrowingResponse(&borrowings[i]))
	}
	return responses
}

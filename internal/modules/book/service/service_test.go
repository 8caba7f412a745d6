package book

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"anoa.com/perpussekolah/internal/model"
	"anoa.com/perpussekolah/internal/modules/book/dto"
	"anoa.com/perpussekolah/internal/modules/book/repository"
	search "anoa.com/perpussekolah/internal/modules/search/service"
	"anoa.com/perpussekolah/pkg/apperror"
	commonDto "anoa.com/perpussekolah/pkg/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type fakeBookRepo struct {
	books            map[uuid.UUID]*model.Book
	activeBorrowings map[uuid.UUID]int64
}

func newFakeBookRepo() *fakeBookRepo {
	return &fakeBookRepo{
		books:            map[uuid.UUID]*model.Book{},
		activeBorrowings: map[uuid.UUID]int64{},
	}
}

func (f *fakeBookRepo) Create(ctx context.Context, book *model.Book) error {
	for _, b := range f.books {
		if b.BookCode == book.BookCode {
			return gorm.ErrDuplicatedKey
		}
	}
	book.ID = uuid.New()
	copied := *book
	f.books[book.ID] = &copied
	return nil
}

func (f *fakeBookRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	if b, ok := f.books[id]; ok {
		copied := *b
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeBookRepo) FindByCode(ctx context.Context, code string) (*model.Book, error) {
	for _, b := range f.books {
		if b.BookCode == code {
			copied := *b
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeBookRepo) Search(ctx context.Context, filter repository.BookFilter) ([]model.Book, int64, error) {
	var matched []model.Book
	for _, b := range f.books {
		if filter.Search == "" || strings.Contains(strings.ToLower(b.Title), strings.ToLower(filter.Search)) {
			matched = append(matched, *b)
		}
	}
	total := int64(len(matched))

	if filter.Offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (f *fakeBookRepo) Update(ctx context.Context, book *model.Book) error {
	copied := *book
	f.books[book.ID] = &copied
	return nil
}

func (f *fakeBookRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.books, id)
	return nil
}

func (f *fakeBookRepo) CountActiveBorrowings(ctx context.Context, bookID uuid.UUID) (int64, error) {
	return f.activeBorrowings[bookID], nil
}

type fakeIndexer struct {
	indexed []string
	deleted []string
}

func (f *fakeIndexer) Enabled() bool { return false }

func (f *fakeIndexer) IndexBook(book *model.Book) error {
	f.indexed = append(f.indexed, book.BookCode)
	return nil
}

func (f *fakeIndexer) IndexBooks(books []model.Book) error {
	for i := range books {
		f.indexed = append(f.indexed, books[i].BookCode)
	}
	return nil
}

func (f *fakeIndexer) DeleteBook(id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeIndexer) Search(query string, page, limit int) ([]search.BookDoc, int64, error) {
	return nil, 0, nil
}

func newTestService(repo *fakeBookRepo) (BookService, *fakeIndexer) {
	idx := &fakeIndexer{}
	return NewBookService(repo, idx, nil, "book_covers"), idx
}

func TestCreateBook_DuplicateCode(t *testing.T) {
	repo := newFakeBookRepo()
	svc, _ := newTestService(repo)

	_, err := svc.CreateBook(context.Background(), dto.CreateBookRequest{BookCode: "BK-001", Title: "Laskar Pelangi"})
	require.NoError(t, err)

	_, err = svc.CreateBook(context.Background(), dto.CreateBookRequest{BookCode: "BK-001", Title: "Lain"})
	require.Error(t, err)
	assert.Equal(t, 400, apperror.MapErrorToStatus(err))
	assert.Contains(t, err.Error(), "sudah terdaftar")
}

func TestCreateBook_IndexesTheBook(t *testing.T) {
	repo := newFakeBookRepo()
	svc, idx := newTestService(repo)

	res, err := svc.CreateBook(context.Background(), dto.CreateBookRequest{BookCode: "BK-002", Title: "Bumi Manusia"})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, res.ID)
	assert.Contains(t, idx.indexed, "BK-002")
}

func TestUpdateBook_DuplicateCodeGuard(t *testing.T) {
	repo := newFakeBookRepo()
	svc, _ := newTestService(repo)

	first, err := svc.CreateBook(context.Background(), dto.CreateBookRequest{BookCode: "BK-001", Title: "Satu"})
	require.NoError(t, err)
	_, err = svc.CreateBook(context.Background(), dto.CreateBookRequest{BookCode: "BK-002", Title: "Dua"})
	require.NoError(t, err)

	dup := "BK-002"
	_, err = svc.UpdateBook(context.Background(), first.ID.String(), dto.UpdateBookRequest{BookCode: &dup})
	require.Error(t, err)
	assert.Equal(t, 400, apperror.MapErrorToStatus(err))
	assert.Contains(t, err.Error(), "sudah digunakan")
}

func TestDeleteBook_BlockedWhileBorrowed(t *testing.T) {
	repo := newFakeBookRepo()
	svc, _ := newTestService(repo)

	created, err := svc.CreateBook(context.Background(), dto.CreateBookRequest{BookCode: "BK-001", Title: "Satu"})
	require.NoError(t, err)
	repo.activeBorrowings[created.ID] = 1

	err = svc.DeleteBook(context.Background(), created.ID.String())
	require.Error(t, err)
	assert.Equal(t, 400, apperror.MapErrorToStatus(err))
	assert.Contains(t, err.Error(), "sedang dipinjam")
	assert.Contains(t, repo.books, created.ID)
}

func TestDeleteBook_RemovesFromIndex(t *testing.T) {
	repo := newFakeBookRepo()
	svc, idx := newTestService(repo)

	created, err := svc.CreateBook(context.Background(), dto.CreateBookRequest{BookCode: "BK-001", Title: "Satu"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBook(context.Background(), created.ID.String()))
	assert.NotContains(t, repo.books, created.ID)
	assert.Contains(t, idx.deleted, created.ID.String())
}

func TestListBooks_Paginates(t *testing.T) {
	repo := newFakeBookRepo()
	svc, _ := newTestService(repo)

	titles := []string{"Satu", "Dua", "Tiga", "Empat", "Lima"}
	for i, title := range titles {
		_, err := svc.CreateBook(context.Background(), dto.CreateBookRequest{
			BookCode: fmt.Sprintf("BK-%03d", i+1),
			Title:    title,
		})
		require.NoError(t, err)
	}

	res, err := svc.ListBooks(context.Background(), dto.ListBooksQuery{
		PageQuery: commonDto.PageQuery{Page: 2, Limit: 2},
	})
	require.NoError(t, err)

	assert.Len(t, res.Books, 2)
	assert.Equal(t, int64(5), res.Pagination.TotalItems)
	assert.Equal(t, 3, res.Pagination.TotalPages)
	assert.Equal(t, 2, res.Pagination.CurrentPage)
	assert.Equal(t, 2, res.Pagination.Limit)
}

func TestGetBook_NotFound(t *testing.T) {
	svc, _ := newTestService(newFakeBookRepo())

	_, err := svc.GetBook(context.Background(), uuid.NewString())
	require.Error(t, err)
	assert.Equal(t, 404, apperror.MapErrorToStatus(err))
}

func buildCatalogXLSX(t *testing.T, rows [][]interface{}) io.Reader {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, val := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, val))
		}
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func TestImportBooks_CreatesAndUpserts(t *testing.T) {
	repo := newFakeBookRepo()
	svc, idx := newTestService(repo)

	existing, err := svc.CreateBook(context.Background(), dto.CreateBookRequest{BookCode: "BK-001", Title: "Judul Lama"})
	require.NoError(t, err)

	file := buildCatalogXLSX(t, [][]interface{}{
		{"Kode Buku", "Judul Buku", "Pengarang", "Tahun Terbit", "Stok"},
		{"BK-001", "Judul Baru", "Tere Liye", 2020, 5},
		{"BK-002", "Buku Kedua", "Andrea Hirata", 2008, 3},
	})

	summary, err := svc.ImportBooks(context.Background(), file)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 2, summary.Success)
	assert.Zero(t, summary.Failed)

	updated, err := repo.FindByID(context.Background(), existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Judul Baru", updated.Title)
	assert.Equal(t, 5, updated.Stock)

	assert.Len(t, repo.books, 2)
	assert.Contains(t, idx.indexed, "BK-002")
}

func TestImportBooks_RowValidation(t *testing.T) {
	repo := newFakeBookRepo()
	svc, _ := newTestService(repo)

	file := buildCatalogXLSX(t, [][]interface{}{
		{"bookCode", "title", "publishYear", "stock"},
		{"", "Tanpa Kode", 2020, 1},
		{"BK-010", "", 2020, 1},
		{"BK-011", "Tahun Rusak", "dua ribu", 1},
		{"BK-012", "Stok Rusak", 2020, "banyak"},
		{"BK-013", "Valid", 2020, 2},
	})

	summary, err := svc.ImportBooks(context.Background(), file)
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 1, summary.Success)
	assert.Equal(t, 4, summary.Failed)
	assert.Len(t, repo.books, 1)
}

func TestPublicSearch_FallsBackToDatabase(t *testing.T) {
	repo := newFakeBookRepo()
	svc, _ := newTestService(repo)

	publisher := "Gramedia"
	year := 2008
	rack := "A1"
	stock := 4
	_, err := svc.CreateBook(context.Background(), dto.CreateBookRequest{
		BookCode: "BK-001", Title: "Laskar Pelangi",
		Publisher: &publisher, PublishYear: &year, LocationRack: &rack, Stock: &stock,
	})
	require.NoError(t, err)
	_, err = svc.CreateBook(context.Background(), dto.CreateBookRequest{BookCode: "BK-002", Title: "Bumi Manusia"})
	require.NoError(t, err)

	res, err := svc.PublicSearch(context.Background(), dto.PublicSearchQuery{Q: "laskar"})
	require.NoError(t, err)

	require.Len(t, res.Books, 1)
	assert.Equal(t, "Laskar Pelangi", res.Books[0].Title)
	assert.Equal(t, int64(1), res.Pagination.Total)
	assert.Equal(t, 1, res.Pagination.TotalPages)
	assert.False(t, res.Pagination.HasNextPage)
	assert.Equal(t, "all", res.SearchInfo.SearchBy)
	assert.Equal(t, 1, res.SearchInfo.ResultsCount)
	assert.Equal(t, 4, res.Statistics.TotalStock)
	assert.Equal(t, 1, res.Statistics.UniquePublishers)
	assert.Equal(t, 1, res.Statistics.UniqueYears)
}

func TestPublicSearch_InvalidSearchByFallsBackToAll(t *testing.T) {
	svc, _ := newTestService(newFakeBookRepo())

	res, err := svc.PublicSearch(context.Background(), dto.PublicSearchQuery{Q: "", SearchBy: "sihir"})
	require.NoError(t, err)
	assert.Equal(t, "all", res.SearchInfo.SearchBy)
}

package book

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"

	"anoa.com/perpussekolah/internal/model"
	"anoa.com/perpussekolah/internal/modules/book/dto"
	"anoa.com/perpussekolah/internal/modules/book/repository"
	search "anoa.com/perpussekolah/internal/modules/search/service"
	"anoa.com/perpussekolah/pkg/apperror"
	commonDto "anoa.com/perpussekolah/pkg/dto"
	"anoa.com/perpussekolah/pkg/spreadsheet"
	"anoa.com/perpussekolah/pkg/storage"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 10
	searchPageSize  = 20
	maxPageSize     = 100
	maxImportErrors = 10
)

// searchByColumns maps the public searchBy parameter onto catalog columns.
var searchByColumns = map[string]string{
	"title":     "title",
	"author":    "author",
	"isbn":      "isbn",
	"bookCode":  "book_code",
	"publisher": "publisher",
}

type BookService interface {
	ListBooks(ctx context.Context, query dto.ListBooksQuery) (*dto.ListBooksResponse, error)
	GetBook(ctx context.Context, id string) (*dto.BookResponse, error)
	CreateBook(ctx context.Context, req dto.CreateBookRequest) (*dto.BookResponse, error)
	UpdateBook(ctx context.Context, id string, req dto.UpdateBookRequest) (*dto.BookResponse, error)
	DeleteBook(ctx context.Context, id string) error
	ImportBooks(ctx context.Context, file io.Reader) (*commonDto.ImportSummary, error)
	UploadCover(ctx context.Context, id string, file io.Reader, fileName string) (*dto.BookResponse, error)
	PublicSearch(ctx context.Context, query dto.PublicSearchQuery) (*dto.PublicSearchResponse, error)
}

type bookService struct {
	repo         repository.BookRepository
	indexer      search.BookIndexService
	imageStorage storage.ImageStorage
	coverFolder  string
}

func NewBookService(repo repository.BookRepository, indexer search.BookIndexService, imageStorage storage.ImageStorage, coverFolder string) BookService {
	return &bookService{
		repo:         repo,
		indexer:      indexer,
		imageStorage: imageStorage,
		coverFolder:  coverFolder,
	}
}

func (s *bookService) ListBooks(ctx context.Context, query dto.ListBooksQuery) (*dto.ListBooksResponse, error) {
	query.Normalize(defaultPageSize, maxPageSize)

	books, total, err := s.repo.Search(ctx, repository.BookFilter{
		Search: query.Search,
		Offset: query.Offset(),
		Limit:  query.Limit,
	})
	if err != nil {
		return nil, err
	}

	return &dto.ListBooksResponse{
		Books:      toBookResponses(books),
		Pagination: commonDto.NewPaginationMeta(query.Page, query.Limit, total),
	}, nil
}

func (s *bookService) GetBook(ctx context.Context, id string) (*dto.BookResponse, error) {
	book, err := s.findBook(ctx, id)
	if err != nil {
		return nil, err
	}
	res := toBookResponse(book)
	return &res, nil
}

func (s *bookService) CreateBook(ctx context.Context, req dto.CreateBookRequest) (*dto.BookResponse, error) {
	existing, err := s.repo.FindByCode(ctx, req.BookCode)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.BadRequest("Kode buku sudah terdaftar")
	}

	book := &model.Book{
		BookCode:     req.BookCode,
		ISBN:         req.ISBN,
		Title:        req.Title,
		Publisher:    req.Publisher,
		Author:       req.Author,
		LocationRack: req.LocationRack,
		PublishYear:  req.PublishYear,
		Abstract:     req.Abstract,
	}
	if req.Stock != nil {
		book.Stock = *req.Stock
	}

	if err := s.repo.Create(ctx, book); err != nil {
		return nil, err
	}
	s.index(book)

	res := toBookResponse(book)
	return &res, nil
}

func (s *bookService) UpdateBook(ctx context.Context, id string, req dto.UpdateBookRequest) (*dto.BookResponse, error) {
	book, err := s.findBook(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.BookCode != nil && *req.BookCode != book.BookCode {
		dup, err := s.repo.FindByCode(ctx, *req.BookCode)
		if err != nil {
			return nil, err
		}
		if dup != nil {
			return nil, apperror.BadRequest("Kode buku sudah digunakan oleh buku lain")
		}
		book.BookCode = *req.BookCode
	}
	if req.ISBN != nil {
		book.ISBN = req.ISBN
	}
	if req.Title != nil {
		book.Title = *req.Title
	}
	if req.Publisher != nil {
		book.Publisher = req.Publisher
	}
	if req.Author != nil {
		book.Author = req.Author
	}
	if req.LocationRack != nil {
		book.LocationRack = req.LocationRack
	}
	if req.PublishYear != nil {
		book.PublishYear = req.PublishYear
	}
	if req.Stock != nil {
		book.Stock = *req.Stock
	}
	if req.Abstract != nil {
		book.Abstract = req.Abstract
	}

	if err := s.repo.Update(ctx, book); err != nil {
		return nil, err
	}
	s.index(book)

	res := toBookResponse(book)
	return &res, nil
}

// DeleteBook removes a catalog entry unless a copy is still out on loan.
func (s *bookService) DeleteBook(ctx context.Context, id string) error {
	book, err := s.findBook(ctx, id)
	if err != nil {
		return err
	}

	active, err := s.repo.CountActiveBorrowings(ctx, book.ID)
	if err != nil {
		return err
	}
	if active > 0 {
		return apperror.BadRequest("Tidak dapat menghapus buku yang sedang dipinjam")
	}

	if err := s.repo.Delete(ctx, book.ID); err != nil {
		return err
	}

	if err := s.indexer.DeleteBook(book.ID.String()); err != nil {
		log.Printf("failed to remove book %s from search index: %v", book.ID, err)
	}
	return nil
}

// ImportBooks upserts catalog rows from an XLSX sheet, matching on the book
// code. Headers may use either the English or the Indonesian spellings; bad
// rows accumulate errors without aborting the import.
func (s *bookService) ImportBooks(ctx context.Context, file io.Reader) (*commonDto.ImportSummary, error) {
	rows, err := spreadsheet.ReadRows(file)
	if err != nil {
		return nil, apperror.BadRequest("file tidak dapat dibaca sebagai spreadsheet")
	}

	summary := &commonDto.ImportSummary{Total: len(rows)}
	var touched []model.Book

	for i, row := range rows {
		rowNumber := i + 2 // header occupies row 1

		bookCode := row.Get("bookCode", "Kode Buku", "Kode_Buku")
		title := row.Get("title", "Judul Buku", "judul_buku", "Judul")
		isbn := row.Get("isbn", "ISBN")
		publisher := row.Get("publisher", "Penerbit")
		author := row.Get("author", "Pengarang", "Penulis")
		locationRack := row.Get("locationRack", "Lokasi Rak", "Lokasi", "lokasi_rak", "Rak")
		publishYear := row.Get("publishYear", "Tahun Terbit", "TahunTerbit", "Tahun", "tahun_terbit")
		stock := row.Get("stock", "Stok")
		abstract := row.Get("abstract", "Abstraksi", "Deskripsi")

		if bookCode == "" {
			s.addRowError(summary, fmt.Sprintf("Baris %d: Kode buku tidak boleh kosong (kolom ditemukan: %v)", rowNumber, row.Headers()))
			continue
		}
		if title == "" {
			s.addRowError(summary, fmt.Sprintf("Baris %d: Judul buku tidak boleh kosong (kolom ditemukan: %v)", rowNumber, row.Headers()))
			continue
		}

		var yearPtr *int
		if publishYear != "" {
			year, err := strconv.Atoi(publishYear)
			if err != nil {
				s.addRowError(summary, fmt.Sprintf("Baris %d: Tahun terbit harus angka, ditemukan: %s", rowNumber, publishYear))
				continue
			}
			yearPtr = &year
		}

		stockVal := 0
		if stock != "" {
			stockVal, err = strconv.Atoi(stock)
			if err != nil {
				s.addRowError(summary, fmt.Sprintf("Baris %d: Stok harus angka, ditemukan: %s", rowNumber, stock))
				continue
			}
		}

		existing, err := s.repo.FindByCode(ctx, bookCode)
		if err != nil {
			return nil, err
		}

		if existing != nil {
			existing.ISBN = optional(isbn)
			existing.Title = title
			existing.Publisher = optional(publisher)
			existing.Author = optional(author)
			existing.LocationRack = optional(locationRack)
			existing.PublishYear = yearPtr
			existing.Stock = stockVal
			existing.Abstract = optional(abstract)
			if err := s.repo.Update(ctx, existing); err != nil {
				s.addRowError(summary, fmt.Sprintf("Baris %d: %v", rowNumber, err))
				continue
			}
			touched = append(touched, *existing)
		} else {
			book := &model.Book{
				BookCode:     bookCode,
				ISBN:         optional(isbn),
				Title:        title,
				Publisher:    optional(publisher),
				Author:       optional(author),
				LocationRack: optional(locationRack),
				PublishYear:  yearPtr,
				Stock:        stockVal,
				Abstract:     optional(abstract),
			}
			if err := s.repo.Create(ctx, book); err != nil {
				s.addRowError(summary, fmt.Sprintf("Baris %d: Kode buku sudah digunakan", rowNumber))
				continue
			}
			touched = append(touched, *book)
		}
		summary.Success++
	}

	if err := s.indexer.IndexBooks(touched); err != nil {
		log.Printf("failed to index imported books: %v", err)
	}

	summary.Message = fmt.Sprintf("Import selesai! %d buku berhasil diproses, %d error.", summary.Success, summary.Failed)
	return summary, nil
}

func (s *bookService) UploadCover(ctx context.Context, id string, file io.Reader, fileName string) (*dto.BookResponse, error) {
	if s.imageStorage == nil {
		return nil, apperror.New(503, "penyimpanan gambar tidak tersedia", apperror.ErrInternal)
	}

	book, err := s.findBook(ctx, id)
	if err != nil {
		return nil, err
	}

	url, err := s.imageStorage.UploadImage(ctx, file, s.coverFolder, fileName)
	if err != nil {
		return nil, err
	}

	if book.CoverURL != nil {
		if err := s.imageStorage.DeleteImage(ctx, *book.CoverURL); err != nil {
			log.Printf("failed to delete previous cover for book %s: %v", book.ID, err)
		}
	}

	book.CoverURL = &url
	if err := s.repo.Update(ctx, book); err != nil {
		return nil, err
	}
	s.index(book)

	res := toBookResponse(book)
	return &res, nil
}

// PublicSearch serves the catalog search page. Free-text queries go through
// Meilisearch when it is configured; field-scoped queries and deployments
// without a search backend use the database directly.
func (s *bookService) PublicSearch(ctx context.Context, query dto.PublicSearchQuery) (*dto.PublicSearchResponse, error) {
	query.Normalize(searchPageSize, maxPageSize)
	page, limit := query.Page, query.Limit

	searchBy := query.SearchBy
	if _, ok := searchByColumns[searchBy]; !ok {
		searchBy = "all"
	}

	var (
		books []dto.BookResponse
		total int64
	)

	if searchBy == "all" && query.Q != "" && s.indexer.Enabled() {
		docs, hits, err := s.indexer.Search(query.Q, page, limit)
		if err != nil {
			log.Printf("meilisearch query failed, falling back to database: %v", err)
		} else {
			books = docsToBookResponses(docs)
			total = hits
		}
	}

	if books == nil {
		filter := repository.BookFilter{
			Search: query.Q,
			Offset: (page - 1) * limit,
			Limit:  limit,
		}
		if searchBy != "all" {
			filter.Field = searchByColumns[searchBy]
		}

		rows, count, err := s.repo.Search(ctx, filter)
		if err != nil {
			return nil, err
		}
		books = toBookResponses(rows)
		total = count
	}

	return &dto.PublicSearchResponse{
		Books: books,
		Pagination: dto.SearchPagination{
			Total:       total,
			Page:        page,
			Limit:       limit,
			TotalPages:  totalPages(total, limit),
			HasNextPage: int64(page*limit) < total,
			HasPrevPage: page > 1,
		},
		Statistics: buildStatistics(total, books),
		SearchInfo: dto.SearchInfo{
			Query:        query.Q,
			SearchBy:     searchBy,
			ResultsCount: len(books),
		},
	}, nil
}

func (s *bookService) findBook(ctx context.Context, id string) (*model.Book, error) {
	bookID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.BadRequest("id buku tidak valid")
	}

	book, err := s.repo.FindByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Buku tidak ditemukan")
		}
		return nil, err
	}
	return book, nil
}

func (s *bookService) index(book *model.Book) {
	if err := s.indexer.IndexBook(book); err != nil {
		log.Printf("failed to index book %s: %v", book.ID, err)
	}
}

func (s *bookService) addRowError(summary *commonDto.ImportSummary, msg string) {
	summary.Failed++
	if len(summary.Errors) < maxImportErrors {
		summary.Errors = append(summary.Errors, msg)
	}
}

// buildStatistics aggregates over the returned page, matching the search
// page's summary cards.
func buildStatistics(total int64, books []dto.BookResponse) dto.SearchStatistics {
	stats := dto.SearchStatistics{TotalBooks: total}

	publishers := map[string]struct{}{}
	years := map[int]struct{}{}
	locations := map[string]struct{}{}
	for _, b := range books {
		stats.TotalStock += b.Stock
		if b.Publisher != nil {
			publishers[*b.Publisher] = struct{}{}
		}
		if b.PublishYear != nil {
			years[*b.PublishYear] = struct{}{}
		}
		if b.LocationRack != nil {
			locations[*b.LocationRack] = struct{}{}
		}
	}
	stats.UniquePublishers = len(publishers)
	stats.UniqueYears = len(years)
	stats.UniqueLocations = len(locations)
	return stats
}

func totalPages(total int64, limit int) int {
	pages := int(total) / limit
	if int(total)%limit != 0 {
		pages++
	}
	return pages
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toBookResponse(book *model.Book) dto.BookResponse {
	return dto.BookResponse{
		ID:           book.ID,
		BookCode:     book.BookCode,
		ISBN:         book.ISBN,
		Title:        book.Title,
		Publisher:    book.Publisher,
		Author:       book.Author,
		LocationRack: book.LocationRack,
		PublishYear:  book.PublishYear,
		Stock:        book.Stock,
		Abstract:     book.Abstract,
		CoverURL:     book.CoverURL,
		CreatedAt:    book.CreatedAt,
		UpdatedAt:    book.UpdatedAt,
	}
}

func toBookResponses(books []model.Book) []dto.BookResponse {
	responses := make([]dto.BookResponse, 0, len(books))
	for i := range books {
		responses = append(responses, toBookResponse(&books[i]))
	}
	return responses
}

func docsToBookResponses(docs []search.BookDoc) []dto.BookResponse {
	responses := make([]dto.BookResponse, 0, len(docs))
	for _, doc := range docs {
		id, err := uuid.Parse(doc.ID)
		if err != nil {
			continue
		}
		responses = append(responses, dto.BookResponse{
			ID:           id,
			BookCode:     doc.BookCode,
			ISBN:         doc.ISBN,
			Title:        doc.Title,
			Publisher:    doc.Publisher,
			Author:       doc.Author,
			LocationRack: doc.LocationRack,
			PublishYear:  doc.PublishYear,
			Stock:        doc.Stock,
			Abstract:     doc.Abstract,
			CoverURL:     doc.CoverURL,
		})
	}
	return responses
}

package search

import (
	"encoding/json"
	"html"
	"log"
	"strings"

	"anoa.com/perpussekolah/internal/model"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
)

const booksIndex = "books"

// BookDoc is the shape of a catalog entry inside the Meilisearch index.
type BookDoc struct {
	ID           string  `json:"id"`
	BookCode     string  `json:"book_code"`
	ISBN         *string `json:"isbn"`
	Title        string  `json:"title"`
	Publisher    *string `json:"publisher"`
	Author       *string `json:"author"`
	LocationRack *string `json:"location_rack"`
	PublishYear  *int    `json:"publish_year"`
	Stock        int     `json:"stock"`
	Abstract     *string `json:"abstract"`
	CoverURL     *string `json:"cover_url"`
	CreatedAt    int64   `json:"created_at"`
}

type BookIndexService interface {
	// Enabled reports whether a search backend is configured; callers fall
	// back to database queries when it is not.
	Enabled() bool
	IndexBook(book *model.Book) error
	IndexBooks(books []model.Book) error
	DeleteBook(id string) error
	Search(query string, page, limit int) ([]BookDoc, int64, error)
}

type bookIndexService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

func NewBookIndexService(client meilisearch.ServiceManager) BookIndexService {
	s := &bookIndexService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	if client != nil {
		s.initIndex()
	}
	return s
}

func (s *bookIndexService) Enabled() bool {
	return s.client != nil
}

func (s *bookIndexService) initIndex() {
	searchable := []string{"title", "author", "isbn", "book_code", "publisher", "abstract"}
	if _, err := s.client.Index(booksIndex).UpdateSearchableAttributes(&searchable); err != nil {
		log.Printf("Failed to update books searchable attributes: %v", err)
	}

	sortable := []string{"created_at", "title"}
	if _, err := s.client.Index(booksIndex).UpdateSortableAttributes(&sortable); err != nil {
		log.Printf("Failed to update books sortable attributes: %v", err)
	}

	log.Println("Meilisearch books index initialized")
}

// cleanAbstract strips any markup pasted into the abstract field so the
// index holds plain text only.
func (s *bookIndexService) cleanAbstract(abstract *string) *string {
	if abstract == nil {
		return nil
	}

	sanitized := s.sanitizer.Sanitize(*abstract)
	cleanText := html.UnescapeString(sanitized)
	cleanText = strings.Join(strings.Fields(cleanText), " ")
	if cleanText == "" {
		return nil
	}
	return &cleanText
}

func (s *bookIndexService) toDoc(book *model.Book) BookDoc {
	return BookDoc{
		ID:           book.ID.String(),
		BookCode:     book.BookCode,
		ISBN:         book.ISBN,
		Title:        book.Title,
		Publisher:    book.Publisher,
		Author:       book.Author,
		LocationRack: book.LocationRack,
		PublishYear:  book.PublishYear,
		Stock:        book.Stock,
		Abstract:     s.cleanAbstract(book.Abstract),
		CoverURL:     book.CoverURL,
		CreatedAt:    book.CreatedAt.Unix(),
	}
}

func (s *bookIndexService) IndexBook(book *model.Book) error {
	if s.client == nil {
		return nil
	}

	doc := s.toDoc(book)
	_, err := s.client.Index(booksIndex).AddDocuments([]BookDoc{doc}, nil)
	return err
}

func (s *bookIndexService) IndexBooks(books []model.Book) error {
	if s.client == nil || len(books) == 0 {
		return nil
	}

	docs := make([]BookDoc, 0, len(books))
	for i := range books {
		docs = append(docs, s.toDoc(&books[i]))
	}
	_, err := s.client.Index(booksIndex).AddDocuments(docs, nil)
	return err
}

func (s *bookIndexService) DeleteBook(id string) error {
	if s.client == nil {
		return nil
	}
	_, err := s.client.Index(booksIndex).DeleteDocument(id)
	return err
}

func (s *bookIndexService) Search(query string, page, limit int) ([]BookDoc, int64, error) {
	if s.client == nil {
		return nil, 0, nil
	}

	res, err := s.client.Index(booksIndex).Search(query, &meilisearch.SearchRequest{
		Offset: int64((page - 1) * limit),
		Limit:  int64(limit),
		Sort:   []string{"created_at:desc"},
	})
	if err != nil {
		return nil, 0, err
	}

	docs := make([]BookDoc, 0, len(res.Hits))
	for _, hit := range res.Hits {
		raw, err := json.Marshal(hit)
		if err != nil {
			continue
		}
		var doc BookDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, res.EstimatedTotalHits, nil
}

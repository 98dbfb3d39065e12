package services

import (
	"context"
	"errors"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"library/internal/authz"
	"library/internal/models"
	"library/internal/repositories"
	"library/internal/uploads"
	"library/internal/validation"
)

// ─── Pagination Constants ─────────────────────────────────────────────────────

const (
	// DefaultPageSize is used when a listing request does not specify a limit.
	DefaultPageSize = 10

	// MaxPageSize caps the page size a caller may request.
	MaxPageSize = 50
)

// ─── Inputs ───────────────────────────────────────────────────────────────────

// CoverUpload is an already-validated cover image ready to be stored. The
// blob is written before the book row commits.
type CoverUpload struct {
	Body        io.Reader
	Size        int64
	ContentType string
	Filename    string
}

// CreateBookInput carries the raw fields of a book-creation request.
// PublishedYear stays a string because it arrives as multipart form text.
type CreateBookInput struct {
	Title         string
	Author        string
	Category      string
	Description   string
	ISBN          string
	PublishedYear string
	Cover         *CoverUpload
}

// UpdateBookInput carries a partial update; empty fields are left unchanged.
type UpdateBookInput struct {
	Title         string
	Author        string
	Category      string
	Description   string
	ISBN          string
	PublishedYear string
	Cover         *CoverUpload
}

// ─── Service Interface ────────────────────────────────────────────────────────

// BookService is the query-and-mutation surface for books: filtered and
// paginated listing, ownership-guarded mutation, and the implicit
// find-or-create category workflow.
type BookService interface {
	List(filter models.BookFilter) (*models.BookPage, error)
	GetByID(id uuid.UUID) (*models.Book, error)
	Create(ctx context.Context, in CreateBookInput, actor models.Actor) (*models.Book, error)
	Update(ctx context.Context, id uuid.UUID, in UpdateBookInput, actor models.Actor) (*models.Book, error)
	Delete(id uuid.UUID, actor models.Actor) error
	ListMine(actor models.Actor) ([]models.Book, error)
}

// ─── Implementation ───────────────────────────────────────────────────────────

type bookService struct {
	db           *gorm.DB
	bookRepo     repositories.BookRepository
	categoryRepo repositories.CategoryRepository
	covers       uploads.Store
	maxUpload    int64
}

// NewBookService wires up the book workflow. db may be nil in tests, in
// which case multi-write flows run without a surrounding transaction.
func NewBookService(
	db *gorm.DB,
	bookRepo repositories.BookRepository,
	categoryRepo repositories.CategoryRepository,
	covers uploads.Store,
	maxUpload int64,
) BookService {
	return &bookService{
		db:           db,
		bookRepo:     bookRepo,
		categoryRepo: categoryRepo,
		covers:       covers,
		maxUpload:    maxUpload,
	}
}

func (s *bookService) transaction(fn func(tx *gorm.DB) error) error {
	if s.db == nil {
		return fn(nil)
	}
	return s.db.Transaction(fn)
}

// ─── Queries ──────────────────────────────────────────────────────────────────

// List returns one page of books matching the filter. Search matches
// case-insensitively against title, author, or category; Category is an
// exact match. Pages are 1-indexed.
func (s *bookService) List(filter models.BookFilter) (*models.BookPage, error) {
	if msgs := validation.ValidateSearchQuery(filter.Search); len(msgs) > 0 {
		return nil, &ValidationError{Fields: map[string]string{"search": msgs[0]}}
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = DefaultPageSize
	}
	if filter.Limit > MaxPageSize {
		filter.Limit = MaxPageSize
	}

	books, total, err := s.bookRepo.List(nil, filter)
	if err != nil {
		return nil, err
	}

	pages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	return &models.BookPage{
		Books: books,
		Page:  filter.Page,
		Pages: pages,
		Total: total,
	}, nil
}

func (s *bookService) GetByID(id uuid.UUID) (*models.Book, error) {
	book, err := s.bookRepo.GetByID(nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return book, nil
}

// ListMine returns all books added by the acting user, newest first.
func (s *bookService) ListMine(actor models.Actor) ([]models.Book, error) {
	return s.bookRepo.ListByOwner(nil, actor.ID)
}

// ─── Create ───────────────────────────────────────────────────────────────────

// Create validates the payload, stores the cover blob (if any) and then
// inserts the book, find-or-creating its category, in one transaction. The
// acting user becomes the owner.
func (s *bookService) Create(ctx context.Context, in CreateBookInput, actor models.Actor) (*models.Book, error) {
	if err := s.validateBookInput(validation.BookInput{
		Title:         in.Title,
		Author:        in.Author,
		Category:      in.Category,
		Description:   in.Description,
		PublishedYear: in.PublishedYear,
	}, in.Cover); err != nil {
		return nil, err
	}

	coverImage := models.DefaultCoverImage
	if in.Cover != nil {
		key, err := s.storeCover(ctx, in.Cover)
		if err != nil {
			return nil, err
		}
		coverImage = key
	}

	book := &models.Book{
		Title:         strings.TrimSpace(in.Title),
		Author:        strings.TrimSpace(in.Author),
		Category:      strings.TrimSpace(in.Category),
		Description:   in.Description,
		ISBN:          in.ISBN,
		PublishedYear: parseYear(in.PublishedYear),
		CoverImage:    coverImage,
		AddedBy:       actor.ID,
	}

	err := s.transaction(func(tx *gorm.DB) error {
		if err := s.findOrCreateCategory(tx, book.Category); err != nil {
			return err
		}
		if err := s.bookRepo.Create(tx, book); err != nil {
			log.Printf("[ERROR] CreateBook: failed to create book record: %v", err)
			return err
		}
		return nil
	})
	if err != nil {
		// The blob was written before the row; try not to leave it behind.
		if in.Cover != nil && coverImage != models.DefaultCoverImage {
			if delErr := s.covers.Delete(ctx, coverImage); delErr != nil {
				log.Printf("[WARN] CreateBook: orphaned cover blob %s: %v", coverImage, delErr)
			}
		}
		return nil, err
	}

	log.Printf("[INFO] CreateBook: created book %q (id=%s) by user %s", book.Title, book.ID, actor.ID)
	return book, nil
}

// ─── Update ───────────────────────────────────────────────────────────────────

// Update applies a partial update to a book the actor may modify. Supplied
// fields are re-validated against the merged result; a changed category is
// find-or-created like on create.
func (s *bookService) Update(ctx context.Context, id uuid.UUID, in UpdateBookInput, actor models.Actor) (*models.Book, error) {
	book, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !authz.CanModify(actor, book.AddedBy) {
		log.Printf("[WARN] UpdateBook: user %s denied update of book %s", actor.ID, id)
		return nil, ErrForbidden
	}

	if in.Title != "" {
		book.Title = strings.TrimSpace(in.Title)
	}
	if in.Author != "" {
		book.Author = strings.TrimSpace(in.Author)
	}
	if in.Description != "" {
		book.Description = in.Description
	}
	if in.ISBN != "" {
		book.ISBN = in.ISBN
	}
	if in.PublishedYear != "" {
		book.PublishedYear = parseYear(in.PublishedYear)
	}
	categoryChanged := in.Category != "" && strings.TrimSpace(in.Category) != book.Category
	if in.Category != "" {
		book.Category = strings.TrimSpace(in.Category)
	}

	if err := s.validateBookInput(validation.BookInput{
		Title:         book.Title,
		Author:        book.Author,
		Category:      book.Category,
		Description:   book.Description,
		PublishedYear: in.PublishedYear,
	}, in.Cover); err != nil {
		return nil, err
	}

	if in.Cover != nil {
		key, err := s.storeCover(ctx, in.Cover)
		if err != nil {
			return nil, err
		}
		// The previous blob is leaked on purpose; orphan cleanup is a
		// separate concern.
		book.CoverImage = key
	}

	err = s.transaction(func(tx *gorm.DB) error {
		if categoryChanged {
			if err := s.findOrCreateCategory(tx, book.Category); err != nil {
				return err
			}
		}
		if err := s.bookRepo.Update(tx, book); err != nil {
			log.Printf("[ERROR] UpdateBook: failed to update book %s: %v", id, err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[INFO] UpdateBook: updated book %s by user %s", id, actor.ID)
	return book, nil
}

// ─── Delete ───────────────────────────────────────────────────────────────────

// Delete removes a book the actor may modify. The cover blob is not
// deleted eagerly.
func (s *bookService) Delete(id uuid.UUID, actor models.Actor) error {
	book, err := s.GetByID(id)
	if err != nil {
		return err
	}
	if !authz.CanModify(actor, book.AddedBy) {
		log.Printf("[WARN] DeleteBook: user %s denied delete of book %s", actor.ID, id)
		return ErrForbidden
	}

	if err := s.bookRepo.Delete(nil, id); err != nil {
		log.Printf("[ERROR] DeleteBook: failed to delete book %s: %v", id, err)
		return err
	}
	log.Printf("[INFO] DeleteBook: deleted book %s by user %s", id, actor.ID)
	return nil
}

// ─── Internal Helpers ─────────────────────────────────────────────────────────

func (s *bookService) validateBookInput(in validation.BookInput, cover *CoverUpload) error {
	fields := validation.ValidateBook(in)

	if cover != nil {
		file := &validation.FileInput{Size: cover.Size, ContentType: cover.ContentType}
		if msgs := validation.ValidateFile(file, s.maxUpload, nil); len(msgs) > 0 {
			fields["coverImage"] = msgs[0]
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// findOrCreateCategory makes the implicit custom-category workflow
// explicit: an unknown category name is inserted as a new Category row.
// The repository upsert is conflict-free, so a concurrent insert of the
// same name cannot abort the surrounding transaction.
func (s *bookService) findOrCreateCategory(tx *gorm.DB, name string) error {
	_, err := s.categoryRepo.GetByName(tx, name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	category, err := s.categoryRepo.FindOrCreate(tx, name)
	if err != nil {
		log.Printf("[ERROR] findOrCreateCategory: failed to create category %q: %v", name, err)
		return err
	}
	log.Printf("[INFO] findOrCreateCategory: category %q present (id=%s)", name, category.ID)
	return nil
}

func (s *bookService) storeCover(ctx context.Context, cover *CoverUpload) (string, error) {
	key := uploads.NewObjectKey(cover.Filename)
	if err := s.covers.Put(ctx, key, cover.Body, cover.ContentType); err != nil {
		log.Printf("[ERROR] storeCover: failed to store cover %s: %v", key, err)
		return "", err
	}
	return key, nil
}

// parseYear is only called after validation accepted the value; anything
// unparsable at this point means the field was empty.
func parseYear(raw string) int {
	year, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return year
}

package services

import (
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"library/internal/models"
	"library/internal/repositories"
	"library/internal/validation"
)

// CategoryInput carries the raw fields of a category create/update
// request. On update, empty fields are left unchanged.
type CategoryInput struct {
	Name        string
	Description string
}

// CategoryService manages the category catalogue. Any authenticated user
// may mutate categories; there is no ownership on them.
type CategoryService interface {
	List() ([]models.Category, error)
	GetByID(id uuid.UUID) (*models.Category, error)
	Create(in CategoryInput) (*models.Category, error)
	Update(id uuid.UUID, in CategoryInput) (*models.Category, error)
	Delete(id uuid.UUID) error
}

type categoryService struct {
	categoryRepo repositories.CategoryRepository
	bookRepo     repositories.BookRepository
}

func NewCategoryService(categoryRepo repositories.CategoryRepository, bookRepo repositories.BookRepository) CategoryService {
	return &categoryService{categoryRepo: categoryRepo, bookRepo: bookRepo}
}

// List returns all categories with their derived book counts.
func (s *categoryService) List() ([]models.Category, error) {
	categories, err := s.categoryRepo.List(nil)
	if err != nil {
		return nil, err
	}
	for i := range categories {
		count, err := s.bookRepo.CountByCategoryName(nil, categories[i].Name)
		if err != nil {
			return nil, err
		}
		categories[i].BooksCount = count
	}
	return categories, nil
}

func (s *categoryService) GetByID(id uuid.UUID) (*models.Category, error) {
	category, err := s.categoryRepo.GetByID(nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	count, err := s.bookRepo.CountByCategoryName(nil, category.Name)
	if err != nil {
		return nil, err
	}
	category.BooksCount = count
	return category, nil
}

func (s *categoryService) Create(in CategoryInput) (*models.Category, error) {
	if fields := validation.ValidateCategory(validation.CategoryInput(in)); len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	category := &models.Category{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
	}
	if err := s.categoryRepo.Create(nil, category); err != nil {
		if isUniqueViolation(err) {
			return nil, &ConflictError{Field: "name", Message: "Category with this name already exists"}
		}
		log.Printf("[ERROR] CreateCategory: failed to create category %q: %v", in.Name, err)
		return nil, err
	}
	log.Printf("[INFO] CreateCategory: created category %q (id=%s)", category.Name, category.ID)
	return category, nil
}

// Update renames or re-describes a category. Books referencing the old
// name keep it; the name relation is advisory.
func (s *categoryService) Update(id uuid.UUID, in CategoryInput) (*models.Category, error) {
	category, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	if in.Name != "" {
		category.Name = strings.TrimSpace(in.Name)
	}
	if in.Description != "" {
		category.Description = in.Description
	}
	if fields := validation.ValidateCategory(validation.CategoryInput{
		Name:        category.Name,
		Description: category.Description,
	}); len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	if err := s.categoryRepo.Update(nil, category); err != nil {
		if isUniqueViolation(err) {
			return nil, &ConflictError{Field: "name", Message: "Category with this name already exists"}
		}
		log.Printf("[ERROR] UpdateCategory: failed to update category %s: %v", id, err)
		return nil, err
	}
	log.Printf("[INFO] UpdateCategory: updated category %s", id)
	return category, nil
}

// Delete removes a category. Deletion is blocked while books still
// reference the category by name, so no book is left pointing at nothing.
func (s *categoryService) Delete(id uuid.UUID) error {
	category, err := s.categoryRepo.GetByID(nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}

	count, err := s.bookRepo.CountByCategoryName(nil, category.Name)
	if err != nil {
		return err
	}
	if count > 0 {
		log.Printf("[WARN] DeleteCategory: category %q still referenced by %d books", category.Name, count)
		return ErrCategoryInUse
	}

	if err := s.categoryRepo.Delete(nil, id); err != nil {
		log.Printf("[ERROR] DeleteCategory: failed to delete category %s: %v", id, err)
		return err
	}
	log.Printf("[INFO] DeleteCategory: deleted category %q (id=%s)", category.Name, id)
	return nil
}

package services

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library/internal/repositories"
)

func newTestCategoryService(t *testing.T) (CategoryService, *repositories.MemoryStore) {
	t.Helper()
	store := repositories.NewMemoryStore()
	return NewCategoryService(store.Categories(), store.Books()), store
}

func TestCategoryCreateAndList(t *testing.T) {
	svc, store := newTestCategoryService(t)

	created, err := svc.Create(CategoryInput{Name: "Fiction", Description: "Made-up stories"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)

	_, err = svc.Create(CategoryInput{Name: "Science"})
	require.NoError(t, err)

	owner := seedUser(t, store, "alice")
	seedBook(t, store, "Dune", "Herbert", "Fiction", owner.ID, time.Now().UTC())
	seedBook(t, store, "Contact", "Sagan", "Fiction", owner.ID, time.Now().UTC())

	categories, err := svc.List()
	require.NoError(t, err)
	require.Len(t, categories, 2)
	// Sorted by name; counts derived from books.
	assert.Equal(t, "Fiction", categories[0].Name)
	assert.EqualValues(t, 2, categories[0].BooksCount)
	assert.Equal(t, "Science", categories[1].Name)
	assert.EqualValues(t, 0, categories[1].BooksCount)
}

func TestCategoryCreate_Validation(t *testing.T) {
	svc, _ := newTestCategoryService(t)

	_, err := svc.Create(CategoryInput{Name: ""})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Category name is required", verr.Fields["name"])

	_, err = svc.Create(CategoryInput{Name: strings.Repeat("n", 51)})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
}

func TestCategoryCreate_DuplicateName(t *testing.T) {
	svc, _ := newTestCategoryService(t)

	_, err := svc.Create(CategoryInput{Name: "Fiction"})
	require.NoError(t, err)

	_, err = svc.Create(CategoryInput{Name: "Fiction"})
	var cerr *ConflictError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "name", cerr.Field)
}

func TestCategoryUpdate(t *testing.T) {
	svc, _ := newTestCategoryService(t)

	created, err := svc.Create(CategoryInput{Name: "Fiction"})
	require.NoError(t, err)

	updated, err := svc.Update(created.ID, CategoryInput{Description: "Made-up stories"})
	require.NoError(t, err)
	assert.Equal(t, "Fiction", updated.Name)
	assert.Equal(t, "Made-up stories", updated.Description)

	_, err = svc.Update(uuid.New(), CategoryInput{Name: "Whatever"})
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestCategoryDelete_BlockedWhileReferenced(t *testing.T) {
	svc, store := newTestCategoryService(t)

	created, err := svc.Create(CategoryInput{Name: "Fiction"})
	require.NoError(t, err)

	owner := seedUser(t, store, "alice")
	book := seedBook(t, store, "Dune", "Herbert", "Fiction", owner.ID, time.Now().UTC())

	assert.ErrorIs(t, svc.Delete(created.ID), ErrCategoryInUse)

	// Once the last referencing book is gone, deletion goes through.
	require.NoError(t, store.Books().Delete(nil, book.ID))
	require.NoError(t, svc.Delete(created.ID))

	_, err = svc.GetByID(created.ID)
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

package repositories

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"library/internal/models"
)

// errDuplicateKey mimics the Postgres unique_violation text so callers that
// sniff SQLSTATE 23505 behave the same against the in-memory store.
var errDuplicateKey = errors.New("duplicate key value violates unique constraint (SQLSTATE 23505)")

// MemoryStore is a map-backed implementation of the three repositories,
// used by service tests and local development. The *gorm.DB argument of
// every method is ignored; operations are applied directly.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[uuid.UUID]models.User
	books      map[uuid.UUID]models.Book
	categories map[uuid.UUID]models.Category
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[uuid.UUID]models.User),
		books:      make(map[uuid.UUID]models.Book),
		categories: make(map[uuid.UUID]models.Category),
	}
}

func (s *MemoryStore) Users() UserRepository          { return &memoryUserRepository{s} }
func (s *MemoryStore) Books() BookRepository          { return &memoryBookRepository{s} }
func (s *MemoryStore) Categories() CategoryRepository { return &memoryCategoryRepository{s} }

type memoryUserRepository struct {
	store *MemoryStore
}

func (r *memoryUserRepository) Create(_ *gorm.DB, user *models.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if u.Username == user.Username || u.Email == user.Email {
			return errDuplicateKey
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	r.store.users[user.ID] = *user
	return nil
}

func (r *memoryUserRepository) GetByID(_ *gorm.DB, id uuid.UUID) (*models.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	user, ok := r.store.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &user, nil
}

func (r *memoryUserRepository) GetByUsername(_ *gorm.DB, username string) (*models.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, u := range r.store.users {
		if u.Username == username {
			user := u
			return &user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryUserRepository) GetByEmail(_ *gorm.DB, email string) (*models.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, u := range r.store.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryUserRepository) Update(_ *gorm.DB, user *models.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.store.users[user.ID] = *user
	return nil
}

func (r *memoryUserRepository) Delete(_ *gorm.DB, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.users, id)
	return nil
}

func (r *memoryUserRepository) List(_ *gorm.DB) ([]models.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	users := make([]models.User, 0, len(r.store.users))
	for _, u := range r.store.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

func (r *memoryUserRepository) Count(_ *gorm.DB) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return int64(len(r.store.users)), nil
}

type memoryBookRepository struct {
	store *MemoryStore
}

func (r *memoryBookRepository) Create(_ *gorm.DB, book *models.Book) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if book.ID == uuid.Nil {
		book.ID = uuid.New()
	}
	if book.CreatedAt.IsZero() {
		book.CreatedAt = time.Now().UTC()
	}
	if book.CoverImage == "" {
		book.CoverImage = models.DefaultCoverImage
	}
	r.store.books[book.ID] = *book
	return nil
}

func (r *memoryBookRepository) GetByID(_ *gorm.DB, id uuid.UUID) (*models.Book, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	book, ok := r.store.books[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &book, nil
}

func (r *memoryBookRepository) Update(_ *gorm.DB, book *models.Book) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.books[book.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.store.books[book.ID] = *book
	return nil
}

func (r *memoryBookRepository) Delete(_ *gorm.DB, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.books, id)
	return nil
}

func matchesFilter(book models.Book, filter models.BookFilter) bool {
	if filter.Category != "" && book.Category != filter.Category {
		return false
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(book.Title), needle) &&
			!strings.Contains(strings.ToLower(book.Author), needle) &&
			!strings.Contains(strings.ToLower(book.Category), needle) {
			return false
		}
	}
	return true
}

// sortBooks applies the listing order: newest first, id as tiebreak.
func sortBooks(books []models.Book) {
	sort.Slice(books, func(i, j int) bool {
		if !books[i].CreatedAt.Equal(books[j].CreatedAt) {
			return books[i].CreatedAt.After(books[j].CreatedAt)
		}
		return books[i].ID.String() < books[j].ID.String()
	})
}

func (r *memoryBookRepository) List(_ *gorm.DB, filter models.BookFilter) ([]models.Book, int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var matched []models.Book
	for _, b := range r.store.books {
		if matchesFilter(b, filter) {
			matched = append(matched, b)
		}
	}
	sortBooks(matched)

	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Limit
	if start >= len(matched) {
		return []models.Book{}, total, nil
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *memoryBookRepository) ListByOwner(_ *gorm.DB, ownerID uuid.UUID) ([]models.Book, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var books []models.Book
	for _, b := range r.store.books {
		if b.AddedBy == ownerID {
			books = append(books, b)
		}
	}
	sortBooks(books)
	return books, nil
}

func (r *memoryBookRepository) Count(_ *gorm.DB) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return int64(len(r.store.books)), nil
}

func (r *memoryBookRepository) CountByCategoryName(_ *gorm.DB, name string) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var n int64
	for _, b := range r.store.books {
		if b.Category == name {
			n++
		}
	}
	return n, nil
}

func (r *memoryBookRepository) Recent(_ *gorm.DB, limit int) ([]models.RecentBook, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	books := make([]models.Book, 0, len(r.store.books))
	for _, b := range r.store.books {
		books = append(books, b)
	}
	sortBooks(books)
	if limit < len(books) {
		books = books[:limit]
	}

	recent := make([]models.RecentBook, 0, len(books))
	for _, b := range books {
		owner := r.store.users[b.AddedBy]
		recent = append(recent, models.RecentBook{
			ID:         b.ID,
			Title:      b.Title,
			Author:     b.Author,
			Category:   b.Category,
			CoverImage: b.CoverImage,
			AddedBy:    owner.Username,
			CreatedAt:  b.CreatedAt,
		})
	}
	return recent, nil
}

func (r *memoryBookRepository) groupBy(key func(models.Book) string) []models.GroupCount {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	counts := make(map[string]int64)
	for _, b := range r.store.books {
		counts[key(b)]++
	}
	groups := make([]models.GroupCount, 0, len(counts))
	for k, n := range counts {
		groups = append(groups, models.GroupCount{Key: k, Count: n})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Key < groups[j].Key
	})
	return groups
}

func (r *memoryBookRepository) GroupByCategory(_ *gorm.DB) ([]models.GroupCount, error) {
	return r.groupBy(func(b models.Book) string { return b.Category }), nil
}

func (r *memoryBookRepository) GroupByAuthor(_ *gorm.DB) ([]models.GroupCount, error) {
	return r.groupBy(func(b models.Book) string { return b.Author }), nil
}

func (r *memoryBookRepository) CountByMonth(_ *gorm.DB, since time.Time) (map[string]int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	counts := make(map[string]int64)
	for _, b := range r.store.books {
		if b.CreatedAt.Before(since) {
			continue
		}
		counts[b.CreatedAt.UTC().Format("2006-01")]++
	}
	return counts, nil
}

func (r *memoryBookRepository) CountByUser(_ *gorm.DB) ([]models.UserStat, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	perUser := make(map[uuid.UUID]int64)
	for _, b := range r.store.books {
		perUser[b.AddedBy]++
	}
	stats := make([]models.UserStat, 0, len(r.store.users))
	for _, u := range r.store.users {
		stats = append(stats, models.UserStat{
			UserID:   u.ID,
			Username: u.Username,
			Books:    perUser[u.ID],
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Books != stats[j].Books {
			return stats[i].Books > stats[j].Books
		}
		return stats[i].Username < stats[j].Username
	})
	return stats, nil
}

type memoryCategoryRepository struct {
	store *MemoryStore
}

func (r *memoryCategoryRepository) Create(_ *gorm.DB, category *models.Category) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, c := range r.store.categories {
		if c.Name == category.Name {
			return errDuplicateKey
		}
	}
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now().UTC()
	}
	r.store.categories[category.ID] = *category
	return nil
}

func (r *memoryCategoryRepository) FindOrCreate(_ *gorm.DB, name string) (*models.Category, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, c := range r.store.categories {
		if c.Name == name {
			category := c
			return &category, nil
		}
	}
	category := models.Category{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	r.store.categories[category.ID] = category
	return &category, nil
}

func (r *memoryCategoryRepository) GetByID(_ *gorm.DB, id uuid.UUID) (*models.Category, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	category, ok := r.store.categories[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &category, nil
}

func (r *memoryCategoryRepository) GetByName(_ *gorm.DB, name string) (*models.Category, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, c := range r.store.categories {
		if c.Name == name {
			category := c
			return &category, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryCategoryRepository) Update(_ *gorm.DB, category *models.Category) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.categories[category.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	for _, c := range r.store.categories {
		if c.Name == category.Name && c.ID != category.ID {
			return errDuplicateKey
		}
	}
	r.store.categories[category.ID] = *category
	return nil
}

func (r *memoryCategoryRepository) Delete(_ *gorm.DB, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.categories, id)
	return nil
}

func (r *memoryCategoryRepository) List(_ *gorm.DB) ([]models.Category, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	categories := make([]models.Category, 0, len(r.store.categories))
	for _, c := range r.store.categories {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})
	return categories, nil
}

func (r *memoryCategoryRepository) Count(_ *gorm.DB) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return int64(len(r.store.categories)), nil
}

package repositories

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"library/internal/models"
)

type UserRepository interface {
	Create(db *gorm.DB, user *models.User) error
	GetByID(db *gorm.DB, id uuid.UUID) (*models.User, error)
	GetByUsername(db *gorm.DB, username string) (*models.User, error)
	GetByEmail(db *gorm.DB, email string) (*models.User, error)
	Update(db *gorm.DB, user *models.User) error
	Delete(db *gorm.DB, id uuid.UUID) error
	List(db *gorm.DB) ([]models.User, error)
	Count(db *gorm.DB) (int64, error)
}

type BookRepository interface {
	Create(db *gorm.DB, book *models.Book) error
	GetByID(db *gorm.DB, id uuid.UUID) (*models.Book, error)
	Update(db *gorm.DB, book *models.Book) error
	Delete(db *gorm.DB, id uuid.UUID) error

	// List applies the search/category filter and pagination, returning
	// the page plus the total number of matching rows.
	List(db *gorm.DB, filter models.BookFilter) ([]models.Book, int64, error)
	ListByOwner(db *gorm.DB, ownerID uuid.UUID) ([]models.Book, error)
	Count(db *gorm.DB) (int64, error)
	CountByCategoryName(db *gorm.DB, name string) (int64, error)
	Recent(db *gorm.DB, limit int) ([]models.RecentBook, error)
	GroupByCategory(db *gorm.DB) ([]models.GroupCount, error)
	GroupByAuthor(db *gorm.DB) ([]models.GroupCount, error)
	CountByMonth(db *gorm.DB, since time.Time) (map[string]int64, error)
	CountByUser(db *gorm.DB) ([]models.UserStat, error)
}

type CategoryRepository interface {
	Create(db *gorm.DB, category *models.Category) error

	// FindOrCreate returns the category with the given name, inserting it
	// first if no such row exists. Safe to call inside a transaction even
	// when a concurrent request inserts the same name.
	FindOrCreate(db *gorm.DB, name string) (*models.Category, error)
	GetByID(db *gorm.DB, id uuid.UUID) (*models.Category, error)
	GetByName(db *gorm.DB, name string) (*models.Category, error)
	Update(db *gorm.DB, category *models.Category) error
	Delete(db *gorm.DB, id uuid.UUID) error
	List(db *gorm.DB) ([]models.Category, error)
	Count(db *gorm.DB) (int64, error)
}

// concrete implementations

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(db *gorm.DB, user *models.User) error {
	if db == nil {
		db = r.db
	}
	return db.Create(user).Error
}

func (r *userRepository) GetByID(db *gorm.DB, id uuid.UUID) (*models.User, error) {
	if db == nil {
		db = r.db
	}
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(db *gorm.DB, username string) (*models.User, error) {
	if db == nil {
		db = r.db
	}
	var user models.User
	if err := db.First(&user, "username = ?", username).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(db *gorm.DB, email string) (*models.User, error) {
	if db == nil {
		db = r.db
	}
	var user models.User
	if err := db.First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(db *gorm.DB, user *models.User) error {
	if db == nil {
		db = r.db
	}
	return db.Save(user).Error
}

func (r *userRepository) Delete(db *gorm.DB, id uuid.UUID) error {
	if db == nil {
		db = r.db
	}
	return db.Delete(&models.User{}, "id = ?", id).Error
}

func (r *userRepository) List(db *gorm.DB) ([]models.User, error) {
	if db == nil {
		db = r.db
	}
	var users []models.User
	if err := db.Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) Count(db *gorm.DB) (int64, error) {
	if db == nil {
		db = r.db
	}
	var n int64
	if err := db.Model(&models.User{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

type bookRepository struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) Create(db *gorm.DB, book *models.Book) error {
	if db == nil {
		db = r.db
	}
	return db.Create(book).Error
}

func (r *bookRepository) GetByID(db *gorm.DB, id uuid.UUID) (*models.Book, error) {
	if db == nil {
		db = r.db
	}
	var book models.Book
	if err := db.First(&book, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *bookRepository) Update(db *gorm.DB, book *models.Book) error {
	if db == nil {
		db = r.db
	}
	return db.Save(book).Error
}

func (r *bookRepository) Delete(db *gorm.DB, id uuid.UUID) error {
	if db == nil {
		db = r.db
	}
	return db.Delete(&models.Book{}, "id = ?", id).Error
}

// escapeLike neutralizes the LIKE metacharacters in a user-supplied term so
// the search stays a literal substring match.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

func (r *bookRepository) List(db *gorm.DB, filter models.BookFilter) ([]models.Book, int64, error) {
	if db == nil {
		db = r.db
	}

	q := db.Model(&models.Book{})
	if filter.Search != "" {
		pattern := "%" + escapeLike(filter.Search) + "%"
		q = q.Where("title ILIKE ? OR author ILIKE ? OR category ILIKE ?", pattern, pattern, pattern)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var books []models.Book
	err := q.
		Order("created_at DESC, id").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&books).Error
	if err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

func (r *bookRepository) ListByOwner(db *gorm.DB, ownerID uuid.UUID) ([]models.Book, error) {
	if db == nil {
		db = r.db
	}
	var books []models.Book
	err := db.
		Where("added_by = ?", ownerID).
		Order("created_at DESC, id").
		Find(&books).Error
	if err != nil {
		return nil, err
	}
	return books, nil
}

func (r *bookRepository) Count(db *gorm.DB) (int64, error) {
	if db == nil {
		db = r.db
	}
	var n int64
	if err := db.Model(&models.Book{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *bookRepository) CountByCategoryName(db *gorm.DB, name string) (int64, error) {
	if db == nil {
		db = r.db
	}
	var n int64
	if err := db.Model(&models.Book{}).Where("category = ?", name).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *bookRepository) Recent(db *gorm.DB, limit int) ([]models.RecentBook, error) {
	if db == nil {
		db = r.db
	}
	var rows []models.RecentBook
	err := db.Model(&models.Book{}).
		Select("books.id, books.title, books.author, books.category, books.cover_image, users.username AS added_by, books.created_at").
		Joins("JOIN users ON users.id = books.added_by").
		Order("books.created_at DESC, books.id").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *bookRepository) GroupByCategory(db *gorm.DB) ([]models.GroupCount, error) {
	return r.groupBy(db, "category")
}

func (r *bookRepository) GroupByAuthor(db *gorm.DB) ([]models.GroupCount, error) {
	return r.groupBy(db, "author")
}

// groupBy counts books per distinct column value, largest group first,
// ties broken by key so equal queries always return the same order.
func (r *bookRepository) groupBy(db *gorm.DB, column string) ([]models.GroupCount, error) {
	if db == nil {
		db = r.db
	}
	var rows []models.GroupCount
	err := db.Model(&models.Book{}).
		Select(column + " AS key, COUNT(*) AS count").
		Group(column).
		Order("count DESC, key ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *bookRepository) CountByMonth(db *gorm.DB, since time.Time) (map[string]int64, error) {
	if db == nil {
		db = r.db
	}
	var rows []models.MonthCount
	err := db.Model(&models.Book{}).
		Select("to_char(created_at, 'YYYY-MM') AS month, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("1").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Month] = row.Count
	}
	return counts, nil
}

func (r *bookRepository) CountByUser(db *gorm.DB) ([]models.UserStat, error) {
	if db == nil {
		db = r.db
	}
	var rows []models.UserStat
	err := db.Model(&models.User{}).
		Select("users.id AS user_id, users.username, COUNT(books.id) AS books").
		Joins("LEFT JOIN books ON books.added_by = users.id").
		Group("users.id, users.username").
		Order("books DESC, users.username ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(db *gorm.DB, category *models.Category) error {
	if db == nil {
		db = r.db
	}
	return db.Create(category).Error
}

func (r *categoryRepository) FindOrCreate(db *gorm.DB, name string) (*models.Category, error) {
	if db == nil {
		db = r.db
	}
	// ON CONFLICT DO NOTHING keeps a lost insert race from raising 23505,
	// which would abort a surrounding transaction.
	category := models.Category{Name: name}
	err := db.
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&category).Error
	if err != nil {
		return nil, err
	}
	// On conflict no row comes back, so read whichever insert won.
	return r.GetByName(db, name)
}

func (r *categoryRepository) GetByID(db *gorm.DB, id uuid.UUID) (*models.Category, error) {
	if db == nil {
		db = r.db
	}
	var category models.Category
	if err := db.First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) GetByName(db *gorm.DB, name string) (*models.Category, error) {
	if db == nil {
		db = r.db
	}
	var category models.Category
	if err := db.First(&category, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) Update(db *gorm.DB, category *models.Category) error {
	if db == nil {
		db = r.db
	}
	return db.Save(category).Error
}

func (r *categoryRepository) Delete(db *gorm.DB, id uuid.UUID) error {
	if db == nil {
		db = r.db
	}
	return db.Delete(&models.Category{}, "id = ?", id).Error
}

func (r *categoryRepository) List(db *gorm.DB) ([]models.Category, error) {
	if db == nil {
		db = r.db
	}
	var categories []models.Category
	if err := db.Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) Count(db *gorm.DB) (int64, error) {
	if db == nil {
		db = r.db
	}
	var n int64
	if err := db.Model(&models.Category{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

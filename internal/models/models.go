package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the coarse permission tier of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	}
	return false
}

// DefaultCoverImage is the sentinel filename used when a book has no
// uploaded cover.
const DefaultCoverImage = "default-book-cover.jpg"

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Username     string    `gorm:"size:50;not null;uniqueIndex" json:"username"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         Role      `gorm:"type:user_role;not null;default:user" json:"role"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"not null;default:now()" json:"created_at"`
}

type Book struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Title         string    `gorm:"size:100;not null" json:"title"`
	Author        string    `gorm:"size:100;not null;index" json:"author"`
	Category      string    `gorm:"size:50;not null;index" json:"category"`
	Description   string    `gorm:"size:1000" json:"description"`
	ISBN          string    `gorm:"size:20" json:"isbn"`
	PublishedYear int       `json:"published_year,omitempty"`
	CoverImage    string    `gorm:"size:255;not null;default:default-book-cover.jpg" json:"cover_image"`
	AddedBy       uuid.UUID `gorm:"type:uuid;not null;index" json:"added_by"`
	Owner         User      `gorm:"foreignKey:AddedBy;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt     time.Time `gorm:"not null;default:now();index" json:"created_at"`
}

type Category struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name        string    `gorm:"size:50;not null;uniqueIndex" json:"name"`
	Description string    `gorm:"size:200" json:"description"`
	CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`

	// BooksCount is derived on read; it is not a stored column.
	BooksCount int64 `gorm:"-" json:"books_count"`
}

// Actor identifies the authenticated user an operation runs on behalf of.
// Handlers build it from the verified token; services never authenticate,
// only authorize against it.
type Actor struct {
	ID       uuid.UUID
	Username string
	Role     Role
}

// BookFilter narrows and pages a book listing. Page is 1-indexed.
type BookFilter struct {
	Search   string
	Category string
	Page     int
	Limit    int
}

// BookPage is one page of a filtered book listing.
type BookPage struct {
	Books []Book `json:"books"`
	Page  int    `json:"page"`
	Pages int    `json:"pages"`
	Total int64  `json:"total"`
}

// RecentBook is a book enriched with its owner's username for the
// analytics summary.
type RecentBook struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Author     string    `json:"author"`
	Category   string    `json:"category"`
	CoverImage string    `json:"cover_image"`
	AddedBy    string    `json:"added_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// Summary is the analytics dashboard headline block. TotalUsers is only
// populated for admin callers.
type Summary struct {
	TotalBooks      int64        `json:"totalBooks"`
	TotalCategories int64        `json:"totalCategories"`
	TotalUsers      int64        `json:"totalUsers,omitempty"`
	RecentBooks     []RecentBook `json:"recentBooks"`
}

// GroupCount is one (key, count) pair of a grouped aggregation.
type GroupCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// MonthCount is the number of books added in one calendar month.
type MonthCount struct {
	Month string `json:"month"` // YYYY-MM
	Count int64  `json:"count"`
}

// UserStat is the per-user book count for the admin analytics view.
type UserStat struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Books    int64     `json:"books"`
}

package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library/internal/models"
	"library/internal/repositories"
)

func seedUser(t *testing.T, store *repositories.MemoryStore, username string) models.User {
	t.Helper()
	user := models.User{Username: username, Email: username + "@example.com", Role: models.RoleUser, IsActive: true}
	require.NoError(t, store.Users().Create(nil, &user))
	return user
}

func seedBook(t *testing.T, store *repositories.MemoryStore, title, author, category string, owner uuid.UUID, createdAt time.Time) models.Book {
	t.Helper()
	book := models.Book{
		Title:     title,
		Author:    author,
		Category:  category,
		AddedBy:   owner,
		CreatedAt: createdAt,
	}
	require.NoError(t, store.Books().Create(nil, &book))
	return book
}

func newTestAnalytics(store *repositories.MemoryStore, now time.Time) *analyticsService {
	return &analyticsService{
		bookRepo:     store.Books(),
		categoryRepo: store.Categories(),
		userRepo:     store.Users(),
		now:          func() time.Time { return now },
	}
}

func TestSummary(t *testing.T) {
	store := repositories.NewMemoryStore()
	now := time.Date(2026, time.August, 15, 12, 0, 0, 0, time.UTC)
	svc := newTestAnalytics(store, now)

	alice := seedUser(t, store, "alice")
	require.NoError(t, store.Categories().Create(nil, &models.Category{Name: "Fiction"}))
	for i := 0; i < 7; i++ {
		seedBook(t, store, "Book", "Author", "Fiction", alice.ID, now.Add(-time.Duration(i)*time.Hour))
	}

	summary, err := svc.Summary(models.Actor{ID: alice.ID, Role: models.RoleUser})
	require.NoError(t, err)
	assert.EqualValues(t, 7, summary.TotalBooks)
	assert.EqualValues(t, 1, summary.TotalCategories)
	assert.Zero(t, summary.TotalUsers, "user count is admin only")
	require.Len(t, summary.RecentBooks, RecentBooksLimit)
	assert.Equal(t, "alice", summary.RecentBooks[0].AddedBy)

	// Recent books come newest first.
	for i := 1; i < len(summary.RecentBooks); i++ {
		assert.True(t, !summary.RecentBooks[i].CreatedAt.After(summary.RecentBooks[i-1].CreatedAt))
	}

	adminSummary, err := svc.Summary(models.Actor{ID: uuid.New(), Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.EqualValues(t, 1, adminSummary.TotalUsers)
}

func TestBooksByCategory_TieBreak(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := newTestAnalytics(store, time.Now().UTC())
	owner := seedUser(t, store, "alice")

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		seedBook(t, store, "H", "X", "Horror", owner.ID, now)
		seedBook(t, store, "F", "X", "Fiction", owner.ID, now)
	}

	groups, err := svc.BooksByCategory()
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, models.GroupCount{Key: "Fiction", Count: 3}, groups[0])
	assert.Equal(t, models.GroupCount{Key: "Horror", Count: 3}, groups[1])
}

func TestBooksByAuthor(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := newTestAnalytics(store, time.Now().UTC())
	owner := seedUser(t, store, "alice")

	now := time.Now().UTC()
	seedBook(t, store, "A", "Le Guin", "Fiction", owner.ID, now)
	seedBook(t, store, "B", "Le Guin", "Fiction", owner.ID, now)
	seedBook(t, store, "C", "Sagan", "Science", owner.ID, now)

	groups, err := svc.BooksByAuthor()
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, models.GroupCount{Key: "Le Guin", Count: 2}, groups[0])
	assert.Equal(t, models.GroupCount{Key: "Sagan", Count: 1}, groups[1])
}

func TestBooksByMonth_ZeroFilledWindow(t *testing.T) {
	store := repositories.NewMemoryStore()
	now := time.Date(2026, time.August, 15, 12, 0, 0, 0, time.UTC)
	svc := newTestAnalytics(store, now)
	owner := seedUser(t, store, "alice")

	// Two books this month, one eleven months ago, one just outside the window.
	seedBook(t, store, "A", "X", "Fiction", owner.ID, now)
	seedBook(t, store, "B", "X", "Fiction", owner.ID, now.Add(-time.Hour))
	seedBook(t, store, "C", "X", "Fiction", owner.ID, time.Date(2025, time.September, 3, 0, 0, 0, 0, time.UTC))
	seedBook(t, store, "old", "X", "Fiction", owner.ID, time.Date(2025, time.August, 20, 0, 0, 0, 0, time.UTC))

	buckets, err := svc.BooksByMonth()
	require.NoError(t, err)
	require.Len(t, buckets, 12)

	assert.Equal(t, "2025-09", buckets[0].Month)
	assert.Equal(t, "2026-08", buckets[11].Month)
	assert.EqualValues(t, 1, buckets[0].Count)
	assert.EqualValues(t, 2, buckets[11].Count)

	// Every intermediate month is present, zero-filled.
	var total int64
	for _, b := range buckets {
		total += b.Count
	}
	assert.EqualValues(t, 3, total, "book outside the window is excluded")
	assert.EqualValues(t, 0, buckets[5].Count)
}

func TestUserStats_AdminOnly(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := newTestAnalytics(store, time.Now().UTC())

	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")
	now := time.Now().UTC()
	seedBook(t, store, "A", "X", "Fiction", alice.ID, now)
	seedBook(t, store, "B", "X", "Fiction", alice.ID, now)
	seedBook(t, store, "C", "X", "Fiction", bob.ID, now)

	_, err := svc.UserStats(models.Actor{ID: alice.ID, Role: models.RoleUser})
	assert.ErrorIs(t, err, ErrForbidden)

	stats, err := svc.UserStats(models.Actor{ID: uuid.New(), Role: models.RoleAdmin})
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "alice", stats[0].Username)
	assert.EqualValues(t, 2, stats[0].Books)
	assert.Equal(t, "bob", stats[1].Username)
	assert.EqualValues(t, 1, stats[1].Books)
}

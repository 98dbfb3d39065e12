package services

import (
	"time"

	"library/internal/models"
	"library/internal/repositories"
)

// RecentBooksLimit is how many of the newest books the summary embeds.
const RecentBooksLimit = 5

// trailingMonths is the size of the books-by-month window.
const trailingMonths = 12

// AnalyticsService derives the dashboard aggregates from the stores. All
// results are deterministic for an unchanged store: grouped counts order
// by count descending with a lexicographic key tiebreak, months are
// chronological.
type AnalyticsService interface {
	Summary(actor models.Actor) (*models.Summary, error)
	BooksByCategory() ([]models.GroupCount, error)
	BooksByAuthor() ([]models.GroupCount, error)
	BooksByMonth() ([]models.MonthCount, error)
	UserStats(actor models.Actor) ([]models.UserStat, error)
}

type analyticsService struct {
	bookRepo     repositories.BookRepository
	categoryRepo repositories.CategoryRepository
	userRepo     repositories.UserRepository
	now          func() time.Time
}

func NewAnalyticsService(
	bookRepo repositories.BookRepository,
	categoryRepo repositories.CategoryRepository,
	userRepo repositories.UserRepository,
) AnalyticsService {
	return &analyticsService{
		bookRepo:     bookRepo,
		categoryRepo: categoryRepo,
		userRepo:     userRepo,
		now:          time.Now,
	}
}

// Summary returns the headline counts and the most recent books. The user
// count is only revealed to admins.
func (s *analyticsService) Summary(actor models.Actor) (*models.Summary, error) {
	totalBooks, err := s.bookRepo.Count(nil)
	if err != nil {
		return nil, err
	}
	totalCategories, err := s.categoryRepo.Count(nil)
	if err != nil {
		return nil, err
	}
	recent, err := s.bookRepo.Recent(nil, RecentBooksLimit)
	if err != nil {
		return nil, err
	}

	summary := &models.Summary{
		TotalBooks:      totalBooks,
		TotalCategories: totalCategories,
		RecentBooks:     recent,
	}
	if actor.Role == models.RoleAdmin {
		totalUsers, err := s.userRepo.Count(nil)
		if err != nil {
			return nil, err
		}
		summary.TotalUsers = totalUsers
	}
	return summary, nil
}

func (s *analyticsService) BooksByCategory() ([]models.GroupCount, error) {
	return s.bookRepo.GroupByCategory(nil)
}

func (s *analyticsService) BooksByAuthor() ([]models.GroupCount, error) {
	return s.bookRepo.GroupByAuthor(nil)
}

// BooksByMonth buckets book creations over the trailing twelve calendar
// months, current month included. Months with no additions appear with a
// zero count; order is oldest first.
func (s *analyticsService) BooksByMonth() ([]models.MonthCount, error) {
	now := s.now().UTC()
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	windowStart := firstOfMonth.AddDate(0, -(trailingMonths - 1), 0)

	counts, err := s.bookRepo.CountByMonth(nil, windowStart)
	if err != nil {
		return nil, err
	}

	buckets := make([]models.MonthCount, 0, trailingMonths)
	for i := 0; i < trailingMonths; i++ {
		month := windowStart.AddDate(0, i, 0).Format("2006-01")
		buckets = append(buckets, models.MonthCount{
			Month: month,
			Count: counts[month],
		})
	}
	return buckets, nil
}

// UserStats returns per-user book counts; admin only.
func (s *analyticsService) UserStats(actor models.Actor) ([]models.UserStat, error) {
	if actor.Role != models.RoleAdmin {
		return nil, ErrForbidden
	}
	return s.bookRepo.CountByUser(nil)
}

// Package validation holds the pure input-validation rules shared by the
// handlers. Every function is side-effect free and returns human-readable
// messages: a slice for single-value inputs, a field→message map for
// multi-field entities. An empty result means the input is valid.
//
// The only time-dependent rule is the published-year upper bound, which is
// checked against the current calendar year.
package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// MaxFileSize is the default upload cap for cover images.
	MaxFileSize = 5 * 1024 * 1024

	minPasswordLen = 6
	minUsernameLen = 3
	maxUsernameLen = 50
	minSearchLen   = 2
	maxSearchLen   = 100
)

// AllowedImageTypes is the default MIME allow-list for cover uploads.
var AllowedImageTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/gif"}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail checks presence and basic localpart@domain.tld shape.
func ValidateEmail(email string) []string {
	var errs []string
	if strings.TrimSpace(email) == "" {
		errs = append(errs, "Email is required")
	} else if !emailPattern.MatchString(email) {
		errs = append(errs, "Please enter a valid email address")
	}
	return errs
}

// ValidatePassword checks presence and minimum length.
func ValidatePassword(password string) []string {
	var errs []string
	if password == "" {
		errs = append(errs, "Password is required")
	} else if utf8.RuneCountInString(password) < minPasswordLen {
		errs = append(errs, "Password must be at least 6 characters long")
	}
	return errs
}

// ValidateUsername checks presence and the 3–50 character bound.
func ValidateUsername(username string) []string {
	var errs []string
	switch {
	case strings.TrimSpace(username) == "":
		errs = append(errs, "Username is required")
	case utf8.RuneCountInString(username) < minUsernameLen:
		errs = append(errs, "Username must be at least 3 characters long")
	case utf8.RuneCountInString(username) > maxUsernameLen:
		errs = append(errs, "Username cannot exceed 50 characters")
	}
	return errs
}

// BookInput carries the raw, user-supplied fields of a book form.
// PublishedYear stays a string until validated because it arrives as
// multipart form text.
type BookInput struct {
	Title         string
	Author        string
	Category      string
	Description   string
	PublishedYear string
}

// ValidateBook checks every book field and returns one message per
// offending field.
func ValidateBook(in BookInput) map[string]string {
	errs := make(map[string]string)

	if strings.TrimSpace(in.Title) == "" {
		errs["title"] = "Title is required"
	} else if utf8.RuneCountInString(in.Title) > 100 {
		errs["title"] = "Title cannot exceed 100 characters"
	}

	if strings.TrimSpace(in.Author) == "" {
		errs["author"] = "Author is required"
	} else if utf8.RuneCountInString(in.Author) > 100 {
		errs["author"] = "Author name cannot exceed 100 characters"
	}

	if strings.TrimSpace(in.Category) == "" {
		errs["category"] = "Category is required"
	}

	if in.Description != "" && utf8.RuneCountInString(in.Description) > 1000 {
		errs["description"] = "Description cannot exceed 1000 characters"
	}

	if in.PublishedYear != "" {
		currentYear := time.Now().Year()
		year, err := strconv.Atoi(strings.TrimSpace(in.PublishedYear))
		if err != nil {
			errs["publishedYear"] = "Please enter a valid year"
		} else if year < 1000 || year > currentYear {
			errs["publishedYear"] = fmt.Sprintf("Year must be between 1000 and %d", currentYear)
		}
	}

	return errs
}

// CategoryInput carries the raw fields of a category form.
type CategoryInput struct {
	Name        string
	Description string
}

// ValidateCategory checks the category name and optional description.
func ValidateCategory(in CategoryInput) map[string]string {
	errs := make(map[string]string)

	if strings.TrimSpace(in.Name) == "" {
		errs["name"] = "Category name is required"
	} else if utf8.RuneCountInString(in.Name) > 50 {
		errs["name"] = "Category name cannot exceed 50 characters"
	}

	if in.Description != "" && utf8.RuneCountInString(in.Description) > 200 {
		errs["description"] = "Description cannot exceed 200 characters"
	}

	return errs
}

// ProfileInput carries the fields of a partial profile update. Empty
// fields are treated as not supplied.
type ProfileInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// ValidateProfile re-uses the single-field validators for whichever
// fields were actually supplied.
func ValidateProfile(in ProfileInput) map[string]string {
	errs := make(map[string]string)

	if in.Username != "" {
		if msgs := ValidateUsername(in.Username); len(msgs) > 0 {
			errs["username"] = msgs[0]
		}
	}
	if in.Email != "" {
		if msgs := ValidateEmail(in.Email); len(msgs) > 0 {
			errs["email"] = msgs[0]
		}
	}
	if in.Password != "" {
		if msgs := ValidatePassword(in.Password); len(msgs) > 0 {
			errs["password"] = msgs[0]
		}
	}
	if in.Password != "" && in.ConfirmPassword != "" && in.Password != in.ConfirmPassword {
		errs["confirmPassword"] = "Passwords do not match"
	}

	return errs
}

// FileInput describes an uploaded file. A nil *FileInput means no file
// was uploaded, which is not an error.
type FileInput struct {
	Size        int64
	ContentType string
}

// ValidateFile checks an optional upload against a size cap and a MIME
// allow-list. Zero maxSize and nil allowedTypes select the defaults.
func ValidateFile(file *FileInput, maxSize int64, allowedTypes []string) []string {
	if file == nil {
		return nil
	}
	if maxSize <= 0 {
		maxSize = MaxFileSize
	}
	if allowedTypes == nil {
		allowedTypes = AllowedImageTypes
	}

	var errs []string
	if file.Size > maxSize {
		errs = append(errs, fmt.Sprintf("File size must not exceed %dMB", maxSize/(1024*1024)))
	}

	allowed := false
	for _, t := range allowedTypes {
		if file.ContentType == t {
			allowed = true
			break
		}
	}
	if !allowed {
		errs = append(errs, "File type must be one of: "+strings.Join(allowedTypes, ", "))
	}

	return errs
}

// ValidateSearchQuery checks an optional search term's length bound.
func ValidateSearchQuery(query string) []string {
	var errs []string
	if query != "" && utf8.RuneCountInString(query) < minSearchLen {
		errs = append(errs, "Search query must be at least 2 characters")
	}
	if query != "" && utf8.RuneCountInString(query) > maxSearchLen {
		errs = append(errs, "Search query cannot exceed 100 characters")
	}
	return errs
}

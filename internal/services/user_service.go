package services

import (
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"library/internal/models"
	"library/internal/repositories"
	"library/internal/validation"
)

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// ProfileUpdateInput carries a partial profile update; empty fields are
// left unchanged. A password change must be confirmed.
type ProfileUpdateInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// UserService covers registration, credential checks, profile updates and
// the admin user-management views. Token issuing lives in the handlers;
// this service never sees a token.
type UserService interface {
	Register(in RegisterInput) (*models.User, error)
	Authenticate(email, password string) (*models.User, error)
	GetByID(id uuid.UUID) (*models.User, error)
	UpdateProfile(id uuid.UUID, in ProfileUpdateInput) (*models.User, error)
	ListUsers(actor models.Actor) ([]models.User, error)
	DeleteUser(id uuid.UUID, actor models.Actor) error
}

type userService struct {
	userRepo repositories.UserRepository
}

func NewUserService(userRepo repositories.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

// Register validates the payload, enforces username/email uniqueness and
// stores the user with a bcrypt password hash. New users always get the
// "user" role; admins are provisioned out of band.
func (s *userService) Register(in RegisterInput) (*models.User, error) {
	fields := make(map[string]string)
	if msgs := validation.ValidateUsername(in.Username); len(msgs) > 0 {
		fields["username"] = msgs[0]
	}
	if msgs := validation.ValidateEmail(in.Email); len(msgs) > 0 {
		fields["email"] = msgs[0]
	}
	if msgs := validation.ValidatePassword(in.Password); len(msgs) > 0 {
		fields["password"] = msgs[0]
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	if _, err := s.userRepo.GetByUsername(nil, in.Username); err == nil {
		return nil, &ConflictError{Field: "username", Message: "Username is already taken"}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if _, err := s.userRepo.GetByEmail(nil, in.Email); err == nil {
		return nil, &ConflictError{Field: "email", Message: "Email is already registered"}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     strings.TrimSpace(in.Username),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: string(hash),
		Role:         models.RoleUser,
		IsActive:     true,
	}
	if err := s.userRepo.Create(nil, user); err != nil {
		if isUniqueViolation(err) {
			// Lost a race with a concurrent registration. Re-check the
			// lookups to report the column that actually clashed.
			if _, lookErr := s.userRepo.GetByUsername(nil, user.Username); lookErr == nil {
				return nil, &ConflictError{Field: "username", Message: "Username is already taken"}
			}
			return nil, &ConflictError{Field: "email", Message: "Email is already registered"}
		}
		log.Printf("[ERROR] Register: failed to create user %q: %v", in.Username, err)
		return nil, err
	}

	log.Printf("[INFO] Register: created user %q (id=%s)", user.Username, user.ID)
	return user, nil
}

// Authenticate checks email+password and returns the matching user. The
// unknown-email and wrong-password cases are indistinguishable to the
// caller.
func (s *userService) Authenticate(email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(nil, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *userService) GetByID(id uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile applies a partial self-update. Only supplied fields are
// validated and changed.
func (s *userService) UpdateProfile(id uuid.UUID, in ProfileUpdateInput) (*models.User, error) {
	user, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	if fields := validation.ValidateProfile(validation.ProfileInput{
		Username:        in.Username,
		Email:           in.Email,
		Password:        in.Password,
		ConfirmPassword: in.ConfirmPassword,
	}); len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	if in.Username != "" && in.Username != user.Username {
		if _, err := s.userRepo.GetByUsername(nil, in.Username); err == nil {
			return nil, &ConflictError{Field: "username", Message: "Username is already taken"}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		user.Username = strings.TrimSpace(in.Username)
	}
	if in.Email != "" {
		email := strings.ToLower(strings.TrimSpace(in.Email))
		if email != user.Email {
			if _, err := s.userRepo.GetByEmail(nil, email); err == nil {
				return nil, &ConflictError{Field: "email", Message: "Email is already registered"}
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			user.Email = email
		}
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hash)
	}

	if err := s.userRepo.Update(nil, user); err != nil {
		if isUniqueViolation(err) {
			return nil, &ConflictError{Field: "username", Message: "Username is already taken"}
		}
		log.Printf("[ERROR] UpdateProfile: failed to update user %s: %v", id, err)
		return nil, err
	}
	log.Printf("[INFO] UpdateProfile: updated user %s", id)
	return user, nil
}

// ListUsers returns every account; admin only.
func (s *userService) ListUsers(actor models.Actor) ([]models.User, error) {
	if actor.Role != models.RoleAdmin {
		return nil, ErrForbidden
	}
	return s.userRepo.List(nil)
}

// DeleteUser removes an account; admin only, and never the admin's own.
func (s *userService) DeleteUser(id uuid.UUID, actor models.Actor) error {
	if actor.Role != models.RoleAdmin {
		return ErrForbidden
	}
	if id == actor.ID {
		return ErrCannotDeleteSelf
	}
	if _, err := s.GetByID(id); err != nil {
		return err
	}
	if err := s.userRepo.Delete(nil, id); err != nil {
		log.Printf("[ERROR] DeleteUser: failed to delete user %s: %v", id, err)
		return err
	}
	log.Printf("[INFO] DeleteUser: admin %s deleted user %s", actor.ID, id)
	return nil
}

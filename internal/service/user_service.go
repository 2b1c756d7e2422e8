package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"usof/internal/cache"
	"usof/internal/models"
	"usof/internal/observability"
	"usof/internal/repository"
	"usof/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	userRepo  repository.UserRepository
	blacklist cache.TokenBlacklist
	isAdmin   AdminChecker
	hashCost  int
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
}

// LoginInput identifies the user by username or email in Login.
type LoginInput struct {
	Login    string
	Password string
}

// UpdateProfileInput changes only the non-nil fields of the target user.
type UpdateProfileInput struct {
	ActorID        string
	UserID         string
	FullName       *string
	Email          *string
	Password       *string
	ProfilePicture *string
}

func NewUserService(userRepo repository.UserRepository, blacklist cache.TokenBlacklist) *UserService {
	s := &UserService{
		userRepo:  userRepo,
		blacklist: blacklist,
		hashCost:  bcrypt.DefaultCost,
	}
	s.isAdmin = s.IsAdmin
	return s
}

// IsAdmin reads the role from storage so a demotion applies to live tokens.
func (s *UserService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.IsAdmin(), nil
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateFullName(in.FullName); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if err := s.ensureFree(ctx, s.userRepo.GetByUsername, in.Username, models.ErrUsernameTaken); err != nil {
		return nil, err
	}
	if err := s.ensureFree(ctx, s.userRepo.GetByEmail, in.Email, models.ErrEmailTaken); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(in.FullName),
		Role:         models.RoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) ensureFree(
	ctx context.Context,
	lookup func(context.Context, string) (*models.User, error),
	value string,
	taken error,
) error {
	_, err := lookup(ctx, value)
	switch {
	case err == nil:
		return taken
	case errors.Is(err, models.ErrUserNotFound):
		return nil
	default:
		return err
	}
}

// Login checks the password of the user named by username or email. Unknown
// users and bad passwords fail the same way.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*models.User, error) {
	login := strings.TrimSpace(in.Login)
	if login == "" || in.Password == "" {
		return nil, models.NewValidationError("Login and password are required")
	}

	lookup := s.userRepo.GetByUsername
	if strings.Contains(login, "@") {
		lookup = s.userRepo.GetByEmail
		login = strings.ToLower(login)
	}
	user, err := lookup(ctx, login)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, models.NewUnauthorizedError("Invalid credentials")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}

// Logout revokes token until it would have expired anyway.
func (s *UserService) Logout(ctx context.Context, token string, remaining time.Duration) error {
	if token == "" {
		return models.NewUnauthorizedError("Missing token")
	}
	if err := s.blacklist.Blacklist(ctx, token, remaining); err != nil {
		return err
	}
	observability.TokensRevoked.Inc()
	return nil
}

// IsRevoked reports whether token was blacklisted at logout.
func (s *UserService) IsRevoked(ctx context.Context, token string) (bool, error) {
	return s.blacklist.IsBlacklisted(ctx, token)
}

func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.userRepo.GetByUsername(ctx, username)
}

// GetByEmail matches the address case-insensitively, as stored.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

func (s *UserService) List(ctx context.Context, limit, offset int) ([]*models.User, int64, error) {
	return s.userRepo.List(ctx, limit, offset)
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	if err := requireOwnerOrAdmin(ctx, s.isAdmin, in.ActorID, in.UserID, "You can only edit your own profile"); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.FullName != nil {
		if err := validation.ValidateFullName(*in.FullName); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if err := validation.ValidateEmail(email); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		if email != user.Email {
			if err := s.ensureFree(ctx, s.userRepo.GetByEmail, email, models.ErrEmailTaken); err != nil {
				return nil, err
			}
			user.Email = email
		}
	}
	if in.Password != nil {
		if err := validation.ValidatePassword(*in.Password); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), s.hashCost)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		user.PasswordHash = string(hash)
	}
	if in.ProfilePicture != nil {
		pic := strings.TrimSpace(*in.ProfilePicture)
		if pic == "" {
			user.ProfilePicture = nil
		} else {
			user.ProfilePicture = &pic
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes a user and, through cascades, everything they authored.
func (s *UserService) Delete(ctx context.Context, userID, actorID string) error {
	if err := requireOwnerOrAdmin(ctx, s.isAdmin, actorID, userID, "You can only delete your own account"); err != nil {
		return err
	}
	return s.userRepo.Delete(ctx, userID)
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"usof/internal/cache"
	"usof/internal/middleware"
	"usof/internal/models"
	"usof/internal/observability"
	"usof/internal/repository"
	"usof/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

const (
	verifyEmailTTL   = 10 * time.Minute
	passwordResetTTL = 5 * time.Minute
)

// AccountService runs the mailed-link flows: email verification and
// password reset.
type AccountService struct {
	userRepo  repository.UserRepository
	blacklist cache.TokenBlacklist
	mailer    Mailer
	secret    string
	hashCost  int
}

func NewAccountService(userRepo repository.UserRepository, blacklist cache.TokenBlacklist, mailer Mailer, secret string) *AccountService {
	return &AccountService{
		userRepo:  userRepo,
		blacklist: blacklist,
		mailer:    mailer,
		secret:    secret,
		hashCost:  bcrypt.DefaultCost,
	}
}

var errInvalidLink = models.NewUnauthorizedError("Invalid or expired token")

// SendVerification mails user a fresh verification link. Verified users get
// nothing.
func (s *AccountService) SendVerification(ctx context.Context, user *models.User) error {
	if user.IsVerified {
		return nil
	}
	token, err := middleware.IssuePurposeToken(s.secret, user.ID, middleware.PurposeVerifyEmail, verifyEmailTTL)
	if err != nil {
		return models.NewInternalError(err)
	}
	if err := s.mailer.SendEmailVerification(ctx, user.Email, token); err != nil {
		return fmt.Errorf("send verification email: %w", err)
	}
	return nil
}

// ResendVerification is SendVerification for the user with userID.
func (s *AccountService) ResendVerification(ctx context.Context, userID string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	return s.SendVerification(ctx, user)
}

// VerifyEmail marks the token's user verified. already reports a user that
// was verified before this call.
func (s *AccountService) VerifyEmail(ctx context.Context, token string) (user *models.User, already bool, err error) {
	ctx, end := observability.StartSpan(ctx, "account.verify_email")
	defer func() { end(err) }()

	if strings.TrimSpace(token) == "" {
		return nil, false, models.NewValidationError("Verification token is missing")
	}
	claims, err := middleware.ParsePurposeToken(s.secret, token, middleware.PurposeVerifyEmail)
	if err != nil {
		return nil, false, errInvalidLink
	}
	user, err = s.userRepo.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, false, err
	}
	if user.IsVerified {
		return user, true, nil
	}
	user.IsVerified = true
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, false, err
	}
	return user, false, nil
}

// RequestPasswordReset mails a reset link to the account owning email.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.ValidateEmail(email); err != nil {
		return models.NewValidationError(err.Error())
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	token, err := middleware.IssuePurposeToken(s.secret, user.ID, middleware.PurposePasswordReset, passwordResetTTL)
	if err != nil {
		return models.NewInternalError(err)
	}
	if err := s.mailer.SendPasswordReset(ctx, user.Email, token); err != nil {
		return fmt.Errorf("send password reset email: %w", err)
	}
	return nil
}

// ResetPassword sets a new password for the token's user. Each token works
// once: it is blacklisted for the rest of its lifetime.
func (s *AccountService) ResetPassword(ctx context.Context, token, password string) (user *models.User, err error) {
	ctx, end := observability.StartSpan(ctx, "account.reset_password")
	defer func() { end(err) }()

	claims, err := middleware.ParsePurposeToken(s.secret, token, middleware.PurposePasswordReset)
	if err != nil {
		return nil, errInvalidLink
	}
	used, err := s.blacklist.IsBlacklisted(ctx, token)
	if err != nil {
		return nil, err
	}
	if used {
		return nil, errInvalidLink
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	user, err = s.userRepo.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	user.PasswordHash = string(hash)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	if err := s.blacklist.Blacklist(ctx, token, time.Until(claims.ExpiresAt.Time)); err != nil {
		// the password already changed; a replay only sets it again
		middleware.Logger.WarnContext(ctx, "failed to retire reset token", "error", err,
			"user_id", user.ID)
	}
	return user, nil
}

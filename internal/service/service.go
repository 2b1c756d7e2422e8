// Package service holds the comment, post, reaction, category and user engines.
package service

import (
	"context"
	"errors"
	"strings"

	"usof/internal/models"
)

// AdminChecker reports whether a user holds the ADMIN role.
type AdminChecker func(ctx context.Context, userID string) (bool, error)

// requireOwnerOrAdmin lets the owner through, then falls back to the admin
// check. A nil checker means nobody but the owner may act.
func requireOwnerOrAdmin(ctx context.Context, isAdmin AdminChecker, actorID, ownerID, message string) error {
	if actorID != "" && actorID == ownerID {
		return nil
	}
	if isAdmin == nil || actorID == "" {
		return models.NewForbiddenError(message)
	}
	admin, err := isAdmin(ctx, actorID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return models.NewForbiddenError(message)
		}
		return err
	}
	if !admin {
		return models.NewForbiddenError(message)
	}
	return nil
}

// asAuthorNotFound rewrites a missing user into the author-specific failure.
func asAuthorNotFound(err error) error {
	if errors.Is(err, models.ErrUserNotFound) {
		return models.ErrAuthorNotFound
	}
	return err
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

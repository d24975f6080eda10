package service

import (
	"errors"
	"fmt"

	"github.com/pclub/portal/api/internal/database"
	"github.com/pclub/portal/api/internal/model"
	"github.com/pclub/portal/api/internal/upload"
)

func isDuplicate(err error) bool {
	return errors.Is(err, database.ErrDuplicate)
}

func isNotFound(err error) bool {
	return errors.Is(err, database.ErrNotFound)
}

// uploadError passes client-side upload problems through and wraps CDN
// failures as upstream errors.
func uploadError(err error) error {
	switch {
	case errors.Is(err, upload.ErrFileTooLarge),
		errors.Is(err, upload.ErrUnsupportedType),
		errors.Is(err, upload.ErrTooManyFiles),
		errors.Is(err, upload.ErrNotConfigured):
		return err
	}
	return fmt.Errorf("%w: upload: %v", ErrUpstream, err)
}

// Actor is the authenticated caller of an ownership-checked operation.
// Role comes from the token and may be stale; moderation rights are
// confirmed against the stored account.
type Actor struct {
	UserID string
	Role   model.UserRole
}

func isModeratorRole(role model.UserRole) bool {
	return role == model.UserRoleAdmin || role == model.UserRoleModerator
}

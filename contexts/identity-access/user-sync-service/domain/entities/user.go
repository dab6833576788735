package entities

import (
	"strings"
	"time"

	domainerrors "pms/contexts/identity-access/user-sync-service/domain/errors"
)

const (
	MaxNameLength       = 128
	MaxEmailLength      = 128
	MaxExternalIDLength = 128
)

// User is the canonical, deduplicated representation of a person synced
// from the identity provider. ID is the store-assigned surrogate key and
// never changes once a row exists; ExternalID is the provider's stable id.
type User struct {
	ID         int64
	ExternalID string
	Name       string
	Email      string
	Image      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ValidateUpsertFields checks the composed record one last time before it is
// written. Normalization has already run, so failures here mean the payload
// produced values the users table cannot hold.
func ValidateUpsertFields(externalID string, name string, email string) error {
	switch {
	case strings.TrimSpace(externalID) == "":
		return domainerrors.NewValidationError("external_id", "required")
	case len(externalID) > MaxExternalIDLength:
		return domainerrors.NewValidationError("external_id", "max")
	case strings.TrimSpace(name) == "":
		return domainerrors.NewValidationError("name", "required")
	case len(name) > MaxNameLength:
		return domainerrors.NewValidationError("name", "max")
	case strings.TrimSpace(email) == "":
		return domainerrors.NewValidationError("email", "required")
	case len(email) > MaxEmailLength:
		return domainerrors.NewValidationError("email", "max")
	}
	return nil
}

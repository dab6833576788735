package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "pms/contexts/identity-access/user-sync-service/application"
	"pms/contexts/identity-access/user-sync-service/contracts"
	"pms/contexts/identity-access/user-sync-service/domain/entities"
	domainerrors "pms/contexts/identity-access/user-sync-service/domain/errors"
	"pms/contexts/identity-access/user-sync-service/ports"
)

// SyncUpdateUseCase applies an identity.update event as a sparse overwrite:
// only fields present after normalization reach the store, plus updated_at.
// It never creates a row; an update for an identity that was never created
// (or already deleted) is reported as a structured not-found outcome, not
// an error, so redelivery of such events cannot cause retry storms.
type SyncUpdateUseCase struct {
	Repo   ports.Repository
	Clock  ports.Clock
	Logger *slog.Logger
}

func (uc SyncUpdateUseCase) Execute(ctx context.Context, raw json.RawMessage) (ports.UpdateResult, error) {
	externalID := contracts.ExtractExternalID(raw)

	payload, err := contracts.DecodeUpdatePayload(raw)
	if err != nil {
		return ports.UpdateResult{}, reportFailure(uc.Logger, "identity_sync_update_failed", externalID, err)
	}

	set := ports.UserUpdateSet{}
	if email, ok := application.SelectPrimaryEmail(payload.Emails); ok && email != "" {
		set.Email = &email
	}
	if name := application.ComposeDisplayName(payload.FirstName, payload.LastName, payload.FullName); name != "" {
		set.Name = &name
	}
	if payload.ImageURL != "" {
		image := payload.ImageURL
		set.Image = &image
	}
	if err := validateUpdateSet(set); err != nil {
		return ports.UpdateResult{}, reportFailure(uc.Logger, "identity_sync_update_failed", payload.ExternalID, err)
	}

	user, found, err := uc.Repo.UpdateByExternalID(ctx, payload.ExternalID, set, uc.now())
	if err != nil {
		return ports.UpdateResult{}, reportFailure(uc.Logger, "identity_sync_update_failed", payload.ExternalID, err)
	}
	if !found {
		application.ResolveLogger(uc.Logger).Warn("identity update target missing",
			"event", "identity_sync_update_not_found",
			"module", "identity-access/user-sync-service",
			"layer", "application",
			"external_id", payload.ExternalID,
		)
		return ports.UpdateResult{
			Success:    false,
			Reason:     ports.ReasonNotFound,
			ExternalID: payload.ExternalID,
		}, nil
	}

	application.ResolveLogger(uc.Logger).Info("identity user updated",
		"event", "identity_sync_update_applied",
		"module", "identity-access/user-sync-service",
		"layer", "application",
		"external_id", user.ExternalID,
		"user_id", user.ID,
	)
	return ports.UpdateResult{
		Success:    true,
		ID:         user.ID,
		ExternalID: user.ExternalID,
		User:       user,
	}, nil
}

func validateUpdateSet(set ports.UserUpdateSet) error {
	if set.Name != nil && len(*set.Name) > entities.MaxNameLength {
		return domainerrors.NewValidationError("name", "max")
	}
	if set.Email != nil && len(*set.Email) > entities.MaxEmailLength {
		return domainerrors.NewValidationError("email", "max")
	}
	return nil
}

func (uc SyncUpdateUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}

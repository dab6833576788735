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

// SyncCreateUseCase materializes a canonical user from an identity.create
// event. The write is a single insert-or-merge keyed on the external id, so
// replaying the same event any number of times leaves exactly one row whose
// surrogate id never changes.
type SyncCreateUseCase struct {
	Repo   ports.Repository
	Clock  ports.Clock
	Logger *slog.Logger
}

func (uc SyncCreateUseCase) Execute(ctx context.Context, raw json.RawMessage) (ports.CreateResult, error) {
	externalID := contracts.ExtractExternalID(raw)

	payload, err := contracts.DecodeCreatePayload(raw)
	if err != nil {
		return ports.CreateResult{}, reportFailure(uc.Logger, "identity_sync_create_failed", externalID, err)
	}

	email, ok := application.SelectPrimaryEmail(payload.Emails)
	if !ok || email == "" {
		return ports.CreateResult{}, reportFailure(uc.Logger, "identity_sync_create_failed", payload.ExternalID, domainerrors.ErrNoUsableEmail)
	}
	name := application.ComposeDisplayName(payload.FirstName, payload.LastName, payload.FullName)
	if name == "" {
		return ports.CreateResult{}, reportFailure(uc.Logger, "identity_sync_create_failed", payload.ExternalID, domainerrors.ErrNoUsableName)
	}
	if err := entities.ValidateUpsertFields(payload.ExternalID, name, email); err != nil {
		return ports.CreateResult{}, reportFailure(uc.Logger, "identity_sync_create_failed", payload.ExternalID, err)
	}

	user, err := uc.Repo.UpsertByExternalID(ctx, ports.UpsertValues{
		ExternalID: payload.ExternalID,
		Name:       name,
		Email:      email,
		Image:      payload.ImageURL,
	}, uc.now())
	if err != nil {
		return ports.CreateResult{}, reportFailure(uc.Logger, "identity_sync_create_failed", payload.ExternalID, err)
	}

	application.ResolveLogger(uc.Logger).Info("identity user synced",
		"event", "identity_sync_create_applied",
		"module", "identity-access/user-sync-service",
		"layer", "application",
		"external_id", user.ExternalID,
		"user_id", user.ID,
	)
	return ports.CreateResult{
		Success:    true,
		ID:         user.ID,
		ExternalID: user.ExternalID,
		User:       user,
	}, nil
}

func (uc SyncCreateUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}

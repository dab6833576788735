package commands

import (
	"context"
	"encoding/json"
	"log/slog"

	application "pms/contexts/identity-access/user-sync-service/application"
	"pms/contexts/identity-access/user-sync-service/contracts"
	"pms/contexts/identity-access/user-sync-service/ports"
)

// SyncDeleteUseCase removes the canonical user for an identity.delete
// event. Deleting an external id with no matching row is a successful
// no-op, which keeps replayed deletes idempotent.
type SyncDeleteUseCase struct {
	Repo   ports.Repository
	Logger *slog.Logger
}

func (uc SyncDeleteUseCase) Execute(ctx context.Context, raw json.RawMessage) (ports.DeleteResult, error) {
	externalID := contracts.ExtractExternalID(raw)

	payload, err := contracts.DecodeDeletePayload(raw)
	if err != nil {
		return ports.DeleteResult{}, reportFailure(uc.Logger, "identity_sync_delete_failed", externalID, err)
	}

	rows, err := uc.Repo.DeleteByExternalID(ctx, payload.ExternalID)
	if err != nil {
		return ports.DeleteResult{}, reportFailure(uc.Logger, "identity_sync_delete_failed", payload.ExternalID, err)
	}

	application.ResolveLogger(uc.Logger).Info("identity user delete processed",
		"event", "identity_sync_delete_applied",
		"module", "identity-access/user-sync-service",
		"layer", "application",
		"external_id", payload.ExternalID,
		"rows", rows,
	)
	return ports.DeleteResult{
		Success:    true,
		Deleted:    rows > 0,
		ExternalID: payload.ExternalID,
		Rows:       rows,
	}, nil
}

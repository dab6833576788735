package commands

import (
	"log/slog"

	application "pms/contexts/identity-access/user-sync-service/application"
)

// reportFailure logs a handler failure with the best-available identity
// correlator and hands the error back unchanged. The transport owns retry,
// backoff, and dead-lettering; nothing is recovered here.
func reportFailure(logger *slog.Logger, event string, externalID string, err error) error {
	application.ResolveLogger(logger).Error("identity sync handler failed",
		"event", event,
		"module", "identity-access/user-sync-service",
		"layer", "application",
		"external_id", externalID,
		"error", err.Error(),
	)
	return err
}

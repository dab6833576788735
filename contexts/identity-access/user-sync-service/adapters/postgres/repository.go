package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"pms/contexts/identity-access/user-sync-service/domain/entities"
	domainerrors "pms/contexts/identity-access/user-sync-service/domain/errors"
	"pms/contexts/identity-access/user-sync-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// UpsertByExternalID is a single INSERT ... ON CONFLICT (external_id) DO
// UPDATE statement. Repeated delivery of the same create event converges on
// one row whose id and created_at never change; a conflicting email owned
// by a different external id trips the users_email unique constraint and
// surfaces as ErrEmailConflict.
func (r *Repository) UpsertByExternalID(
	ctx context.Context,
	values ports.UpsertValues,
	now time.Time,
) (entities.User, error) {
	externalID := strings.TrimSpace(values.ExternalID)
	row := userModel{
		ExternalID: externalID,
		Name:       values.Name,
		Email:      values.Email,
		Image:      values.Image,
		CreatedAt:  now.UTC(),
		UpdatedAt:  now.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"name":       row.Name,
			"email":      row.Email,
			"image":      row.Image,
			"updated_at": now.UTC(),
		}),
	}).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return entities.User{}, domainerrors.ErrEmailConflict
		}
		return entities.User{}, r.logError("user_sync_repo_upsert_failed", create.Error,
			"external_id", externalID,
		)
	}

	// Re-read so merges report the surviving surrogate id and created_at.
	var persisted userModel
	if err := r.db.WithContext(ctx).
		Where("external_id = ?", externalID).
		First(&persisted).Error; err != nil {
		return entities.User{}, r.logError("user_sync_repo_upsert_reload_failed", err,
			"external_id", externalID,
		)
	}
	return persisted.toEntity(), nil
}

func (r *Repository) UpdateByExternalID(
	ctx context.Context,
	externalID string,
	set ports.UserUpdateSet,
	now time.Time,
) (entities.User, bool, error) {
	externalID = strings.TrimSpace(externalID)

	updates := map[string]any{"updated_at": now.UTC()}
	if set.Name != nil {
		updates["name"] = *set.Name
	}
	if set.Email != nil {
		updates["email"] = *set.Email
	}
	if set.Image != nil {
		updates["image"] = *set.Image
	}

	result := r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("external_id = ?", externalID).
		Updates(updates)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return entities.User{}, false, domainerrors.ErrEmailConflict
		}
		return entities.User{}, false, r.logError("user_sync_repo_update_failed", result.Error,
			"external_id", externalID,
		)
	}
	if result.RowsAffected == 0 {
		return entities.User{}, false, nil
	}

	var row userModel
	if err := r.db.WithContext(ctx).
		Where("external_id = ?", externalID).
		First(&row).Error; err != nil {
		return entities.User{}, false, r.logError("user_sync_repo_update_reload_failed", err,
			"external_id", externalID,
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) DeleteByExternalID(ctx context.Context, externalID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("external_id = ?", strings.TrimSpace(externalID)).
		Delete(&userModel{})
	if result.Error != nil {
		return 0, r.logError("user_sync_repo_delete_failed", result.Error,
			"external_id", strings.TrimSpace(externalID),
		)
	}
	return result.RowsAffected, nil
}

func (r *Repository) WasProcessed(ctx context.Context, eventID string, now time.Time) (bool, error) {
	var row identityEventModel
	err := r.db.WithContext(ctx).
		Where("event_id = ?", strings.TrimSpace(eventID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, r.logError("user_sync_repo_dedup_lookup_failed", err,
			"event_id", strings.TrimSpace(eventID),
		)
	}
	if !row.ExpiresAt.IsZero() && now.UTC().After(row.ExpiresAt.UTC()) {
		return false, nil
	}
	return true, nil
}

func (r *Repository) MarkProcessed(
	ctx context.Context,
	eventID string,
	payloadHash string,
	processedAt time.Time,
	expiresAt time.Time,
) error {
	row := identityEventModel{
		EventID:     strings.TrimSpace(eventID),
		PayloadHash: strings.TrimSpace(payloadHash),
		ExpiresAt:   expiresAt.UTC(),
		ProcessedAt: processedAt.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("user_sync_repo_dedup_mark_failed", create.Error,
			"event_id", row.EventID,
		)
	}
	return nil
}

func (r *Repository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at <= ?", now.UTC()).
		Delete(&identityEventModel{})
	if result.Error != nil {
		return 0, r.logError("user_sync_repo_dedup_purge_failed", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "identity-access/user-sync-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("user sync repository operation failed", fields...)
	return err
}

type userModel struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ExternalID string    `gorm:"column:external_id"`
	Name       string    `gorm:"column:name"`
	Email      string    `gorm:"column:email"`
	Image      string    `gorm:"column:image"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (userModel) TableName() string {
	return "users"
}

func (m userModel) toEntity() entities.User {
	return entities.User{
		ID:         m.ID,
		ExternalID: m.ExternalID,
		Name:       m.Name,
		Email:      m.Email,
		Image:      m.Image,
		CreatedAt:  m.CreatedAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
	}
}

type identityEventModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (identityEventModel) TableName() string {
	return "identity_event_dedup"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.Repository = (*Repository)(nil)
var _ ports.EventDedupStore = (*Repository)(nil)

package ports

import (
	"context"
	"encoding/json"
	"time"

	"pms/contexts/identity-access/user-sync-service/domain/entities"
)

// Topics delivered by the identity provider transport.
const (
	EventIdentityCreate = "identity.create"
	EventIdentityUpdate = "identity.update"
	EventIdentityDelete = "identity.delete"
)

type Clock interface {
	Now() time.Time
}

// EventEnvelope is the delivery wrapper the transport hands to consumers.
// EventID is opaque and only used for correlation and replay detection.
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	CorrelationID string          `json:"correlation_id"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Data          json.RawMessage `json:"data"`
}

// EventSubscriber is the bus-side contract: the transport invokes handler
// at least once per published envelope, with no ordering guarantee.
type EventSubscriber interface {
	Subscribe(ctx context.Context, topic string, consumerGroup string, handler func(context.Context, EventEnvelope) error) error
}

// EmailCandidate is one address from the provider's multi-valued email list.
type EmailCandidate struct {
	Address  string
	Primary  bool
	Verified bool
}

// CreatePayload is a validated identity.create event body.
type CreatePayload struct {
	ExternalID string
	FirstName  string
	LastName   string
	FullName   string
	Emails     []EmailCandidate
	ImageURL   string
}

// UpdatePayload is a validated identity.update event body. Everything but
// ExternalID is an optional delta.
type UpdatePayload struct {
	ExternalID string
	FirstName  string
	LastName   string
	FullName   string
	Emails     []EmailCandidate
	ImageURL   string
}

// DeletePayload is a validated identity.delete event body.
type DeletePayload struct {
	ExternalID string
}

// UpsertValues are the mutable canonical-user fields written by the
// create path. The conflict target is ExternalID, never Email.
type UpsertValues struct {
	ExternalID string
	Name       string
	Email      string
	Image      string
}

// UserUpdateSet is a sparse update: nil fields are left untouched.
type UserUpdateSet struct {
	Name  *string
	Email *string
	Image *string
}

// IsEmpty reports whether the set carries no field changes at all.
func (s UserUpdateSet) IsEmpty() bool {
	return s.Name == nil && s.Email == nil && s.Image == nil
}

type CreateResult struct {
	Success    bool          `json:"success"`
	ID         int64         `json:"id"`
	ExternalID string        `json:"external_id"`
	User       entities.User `json:"user_data"`
}

const ReasonNotFound = "not_found"

type UpdateResult struct {
	Success    bool          `json:"success"`
	Reason     string        `json:"reason,omitempty"`
	ID         int64         `json:"id,omitempty"`
	ExternalID string        `json:"external_id"`
	User       entities.User `json:"user_data,omitempty"`
}

type DeleteResult struct {
	Success    bool   `json:"success"`
	Deleted    bool   `json:"deleted"`
	ExternalID string `json:"external_id"`
	Rows       int64  `json:"rows"`
}

// Repository is the canonical-user persistence port. Every method maps to a
// single conditional statement in the store so each call is atomic on its
// own; no cross-call transaction is assumed.
type Repository interface {
	// UpsertByExternalID inserts a new user or, when a row with the same
	// external id exists, overwrites name/email/image/updated_at in place,
	// preserving id and created_at. Returns the resulting row.
	UpsertByExternalID(ctx context.Context, values UpsertValues, now time.Time) (entities.User, error)

	// UpdateByExternalID applies the sparse set plus updated_at to the row
	// matching externalID. found is false when no row matched; that is not
	// an error.
	UpdateByExternalID(ctx context.Context, externalID string, set UserUpdateSet, now time.Time) (entities.User, bool, error)

	// DeleteByExternalID removes the matching row and reports how many rows
	// were deleted. Zero rows is a successful no-op.
	DeleteByExternalID(ctx context.Context, externalID string) (int64, error)
}

// EventDedupStore remembers envelope ids that finished processing so
// replays of completed events can be skipped. Failed events and not-found
// updates are never recorded here; the transport's retry policy must keep
// seeing them.
type EventDedupStore interface {
	WasProcessed(ctx context.Context, eventID string, now time.Time) (bool, error)
	MarkProcessed(ctx context.Context, eventID string, payloadHash string, processedAt time.Time, expiresAt time.Time) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

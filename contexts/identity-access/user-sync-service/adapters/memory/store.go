package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"pms/contexts/identity-access/user-sync-service/domain/entities"
	domainerrors "pms/contexts/identity-access/user-sync-service/domain/errors"
	"pms/contexts/identity-access/user-sync-service/ports"
)

type dedupRecord struct {
	PayloadHash string
	ExpiresAt   time.Time
	ProcessedAt time.Time
}

// Store is the in-memory repository used by tests and local development.
// It enforces the same uniqueness rules as the users table: one row per
// external id, one row per email.
type Store struct {
	mu sync.RWMutex

	usersByExternalID map[string]entities.User
	externalIDByEmail map[string]string
	dedupByEventID    map[string]dedupRecord
	nextID            int64
}

func NewStore() *Store {
	return &Store{
		usersByExternalID: make(map[string]entities.User),
		externalIDByEmail: make(map[string]string),
		dedupByEventID:    make(map[string]dedupRecord),
		nextID:            1,
	}
}

func (s *Store) UpsertByExternalID(
	ctx context.Context,
	values ports.UpsertValues,
	now time.Time,
) (entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	externalID := strings.TrimSpace(values.ExternalID)
	if owner, taken := s.externalIDByEmail[values.Email]; taken && owner != externalID {
		return entities.User{}, domainerrors.ErrEmailConflict
	}

	user, exists := s.usersByExternalID[externalID]
	if !exists {
		user = entities.User{
			ID:         s.nextID,
			ExternalID: externalID,
			CreatedAt:  now.UTC(),
		}
		s.nextID++
	}
	delete(s.externalIDByEmail, user.Email)
	user.Name = values.Name
	user.Email = values.Email
	user.Image = values.Image
	user.UpdatedAt = now.UTC()

	s.usersByExternalID[externalID] = user
	s.externalIDByEmail[user.Email] = externalID
	return user, nil
}

func (s *Store) UpdateByExternalID(
	ctx context.Context,
	externalID string,
	set ports.UserUpdateSet,
	now time.Time,
) (entities.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	externalID = strings.TrimSpace(externalID)
	user, exists := s.usersByExternalID[externalID]
	if !exists {
		return entities.User{}, false, nil
	}
	if set.Email != nil {
		if owner, taken := s.externalIDByEmail[*set.Email]; taken && owner != externalID {
			return entities.User{}, false, domainerrors.ErrEmailConflict
		}
		delete(s.externalIDByEmail, user.Email)
		user.Email = *set.Email
		s.externalIDByEmail[user.Email] = externalID
	}
	if set.Name != nil {
		user.Name = *set.Name
	}
	if set.Image != nil {
		user.Image = *set.Image
	}
	user.UpdatedAt = now.UTC()

	s.usersByExternalID[externalID] = user
	return user, true, nil
}

func (s *Store) DeleteByExternalID(ctx context.Context, externalID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	externalID = strings.TrimSpace(externalID)
	user, exists := s.usersByExternalID[externalID]
	if !exists {
		return 0, nil
	}
	delete(s.usersByExternalID, externalID)
	delete(s.externalIDByEmail, user.Email)
	return 1, nil
}

func (s *Store) WasProcessed(ctx context.Context, eventID string, now time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.dedupByEventID[eventID]
	if !ok {
		return false, nil
	}
	if !record.ExpiresAt.IsZero() && now.UTC().After(record.ExpiresAt.UTC()) {
		return false, nil
	}
	return true, nil
}

func (s *Store) MarkProcessed(
	ctx context.Context,
	eventID string,
	payloadHash string,
	processedAt time.Time,
	expiresAt time.Time,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.dedupByEventID[eventID]; exists {
		return nil
	}
	s.dedupByEventID[eventID] = dedupRecord{
		PayloadHash: payloadHash,
		ExpiresAt:   expiresAt.UTC(),
		ProcessedAt: processedAt.UTC(),
	}
	return nil
}

func (s *Store) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var purged int64
	for eventID, record := range s.dedupByEventID {
		if !record.ExpiresAt.IsZero() && now.UTC().After(record.ExpiresAt.UTC()) {
			delete(s.dedupByEventID, eventID)
			purged++
		}
	}
	return purged, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

// GetByExternalID is a test helper for observing persisted state.
func (s *Store) GetByExternalID(externalID string) (entities.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.usersByExternalID[strings.TrimSpace(externalID)]
	return user, ok
}

// DedupProcessedAt is a test helper exposing when an envelope was recorded.
func (s *Store) DedupProcessedAt(eventID string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.dedupByEventID[eventID]
	return record.ProcessedAt, ok
}

// Count is a test helper reporting how many canonical users exist.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.usersByExternalID)
}

var _ ports.Repository = (*Store)(nil)
var _ ports.EventDedupStore = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)

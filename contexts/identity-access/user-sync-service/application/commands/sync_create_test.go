package commands

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"pms/contexts/identity-access/user-sync-service/adapters/memory"
	domainerrors "pms/contexts/identity-access/user-sync-service/domain/errors"
)

func createPayload(externalID string, email string) json.RawMessage {
	return json.RawMessage(`{
		"id": "` + externalID + `",
		"first_name": "John",
		"last_name": "Doe",
		"email_addresses": [{"email_address": "` + email + `", "primary": true}],
		"image_url": "https://img.example.com/a.png"
	}`)
}

func TestSyncCreatePersistsCanonicalUser(t *testing.T) {
	store := memory.NewStore()
	uc := SyncCreateUseCase{Repo: store, Clock: store}

	result, err := uc.Execute(context.Background(), createPayload("user_1", "John.Doe@Example.com"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !result.Success {
		t.Fatal("expected success result")
	}
	if result.ExternalID != "user_1" {
		t.Fatalf("unexpected external id %s", result.ExternalID)
	}
	if result.User.Name != "John Doe" {
		t.Fatalf("unexpected name %q", result.User.Name)
	}
	if result.User.Email != "john.doe@example.com" {
		t.Fatalf("expected canonical email, got %q", result.User.Email)
	}
	if result.User.Image != "https://img.example.com/a.png" {
		t.Fatalf("unexpected image %q", result.User.Image)
	}
}

func TestSyncCreateIdempotentReplay(t *testing.T) {
	store := memory.NewStore()
	uc := SyncCreateUseCase{Repo: store, Clock: store}
	payload := createPayload("user_replay", "a@x.com")

	first, err := uc.Execute(context.Background(), payload)
	if err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}
	var last int64
	for i := 0; i < 5; i++ {
		result, err := uc.Execute(context.Background(), payload)
		if err != nil {
			t.Fatalf("replay %d failed: %v", i, err)
		}
		last = result.ID
	}
	if last != first.ID {
		t.Fatalf("surrogate id changed across replays: %d vs %d", first.ID, last)
	}
	if store.Count() != 1 {
		t.Fatalf("expected exactly one row, got %d", store.Count())
	}
}

func TestSyncCreateMergeRefreshesMutableFields(t *testing.T) {
	store := memory.NewStore()
	uc := SyncCreateUseCase{Repo: store, Clock: store}

	first, err := uc.Execute(context.Background(), createPayload("user_merge", "old@x.com"))
	if err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}
	second, err := uc.Execute(context.Background(), createPayload("user_merge", "new@x.com"))
	if err != nil {
		t.Fatalf("second delivery failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("merge must preserve surrogate id: %d vs %d", first.ID, second.ID)
	}
	if second.User.Email != "new@x.com" {
		t.Fatalf("expected latest payload to win, got %q", second.User.Email)
	}
}

func TestSyncCreateRejectsEmailOwnedByOtherIdentity(t *testing.T) {
	store := memory.NewStore()
	uc := SyncCreateUseCase{Repo: store, Clock: store}

	if _, err := uc.Execute(context.Background(), createPayload("user_a", "shared@x.com")); err != nil {
		t.Fatalf("seed create failed: %v", err)
	}
	_, err := uc.Execute(context.Background(), createPayload("user_b", "shared@x.com"))
	if !errors.Is(err, domainerrors.ErrEmailConflict) {
		t.Fatalf("expected email conflict, got %v", err)
	}
	if store.Count() != 1 {
		t.Fatalf("conflicting create must not add a row, got %d", store.Count())
	}
}

func TestSyncCreateRequiresEmails(t *testing.T) {
	store := memory.NewStore()
	uc := SyncCreateUseCase{Repo: store, Clock: store}

	_, err := uc.Execute(context.Background(), json.RawMessage(`{"id":"user_2","first_name":"A","email_addresses":[]}`))
	var ve *domainerrors.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if ve.Field != "email_addresses" {
		t.Fatalf("unexpected failing field %q", ve.Field)
	}
}

func TestSyncCreateRequiresUsableName(t *testing.T) {
	store := memory.NewStore()
	uc := SyncCreateUseCase{Repo: store, Clock: store}

	_, err := uc.Execute(context.Background(), json.RawMessage(`{
		"id": "user_3",
		"first_name": "  ",
		"last_name": "",
		"full_name": " ",
		"email_addresses": [{"email_address": "a@x.com"}]
	}`))
	if !errors.Is(err, domainerrors.ErrNoUsableName) {
		t.Fatalf("expected no-usable-name error, got %v", err)
	}
	if store.Count() != 0 {
		t.Fatal("failed create must not persist anything")
	}
}

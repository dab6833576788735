package commands

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"pms/contexts/identity-access/user-sync-service/adapters/memory"
	domainerrors "pms/contexts/identity-access/user-sync-service/domain/errors"
)

func TestSyncDeleteThenReplay(t *testing.T) {
	store := memory.NewStore()
	seedUser(t, store, "u1", "del@x.com")
	uc := SyncDeleteUseCase{Repo: store}
	payload := json.RawMessage(`{"id":"u1"}`)

	first, err := uc.Execute(context.Background(), payload)
	if err != nil {
		t.Fatalf("first delete failed: %v", err)
	}
	if !first.Success || !first.Deleted || first.Rows != 1 {
		t.Fatalf("unexpected first result %+v", first)
	}

	second, err := uc.Execute(context.Background(), payload)
	if err != nil {
		t.Fatalf("replayed delete must not error: %v", err)
	}
	if !second.Success || second.Deleted || second.Rows != 0 {
		t.Fatalf("unexpected replay result %+v", second)
	}
}

func TestSyncDeleteUnknownIdentityIsNoOpSuccess(t *testing.T) {
	store := memory.NewStore()
	uc := SyncDeleteUseCase{Repo: store}

	result, err := uc.Execute(context.Background(), json.RawMessage(`{"id":"never_created"}`))
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if !result.Success || result.Deleted || result.Rows != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestSyncDeleteRequiresExternalID(t *testing.T) {
	store := memory.NewStore()
	uc := SyncDeleteUseCase{Repo: store}

	_, err := uc.Execute(context.Background(), json.RawMessage(`{}`))
	var ve *domainerrors.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if ve.Field != "id" {
		t.Fatalf("unexpected failing field %q", ve.Field)
	}
}

func TestSyncDeleteFreesEmailForReuse(t *testing.T) {
	store := memory.NewStore()
	seedUser(t, store, "u_old", "reuse@x.com")
	del := SyncDeleteUseCase{Repo: store}
	if _, err := del.Execute(context.Background(), json.RawMessage(`{"id":"u_old"}`)); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	create := SyncCreateUseCase{Repo: store, Clock: store}
	if _, err := create.Execute(context.Background(), createPayload("u_new", "reuse@x.com")); err != nil {
		t.Fatalf("email must be reusable after delete: %v", err)
	}
}

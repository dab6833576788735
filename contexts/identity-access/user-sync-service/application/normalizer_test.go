package application

import (
	"testing"

	"pms/contexts/identity-access/user-sync-service/ports"
)

func TestSelectPrimaryEmailPrefersPrimaryOverVerified(t *testing.T) {
	email, ok := SelectPrimaryEmail([]ports.EmailCandidate{
		{Address: "a@x.com", Verified: true},
		{Address: "b@x.com", Primary: true},
	})
	if !ok {
		t.Fatal("expected an email to be selected")
	}
	if email != "b@x.com" {
		t.Fatalf("expected primary flagged address, got %s", email)
	}
}

func TestSelectPrimaryEmailFallsBackToVerified(t *testing.T) {
	email, ok := SelectPrimaryEmail([]ports.EmailCandidate{
		{Address: "a@x.com"},
		{Address: "b@x.com", Verified: true},
	})
	if !ok || email != "b@x.com" {
		t.Fatalf("expected verified address, got %s ok=%v", email, ok)
	}
}

func TestSelectPrimaryEmailFallsBackToFirstInOrder(t *testing.T) {
	email, ok := SelectPrimaryEmail([]ports.EmailCandidate{
		{Address: "c@x.com"},
		{Address: "d@x.com"},
	})
	if !ok || email != "c@x.com" {
		t.Fatalf("expected first address in payload order, got %s ok=%v", email, ok)
	}
}

func TestSelectPrimaryEmailCanonicalizes(t *testing.T) {
	email, ok := SelectPrimaryEmail([]ports.EmailCandidate{
		{Address: "  John.Doe@Example.COM ", Primary: true},
	})
	if !ok || email != "john.doe@example.com" {
		t.Fatalf("expected lower-cased trimmed address, got %q", email)
	}
}

func TestSelectPrimaryEmailEmptyList(t *testing.T) {
	if _, ok := SelectPrimaryEmail(nil); ok {
		t.Fatal("expected no selection from empty candidate list")
	}
}

func TestComposeDisplayNameJoinsParts(t *testing.T) {
	if name := ComposeDisplayName("John", "Doe", ""); name != "John Doe" {
		t.Fatalf("expected John Doe, got %q", name)
	}
	if name := ComposeDisplayName("  John  ", "", "ignored"); name != "John" {
		t.Fatalf("expected single trimmed part, got %q", name)
	}
}

func TestComposeDisplayNameFallsBackToFullName(t *testing.T) {
	if name := ComposeDisplayName("", " ", " Jane X "); name != "Jane X" {
		t.Fatalf("expected full-name fallback, got %q", name)
	}
}

func TestComposeDisplayNameEmpty(t *testing.T) {
	if name := ComposeDisplayName("", "", ""); name != "" {
		t.Fatalf("expected empty name, got %q", name)
	}
}

package application

import (
	"strings"

	"pms/contexts/identity-access/user-sync-service/ports"
)

// SelectPrimaryEmail picks the canonical address from the provider's
// candidate list. Tie-break is deterministic and evaluated in order:
// an entry flagged primary, else an entry flagged verified, else the first
// entry in payload order. The winner is lower-cased and trimmed.
func SelectPrimaryEmail(candidates []ports.EmailCandidate) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	for _, candidate := range candidates {
		if candidate.Primary {
			return canonicalEmail(candidate.Address), true
		}
	}
	for _, candidate := range candidates {
		if candidate.Verified {
			return canonicalEmail(candidate.Address), true
		}
	}
	return canonicalEmail(candidates[0].Address), true
}

// ComposeDisplayName joins the trimmed first and last names with a single
// space, falls back to the trimmed full name when both are empty, and
// returns "" when nothing usable remains.
func ComposeDisplayName(firstName string, lastName string, fullName string) string {
	parts := make([]string, 0, 2)
	if first := strings.TrimSpace(firstName); first != "" {
		parts = append(parts, first)
	}
	if last := strings.TrimSpace(lastName); last != "" {
		parts = append(parts, last)
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	return strings.TrimSpace(fullName)
}

func canonicalEmail(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

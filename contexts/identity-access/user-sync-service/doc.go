// Package usersync implements the identity synchronization pipeline: it
// consumes user lifecycle events from the identity provider transport and
// turns them into idempotent mutations of the canonical users table.
//
// Layering:
// - domain: canonical user entity, invariants, error taxonomy
// - contracts: provider wire payloads and their validation
// - application: normalization, sync handlers, event consumer
// - ports: stable boundaries for persistence, dedup, clock, and the bus
// - adapters: concrete postgres and in-memory implementations
//
// Boundary notes:
// - Delivery is at-least-once with no ordering guarantee, even within a
//   single identity's event stream; every handler must stay re-entrant.
// - Retry, backoff, and dead-lettering belong to the transport. Handlers
//   propagate failures unchanged; the only swallowed outcome is the update
//   not-found case, which is a structured result.
package usersync

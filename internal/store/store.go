// Package store persists the user directory and the authorized-identity set
// shared across activities.
package store

import "github.com/soyeahso/botbridge/internal/domain"

// AuthRecord grants one external identity access to the bot, scoped to a
// tenant. Admin marks identities listed by the admin card.
type AuthRecord struct {
	ObjectID string `json:"objectId"`
	TenantID string `json:"tenantId,omitempty"`
	Admin    bool   `json:"admin,omitempty"`
}

// Store is the process-wide key-value state crossing activities: the user
// directory keyed by per-channel id and the per-tenant authorized-identity
// set. Updates are atomic per key with last-writer-wins semantics.
type Store interface {
	// UpsertUser creates or replaces a user record keyed by its ID.
	UpsertUser(u domain.User) error

	// User returns the user with the given per-channel id.
	User(id string) (domain.User, bool, error)

	// UserByName returns the first user with the given display name.
	UserByName(name string) (domain.User, bool, error)

	// Users returns all known users.
	Users() ([]domain.User, error)

	// Authorize upserts an authorization record.
	Authorize(rec AuthRecord) error

	// SeedAuthorized inserts records only where the identity is not already
	// present. Seeding happens once at startup.
	SeedAuthorized(recs []AuthRecord) error

	// IsAuthorized reports whether the identity is present in the
	// authorized set for any tenant.
	IsAuthorized(objectID string) (bool, error)

	// Admins returns all records flagged admin.
	Admins() ([]AuthRecord, error)

	// Close releases backend resources.
	Close() error
}

// Package authz gates inbound activities on the per-tenant authorized
// identity set.
package authz

import (
	"errors"
	"fmt"

	"github.com/soyeahso/botbridge/internal/activity"
	"github.com/soyeahso/botbridge/internal/logging"
	"github.com/soyeahso/botbridge/internal/store"
)

// Decision is the outcome of authorizing one activity.
type Decision int

const (
	Allow Decision = iota
	DenyUnauthenticated
	DenyUnsupported
)

// Fixed internal command texts substituted on denial. Denials are not
// dropped silently: the substituted command flows through translation so the
// bot can emit a user-visible error message.
const (
	CommandUnsupported     = "source authorization not supported"
	CommandUnauthenticated = "unauthorized user"
)

// ErrNoSeedAdmins aborts startup when authorization is enabled without a
// configured seed list.
var ErrNoSeedAdmins = errors.New("authorization enabled but no seed admin list configured")

// DenialText returns the internal command text substituted for a denied
// activity, or "" for Allow.
func DenialText(d Decision) string {
	switch d {
	case DenyUnsupported:
		return CommandUnsupported
	case DenyUnauthenticated:
		return CommandUnauthenticated
	default:
		return ""
	}
}

// Gate checks each inbound activity against the authorized-identity set.
type Gate struct {
	enabled bool
	store   store.Store
	log     *logging.Logger
}

// New creates an authorization gate backed by the given store.
func New(enabled bool, st store.Store, log *logging.Logger) *Gate {
	return &Gate{enabled: enabled, store: st, log: log.Sub("authz")}
}

// Enabled reports whether authorization is active process-wide.
func (g *Gate) Enabled() bool { return g.enabled }

// Seed populates the authorized set from the configured admin list, once at
// startup, inserting only identities not already present. An enabled gate
// with an empty seed list is a fatal misconfiguration.
func (g *Gate) Seed(admins []string, tenantID string) error {
	if !g.enabled {
		return nil
	}
	if len(admins) == 0 {
		return ErrNoSeedAdmins
	}

	recs := make([]store.AuthRecord, 0, len(admins))
	for _, id := range admins {
		recs = append(recs, store.AuthRecord{ObjectID: id, TenantID: tenantID, Admin: true})
	}
	if err := g.store.SeedAuthorized(recs); err != nil {
		return fmt.Errorf("seeding authorized set: %w", err)
	}
	g.log.Info().Int("count", len(recs)).Msg("authorized set seeded")
	return nil
}

// Authorize decides whether the activity may enter the message bus.
func (g *Gate) Authorize(act *activity.Activity, channelSupportsAuth bool) Decision {
	if !g.enabled {
		return Allow
	}
	if !channelSupportsAuth {
		return DenyUnsupported
	}

	objectID := act.Address.User.AADObjectID
	if objectID == "" {
		return DenyUnauthenticated
	}

	ok, err := g.store.IsAuthorized(objectID)
	if err != nil {
		g.log.Error().Err(err).Str("objectId", objectID).Msg("authorization lookup failed")
		return DenyUnauthenticated
	}
	if !ok {
		return DenyUnauthenticated
	}
	return Allow
}

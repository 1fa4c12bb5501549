// Package domain holds the channel-agnostic types shared across the bridge:
// internal events delivered to the message bus, user identities, and the
// per-channel strategy contract.
package domain

// User is an identity record keyed by a stable per-channel id. ObjectID is
// the cross-system directory identity used for authorization and mention
// resolution.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	TenantID string `json:"tenantId,omitempty"`
	ObjectID string `json:"objectId,omitempty"`
}

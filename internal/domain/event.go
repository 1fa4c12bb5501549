package domain

// Event is a channel-agnostic unit delivered to the message bus. Events are
// constructed once per activity by a channel strategy and are immutable after
// construction; the bus owns them once handed off.
type Event interface {
	// From returns the user the event originates from.
	From() User
}

// TextMessage is a user-visible chat message.
type TextMessage struct {
	User      User
	Text      string
	ReplyToID string
}

func (m TextMessage) From() User { return m.User }

// GenericEvent is a non-message event that still carries a user worth
// notifying the bus about (e.g. a roster change).
type GenericEvent struct {
	User User
}

func (e GenericEvent) From() User { return e.User }

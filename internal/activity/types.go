// Package activity defines the wire model exchanged with a Bot-Framework-style
// channel connector: inbound activities, routing addresses, mention entities,
// and the outbound payloads handed back to the connector transport.
package activity

// Type classifies an activity.
type Type string

const (
	TypeMessage            Type = "message"
	TypeInvoke             Type = "invoke"
	TypeTyping             Type = "typing"
	TypeConversationUpdate Type = "conversationUpdate"
)

// ChannelAccount identifies a user or bot on a channel.
type ChannelAccount struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	AADObjectID string `json:"aadObjectId,omitempty"`
}

// ConversationAccount identifies the conversation an activity belongs to.
type ConversationAccount struct {
	ID               string `json:"id"`
	IsGroup          bool   `json:"isGroup,omitempty"`
	ConversationType string `json:"conversationType,omitempty"`
}

// Address carries the routing and reply metadata of an activity. Every
// payload produced in response to an activity shares its address.
type Address struct {
	ID           string              `json:"id,omitempty"`
	Bot          ChannelAccount      `json:"bot"`
	User         ChannelAccount      `json:"user"`
	Conversation ConversationAccount `json:"conversation"`
	ServiceURL   string              `json:"serviceUrl,omitempty"`
}

// Entity is an ordered annotation attached to an activity, e.g. a mention.
type Entity struct {
	Type      string         `json:"type"`
	Mentioned ChannelAccount `json:"mentioned,omitempty"`
	Text      string         `json:"text,omitempty"`
}

// EntityTypeMention marks an Entity as a user mention.
const EntityTypeMention = "mention"

// Activity is one unit of inbound or outbound channel communication.
type Activity struct {
	ID          string         `json:"id,omitempty"`
	Type        Type           `json:"type"`
	Source      string         `json:"source"`
	Text        string         `json:"text,omitempty"`
	Value       map[string]any `json:"value,omitempty"`
	Address     Address        `json:"address"`
	SourceEvent map[string]any `json:"sourceEvent,omitempty"`
	Entities    []Entity       `json:"entities,omitempty"`
}

// TenantID extracts the tenant identifier from the channel-specific source
// event metadata, or "" when absent.
func (a *Activity) TenantID() string {
	if a.SourceEvent == nil {
		return ""
	}
	tenant, ok := a.SourceEvent["tenant"].(map[string]any)
	if !ok {
		return ""
	}
	id, _ := tenant["id"].(string)
	return id
}

// Mentions returns the activity's mention entities in order.
func (a *Activity) Mentions() []Entity {
	var mentions []Entity
	for _, e := range a.Entities {
		if e.Type == EntityTypeMention {
			mentions = append(mentions, e)
		}
	}
	return mentions
}

// Member is one identity on a conversation roster.
type Member struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	ObjectID string `json:"objectId,omitempty"`
}

package channel

import (
	"context"
	"strings"

	"github.com/soyeahso/botbridge/internal/activity"
	"github.com/soyeahso/botbridge/internal/domain"
)

// BaseStrategy is the baseline variant for text-only channels: no
// authorization support, no roster, no rich formatting.
type BaseStrategy struct {
	botName string
}

// NewBase creates the baseline text-only strategy.
func NewBase(botName string) *BaseStrategy {
	return &BaseStrategy{botName: botName}
}

func (b *BaseStrategy) SupportsAuth() bool { return false }

func (b *BaseStrategy) ToReceivable(_ context.Context, act *activity.Activity) (domain.Event, error) {
	user := userFrom(act)

	switch act.Type {
	case activity.TypeMessage, activity.TypeInvoke:
		if strings.TrimSpace(act.Text) == "" {
			return nil, nil
		}
		return domain.TextMessage{
			User:      user,
			Text:      act.Text,
			ReplyToID: act.Address.ID,
		}, nil
	default:
		if user.ID == "" {
			return nil, nil
		}
		return domain.GenericEvent{User: user}, nil
	}
}

func (b *BaseStrategy) ToSendable(reply domain.ReplyContext, message any) []activity.Payload {
	switch m := message.(type) {
	case activity.Payload:
		p := m
		p.Address = reply.Address
		if p.Type == "" {
			p.Type = activity.PayloadMessage
		}
		return []activity.Payload{p}
	case string:
		return []activity.Payload{{
			Type:    activity.PayloadMessage,
			Address: reply.Address,
			Text:    strings.TrimSpace(m),
		}}
	default:
		return nil
	}
}

// userFrom builds the user identity record carried by an activity.
func userFrom(act *activity.Activity) domain.User {
	return domain.User{
		ID:       act.Address.User.ID,
		Name:     act.Address.User.Name,
		TenantID: act.TenantID(),
		ObjectID: act.Address.User.AADObjectID,
	}
}

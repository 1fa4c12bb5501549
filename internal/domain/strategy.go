package domain

import (
	"context"

	"github.com/soyeahso/botbridge/internal/activity"
)

// ReplyContext carries what a strategy needs to translate an outbound
// response: the address to reply to, the originating channel name, and the
// inbound text that triggered the response (consulted by card synthesis).
type ReplyContext struct {
	Source      string
	Address     activity.Address
	InboundText string
}

// Strategy is the per-channel translation implementation. ToReceivable may
// perform one asynchronous round trip (e.g. a roster fetch) before producing
// a result, which is why it takes a context and must be treated as blocking.
//
// ToReceivable returns (nil, nil) to mean "drop the activity": no event is
// delivered to the bus and the activity's lifecycle ends without error.
type Strategy interface {
	ToReceivable(ctx context.Context, act *activity.Activity) (Event, error)
	ToSendable(reply ReplyContext, message any) []activity.Payload
	SupportsAuth() bool
}

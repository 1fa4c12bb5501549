// Package dispatch is the core pipeline: it resolves the channel strategy
// for each inbound activity, runs the authorization gate, invokes
// translation, and moves results between the connector transport and the
// message bus.
package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/soyeahso/botbridge/internal/activity"
	"github.com/soyeahso/botbridge/internal/authz"
	"github.com/soyeahso/botbridge/internal/channel"
	"github.com/soyeahso/botbridge/internal/domain"
	"github.com/soyeahso/botbridge/internal/logging"
)

// Stage is one step of an activity's lifecycle:
// Received → Authorized|Denied → Translated|Dropped → Delivered.
type Stage string

const (
	StageReceived   Stage = "received"
	StageAuthorized Stage = "authorized"
	StageDenied     Stage = "denied"
	StageTranslated Stage = "translated"
	StageDropped    Stage = "dropped"
	StageDelivered  Stage = "delivered"
)

// ObserverFunc receives activity lifecycle notifications.
type ObserverFunc func(stage Stage, act *activity.Activity)

// Publisher hands translated events to the message bus.
type Publisher interface {
	Publish(ctx context.Context, evt domain.Event) error
}

// Transport submits outbound payload batches to the channel connector.
type Transport interface {
	Deliver(ctx context.Context, payloads []activity.Payload) error
}

// Dispatcher owns the per-activity pipeline. Each activity is processed by a
// single logical worker; stages run in strict sequence. Concurrency across
// activities is supplied by the surrounding host.
type Dispatcher struct {
	registry  *channel.Registry
	gate      *authz.Gate
	bus       Publisher
	transport Transport
	log       *logging.Logger

	mu        sync.RWMutex
	observers []ObserverFunc
}

// New creates a dispatcher.
func New(
	registry *channel.Registry,
	gate *authz.Gate,
	bus Publisher,
	transport Transport,
	log *logging.Logger,
) *Dispatcher {
	return &Dispatcher{
		registry:  registry,
		gate:      gate,
		bus:       bus,
		transport: transport,
		log:       log.Sub("dispatch"),
	}
}

// OnStage registers a lifecycle observer.
func (d *Dispatcher) OnStage(fn ObserverFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = append(d.observers, fn)
}

func (d *Dispatcher) notify(stage Stage, act *activity.Activity) {
	d.mu.RLock()
	observers := d.observers
	d.mu.RUnlock()
	for _, fn := range observers {
		fn(stage, act)
	}
}

// HandleBatch processes the activities of one webhook delivery in order.
func (d *Dispatcher) HandleBatch(ctx context.Context, acts []*activity.Activity) error {
	for _, act := range acts {
		if err := d.HandleActivity(ctx, act); err != nil {
			return err
		}
	}
	return nil
}

// HandleActivity runs one inbound activity through the pipeline.
func (d *Dispatcher) HandleActivity(ctx context.Context, act *activity.Activity) error {
	d.notify(StageReceived, act)

	// Invoke sub-protocol: the structured value carries the command text.
	if act.Type == activity.TypeInvoke {
		if text, ok := act.Value["hubotMessage"].(string); ok {
			act.Text = text
			act.Value = nil
		}
	}

	strategy, err := d.registry.Resolve(act.Source)
	if err != nil {
		return fmt.Errorf("dispatching activity: %w", err)
	}

	switch decision := d.gate.Authorize(act, strategy.SupportsAuth()); decision {
	case authz.Allow:
		d.notify(StageAuthorized, act)
	default:
		// Denials substitute a fixed command so the bot can answer with a
		// user-visible error instead of failing silently; the substituted
		// activity re-enters translation through the same strategy.
		act.Text = authz.DenialText(decision)
		act.Value = nil
		d.notify(StageDenied, act)
		d.log.Warn().
			Str("source", act.Source).
			Str("user", act.Address.User.ID).
			Str("command", act.Text).
			Msg("activity denied")
	}

	evt, err := strategy.ToReceivable(ctx, act)
	if err != nil {
		return fmt.Errorf("translating activity: %w", err)
	}
	if evt == nil {
		d.notify(StageDropped, act)
		d.log.Debug().Str("source", act.Source).Msg("activity dropped")
		return nil
	}
	d.notify(StageTranslated, act)

	if err := d.bus.Publish(ctx, evt); err != nil {
		return fmt.Errorf("publishing event: %w", err)
	}
	d.notify(StageDelivered, act)
	return nil
}

// Send translates each response message through the originating channel's
// strategy and submits it to the transport as one [typing, payload…] batch
// per message. Ordering holds within a message's batch, not across messages.
// A transport failure is fatal for the current delivery attempt and is
// returned to the caller undecided — no internal retry.
func (d *Dispatcher) Send(ctx context.Context, reply domain.ReplyContext, messages ...any) error {
	strategy, err := d.registry.Resolve(reply.Source)
	if err != nil {
		return fmt.Errorf("sending response: %w", err)
	}

	for _, msg := range messages {
		payloads := strategy.ToSendable(reply, msg)
		if len(payloads) == 0 {
			continue
		}

		batch := make([]activity.Payload, 0, len(payloads)+1)
		batch = append(batch, activity.Payload{
			Type:    activity.PayloadTyping,
			Address: reply.Address,
		})
		batch = append(batch, payloads...)

		if err := d.transport.Deliver(ctx, batch); err != nil {
			return fmt.Errorf("delivering response batch: %w", err)
		}
	}
	return nil
}

package channel

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/soyeahso/botbridge/internal/activity"
	"github.com/soyeahso/botbridge/internal/card"
	"github.com/soyeahso/botbridge/internal/domain"
	"github.com/soyeahso/botbridge/internal/logging"
	"github.com/soyeahso/botbridge/internal/mention"
	"github.com/soyeahso/botbridge/internal/store"
)

// triggerWord is the literal invocation name card templates are authored
// against; reassembled submissions rewrite it to the configured bot name.
const triggerWord = "hubot"

// conversationPersonal marks a direct (non-broadcast) conversation.
const conversationPersonal = "personal"

// RosterFetcher retrieves the member roster of a conversation. The fetch is
// one asynchronous round trip completing exactly once: a member list or an
// error, never a hang.
type RosterFetcher interface {
	Roster(ctx context.Context, serviceURL, conversationID string) ([]activity.Member, error)
}

// TeamsStrategy translates activities for Teams-like channels. Inbound
// translation fetches the conversation roster before it can resolve
// mentions; outbound translation rewrites mention tokens and synthesizes
// rich cards.
type TeamsStrategy struct {
	botName string
	tenants []string // tenant allow-list; empty allows all
	roster  RosterFetcher
	store   store.Store
	cards   *card.Synthesizer
	log     *logging.Logger
}

// NewTeams creates the Teams channel strategy.
func NewTeams(
	botName string,
	tenants []string,
	roster RosterFetcher,
	st store.Store,
	cards *card.Synthesizer,
	log *logging.Logger,
) *TeamsStrategy {
	return &TeamsStrategy{
		botName: botName,
		tenants: tenants,
		roster:  roster,
		store:   st,
		cards:   cards,
		log:     log.Sub("teams"),
	}
}

func (t *TeamsStrategy) SupportsAuth() bool { return true }

func (t *TeamsStrategy) ToReceivable(ctx context.Context, act *activity.Activity) (domain.Event, error) {
	if len(t.tenants) > 0 && !slices.Contains(t.tenants, act.TenantID()) {
		t.log.Debug().Str("tenant", act.TenantID()).Msg("activity from filtered tenant dropped")
		return nil, nil
	}

	user := userFrom(act)
	if user.ID != "" {
		if err := t.store.UpsertUser(user); err != nil {
			t.log.Error().Err(err).Str("user", user.ID).Msg("user upsert failed")
		}
	}

	switch act.Type {
	case activity.TypeMessage, activity.TypeInvoke:
		members, err := t.roster.Roster(ctx, act.Address.ServiceURL, act.Address.Conversation.ID)
		if err != nil {
			return nil, fmt.Errorf("fetching roster: %w", err)
		}

		var text string
		if act.Value != nil {
			text = t.reassembleSubmission(act.Value)
		} else {
			text = mention.RewriteInbound(act.Text, act.Entities, act.Address.Bot.ID, t.botName, mention.NewRoster(members))
			if act.Address.Conversation.ConversationType == conversationPersonal &&
				!strings.HasPrefix(text, t.botName) {
				text = t.botName + " " + text
			}
			text = strings.TrimSuffix(text, "\n")
		}

		// A message activity without resolvable text is dropped.
		if strings.TrimSpace(text) == "" {
			return nil, nil
		}
		return domain.TextMessage{User: user, Text: text, ReplyToID: act.Address.ID}, nil

	default:
		if user.ID == "" {
			return nil, nil
		}
		return domain.GenericEvent{User: user}, nil
	}
}

// reassembleSubmission reconstructs command text from a structured card
// submission. Fragments are keyed "<prefix> - query{i}" and
// "<prefix> - input{i}", concatenated from i=0 until a query index is
// missing; the literal trigger word is rewritten to the configured bot name.
func (t *TeamsStrategy) reassembleSubmission(value map[string]any) string {
	prefix, _ := value["queryPrefix"].(string)

	var b strings.Builder
	for i := 0; ; i++ {
		query, ok := value[fmt.Sprintf("%s - query%d", prefix, i)].(string)
		if !ok {
			break
		}
		b.WriteString(strings.Replace(query, triggerWord, t.botName, 1))
		if input, ok := value[fmt.Sprintf("%s - input%d", prefix, i)].(string); ok {
			b.WriteString(input)
		}
	}
	return b.String()
}

func (t *TeamsStrategy) ToSendable(reply domain.ReplyContext, message any) []activity.Payload {
	switch m := message.(type) {
	case activity.Payload:
		p := m
		p.Address = reply.Address
		if p.Type == "" {
			p.Type = activity.PayloadMessage
		}
		return []activity.Payload{p}

	case string:
		text := strings.TrimSpace(m)

		if t.cards != nil {
			synthesized, attachments := t.cards.Synthesize(text, reply.InboundText)
			if len(attachments) > 0 {
				return []activity.Payload{{
					Type:        activity.PayloadMessage,
					Address:     reply.Address,
					Attachments: attachments,
				}}
			}
			text = synthesized
		}

		text, entities := mention.RewriteOutbound(text, t.store)
		text = mention.Format(text, t.botName)

		return []activity.Payload{{
			Type:     activity.PayloadMessage,
			Address:  reply.Address,
			Text:     text,
			Entities: entities,
		}}

	default:
		return nil
	}
}

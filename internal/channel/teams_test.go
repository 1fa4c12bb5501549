package channel

import (
	"context"
	"errors"
	"testing"

	"github.com/soyeahso/botbridge/internal/activity"
	"github.com/soyeahso/botbridge/internal/card"
	"github.com/soyeahso/botbridge/internal/config"
	"github.com/soyeahso/botbridge/internal/domain"
	"github.com/soyeahso/botbridge/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRoster is a RosterFetcher test double.
type fakeRoster struct {
	members []activity.Member
	err     error
	calls   int
}

func (f *fakeRoster) Roster(_ context.Context, _, _ string) ([]activity.Member, error) {
	f.calls++
	return f.members, f.err
}

func teamsActivity(text string) *activity.Activity {
	return &activity.Activity{
		Type:   activity.TypeMessage,
		Source: "msteams",
		Text:   text,
		Address: activity.Address{
			ID:           "act-1",
			Bot:          activity.ChannelAccount{ID: "b1", Name: "hubot"},
			User:         activity.ChannelAccount{ID: "u1", Name: "Alice", AADObjectID: "obj1"},
			Conversation: activity.ConversationAccount{ID: "c1", ConversationType: "personal"},
			ServiceURL:   "https://smba.example.com",
		},
		SourceEvent: map[string]any{"tenant": map[string]any{"id": "t1"}},
	}
}

func newTeams(t *testing.T, roster *fakeRoster, st store.Store) *TeamsStrategy {
	t.Helper()
	if st == nil {
		st = store.NewMemoryStore()
	}
	return NewTeams("hubot", nil, roster, st, card.NewSynthesizer(nil, st), testLogger())
}

func TestTeams_SupportsAuth(t *testing.T) {
	assert.True(t, newTeams(t, &fakeRoster{}, nil).SupportsAuth())
}

// Mentions resolve to the member's object id and direct conversations are
// bot-name prefixed.
func TestTeams_ToReceivable_MentionAndPrefix(t *testing.T) {
	roster := &fakeRoster{members: []activity.Member{{ID: "u1", Name: "Alice", ObjectID: "obj1"}}}
	teams := newTeams(t, roster, nil)

	evt, err := teams.ToReceivable(context.Background(), teamsActivity("<@u1|Alice> hello"))
	require.NoError(t, err)
	msg, ok := evt.(domain.TextMessage)
	require.True(t, ok)
	assert.Equal(t, "hubot obj1 hello", msg.Text)
	assert.Equal(t, "act-1", msg.ReplyToID)
	assert.Equal(t, 1, roster.calls)
}

func TestTeams_ToReceivable_BotMentionNotDoublePrefixed(t *testing.T) {
	teams := newTeams(t, &fakeRoster{}, nil)

	evt, err := teams.ToReceivable(context.Background(), teamsActivity("<@b1|hubot> status"))
	require.NoError(t, err)
	msg := evt.(domain.TextMessage)
	assert.Equal(t, "hubot status", msg.Text)
}

func TestTeams_ToReceivable_GroupConversationNotPrefixed(t *testing.T) {
	teams := newTeams(t, &fakeRoster{}, nil)
	act := teamsActivity("status")
	act.Address.Conversation.ConversationType = "channel"

	evt, err := teams.ToReceivable(context.Background(), act)
	require.NoError(t, err)
	assert.Equal(t, "status", evt.(domain.TextMessage).Text)
}

func TestTeams_ToReceivable_TrimsSingleTrailingNewline(t *testing.T) {
	teams := newTeams(t, &fakeRoster{}, nil)
	act := teamsActivity("hubot ping\n")

	evt, err := teams.ToReceivable(context.Background(), act)
	require.NoError(t, err)
	assert.Equal(t, "hubot ping", evt.(domain.TextMessage).Text)
}

func TestTeams_ToReceivable_FilteredTenantDropped(t *testing.T) {
	st := store.NewMemoryStore()
	teams := NewTeams("hubot", []string{"other-tenant"}, &fakeRoster{}, st, nil, testLogger())

	evt, err := teams.ToReceivable(context.Background(), teamsActivity("hello"))
	require.NoError(t, err)
	assert.Nil(t, evt)
}

func TestTeams_ToReceivable_AllowedTenantPasses(t *testing.T) {
	teams := NewTeams("hubot", []string{"t1"}, &fakeRoster{}, store.NewMemoryStore(), nil, testLogger())

	evt, err := teams.ToReceivable(context.Background(), teamsActivity("hello"))
	require.NoError(t, err)
	assert.NotNil(t, evt)
}

func TestTeams_ToReceivable_RosterFailurePropagates(t *testing.T) {
	roster := &fakeRoster{err: errors.New("boom")}
	teams := newTeams(t, roster, nil)

	evt, err := teams.ToReceivable(context.Background(), teamsActivity("hello"))
	require.Error(t, err)
	assert.Nil(t, evt)
}

func TestTeams_ToReceivable_UpsertsUser(t *testing.T) {
	st := store.NewMemoryStore()
	teams := newTeams(t, &fakeRoster{}, st)

	_, err := teams.ToReceivable(context.Background(), teamsActivity("hello"))
	require.NoError(t, err)

	u, ok, err := st.User("u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Alice", u.Name)
	assert.Equal(t, "t1", u.TenantID)
	assert.Equal(t, "obj1", u.ObjectID)
}

func TestTeams_ToReceivable_SubmissionReassembly(t *testing.T) {
	teams := newTeams(t, &fakeRoster{}, nil)
	act := teamsActivity("")
	act.Value = map[string]any{
		"queryPrefix":     "gho",
		"gho - query0":    "hubot gho list ",
		"gho - input0":    "teams",
		"gho - query1":    " sorted",
		"ignored - other": "x",
	}

	evt, err := teams.ToReceivable(context.Background(), act)
	require.NoError(t, err)
	assert.Equal(t, "hubot gho list teams sorted", evt.(domain.TextMessage).Text)
}

func TestTeams_ToReceivable_SubmissionRewritesTrigger(t *testing.T) {
	st := store.NewMemoryStore()
	teams := NewTeams("robbie", nil, &fakeRoster{}, st, nil, testLogger())
	act := teamsActivity("")
	act.Value = map[string]any{
		"queryPrefix":  "gho",
		"gho - query0": "hubot gho list teams",
	}

	evt, err := teams.ToReceivable(context.Background(), act)
	require.NoError(t, err)
	assert.Equal(t, "robbie gho list teams", evt.(domain.TextMessage).Text)
}

func TestTeams_ToReceivable_SubmissionStopsAtGap(t *testing.T) {
	teams := newTeams(t, &fakeRoster{}, nil)
	act := teamsActivity("")
	act.Value = map[string]any{
		"queryPrefix":  "gho",
		"gho - query0": "hubot one",
		// query1 missing: query2 must not be picked up
		"gho - query2": " two",
	}

	evt, err := teams.ToReceivable(context.Background(), act)
	require.NoError(t, err)
	assert.Equal(t, "hubot one", evt.(domain.TextMessage).Text)
}

func TestTeams_ToReceivable_EmptyTextDropped(t *testing.T) {
	teams := newTeams(t, &fakeRoster{}, nil)
	act := teamsActivity("")
	act.Address.Conversation.ConversationType = "channel"

	evt, err := teams.ToReceivable(context.Background(), act)
	require.NoError(t, err)
	assert.Nil(t, evt)
}

func TestTeams_ToReceivable_NonMessageWithUser(t *testing.T) {
	teams := newTeams(t, &fakeRoster{}, nil)
	act := teamsActivity("")
	act.Type = activity.TypeConversationUpdate

	evt, err := teams.ToReceivable(context.Background(), act)
	require.NoError(t, err)
	_, ok := evt.(domain.GenericEvent)
	assert.True(t, ok)
}

func TestTeams_ToReceivable_NonMessageWithoutUser(t *testing.T) {
	teams := newTeams(t, &fakeRoster{}, nil)
	act := teamsActivity("")
	act.Type = activity.TypeConversationUpdate
	act.Address.User = activity.ChannelAccount{}

	evt, err := teams.ToReceivable(context.Background(), act)
	require.NoError(t, err)
	assert.Nil(t, evt)
}

func TestTeams_ToSendable_PlainText(t *testing.T) {
	teams := newTeams(t, &fakeRoster{}, nil)
	reply := domain.ReplyContext{Address: activity.Address{ID: "act-1"}}

	payloads := teams.ToSendable(reply, "  hello there  ")
	require.Len(t, payloads, 1)
	assert.Equal(t, activity.PayloadMessage, payloads[0].Type)
	assert.Equal(t, "hello there", payloads[0].Text)
	assert.Equal(t, "act-1", payloads[0].Address.ID)
}

func TestTeams_ToSendable_MentionTokens(t *testing.T) {
	st := store.NewMemoryStore()
	require.NoError(t, st.UpsertUser(domain.User{ID: "u1", Name: "Alice"}))
	teams := newTeams(t, &fakeRoster{}, st)
	reply := domain.ReplyContext{Address: activity.Address{ID: "act-1"}}

	payloads := teams.ToSendable(reply, "done, <@u1|Alice>")
	require.Len(t, payloads, 1)
	assert.Equal(t, "done, <at>Alice</at>", payloads[0].Text)
	require.Len(t, payloads[0].Entities, 1)
	assert.Equal(t, "u1", payloads[0].Entities[0].Mentioned.ID)
}

func TestTeams_ToSendable_NewlinesBecomeLineBreaks(t *testing.T) {
	teams := newTeams(t, &fakeRoster{}, nil)

	payloads := teams.ToSendable(domain.ReplyContext{}, "one\ntwo")
	require.Len(t, payloads, 1)
	assert.Equal(t, "one<br>two", payloads[0].Text)
}

func TestTeams_ToSendable_CardReplacesText(t *testing.T) {
	st := store.NewMemoryStore()
	require.NoError(t, st.Authorize(store.AuthRecord{ObjectID: "alice@example.com", Admin: true}))
	teams := newTeams(t, &fakeRoster{}, st)

	payloads := teams.ToSendable(domain.ReplyContext{}, "list admins")
	require.Len(t, payloads, 1)
	assert.Empty(t, payloads[0].Text)
	assert.Len(t, payloads[0].Attachments, 1)
}

func TestTeams_ToSendable_TemplateCatalog(t *testing.T) {
	st := store.NewMemoryStore()
	catalog, err := card.NewCatalog([]config.CardEntry{
		{Name: "deploy", Trigger: "^hubot deploy", Title: "Deploy"},
	})
	require.NoError(t, err)
	teams := NewTeams("hubot", nil, &fakeRoster{}, st, card.NewSynthesizer(catalog, st), testLogger())

	payloads := teams.ToSendable(domain.ReplyContext{InboundText: "hubot deploy prod"}, "deploying now")
	require.Len(t, payloads, 1)
	assert.Empty(t, payloads[0].Text)
	assert.Len(t, payloads[0].Attachments, 1)
}

func TestTeams_ToSendable_PayloadPassthrough(t *testing.T) {
	teams := newTeams(t, &fakeRoster{}, nil)
	reply := domain.ReplyContext{Address: activity.Address{ID: "act-1"}}

	payloads := teams.ToSendable(reply, activity.Payload{Text: "prebuilt"})
	require.Len(t, payloads, 1)
	assert.Equal(t, "prebuilt", payloads[0].Text)
	assert.Equal(t, "act-1", payloads[0].Address.ID)
}

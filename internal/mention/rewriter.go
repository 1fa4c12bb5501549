// Package mention translates inline user-mention tokens between the internal
// bus representation and the channel's native mention-entity representation.
//
// The internal form is the inline token `<@id|display>` (display optional).
// The channel form is a mention entity plus an `<at>display</at>` placeholder
// in the text.
package mention

import (
	"regexp"
	"strings"

	"github.com/soyeahso/botbridge/internal/activity"
	"github.com/soyeahso/botbridge/internal/domain"
)

// tokenPattern matches inline mention tokens `<@id>` and `<@id|display>`.
var tokenPattern = regexp.MustCompile(`<@([^|>]+)(?:\|([^>]+))?>`)

// atTagPattern matches either an <at> tag pair delimiter or a bare `<`.
// Used to escape `<` characters that are not part of mention placeholders.
var atTagPattern = regexp.MustCompile(`</?at>|<`)

// Roster maps conversation member ids to their display info.
type Roster map[string]activity.Member

// NewRoster builds a Roster from fetched members.
func NewRoster(members []activity.Member) Roster {
	r := make(Roster, len(members))
	for _, m := range members {
		r[m.ID] = m
	}
	return r
}

// Directory resolves internal mention ids against the known-user directory.
type Directory interface {
	User(id string) (domain.User, bool, error)
	UserByName(name string) (domain.User, bool, error)
}

// RewriteInbound rewrites mention references in inbound text. Structured
// mention entities are applied first, then any remaining inline tokens.
// A reference to the bot's own channel identity becomes the bot's name;
// a reference resolvable on the roster becomes the member's external object
// id; anything else falls back to the display name unchanged.
func RewriteInbound(text string, entities []activity.Entity, botID, botName string, roster Roster) string {
	for _, e := range entities {
		if e.Type != activity.EntityTypeMention || e.Text == "" {
			continue
		}
		repl := resolveInbound(e.Mentioned.ID, e.Mentioned.Name, botID, botName, roster)
		text = strings.Replace(text, e.Text, repl, 1)
	}

	return tokenPattern.ReplaceAllStringFunc(text, func(tok string) string {
		m := tokenPattern.FindStringSubmatch(tok)
		id, display := m[1], m[2]
		if display == "" {
			display = id
		}
		return resolveInbound(id, display, botID, botName, roster)
	})
}

func resolveInbound(id, display, botID, botName string, roster Roster) string {
	if id == botID {
		return botName
	}
	if member, ok := roster[id]; ok && member.ObjectID != "" {
		return member.ObjectID
	}
	return display
}

// RewriteOutbound scans text for inline mention tokens, resolves each id
// against the user directory (by id, then by display name), and replaces the
// token span with an `<at>…</at>` placeholder. The emitted mention entities
// are returned for attachment to the outbound payload.
//
// Unresolved ids use the raw matched identifier as both id and display name
// so the reference round-trips losslessly once the roster resolves it.
func RewriteOutbound(text string, dir Directory) (string, []activity.Entity) {
	var entities []activity.Entity

	rewritten := tokenPattern.ReplaceAllStringFunc(text, func(tok string) string {
		m := tokenPattern.FindStringSubmatch(tok)
		id, display := m[1], m[2]

		mentioned := activity.ChannelAccount{ID: id, Name: id}
		if dir != nil {
			if u, ok, err := dir.User(id); err == nil && ok {
				mentioned = activity.ChannelAccount{ID: u.ID, Name: u.Name}
			} else if u, ok, err := dir.UserByName(id); err == nil && ok {
				mentioned = activity.ChannelAccount{ID: u.ID, Name: u.Name}
			}
		}

		if display == "" {
			display = mentioned.Name
		}
		placeholder := "<at>" + display + "</at>"

		entities = append(entities, activity.Entity{
			Type:      activity.EntityTypeMention,
			Mentioned: mentioned,
			Text:      placeholder,
		})
		return placeholder
	})

	return rewritten, entities
}

// Format applies the channel's outbound text formatting policy: when the
// reply begins with the bot's invocation name, literal `<` characters are
// escaped to their entity form so they cannot collide with the placeholder
// syntax; newlines always become the channel's line-break markup.
func Format(text, botName string) string {
	if botName != "" && strings.HasPrefix(text, botName) {
		text = escapeLessThan(text)
	}
	return strings.ReplaceAll(text, "\n", "<br>")
}

// escapeLessThan escapes `<` characters that are not part of an <at> tag.
func escapeLessThan(text string) string {
	return atTagPattern.ReplaceAllStringFunc(text, func(m string) string {
		if m == "<" {
			return "&lt;"
		}
		return m
	})
}

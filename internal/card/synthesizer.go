package card

import (
	"regexp"
	"strings"

	"github.com/soyeahso/botbridge/internal/activity"
	"github.com/soyeahso/botbridge/internal/store"
)

// Fixed response literals that trigger card synthesis.
const (
	adminListText = "list admins"
	easterEggText = "easter-egg"
)

// easterEggImageURL is the fixed image shown on the easter-egg card.
const easterEggImageURL = "https://octodex.github.com/images/original.png"

// imageURLPattern matches an image-file URL, tolerating a query string.
var imageURLPattern = regexp.MustCompile(`(?i)^https?://\S+\.(?:jpg|jpeg|png|gif)(?:\?\S*)?$`)

// Synthesizer turns outbound text responses into rich-card attachments when
// trigger conditions match.
type Synthesizer struct {
	catalog Catalog
	store   store.Store
}

// NewSynthesizer creates a card synthesizer. catalog may be nil to disable
// template matching.
func NewSynthesizer(catalog Catalog, st store.Store) *Synthesizer {
	return &Synthesizer{catalog: catalog, store: st}
}

// Synthesize evaluates the card rules in order; the first match replaces the
// outbound text with an attachment. When no rule matches, the text passes
// through unchanged with no attachments.
func (s *Synthesizer) Synthesize(outboundText, triggeringInboundText string) (string, []activity.Attachment) {
	if s.catalog != nil {
		if tpl, ok := s.catalog.Match(triggeringInboundText); ok {
			return "", []activity.Attachment{templateCard(tpl)}
		}
	}

	if outboundText == adminListText {
		return "", []activity.Attachment{s.adminListCard()}
	}

	if outboundText == easterEggText {
		return "", []activity.Attachment{easterEggCard()}
	}

	if first := firstToken(outboundText); first != "" && imageURLPattern.MatchString(first) {
		return "", []activity.Attachment{{
			ContentType: activity.ContentTypeImagePNG,
			ContentURL:  first,
		}}
	}

	return outboundText, nil
}

func templateCard(tpl *Template) activity.Attachment {
	card := activity.HeroCard{
		Title: tpl.Title,
		Text:  tpl.Body,
	}
	for _, b := range tpl.Buttons {
		card.Buttons = append(card.Buttons, activity.CardAction{
			Type:  activity.CardActionIMBack,
			Title: b,
			Value: b,
		})
	}
	return activity.Attachment{
		ContentType: activity.ContentTypeHeroCard,
		Content:     card,
	}
}

// adminListCard lists every identity flagged admin in the authorized-user
// directory, newline-joined with `<` escaped.
func (s *Synthesizer) adminListCard() activity.Attachment {
	var ids []string
	if s.store != nil {
		if admins, err := s.store.Admins(); err == nil {
			for _, rec := range admins {
				ids = append(ids, strings.ReplaceAll(rec.ObjectID, "<", "&lt;"))
			}
		}
	}
	return activity.Attachment{
		ContentType: activity.ContentTypeHeroCard,
		Content: activity.HeroCard{
			Title: "Admins",
			Text:  strings.Join(ids, "\n"),
		},
	}
}

func easterEggCard() activity.Attachment {
	return activity.Attachment{
		ContentType: activity.ContentTypeHeroCard,
		Content: activity.HeroCard{
			Images: []activity.CardImage{{URL: easterEggImageURL}},
			Buttons: []activity.CardAction{{
				Type:  activity.CardActionIMBack,
				Title: "Do it again",
				Value: easterEggText,
			}},
		},
	}
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

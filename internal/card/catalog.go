// Package card builds rich-card attachments from outbound text responses.
package card

import (
	"fmt"
	"regexp"

	"github.com/soyeahso/botbridge/internal/config"
)

// Template is one catalog entry: a trigger pattern matched against the
// triggering inbound text and the card it produces.
type Template struct {
	Name    string
	Trigger *regexp.Regexp
	Title   string
	Body    string
	Buttons []string
}

// Catalog looks up card templates by the inbound text that triggered a
// response.
type Catalog interface {
	Match(inboundText string) (*Template, bool)
}

// configCatalog is a Catalog backed by the configured card entries.
type configCatalog struct {
	templates []Template
}

// NewCatalog compiles the configured card entries into a Catalog.
func NewCatalog(entries []config.CardEntry) (Catalog, error) {
	templates := make([]Template, 0, len(entries))
	for _, e := range entries {
		trigger, err := regexp.Compile(e.Trigger)
		if err != nil {
			return nil, fmt.Errorf("card %q: compiling trigger: %w", e.Name, err)
		}
		templates = append(templates, Template{
			Name:    e.Name,
			Trigger: trigger,
			Title:   e.Title,
			Body:    e.Body,
			Buttons: e.Buttons,
		})
	}
	return &configCatalog{templates: templates}, nil
}

func (c *configCatalog) Match(inboundText string) (*Template, bool) {
	for i := range c.templates {
		if c.templates[i].Trigger.MatchString(inboundText) {
			return &c.templates[i], true
		}
	}
	return nil, false
}

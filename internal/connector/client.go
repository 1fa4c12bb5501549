// Package connector talks to the Bot-Framework-style channel service: it
// delivers outbound payload batches and fetches conversation rosters.
package connector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/soyeahso/botbridge/internal/activity"
	"github.com/soyeahso/botbridge/internal/logging"
)

// ErrDelivery wraps connector delivery failures. A failed batch is fatal for
// the current delivery attempt; retry policy belongs to the caller.
var ErrDelivery = errors.New("connector delivery failed")

const (
	tokenURL   = "https://login.microsoftonline.com/botframework.com/oauth2/v2.0/token"
	tokenScope = "https://api.botframework.com/.default"
)

// Connector is the transport boundary of the bridge.
type Connector interface {
	// Deliver submits one ordered payload batch. Any failure is returned
	// to the caller unretried.
	Deliver(ctx context.Context, payloads []activity.Payload) error

	// Roster fetches the member roster of a conversation. It completes
	// exactly once: members or an error.
	Roster(ctx context.Context, serviceURL, conversationID string) ([]activity.Member, error)
}

// Client is the HTTP Connector implementation, authenticated with an OAuth2
// client-credentials token for the configured application identity.
type Client struct {
	httpc *http.Client
	log   *logging.Logger
}

// NewClient creates a connector client for the given app credentials.
func NewClient(appID, appPassword string, log *logging.Logger) *Client {
	conf := &clientcredentials.Config{
		ClientID:     appID,
		ClientSecret: appPassword,
		TokenURL:     tokenURL,
		Scopes:       []string{tokenScope},
	}
	httpc := conf.Client(context.Background())
	httpc.Timeout = 30 * time.Second
	return &Client{httpc: httpc, log: log.Sub("connector")}
}

// wireActivity is the JSON body posted to the conversation endpoint.
type wireActivity struct {
	Type        string                  `json:"type"`
	Text        string                  `json:"text,omitempty"`
	Attachments []activity.Attachment   `json:"attachments,omitempty"`
	Entities    []activity.Entity       `json:"entities,omitempty"`
	From        activity.ChannelAccount `json:"from,omitempty"`
	Recipient   activity.ChannelAccount `json:"recipient,omitempty"`
	ReplyToID   string                  `json:"replyToId,omitempty"`
}

func (c *Client) Deliver(ctx context.Context, payloads []activity.Payload) error {
	for _, p := range payloads {
		if err := c.post(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) post(ctx context.Context, p activity.Payload) error {
	url := fmt.Sprintf("%s/v3/conversations/%s/activities",
		p.Address.ServiceURL, p.Address.Conversation.ID)

	body, err := json.Marshal(wireActivity{
		Type:        string(p.Type),
		Text:        p.Text,
		Attachments: p.Attachments,
		Entities:    p.Entities,
		From:        p.Address.Bot,
		Recipient:   p.Address.User,
		ReplyToID:   p.Address.ID,
	})
	if err != nil {
		return fmt.Errorf("encoding activity: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrDelivery, resp.StatusCode)
	}

	c.log.Debug().
		Str("type", string(p.Type)).
		Str("conversation", p.Address.Conversation.ID).
		Msg("payload delivered")
	return nil
}

func (c *Client) Roster(ctx context.Context, serviceURL, conversationID string) ([]activity.Member, error) {
	url := fmt.Sprintf("%s/v3/conversations/%s/members", serviceURL, conversationID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building roster request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching roster: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("fetching roster: status %d", resp.StatusCode)
	}

	var members []activity.Member
	if err := json.NewDecoder(resp.Body).Decode(&members); err != nil {
		return nil, fmt.Errorf("decoding roster: %w", err)
	}
	return members, nil
}

// Package gmail reads labeled newsletter mail for the morning brief.
package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Body text longer than this is cut before it reaches a prompt.
const maxBodyBytes = 10000

// Email is one fetched message.
type Email struct {
	ID      string    `json:"id"`
	Subject string    `json:"subject"`
	Sender  string    `json:"sender"`
	Date    time.Time `json:"date"`
	Body    string    `json:"body"`
	Snippet string    `json:"snippet"`
	Link    string    `json:"link"`
}

// Client reads mail through the Gmail API with a readonly scope.
type Client struct {
	svc    *gmailapi.Service
	logger *zap.Logger
}

type Option func(*Client)

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient builds a client from the JSON contents of an OAuth token file
// (token, refresh_token, client_id, client_secret) as produced by the
// installed-app consent flow. Expired access tokens refresh automatically.
func NewClient(ctx context.Context, tokenJSON string, opts ...Option) (*Client, error) {
	ts, err := tokenSource(ctx, tokenJSON)
	if err != nil {
		return nil, err
	}
	svc, err := gmailapi.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("gmail: create service: %w", err)
	}
	return newClient(svc, opts...), nil
}

// NewClientWithService wires a prebuilt API service, used by tests.
func NewClientWithService(svc *gmailapi.Service, opts ...Option) *Client {
	return newClient(svc, opts...)
}

func newClient(svc *gmailapi.Service, opts ...Option) *Client {
	c := &Client{svc: svc, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type tokenFile struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refresh_token"`
	TokenURI     string   `json:"token_uri"`
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	Scopes       []string `json:"scopes"`
}

func tokenSource(ctx context.Context, raw string) (oauth2.TokenSource, error) {
	var tf tokenFile
	if err := json.Unmarshal([]byte(raw), &tf); err != nil {
		return nil, fmt.Errorf("gmail: parse token json: %w", err)
	}
	if tf.Token == "" && tf.RefreshToken == "" {
		return nil, fmt.Errorf("gmail: token json carries neither access nor refresh token")
	}

	endpoint := google.Endpoint
	if tf.TokenURI != "" {
		endpoint.TokenURL = tf.TokenURI
	}
	scopes := tf.Scopes
	if len(scopes) == 0 {
		scopes = []string{gmailapi.GmailReadonlyScope}
	}
	cfg := &oauth2.Config{
		ClientID:     tf.ClientID,
		ClientSecret: tf.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       scopes,
	}

	// Expiry in the past forces a refresh on first use when a refresh
	// token is present.
	tok := &oauth2.Token{
		AccessToken:  tf.Token,
		RefreshToken: tf.RefreshToken,
		Expiry:       time.Now().Add(-time.Minute),
	}
	if tf.RefreshToken == "" {
		tok.Expiry = time.Time{}
	}
	return cfg.TokenSource(ctx, tok), nil
}

// FetchLabeled returns messages carrying the named label that arrived within
// the lookback window, newest first. A missing label is not an error; it
// yields no messages.
func (c *Client) FetchLabeled(ctx context.Context, label string, lookback time.Duration) ([]Email, error) {
	labelID, err := c.labelID(ctx, label)
	if err != nil {
		return nil, err
	}
	if labelID == "" {
		c.logger.Warn("gmail label not found", zap.String("label", label))
		return nil, nil
	}

	after := time.Now().UTC().Add(-lookback)
	res, err := c.svc.Users.Messages.List("me").
		LabelIds(labelID).
		Q("after:" + after.Format("2006/01/02")).
		MaxResults(50).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("gmail: list messages: %w", err)
	}

	var emails []Email
	for _, m := range res.Messages {
		full, err := c.svc.Users.Messages.Get("me", m.Id).Format("full").Context(ctx).Do()
		if err != nil {
			c.logger.Error("gmail message fetch failed", zap.String("id", m.Id), zap.Error(err))
			continue
		}
		e := parseMessage(full)
		// The after: query only has day granularity.
		if e.Date.Before(after) {
			continue
		}
		emails = append(emails, e)
	}

	sort.Slice(emails, func(i, j int) bool { return emails[i].Date.After(emails[j].Date) })
	c.logger.Info("gmail fetched",
		zap.String("label", label),
		zap.Int("messages", len(emails)))
	return emails, nil
}

func (c *Client) labelID(ctx context.Context, name string) (string, error) {
	res, err := c.svc.Users.Labels.List("me").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("gmail: list labels: %w", err)
	}
	for _, l := range res.Labels {
		if strings.EqualFold(l.Name, name) {
			return l.Id, nil
		}
	}
	return "", nil
}

func parseMessage(m *gmailapi.Message) Email {
	e := Email{
		ID:      m.Id,
		Subject: "(no subject)",
		Sender:  "(unknown sender)",
		Date:    time.Now().UTC(),
		Snippet: m.Snippet,
		Link:    "https://mail.google.com/mail/u/0/#inbox/" + m.Id,
	}
	if m.Payload == nil {
		e.Body = e.Snippet
		return e
	}

	for _, h := range m.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "subject":
			e.Subject = h.Value
		case "from":
			e.Sender = h.Value
		case "date":
			if t, err := mail.ParseDate(h.Value); err == nil {
				e.Date = t.UTC()
			}
		}
	}

	e.Body = decodeBody(m.Payload)
	if e.Body == "" {
		e.Body = e.Snippet
	}
	if len(e.Body) > maxBodyBytes {
		e.Body = e.Body[:maxBodyBytes]
	}
	return e
}

// decodeBody walks the MIME tree preferring text/plain, falling back to
// text/html.
func decodeBody(p *gmailapi.MessagePart) string {
	if p.Body != nil && p.Body.Data != "" {
		return decodeData(p.Body.Data)
	}

	var html string
	for _, part := range p.Parts {
		switch {
		case part.MimeType == "text/plain":
			if body := decodeData(partData(part)); body != "" {
				return body
			}
		case part.MimeType == "text/html" && html == "":
			html = decodeData(partData(part))
		case len(part.Parts) > 0:
			if body := decodeBody(part); body != "" {
				return body
			}
		}
	}
	return html
}

func partData(p *gmailapi.MessagePart) string {
	if p.Body == nil {
		return ""
	}
	return p.Body.Data
}

func decodeData(data string) string {
	b, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		b, err = base64.RawURLEncoding.DecodeString(data)
		if err != nil {
			return ""
		}
	}
	return string(b)
}

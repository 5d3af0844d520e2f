package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

func TestTokenSourceRejectsBadJSON(t *testing.T) {
	_, err := tokenSource(context.Background(), "{not json")
	assert.Error(t, err)

	_, err = tokenSource(context.Background(), `{"client_id":"x"}`)
	assert.Error(t, err, "a token without credentials must be rejected")
}

func TestTokenSourceParsesTokenFile(t *testing.T) {
	_, err := tokenSource(context.Background(), `{
		"token": "ya29.abc",
		"refresh_token": "1//refresh",
		"client_id": "id",
		"client_secret": "secret",
		"scopes": ["https://www.googleapis.com/auth/gmail.readonly"]
	}`)
	require.NoError(t, err)
}

func TestParseMessagePrefersPlainText(t *testing.T) {
	plain := base64.URLEncoding.EncodeToString([]byte("plain body"))
	html := base64.URLEncoding.EncodeToString([]byte("<p>html body</p>"))

	m := &gmailapi.Message{
		Id:      "m1",
		Snippet: "snippet text",
		Payload: &gmailapi.MessagePart{
			Headers: []*gmailapi.MessagePartHeader{
				{Name: "Subject", Value: "Weekly AI Digest"},
				{Name: "From", Value: `"The Batch" <news@example.com>`},
				{Name: "Date", Value: "Fri, 28 Aug 2026 12:00:00 +0000"},
			},
			Parts: []*gmailapi.MessagePart{
				{MimeType: "text/html", Body: &gmailapi.MessagePartBody{Data: html}},
				{MimeType: "text/plain", Body: &gmailapi.MessagePartBody{Data: plain}},
			},
		},
	}

	e := parseMessage(m)
	assert.Equal(t, "Weekly AI Digest", e.Subject)
	assert.Equal(t, `"The Batch" <news@example.com>`, e.Sender)
	assert.Equal(t, "plain body", e.Body)
	assert.Equal(t, time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC), e.Date)
	assert.Equal(t, "https://mail.google.com/mail/u/0/#inbox/m1", e.Link)
}

func TestParseMessageFallsBackToSnippet(t *testing.T) {
	m := &gmailapi.Message{
		Id:      "m2",
		Snippet: "only a snippet",
		Payload: &gmailapi.MessagePart{},
	}
	e := parseMessage(m)
	assert.Equal(t, "(no subject)", e.Subject)
	assert.Equal(t, "only a snippet", e.Body)
}

func TestDecodeBodyNestedMultipart(t *testing.T) {
	inner := base64.URLEncoding.EncodeToString([]byte("nested plain"))
	p := &gmailapi.MessagePart{
		Parts: []*gmailapi.MessagePart{
			{
				MimeType: "multipart/alternative",
				Parts: []*gmailapi.MessagePart{
					{MimeType: "text/plain", Body: &gmailapi.MessagePartBody{Data: inner}},
				},
			},
		},
	}
	assert.Equal(t, "nested plain", decodeBody(p))
}

func TestFetchLabeled(t *testing.T) {
	body := base64.URLEncoding.EncodeToString([]byte("market recap body"))
	recent := time.Now().UTC().Add(-2 * time.Hour)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/users/me/labels"):
			json.NewEncoder(w).Encode(gmailapi.ListLabelsResponse{
				Labels: []*gmailapi.Label{{Id: "Label_7", Name: "Newsletter"}},
			})
		case strings.HasSuffix(r.URL.Path, "/users/me/messages"):
			assert.Equal(t, "Label_7", r.URL.Query().Get("labelIds"))
			assert.Contains(t, r.URL.Query().Get("q"), "after:")
			json.NewEncoder(w).Encode(gmailapi.ListMessagesResponse{
				Messages: []*gmailapi.Message{{Id: "m1"}},
			})
		case strings.HasSuffix(r.URL.Path, "/users/me/messages/m1"):
			json.NewEncoder(w).Encode(gmailapi.Message{
				Id:      "m1",
				Snippet: "snip",
				Payload: &gmailapi.MessagePart{
					Headers: []*gmailapi.MessagePartHeader{
						{Name: "Subject", Value: "Morning Brief"},
						{Name: "From", Value: "desk@example.com"},
						{Name: "Date", Value: recent.Format(time.RFC1123Z)},
					},
					Parts: []*gmailapi.MessagePart{
						{MimeType: "text/plain", Body: &gmailapi.MessagePartBody{Data: body}},
					},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	svc, err := gmailapi.NewService(context.Background(),
		option.WithEndpoint(srv.URL),
		option.WithoutAuthentication())
	require.NoError(t, err)

	c := NewClientWithService(svc)
	emails, err := c.FetchLabeled(context.Background(), "newsletter", 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, emails, 1)

	assert.Equal(t, "Morning Brief", emails[0].Subject)
	assert.Equal(t, "market recap body", emails[0].Body)
}

func TestFetchLabeledUnknownLabel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"labels":[]}`)
	}))
	defer srv.Close()

	svc, err := gmailapi.NewService(context.Background(),
		option.WithEndpoint(srv.URL),
		option.WithoutAuthentication())
	require.NoError(t, err)

	c := NewClientWithService(svc)
	emails, err := c.FetchLabeled(context.Background(), "Nope", 24*time.Hour)
	require.NoError(t, err)
	assert.Empty(t, emails)
}

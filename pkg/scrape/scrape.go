// Package scrape fetches the market-breadth and momentum watchlists from
// their public spreadsheet exports.
package scrape

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	marketMonitorCSVURL  = "https://docs.google.com/spreadsheets/d/1O6OhS7ciA8zwfycBfGPbP2fWJnR0pn2UUvFZVDP9jpE/export?format=csv&gid=1082103394"
	momentumCSVURL       = "https://docs.google.com/spreadsheets/d/1xjbe9SF0HsxwY_Uy3NC2tT92BqK0nhArUaYU16Q0p9M/export?format=csv&gid=1499398020"
	marketMonitorPageURL = "https://stockbee.blogspot.com/p/mm.html"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Client fetches and parses the public data sources.
type Client struct {
	http             *http.Client
	logger           *zap.Logger
	marketMonitorURL string
	momentumURL      string
	breadthPageURL   string
}

type Option func(*Client)

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithMarketMonitorURL overrides the breadth CSV endpoint (tests).
func WithMarketMonitorURL(url string) Option {
	return func(c *Client) { c.marketMonitorURL = url }
}

// WithMomentumURL overrides the momentum CSV endpoint (tests).
func WithMomentumURL(url string) Option {
	return func(c *Client) { c.momentumURL = url }
}

// WithBreadthPageURL overrides the HTML fallback page (tests).
func WithBreadthPageURL(url string) Option {
	return func(c *Client) { c.breadthPageURL = url }
}

// NewClient creates a scrape client with the default public endpoints.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:             &http.Client{Timeout: 30 * time.Second},
		logger:           zap.NewNop(),
		marketMonitorURL: marketMonitorCSVURL,
		momentumURL:      momentumCSVURL,
		breadthPageURL:   marketMonitorPageURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// fetchCSV downloads and parses a CSV export. Rows may have ragged lengths;
// the reader is configured to tolerate that.
func (c *Client) fetchCSV(ctx context.Context, url string) ([][]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch csv: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch csv: HTTP %d", resp.StatusCode)
	}

	reader := csv.NewReader(resp.Body)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return rows, nil
}

// parseInt parses an integer that may carry comma grouping ("1,234").
// Unparseable values become 0, matching the tolerant source sheets.
func parseInt(s string) int {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// parseFloat is the float counterpart of parseInt.
func parseFloat(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

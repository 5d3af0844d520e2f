package scrape

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// fetchMarketMonitorHTML scrapes the public breadth page as a fallback when
// the CSV export is unreachable. The page embeds the sheet as a plain HTML
// table, so the row shape matches the CSV export.
func (c *Client) fetchMarketMonitorHTML(ctx context.Context) (*MarketMonitor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.breadthPageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch breadth page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch breadth page: HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse breadth page: %w", err)
	}

	var rows [][]string
	doc.Find("table tr").Each(func(_ int, tr *goquery.Selection) {
		var row []string
		tr.Find("td, th").Each(func(_ int, td *goquery.Selection) {
			row = append(row, trimCell(td.Text()))
		})
		if len(row) > 0 {
			rows = append(rows, row)
		}
	})

	parsed := parseBreadthRows(rows)
	if len(parsed) == 0 {
		return nil, fmt.Errorf("breadth page: no parseable rows in %d table rows", len(rows))
	}

	c.logger.Info("market monitor scraped from html", zap.Int("rows", len(parsed)))
	return &MarketMonitor{
		Date:   time.Now().Format("2006-01-02"),
		Rows:   parsed,
		Latest: &parsed[0],
		Source: "html_page",
	}, nil
}

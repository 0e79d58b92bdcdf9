package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

const DefaultDuckDuckGoURL = "https://html.duckduckgo.com/html/"

// DuckDuckGoClient scrapes the DuckDuckGo HTML endpoint. It needs no API key.
type DuckDuckGoClient struct {
	BaseURL      string
	MaxRetries   int
	InitialDelay time.Duration
	Backoff      time.Duration
	Limit        int
	UserAgent    string
	client       *http.Client
}

func NewDuckDuckGoClient() *DuckDuckGoClient {
	jar, _ := cookiejar.New(nil)
	return &DuckDuckGoClient{
		BaseURL:   DefaultDuckDuckGoURL,
		Backoff:   4 * time.Second,
		Limit:     5,
		UserAgent: "Mozilla/5.0 (compatible; NutriAI/1.0)",
		client:    &http.Client{Jar: jar},
	}
}

func (c *DuckDuckGoClient) Search(ctx context.Context, query string) ([]Record, error) {
	queryURL := c.BaseURL + "?q=" + url.QueryEscape(query)

	if c.InitialDelay > 0 {
		if err := sleepCtx(ctx, c.InitialDelay); err != nil {
			return nil, err
		}
	}

	var resp *http.Response
	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
		if err != nil {
			return nil, fmt.Errorf("error creating request: %w", err)
		}
		req.Header.Set("User-Agent", c.UserAgent)
		resp, err = c.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode == http.StatusOK {
			break
		}
		resp.Body.Close()
		// DuckDuckGo answers 202 when it throttles a client.
		if resp.StatusCode > http.StatusOK && resp.StatusCode < 300 {
			if attempt == c.MaxRetries {
				return nil, fmt.Errorf("search throttled (status %d)", resp.StatusCode)
			}
			if err := sleepCtx(ctx, c.Backoff*(1<<attempt)); err != nil {
				return nil, err
			}
			continue
		}
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}
	defer resp.Body.Close()

	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("decode response charset: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0)
	doc.Find(".result").Each(func(i int, s *goquery.Selection) {
		if c.Limit > 0 && len(records) >= c.Limit {
			return
		}
		if rec, ok := collectRecord(s); ok {
			records = append(records, rec)
		}
	})
	return records, nil
}

func collectRecord(s *goquery.Selection) (Record, bool) {
	link := s.Find(".result__a").First()
	href, _ := link.Attr("href")
	target := unwrapRedirect(href)
	if target == "" {
		target = clean(s.Find(".result__url").Text())
	}

	snippet := clean(s.Find(".result__snippet").Text())
	if snippet == "" {
		snippet = clean(link.Text())
	}
	if target == "" && snippet == "" {
		return Record{}, false
	}
	return Record{URL: target, Content: snippet}, true
}

// unwrapRedirect extracts the destination from DuckDuckGo's /l/?uddg= links.
func unwrapRedirect(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

func clean(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

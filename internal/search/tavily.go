package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultTavilyBaseURL = "https://api.tavily.com"
	// DefaultDepth is the shallow search depth used for every request.
	DefaultDepth = "basic"
)

// TavilyClient queries the Tavily search API.
type TavilyClient struct {
	apiKey     string
	baseURL    string
	Depth      string
	MaxResults int
	client     *http.Client
}

func NewTavilyClient(apiKey, baseURL string) *TavilyClient {
	if baseURL == "" {
		baseURL = defaultTavilyBaseURL
	}
	return &TavilyClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		Depth:   DefaultDepth,
		client:  &http.Client{},
	}
}

type tavilyRequest struct {
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results,omitempty"`
}

type tavilyResponse struct {
	Results []struct {
		URL     string  `json:"url"`
		Title   string  `json:"title"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

func (c *TavilyClient) Search(ctx context.Context, query string) ([]Record, error) {
	if c.apiKey == "" {
		return nil, errors.New("missing Tavily API key")
	}
	depth := c.Depth
	if depth == "" {
		depth = DefaultDepth
	}

	body, err := json.Marshal(tavilyRequest{Query: query, SearchDepth: depth, MaxResults: c.MaxResults})
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("tavily API error: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}

	records := make([]Record, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		records = append(records, Record{URL: r.URL, Content: r.Content})
	}
	return records, nil
}

package search

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const ddgPage = `<html><body><div class="results">
<div class="result results_links web-result">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.bk.com%2Fmenu%2Fwhopper&amp;rut=abc">Whopper</a>
  <a class="result__url" href="#">www.bk.com/menu/whopper</a>
  <a class="result__snippet">Whopper has
    670 calories.</a>
</div>
<div class="result results_links web-result">
  <a class="result__a" href="https://example.com/second">Second</a>
  <a class="result__snippet">Second snippet</a>
</div>
</div></body></html>`

func TestDuckDuckGoSearchParsesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "Whopper calories" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, ddgPage)
	}))
	defer srv.Close()

	client := NewDuckDuckGoClient()
	client.BaseURL = srv.URL
	records, err := client.Search(context.Background(), "Whopper calories")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d: %#v", len(records), records)
	}
	if records[0].URL != "https://www.bk.com/menu/whopper" {
		t.Errorf("unexpected URL %q", records[0].URL)
	}
	if records[0].Content != "Whopper has 670 calories." {
		t.Errorf("unexpected content %q", records[0].Content)
	}
	if records[1].URL != "https://example.com/second" {
		t.Errorf("unexpected URL %q", records[1].URL)
	}
}

func TestDuckDuckGoSearchRetriesOn202(t *testing.T) {
	wantAttempts := 3
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < wantAttempts {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		io.WriteString(w, ddgPage)
	}))
	defer srv.Close()

	client := NewDuckDuckGoClient()
	client.BaseURL = srv.URL
	client.MaxRetries = wantAttempts
	client.Backoff = 0 * time.Millisecond
	client.Limit = 1

	records, err := client.Search(context.Background(), "anything")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if calls != wantAttempts {
		t.Errorf("expected %d attempts, got %d", wantAttempts, calls)
	}
}

func TestDuckDuckGoSearchNoRetryByDefault(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := NewDuckDuckGoClient()
	client.BaseURL = srv.URL
	if _, err := client.Search(context.Background(), "anything"); err == nil {
		t.Fatalf("expected throttling error")
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}

func TestUnwrapRedirect(t *testing.T) {
	cases := map[string]string{
		"":                                   "",
		"https://example.com/a":              "https://example.com/a",
		"/l/?uddg=https%3A%2F%2Fexample.com": "https://example.com",
	}
	for in, want := range cases {
		if got := unwrapRedirect(in); got != want {
			t.Fatalf("unwrapRedirect(%q) = %q, want %q", in, got, want)
		}
	}
}

// Command search_integration runs a handful of live nutrition queries
// against the search backends and logs every HTTP status it sees. It is a
// manual smoke test and needs network access.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"nutriai/internal/search"
)

func init() {
	http.DefaultTransport = &loggingRoundTripper{rt: http.DefaultTransport}
}

type loggingRoundTripper struct{ rt http.RoundTripper }

func (l *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := l.rt.RoundTrip(req)
	if err == nil {
		log.Printf("[HTTP] %s %s -> %d", req.Method, req.URL.Host, resp.StatusCode)
	}
	return resp, err
}

func main() {
	backend := flag.String("backend", "duckduckgo", "tavily or duckduckgo")
	retries := flag.Int("retries", 3, "DuckDuckGo retries on throttling")
	flag.Parse()

	queries := []string{
		"calories in Burger King Whopper",
		"average weight of a Walmart Great Value chicken breast",
		"Starbucks grande caffe latte protein grams",
	}
	if flag.NArg() > 0 {
		queries = flag.Args()
	}

	var s search.Searcher
	switch *backend {
	case "tavily":
		s = search.NewTavilyClient(os.Getenv("TAVILY_API_KEY"), "")
	default:
		ddg := search.NewDuckDuckGoClient()
		ddg.MaxRetries = *retries
		ddg.Backoff = 500 * time.Millisecond
		s = ddg
	}

	for _, q := range queries {
		log.Printf("=== Searching for %q ===", q)
		start := time.Now()
		records, err := s.Search(context.Background(), q)
		dur := time.Since(start)
		if err != nil {
			log.Printf(" ❌  error: %v (took %v)", err, dur)
		} else {
			first := ""
			if len(records) > 0 {
				first = records[0].URL
			}
			log.Printf(" ✅  got %d result(s) in %v. first URL=%q", len(records), dur, first)
		}
		time.Sleep(200 * time.Millisecond)
	}
}

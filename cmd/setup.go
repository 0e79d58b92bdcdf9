package cmd

import (
	"fmt"
	"os"
	"strings"

	"nutriai/internal/ai/llm"
	"nutriai/internal/ai/llm/gemini"
	"nutriai/internal/ai/llm/openai"
	"nutriai/internal/ai/profile"
	"nutriai/internal/ai/tools"
	"nutriai/internal/search"
)

// newLoader is replaced in tests.
var newLoader = func() *profile.Loader {
	return &profile.Loader{}
}

func loadSearchProfile() (profile.SearchProfile, error) {
	sp, err := newLoader().LoadSearch()
	if err != nil {
		return profile.SearchProfile{}, err
	}
	if v := strings.ToLower(strings.TrimSpace(searchProvider)); v != "" {
		sp.Provider = v
	}
	return sp, nil
}

func loadProfiles() (profile.ModelProfile, profile.SearchProfile, error) {
	mp, err := newLoader().Load(modelProfileFlag)
	if err != nil {
		return profile.ModelProfile{}, profile.SearchProfile{}, err
	}
	sp, err := loadSearchProfile()
	if err != nil {
		return profile.ModelProfile{}, profile.SearchProfile{}, err
	}
	if err := profile.Validate(mp, sp); err != nil {
		return profile.ModelProfile{}, profile.SearchProfile{}, err
	}
	return mp, sp, nil
}

func newProvider(mp profile.ModelProfile) (llm.Provider, error) {
	debugLog := func(msg string) {
		fmt.Fprintln(os.Stderr, msg)
	}
	switch mp.Provider {
	case profile.ProviderGemini:
		p := gemini.NewProvider(mp.APIKey, mp.BaseURL, mp.Model, mp.SystemPrompt, mp.MaxTokens)
		if Verbose {
			p.SetDebugLogger(debugLog)
		}
		return p, nil
	case profile.ProviderOpenAI:
		p := openai.NewProvider(mp.APIKey, mp.BaseURL, mp.Model, mp.SystemPrompt, mp.MaxTokens)
		if Verbose {
			p.SetDebugLogger(debugLog)
		}
		return p, nil
	default:
		return nil, llm.ErrUnsupportedProvider{Provider: mp.Provider}
	}
}

func newSearcher(sp profile.SearchProfile) (search.Searcher, error) {
	switch sp.Provider {
	case profile.SearchTavily:
		c := search.NewTavilyClient(sp.APIKey, sp.BaseURL)
		if sp.Depth != "" {
			c.Depth = sp.Depth
		}
		c.MaxResults = sp.MaxResults
		return c, nil
	case profile.SearchDuckDuckGo:
		c := search.NewDuckDuckGoClient()
		if sp.BaseURL != "" {
			c.BaseURL = sp.BaseURL
		}
		if sp.MaxResults > 0 {
			c.Limit = sp.MaxResults
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported search provider: %s", sp.Provider)
	}
}

func newRegistry(s search.Searcher) (*tools.Registry, error) {
	reg := tools.NewRegistry()
	if err := search.Register(reg, s, debugAI); err != nil {
		return nil, err
	}
	return reg, nil
}

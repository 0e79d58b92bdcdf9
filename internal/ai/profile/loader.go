package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"nutriai/internal/appdirs"
)

// ModelProfile describes the connection settings required to invoke an LLM provider.
type ModelProfile struct {
	Name         string `json:"-"`
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	BaseURL      string `json:"base_url"`
	APIKey       string `json:"api_key"`
	APIKeyEnv    string `json:"api_key_env"`
	MaxTokens    int    `json:"max_tokens"`
	SystemPrompt string `json:"system_prompt"`
}

// SearchProfile configures the web search backend exposed to the model.
type SearchProfile struct {
	Provider   string `json:"provider"`
	APIKey     string `json:"api_key"`
	APIKeyEnv  string `json:"api_key_env"`
	BaseURL    string `json:"base_url"`
	Depth      string `json:"depth"`
	MaxResults int    `json:"max_results"`
}

// Config captures all available model profiles and their defaults.
type Config struct {
	Default  string                   `json:"default"`
	Profiles map[string]*ModelProfile `json:"profiles"`
	Search   *SearchProfile           `json:"search"`
}

// Loader resolves profiles using an on-disk config file and environment overrides.
type Loader struct {
	// ConfigPath allows tests to point at an alternate config file. If empty the
	// loader falls back to DefaultConfigPath().
	ConfigPath string

	// Getenv is used to pull environment variables. Defaults to os.Getenv.
	Getenv func(string) string

	// ReadFile is used to read the config file. Defaults to os.ReadFile.
	ReadFile func(string) ([]byte, error)
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	SearchTavily     = "tavily"
	SearchDuckDuckGo = "duckduckgo"

	defaultProvider       = ProviderGemini
	defaultGeminiModel    = "gemini-1.5-pro-latest"
	defaultOpenAIModel    = "gpt-4o"
	defaultSearchProvider = SearchTavily
	defaultSearchDepth    = "basic"
)

// DefaultConfigPath returns the standard location for model profiles.
func DefaultConfigPath() string {
	path, err := appdirs.ProfilesPath()
	if err != nil {
		return ""
	}
	return path
}

func (l *Loader) env() func(string) string {
	if l.Getenv == nil {
		return os.Getenv
	}
	return l.Getenv
}

func (l *Loader) config() (*Config, string, error) {
	readFile := l.ReadFile
	if readFile == nil {
		readFile = os.ReadFile
	}

	configPath := l.ConfigPath
	if strings.TrimSpace(configPath) == "" {
		configPath = DefaultConfigPath()
	}

	cfg, err := readConfig(configPath, readFile)
	return cfg, configPath, err
}

// Load resolves the requested model profile. The selection precedence is:
//  1. Explicit selection (CLI flag argument).
//  2. Environment variable NUTRIAI_AI_PROFILE.
//  3. Config file default field.
//  4. Empty profile using environment variables only.
func (l *Loader) Load(selection string) (ModelProfile, error) {
	getenv := l.env()
	cfg, configPath, err := l.config()
	if err != nil {
		return ModelProfile{}, err
	}

	if strings.TrimSpace(selection) == "" {
		if envSel := strings.TrimSpace(getenv("NUTRIAI_AI_PROFILE")); envSel != "" {
			selection = envSel
		}
	}

	var (
		profile ModelProfile
		found   bool
	)

	if selection != "" {
		profile, found = cfg.profile(selection)
		if !found {
			return ModelProfile{}, fmt.Errorf("model profile %q not found in %s", selection, configPath)
		}
	}

	if !found && cfg != nil && cfg.Default != "" {
		profile, found = cfg.profile(cfg.Default)
		selection = cfg.Default
		if !found {
			return ModelProfile{}, fmt.Errorf("default model profile %q not found in %s", cfg.Default, configPath)
		}
	}

	applyEnvOverrides(&profile, getenv)
	applyDefaults(&profile)
	resolveAPIKey(&profile, getenv)

	if profile.Name == "" {
		profile.Name = selection
	}

	return profile, nil
}

// LoadSearch resolves the search backend settings.
func (l *Loader) LoadSearch() (SearchProfile, error) {
	getenv := l.env()
	cfg, _, err := l.config()
	if err != nil {
		return SearchProfile{}, err
	}

	var search SearchProfile
	if cfg != nil && cfg.Search != nil {
		search = *cfg.Search
	}

	if val := strings.TrimSpace(getenv("NUTRIAI_SEARCH_PROVIDER")); val != "" {
		search.Provider = val
	}
	if val := strings.TrimSpace(getenv("NUTRIAI_SEARCH_BASE_URL")); val != "" {
		search.BaseURL = val
	}
	if val := strings.TrimSpace(getenv("NUTRIAI_SEARCH_DEPTH")); val != "" {
		search.Depth = val
	}

	search.Provider = strings.ToLower(strings.TrimSpace(search.Provider))
	if search.Provider == "" {
		search.Provider = defaultSearchProvider
	}
	if strings.TrimSpace(search.Depth) == "" {
		search.Depth = defaultSearchDepth
	}

	if strings.TrimSpace(search.APIKey) == "" {
		if envName := strings.TrimSpace(search.APIKeyEnv); envName != "" {
			search.APIKey = strings.TrimSpace(getenv(envName))
		}
		if search.APIKey == "" {
			search.APIKey = strings.TrimSpace(getenv("TAVILY_API_KEY"))
		}
	}

	return search, nil
}

func readConfig(path string, readFile func(string) ([]byte, error)) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}

	data, err := readFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read model profile config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode model profile config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) profile(name string) (ModelProfile, bool) {
	if c == nil || c.Profiles == nil {
		return ModelProfile{}, false
	}

	prof, ok := c.Profiles[name]
	if !ok || prof == nil {
		return ModelProfile{}, false
	}

	clone := *prof
	clone.Name = name
	return clone, true
}

func applyEnvOverrides(profile *ModelProfile, getenv func(string) string) {
	if val := strings.TrimSpace(getenv("NUTRIAI_AI_PROVIDER")); val != "" {
		profile.Provider = val
	}
	if val := strings.TrimSpace(getenv("NUTRIAI_AI_MODEL")); val != "" {
		profile.Model = val
	}
	if val := strings.TrimSpace(getenv("NUTRIAI_AI_BASE_URL")); val != "" {
		profile.BaseURL = val
	}
	if raw := strings.TrimSpace(getenv("NUTRIAI_AI_MAX_TOKENS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			profile.MaxTokens = parsed
		}
	}
}

func applyDefaults(profile *ModelProfile) {
	profile.Provider = strings.ToLower(strings.TrimSpace(profile.Provider))
	if profile.Provider == "" {
		profile.Provider = defaultProvider
	}

	if strings.TrimSpace(profile.Model) == "" {
		switch profile.Provider {
		case ProviderOpenAI:
			profile.Model = defaultOpenAIModel
		default:
			profile.Model = defaultGeminiModel
		}
	}
}

// resolveAPIKey applies: explicit config value -> env named by api_key_env ->
// the provider's conventional variable.
func resolveAPIKey(profile *ModelProfile, getenv func(string) string) {
	if strings.TrimSpace(profile.APIKey) != "" {
		return
	}
	if envName := strings.TrimSpace(profile.APIKeyEnv); envName != "" {
		if val := strings.TrimSpace(getenv(envName)); val != "" {
			profile.APIKey = val
			return
		}
	}
	if envName := KeyEnv(profile.Provider); envName != "" {
		profile.APIKey = strings.TrimSpace(getenv(envName))
	}
}

// KeyEnv names the conventional API key variable for a provider.
func KeyEnv(provider string) string {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case ProviderGemini:
		return "GEMINI_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case SearchTavily:
		return "TAVILY_API_KEY"
	}
	return ""
}

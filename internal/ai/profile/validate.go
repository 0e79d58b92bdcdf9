package profile

import (
	"fmt"
	"strings"
)

// ConfigError reports credentials that must be present before a session can start.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing configuration: %s", strings.Join(e.Missing, ", "))
}

// Validate checks that every credential the selected providers need is set.
func Validate(model ModelProfile, search SearchProfile) error {
	var missing []string

	if strings.TrimSpace(model.APIKey) == "" {
		missing = append(missing, keyName(model.APIKeyEnv, model.Provider))
	}
	missing = append(missing, missingSearchKey(search)...)

	if len(missing) > 0 {
		return &ConfigError{Missing: missing}
	}
	return nil
}

// ValidateSearch checks only the search backend, for commands that never
// talk to a model.
func ValidateSearch(search SearchProfile) error {
	if missing := missingSearchKey(search); len(missing) > 0 {
		return &ConfigError{Missing: missing}
	}
	return nil
}

func missingSearchKey(search SearchProfile) []string {
	if search.Provider == SearchTavily && strings.TrimSpace(search.APIKey) == "" {
		return []string{keyName(search.APIKeyEnv, search.Provider)}
	}
	return nil
}

func keyName(configured, provider string) string {
	if name := strings.TrimSpace(configured); name != "" {
		return name
	}
	if name := KeyEnv(provider); name != "" {
		return name
	}
	return provider + " api_key"
}

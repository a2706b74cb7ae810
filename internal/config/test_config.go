package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	defaults := defaultConfig()
	return &Config{
		Database: DatabaseConfig{
			Path:    ":memory:",
			Timeout: 1 * time.Second,
		},
		Source: SourceConfig{
			Provider:    ProviderNewsAPI,
			BaseURL:     "http://127.0.0.1:0",
			APIKey:      "test-key",
			Country:     "us",
			PageSize:    9,
			HTTPTimeout: 5 * time.Second,
			UserAgent:   "headlines-test/1.0",
			MaxRetries:  0,
			RetryWait:   time.Millisecond,
			CacheTTL:    time.Minute,
			RSSFeeds:    map[string]string{},
		},
		UI: UIConfig{
			Debounce:        10 * time.Millisecond,
			PrefetchMargin:  defaults.UI.PrefetchMargin,
			DefaultCategory: "general",
			Colors:          defaults.UI.Colors,
			LightColors:     defaults.UI.LightColors,
			Article:         defaults.UI.Article,
		},
		Log:   LogConfig{Level: "off"},
		Media: defaults.Media,
		Keys:  defaults.Keys,
	}
}

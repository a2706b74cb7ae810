package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pders01/headlines/internal/validation"
)

const (
	ProviderNewsAPI = "newsapi"
	ProviderRSS     = "rss"
)

var knownCategories = []string{
	"general",
	"business",
	"entertainment",
	"health",
	"science",
	"sports",
	"technology",
}

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Source   SourceConfig   `mapstructure:"source"`
	UI       UIConfig       `mapstructure:"ui"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Media    MediaConfig    `mapstructure:"media"`
	Keys     KeyConfig      `mapstructure:"keys"`
}

type DatabaseConfig struct {
	Path        string        `mapstructure:"path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SearchIndex string        `mapstructure:"search_index"`
}

// SourceConfig describes where headlines come from. APIKey is only ever read
// from the environment or a config file and is never written back by Save.
type SourceConfig struct {
	Provider    string            `mapstructure:"provider"`
	BaseURL     string            `mapstructure:"base_url"`
	APIKey      string            `mapstructure:"api_key"`
	Country     string            `mapstructure:"country"`
	PageSize    int               `mapstructure:"page_size"`
	HTTPTimeout time.Duration     `mapstructure:"http_timeout"`
	UserAgent   string            `mapstructure:"user_agent"`
	MaxRetries  int               `mapstructure:"max_retries"`
	RetryWait   time.Duration     `mapstructure:"retry_wait"`
	CacheTTL    time.Duration     `mapstructure:"cache_ttl"`
	RSSFeeds    map[string]string `mapstructure:"rss_feeds"`
}

type UIConfig struct {
	Debounce        time.Duration `mapstructure:"debounce"`
	PrefetchMargin  int           `mapstructure:"prefetch_margin"`
	DefaultCategory string        `mapstructure:"default_category"`
	Colors          UIColors      `mapstructure:"colors"`
	LightColors     UIColors      `mapstructure:"light_colors"`
	Article         ArticleConfig `mapstructure:"article"`
}

type UIColors struct {
	Primary    string `mapstructure:"primary"`
	Secondary  string `mapstructure:"secondary"`
	Accent     string `mapstructure:"accent"`
	Background string `mapstructure:"background"`
	Surface    string `mapstructure:"surface"`
	Text       string `mapstructure:"text"`
	Muted      string `mapstructure:"muted"`
	Error      string `mapstructure:"error"`
	Success    string `mapstructure:"success"`
}

type ArticleConfig struct {
	MaxDescriptionLength int `mapstructure:"max_description_length"`
	WordWrapMaxWidth     int `mapstructure:"word_wrap_max_width"`
	WordWrapMinWidth     int `mapstructure:"word_wrap_min_width"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type MediaConfig struct {
	DefaultOpener string   `mapstructure:"default_opener"`
	ImageViewers  []string `mapstructure:"image_viewers"`
}

type KeyConfig struct {
	Modifier string      `mapstructure:"modifier"`
	Bindings KeyBindings `mapstructure:"bindings"`
}

type KeyBindings struct {
	Quit      string `mapstructure:"quit"`
	Filter    string `mapstructure:"filter"`
	Search    string `mapstructure:"search"`
	Favorites string `mapstructure:"favorites"`
	Bookmark  string `mapstructure:"bookmark"`
	Theme     string `mapstructure:"theme"`
	Open      string `mapstructure:"open"`
	Share     string `mapstructure:"share"`
	Refresh   string `mapstructure:"refresh"`
	Back      string `mapstructure:"back"`
}

// Categories returns the fixed set of categories in display order.
func Categories() []string {
	return append([]string(nil), knownCategories...)
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dbPath := filepath.Join(homeDir, ".headlines.db")
	searchIndexPath := filepath.Join(homeDir, ".headlines", "favorites.bleve")
	logPath := filepath.Join(homeDir, ".headlines", "headlines.log")

	return &Config{
		Database: DatabaseConfig{
			Path:        dbPath,
			Timeout:     1 * time.Second,
			SearchIndex: searchIndexPath,
		},
		Source: SourceConfig{
			Provider:    ProviderNewsAPI,
			BaseURL:     "https://newsapi.org/v2",
			Country:     "us",
			PageSize:    9,
			HTTPTimeout: 15 * time.Second,
			UserAgent:   "headlines/1.0 (https://github.com/pders01/headlines)",
			MaxRetries:  2,
			RetryWait:   250 * time.Millisecond,
			CacheTTL:    1 * time.Minute,
			RSSFeeds:    map[string]string{},
		},
		UI: UIConfig{
			Debounce:        500 * time.Millisecond,
			PrefetchMargin:  3,
			DefaultCategory: "general",
			Colors: UIColors{
				Primary:    "#FF6B6B",
				Secondary:  "#4ECDC4",
				Accent:     "#95E1D3",
				Background: "#1A1A2E",
				Surface:    "#16213E",
				Text:       "#EAEAEA",
				Muted:      "#94A3B8",
				Error:      "#F87171",
				Success:    "#4ADE80",
			},
			LightColors: UIColors{
				Primary:    "#D63A3A",
				Secondary:  "#1D7F78",
				Accent:     "#2563EB",
				Background: "#FFFFFF",
				Surface:    "#F3F4F6",
				Text:       "#111827",
				Muted:      "#6B7280",
				Error:      "#DC2626",
				Success:    "#059669",
			},
			Article: ArticleConfig{
				MaxDescriptionLength: 120,
				WordWrapMaxWidth:     120,
				WordWrapMinWidth:     40,
			},
		},
		Log: LogConfig{
			Level: "off",
			File:  logPath,
		},
		Media: MediaConfig{
			DefaultOpener: getDefaultOpener(),
			ImageViewers:  defaultImageViewers(),
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
			Bindings: KeyBindings{
				Quit:      "q",
				Filter:    "/",
				Search:    "s",
				Favorites: "f",
				Bookmark:  "b",
				Theme:     "t",
				Open:      "o",
				Share:     "y",
				Refresh:   "r",
				Back:      "esc",
			},
		},
	}
}

func getDefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "linux":
		return "xdg-open"
	case "windows":
		return "start"
	default:
		return "open"
	}
}

func defaultImageViewers() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"preview", "open"}
	case "windows":
		return []string{"start"}
	default:
		return []string{"sxiv", "feh", "eog", "xdg-open"}
	}
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("database.timeout", cfg.Database.Timeout)
	v.SetDefault("database.search_index", cfg.Database.SearchIndex)

	v.SetDefault("source.provider", cfg.Source.Provider)
	v.SetDefault("source.base_url", cfg.Source.BaseURL)
	v.SetDefault("source.api_key", cfg.Source.APIKey)
	v.SetDefault("source.country", cfg.Source.Country)
	v.SetDefault("source.page_size", cfg.Source.PageSize)
	v.SetDefault("source.http_timeout", cfg.Source.HTTPTimeout)
	v.SetDefault("source.user_agent", cfg.Source.UserAgent)
	v.SetDefault("source.max_retries", cfg.Source.MaxRetries)
	v.SetDefault("source.retry_wait", cfg.Source.RetryWait)
	v.SetDefault("source.cache_ttl", cfg.Source.CacheTTL)
	v.SetDefault("source.rss_feeds", cfg.Source.RSSFeeds)

	v.SetDefault("ui.debounce", cfg.UI.Debounce)
	v.SetDefault("ui.prefetch_margin", cfg.UI.PrefetchMargin)
	v.SetDefault("ui.default_category", cfg.UI.DefaultCategory)
	for k, val := range colorsMap(cfg.UI.Colors) {
		v.SetDefault("ui.colors."+k, val)
	}
	for k, val := range colorsMap(cfg.UI.LightColors) {
		v.SetDefault("ui.light_colors."+k, val)
	}
	v.SetDefault("ui.article.max_description_length", cfg.UI.Article.MaxDescriptionLength)
	v.SetDefault("ui.article.word_wrap_max_width", cfg.UI.Article.WordWrapMaxWidth)
	v.SetDefault("ui.article.word_wrap_min_width", cfg.UI.Article.WordWrapMinWidth)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("metrics.addr", cfg.Metrics.Addr)

	v.SetDefault("media.default_opener", cfg.Media.DefaultOpener)
	v.SetDefault("media.image_viewers", cfg.Media.ImageViewers)

	v.SetDefault("keys.modifier", cfg.Keys.Modifier)
	for k, val := range bindingsMap(cfg.Keys.Bindings) {
		v.SetDefault("keys.bindings."+k, val)
	}
}

func Load(configPath string) (*Config, error) {
	// Secrets usually live in .env during development; a missing file is fine.
	_ = godotenv.Load(".env")

	v := viper.New()
	setDefaults(v, defaultConfig())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()
		configDir := filepath.Join(homeDir, ".config", "headlines")

		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("HEADLINES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("source.api_key", "HEADLINES_API_KEY", "NEWSAPI_KEY"); err != nil {
		return nil, fmt.Errorf("binding api key env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	expandPaths(&config)

	return &config, nil
}

// Validate reports configuration that would make the viewer unusable.
func (c *Config) Validate() error {
	switch c.Source.Provider {
	case ProviderNewsAPI:
		if strings.TrimSpace(c.Source.APIKey) == "" {
			return fmt.Errorf("no API key configured: set HEADLINES_API_KEY or source.api_key")
		}
	case ProviderRSS:
	default:
		return fmt.Errorf("unknown source provider %q", c.Source.Provider)
	}

	if c.Source.PageSize <= 0 {
		return fmt.Errorf("source.page_size must be positive, got %d", c.Source.PageSize)
	}

	if !IsCategory(c.UI.DefaultCategory) {
		return fmt.Errorf("unknown default category %q", c.UI.DefaultCategory)
	}

	if c.Source.Provider == ProviderNewsAPI {
		if _, err := validation.NewPermissiveURLValidator().ValidateAndNormalize(c.Source.BaseURL); err != nil {
			return fmt.Errorf("source.base_url: %w", err)
		}
	}

	return nil
}

// IsCategory reports whether name is one of the fixed categories.
func IsCategory(name string) bool {
	for _, c := range knownCategories {
		if c == name {
			return true
		}
	}
	return false
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

// ExpandPath is exported for command-line overrides of configured paths.
func ExpandPath(path string) string {
	return expandPath(path)
}

func expandPaths(cfg *Config) {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Database.SearchIndex = expandPath(cfg.Database.SearchIndex)
	cfg.Log.File = expandPath(cfg.Log.File)
}

func colorsMap(c UIColors) map[string]interface{} {
	return map[string]interface{}{
		"primary":    c.Primary,
		"secondary":  c.Secondary,
		"accent":     c.Accent,
		"background": c.Background,
		"surface":    c.Surface,
		"text":       c.Text,
		"muted":      c.Muted,
		"error":      c.Error,
		"success":    c.Success,
	}
}

func bindingsMap(b KeyBindings) map[string]interface{} {
	return map[string]interface{}{
		"quit":      b.Quit,
		"filter":    b.Filter,
		"search":    b.Search,
		"favorites": b.Favorites,
		"bookmark":  b.Bookmark,
		"theme":     b.Theme,
		"open":      b.Open,
		"share":     b.Share,
		"refresh":   b.Refresh,
		"back":      b.Back,
	}
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Durations are written as strings. The API key is never written.
	dbCfg := map[string]interface{}{
		"path":         config.Database.Path,
		"timeout":      config.Database.Timeout.String(),
		"search_index": config.Database.SearchIndex,
	}

	sourceCfg := map[string]interface{}{
		"provider":     config.Source.Provider,
		"base_url":     config.Source.BaseURL,
		"country":      config.Source.Country,
		"page_size":    config.Source.PageSize,
		"http_timeout": config.Source.HTTPTimeout.String(),
		"user_agent":   config.Source.UserAgent,
		"max_retries":  config.Source.MaxRetries,
		"retry_wait":   config.Source.RetryWait.String(),
		"cache_ttl":    config.Source.CacheTTL.String(),
	}
	if len(config.Source.RSSFeeds) > 0 {
		sourceCfg["rss_feeds"] = config.Source.RSSFeeds
	}

	uiCfg := map[string]interface{}{
		"debounce":         config.UI.Debounce.String(),
		"prefetch_margin":  config.UI.PrefetchMargin,
		"default_category": config.UI.DefaultCategory,
		"colors":           colorsMap(config.UI.Colors),
		"light_colors":     colorsMap(config.UI.LightColors),
		"article": map[string]interface{}{
			"max_description_length": config.UI.Article.MaxDescriptionLength,
			"word_wrap_max_width":    config.UI.Article.WordWrapMaxWidth,
			"word_wrap_min_width":    config.UI.Article.WordWrapMinWidth,
		},
	}

	v.Set("database", dbCfg)
	v.Set("source", sourceCfg)
	v.Set("ui", uiCfg)
	v.Set("log", map[string]interface{}{
		"level": config.Log.Level,
		"file":  config.Log.File,
	})
	v.Set("metrics", map[string]interface{}{
		"addr": config.Metrics.Addr,
	})
	v.Set("media", map[string]interface{}{
		"default_opener": config.Media.DefaultOpener,
		"image_viewers":  config.Media.ImageViewers,
	})
	v.Set("keys", map[string]interface{}{
		"modifier": config.Keys.Modifier,
		"bindings": bindingsMap(config.Keys.Bindings),
	})

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}

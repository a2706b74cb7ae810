package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pders01/headlines/internal/bookmarks"
	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/feed"
	"github.com/pders01/headlines/internal/media"
	"github.com/pders01/headlines/internal/metrics"
	"github.com/pders01/headlines/internal/search"
	"github.com/pders01/headlines/internal/storage"
	"github.com/pders01/headlines/internal/tui"
)

// Version is the version of the application, set at build time
var Version = "dev"

var (
	configPath string
	dbPath     string
	category   string
	logLevel   string
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "headlines",
	Short: "Top headlines in your terminal",
	Long: `headlines pages through top stories by category, keeps a list of
favorites and searches them offline.

The news API key is read from HEADLINES_API_KEY (or NEWSAPI_KEY), from a
.env file in the working directory, or from source.api_key in the config.`,
	SilenceUsage: true,
	RunE:         runViewer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("headlines %s\n", Version)
		fmt.Println("Top headlines viewer")
		fmt.Println("github.com/pders01/headlines")
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configGenCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a default config file",
	Run: func(cmd *cobra.Command, args []string) {
		home, _ := os.UserHomeDir()
		configFile := filepath.Join(home, ".config", "headlines", "config.toml")
		if configPath != "" {
			configFile = configPath
		}

		if err := config.GenerateDefaultConfig(configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Generated default configuration at: %s\n", configFile)
	},
}

var bookmarksCmd = &cobra.Command{
	Use:   "bookmarks",
	Short: "Work with saved favorites",
}

var bookmarksListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print saved favorites, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := storage.NewStoreWithTimeout(cfg.Database.Path, cfg.Database.Timeout)
		if err != nil {
			return err
		}
		defer store.Close()

		items := bookmarks.Load(store).Items()
		out := cmd.OutOrStdout()
		if len(items) == 0 {
			fmt.Fprintln(out, "No favorites saved.")
			return nil
		}
		for _, a := range items {
			fmt.Fprintf(out, "%s\n  %s", a.Title, a.URL)
			if a.SourceName != "" {
				fmt.Fprintf(out, " (%s)", a.SourceName)
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to configuration file")
	flags.StringVar(&dbPath, "db", "", "Path to database file (overrides config)")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error or off (overrides config)")
	rootCmd.Flags().StringVar(&category, "category", "", "Category to open with (overrides config)")
	rootCmd.Flags().BoolVar(&quiet, "quiet", false, "Skip startup banner")

	configCmd.AddCommand(configGenCmd)
	bookmarksCmd.AddCommand(bookmarksListCmd)
	rootCmd.AddCommand(versionCmd, configCmd, bookmarksCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dbPath != "" {
		cfg.Database.Path = config.ExpandPath(dbPath)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if category != "" {
		c, err := feed.ParseCategory(category)
		if err != nil {
			return nil, err
		}
		cfg.UI.DefaultCategory = string(c)
	}
	return cfg, nil
}

func newClient(cfg *config.Config) (feed.Client, error) {
	if cfg.Source.Provider == config.ProviderRSS {
		return feed.NewRSSSource(cfg)
	}
	return feed.NewFetcher(cfg), nil
}

func runViewer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.File); err != nil {
		return err
	}
	defer debuglog.Close()

	store, err := storage.NewStoreWithTimeout(cfg.Database.Path, cfg.Database.Timeout)
	if err != nil {
		return err
	}
	defer store.Close()

	m := metrics.New()
	saved := bookmarks.Load(store, bookmarks.WithOnToggle(m.BookmarkToggled))

	var searcher search.Searcher
	if idx, err := search.Open(cfg.Database.SearchIndex); err != nil {
		debuglog.Warnf("search disabled: %v", err)
	} else {
		defer idx.Close()
		saved.AddListener(idx)
		searcher = idx
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := m.Serve(ctx, cfg.Metrics.Addr); err != nil {
				debuglog.Errorf("metrics server: %v", err)
			}
		}()
	}

	if !quiet {
		tui.ShowBanner(Version)
	}

	app := tui.NewApp(tui.Deps{
		Config:    cfg,
		Client:    client,
		Prefs:     store,
		Bookmarks: saved,
		Searcher:  searcher,
		Launcher:  media.NewLauncher(cfg),
		Metrics:   m,
	})
	defer app.Close()

	debuglog.Infof("starting headlines %s (%s provider)", Version, cfg.Source.Provider)
	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/headlines/internal/bookmarks"
	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/feed"
	"github.com/pders01/headlines/internal/storage"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r)
		outC <- buf.String()
	}()

	fn()

	w.Close()
	os.Stdout = old
	return <-outC
}

func resetFlags(t *testing.T) {
	t.Cleanup(func() {
		configPath, dbPath, category, logLevel = "", "", "", ""
		quiet = false
	})
}

func TestVersionCommand(t *testing.T) {
	out := captureStdout(t, func() { versionCmd.Run(nil, nil) })

	if !strings.Contains(out, "headlines dev") {
		t.Errorf("Expected version output to contain 'headlines dev', got: %s", out)
	}
	if !strings.Contains(out, "github.com/pders01/headlines") {
		t.Errorf("Expected version output to contain the module path, got: %s", out)
	}
}

func TestGenerateConfigCommand(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	configFile := filepath.Join(tmpDir, ".config", "headlines", "config.toml")

	out := captureStdout(t, func() { configGenCmd.Run(nil, nil) })

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		t.Errorf("Config file was not created at %s", configFile)
	}
	if !strings.Contains(out, "Generated default configuration at:") {
		t.Errorf("Expected output to contain 'Generated default configuration at:', got: %s", out)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	resetFlags(t)
	t.Setenv("HOME", t.TempDir())

	dbPath = filepath.Join(t.TempDir(), "flag.db")
	category = " Sports "
	logLevel = "debug"

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, dbPath, cfg.Database.Path)
	assert.Equal(t, "sports", cfg.UI.DefaultCategory)
	assert.Equal(t, "debug", cfg.Log.Level)

	category = "gossip"
	_, err = loadConfig()
	assert.Error(t, err)
}

func TestNewClientByProvider(t *testing.T) {
	cfg := config.TestConfig()

	client, err := newClient(cfg)
	require.NoError(t, err)
	assert.IsType(t, &feed.Fetcher{}, client)

	cfg.Source.Provider = config.ProviderRSS
	client, err = newClient(cfg)
	require.NoError(t, err)
	assert.IsType(t, &feed.RSSSource{}, client)
}

func TestBookmarksListCommand(t *testing.T) {
	resetFlags(t)
	t.Setenv("HOME", t.TempDir())
	dbPath = filepath.Join(t.TempDir(), "headlines.db")

	var buf bytes.Buffer
	bookmarksListCmd.SetOut(&buf)
	t.Cleanup(func() { bookmarksListCmd.SetOut(nil) })

	require.NoError(t, bookmarksListCmd.RunE(bookmarksListCmd, nil))
	assert.Contains(t, buf.String(), "No favorites saved.")

	store, err := storage.NewStore(dbPath)
	require.NoError(t, err)
	saved := bookmarks.Load(store)
	_, err = saved.Toggle(&storage.Article{URL: "https://news.example/a", Title: "First", SourceName: "Wire"})
	require.NoError(t, err)
	_, err = saved.Toggle(&storage.Article{URL: "https://news.example/b", Title: "Second"})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	buf.Reset()
	require.NoError(t, bookmarksListCmd.RunE(bookmarksListCmd, nil))
	out := buf.String()
	assert.Contains(t, out, "https://news.example/a (Wire)")
	assert.Less(t, strings.Index(out, "Second"), strings.Index(out, "First"), "newest first")
}

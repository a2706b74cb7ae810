package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/feed"
)

type KeyHandler struct {
	app         *App
	config      *config.Config
	modifierKey string
	bindings    config.KeyBindings
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	modifierKey := cfg.Keys.Modifier + "+"
	return &KeyHandler{app: app, config: cfg, modifierKey: modifierKey, bindings: withDefaultBindings(cfg.Keys.Bindings)}
}

func withDefaultBindings(b config.KeyBindings) config.KeyBindings {
	def := func(v *string, fallback string) {
		if strings.TrimSpace(*v) == "" {
			*v = fallback
		}
	}
	def(&b.Quit, "q")
	def(&b.Filter, "/")
	def(&b.Search, "s")
	def(&b.Favorites, "f")
	def(&b.Bookmark, "b")
	def(&b.Theme, "t")
	def(&b.Open, "o")
	def(&b.Share, "y")
	def(&b.Refresh, "r")
	def(&b.Back, "esc")
	return b
}

// mod returns the modified form of an action key, e.g. "ctrl+b".
func (kh *KeyHandler) mod(key string) string {
	return kh.modifierKey + key
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}

	if model, cmd, handled := kh.handleCustomKeys(key); handled {
		return model, cmd
	}

	return kh.delegateToCharm(msg)
}

func (kh *KeyHandler) isInTextInputMode() bool {
	switch kh.app.view {
	case ViewFeed:
		return kh.app.filterInput.Focused()
	case ViewSearch:
		return kh.app.searchInput.Focused()
	default:
		return false
	}
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return kh.app, tea.Quit
	case kh.bindings.Back:
		if kh.app.view == ViewFeed {
			kh.app.filterInput.Blur()
			return kh.app, nil
		}
		return kh.navigateBack()
	case "enter":
		return kh.handleTextInputEnter()
	case "tab", "down":
		if kh.app.view == ViewSearch && len(kh.app.searchList.Items()) > 0 {
			kh.app.searchInput.Blur()
			kh.app.searchList.Select(0)
			return kh.app, nil
		}
		if kh.app.view == ViewFeed {
			kh.app.filterInput.Blur()
			return kh.app, nil
		}
	}
	return kh.delegateToTextInput(msg)
}

// handleTextInputEnter commits the pending query right away.
func (kh *KeyHandler) handleTextInputEnter() (tea.Model, tea.Cmd) {
	switch kh.app.view {
	case ViewFeed:
		kh.app.filterInput.Blur()
		if _, changed := kh.app.filter.Flush(); changed {
			return kh.app, kh.app.applyFilter()
		}
		return kh.app, nil

	case ViewSearch:
		query, changed := kh.app.searchDebounce.Flush()
		if changed {
			return kh.app, kh.app.runSearch(query)
		}
		if len(kh.app.searchList.Items()) > 0 {
			kh.app.searchInput.Blur()
			kh.app.searchList.Select(0)
		}
		return kh.app, nil

	default:
		return kh.app, nil
	}
}

// delegateToTextInput passes the key to the focused input and schedules a
// debounced commit when its value changed.
func (kh *KeyHandler) delegateToTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch kh.app.view {
	case ViewFeed:
		prev := kh.app.filterInput.Value()
		var cmd tea.Cmd
		kh.app.filterInput, cmd = kh.app.filterInput.Update(msg)
		if kh.app.filterInput.Value() != prev {
			return kh.app, tea.Batch(cmd, kh.app.filter.Input(kh.app.filterInput.Value()))
		}
		return kh.app, cmd

	case ViewSearch:
		prev := kh.app.searchInput.Value()
		var cmd tea.Cmd
		kh.app.searchInput, cmd = kh.app.searchInput.Update(msg)
		if kh.app.searchInput.Value() != prev {
			query := kh.sanitizeSearchInput(kh.app.searchInput.Value())
			return kh.app, tea.Batch(cmd, kh.app.searchDebounce.Input(query))
		}
		return kh.app, cmd

	default:
		return kh.app, nil
	}
}

// handleCustomKeys handles only our custom action keys
func (kh *KeyHandler) handleCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "ctrl+c", kh.bindings.Quit:
		return kh.app, tea.Quit, true
	case kh.bindings.Back:
		model, cmd := kh.navigateBack()
		return model, cmd, true
	case kh.mod(kh.bindings.Theme):
		return kh.app, kh.app.handleThemeToggle(), true
	case kh.mod(kh.bindings.Bookmark):
		return kh.app, kh.app.handleBookmarkToggle(kh.app.selectedArticle()), true
	case kh.mod(kh.bindings.Open):
		if a := kh.app.selectedArticle(); a != nil {
			return kh.app, kh.app.openURL(a.URL), true
		}
		return kh.app, nil, true
	case kh.mod(kh.bindings.Share):
		if a := kh.app.selectedArticle(); a != nil {
			return kh.app, kh.app.copyURL(a.URL), true
		}
		return kh.app, nil, true
	}

	switch kh.app.view {
	case ViewFeed:
		return kh.handleFeedCustomKeys(key)
	case ViewReader:
		return kh.handleReaderCustomKeys(key)
	case ViewSearch:
		return kh.handleSearchCustomKeys(key)
	default:
		return kh.app, nil, false
	}
}

func (kh *KeyHandler) handleFeedCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case kh.bindings.Filter:
		kh.app.filterInput.Focus()
		return kh.app, nil, true
	case kh.mod(kh.bindings.Favorites):
		return kh.app, kh.app.handleModeToggle(), true
	case kh.mod(kh.bindings.Refresh):
		return kh.app, kh.app.handleReload(), true
	case kh.mod(kh.bindings.Search):
		model, cmd := kh.enterSearchMode()
		return model, cmd, true
	case "tab":
		return kh.app, kh.app.handleCategorySwitch(kh.app.category.Next()), true
	case "shift+tab":
		return kh.app, kh.app.handleCategorySwitch(kh.app.category.Prev()), true
	case "enter":
		return kh.app, kh.app.openArticle(kh.app.selectedArticle(), ViewFeed), true
	}

	if n, err := strconv.Atoi(key); err == nil {
		if c, ok := feed.CategoryAt(n); ok {
			return kh.app, kh.app.handleCategorySwitch(c), true
		}
	}
	return kh.app, nil, false
}

func (kh *KeyHandler) handleReaderCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	if key == kh.mod("p") && kh.app.currentArticle != nil {
		return kh.app, kh.app.openImage(kh.app.currentArticle.ImageURL), true
	}
	return kh.app, nil, false
}

func (kh *KeyHandler) handleSearchCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "tab", "shift+tab", "/":
		kh.app.searchInput.Focus()
		return kh.app, nil, true
	case "up":
		if kh.app.searchList.Index() == 0 {
			kh.app.searchInput.Focus()
			return kh.app, nil, true
		}
	case "enter":
		return kh.app, kh.app.openArticle(kh.app.selectedArticle(), ViewSearch), true
	}
	return kh.app, nil, false
}

// delegateToCharm lets Charm handle all keys we don't intercept
func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch kh.app.view {
	case ViewFeed:
		kh.app.list, cmd = kh.app.list.Update(msg)
		kh.app.observe()
		return kh.app, tea.Batch(cmd, kh.app.takeDispatched())

	case ViewSearch:
		kh.app.searchList, cmd = kh.app.searchList.Update(msg)
		return kh.app, cmd

	case ViewReader:
		kh.app.viewport, cmd = kh.app.viewport.Update(msg)
		return kh.app, cmd

	default:
		return kh.app, nil
	}
}

// navigateBack implements smart back navigation
func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	switch kh.app.view {
	case ViewSearch:
		kh.app.view = ViewFeed
		kh.app.searchInput.Reset()
		kh.app.searchInput.Blur()
		kh.app.searchDebounce.Reset()
		kh.app.searchResults = nil
		kh.app.searchList.SetItems([]list.Item{})
		kh.app.clearStatus()
		return kh.app, nil

	case ViewReader:
		kh.app.view = kh.app.previousView
		kh.app.currentArticle = nil
		kh.app.loadingArticle = false
		kh.app.clearStatus()
		if kh.app.view == ViewSearch {
			kh.app.searchInput.Blur()
		}
		return kh.app, nil

	default:
		if kh.app.filterInput.Value() != "" {
			kh.app.filterInput.Reset()
			kh.app.filter.Reset()
			return kh.app, kh.app.applyFilter()
		}
		kh.app.clearStatus()
		return kh.app, nil
	}
}

// enterSearchMode transitions to full-text search over favorites.
func (kh *KeyHandler) enterSearchMode() (tea.Model, tea.Cmd) {
	kh.app.filterInput.Blur()
	kh.app.view = ViewSearch
	kh.app.searchInput.Reset()
	kh.app.searchInput.Focus()
	kh.app.searchDebounce.Reset()
	kh.app.searchResults = nil
	kh.app.searchList.SetItems([]list.Item{})
	kh.app.clearStatus()
	return kh.app, nil
}

// sanitizeSearchInput sanitizes and limits search input length
func (kh *KeyHandler) sanitizeSearchInput(input string) string {
	input = strings.TrimSpace(input)

	if len(input) > 256 {
		input = input[:256]
	}

	input = strings.NewReplacer("\n", " ", "\r", " ", "\t", " ").Replace(input)
	return strings.Join(strings.Fields(input), " ")
}

// GetHelpForCurrentView returns only our custom help text (Charm handles the rest)
func (kh *KeyHandler) GetHelpForCurrentView() []string {
	switch kh.app.view {
	case ViewFeed:
		if kh.app.filterInput.Focused() {
			return []string{"enter: apply", kh.bindings.Back + ": done"}
		}
		help := []string{"enter: read", kh.bindings.Filter + ": filter", kh.mod(kh.bindings.Bookmark) + ": save", kh.mod(kh.bindings.Share) + ": share"}
		if kh.app.mode == feed.ModeFeed {
			help = append(help, "tab: category", kh.mod(kh.bindings.Refresh)+": reload")
		}
		return append(help,
			kh.mod(kh.bindings.Favorites)+": favorites",
			kh.mod(kh.bindings.Search)+": search",
			kh.mod(kh.bindings.Theme)+": theme",
			kh.bindings.Quit+": quit",
		)

	case ViewReader:
		help := []string{kh.mod(kh.bindings.Open) + ": open", kh.mod(kh.bindings.Share) + ": share", kh.mod(kh.bindings.Bookmark) + ": save"}
		if kh.app.currentArticle != nil && kh.app.currentArticle.ImageURL != "" {
			help = append(help, kh.mod("p")+": image")
		}
		return append(help, kh.bindings.Back+": back")

	case ViewSearch:
		return []string{kh.mod(kh.bindings.Bookmark) + ": remove", kh.bindings.Back + ": back"}

	default:
		return nil
	}
}

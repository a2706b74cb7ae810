package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/headlines/internal/bookmarks"
	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/debounce"
	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/feed"
	"github.com/pders01/headlines/internal/metrics"
	"github.com/pders01/headlines/internal/search"
	"github.com/pders01/headlines/internal/storage"
)

// Prefs persists small UI preferences.
type Prefs interface {
	DarkMode() bool
	SetDarkMode(dark bool) error
}

// Opener hands links to programs outside the terminal.
type Opener interface {
	Open(link string) error
	OpenImage(link string) error
}

// Deps are the collaborators the app is built from. Config, Client and
// Bookmarks are required; the rest may be nil. A nil Clipboard uses the
// system clipboard.
type Deps struct {
	Config    *config.Config
	Client    feed.Client
	Prefs     Prefs
	Bookmarks *bookmarks.Store
	Searcher  search.Searcher
	Launcher  Opener
	Clipboard func(text string) error
	Metrics   *metrics.Metrics
}

// Ids tagging the fires of the two debounced inputs.
const (
	filterDebounceID = iota + 1
	searchDebounceID
)

type App struct {
	config    *config.Config
	prefs     Prefs
	bookmarks *bookmarks.Store
	searcher  search.Searcher
	launcher  Opener
	copyText  func(text string) error
	log       *debuglog.FieldLogger

	ctrl       *feed.Controller
	sensor     *feed.RowSensor
	sentinel   *feed.Sentinel
	dispatched []*feed.Request

	keyHandler     *KeyHandler
	list           list.Model
	searchList     list.Model
	filterInput    textinput.Model
	searchInput    textinput.Model
	filter         *debounce.Debouncer
	searchDebounce *debounce.Debouncer
	viewport       viewport.Model
	spinner        spinner.Model

	view           View
	previousView   View
	mode           feed.ViewMode
	category       feed.Category
	currentArticle *storage.Article
	loadingArticle bool
	searchResults  []*search.Result
	dark           bool

	status     string
	statusKind StatusKind

	width           int
	height          int
	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
	rendererDark    bool
}

func NewApp(deps Deps) *App {
	cfg := deps.Config

	articleList := list.New([]list.Item{}, newDelegate(), 0, 0)
	articleList.SetShowTitle(false)
	articleList.SetShowStatusBar(false)
	articleList.SetFilteringEnabled(false)
	articleList.SetShowHelp(false)

	searchList := list.New([]list.Item{}, newDelegate(), 0, 0)
	searchList.SetShowTitle(false)
	searchList.SetShowStatusBar(false)
	searchList.SetFilteringEnabled(false)
	searchList.SetShowHelp(false)

	fi := textinput.New()
	fi.Prompt = "/ "
	fi.Placeholder = "Filter headlines..."

	si := textinput.New()
	si.Placeholder = "Search favorites..."

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	app := &App{
		config:         cfg,
		prefs:          deps.Prefs,
		bookmarks:      deps.Bookmarks,
		searcher:       deps.Searcher,
		launcher:       deps.Launcher,
		copyText:       deps.Clipboard,
		log:            debuglog.WithFields(map[string]interface{}{"component": "tui"}),
		list:           articleList,
		searchList:     searchList,
		filterInput:    fi,
		searchInput:    si,
		filter:         debounce.New(filterDebounceID, cfg.UI.Debounce),
		searchDebounce: debounce.New(searchDebounceID, cfg.UI.Debounce),
		viewport:       viewport.New(0, 0),
		spinner:        sp,
		view:           ViewFeed,
		previousView:   ViewFeed,
		mode:           feed.ModeFeed,
		category:       feed.General,
		dark:           true,
	}

	if app.copyText == nil {
		app.copyText = copyToClipboard
	}
	if c, err := feed.ParseCategory(cfg.UI.DefaultCategory); err == nil {
		app.category = c
	}
	if app.prefs != nil {
		app.dark = app.prefs.DarkMode()
	}
	app.applyTheme()

	app.ctrl = feed.NewController(deps.Client, feed.WithMetrics(deps.Metrics))
	app.sensor = feed.NewRowSensor(cfg.UI.PrefetchMargin)
	app.sentinel = feed.NewSentinel(app.ctrl, app.sensor, func(req *feed.Request) {
		app.dispatched = append(app.dispatched, req)
	})
	app.keyHandler = NewKeyHandler(app, cfg)

	return app
}

func newDelegate() list.DefaultDelegate {
	d := list.NewDefaultDelegate()
	d.Styles.SelectedTitle = d.Styles.SelectedTitle.
		Foreground(PrimaryColor).
		BorderForeground(PrimaryColor)
	d.Styles.SelectedDesc = d.Styles.SelectedDesc.
		Foreground(SecondaryColor).
		BorderForeground(PrimaryColor)
	d.Styles.NormalTitle = d.Styles.NormalTitle.Foreground(TextColor)
	return d
}

// applyTheme installs the palette for the current theme.
func (a *App) applyTheme() {
	if a.dark {
		applyPalette(a.config.UI.Colors)
	} else {
		applyPalette(a.config.UI.LightColors)
	}
	a.list.SetDelegate(newDelegate())
	a.searchList.SetDelegate(newDelegate())
	a.spinner.Style = lipgloss.NewStyle().Foreground(PrimaryColor)
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	wrap := a.config.UI.Article
	maxWidth := wrap.WordWrapMaxWidth
	if maxWidth <= 0 {
		maxWidth = 120
	}
	minWidth := wrap.WordWrapMinWidth
	if minWidth <= 0 {
		minWidth = 40
	}

	wordWrapWidth := (a.width * 9) / 10
	if wordWrapWidth > maxWidth {
		wordWrapWidth = maxWidth
	}
	if wordWrapWidth < minWidth {
		wordWrapWidth = minWidth
	}
	if a.width < 50 {
		wordWrapWidth = max(a.width-4, 20)
	}

	if a.glamourRenderer == nil || a.rendererDark != a.dark || abs(a.rendererWidth-wordWrapWidth) > 10 {
		style := "light"
		if a.dark {
			style = "dark"
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(wordWrapWidth),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrapWidth
		a.rendererDark = a.dark
	}

	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		a.handleCategorySwitch(a.category),
	)
}

// Close releases the in-flight request and stops pending timers.
func (a *App) Close() {
	a.sentinel.Dispose()
	a.filter.Stop()
	a.searchDebounce.Stop()
	a.ctrl.Close()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		if a.view == ViewReader && a.currentArticle != nil {
			return a, a.renderArticle(a.currentArticle)
		}
		return a, nil

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case pageLoadedMsg:
		return a, a.handlePageLoaded(msg)

	case debounce.FireMsg:
		return a, a.handleDebounceFire(msg)

	case spinner.TickMsg:
		if !a.ctrl.State().Loading && !a.loadingArticle {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case articleRenderedMsg:
		if a.view == ViewReader && a.currentArticle != nil && a.currentArticle.URL == msg.url {
			a.viewport.SetContent(msg.content)
			a.viewport.GotoTop()
			a.loadingArticle = false
			a.clearStatus()
		}
		return a, nil

	case searchResultsMsg:
		if a.view == ViewSearch && msg.query == a.searchDebounce.Committed() {
			a.setSearchResults(msg.results)
		}
		return a, nil

	case themeSavedMsg:
		if msg.err != nil {
			a.log.Warnf("saving theme: %v", msg.err)
			a.setStatus(MsgError(msg.err), StatusError)
		}
		return a, nil

	case linkCopiedMsg:
		a.log.Debugf("copied %s", msg.url)
		a.setStatus(MsgLinkCopied, StatusSuccess)
		return a, nil

	case errorMsg:
		a.log.Errorf("%v", msg.err)
		a.setStatus(MsgError(msg.err), StatusError)
		return a, nil
	}

	return a, nil
}

func (a *App) resize(width, height int) {
	a.width = width
	a.height = height

	a.list.SetSize(width, a.listHeight())
	a.searchList.SetSize(width, max(height-8, 3))
	a.viewport.Width = width
	a.viewport.Height = max(height-2, 1)

	inputWidth := max(width-8, 10)
	a.filterInput.Width = inputWidth
	a.searchInput.Width = inputWidth
}

// listHeight leaves room for the tab bar, the filter line and the status bar.
func (a *App) listHeight() int {
	return max(a.height-4, 1)
}

// handleCategorySwitch starts a fresh session for c. Selecting a category
// while favorites are shown returns to the feed.
func (a *App) handleCategorySwitch(c feed.Category) tea.Cmd {
	a.category = c
	if a.mode == feed.ModeFavorites {
		a.mode = feed.ModeFeed
		a.sentinel.SetMode(a.mode)
	}
	a.sensor.Rearm()
	a.list.Select(0)
	a.clearStatus()

	req := a.ctrl.Reset(c)
	a.refreshList()
	a.log.Debugf("switched to %s", c)
	return tea.Batch(a.fetchPage(req), a.spinner.Tick)
}

// handleModeToggle flips between the live feed and favorites. Favorites
// suspend the feed; returning to the feed reloads the current category.
func (a *App) handleModeToggle() tea.Cmd {
	a.mode = a.mode.Toggle()
	a.sentinel.SetMode(a.mode)
	a.list.Select(0)
	a.clearStatus()

	if a.mode == feed.ModeFavorites {
		a.ctrl.Suspend()
		a.refreshList()
		return nil
	}

	a.sensor.Rearm()
	req := a.ctrl.Reset(a.category)
	a.refreshList()
	return tea.Batch(a.fetchPage(req), a.spinner.Tick)
}

// handlePageLoaded merges a finished fetch. Results for a superseded
// session are dropped without touching the screen.
func (a *App) handlePageLoaded(msg pageLoadedMsg) tea.Cmd {
	if !a.ctrl.Apply(msg.result) {
		return nil
	}

	state := a.ctrl.State()
	if state.Err != nil {
		a.setStatus(MsgError(state.Err), StatusError)
		a.refreshList()
		return nil
	}

	if a.statusKind == StatusError {
		a.clearStatus()
	}
	a.refreshList()
	a.sensor.Rearm()
	a.observe()
	return a.takeDispatched()
}

// handleDebounceFire commits the filter or search query once typing pauses.
func (a *App) handleDebounceFire(msg debounce.FireMsg) tea.Cmd {
	switch {
	case a.filter.Owns(msg):
		if _, changed := a.filter.Fire(msg); changed {
			return a.applyFilter()
		}
	case a.searchDebounce.Owns(msg):
		if query, changed := a.searchDebounce.Fire(msg); changed {
			return a.runSearch(query)
		}
	}
	return nil
}

func (a *App) applyFilter() tea.Cmd {
	a.list.Select(0)
	a.refreshList()
	a.observe()
	return a.takeDispatched()
}

func (a *App) runSearch(query string) tea.Cmd {
	if len([]rune(query)) < 2 {
		a.setSearchResults(nil)
		return nil
	}
	return a.performSearch(query)
}

// handleBookmarkToggle saves or removes article. A failed write leaves the
// favorites as they were and surfaces the error.
func (a *App) handleBookmarkToggle(article *storage.Article) tea.Cmd {
	if article == nil {
		return nil
	}
	wasSaved := a.bookmarks.IsBookmarked(article.ID())
	if _, err := a.bookmarks.Toggle(article); err != nil {
		a.log.Warnf("toggling bookmark %s: %v", article.ID(), err)
		a.setStatus(MsgError(err), StatusError)
		return nil
	}

	if wasSaved {
		a.setStatus(MsgRemoved, StatusInfo)
	} else {
		a.setStatus(MsgSaved, StatusSuccess)
	}
	a.refreshList()
	if a.view == ViewSearch {
		a.refreshSearchList()
	}
	return nil
}

func (a *App) handleThemeToggle() tea.Cmd {
	a.dark = !a.dark
	a.applyTheme()
	if a.dark {
		a.setStatus(MsgDarkTheme, StatusInfo)
	} else {
		a.setStatus(MsgLightTheme, StatusInfo)
	}
	a.refreshList()

	cmds := []tea.Cmd{a.persistTheme(a.dark)}
	if a.view == ViewReader && a.currentArticle != nil {
		cmds = append(cmds, a.renderArticle(a.currentArticle))
	}
	return tea.Batch(cmds...)
}

// handleReload repeats a failed page, or restarts the category.
func (a *App) handleReload() tea.Cmd {
	if a.mode == feed.ModeFavorites {
		return nil
	}
	if req := a.ctrl.Retry(); req != nil {
		a.clearStatus()
		return tea.Batch(a.fetchPage(req), a.spinner.Tick)
	}
	return a.handleCategorySwitch(a.category)
}

func (a *App) openArticle(article *storage.Article, from View) tea.Cmd {
	if article == nil {
		return nil
	}
	a.currentArticle = article
	a.previousView = from
	a.view = ViewReader
	a.loadingArticle = true
	a.setStatus(MsgLoadingArticle, StatusInfo)
	return tea.Batch(a.spinner.Tick, a.renderArticle(article))
}

// observe reports the cursor to the sensor so the sentinel can prefetch.
func (a *App) observe() {
	if a.view != ViewFeed {
		return
	}
	a.sensor.Observe(a.list.Index(), len(a.list.Items()))
}

// visibleArticles is what the list currently shows.
func (a *App) visibleArticles() []*storage.Article {
	return feed.VisibleList(a.mode, a.ctrl.State(), a.bookmarks.Items(), a.filter.Committed())
}

func (a *App) refreshList() {
	articles := a.visibleArticles()
	items := make([]list.Item, len(articles))
	for i, art := range articles {
		items[i] = a.itemFor(art)
	}
	a.list.SetItems(items)
}

func (a *App) setSearchResults(results []*search.Result) {
	a.searchResults = results
	a.refreshSearchList()
}

// refreshSearchList drops results that were removed from favorites.
func (a *App) refreshSearchList() {
	items := make([]list.Item, 0, len(a.searchResults))
	for _, r := range a.searchResults {
		if r == nil || r.Article == nil || !a.bookmarks.IsBookmarked(r.Article.ID()) {
			continue
		}
		items = append(items, a.itemFor(r.Article))
	}
	a.searchList.SetItems(items)
}

func (a *App) itemFor(art *storage.Article) articleItem {
	return articleItem{
		article: art,
		saved:   a.bookmarks.IsBookmarked(art.ID()),
		maxDesc: a.config.UI.Article.MaxDescriptionLength,
	}
}

func (a *App) selectedArticle() *storage.Article {
	var item list.Item
	switch a.view {
	case ViewReader:
		return a.currentArticle
	case ViewSearch:
		item = a.searchList.SelectedItem()
	default:
		item = a.list.SelectedItem()
	}
	if i, ok := item.(articleItem); ok {
		return i.article
	}
	return nil
}

func (a *App) setStatus(text string, kind StatusKind) {
	a.status = text
	a.statusKind = kind
}

func (a *App) clearStatus() {
	a.status = ""
	a.statusKind = StatusInfo
}

func (a *App) View() string {
	var content string

	switch a.view {
	case ViewFeed:
		content = a.feedView()
	case ViewReader:
		if a.loadingArticle {
			content = renderCentered(a.width, max(a.height-2, 1), a.spinner.View()+" "+renderMuted(MsgLoadingArticle))
		} else {
			content = a.viewport.View()
		}
	case ViewSearch:
		content = a.searchView()
	}

	return lipgloss.JoinVertical(lipgloss.Top, content, renderSeparator(a.width), a.getCustomStatusBar())
}

func (a *App) feedView() string {
	header := renderTabs(a.category, a.mode, a.width)
	if a.mode == feed.ModeFavorites {
		header = HeaderStyle.Render(fmt.Sprintf("★ Favorites (%d)", a.bookmarks.Len()))
	} else if n := a.bookmarks.Len(); n > 0 {
		header = lipgloss.JoinHorizontal(lipgloss.Top, header, BookmarkStyle.Render(fmt.Sprintf(" ★ %d", n)))
	}

	filterLine := ""
	if a.filterInput.Focused() || a.filterInput.Value() != "" {
		filterLine = a.filterInput.View()
	}

	state := a.ctrl.State()
	body := a.list.View()
	switch {
	case len(a.list.Items()) > 0:
	case a.mode == feed.ModeFavorites:
		body = renderCentered(a.width, a.listHeight(), renderMuted(MsgNoFavorites))
	case state.Loading:
		body = renderCentered(a.width, a.listHeight(), a.spinner.View()+" "+renderMuted(MsgLoading))
	case state.Err != nil:
		body = renderCentered(a.width, a.listHeight(), ErrorMessageStyle.Render(MsgError(state.Err)))
	default:
		body = renderCentered(a.width, a.listHeight(), renderMuted(MsgNoArticles))
	}

	return lipgloss.NewStyle().
		Height(max(a.height-2, 1)).
		MaxHeight(max(a.height-2, 1)).
		Render(lipgloss.JoinVertical(lipgloss.Top, header, filterLine, body))
}

func (a *App) searchView() string {
	header := renderHeader("› search favorites", "", a.width)
	if ds, ok := a.searcher.(search.DebugStatser); ok {
		if n, err := ds.DocCount(); err == nil {
			header = renderHeader("› search favorites", fmt.Sprintf("%d indexed", n), a.width)
		}
	}

	helpText := "Type to search • Tab/↓: results • Esc: back"
	switch {
	case !a.searchInput.Focused() && len(a.searchList.Items()) > 0:
		helpText = "↑↓: navigate • Enter: read • Tab: search box • Esc: back"
	case a.searchDebounce.Committed() != "" && len(a.searchList.Items()) == 0:
		helpText = MsgNoResults + " • Esc: back"
	case len(a.searchList.Items()) > 0:
		helpText = MsgResultsCount(len(a.searchList.Items())) + " • Tab/↓: results • Esc: back"
	}

	return lipgloss.NewStyle().
		Width(a.width).
		Height(max(a.height-2, 1)).
		MaxHeight(max(a.height-2, 1)).
		Render(lipgloss.JoinVertical(
			lipgloss.Top,
			header,
			renderInputFrame(a.searchInput.View(), a.searchInput.Focused(), a.searchInput.Width),
			renderHelp(helpText),
			a.searchList.View(),
		))
}

func (a *App) getCustomStatusBar() string {
	left := ""
	if a.status != "" {
		left = statusStyle(a.statusKind).Render(a.status)
	} else if a.view == ViewFeed && a.mode == feed.ModeFeed {
		state := a.ctrl.State()
		switch {
		case state.Loading && len(state.Items) > 0:
			left = a.spinner.View() + " " + renderMuted(MsgLoadingMore)
		case len(state.Items) > 0 && a.ctrl.Exhausted():
			left = renderMuted(MsgLoadedCount(len(state.Items), state.TotalResults) + " • " + MsgEndOfResults)
		case len(state.Items) > 0:
			left = renderMuted(MsgLoadedCount(len(state.Items), state.TotalResults))
		}
	}

	room := a.width - 2
	if left != "" {
		room -= lipgloss.Width(left) + 3
	}
	help := renderMuted(truncateEnd(strings.Join(a.keyHandler.GetHelpForCurrentView(), " • "), room))
	if left == "" {
		return StatusBarStyle.Render(help)
	}
	return StatusBarStyle.Render(left + renderMuted(" │ ") + help)
}

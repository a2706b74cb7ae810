package feed

import (
	"context"
	"time"

	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/metrics"
	"github.com/pders01/headlines/internal/storage"
)

// Session identifies one category visit. Every Reset or Suspend starts a new
// generation; results tagged with an older session are discarded.
type Session struct {
	Category   Category
	Generation uint64
}

// State is a snapshot of the feed. Cursor is the last merged page, so it is
// 0 until page 1 of the session merges. TotalResults is -1 until then.
type State struct {
	Category     Category
	Cursor       int
	TotalResults int
	Items        []*storage.Article
	Loading      bool
	Err          error
}

// Request is a page fetch issued by the controller. Its context is cancelled
// when the session it belongs to is replaced.
type Request struct {
	session Session
	page    int
	ctx     context.Context
}

// Session is the session the request was issued for.
func (r *Request) Session() Session { return r.session }

// Page is the 1-based page number requested.
func (r *Request) Page() int { return r.page }

// Context is cancelled once the request's session is replaced.
func (r *Request) Context() context.Context { return r.ctx }

// Result carries a finished fetch back to the controller.
type Result struct {
	Request *Request
	Page    *storage.Page
	Err     error
}

// ControllerOption configures a Controller at construction.
type ControllerOption func(*Controller)

// WithMetrics records fetch outcomes and stale responses in m.
func WithMetrics(m *metrics.Metrics) ControllerOption {
	return func(c *Controller) { c.metrics = m }
}

// WithLogger replaces the controller's default logger.
func WithLogger(l *debuglog.FieldLogger) ControllerOption {
	return func(c *Controller) { c.log = l }
}

// Controller owns the feed state. All methods except Fetch must be called
// from the same goroutine (the UI update loop); Fetch is safe to run
// elsewhere because it never touches state.
type Controller struct {
	client  Client
	metrics *metrics.Metrics
	log     *debuglog.FieldLogger

	state      State
	generation uint64
	active     bool
	seen       map[string]struct{}
	inflight   *Request
	cancel     context.CancelFunc
}

func NewController(client Client, opts ...ControllerOption) *Controller {
	c := &Controller{
		client: client,
		log:    debuglog.WithFields(map[string]interface{}{"component": "feed"}),
		state:  State{TotalResults: -1},
		seen:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Reset starts a new session for category and returns the request for its
// first page. Whatever was in flight is cancelled and its result will be
// ignored.
func (c *Controller) Reset(category Category) *Request {
	c.startSession(category)
	c.active = true
	c.log.Debugf("session %d started for %s", c.generation, category)
	return c.LoadPage(1)
}

// Suspend clears the feed without fetching. Used while favorites are shown.
func (c *Controller) Suspend() {
	c.startSession(c.state.Category)
	c.active = false
	c.log.Debugf("session %d suspended", c.generation)
}

func (c *Controller) startSession(category Category) {
	c.cancelInflight()
	c.generation++
	c.state = State{Category: category, TotalResults: -1}
	c.seen = make(map[string]struct{})
	c.metrics.SetItemsLoaded(0)
}

// LoadPage returns the request for page n, or nil when a fetch is already in
// flight, n is not positive, or the controller is suspended.
func (c *Controller) LoadPage(n int) *Request {
	if !c.active || c.inflight != nil || n < 1 {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	req := &Request{
		session: c.Session(),
		page:    n,
		ctx:     ctx,
	}
	c.inflight = req
	c.cancel = cancel
	c.state.Loading = true
	return req
}

// LoadNext requests the page after the cursor if there is one to load.
func (c *Controller) LoadNext() *Request {
	if !c.CanLoadNext() {
		return nil
	}
	return c.LoadPage(c.state.Cursor + 1)
}

// Retry repeats the page that last failed.
func (c *Controller) Retry() *Request {
	if c.state.Err == nil {
		return nil
	}
	return c.LoadPage(c.state.Cursor + 1)
}

func (c *Controller) CanLoadNext() bool {
	return c.active &&
		!c.state.Loading &&
		c.state.TotalResults >= 0 &&
		len(c.state.Items) < c.state.TotalResults
}

// Exhausted reports whether every known result has been loaded.
func (c *Controller) Exhausted() bool {
	return c.state.TotalResults >= 0 && len(c.state.Items) >= c.state.TotalResults
}

// Fetch performs the network call for req.
func (c *Controller) Fetch(req *Request) Result {
	start := time.Now()
	page, err := c.client.FetchPage(req.ctx, req.session.Category, req.page)
	c.metrics.ObserveFetch(string(req.session.Category), time.Since(start), err)
	if err != nil {
		return Result{Request: req, Err: asNetworkError(err)}
	}
	return Result{Request: req, Page: page}
}

// Apply merges res into the state. It returns false, leaving the state
// untouched, when res does not answer the request currently in flight.
func (c *Controller) Apply(res Result) bool {
	if res.Request == nil || res.Request != c.inflight || res.Request.session != c.Session() {
		c.metrics.StaleResponse()
		if res.Request != nil {
			c.log.Debugf("discarding stale page %d of %s (generation %d, now %d)",
				res.Request.page, res.Request.session.Category, res.Request.session.Generation, c.generation)
		}
		return false
	}

	c.inflight = nil
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.state.Loading = false

	if res.Err != nil {
		c.state.Err = res.Err
		c.log.Warnf("page %d of %s failed: %v", res.Request.page, c.state.Category, res.Err)
		return true
	}

	c.merge(res.Request.page, res.Page)
	return true
}

func (c *Controller) merge(pageNum int, page *storage.Page) {
	if page == nil {
		page = &storage.Page{}
	}

	if pageNum == 1 {
		c.state.Items = nil
		c.seen = make(map[string]struct{})
	}

	added := 0
	for _, a := range page.Articles {
		if a == nil || a.ID() == "" {
			continue
		}
		if _, dup := c.seen[a.ID()]; dup {
			continue
		}
		c.seen[a.ID()] = struct{}{}
		c.state.Items = append(c.state.Items, a)
		added++
	}

	total := page.TotalResults
	if total < len(c.state.Items) || added == 0 {
		// The source under-reported or ran dry; nothing more can be loaded.
		total = len(c.state.Items)
	}

	c.state.TotalResults = total
	c.state.Cursor = pageNum
	c.state.Err = nil
	c.metrics.SetItemsLoaded(len(c.state.Items))
	c.log.Debugf("merged page %d of %s: +%d items, %d/%d", pageNum, c.state.Category, added, len(c.state.Items), total)
}

// State returns a snapshot whose Items slice may be retained by the caller.
func (c *Controller) State() State {
	s := c.state
	s.Items = append([]*storage.Article(nil), c.state.Items...)
	return s
}

func (c *Controller) Session() Session {
	return Session{Category: c.state.Category, Generation: c.generation}
}

// Active reports whether a feed session is running (not suspended).
func (c *Controller) Active() bool { return c.active }

// Close cancels any in-flight request and suspends the controller.
func (c *Controller) Close() {
	c.cancelInflight()
	c.active = false
}

func (c *Controller) cancelInflight() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.inflight = nil
	c.state.Loading = false
}

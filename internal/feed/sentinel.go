package feed

import (
	"sort"
	"sync"
)

// VisibilitySensor reports when the end-of-list marker comes into view.
// The returned unsubscribe func may be called any number of times.
type VisibilitySensor interface {
	Subscribe(onVisible func()) (unsubscribe func())
}

// RowSensor is the terminal stand-in for a viewport intersection observer:
// the marker counts as visible once the cursor is within margin rows of the
// last item. Subscribers are notified on the hidden to visible edge only.
type RowSensor struct {
	margin  int
	visible bool
	nextID  int
	subs    map[int]func()
}

func NewRowSensor(margin int) *RowSensor {
	return &RowSensor{
		margin: max(margin, 0),
		subs:   make(map[int]func()),
	}
}

func (s *RowSensor) Subscribe(onVisible func()) func() {
	id := s.nextID
	s.nextID++
	s.subs[id] = onVisible

	var once sync.Once
	return func() {
		once.Do(func() { delete(s.subs, id) })
	}
}

// Observe records the cursor position within a list of length rows.
func (s *RowSensor) Observe(index, length int) {
	visible := index >= length-1-s.margin
	rising := visible && !s.visible
	s.visible = visible
	if !rising {
		return
	}

	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if fn, ok := s.subs[id]; ok {
			fn()
		}
	}
}

// Rearm marks the marker hidden so the next Observe near the end fires
// again. Called after new rows have been appended.
func (s *RowSensor) Rearm() {
	s.visible = false
}

func (s *RowSensor) Subscribers() int {
	return len(s.subs)
}

// Sentinel turns sensor notifications into LoadNext requests while the feed
// is showing. dispatch receives each issued request for execution.
type Sentinel struct {
	ctrl        *Controller
	sensor      VisibilitySensor
	dispatch    func(*Request)
	mode        ViewMode
	unsubscribe func()
	closed      bool
}

func NewSentinel(ctrl *Controller, sensor VisibilitySensor, dispatch func(*Request)) *Sentinel {
	s := &Sentinel{
		ctrl:     ctrl,
		sensor:   sensor,
		dispatch: dispatch,
		mode:     ModeFeed,
	}
	s.attach()
	return s
}

// SetMode attaches to the sensor in feed mode and detaches in favorites mode.
func (s *Sentinel) SetMode(mode ViewMode) {
	s.mode = mode
	if mode == ModeFeed {
		s.attach()
	} else {
		s.detach()
	}
}

// Dispose detaches permanently.
func (s *Sentinel) Dispose() {
	s.detach()
	s.closed = true
}

func (s *Sentinel) Active() bool {
	return s.unsubscribe != nil
}

func (s *Sentinel) attach() {
	if s.closed || s.unsubscribe != nil {
		return
	}
	s.unsubscribe = s.sensor.Subscribe(s.onVisible)
}

func (s *Sentinel) detach() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

func (s *Sentinel) onVisible() {
	if s.mode != ModeFeed || !s.ctrl.CanLoadNext() {
		return
	}
	if req := s.ctrl.LoadNext(); req != nil {
		s.dispatch(req)
	}
}

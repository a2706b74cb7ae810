// Package debounce turns a stream of keystrokes into a committed query that
// only changes once the input has been stable for a quiet period.
package debounce

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// FireMsg is delivered when a quiet period elapses. Messages from superseded
// keystrokes carry an old Seq and are ignored by Fire.
type FireMsg struct {
	ID  int
	Seq int
}

// Debouncer holds the raw text as typed and the last committed value. It is
// owned by the bubbletea update loop and is not safe for concurrent use.
type Debouncer struct {
	id        int
	delay     time.Duration
	seq       int
	raw       string
	committed string
	pending   bool
}

// New returns a debouncer whose fires are tagged with id. Debouncers that
// share an update loop need distinct ids.
func New(id int, delay time.Duration) *Debouncer {
	return &Debouncer{
		id:    id,
		delay: delay,
	}
}

func (d *Debouncer) ID() int { return d.id }

// Input records new raw text and schedules a fire after the quiet period.
// Any previously scheduled fire becomes stale.
func (d *Debouncer) Input(text string) tea.Cmd {
	d.raw = text
	d.seq++
	d.pending = true

	id, seq := d.id, d.seq
	return tea.Tick(d.delay, func(time.Time) tea.Msg {
		return FireMsg{ID: id, Seq: seq}
	})
}

// Owns reports whether msg was scheduled by this debouncer.
func (d *Debouncer) Owns(msg FireMsg) bool {
	return msg.ID == d.id
}

// Fire commits the trimmed raw text if msg is the latest scheduled fire.
// changed is false for stale fires and for commits equal to the previous one.
func (d *Debouncer) Fire(msg FireMsg) (committed string, changed bool) {
	if msg.ID != d.id || msg.Seq != d.seq || !d.pending {
		return d.committed, false
	}
	return d.commit()
}

// Flush commits immediately, cancelling any scheduled fire.
func (d *Debouncer) Flush() (committed string, changed bool) {
	d.seq++
	return d.commit()
}

// Stop drops any scheduled fire without committing. Used when the input
// that owns the debouncer goes away.
func (d *Debouncer) Stop() {
	d.seq++
	d.pending = false
}

// Reset clears both raw and committed text.
func (d *Debouncer) Reset() {
	d.Stop()
	d.raw = ""
	d.committed = ""
}

func (d *Debouncer) Committed() string { return d.committed }

func (d *Debouncer) Raw() string { return d.raw }

func (d *Debouncer) Pending() bool { return d.pending }

func (d *Debouncer) commit() (string, bool) {
	d.pending = false
	next := strings.TrimSpace(d.raw)
	if next == d.committed {
		return d.committed, false
	}
	d.committed = next
	return next, true
}

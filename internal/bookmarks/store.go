// Package bookmarks keeps the user's saved articles: newest first, one entry
// per article id, persisted as a single JSON array.
package bookmarks

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/storage"
)

// Key is the storage key holding the serialized collection.
const Key = storage.BookmarksKey

var ErrNoID = errors.New("article has no url")

// KV is the persistence the store needs. *storage.Store satisfies it.
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
}

// Listener observes successful changes, for example to keep a search index
// in step with the collection.
type Listener interface {
	OnAdded(a *storage.Article)
	OnRemoved(id string)
}

type Option func(*Store)

// WithOnToggle registers a hook called after each successful toggle.
func WithOnToggle(fn func(added bool)) Option {
	return func(s *Store) { s.onToggle = fn }
}

type Store struct {
	kv        KV
	items     []*storage.Article
	index     map[string]struct{}
	listeners []Listener
	onToggle  func(added bool)
}

// Load reads the persisted collection. A missing key yields an empty store;
// unreadable or malformed data is logged and also yields an empty store.
func Load(kv KV, opts ...Option) *Store {
	s := &Store{
		kv:    kv,
		index: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	raw, err := kv.Get(Key)
	if err != nil {
		debuglog.Warnf("loading bookmarks: %v", err)
		return s
	}
	if len(raw) == 0 {
		return s
	}

	var stored []*storage.Article
	if err := json.Unmarshal(raw, &stored); err != nil {
		perr := &storage.PersistenceError{Op: "decode", Key: Key, Err: err}
		debuglog.Warnf("ignoring saved bookmarks: %v", perr)
		return s
	}

	for _, a := range stored {
		if a == nil || a.ID() == "" {
			continue
		}
		if _, dup := s.index[a.ID()]; dup {
			continue
		}
		s.index[a.ID()] = struct{}{}
		s.items = append(s.items, a)
	}
	return s
}

// Toggle removes a when it is saved and prepends it otherwise, then writes
// the whole collection. If the write fails the collection is left as it was.
func (s *Store) Toggle(a *storage.Article) ([]*storage.Article, error) {
	if a == nil || a.ID() == "" {
		return s.Items(), ErrNoID
	}

	id := a.ID()
	_, saved := s.index[id]

	var next []*storage.Article
	if saved {
		next = lo.Reject(s.items, func(b *storage.Article, _ int) bool { return b.ID() == id })
	} else {
		next = make([]*storage.Article, 0, len(s.items)+1)
		next = append(next, a)
		next = append(next, s.items...)
	}

	data, err := json.Marshal(next)
	if err != nil {
		return s.Items(), &storage.PersistenceError{Op: "encode", Key: Key, Err: err}
	}
	if err := s.kv.Set(Key, data); err != nil {
		var perr *storage.PersistenceError
		if !errors.As(err, &perr) {
			err = &storage.PersistenceError{Op: "write", Key: Key, Err: err}
		}
		return s.Items(), fmt.Errorf("toggling bookmark: %w", err)
	}

	s.items = next
	if saved {
		delete(s.index, id)
	} else {
		s.index[id] = struct{}{}
	}

	for _, l := range s.listeners {
		if saved {
			l.OnRemoved(id)
		} else {
			l.OnAdded(a)
		}
	}
	if s.onToggle != nil {
		s.onToggle(!saved)
	}

	return s.Items(), nil
}

func (s *Store) IsBookmarked(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Items returns a copy of the collection, newest first.
func (s *Store) Items() []*storage.Article {
	return append([]*storage.Article{}, s.items...)
}

func (s *Store) Len() int { return len(s.items) }

// AddListener registers l and replays the current collection to it, oldest
// first, so it starts in step.
func (s *Store) AddListener(l Listener) {
	s.listeners = append(s.listeners, l)
	for i := len(s.items) - 1; i >= 0; i-- {
		l.OnAdded(s.items[i])
	}
}

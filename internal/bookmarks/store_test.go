package bookmarks

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/headlines/internal/storage"
)

// memKV counts writes and can be told to fail them.
type memKV struct {
	data    map[string][]byte
	sets    int
	failSet error
	failGet error
}

func newMemKV() *memKV {
	return &memKV{data: map[string][]byte{}}
}

func (m *memKV) Get(key string) ([]byte, error) {
	if m.failGet != nil {
		return nil, m.failGet
	}
	return m.data[key], nil
}

func (m *memKV) Set(key string, value []byte) error {
	if m.failSet != nil {
		return m.failSet
	}
	m.sets++
	m.data[key] = append([]byte(nil), value...)
	return nil
}

type recorder struct {
	added   []string
	removed []string
}

func (r *recorder) OnAdded(a *storage.Article) { r.added = append(r.added, a.ID()) }
func (r *recorder) OnRemoved(id string)        { r.removed = append(r.removed, id) }

func ids(items []*storage.Article) []string {
	out := make([]string, 0, len(items))
	for _, a := range items {
		out = append(out, a.ID())
	}
	return out
}

func TestToggle_TwiceRestoresAndWritesTwice(t *testing.T) {
	kv := newMemKV()
	s := Load(kv)

	before := ids(s.Items())
	a := &storage.Article{URL: "http://x"}

	items, err := s.Toggle(a)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://x"}, ids(items))
	assert.True(t, s.IsBookmarked("http://x"))

	items, err = s.Toggle(a)
	require.NoError(t, err)
	assert.Equal(t, before, ids(items))
	assert.False(t, s.IsBookmarked("http://x"))
	assert.Equal(t, 2, kv.sets)
}

func TestToggle_PrependsNewestFirst(t *testing.T) {
	s := Load(newMemKV())

	for _, u := range []string{"a", "b", "c"} {
		_, err := s.Toggle(&storage.Article{URL: u})
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"c", "b", "a"}, ids(s.Items()))

	_, err := s.Toggle(&storage.Article{URL: "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, ids(s.Items()))
	assert.Equal(t, 2, s.Len())
}

func TestToggle_RoundTripAnySequenceKeepsUniqueIDs(t *testing.T) {
	s := Load(newMemKV())
	seq := []string{"a", "b", "a", "c", "b", "b", "a", "c", "d"}
	for _, u := range seq {
		_, err := s.Toggle(&storage.Article{URL: u})
		require.NoError(t, err)
	}

	seen := map[string]bool{}
	for _, id := range ids(s.Items()) {
		assert.False(t, seen[id], "duplicate %s", id)
		seen[id] = true
	}
	assert.Equal(t, []string{"d", "b", "a"}, ids(s.Items()))
}

func TestToggle_RejectsArticleWithoutURL(t *testing.T) {
	kv := newMemKV()
	s := Load(kv)

	_, err := s.Toggle(&storage.Article{Title: "no link"})
	assert.ErrorIs(t, err, ErrNoID)
	_, err = s.Toggle(nil)
	assert.ErrorIs(t, err, ErrNoID)
	assert.Equal(t, 0, kv.sets)
}

func TestToggle_WriteFailureLeavesMemoryUnchanged(t *testing.T) {
	kv := newMemKV()
	s := Load(kv)
	_, err := s.Toggle(&storage.Article{URL: "keep"})
	require.NoError(t, err)

	rec := &recorder{}
	s.AddListener(rec)

	kv.failSet = errors.New("disk full")
	items, err := s.Toggle(&storage.Article{URL: "new"})
	require.Error(t, err)

	var perr *storage.PersistenceError
	assert.True(t, errors.As(err, &perr))
	assert.Equal(t, []string{"keep"}, ids(items))
	assert.False(t, s.IsBookmarked("new"))
	assert.Equal(t, []string{"keep"}, rec.added, "listeners only hear about persisted changes")

	_, err = s.Toggle(&storage.Article{URL: "keep"})
	require.Error(t, err)
	assert.True(t, s.IsBookmarked("keep"))
}

func TestLoad_MissingAndMalformed(t *testing.T) {
	kv := newMemKV()
	assert.Equal(t, 0, Load(kv).Len())

	kv.data[Key] = []byte("{definitely not json")
	s := Load(kv)
	assert.Equal(t, 0, s.Len())
	assert.NotNil(t, s.Items())

	kv.failGet = errors.New("io error")
	assert.Equal(t, 0, Load(kv).Len())
}

func TestLoad_SkipsInvalidAndDuplicateEntries(t *testing.T) {
	kv := newMemKV()
	kv.data[Key] = []byte(`[{"url":"a","title":"A"},{"title":"no url"},null,{"url":"a","title":"dup"},{"url":"b"}]`)

	s := Load(kv)
	assert.Equal(t, []string{"a", "b"}, ids(s.Items()))
	assert.Equal(t, "A", s.Items()[0].Title)
}

func TestListener_ReplayAndUpdates(t *testing.T) {
	kv := newMemKV()
	kv.data[Key] = []byte(`[{"url":"new"},{"url":"old"}]`)
	s := Load(kv)

	rec := &recorder{}
	s.AddListener(rec)
	assert.Equal(t, []string{"old", "new"}, rec.added)

	_, err := s.Toggle(&storage.Article{URL: "old"})
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, rec.removed)
}

func TestWithOnToggle(t *testing.T) {
	var got []bool
	s := Load(newMemKV(), WithOnToggle(func(added bool) { got = append(got, added) }))

	a := &storage.Article{URL: "x"}
	_, _ = s.Toggle(a)
	_, _ = s.Toggle(a)
	assert.Equal(t, []bool{true, false}, got)
}

func TestItemsIsACopy(t *testing.T) {
	s := Load(newMemKV())
	_, _ = s.Toggle(&storage.Article{URL: "x"})

	items := s.Items()
	items[0] = nil
	assert.NotNil(t, s.Items()[0])
}

func TestPersistsThroughBoltStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")

	db, err := storage.NewStore(path)
	require.NoError(t, err)
	s := Load(db)
	_, err = s.Toggle(&storage.Article{URL: "https://apnews.com/1", Title: "One"})
	require.NoError(t, err)
	_, err = s.Toggle(&storage.Article{URL: "https://apnews.com/2", Title: "Two"})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = storage.NewStore(path)
	require.NoError(t, err)
	defer db.Close()

	reloaded := Load(db)
	assert.Equal(t, []string{"https://apnews.com/2", "https://apnews.com/1"}, ids(reloaded.Items()))
	assert.Equal(t, "Two", reloaded.Items()[0].Title)
}

package search

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/storage"
)

// Index is a full-text index over saved articles. It is kept in step with
// the bookmark collection by registering it as a bookmarks listener.
type Index struct {
	idx bleve.Index

	mu   sync.RWMutex
	docs map[string]*storage.Article
}

// Open creates an in-memory index when path is empty, otherwise opens or
// creates the index at path. Existing documents are dropped; the bookmark
// store replays its collection when the index is attached.
func Open(path string) (*Index, error) {
	var (
		idx bleve.Index
		err error
	)

	if path == "" {
		idx, err = bleve.NewMemOnly(buildIndexMapping())
	} else {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			return nil, fmt.Errorf("creating index directory: %w", mkErr)
		}
		idx, err = bleve.Open(path)
		if err != nil {
			idx, err = bleve.New(path, buildIndexMapping())
		}
	}
	if err != nil {
		return nil, fmt.Errorf("opening search index: %w", err)
	}

	ix := &Index{idx: idx, docs: make(map[string]*storage.Article)}
	if err := ix.clear(); err != nil {
		_ = idx.Close()
		return nil, err
	}
	return ix, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = standard.Name
	title.IncludeTermVectors = true

	desc := bleve.NewTextFieldMapping()
	desc.Analyzer = standard.Name
	desc.Store = false

	content := bleve.NewTextFieldMapping()
	content.Analyzer = standard.Name
	content.Store = false

	source := bleve.NewTextFieldMapping()
	source.Analyzer = standard.Name
	source.Store = false

	category := bleve.NewKeywordFieldMapping()

	dm.AddFieldMappingsAt("title", title)
	dm.AddFieldMappingsAt("description", desc)
	dm.AddFieldMappingsAt("content", content)
	dm.AddFieldMappingsAt("source_name", source)
	dm.AddFieldMappingsAt("category", category)

	im.DefaultMapping = dm
	return im
}

func document(a *storage.Article) map[string]any {
	return map[string]any{
		"title":       a.Title,
		"description": a.Description,
		"content":     a.Content,
		"source_name": a.SourceName,
		"category":    a.Category,
	}
}

// OnAdded indexes a newly saved article.
func (ix *Index) OnAdded(a *storage.Article) {
	if err := ix.idx.Index(a.ID(), document(a)); err != nil {
		debuglog.Warnf("indexing %s: %v", a.ID(), err)
		return
	}
	ix.mu.Lock()
	ix.docs[a.ID()] = a
	ix.mu.Unlock()
}

// OnRemoved drops an unsaved article from the index.
func (ix *Index) OnRemoved(id string) {
	ix.mu.Lock()
	delete(ix.docs, id)
	ix.mu.Unlock()
	if err := ix.idx.Delete(id); err != nil {
		debuglog.Warnf("removing %s from index: %v", id, err)
	}
}

// Search ranks saved articles against query. Title hits weigh most, then
// description, content and source. Queries shorter than two characters
// return nothing.
func (ix *Index) Search(query string, limit int) ([]*Result, error) {
	tokens := tokenize(query)
	if len(strings.TrimSpace(query)) < 2 || len(tokens) == 0 {
		return []*Result{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	fields := []struct {
		name         string
		match, prefx float64
	}{
		{"title", 4.0, 3.5},
		{"description", 2.0, 1.8},
		{"content", 1.0, 0.8},
		{"source_name", 0.5, 0.3},
	}

	var qs []bleveQuery.Query
	for _, tok := range tokens {
		for _, f := range fields {
			mq := bleve.NewMatchQuery(tok)
			mq.SetField(f.name)
			mq.SetBoost(f.match)
			qs = append(qs, mq)

			pq := bleve.NewPrefixQuery(tok)
			pq.SetField(f.name)
			pq.SetBoost(f.prefx)
			qs = append(qs, pq)
		}
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), limit, 0, false)
	res, err := ix.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("searching favorites: %w", err)
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make([]*Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		a, ok := ix.docs[h.ID]
		if !ok {
			continue
		}
		out = append(out, &Result{Article: a, Score: h.Score})
	}
	return out, nil
}

// DocCount reports total documents in the index.
func (ix *Index) DocCount() (int, error) {
	n, err := ix.idx.DocCount()
	return int(n), err
}

func (ix *Index) Close() error {
	return ix.idx.Close()
}

func (ix *Index) clear() error {
	n, err := ix.idx.DocCount()
	if err != nil || n == 0 {
		return err
	}

	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), int(n), 0, false)
	res, err := ix.idx.Search(req)
	if err != nil {
		return fmt.Errorf("clearing search index: %w", err)
	}
	batch := ix.idx.NewBatch()
	for _, h := range res.Hits {
		batch.Delete(h.ID)
	}
	return ix.idx.Batch(batch)
}

// tokenize lowercases query and splits it on anything that is not a letter
// or digit.
func tokenize(query string) []string {
	return strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

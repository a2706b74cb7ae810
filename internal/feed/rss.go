package feed

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/mmcdole/gofeed"
	"github.com/pelletier/go-toml/v2"

	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/storage"
	"github.com/pders01/headlines/internal/validation"
)

//go:embed sources.toml
var sourcesTOML []byte

type sourcesFile struct {
	Feeds map[string]string `toml:"feeds"`
}

// DefaultRSSFeeds returns the built-in category feed table.
func DefaultRSSFeeds() (map[Category]string, error) {
	var f sourcesFile
	if err := toml.Unmarshal(sourcesTOML, &f); err != nil {
		return nil, fmt.Errorf("parsing sources.toml: %w", err)
	}
	out := make(map[Category]string, len(f.Feeds))
	for name, url := range f.Feeds {
		c, err := ParseCategory(name)
		if err != nil {
			return nil, fmt.Errorf("sources.toml: %w", err)
		}
		out[c] = url
	}
	return out, nil
}

type cachedFeed struct {
	articles []*storage.Article
	fetched  time.Time
}

// RSSSource serves pages out of one RSS or Atom feed per category. The whole
// feed is fetched once and sliced into pages; it is refetched after cacheTTL.
type RSSSource struct {
	client   *resty.Client
	parser   *gofeed.Parser
	feeds    map[Category]string
	pageSize int
	cacheTTL time.Duration
	now      func() time.Time

	mu    sync.Mutex
	cache map[Category]cachedFeed
}

func NewRSSSource(cfg *config.Config) (*RSSSource, error) {
	feeds, err := DefaultRSSFeeds()
	if err != nil {
		return nil, err
	}

	validator := validation.NewPermissiveURLValidator()
	for name, raw := range cfg.Source.RSSFeeds {
		c, err := ParseCategory(name)
		if err != nil {
			return nil, fmt.Errorf("source.rss_feeds: %w", err)
		}
		normalized, err := validator.ValidateAndNormalize(raw)
		if err != nil {
			return nil, fmt.Errorf("source.rss_feeds.%s: %w", name, err)
		}
		feeds[c] = normalized
	}

	client := resty.New().
		SetTimeout(cfg.Source.HTTPTimeout).
		SetHeader("User-Agent", cfg.Source.UserAgent).
		SetHeader("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml")

	return &RSSSource{
		client:   client,
		parser:   gofeed.NewParser(),
		feeds:    feeds,
		pageSize: cfg.Source.PageSize,
		cacheTTL: cfg.Source.CacheTTL,
		now:      time.Now,
		cache:    make(map[Category]cachedFeed),
	}, nil
}

func (s *RSSSource) FetchPage(ctx context.Context, category Category, page int) (*storage.Page, error) {
	if page < 1 {
		return nil, &NetworkError{Message: fmt.Sprintf("invalid page %d", page)}
	}

	articles, err := s.articles(ctx, category)
	if err != nil {
		return nil, err
	}

	start := (page - 1) * s.pageSize
	end := min(start+s.pageSize, len(articles))
	result := &storage.Page{TotalResults: len(articles)}
	if start < len(articles) {
		result.Articles = append([]*storage.Article(nil), articles[start:end]...)
	}
	return result, nil
}

func (s *RSSSource) articles(ctx context.Context, category Category) ([]*storage.Article, error) {
	s.mu.Lock()
	cached, ok := s.cache[category]
	s.mu.Unlock()
	if ok && s.now().Sub(cached.fetched) < s.cacheTTL {
		return cached.articles, nil
	}

	url, ok := s.feeds[category]
	if !ok {
		return nil, &NetworkError{Message: fmt.Sprintf("no feed configured for %s", category)}
	}

	resp, err := s.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	if resp.IsError() {
		return nil, &NetworkError{Status: resp.StatusCode()}
	}

	parsed, err := s.parser.Parse(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, &NetworkError{Status: resp.StatusCode(), Message: "malformed feed", Err: err}
	}

	articles := convertItems(parsed, category)

	s.mu.Lock()
	s.cache[category] = cachedFeed{articles: articles, fetched: s.now()}
	s.mu.Unlock()

	return articles, nil
}

func convertItems(f *gofeed.Feed, category Category) []*storage.Article {
	articles := make([]*storage.Article, 0, len(f.Items))
	seen := make(map[string]struct{}, len(f.Items))
	for _, item := range f.Items {
		if item.Link == "" {
			continue
		}
		if _, dup := seen[item.Link]; dup {
			continue
		}
		seen[item.Link] = struct{}{}

		description := plainText(item.Description)
		article := &storage.Article{
			URL:         item.Link,
			Title:       strings.TrimSpace(item.Title),
			Description: description,
			Content:     item.Content,
			ImageURL:    imageOf(item),
			SourceName:  f.Title,
			Category:    string(category),
		}
		if article.Content == "" {
			article.Content = description
		}
		if item.PublishedParsed != nil {
			article.PublishedAt = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			article.PublishedAt = *item.UpdatedParsed
		}
		articles = append(articles, article)
	}
	return articles
}

func imageOf(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc.URL != "" && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	if thumbs, ok := item.Extensions["media"]["thumbnail"]; ok {
		for _, t := range thumbs {
			if u := t.Attrs["url"]; u != "" {
				return u
			}
		}
	}
	return ""
}

// plainText strips markup from a feed summary and collapses whitespace.
func plainText(html string) string {
	if !strings.ContainsAny(html, "<&") {
		return strings.Join(strings.Fields(html), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.Join(strings.Fields(html), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

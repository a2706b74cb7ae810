package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"

	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/storage"
)

// removedMarker is what the API puts in place of withdrawn articles.
const removedMarker = "[Removed]"

// Client fetches one page of headlines for a category. Implementations must
// honour ctx cancellation and report failures as *NetworkError.
type Client interface {
	FetchPage(ctx context.Context, category Category, page int) (*storage.Page, error)
}

// Fetcher is the NewsAPI top-headlines client.
type Fetcher struct {
	client     *resty.Client
	country    string
	pageSize   int
	maxRetries int
	retryWait  time.Duration
}

type apiArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
	Content     string `json:"content"`
}

type apiResponse struct {
	Status       string       `json:"status"`
	Code         string       `json:"code"`
	Message      string       `json:"message"`
	TotalResults int          `json:"totalResults"`
	Articles     []apiArticle `json:"articles"`
}

func NewFetcher(cfg *config.Config) *Fetcher {
	c := resty.New().
		SetBaseURL(strings.TrimRight(cfg.Source.BaseURL, "/")).
		SetTimeout(cfg.Source.HTTPTimeout).
		SetHeader("User-Agent", cfg.Source.UserAgent).
		SetHeader("Accept", "application/json").
		SetHeader("X-Api-Key", cfg.Source.APIKey)

	return &Fetcher{
		client:     c,
		country:    cfg.Source.Country,
		pageSize:   cfg.Source.PageSize,
		maxRetries: cfg.Source.MaxRetries,
		retryWait:  cfg.Source.RetryWait,
	}
}

func (f *Fetcher) PageSize() int { return f.pageSize }

// FetchPage requests one page of top headlines, retrying transient failures
// with exponential backoff until ctx is done.
func (f *Fetcher) FetchPage(ctx context.Context, category Category, page int) (*storage.Page, error) {
	if page < 1 {
		return nil, &NetworkError{Message: fmt.Sprintf("invalid page %d", page)}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.retryWait
	b.MaxInterval = 5 * time.Second
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(max(f.maxRetries, 0))), ctx)

	attempt := 0
	result, err := backoff.RetryWithData(func() (*storage.Page, error) {
		attempt++
		p, err := f.fetchOnce(ctx, category, page)
		if err == nil {
			return p, nil
		}
		if ctx.Err() != nil {
			return nil, backoff.Permanent(&NetworkError{Err: ctx.Err()})
		}
		if ne := asNetworkError(err); !ne.IsRetryable() {
			return nil, backoff.Permanent(ne)
		}
		debuglog.WithFields(map[string]interface{}{
			"category": category,
			"page":     page,
			"attempt":  attempt,
		}).Warnf("retrying fetch: %v", err)
		return nil, err
	}, policy)
	if err != nil {
		return nil, asNetworkError(err)
	}
	return result, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, category Category, page int) (*storage.Page, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"country":  f.country,
			"category": string(category),
			"pageSize": strconv.Itoa(f.pageSize),
			"page":     strconv.Itoa(page),
		}).
		Get("/top-headlines")
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	var body apiResponse
	decodeErr := json.Unmarshal(resp.Body(), &body)

	if resp.IsError() {
		msg := ""
		if decodeErr == nil {
			msg = body.Message
		}
		return nil, &NetworkError{Status: resp.StatusCode(), Message: msg}
	}
	if decodeErr != nil {
		return nil, &NetworkError{Status: resp.StatusCode(), Message: "malformed response", Err: decodeErr}
	}
	if body.Status == "error" {
		return nil, &NetworkError{Status: resp.StatusCode(), Message: body.Message}
	}

	return &storage.Page{
		Articles:     convertArticles(body.Articles, category),
		TotalResults: body.TotalResults,
	}, nil
}

func convertArticles(in []apiArticle, category Category) []*storage.Article {
	out := make([]*storage.Article, 0, len(in))
	for _, a := range in {
		if a.URL == "" || a.Title == removedMarker {
			continue
		}
		article := &storage.Article{
			URL:         a.URL,
			Title:       a.Title,
			Description: a.Description,
			Content:     a.Content,
			ImageURL:    a.URLToImage,
			SourceName:  a.Source.Name,
			Category:    string(category),
		}
		if t, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
			article.PublishedAt = t
		}
		out = append(out, article)
	}
	return out
}

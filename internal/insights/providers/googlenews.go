package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed/rss"
	"github.com/sony/gobreaker"

	"github.com/i474232898/country-insights/internal/insights"
)

const DefaultRSSBaseURL = "https://news.google.com/rss"

// GoogleNewsRSS implements insights.NewsProvider on top of the Google News
// RSS search feed. The feed is a single page, so NextCursor is always nil.
type GoogleNewsRSS struct {
	name     string
	baseURL  string
	language string
	httpCfg  HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker
}

func NewGoogleNewsRSS(client *http.Client, baseURL, language string, backoff BackoffConfig) *GoogleNewsRSS {
	if baseURL == "" {
		baseURL = DefaultRSSBaseURL
	}
	if language == "" {
		language = "en"
	}
	return &GoogleNewsRSS{
		name:     "googlenews",
		baseURL:  strings.TrimRight(baseURL, "/"),
		language: language,
		httpCfg:  newHTTPConfig(client, backoff),
		circuit:  newCircuitBreaker("googlenews"),
	}
}

func (p *GoogleNewsRSS) Name() string {
	return p.name
}

// FetchPage returns every item of the search feed. A non-empty cursor was
// never issued by this provider and is rejected.
func (p *GoogleNewsRSS) FetchPage(ctx context.Context, q insights.NewsQuery) (insights.NewsPage, error) {
	if q.Cursor != "" {
		return insights.NewsPage{}, insights.ErrInvalidCursor
	}

	feed, err := p.search(ctx, q.Term, q.Country)
	if err != nil {
		return insights.NewsPage{}, upstreamError(p.name, err)
	}

	page := insights.NewsPage{Articles: make([]insights.NewsArticle, 0, len(feed.Items))}
	for _, item := range feed.Items {
		page.Articles = append(page.Articles, toArticle(item))
	}
	page.TotalResults = len(page.Articles)
	return page, nil
}

// Probe fetches a small search feed.
func (p *GoogleNewsRSS) Probe(ctx context.Context) error {
	if _, err := p.search(ctx, "weather", ""); err != nil {
		return upstreamError(p.name, err)
	}
	return nil
}

func (p *GoogleNewsRSS) search(ctx context.Context, term, country string) (*rss.Feed, error) {
	region := strings.ToUpper(country)
	if region == "" {
		region = "US"
	}

	values := url.Values{}
	values.Set("q", term)
	values.Set("hl", p.language)
	values.Set("gl", region)
	values.Set("ceid", region+":"+p.language)
	u := fmt.Sprintf("%s/search?%s", p.baseURL, values.Encode())

	var feed *rss.Feed
	accept := "application/rss+xml, application/xml;q=0.9, text/xml;q=0.8"
	err := fetch(ctx, p.name, p.httpCfg, p.circuit, newGetRequestAccepting(u, accept), func(body io.Reader) error {
		parser := &rss.Parser{}
		f, err := parser.Parse(body)
		if err != nil {
			return err
		}
		feed = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return feed, nil
}

func toArticle(item *rss.Item) insights.NewsArticle {
	a := insights.NewsArticle{
		ID:          item.Link,
		Title:       strings.TrimSpace(item.Title),
		Link:        strings.TrimSpace(item.Link),
		Description: item.Description,
		PublishedAt: item.PubDate,
	}
	if item.GUID != nil && item.GUID.Value != "" {
		a.ID = item.GUID.Value
	}
	if item.PubDateParsed != nil {
		a.PublishedAt = item.PubDateParsed.UTC().Format(time.RFC3339)
	}
	if item.Enclosure != nil && strings.HasPrefix(item.Enclosure.Type, "image/") {
		a.ImageURL = item.Enclosure.URL
	}
	if item.Source != nil {
		a.SourceName = strings.TrimSpace(item.Source.Title)
		a.SourceID = sourceHost(item.Source.URL)
		// Google News titles carry a " - Publisher" suffix.
		if a.SourceName != "" {
			a.Title = strings.TrimSuffix(a.Title, " - "+a.SourceName)
		}
	}
	return a
}

func sourceHost(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/country-insights/internal/insights"
)

const DefaultNewsBaseURL = "https://newsdata.io/api/1"

var errNoAPIKey = errors.New("news api key is not configured")

// NewsData implements insights.NewsProvider for NewsData.io.
type NewsData struct {
	name     string
	baseURL  string
	apiKey   func() string
	language string
	httpCfg  HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker
}

// NewNewsData creates the provider. apiKey is consulted on every call so the
// secret can rotate without a restart.
func NewNewsData(client *http.Client, baseURL string, apiKey func() string, language string, backoff BackoffConfig) *NewsData {
	if baseURL == "" {
		baseURL = DefaultNewsBaseURL
	}
	return &NewsData{
		name:     "newsdata",
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		language: language,
		httpCfg:  newHTTPConfig(client, backoff),
		circuit:  newCircuitBreaker("newsdata"),
	}
}

func (p *NewsData) Name() string {
	return p.name
}

type newsDataArticle struct {
	ArticleID   string `json:"article_id"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	PubDate     string `json:"pubDate"`
	ImageURL    string `json:"image_url"`
	SourceID    string `json:"source_id"`
	SourceName  string `json:"source_name"`
}

type newsDataResponse struct {
	Status       string            `json:"status"`
	TotalResults int               `json:"totalResults"`
	Results      []newsDataArticle `json:"results"`
	NextPage     *string           `json:"nextPage"`
}

// FetchPage requests /latest for q. Results keep provider order.
func (p *NewsData) FetchPage(ctx context.Context, q insights.NewsQuery) (insights.NewsPage, error) {
	key := ""
	if p.apiKey != nil {
		key = strings.TrimSpace(p.apiKey())
	}
	if key == "" {
		return insights.NewsPage{}, upstreamError(p.name, errNoAPIKey)
	}

	values := url.Values{}
	values.Set("apikey", key)
	values.Set("q", q.Term)
	if q.Country != "" {
		values.Set("country", q.Country)
	}
	if p.language != "" {
		values.Set("language", p.language)
	}
	if q.Cursor != "" {
		values.Set("page", q.Cursor)
	}
	u := fmt.Sprintf("%s/latest?%s", p.baseURL, values.Encode())

	var payload newsDataResponse
	if err := getJSON(ctx, p.name, p.httpCfg, p.circuit, newGetRequest(u), &payload); err != nil {
		return insights.NewsPage{}, upstreamError(p.name, err)
	}
	if strings.EqualFold(payload.Status, "error") {
		return insights.NewsPage{}, upstreamError(p.name, errors.New("provider reported an error"))
	}

	page := insights.NewsPage{
		Articles:     make([]insights.NewsArticle, 0, len(payload.Results)),
		TotalResults: payload.TotalResults,
	}
	if payload.NextPage != nil && *payload.NextPage != "" {
		next := *payload.NextPage
		page.NextCursor = &next
	}
	for _, a := range payload.Results {
		page.Articles = append(page.Articles, insights.NewsArticle{
			ID:          a.ArticleID,
			Title:       a.Title,
			Link:        a.Link,
			Description: a.Description,
			PublishedAt: a.PubDate,
			ImageURL:    a.ImageURL,
			SourceID:    a.SourceID,
			SourceName:  a.SourceName,
		})
	}
	return page, nil
}

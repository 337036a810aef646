package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

type Category = string

const (
	GeneralCategory     Category = "general"
	NewsCategory        Category = "news"
	SocialMediaCategory Category = "social_media"
)

const defaultSearxngEngines = "bing,duckduckgo,google,startpage,yandex"

// searxngItem is a single result of the SearxNG JSON API
type searxngItem struct {
	URL           string `json:"url"`
	Title         string `json:"title"`
	Content       string `json:"content,omitempty"`
	PublishedDate string `json:"publishedDate,omitempty"`
	Metadata      string `json:"metadata,omitempty"`
}

// searxngResponse represents the entire response from the search engine
type searxngResponse struct {
	Query           string        `json:"query"`
	NumberOfResults int           `json:"number_of_results"`
	Results         []searxngItem `json:"results"`
}

// SearxNG searches through the JSON API of a SearxNG instance.
type SearxNG struct {
	baseURL    string
	language   string
	category   Category
	engines    string
	httpClient *http.Client
}

var _ Provider = (*SearxNG)(nil)

type SearxNGOption func(*SearxNG)

func WithLanguage(lang string) SearxNGOption {
	return func(s *SearxNG) {
		s.language = lang
	}
}

func WithCategory(category Category) SearxNGOption {
	return func(s *SearxNG) {
		s.category = category
	}
}

// WithEngines overrides the comma separated engine list
func WithEngines(engines string) SearxNGOption {
	return func(s *SearxNG) {
		s.engines = engines
	}
}

func WithSearxNGHttpClient(clt *http.Client) SearxNGOption {
	return func(s *SearxNG) {
		s.httpClient = clt
	}
}

func NewSearxNG(baseURL string, opts ...SearxNGOption) *SearxNG {
	ret := &SearxNG{
		baseURL:  strings.TrimRight(baseURL, "/"),
		category: GeneralCategory,
		engines:  defaultSearxngEngines,
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.httpClient == nil {
		ret.httpClient = http.DefaultClient
	}
	return ret
}

func (s *SearxNG) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if !validQuery(query) {
		return nil, &Error{Backend: "searxng", Err: errors.New("query is empty")}
	}
	items, err := s.fetchSearchResults(ctx, query)
	if err != nil {
		return nil, &Error{Backend: "searxng", Err: err}
	}
	results := make([]Result, 0, len(items))
	for _, item := range items {
		// entries without a title, url or content are not useful as citations
		if item.URL == "" || item.Title == "" || item.Content == "" {
			continue
		}
		results = append(results, Result{
			Title:   item.Title,
			Snippet: item.Content,
			URL:     item.URL,
		})
	}
	return limit(results, maxResults), nil
}

// fetchSearchResults queries the search engine and returns the parsed search response
func (s *SearxNG) fetchSearchResults(ctx context.Context, query string) ([]searxngItem, error) {
	values := url.Values{}
	values.Set("q", query)
	values.Set("safesearch", "0")
	values.Set("format", "json")
	values.Set("engines", s.engines)
	if s.language != "" {
		values.Set("language", s.language)
	}
	if s.category != "" {
		values.Set("categories", s.category)
	}
	searchURL := fmt.Sprintf("%s/search?%s", s.baseURL, values.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}

	httpResp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error querying search engine: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("non-200 response from search engine: %d", httpResp.StatusCode)
	}

	var searchResponse searxngResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&searchResponse); err != nil {
		return nil, fmt.Errorf("malformed search engine response: %w", err)
	}
	return searchResponse.Results, nil
}

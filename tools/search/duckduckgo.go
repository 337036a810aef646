package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

const (
	DuckDuckGoEndpoint = "https://lite.duckduckgo.com/lite/"
	DefaultUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// duckDuckGoLimiter is shared by all DuckDuckGo instances, the lite endpoint
// starts answering with challenge pages above roughly one query per second.
var duckDuckGoLimiter = rate.NewLimiter(rate.Every(time.Second), 1)

// DuckDuckGo searches through DuckDuckGo's lite HTML interface.
type DuckDuckGo struct {
	endpoint   string
	region     string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ Provider = (*DuckDuckGo)(nil)

type DuckDuckGoOption func(*DuckDuckGo)

func WithDuckDuckGoEndpoint(endpoint string) DuckDuckGoOption {
	return func(d *DuckDuckGo) {
		d.endpoint = endpoint
	}
}

// WithRegion sets the kl region parameter, e.g. "us-en".
func WithRegion(region string) DuckDuckGoOption {
	return func(d *DuckDuckGo) {
		d.region = region
	}
}

func WithUserAgent(ua string) DuckDuckGoOption {
	return func(d *DuckDuckGo) {
		d.userAgent = ua
	}
}

func WithDuckDuckGoHttpClient(clt *http.Client) DuckDuckGoOption {
	return func(d *DuckDuckGo) {
		d.httpClient = clt
	}
}

// WithLimiter replaces the process wide rate limiter.
func WithLimiter(l *rate.Limiter) DuckDuckGoOption {
	return func(d *DuckDuckGo) {
		d.limiter = l
	}
}

func NewDuckDuckGo(opts ...DuckDuckGoOption) *DuckDuckGo {
	ret := &DuckDuckGo{
		endpoint:  DuckDuckGoEndpoint,
		userAgent: DefaultUserAgent,
		limiter:   duckDuckGoLimiter,
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.httpClient == nil {
		ret.httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return ret
}

func (d *DuckDuckGo) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if !validQuery(query) {
		return nil, &Error{Backend: "duckduckgo", Err: errors.New("query is empty")}
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, &Error{Backend: "duckduckgo", Err: err}
	}
	doc, err := d.fetch(ctx, query)
	if err != nil {
		return nil, &Error{Backend: "duckduckgo", Err: err}
	}
	return limit(parseLiteResults(doc, maxResults), maxResults), nil
}

func (d *DuckDuckGo) fetch(ctx context.Context, query string) (*goquery.Document, error) {
	form := url.Values{}
	form.Set("q", query)
	if d.region != "" {
		form.Set("kl", d.region)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("User-Agent", d.userAgent)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpResp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error querying duckduckgo: %w", err)
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("non-200 response from duckduckgo: %d", httpResp.StatusCode)
	}
	return goquery.NewDocumentFromReader(httpResp.Body)
}

// parseLiteResults walks the result rows of the lite page. Each organic result
// is a row holding a.result-link followed by a row with td.result-snippet.
func parseLiteResults(doc *goquery.Document, maxResults int) []Result {
	results := make([]Result, 0, max(maxResults, 0))
	seen := make(map[string]struct{})
	doc.Find("a.result-link").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		row := link.Closest("tr")
		if row.HasClass("result-sponsored") {
			return true
		}
		href, _ := link.Attr("href")
		target := resolveLink(href)
		title := strings.TrimSpace(link.Text())
		if target == "" || title == "" {
			return true
		}
		if _, ok := seen[target]; ok {
			return true
		}
		seen[target] = struct{}{}
		results = append(results, Result{
			Title:   title,
			URL:     target,
			Snippet: snippetText(row.Next().Find("td.result-snippet").First()),
		})
		return maxResults <= 0 || len(results) < maxResults
	})
	return results
}

// resolveLink unwraps DuckDuckGo redirect links and drops ad and internal links.
func resolveLink(href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil || u.Host == "" {
		return ""
	}
	if strings.HasSuffix(u.Host, "duckduckgo.com") {
		if u.Path != "/l/" {
			return ""
		}
		target := u.Query().Get("uddg")
		if t, err := url.Parse(target); err != nil || t.Host == "" {
			return ""
		}
		return target
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

func snippetText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	html, err := sel.Html()
	if err != nil {
		return strings.TrimSpace(sel.Text())
	}
	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return strings.TrimSpace(sel.Text())
	}
	return strings.Join(strings.Fields(md), " ")
}

// Package search provides the web search backends used by the research
// pipeline and the fallback report.
//
// Available providers:
//
//   - DuckDuckGo: no API key required, scrapes the lite HTML endpoint
//   - SearxNG: JSON API of a self-hosted SearxNG instance
//
// Both implement Provider and never return more than maxResults items.
// An empty result slice is a successful search.
//
//	provider := search.NewDuckDuckGo()
//	results, err := provider.Search(ctx, "golang web frameworks", 5)
//
// Tool wraps a Provider so that agents can call it with a list of queries.
package search

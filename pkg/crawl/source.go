package crawl

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Source turns a text query into candidate image URLs for one search
// provider. Implementations return a deduplicated list of at most max URLs
// that plausibly point at images, and an empty list on any failure — timeout,
// non-success status, empty markup. Retry policy belongs to the caller.
type Source interface {
	Name() string
	CandidateURLs(ctx context.Context, query string, max int) []string
}

// ForEngine returns the sources for an engine selection, in preference order.
func ForEngine(cfg *Config, e Engine) []Source {
	switch e {
	case EngineYandex:
		return []Source{NewYandexSource(cfg)}
	case EngineBoth:
		return []Source{NewYandexSource(cfg), NewGoogleSource(cfg)}
	default:
		return []Source{NewGoogleSource(cfg)}
	}
}

// interleave merges per-source URL lists round-robin, alternating one URL
// from each list until all are exhausted.
func interleave(lists [][]string) []string {
	var out []string
	for i := 0; ; i++ {
		emitted := false
		for _, l := range lists {
			if i < len(l) {
				out = append(out, l[i])
				emitted = true
			}
		}
		if !emitted {
			return out
		}
	}
}

var imageExts = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "webp": true, "gif": true,
}

// hasImageExt reports whether a URL plausibly terminates in an image
// extension, ignoring any query string.
func hasImageExt(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	p := strings.ToLower(u.Path)
	i := strings.LastIndex(p, ".")
	if i < 0 {
		return false
	}
	return imageExts[p[i+1:]]
}

// dedupeImageURLs drops non-image and repeated URLs, preserving order and
// capping the result at max.
func dedupeImageURLs(urls []string, max int) []string {
	seen := make(map[string]bool, len(urls))
	var out []string
	for _, u := range urls {
		if !hasImageExt(u) || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out
}

// searchHeaders are the browser-like headers sent with every search-page
// request.
func searchHeaders(req *http.Request, agent, lang string) {
	req.Header.Set("User-Agent", agent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", lang)
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

package crawl

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"k8s.io/klog/v2"
)

// googleImageRe matches direct image URLs embedded in the search results
// markup.
var googleImageRe = regexp.MustCompile(`https://[^"'\s\\]+\.(?i:jpg|jpeg|png|webp|gif)`)

// GoogleSource extracts candidate image URLs from Google image search pages.
type GoogleSource struct {
	base   string
	client *http.Client
	agents *agentPool
}

func NewGoogleSource(cfg *Config) *GoogleSource {
	base := cfg.GoogleURL
	if base == "" {
		base = "https://www.google.com/search"
	}
	return &GoogleSource{
		base:   base,
		client: newHTTPClient(cfg.Timeout),
		agents: newAgentPool(cfg.UserAgents),
	}
}

func (s *GoogleSource) Name() string { return "google" }

func (s *GoogleSource) CandidateURLs(ctx context.Context, query string, max int) []string {
	u := fmt.Sprintf("%s?q=%s&tbm=isch&tbs=isz:l", s.base, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		klog.Errorf("google: bad request for %q: %v", query, err)
		return nil
	}
	searchHeaders(req, s.agents.pick(), "en-US,en;q=0.5")

	resp, err := s.client.Do(req)
	if err != nil {
		klog.Warningf("google: fetch failed for %q: %v", query, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		klog.Warningf("google: status %d for %q", resp.StatusCode, query)
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		klog.Warningf("google: read failed for %q: %v", query, err)
		return nil
	}

	urls := googleImageRe.FindAllString(string(body), -1)

	// Thumbnails and inline previews show up as plain img tags rather than in
	// the embedded JSON blob. Relative srcs point back at the results page and
	// are useless to the fetcher.
	if doc, derr := goquery.NewDocumentFromReader(bytes.NewReader(body)); derr == nil {
		doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
			src, ok := sel.Attr("src")
			if ok && (strings.HasPrefix(src, "https://") || strings.HasPrefix(src, "http://")) {
				urls = append(urls, src)
			}
		})
	}

	return dedupeImageURLs(urls, max)
}

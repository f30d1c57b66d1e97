package crawl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"k8s.io/klog/v2"
)

// Yandex keeps original image URLs in a JSON structure inside the HTML;
// slashes may arrive escaped.
var yandexOrigRe = regexp.MustCompile(`"orig_url":"(https:[^"]+?\.(?i:jpg|jpeg|png|webp))"`)

// YandexSource extracts candidate image URLs from Yandex image search pages.
type YandexSource struct {
	base   string
	client *http.Client
	agents *agentPool
}

func NewYandexSource(cfg *Config) *YandexSource {
	base := cfg.YandexURL
	if base == "" {
		base = "https://yandex.ru/images/search"
	}
	return &YandexSource{
		base:   base,
		client: newHTTPClient(cfg.Timeout),
		agents: newAgentPool(cfg.UserAgents),
	}
}

func (s *YandexSource) Name() string { return "yandex" }

func (s *YandexSource) CandidateURLs(ctx context.Context, query string, max int) []string {
	u := fmt.Sprintf("%s?text=%s", s.base, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		klog.Errorf("yandex: bad request for %q: %v", query, err)
		return nil
	}
	searchHeaders(req, s.agents.pick(), "ru-RU,ru;q=0.8,en-US;q=0.5,en;q=0.3")

	resp, err := s.client.Do(req)
	if err != nil {
		klog.Warningf("yandex: fetch failed for %q: %v", query, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		klog.Warningf("yandex: status %d for %q", resp.StatusCode, query)
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		klog.Warningf("yandex: read failed for %q: %v", query, err)
		return nil
	}

	var urls []string
	for _, m := range yandexOrigRe.FindAllStringSubmatch(string(body), -1) {
		// orig_url values arrive with escaped slashes
		urls = append(urls, strings.ReplaceAll(m[1], `\`, ""))
	}

	return dedupeImageURLs(urls, max)
}

package crawl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterleave(t *testing.T) {
	got := interleave([][]string{
		{"y1", "y2", "y3"},
		{"g1", "g2"},
	})
	assert.Equal(t, []string{"y1", "g1", "y2", "g2", "y3"}, got)

	assert.Empty(t, interleave(nil))
	assert.Equal(t, []string{"a"}, interleave([][]string{{"a"}, {}}))
}

func TestHasImageExt(t *testing.T) {
	assert.True(t, hasImageExt("https://x.test/a.jpg"))
	assert.True(t, hasImageExt("https://x.test/a.JPEG"))
	assert.True(t, hasImageExt("https://x.test/a.webp?w=800"))
	assert.False(t, hasImageExt("https://x.test/page.html"))
	assert.False(t, hasImageExt("https://x.test/noext"))
}

func TestDedupeImageURLs(t *testing.T) {
	in := []string{
		"https://x.test/a.jpg",
		"https://x.test/a.jpg",
		"https://x.test/b.html",
		"https://x.test/c.png",
		"https://x.test/d.gif",
	}
	assert.Equal(t, []string{"https://x.test/a.jpg", "https://x.test/c.png"}, dedupeImageURLs(in, 2))
}

func TestGoogleSourceExtraction(t *testing.T) {
	html := `<html><body>
	<img src="https://cdn.test/thumb1.jpg"><img src="/relative/skip.html">
	<img src="/relative/thumb2.jpg">
	<script>var data = ["https://imgs.test/full1.jpeg","https://imgs.test/full2.png"];</script>
	</body></html>`

	var gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		assert.Equal(t, "isch", r.URL.Query().Get("tbm"))
		w.Write([]byte(html))
	}))
	defer srv.Close()

	s := NewGoogleSource(&Config{GoogleURL: srv.URL})
	urls := s.CandidateURLs(context.Background(), "rust wheat", 10)

	assert.Contains(t, urls, "https://imgs.test/full1.jpeg")
	assert.Contains(t, urls, "https://imgs.test/full2.png")
	assert.Contains(t, urls, "https://cdn.test/thumb1.jpg")
	for _, u := range urls {
		assert.NotContains(t, u, "relative", "relative srcs are unusable candidates")
	}
	assert.NotEmpty(t, gotAgent)
}

func TestGoogleSourceErrorsAreEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := NewGoogleSource(&Config{GoogleURL: srv.URL})
	assert.Empty(t, s.CandidateURLs(context.Background(), "rust", 10))

	// dead endpoint: connection failure, still no error surfaced
	srv.Close()
	assert.Empty(t, s.CandidateURLs(context.Background(), "rust", 10))
}

func TestYandexSourceExtraction(t *testing.T) {
	html := `<html><div data-state='{"items":[` +
		`{"orig_url":"https:\/\/imgs.test\/photo1.jpg"},` +
		`{"orig_url":"https://imgs.test/photo2.webp"},` +
		`{"orig_url":"https://imgs.test/photo1.jpg"}]}'></div></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NotEmpty(t, r.URL.Query().Get("text"))
		w.Write([]byte(html))
	}))
	defer srv.Close()

	s := NewYandexSource(&Config{YandexURL: srv.URL})
	urls := s.CandidateURLs(context.Background(), "ржавчина пшеница", 10)

	assert.Equal(t, []string{"https://imgs.test/photo1.jpg", "https://imgs.test/photo2.webp"}, urls)
}

func TestYandexSourceMaxResults(t *testing.T) {
	html := `"orig_url":"https://imgs.test/a.jpg" "orig_url":"https://imgs.test/b.jpg" "orig_url":"https://imgs.test/c.jpg"`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(html))
	}))
	defer srv.Close()

	s := NewYandexSource(&Config{YandexURL: srv.URL})
	assert.Len(t, s.CandidateURLs(context.Background(), "q", 2), 2)
}

package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/meeting-tracker/internal/model"
)

func TestScraper_Enrich(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("Trump met with Apple CEO Tim Cook at the White House. ", 6)
	page := `<html><body>
		<nav><p>Navigation link text that should never appear</p></nav>
		<div class="sidebar"><p>Short teaser.</p></div>
		<article><p>` + long + `</p><script>var x = 1;</script><p>Second paragraph.</p></article>
		<footer><p>Copyright</p></footer>
	</body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	s := NewScraper(newTestHTTPClient(0), 200, 5000)
	got := s.Enrich(context.Background(), model.Article{Body: "Summary.", SourceURL: srv.URL})

	assert.True(t, strings.HasPrefix(got.Body, "Summary. Trump met with Apple CEO"))
	assert.Contains(t, got.Body, "Second paragraph.")
	assert.NotContains(t, got.Body, "Navigation")
	assert.NotContains(t, got.Body, "Copyright")
	assert.NotContains(t, got.Body, "var x")
}

func TestScraper_FallsBackToAllParagraphs(t *testing.T) {
	t.Parallel()

	s := NewScraper(nil, 10, 5000)
	text := s.pageText([]byte(`<html><body><main><p>tiny</p></main><div><p>other paragraph text</p></div></body></html>`))
	assert.Equal(t, "tiny other paragraph text", text)
}

func TestScraper_CapsLength(t *testing.T) {
	t.Parallel()

	s := NewScraper(nil, 5, 20)
	text := s.pageText([]byte(`<article><p>` + strings.Repeat("abcdefghij", 10) + `</p></article>`))
	assert.Len(t, []rune(text), 20)
}

func TestScraper_FailureLeavesArticle(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	in := model.Article{Title: "t", Body: "b", SourceURL: srv.URL}
	got := NewScraper(newTestHTTPClient(0), 0, 0).Enrich(context.Background(), in)
	require.Equal(t, in, got)
}

func TestScraper_SkipsBlockedPage(t *testing.T) {
	t.Parallel()

	page := `<html><head><title>Just a moment...</title></head><body>
		<p>Checking your browser before accessing the site. Trump met with Apple CEO Tim Cook.</p>
	</body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	s := NewScraper(newTestHTTPClient(0), 10, 5000)
	got := s.Enrich(context.Background(), model.Article{Body: "Summary.", SourceURL: srv.URL})
	assert.Equal(t, "Summary.", got.Body)
}

func TestDetectBlock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		page string
		want BlockType
	}{
		{name: "article", page: "<article><p>" + strings.Repeat("Trump met executives. ", 100) + "</p></article>", want: BlockNone},
		{name: "cloudflare", page: "<p>Checking your browser before accessing</p>", want: BlockCloudflare},
		{name: "cloudflare challenge", page: "<div>Cloudflare challenge platform</div>", want: BlockCloudflare},
		{name: "captcha", page: `<div class="g-recaptcha"></div>`, want: BlockCaptcha},
		{name: "noscript shell", page: "<noscript>Please enable JavaScript</noscript>", want: BlockJSShell},
		{name: "meta refresh", page: `<meta http-equiv="refresh" content="0;url=/x">`, want: BlockJSShell},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, DetectBlock([]byte(tt.page)))
		})
	}
}

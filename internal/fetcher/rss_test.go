package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Example Politics</title>
  <link>https://news.example.com</link>
  <item>
    <title>Trump meets Apple CEO Tim Cook</title>
    <link>https://news.example.com/cook</link>
    <description>&lt;p&gt;President &lt;b&gt;Trump&lt;/b&gt; met with Apple CEO Tim Cook.&lt;/p&gt;</description>
    <pubDate>Fri, 07 Mar 2025 15:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Markets close higher</title>
    <link>https://news.example.com/markets</link>
    <description>Stocks rose.</description>
    <pubDate>Fri, 07 Mar 2025 16:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Undated Trump item</title>
    <link>https://news.example.com/undated</link>
  </item>
  <item>
    <title>Trump item without link</title>
  </item>
</channel>
</rss>`

func TestRSSFeed_Fetch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(testFeed))
	}))
	defer srv.Close()

	srcs := RSSSources(newTestHTTPClient(0), []string{srv.URL + "/rss.xml"}, "Trump")
	require.Len(t, srcs, 1)
	assert.Contains(t, srcs[0].Name(), "rss:127.0.0.1")

	got, err := srcs[0].Fetch(context.Background(), time.Time{})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Trump meets Apple CEO Tim Cook", got[0].Title)
	assert.Equal(t, "President Trump met with Apple CEO Tim Cook.", got[0].Body)
	assert.Equal(t, "Example Politics", got[0].SourceName)
	assert.Equal(t, time.Date(2025, 3, 7, 15, 0, 0, 0, time.UTC), got[0].PublishedAt)

	assert.Equal(t, "https://news.example.com/undated", got[1].SourceURL)
	assert.True(t, got[1].PublishedAt.IsZero())
}

func TestRSSFeed_Errors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("this is not a feed"))
	}))
	defer srv.Close()

	for _, path := range []string{"/missing", "/garbage"} {
		t.Run(path, func(t *testing.T) {
			src := RSSSources(newTestHTTPClient(0), []string{srv.URL + path}, "Trump")[0]
			got, err := src.Fetch(context.Background(), time.Time{})
			require.Error(t, err)
			assert.Empty(t, got)
			var se *SourceError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, src.Name(), se.Source)
		})
	}
}

func TestHTMLText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "plain text", htmlText("  plain \n text "))
	assert.Equal(t, "Tim Cook & Trump", htmlText("<p>Tim Cook &amp; <i>Trump</i></p>"))
	assert.Equal(t, "", htmlText(""))
}

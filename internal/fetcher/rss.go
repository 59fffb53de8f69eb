package fetcher

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/rotisserie/eris"

	"github.com/sells-group/meeting-tracker/internal/model"
)

// Getter downloads a URL body. *HTTPClient satisfies it.
type Getter interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
}

// RSSFeed is one RSS or Atom feed. Items that never mention the subject
// are dropped before extraction.
type RSSFeed struct {
	url     string
	subject string
	http    Getter
}

// RSSSources returns one Source per feed URL.
func RSSSources(client Getter, feeds []string, subject string) []Source {
	out := make([]Source, 0, len(feeds))
	for _, f := range feeds {
		out = append(out, &RSSFeed{url: f, subject: strings.ToLower(subject), http: client})
	}
	return out
}

func (f *RSSFeed) Name() string {
	if u, err := url.Parse(f.url); err == nil && u.Host != "" {
		return "rss:" + u.Host + u.Path
	}
	return "rss:" + f.url
}

func (f *RSSFeed) Fetch(ctx context.Context, _ time.Time) ([]model.Article, error) {
	body, err := f.http.Get(ctx, f.url)
	if err != nil {
		return nil, &SourceError{Source: f.Name(), Err: err}
	}
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &SourceError{Source: f.Name(), Err: eris.Wrap(err, "rss: parse feed")}
	}

	sourceName := strings.TrimSpace(feed.Title)
	if sourceName == "" {
		sourceName = "RSS Feed"
	}

	var out []model.Article
	for _, item := range feed.Items {
		if item == nil || item.Link == "" {
			continue
		}
		title := htmlText(item.Title)
		summary := htmlText(item.Description)
		if summary == "" {
			summary = htmlText(item.Content)
		}
		if f.subject != "" && !strings.Contains(strings.ToLower(title+" "+summary), f.subject) {
			continue
		}
		out = append(out, model.Article{
			Title:       title,
			Body:        summary,
			PublishedAt: itemTime(item),
			SourceURL:   item.Link,
			SourceName:  sourceName,
		})
	}
	return out, nil
}

func itemTime(item *gofeed.Item) time.Time {
	switch {
	case item.PublishedParsed != nil:
		return item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		return item.UpdatedParsed.UTC()
	}
	return time.Time{}
}

// htmlText flattens an HTML fragment (feed summaries often carry markup)
// to whitespace-collapsed text.
func htmlText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

package model

import "time"

// Article is a raw news item returned by a fetch source.
type Article struct {
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	PublishedAt time.Time `json:"published_at"`
	SourceURL   string    `json:"source_url"`
	SourceName  string    `json:"source_name"`
}

// Text returns the title and body joined for matching.
func (a Article) Text() string {
	if a.Body == "" {
		return a.Title
	}
	return a.Title + ". " + a.Body
}

// Ref returns the persisted reference to this article.
func (a Article) Ref() ArticleRef {
	return ArticleRef{
		Title:       a.Title,
		URL:         a.SourceURL,
		SourceName:  a.SourceName,
		PublishedAt: a.PublishedAt,
	}
}

// ArticleRef identifies the article a meeting was extracted from. The body is
// not carried so records stay small once persisted.
type ArticleRef struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	SourceName  string    `json:"source_name"`
	PublishedAt time.Time `json:"published_at"`
}

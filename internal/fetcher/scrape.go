package fetcher

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sells-group/meeting-tracker/internal/model"
)

var contentSelectors = []string{
	"article",
	`[class*="article"]`,
	`[class*="story"]`,
	`[class*="content"]`,
	`[class*="body"]`,
	"main",
	".post-content",
}

// Scraper downloads an article page and appends its paragraph text to the
// article body.
type Scraper struct {
	http     Getter
	minChars int
	maxChars int
}

// NewScraper creates a Scraper. A content block is accepted once its
// paragraphs exceed minChars; the scraped text is capped at maxChars runes.
func NewScraper(client Getter, minChars, maxChars int) *Scraper {
	if minChars <= 0 {
		minChars = 200
	}
	if maxChars <= 0 {
		maxChars = 5000
	}
	return &Scraper{http: client, minChars: minChars, maxChars: maxChars}
}

// Enrich returns a with the scraped page text appended. Any failure leaves
// the article unchanged.
func (s *Scraper) Enrich(ctx context.Context, a model.Article) model.Article {
	body, err := s.http.Get(ctx, a.SourceURL)
	if err != nil {
		zap.L().Debug("fetcher: scrape failed", zap.String("url", a.SourceURL), zap.Error(err))
		return a
	}
	if block := DetectBlock(body); block != BlockNone {
		zap.L().Debug("fetcher: scrape blocked", zap.String("url", a.SourceURL), zap.String("block", string(block)))
		return a
	}
	text := s.pageText(body)
	if text == "" {
		return a
	}
	a.Body = joinNonEmpty(a.Body, text)
	return a
}

func (s *Scraper) pageText(page []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return ""
	}
	doc.Find("script, style, nav, header, footer, aside").Remove()

	var text string
	for _, sel := range contentSelectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		text = paragraphs(node)
		if len([]rune(text)) > s.minChars {
			break
		}
	}
	if len([]rune(text)) <= s.minChars {
		text = paragraphs(doc.Selection)
	}

	if r := []rune(text); len(r) > s.maxChars {
		text = strings.TrimSpace(string(r[:s.maxChars]))
	}
	return text
}

func paragraphs(sel *goquery.Selection) string {
	var parts []string
	sel.Find("p").Each(func(_ int, p *goquery.Selection) {
		if t := strings.Join(strings.Fields(p.Text()), " "); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, " ")
}

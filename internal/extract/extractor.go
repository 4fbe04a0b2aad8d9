// Package extract locates and scores the main article body in arbitrary HTML.
package extract

import (
	"math"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"go.uber.org/zap"
)

// Link is a related article reference collected from the source page.
type Link struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// ArticleDetail is the full extraction result for a single source URL.
// PublishedAt holds an RFC3339 timestamp when the page date parsed, otherwise
// the raw string the page declared.
type ArticleDetail struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Author      string `json:"author,omitempty"`
	PublishedAt string `json:"publishedAt,omitempty"`
	SourceName  string `json:"sourceName"`
	Content     string `json:"content"`
	WordCount   int    `json:"wordCount"`
	ReadingTime int    `json:"readingTime"`
	SourceLinks []Link `json:"sourceLinks"`
}

// container candidates in priority order
var contentSelectors = []string{
	"article",
	"main",
	`[role="main"]`,
	".article-body",
	".article-content",
	".post-content",
	".entry-content",
	".story-body",
	".post-body",
	".content",
	"#content",
}

// scoreEarlyStop ends container scanning once a clearly dominant score shows up.
const scoreEarlyStop = 500

const wordsPerMinute = 200

// class/id substrings that mark boilerplate blocks
var boilerplateMarkers = []string{
	"advert", "ad-", "-ad", "ads", "sponsor",
	"social", "share", "comment", "related",
	"sidebar", "promo", "newsletter", "cookie",
	"subscribe", "popup", "banner", "breadcrumb",
}

var boilerplatePrefixes = []string{"subscribe", "share", "click", "read more"}

var countLinePattern = regexp.MustCompile(`^\d+\s+(comments?|likes?)\b`)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// Extractor turns raw article HTML into an ArticleDetail.
type Extractor struct {
	log *zap.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(log *zap.Logger) *Extractor {
	return &Extractor{log: log}
}

// Extract parses html fetched from pageURL. It always returns a detail; an
// empty Content means no readable body was found.
func (e *Extractor) Extract(html string, pageURL *url.URL) *ArticleDetail {
	detail := &ArticleDetail{
		URL:        pageURL.String(),
		SourceName: sourceName(pageURL),
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		e.log.Warn("unparseable article HTML", zap.String("url", detail.URL), zap.Error(err))
		return detail
	}

	detail.Title = extractTitle(doc)
	detail.Author = extractAuthor(doc)
	detail.PublishedAt = extractDate(doc)
	detail.Description = metaContent(doc, `meta[property="og:description"]`, `meta[name="description"]`)
	detail.ImageURL = metaContent(doc, `meta[property="og:image"]`, `meta[name="twitter:image"]`)

	container := selectMainContent(doc)
	if container != nil {
		stripBoilerplate(container)
		detail.Content = assembleParagraphs(container)
		detail.SourceLinks = extractLinks(container, pageURL)
	}

	// thin extractions get one more chance through readability
	if len(detail.Content) <= 100 {
		if article, rerr := readability.FromReader(strings.NewReader(html), pageURL); rerr == nil {
			if text := strings.TrimSpace(article.TextContent); len(text) > len(detail.Content) {
				detail.Content = text
			}
			if detail.Title == "" {
				detail.Title = article.Title
			}
		}
	}

	detail.WordCount = len(strings.Fields(detail.Content))
	detail.ReadingTime = readingTime(detail.WordCount)
	return detail
}

// selectMainContent scores every candidate container by text length plus a
// paragraph bonus and keeps the best, stopping early on a dominant score.
func selectMainContent(doc *goquery.Document) *goquery.Selection {
	var best *goquery.Selection
	bestScore := 0

	for _, sel := range contentSelectors {
		stop := false
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			score := len(strings.TrimSpace(s.Text())) + 50*s.Find("p").Length()
			if score > bestScore {
				best = s
				bestScore = score
			}
			if bestScore > scoreEarlyStop {
				stop = true
				return false
			}
			return true
		})
		if stop {
			break
		}
	}

	if best == nil {
		body := doc.Find("body").First()
		if body.Length() > 0 {
			return body
		}
		return nil
	}
	return best
}

// stripBoilerplate removes non-content elements from the selected container,
// by tag first and then by class/id substring.
func stripBoilerplate(container *goquery.Selection) {
	container.Find("script, style, nav, header, footer, aside, form, iframe, noscript, button, svg").Remove()
	container.Find("[class], [id]").Each(func(_ int, s *goquery.Selection) {
		class, _ := s.Attr("class")
		id, _ := s.Attr("id")
		marker := strings.ToLower(class + " " + id)
		for _, m := range boilerplateMarkers {
			if strings.Contains(marker, m) {
				s.Remove()
				return
			}
		}
	})
}

// assembleParagraphs collects meaningful text blocks into the article body.
func assembleParagraphs(container *goquery.Selection) string {
	var parts []string
	container.Find("p, h2, h3, h4, h5, h6, blockquote, li").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if len(text) <= 30 || isBoilerplateText(text) {
			return
		}
		parts = append(parts, text)
	})
	return strings.Join(parts, "\n\n")
}

func isBoilerplateText(text string) bool {
	lower := strings.ToLower(text)
	for _, prefix := range boilerplatePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return countLinePattern.MatchString(lower)
}

// extractLinks collects up to 5 plausible related-article anchors.
func extractLinks(container *goquery.Selection, pageURL *url.URL) []Link {
	var links []Link
	seen := map[string]bool{pageURL.String(): true}

	container.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(links) >= 5 {
			return false
		}
		href, _ := s.Attr("href")
		text := strings.TrimSpace(s.Text())
		if len(text) < 10 || len(text) >= 100 {
			return true
		}
		if strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
			return true
		}
		if strings.Contains(strings.ToLower(text), "share") {
			return true
		}
		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		resolved := pageURL.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return true
		}
		abs := resolved.String()
		if seen[abs] {
			return true
		}
		seen[abs] = true
		links = append(links, Link{URL: abs, Title: text})
		return true
	})
	return links
}

func extractTitle(doc *goquery.Document) string {
	if title := metaContent(doc, `meta[property="og:title"]`, `meta[name="twitter:title"]`); title != "" {
		return title
	}
	for _, sel := range []string{"h1.article-title", "h1.entry-title", ".headline h1", "article h1", "h1"} {
		if title := strings.TrimSpace(doc.Find(sel).First().Text()); title != "" {
			return title
		}
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func extractAuthor(doc *goquery.Document) string {
	if author := metaContent(doc, `meta[name="author"]`, `meta[property="article:author"]`); author != "" {
		return author
	}
	for _, sel := range []string{`[rel="author"]`, ".author-name", ".byline", ".author"} {
		if author := strings.TrimSpace(doc.Find(sel).First().Text()); author != "" {
			return author
		}
	}
	return ""
}

// extractDate normalizes the declared publication date to RFC3339 when it
// parses, keeping the raw string when it does not.
func extractDate(doc *goquery.Document) string {
	raw := metaContent(doc, `meta[property="article:published_time"]`, `meta[name="publish-date"]`, `meta[name="date"]`)
	if raw == "" {
		if dt, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
			raw = strings.TrimSpace(dt)
		}
	}
	if raw == "" {
		for _, sel := range []string{".published", ".post-date", ".date"} {
			if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
				raw = text
				break
			}
		}
	}
	if raw == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return raw
}

func metaContent(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			if content = strings.TrimSpace(content); content != "" {
				return content
			}
		}
	}
	return ""
}

func readingTime(wordCount int) int {
	minutes := int(math.Ceil(float64(wordCount) / wordsPerMinute))
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

func sourceName(pageURL *url.URL) string {
	host := strings.TrimPrefix(pageURL.Hostname(), "www.")
	if host == "" {
		return "unknown"
	}
	return host
}

package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/VictorSaf/ainvestorhood5/internal/domain"
	"github.com/VictorSaf/ainvestorhood5/internal/feeds"
)

const (
	defaultMaxItems = 10
	contentLimit    = 2000
	userAgent       = "AInvestorHood/1.0 (Financial News Aggregator)"
)

var whitespaceExpr = regexp.MustCompile(`\s+`)

// RSSSource pulls RSS 2.0 feeds and maps entries to raw items. A shared
// rate limiter spaces requests across all configured feeds.
type RSSSource struct {
	client  *http.Client
	limiter *rate.Limiter
}

var _ feeds.Source = (*RSSSource)(nil)

// NewRSSSource wires an HTTP client; delay spaces consecutive feed
// requests and defaults to 2s when non-positive.
func NewRSSSource(client *http.Client, delay time.Duration) *RSSSource {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if delay <= 0 {
		delay = 2 * time.Second
	}
	return &RSSSource{
		client:  client,
		limiter: rate.NewLimiter(rate.Every(delay), 1),
	}
}

// Name identifies the strategy inside the registry.
func (s *RSSSource) Name() string {
	return "rss"
}

type rssDocument struct {
	Channel struct {
		Title string     `xml:"title"`
		Items []rssEntry `xml:"item"`
	} `xml:"channel"`
}

type rssEntry struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description"`
	PubDate     string   `xml:"pubDate"`
	Author      string   `xml:"author"`
	Creator     string   `xml:"creator"`
	Categories  []string `xml:"category"`
}

// Fetch downloads one feed and returns up to MaxItems raw items. Entry
// bodies are scrubbed of HTML; the published date stays the raw feed
// string for downstream normalization.
func (s *RSSSource) Fetch(ctx context.Context, req feeds.Request) ([]domain.RawItem, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s returned %s", req.FeedName, resp.Status)
	}

	var doc rssDocument
	decoder := xml.NewDecoder(resp.Body)
	decoder.Strict = false
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", req.FeedName, err)
	}

	maxItems := req.MaxItems
	if maxItems <= 0 {
		maxItems = defaultMaxItems
	}

	source := req.FeedName
	if source == "" {
		source = strings.TrimSpace(doc.Channel.Title)
	}

	items := make([]domain.RawItem, 0, maxItems)
	for _, entry := range doc.Channel.Items {
		if len(items) >= maxItems {
			break
		}
		title := strings.TrimSpace(entry.Title)
		if title == "" {
			continue
		}
		author := strings.TrimSpace(entry.Author)
		if author == "" {
			author = strings.TrimSpace(entry.Creator)
		}
		items = append(items, domain.RawItem{
			Title:         title,
			Content:       scrubHTML(entry.Description),
			URL:           strings.TrimSpace(entry.Link),
			PublishedDate: strings.TrimSpace(entry.PubDate),
			Source:        source,
			Author:        author,
			Tags:          entry.Categories,
		})
	}

	return items, nil
}

// scrubHTML strips markup from an entry body and collapses whitespace,
// capped at the content limit.
func scrubHTML(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	text := raw
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw)); err == nil {
		text = doc.Text()
	}
	text = strings.TrimSpace(whitespaceExpr.ReplaceAllString(text, " "))
	if len(text) > contentLimit {
		cut := contentLimit
		// Back off to a rune boundary so multi-byte characters survive.
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return text
}

package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/VictorSaf/ainvestorhood5/internal/config"
	"github.com/VictorSaf/ainvestorhood5/internal/feeds"
)

func TestConfigSourceAggregatesAndSkipsFailures(t *testing.T) {
	t.Parallel()

	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer healthy.Close()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	registry := feeds.NewRegistry()
	registry.Register(NewRSSSource(http.DefaultClient, time.Millisecond))

	source := NewConfigSource(registry, []config.FeedConfig{
		{Name: "broken", Source: "rss", URL: broken.URL, MaxItems: 5},
		{Name: "healthy", Source: "rss", URL: healthy.URL, MaxItems: 5},
	}, nil)

	items, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items from the healthy feed, got %d", len(items))
	}
	if items[0].Source != "healthy" {
		t.Fatalf("unexpected source label: %s", items[0].Source)
	}
}

func TestConfigSourceUnknownStrategy(t *testing.T) {
	t.Parallel()

	source := NewConfigSource(feeds.NewRegistry(), []config.FeedConfig{
		{Name: "mystery", Source: "carrier-pigeon", URL: "https://example.com"},
	}, nil)

	if _, err := source.Fetch(context.Background()); err == nil {
		t.Fatal("expected error for unregistered strategy")
	}
}

package feed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/VictorSaf/ainvestorhood5/internal/config"
	"github.com/VictorSaf/ainvestorhood5/internal/domain"
	"github.com/VictorSaf/ainvestorhood5/internal/feeds"
	"github.com/VictorSaf/ainvestorhood5/internal/ports"
)

// ConfigSource implements ItemSource over the config-defined feed list,
// resolving each feed's strategy from the registry. Individual feed
// failures are logged and skipped so one dead feed cannot starve the rest.
type ConfigSource struct {
	registry *feeds.Registry
	feeds    []config.FeedConfig
	logger   *slog.Logger
}

var _ ports.ItemSource = (*ConfigSource)(nil)

// NewConfigSource wires the feed registry with configured feeds.
func NewConfigSource(reg *feeds.Registry, cfg []config.FeedConfig, log *slog.Logger) *ConfigSource {
	return &ConfigSource{
		registry: reg,
		feeds:    cfg,
		logger:   log,
	}
}

// Fetch iterates over configured feeds and aggregates their items.
// Duplicates across feeds are expected; the pipeline handles them.
func (s *ConfigSource) Fetch(ctx context.Context) ([]domain.RawItem, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("feed registry is not configured")
	}

	s.debug("fetching feeds", "feeds", len(s.feeds))

	var aggregated []domain.RawItem
	for _, fc := range s.feeds {
		strategy, err := s.registry.Resolve(fc.SourceName())
		if err != nil {
			return nil, fmt.Errorf("feed %s: %w", fc.Name, err)
		}

		items, err := strategy.Fetch(ctx, feeds.Request{
			FeedName: fc.Name,
			URL:      fc.URL,
			MaxItems: fc.MaxItems,
			Options:  fc.Options,
		})
		if err != nil {
			s.warn("feed fetch failed", "feed", fc.Name, "error", err)
			continue
		}

		s.debug("feed produced items", "feed", fc.Name, "count", len(items))
		aggregated = append(aggregated, items...)
	}

	s.debug("fetch done", "total_items", len(aggregated))
	return aggregated, nil
}

func (s *ConfigSource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *ConfigSource) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

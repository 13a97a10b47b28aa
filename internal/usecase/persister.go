package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/VictorSaf/ainvestorhood5/internal/classify"
	"github.com/VictorSaf/ainvestorhood5/internal/dedup"
	"github.com/VictorSaf/ainvestorhood5/internal/domain"
	"github.com/VictorSaf/ainvestorhood5/internal/ports"
)

// Outcome is the terminal state of one persistence attempt.
type Outcome int

const (
	OutcomeInserted Outcome = iota
	OutcomeAlreadyExists
	OutcomeDropped
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeAlreadyExists:
		return "already_exists"
	case OutcomeDropped:
		return "dropped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

const summaryLimit = 500

// publishedLayouts are tried in order when normalizing feed date strings.
var publishedLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Persister verifies and writes classified articles. It backfills missing
// instrument names, normalizes publication dates, resolves verified ticker
// symbols and inserts idempotently.
type Persister struct {
	repository      ports.ArticleRepository
	resolver        ports.SymbolResolver
	allowUnverified bool
	logger          *slog.Logger
	now             func() time.Time
	inserted        atomic.Int64
}

// NewPersister wires storage and the optional symbol resolver. A nil
// resolver skips verification entirely.
func NewPersister(repo ports.ArticleRepository, resolver ports.SymbolResolver, allowUnverified bool, logger *slog.Logger) *Persister {
	return &Persister{
		repository:      repo,
		resolver:        resolver,
		allowUnverified: allowUnverified,
		logger:          logger,
		now:             time.Now,
	}
}

// Inserted reports how many rows this persister has written.
func (p *Persister) Inserted() int64 {
	return p.inserted.Load()
}

// Persist runs the full verification and write path for one classified
// item. Duplicate hashes are success-no-ops; resolver misses are governed
// by the allow-unverified policy; storage failures drop only this item.
// The stored article is returned alongside OutcomeInserted so callers see
// the row as written, including a resolver-rewritten instrument name.
func (p *Persister) Persist(ctx context.Context, item domain.RawItem, cls domain.ClassificationResult) (Outcome, domain.PersistedArticle, error) {
	hash := dedup.Fingerprint(dedup.Identifier(item))

	exists, err := p.repository.Exists(ctx, hash)
	if err != nil {
		return OutcomeFailed, domain.PersistedArticle{}, fmt.Errorf("lookup article: %w", err)
	}
	if exists {
		return OutcomeAlreadyExists, domain.PersistedArticle{}, nil
	}

	publishedAt := p.normalizePublished(item.PublishedDate)

	// A record is never stored with a blank instrument.
	if cls.InstrumentName == "" {
		if kind, name, ok := classify.Extract(item.Title, item.Content); ok {
			cls.InstrumentType = kind
			cls.InstrumentName = name
		} else {
			cls.InstrumentType = classify.FallbackInstrumentType
			cls.InstrumentName = classify.FallbackInstrumentName
		}
	}

	if p.resolver != nil {
		symbol, err := p.resolver.ResolveSymbol(ctx, ports.SymbolRequest{
			InstrumentType: cls.InstrumentType,
			InstrumentName: cls.InstrumentName,
			Title:          item.Title,
		})
		switch {
		case err != nil:
			if !p.allowUnverified {
				p.debug("dropped unverified article", "title", item.Title, "error", err)
				return OutcomeDropped, domain.PersistedArticle{}, nil
			}
			p.debug("symbol resolution failed, keeping unverified name", "name", cls.InstrumentName, "error", err)
		case symbol == "":
			if !p.allowUnverified {
				p.debug("dropped unverified article", "title", item.Title)
				return OutcomeDropped, domain.PersistedArticle{}, nil
			}
		default:
			cls.InstrumentName = symbol
		}
	}

	article := domain.PersistedArticle{
		Title:           item.Title,
		Summary:         summaryFor(item, cls),
		InstrumentType:  cls.InstrumentType,
		InstrumentName:  cls.InstrumentName,
		Recommendation:  cls.Recommendation,
		ConfidenceScore: cls.ConfidenceScore,
		SourceURL:       item.URL,
		ContentHash:     hash,
		PublishedAt:     publishedAt,
	}

	err = p.repository.Insert(ctx, article)
	if errors.Is(err, ports.ErrDuplicateArticle) {
		return OutcomeAlreadyExists, domain.PersistedArticle{}, nil
	}
	if err != nil {
		return OutcomeFailed, domain.PersistedArticle{}, fmt.Errorf("insert article: %w", err)
	}

	p.inserted.Add(1)
	return OutcomeInserted, article, nil
}

// normalizePublished parses the raw feed date string into UTC; empty or
// unparseable values resolve to the current processing time.
func (p *Persister) normalizePublished(raw string) time.Time {
	if raw != "" {
		for _, layout := range publishedLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t.UTC()
			}
		}
	}
	return p.now().UTC()
}

func summaryFor(item domain.RawItem, cls domain.ClassificationResult) string {
	if cls.Analysis != "" {
		return cls.Analysis
	}
	return truncate(item.Content, summaryLimit)
}

// truncate cuts at the last rune boundary at or before limit so a
// multi-byte character is never split.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func (p *Persister) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/VictorSaf/ainvestorhood5/internal/classify"
	"github.com/VictorSaf/ainvestorhood5/internal/dedup"
	"github.com/VictorSaf/ainvestorhood5/internal/domain"
	"github.com/VictorSaf/ainvestorhood5/internal/ports"
)

const defaultWorkers = 4

// PipelineDeps wires all collaborators into the item-processing pipeline.
type PipelineDeps struct {
	Source       ports.ItemSource
	Deduplicator *dedup.Deduplicator
	Classifier   *classify.Classifier
	Persister    *Persister
	Notifier     ports.Notifier
	Workers      int
	Logger       *slog.Logger
}

// Pipeline processes raw items: duplicate suppression, classification with
// the tradability gate, then verified persistence. Items traverse
// independently under a bounded worker pool; per-item failures never abort
// the run.
type Pipeline struct {
	source       ports.ItemSource
	deduplicator *dedup.Deduplicator
	classifier   *classify.Classifier
	persister    *Persister
	notifier     ports.Notifier
	workers      int
	logger       *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	workers := deps.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Pipeline{
		source:       deps.Source,
		deduplicator: deps.Deduplicator,
		classifier:   deps.Classifier,
		persister:    deps.Persister,
		notifier:     deps.Notifier,
		workers:      workers,
		logger:       deps.Logger,
	}
}

// Run fetches a batch from the configured source and processes it.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.source == nil {
		return nil
	}

	items, err := p.source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch items: %w", err)
	}

	return p.Process(ctx, items)
}

// Process pushes every item through dedup, classification and persistence.
// Surviving inserts are collected into a digest for the notifier.
func (p *Pipeline) Process(ctx context.Context, items []domain.RawItem) error {
	log := p.logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("run_id", uuid.NewString())
	log.Info("processing batch", "items", len(items))

	var (
		mu     sync.Mutex
		stored []storedSignal
	)

	// The group context dies once Wait returns; the notifier below must
	// run on the caller's context.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for _, item := range items {
		item := item
		g.Go(func() error {
			if signal, ok := p.processItem(gctx, log, item); ok {
				mu.Lock()
				stored = append(stored, signal)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	log.Info("batch complete", "stored", len(stored), "total_inserted", p.persister.Inserted())

	if p.notifier != nil && len(stored) > 0 {
		if err := p.notifier.PublishDigest(ctx, buildDigest(stored)); err != nil {
			log.Warn("publish digest failed", "error", err)
		}
	}

	return nil
}

func (p *Pipeline) processItem(ctx context.Context, log *slog.Logger, item domain.RawItem) (storedSignal, bool) {
	if !p.deduplicator.Accept(item) {
		return storedSignal{}, false
	}

	cls, ok := p.classifier.Classify(ctx, item)
	if !ok {
		return storedSignal{}, false
	}

	outcome, article, err := p.persister.Persist(ctx, item, cls)
	if err != nil {
		log.Error("persist failed", "title", item.Title, "outcome", outcome.String(), "error", err)
		return storedSignal{}, false
	}
	log.Debug("item persisted", "title", item.Title, "outcome", outcome.String())

	if outcome != OutcomeInserted {
		return storedSignal{}, false
	}

	// Report the stored row, not the pre-persistence classification: the
	// persister may have rewritten the instrument name with a verified
	// symbol.
	return storedSignal{
		Title:          article.Title,
		URL:            article.SourceURL,
		Instrument:     article.InstrumentName,
		InstrumentType: article.InstrumentType,
		Recommendation: article.Recommendation,
		Confidence:     article.ConfidenceScore,
	}, true
}

type storedSignal struct {
	Title          string
	URL            string
	Instrument     string
	InstrumentType domain.InstrumentType
	Recommendation domain.Recommendation
	Confidence     int
}

func buildDigest(signals []storedSignal) string {
	var formatted string
	for _, s := range signals {
		formatted += fmt.Sprintf("- %s\n%s %s (%s, confidence %d)\n%s\n\n",
			s.Title,
			s.Recommendation,
			s.Instrument,
			s.InstrumentType,
			s.Confidence,
			s.URL)
	}
	return formatted
}

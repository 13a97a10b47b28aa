package dedup

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/VictorSaf/ainvestorhood5/internal/domain"
)

const (
	// DefaultWindow bounds how many recent titles the soft check compares
	// against. A tunable recall/cost trade-off, not a correctness bound.
	DefaultWindow = 2000

	// DefaultThreshold is the Jaccard similarity at which two normalized
	// titles are considered the same story.
	DefaultThreshold = 0.8
)

// Deduplicator rejects exact duplicates by content fingerprint and probable
// duplicates by title similarity. Safe for concurrent use; all state lives
// behind one mutex so two items with the same fingerprint can never both be
// accepted.
type Deduplicator struct {
	mu        sync.Mutex
	seen      map[string]struct{}
	titles    []map[string]struct{}
	next      int
	window    int
	threshold float64
	logger    *slog.Logger
}

// New builds a Deduplicator with the given recent-title window size and
// similarity threshold. Non-positive or out-of-range values fall back to
// the defaults.
func New(window int, threshold float64, logger *slog.Logger) *Deduplicator {
	if window <= 0 {
		window = DefaultWindow
	}
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Deduplicator{
		seen:      map[string]struct{}{},
		window:    window,
		threshold: threshold,
		logger:    logger,
	}
}

// Accept reports whether the item is new. Exact duplicates (same
// fingerprint) and near duplicates (title Jaccard >= threshold against the
// recent window) are rejected. Rejected near duplicates keep their
// fingerprint in the seen set but do not enter the title window.
func (d *Deduplicator) Accept(item domain.RawItem) bool {
	fp := Fingerprint(Identifier(item))

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[fp]; ok {
		d.debug("exact duplicate", item.Title)
		return false
	}
	d.seen[fp] = struct{}{}

	tokens := tokenSet(NormalizeTitle(item.Title))
	if len(tokens) > 0 {
		for _, prev := range d.titles {
			if jaccard(tokens, prev) >= d.threshold {
				d.debug("near duplicate", item.Title)
				return false
			}
		}
	}

	d.remember(tokens)
	return true
}

// Seen reports how many distinct fingerprints have been observed.
func (d *Deduplicator) Seen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

func (d *Deduplicator) remember(tokens map[string]struct{}) {
	if len(tokens) == 0 {
		return
	}
	if len(d.titles) < d.window {
		d.titles = append(d.titles, tokens)
		return
	}
	d.titles[d.next] = tokens
	d.next = (d.next + 1) % d.window
}

func (d *Deduplicator) debug(reason, title string) {
	if d.logger != nil {
		d.logger.Debug("item rejected", "reason", reason, "title", title)
	}
}

func tokenSet(normalized string) map[string]struct{} {
	fields := strings.Fields(normalized)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// jaccard computes |A∩B| / |A∪B| over token sets. Empty sets never match
// (the 0/0 case is treated as no similarity).
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for t := range a {
		if _, ok := b[t]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

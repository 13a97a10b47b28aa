package ports

import (
	"context"
	"errors"

	"github.com/VictorSaf/ainvestorhood5/internal/domain"
)

// ErrDuplicateArticle reports that a row with the same content hash already
// exists. Repositories map storage-level unique violations to it; callers
// treat it as success-no-op.
var ErrDuplicateArticle = errors.New("article already stored")

// ItemSource pulls fresh raw items from upstream feeds.
type ItemSource interface {
	Fetch(ctx context.Context) ([]domain.RawItem, error)
}

// AnalysisRequest carries the item fields sent to the remote analyzer.
type AnalysisRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

// Analysis is the remote analyzer verdict before normalization. Fields are
// raw strings; the classifier owns label normalization and the HOLD policy.
type Analysis struct {
	InstrumentType  string
	InstrumentName  string
	Recommendation  string
	ConfidenceScore int
	Summary         string
}

// Analyzer sends an item to the remote analysis capability. Any transport
// failure or malformed payload surfaces as an error; callers treat every
// error as recoverable and fall back to heuristics.
type Analyzer interface {
	Analyze(ctx context.Context, req AnalysisRequest) (Analysis, error)
}

// SymbolRequest carries the classification context for symbol verification.
type SymbolRequest struct {
	InstrumentType domain.InstrumentType `json:"instrument_type"`
	InstrumentName string                `json:"instrument_name"`
	Title          string                `json:"title"`
}

// SymbolResolver verifies an instrument name against the external symbol
// service. An empty symbol with a nil error means the service had no match.
type SymbolResolver interface {
	ResolveSymbol(ctx context.Context, req SymbolRequest) (string, error)
}

// ArticleRepository persists classified articles keyed by content hash.
type ArticleRepository interface {
	Exists(ctx context.Context, contentHash string) (bool, error)
	Insert(ctx context.Context, article domain.PersistedArticle) error
}

// Notifier publishes a digest of newly stored signals.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when collection runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func()) error
	Stop(ctx context.Context) error
}

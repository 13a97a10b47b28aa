package classify

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/VictorSaf/ainvestorhood5/internal/domain"
	"github.com/VictorSaf/ainvestorhood5/internal/ports"
)

const (
	// analysisContentLimit caps how much article body is sent to the
	// remote analyzer.
	analysisContentLimit = 5000

	heuristicAnalysis = "heuristic classification"
	fallbackAnalysis  = "Instrument could not be verified; defaulting to broad market index."

	// FallbackInstrumentName is the broad-market placeholder used when an
	// item is accepted without a recognizable instrument.
	FallbackInstrumentName = "SPY"
)

// FallbackInstrumentType pairs with FallbackInstrumentName.
const FallbackInstrumentType = domain.InstrumentIndices

var negativeExpr = regexp.MustCompile(`(?i)\b(down|plunge|drop|selloff|bearish|cut guidance|misses|fraud|lawsuit)\b`)

// Classifier turns a raw item into a classification via a remote-first,
// heuristic-fallback chain. Terminal outcomes are accept (result returned)
// or reject (ok=false, item dropped).
type Classifier struct {
	analyzer        ports.Analyzer
	allowUnverified bool
	logger          *slog.Logger
}

// NewClassifier wires the remote analyzer (nil forces the pure heuristic
// path) and the allow-unverified-instruments policy.
func NewClassifier(analyzer ports.Analyzer, allowUnverified bool, logger *slog.Logger) *Classifier {
	return &Classifier{
		analyzer:        analyzer,
		allowUnverified: allowUnverified,
		logger:          logger,
	}
}

// Classify runs the fallback chain for one item.
func (c *Classifier) Classify(ctx context.Context, item domain.RawItem) (domain.ClassificationResult, bool) {
	if c.analyzer == nil {
		return c.heuristic(item)
	}

	analysis, err := c.analyzer.Analyze(ctx, ports.AnalysisRequest{
		Title:   item.Title,
		Content: truncate(item.Content, analysisContentLimit),
		URL:     item.URL,
	})
	if err != nil {
		c.debug("remote analysis unavailable, using heuristics", "error", err)
		return c.heuristic(item)
	}

	// HOLD articles are never stored. Product policy, not a parsing limit.
	if strings.EqualFold(analysis.Recommendation, string(domain.RecommendationHold)) {
		c.debug("rejected", "reason", "hold recommendation", "title", item.Title)
		return domain.ClassificationResult{}, false
	}

	result := domain.ClassificationResult{
		InstrumentType:  domain.ParseInstrumentType(analysis.InstrumentType),
		InstrumentName:  strings.TrimSpace(analysis.InstrumentName),
		Recommendation:  domain.Recommendation(strings.ToUpper(strings.TrimSpace(analysis.Recommendation))),
		ConfidenceScore: analysis.ConfidenceScore,
		Analysis:        analysis.Summary,
	}
	if result.Recommendation == "" {
		result.Recommendation = domain.RecommendationHold
	}
	if result.ConfidenceScore == 0 {
		result.ConfidenceScore = 50
	}

	if IsTradable(result.InstrumentType, result.InstrumentName, item.Title) {
		return result, true
	}

	if kind, name, ok := Extract(item.Title, item.Content); ok {
		result.InstrumentType = kind
		result.InstrumentName = name
		return result, true
	}

	if c.allowUnverified {
		result.InstrumentType = FallbackInstrumentType
		result.InstrumentName = FallbackInstrumentName
		result.Analysis = fallbackAnalysis
		return result, true
	}

	c.debug("rejected", "reason", "untradable and unverified disallowed", "title", item.Title)
	return domain.ClassificationResult{}, false
}

// heuristic is the pure offline path: extractor match required, then
// recommendation from a negative-sentiment keyword scan. HOLD is never
// produced here.
func (c *Classifier) heuristic(item domain.RawItem) (domain.ClassificationResult, bool) {
	kind, name, ok := Extract(item.Title, item.Content)
	if !ok {
		c.debug("rejected", "reason", "no heuristic match", "title", item.Title)
		return domain.ClassificationResult{}, false
	}

	recommendation := domain.RecommendationBuy
	if negativeExpr.MatchString(item.Title + " " + item.Content) {
		recommendation = domain.RecommendationSell
	}

	return domain.ClassificationResult{
		InstrumentType:  kind,
		InstrumentName:  name,
		Recommendation:  recommendation,
		ConfidenceScore: 50,
		Analysis:        heuristicAnalysis,
	}, true
}

// IsTradable re-validates an instrument name against the pattern family of
// its type. An empty name is never tradable; neither is General or any
// type without a matcher tier (Bonds).
func IsTradable(kind domain.InstrumentType, name, title string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	text := name + " " + title
	for _, m := range matchers {
		if m.kind == kind {
			_, ok := m.match(text)
			return ok
		}
	}
	return false
}

func (c *Classifier) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
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

package domain

import (
	"strings"
	"time"
)

// InstrumentType names the market a tradable signal belongs to.
type InstrumentType string

const (
	InstrumentStocks      InstrumentType = "Stocks"
	InstrumentForex       InstrumentType = "Forex"
	InstrumentCrypto      InstrumentType = "Crypto"
	InstrumentCommodities InstrumentType = "Commodities"
	InstrumentIndices     InstrumentType = "Indices"
	InstrumentBonds       InstrumentType = "Bonds"
	InstrumentGeneral     InstrumentType = "General"
)

// instrumentSynonyms maps loose labels returned by external analyzers to
// canonical instrument types.
var instrumentSynonyms = map[string]InstrumentType{
	"stock":           InstrumentStocks,
	"stocks":          InstrumentStocks,
	"equity":          InstrumentStocks,
	"equities":        InstrumentStocks,
	"forex":           InstrumentForex,
	"fx":              InstrumentForex,
	"currency":        InstrumentForex,
	"currencies":      InstrumentForex,
	"crypto":          InstrumentCrypto,
	"cryptocurrency":  InstrumentCrypto,
	"crypto currency": InstrumentCrypto,
	"commodity":       InstrumentCommodities,
	"commodities":     InstrumentCommodities,
	"index":           InstrumentIndices,
	"indices":         InstrumentIndices,
	"indexes":         InstrumentIndices,
	"bond":            InstrumentBonds,
	"bonds":           InstrumentBonds,
	"general":         InstrumentGeneral,
}

// ParseInstrumentType normalizes a free-form type label. Unknown labels
// resolve to General.
func ParseInstrumentType(label string) InstrumentType {
	if t, ok := instrumentSynonyms[strings.ToLower(strings.TrimSpace(label))]; ok {
		return t
	}
	return InstrumentGeneral
}

// Recommendation is the trading action attached to a stored signal.
type Recommendation string

const (
	RecommendationBuy  Recommendation = "BUY"
	RecommendationSell Recommendation = "SELL"
	RecommendationHold Recommendation = "HOLD"
)

// RawItem is a news article as delivered by a feed source. Immutable once
// handed to the pipeline; PublishedDate stays the raw feed string until the
// persister normalizes it.
type RawItem struct {
	Title         string
	Content       string
	URL           string
	PublishedDate string
	Source        string
	Author        string
	Tags          []string
}

// ClassificationResult is produced once per item that survives dedup.
type ClassificationResult struct {
	InstrumentType  InstrumentType
	InstrumentName  string
	Recommendation  Recommendation
	ConfidenceScore int
	Analysis        string
}

// PersistedArticle is the row written to storage, keyed by ContentHash.
// Rows are created exactly once per unique fingerprint and never updated.
type PersistedArticle struct {
	Title           string
	Summary         string
	InstrumentType  InstrumentType
	InstrumentName  string
	Recommendation  Recommendation
	ConfidenceScore int
	SourceURL       string
	ContentHash     string
	PublishedAt     time.Time
}

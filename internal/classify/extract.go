package classify

import (
	"regexp"
	"strings"

	"github.com/VictorSaf/ainvestorhood5/internal/domain"
)

// matcher is one heuristic tier: a pure pattern over free text yielding an
// instrument name when it fires.
type matcher struct {
	kind  domain.InstrumentType
	match func(text string) (string, bool)
}

var (
	parenTickerExpr    = regexp.MustCompile(`\(([A-Z]{1,6})\)`)
	exchangeTickerExpr = regexp.MustCompile(`(?i)\b(?:nasdaq|nyse|amex|tsx|lse|sehk):\s?([A-Za-z]{1,6})\b`)
	forexPairExpr      = regexp.MustCompile(`\b([A-Z]{3})/?([A-Z]{3})\b`)
	cryptoTickerExpr   = regexp.MustCompile(`(?i)\b(BTC|ETH|SOL|ADA|XRP|DOGE|USDT|USDC|BNB)\b`)
	cryptoNameExpr     = regexp.MustCompile(`(?i)\b(bitcoin|ethereum|solana|cardano|ripple|dogecoin)\b`)
	commodityExpr      = regexp.MustCompile(`(?i)\b(gold|silver|oil|brent|wti|copper|corn|wheat|soy|natural gas)\b`)
	indexExpr          = regexp.MustCompile(`(?i)\b(s&p|nasdaq\s?100|nasdaq|dow jones|dax|ftse|nikkei|cac|hang seng|tsx)\b`)
)

var cryptoNames = map[string]string{
	"bitcoin":  "BTC",
	"ethereum": "ETH",
	"solana":   "SOL",
	"cardano":  "ADA",
	"ripple":   "XRP",
	"dogecoin": "DOGE",
}

// matchers is the fixed priority chain; first match wins, no scoring.
var matchers = []matcher{
	{domain.InstrumentStocks, matchStocks},
	{domain.InstrumentForex, matchForex},
	{domain.InstrumentCrypto, matchCrypto},
	{domain.InstrumentCommodities, matchCommodity},
	{domain.InstrumentIndices, matchIndex},
}

// Extract maps free text to an instrument candidate by walking the tier
// chain in priority order. Returns false when no tier fires.
func Extract(title, content string) (domain.InstrumentType, string, bool) {
	text := title + " " + content
	for _, m := range matchers {
		if name, ok := m.match(text); ok {
			return m.kind, name, true
		}
	}
	return domain.InstrumentGeneral, "", false
}

func matchStocks(text string) (string, bool) {
	if sub := parenTickerExpr.FindStringSubmatch(text); sub != nil {
		return sub[1], true
	}
	if sub := exchangeTickerExpr.FindStringSubmatch(text); sub != nil {
		return strings.ToUpper(sub[1]), true
	}
	return "", false
}

func matchForex(text string) (string, bool) {
	if sub := forexPairExpr.FindStringSubmatch(text); sub != nil {
		return sub[1] + "/" + sub[2], true
	}
	return "", false
}

func matchCrypto(text string) (string, bool) {
	if sub := cryptoTickerExpr.FindStringSubmatch(text); sub != nil {
		return strings.ToUpper(sub[1]), true
	}
	if sub := cryptoNameExpr.FindStringSubmatch(text); sub != nil {
		return cryptoNames[strings.ToLower(sub[1])], true
	}
	return "", false
}

func matchCommodity(text string) (string, bool) {
	if sub := commodityExpr.FindStringSubmatch(text); sub != nil {
		return titleCase(sub[1]), true
	}
	return "", false
}

func matchIndex(text string) (string, bool) {
	if indexExpr.MatchString(text) {
		// Generic placeholder; callers needing a tradable symbol must
		// resolve it further.
		return "Index", true
	}
	return "", false
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

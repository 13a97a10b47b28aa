package dedup

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/VictorSaf/ainvestorhood5/internal/domain"
)

var nonAlnumExpr = regexp.MustCompile(`[^a-z0-9]+`)

// Identifier returns the stable identity of an item: the URL when present,
// otherwise title and content concatenated.
func Identifier(item domain.RawItem) string {
	if item.URL != "" {
		return item.URL
	}
	return item.Title + item.Content
}

// Fingerprint hashes an identifier into the 128-bit hex digest used as the
// primary dedup key. Deterministic; no cryptographic strength required.
func Fingerprint(identifier string) string {
	sum := md5.Sum([]byte(identifier))
	return hex.EncodeToString(sum[:])
}

// NormalizeTitle lower-cases, replaces runs of non-alphanumeric characters
// with single spaces and trims. Used only for the soft-duplicate check.
func NormalizeTitle(text string) string {
	text = strings.ToLower(text)
	text = nonAlnumExpr.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

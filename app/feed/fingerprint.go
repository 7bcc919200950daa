package feed

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Strategy selects how an item is fingerprinted for deduplication
type Strategy string

const (
	StrategyURL       Strategy = "url"
	StrategyTitle     Strategy = "title"
	StrategyContent   Strategy = "content"
	StrategyTimestamp Strategy = "timestamp"
)

// fallbackOrder is the fixed priority used when the configured strategy's
// field is absent on an item
var fallbackOrder = []Strategy{StrategyContent, StrategyURL, StrategyTitle, StrategyTimestamp}

// ErrUnfingerprintable is returned when no strategy can be applied to an
// item. Such items are reported as skipped, never silently published.
var ErrUnfingerprintable = errors.New("item has no field any fingerprint strategy can use")

// trackingParams are query parameters stripped during URL normalization
var trackingParams = []string{"fbclid", "gclid", "igshid", "mc_cid", "mc_eid", "ref", "CMP", "ns_campaign", "ns_mchannel"}

// BuildFingerprint derives a stable identity key for an item. The configured
// strategy is tried first; when the field it depends on is absent, the fixed
// fallback order content, url, title, timestamp applies. The result is
// prefixed with the strategy that produced it so keys from different
// strategies never collide in the store.
func BuildFingerprint(item Item, strategy Strategy, granularity time.Duration) (string, error) {
	if fp, ok := applyStrategy(item, strategy, granularity); ok {
		return fp, nil
	}
	for _, fallback := range fallbackOrder {
		if fallback == strategy {
			continue
		}
		if fp, ok := applyStrategy(item, fallback, granularity); ok {
			return fp, nil
		}
	}
	return "", ErrUnfingerprintable
}

func applyStrategy(item Item, strategy Strategy, granularity time.Duration) (string, bool) {
	switch strategy {
	case StrategyURL:
		if item.Link == "" {
			return "", false
		}
		return "url:" + normalizeURL(item.Link), true
	case StrategyTitle:
		if item.Title == "" {
			return "", false
		}
		return "title:" + normalizeText(item.Title), true
	case StrategyContent:
		if item.Title == "" && item.Body == "" {
			return "", false
		}
		content := normalizeText(item.Title) + "|" + normalizeText(item.Body)
		hash := sha256.Sum256([]byte(content))
		return "content:" + hex.EncodeToString(hash[:]), true
	case StrategyTimestamp:
		if item.PublishedAt == nil || item.Source == "" {
			return "", false
		}
		rounded := item.PublishedAt.UTC().Truncate(granularity)
		return fmt.Sprintf("timestamp:%s@%s", item.Source, rounded.Format(time.RFC3339)), true
	}
	return "", false
}

// normalizeURL makes the link scheme-insensitive, strips tracking query
// parameters and the trailing slash, and lowercases the host
func normalizeURL(link string) string {
	parsed, err := url.Parse(link)
	if err != nil {
		return strings.TrimRight(link, "/")
	}

	query := parsed.Query()
	for param := range query {
		if strings.HasPrefix(param, "utm_") {
			query.Del(param)
			continue
		}
		for _, tracking := range trackingParams {
			if param == tracking {
				query.Del(param)
				break
			}
		}
	}

	host := strings.ToLower(parsed.Host)
	path := strings.TrimRight(parsed.Path, "/")

	normalized := host + path
	if encoded := query.Encode(); encoded != "" {
		normalized += "?" + encoded
	}
	return normalized
}

// normalizeText case-folds and collapses whitespace so that cosmetic
// differences between fetches of the same story do not change the key
func normalizeText(s string) string {
	return collapseWhitespace(cases.Fold().String(s))
}

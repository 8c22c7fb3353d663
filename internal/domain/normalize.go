package domain

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Field normalizers for raw JSON values. Each takes a decoded JSON value
// (string, float64, nil, ...) and returns either a cleaned typed value or
// ok=false when the value is absent or unsalvageable. Normalizers never
// error: bad input degrades to absence and the caller decides whether that
// deserves a quality issue.

var (
	emailPattern  = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	handlePattern = regexp.MustCompile(`^[A-Za-z0-9._]+$`)
	moneyCleaner  = regexp.MustCompile(`[,$]`)
)

// platformNames maps lowercased input to the canonical platform label.
var platformNames = map[string]string{
	"tiktok":    "TikTok",
	"instagram": "Instagram",
	"facebook":  "Facebook",
	"youtube":   "YouTube",
	"twitter":   "Twitter",
	"unknown":   UnknownLabel,
}

// dateLayouts are tried in order after RFC 3339 parsing fails.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"02/01/2006",
}

// NormalizeID accepts an opaque identifier string and parses it as a UUID.
// Empty, missing, or unparsable identifiers are absent; fresh identities are
// generated later during transform.
func NormalizeID(v any) (uuid.UUID, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// NormalizeEmail lowercases a valid local@domain.tld address. The literal
// "invalid-email" placeholder shows up in real exports and is treated as
// absent.
func NormalizeEmail(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" || s == "invalid-email" {
		return "", false
	}
	if !emailPattern.MatchString(s) {
		return "", false
	}
	return strings.ToLower(s), true
}

// NormalizeName trims display names. "???" is a known placeholder.
func NormalizeName(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" || s == "???" {
		return "", false
	}
	return s, true
}

// NormalizeHandle strips a leading @, validates the handle body, and
// re-prefixes with @ so handles are stored uniformly.
func NormalizeHandle(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimLeft(strings.TrimSpace(s), "@")
	if s == "" || !handlePattern.MatchString(s) {
		return "", false
	}
	return "@" + s, true
}

// NormalizeDate parses RFC 3339 first (with fractional seconds and Z
// offsets), then falls back through the fixed layout list. First match wins.
func NormalizeDate(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	if s == "" || s == "not-a-date" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizePlatform canonicalizes platform labels ("tiktok" -> "TikTok").
// Numeric input is a data-entry error and maps to absent; the caller logs it.
func NormalizePlatform(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		// Numbers decode as float64; anything non-string is invalid.
		return "", false
	}
	name, ok := platformNames[strings.ToLower(strings.TrimSpace(s))]
	return name, ok
}

// NormalizeBrand keeps brand labels as trimmed, case-preserved strings.
// Numeric brands are data-entry errors and map to absent.
func NormalizeBrand(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

// NormalizeMoney parses monetary amounts. Numbers pass through; strings are
// stripped of currency symbols and thousands separators first. "no-data" is a
// known placeholder.
func NormalizeMoney(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), true
	case string:
		n = strings.TrimSpace(n)
		if n == "" || n == "no-data" {
			return decimal.Decimal{}, false
		}
		d, err := decimal.NewFromString(moneyCleaner.ReplaceAllString(n, ""))
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	default:
		return decimal.Decimal{}, false
	}
}

// NormalizeCounter parses engagement counters (likes, comments, shares,
// reach, impressions). "NaN" strings are a known placeholder; negative
// counts are floored at zero.
func NormalizeCounter(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return max(0, int64(n)), true
	case string:
		n = strings.TrimSpace(n)
		if n == "" || n == "NaN" {
			return 0, false
		}
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, false
		}
		return max(0, parsed), true
	default:
		return 0, false
	}
}

// NormalizeRate parses engagement rates as floats.
func NormalizeRate(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		n = strings.TrimSpace(n)
		if n == "" || n == "NaN" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// NormalizeURL requires an http(s) scheme. "broken_link" is a known
// placeholder.
func NormalizeURL(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" || s == "broken_link" {
		return "", false
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return "", false
	}
	return s, true
}

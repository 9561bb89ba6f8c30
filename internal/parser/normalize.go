package parser

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalise folds case and accents and reduces raw to space separated words,
// so "Smöker_1" and "smoker 1" compare equal.
func Normalise(raw string) string {
	return normaliseInput(raw)
}

func foldAccents(raw string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, raw)
	if err != nil {
		return raw
	}
	return out
}

func normaliseInput(raw string) string {
	raw = strings.TrimSpace(cases.Fold().String(foldAccents(raw)))
	if raw == "" {
		return ""
	}
	rs := []rune(raw)
	var b strings.Builder
	lastSpace := true
	for i, r := range rs {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		next := rune(0)
		if i+1 < len(rs) {
			next = rs[i+1]
		}
		// Keep signs and decimal points that belong to numbers, e.g. "-4.5".
		if r == '-' && lastSpace && unicode.IsDigit(next) {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if r == '.' && !lastSpace && i > 0 && unicode.IsDigit(rs[i-1]) && unicode.IsDigit(next) {
			b.WriteRune(r)
			continue
		}
		if unicode.IsSpace(r) || r == '-' || r == '_' || r == '/' || r == '\'' {
			if !lastSpace {
				b.WriteByte(' ')
			}
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

func tokenise(normalised string) []string {
	if strings.TrimSpace(normalised) == "" {
		return nil
	}
	return strings.Fields(normalised)
}

// parseQuantityToken reads "12", "all", "3h"/"3hours" and "2d"/"2days".
func parseQuantityToken(token string) *Quantity {
	token = strings.TrimSpace(strings.ToLower(token))
	if token == "" {
		return nil
	}
	if token == "all" {
		return &Quantity{Raw: token, N: -1, Unit: "all"}
	}
	if n, err := strconv.Atoi(token); err == nil && n >= 0 {
		return &Quantity{Raw: token, N: n, Unit: "count"}
	}
	for _, u := range []struct {
		unit     string
		suffixes []string
	}{
		{"hours", []string{"hours", "hour", "hr", "h"}},
		{"days", []string{"days", "day", "d"}},
	} {
		for _, suffix := range u.suffixes {
			if !strings.HasSuffix(token, suffix) {
				continue
			}
			if v, err := strconv.Atoi(strings.TrimSuffix(token, suffix)); err == nil && v >= 0 {
				return &Quantity{Raw: token, N: v, Unit: u.unit}
			}
		}
	}
	return nil
}

func isPronoun(token string) bool {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "it", "that", "this", "there":
		return true
	default:
		return false
	}
}

// ParseSwitch maps on/off style words to a bool.
func ParseSwitch(token string) (bool, bool) {
	switch normaliseInput(token) {
	case "on", "yes", "true", "lit", "light", "1":
		return true, true
	case "off", "no", "false", "out", "0":
		return false, true
	default:
		return false, false
	}
}

package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	adminSuffix = "county"
	fipsWidth   = 5
)

// quoteCutset is trimmed from both ends of raw keys. Exports wrap cells in
// straight or typographic quotes.
const quoteCutset = " \t\r\n\"'“”‘’"

// NormalizeName canonicalizes a county name for direct lookups: surrounding
// whitespace and quotes are trimmed, the string is lower-cased, and a
// trailing "county" token is removed. Inner spaces are kept so keys stay
// readable in diagnostics. Returns "" when nothing remains.
func NormalizeName(raw string) NormalizedKey {
	s := strings.ToLower(strings.Trim(raw, quoteCutset))
	s = strings.Join(strings.Fields(s), " ")
	if s == adminSuffix {
		return ""
	}
	if strings.HasSuffix(s, " "+adminSuffix) {
		s = strings.TrimSpace(strings.TrimSuffix(s, adminSuffix))
	}
	return NormalizedKey(s)
}

// NormalizeStrict is the cross-dataset variant of [NormalizeName]: accents
// are folded and every rune that is not a letter or digit is removed, so
// "De Kalb", "DeKalb" and "De-Kalb County" share one key.
func NormalizeStrict(raw string) NormalizedKey {
	loose := string(NormalizeName(raw))
	if loose == "" {
		return ""
	}
	folded, _, err := transform.String(foldAccents(), loose)
	if err != nil {
		folded = loose
	}
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return NormalizedKey(b.String())
}

// foldAccents decomposes runes and drops combining marks ("é" -> "e").
// A transformer carries state, so a fresh chain is built per call.
func foldAccents() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// NormalizeFIPS canonicalizes a FIPS code: non-digit characters are
// stripped and short codes are left-padded with zeros to five digits.
// Codes that are empty or longer than five digits after stripping are
// rejected.
func NormalizeFIPS(raw string) (NormalizedKey, bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" || len(digits) > fipsWidth {
		return "", false
	}
	if len(digits) < fipsWidth {
		digits = strings.Repeat("0", fipsWidth-len(digits)) + digits
	}
	return NormalizedKey(digits), true
}

// KeyVariants returns the suffix-free and suffixed forms of a county name,
// for sources that include "County" inconsistently. Invalid names yield
// no variants.
func KeyVariants(raw string) []NormalizedKey {
	base := NormalizeName(raw)
	if !base.Valid() {
		return nil
	}
	return []NormalizedKey{base, base + " " + adminSuffix}
}

// Package promo implements the discount identity and diff engine: canonical
// text normalization, deterministic key generation, generation-to-generation
// diffing, and cross-source gap reporting. It is intentionally pure and
// dependency-light, but engineered with production-grade ergonomics:
//
//   - No logging in the library (callers decide how/what to log)
//   - Pure, total functions over in-memory values; inputs are never mutated
//   - Deterministic output ordering (stable results across runs)
//   - No I/O, no locks, safe for concurrent use on independent inputs
//
// This file provides the normalizers: total string → string functions that
// canonicalize free-text fragments (store names, payment-method names,
// weekday names) into a small fixed vocabulary tolerant of accents, casing,
// whitespace, emoji, and common synonyms. All normalizers are idempotent:
// normalize(normalize(x)) == normalize(x).
package promo

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// accentFold decomposes to NFD, drops combining marks, and recomposes, so
// "crédito" becomes "credito" and "miércoles" becomes "miercoles".
var accentFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// stripAccents removes diacritical marks from s. On transform failure the
// input is returned unchanged (the normalizers must stay total).
func stripAccents(s string) string {
	out, _, err := transform.String(accentFold, s)
	if err != nil {
		return s
	}
	return out
}

// stripSpaces removes every Unicode whitespace rune from s.
func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// storeNoise lists tokens that distinguish banners of the same retailer
// ("Carrefour Express", "Carrefour Maxi") but not the retailer itself.
var storeNoise = strings.NewReplacer(
	"online", "",
	"express", "",
	"maxi", "",
	"+", "",
)

// NormalizeStoreName canonicalizes a free-text store name: lowercase, accents
// folded to ASCII, whitespace removed, and banner noise tokens stripped, so
// "Carrefour Express", "Carrefour Online" and "CARREFOUR" all share a common
// prefix usable for substring matching. Unrecognized input passes through
// lowercased and stripped; the function never fails.
func NormalizeStoreName(text string) string {
	return storeNoise.Replace(stripSpaces(stripAccents(strings.ToLower(text))))
}

// paymentSynonyms folds brand/type spellings onto short canonical tokens.
// "mastercard" must collapse before the generic "card" strip runs.
var paymentSynonyms = strings.NewReplacer(
	"mastercard", "master",
	"tarjeta", "",
	"card", "",
	"banco", "",
	"credito", "cred",
	"debito", "deb",
)

// NormalizePaymentMethod canonicalizes a free-text payment-method name:
// lowercase, accents folded, whitespace and the 🔥 emoji removed, the generic
// words "tarjeta"/"card"/"banco" stripped, and common synonyms mapped
// ("crédito"→"cred", "débito"→"deb", "mastercard"→"master"). Total and
// idempotent; unrecognized input passes through lowercased and stripped.
func NormalizePaymentMethod(text string) string {
	s := stripSpaces(stripAccents(strings.ToLower(text)))
	s = strings.ReplaceAll(s, "🔥", "")
	return paymentSynonyms.Replace(s)
}

// weekdayNames maps English and Spanish weekday spellings (lowercase, accents
// folded) onto one canonical Spanish token. Canonical tokens map to themselves
// so the function is idempotent.
var weekdayNames = map[string]string{
	"monday":    "lunes",
	"lunes":     "lunes",
	"tuesday":   "martes",
	"martes":    "martes",
	"wednesday": "miercoles",
	"miercoles": "miercoles",
	"thursday":  "jueves",
	"jueves":    "jueves",
	"friday":    "viernes",
	"viernes":   "viernes",
	"saturday":  "sabado",
	"sabado":    "sabado",
	"sunday":    "domingo",
	"domingo":   "domingo",
}

// NormalizeWeekday maps an English or Spanish weekday name (case- and
// accent-insensitive) to its canonical Spanish lowercase token
// ("lunes"…"domingo"). Unrecognized input is lowercased, accent-folded and
// returned as-is; the function never fails.
func NormalizeWeekday(text string) string {
	s := stripAccents(strings.ToLower(strings.TrimSpace(text)))
	if canon, ok := weekdayNames[s]; ok {
		return canon
	}
	return s
}

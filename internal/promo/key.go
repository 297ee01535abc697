// Key generation.
//
// A discount has two derived identifiers:
//
//   - The base key encodes its identity without the validity window:
//     source, discount kind+value, payment tokens, weekday marker, limit
//     marker. It is stable when a retailer re-publishes the same offer with
//     new dates.
//   - The full key is the base identity with a compact MMDD-MMDD window
//     inserted after the kind token. It changes whenever the dates change
//     and is the unit of exact-duplicate detection between generations.
//
// Both are pure, deterministic, lowercase, hyphen-joined, and bounded in
// length. Keys are built from the record's fields by two explicit derivations
// sharing one token computation; there is no string surgery on a combined key.
package promo

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/promowatch/go-promo-backend/internal/domain"
)

const (
	// tokenAnyPayment marks a discount with no payment-method restriction.
	tokenAnyPayment = "any"
	// tokenEveryDay marks a discount valid on every weekday.
	tokenEveryDay = "todos"
	// tokenNoLimit marks an explicitly uncapped discount ("sin tope").
	tokenNoLimit = "notope"

	minKeyLen = 15
	maxKeyLen = 80
)

// BaseKey derives the date-insensitive identity key of a discount.
//
// Two discounts share a base key exactly when they are the same offer modulo
// validity period: same source, kind and value, payment-combination shape,
// weekday set marker, and limit marker. Offers differing only in their cap
// ("sin tope" vs "tope $3000") never share a key.
func BaseKey(d domain.Discount) string {
	return assembleKey(keyPrefix(d), "", identityTokens(d))
}

// FullKey derives the exact-match key of a discount: the base identity with
// the validity window (month/day only) inserted after the kind token. The
// year is deliberately dropped so the full key stays compact; exact-duplicate
// detection operates within adjacent scrape generations where the year is
// unambiguous.
func FullKey(d domain.Discount) string {
	return assembleKey(keyPrefix(d), windowToken(d), identityTokens(d))
}

// keyPrefix renders "source-kindvalue", e.g. "carrefour-porcentaje15" or
// "coto-cuotassinintereses18".
func keyPrefix(d domain.Discount) string {
	return cleanToken(string(d.Source)) + "-" +
		cleanToken(string(d.Discount.Type)) + numberToken(d.Discount.Value)
}

// identityTokens renders the payment, weekday and limit tokens shared by the
// base and full keys, in that order. The limit token is omitted when the
// record carries no limit information.
func identityTokens(d domain.Discount) []string {
	toks := paymentTokens(d.PaymentMethods)
	toks = append(toks, weekdayToken(d.Weekdays))
	if lt := limitToken(d.Limits); lt != "" {
		toks = append(toks, lt)
	}
	return toks
}

// paymentTokens reduces the two-level combination list to a short, stable
// token sequence:
//
//   - no combinations (or an empty first combination) → the "any" sentinel
//   - first combination's first method, normalized
//   - "xN" when the first combination requires N>1 methods together
//   - the second combination's first method when alternatives exist
//   - "cN" when more than two alternative combinations exist
//
// The leg-count and combo-count markers keep differently-shaped combination
// sets distinguishable without serializing every method into the key.
func paymentTokens(combos []domain.PaymentCombo) []string {
	if len(combos) == 0 || len(combos[0]) == 0 {
		return []string{tokenAnyPayment}
	}
	toks := []string{methodToken(combos[0][0])}
	if len(combos[0]) > 1 {
		toks = append(toks, "x"+strconv.Itoa(len(combos[0])))
	}
	if len(combos) > 1 && len(combos[1]) > 0 {
		toks = append(toks, methodToken(combos[1][0]))
	}
	if len(combos) > 2 {
		toks = append(toks, "c"+strconv.Itoa(len(combos)))
	}
	return toks
}

// methodToken normalizes a payment-method name into key charset; a name that
// normalizes to nothing (pure emoji/noise) degrades to the "any" sentinel
// rather than producing an empty token.
func methodToken(method string) string {
	if t := cleanToken(NormalizePaymentMethod(method)); t != "" {
		return t
	}
	return tokenAnyPayment
}

// weekdayToken renders the first applicable weekday, or the every-day
// sentinel when the offer has no weekday restriction.
func weekdayToken(weekdays []string) string {
	if len(weekdays) > 0 {
		if t := cleanToken(NormalizeWeekday(weekdays[0])); t != "" {
			return t
		}
	}
	return tokenEveryDay
}

// limitToken renders the cap marker: "notope" for explicitly uncapped offers,
// "max<N>" for a numeric cap, empty when the cap is unknown.
func limitToken(l domain.Limits) string {
	if l.ExplicitlyHasNoLimit {
		return tokenNoLimit
	}
	if l.MaxDiscount != nil {
		return "max" + numberToken(*l.MaxDiscount)
	}
	return ""
}

// windowToken renders "MMDD-MMDD" from the validity dates. A date that fails
// to parse degrades to "0000" so one malformed record yields a degenerate
// (but valid and keyable) token instead of an error.
func windowToken(d domain.Discount) string {
	return mmdd(d.ValidFrom) + "-" + mmdd(d.ValidUntil)
}

func mmdd(iso string) string {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return "0000"
	}
	return t.Format("0102")
}

// numberToken renders a numeric value in key charset. Integral values render
// without a fraction; a fractional part keeps its digits with the separator
// replaced ("2.5" → "2p5") so nearby values never collide.
func numberToken(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	s = strings.ReplaceAll(s, "-", "")
	return strings.ReplaceAll(s, ".", "p")
}

// cleanToken lowercases s and drops every rune outside [a-z0-9].
func cleanToken(s string) string {
	s = stripAccents(strings.ToLower(s))
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, s)
}

// assembleKey joins prefix, optional window token and identity tokens with
// hyphens and clamps the result to the practical length cap.
func assembleKey(prefix, window string, tokens []string) string {
	parts := make([]string, 0, len(tokens)+2)
	parts = append(parts, prefix)
	if window != "" {
		parts = append(parts, window)
	}
	parts = append(parts, tokens...)
	key := strings.Join(parts, "-")
	if len(key) > maxKeyLen {
		key = strings.TrimRight(key[:maxKeyLen], "-")
	}
	return key
}

// keyPattern matches the expected shape: lowercase source, hyphen, lowercase
// kind token followed by digits, then hyphen-separated alphanumeric tokens.
var keyPattern = regexp.MustCompile(`^[a-z]+-[a-z]+[0-9][a-z0-9]*(?:-[a-z0-9]+)*$`)

// ValidateKey reports whether key matches the generated token pattern and the
// practical length bounds. The generator cannot produce an invalid key by
// construction; this is for callers that hand-construct or convert keys from
// foreign data.
func ValidateKey(key string) bool {
	return len(key) >= minKeyLen && len(key) <= maxKeyLen && keyPattern.MatchString(key)
}

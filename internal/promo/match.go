// Cross-source gap reporting.
//
// GapReport reconciles this system's discount records against an
// independently scraped third-party feed describing the same real-world
// promotions. The feed is loosely structured free text, so matching is
// deliberately approximate: store names match by substring containment in
// either direction, the discount value is the first "NN%" occurrence in the
// free-text field, and the comparison key is coarser than the generated
// discount key (store, kind, value, sorted payment methods — weekday and
// limit are too noisy cross-source). Entries that cannot be matched or parsed
// are skipped, never fatal: this is a monitoring aid, not a system of record.
package promo

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/promowatch/go-promo-backend/internal/domain"
)

// FeedEntry is one loosely structured record from a third-party discount
// feed. Every field is free text; PaymentMethod and Weekday are optional.
type FeedEntry struct {
	Store         string `json:"store"`
	Discount      string `json:"discount"`
	PaymentMethod string `json:"paymentMethod,omitempty"`
	Weekday       string `json:"weekday,omitempty"`
}

// GapEntry is one third-party offer with no matching counterpart on our side.
type GapEntry struct {
	Store          string   `json:"store"`
	Percentage     float64  `json:"percentage"`
	PaymentMethods []string `json:"payment_methods,omitempty"`
	Weekday        string   `json:"weekday,omitempty"`
}

// StoreGap aggregates coverage for one known source: how many third-party
// entries matched the store, how many records we hold, how many entries were
// skipped for lacking a parseable percentage, and the offers we are missing
// sorted by discount value descending (most valuable gaps first).
type StoreGap struct {
	Source  domain.Source `json:"source"`
	Theirs  int           `json:"theirs"`
	Ours    int           `json:"ours"`
	Skipped int           `json:"skipped"`
	Missing []GapEntry    `json:"missing"`
}

// percentPattern captures the first numeric percentage in free text, e.g.
// "Hasta 25% de descuento" → 25. Decimal commas and points are accepted.
var percentPattern = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*%`)

// GapReport compares our records against a third-party feed and returns one
// StoreGap per known source that the feed mentions, in the fixed source
// order. Sources absent from the feed are omitted. The inputs are never
// mutated and malformed feed entries degrade to skips.
func GapReport(ours []domain.Discount, feed []FeedEntry) []StoreGap {
	oursBySource := make(map[domain.Source][]domain.Discount)
	for _, d := range ours {
		oursBySource[d.Source] = append(oursBySource[d.Source], d)
	}

	report := make([]StoreGap, 0)
	for _, src := range domain.KnownSources() {
		matched := matchFeedStore(feed, src)
		if len(matched) == 0 {
			continue
		}

		ourKeys := make(map[string]struct{})
		for _, d := range oursBySource[src] {
			ourKeys[ourCompareKey(src, d)] = struct{}{}
		}

		gap := StoreGap{Source: src, Theirs: len(matched), Ours: len(oursBySource[src])}
		for _, e := range matched {
			pct, ok := extractPercentage(e.Discount)
			if !ok {
				gap.Skipped++
				continue
			}
			methods := feedMethods(e.PaymentMethod)
			if _, covered := ourKeys[compareKey(src, pct, methods)]; covered {
				continue
			}
			entry := GapEntry{
				Store:          e.Store,
				Percentage:     pct,
				PaymentMethods: methods,
			}
			if e.Weekday != "" {
				entry.Weekday = NormalizeWeekday(e.Weekday)
			}
			gap.Missing = append(gap.Missing, entry)
		}

		sort.SliceStable(gap.Missing, func(a, b int) bool {
			if gap.Missing[a].Percentage != gap.Missing[b].Percentage {
				return gap.Missing[a].Percentage > gap.Missing[b].Percentage
			}
			return gap.Missing[a].Store < gap.Missing[b].Store
		})
		report = append(report, gap)
	}
	return report
}

// matchFeedStore selects feed entries whose normalized store name contains,
// or is contained by, the source identifier. Containment in either direction
// absorbs both "Carrefour Express" → "carrefour" and truncated feed names.
func matchFeedStore(feed []FeedEntry, src domain.Source) []FeedEntry {
	id := string(src)
	out := make([]FeedEntry, 0)
	for _, e := range feed {
		ns := NormalizeStoreName(e.Store)
		if ns == "" {
			continue
		}
		if strings.Contains(ns, id) || strings.Contains(id, ns) {
			out = append(out, e)
		}
	}
	return out
}

// extractPercentage pulls the first NN% value out of free text. Entries with
// no extractable numeric percentage are discarded by the caller.
func extractPercentage(text string) (float64, bool) {
	m := percentPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// feedMethods normalizes the optional free-text payment-method field into a
// sorted token list. Multiple methods may arrive separated by commas,
// slashes or plus signs.
func feedMethods(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == '/' || r == '+'
	})
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		t := NormalizePaymentMethod(p)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// ourCompareKey builds the coarse comparison key for one of our records:
// only percentage-type discounts are comparable against a percentage feed.
// Non-percentage records key under their kind token and therefore never
// collide with feed keys.
func ourCompareKey(src domain.Source, d domain.Discount) string {
	if d.Discount.Type != domain.DiscountPercentage {
		return string(src) + "|" + string(d.Discount.Type) + "|" + numberToken(d.Discount.Value)
	}
	return compareKey(src, d.Discount.Value, flattenMethods(d.PaymentMethods))
}

// compareKey renders "source|porcentaje|value|m1,m2" with methods already
// normalized and sorted.
func compareKey(src domain.Source, pct float64, methods []string) string {
	return string(src) + "|" + string(domain.DiscountPercentage) + "|" +
		numberToken(pct) + "|" + strings.Join(methods, ",")
}

// flattenMethods folds every method of every combination into one sorted,
// deduplicated token list. The AND/OR structure is intentionally dropped
// here: cross-source text is too noisy to match combination shapes.
func flattenMethods(combos []domain.PaymentCombo) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, combo := range combos {
		for _, m := range combo {
			t := NormalizePaymentMethod(m)
			if t == "" {
				continue
			}
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

// Diff engine.
//
// Diff compares two generations of one source's discount set by full key and
// classifies every record as added, removed, unchanged, or "same offer with a
// changed validity period". The latter case is detected by pairing a removed
// full key with an added full key that shares the same base key, which models
// the common real-world event of a retailer re-publishing an offer with new
// dates; reporting it as one period change instead of a spurious add+remove
// pair keeps notifications honest.
//
// The result is independent of input ordering: keys are compared through
// hash maps and every output slice is sorted.
package promo

import (
	"sort"
	"strings"

	"github.com/promowatch/go-promo-backend/internal/domain"
)

// ValidityChange reports one offer whose identity survived between
// generations while its validity window moved.
type ValidityChange struct {
	BaseKey   string `json:"base_key"`
	OldPeriod string `json:"old_period"` // human-readable, e.g. "01/01–01/31"
	NewPeriod string `json:"new_period"`
	OldFull   string `json:"old_full_key"`
	NewFull   string `json:"new_full_key"`
}

// Changes is the structured diff between two scrape generations.
// TotalOld/TotalNew are raw input lengths, preserved even when keys collide,
// so summary statistics stay truthful about record counts.
type Changes struct {
	Added           []string         `json:"added"`
	Removed         []string         `json:"removed"`
	ValidityChanged []ValidityChange `json:"validity_changed"`
	TotalOld        int              `json:"total_old"`
	TotalNew        int              `json:"total_new"`
}

// Empty reports whether the diff carries no changes of any class.
func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.ValidityChanged) == 0
}

// Diff computes the structured diff between a previous and a current
// generation of discount records. It is pure and deterministic; duplicate
// full keys within one generation are tolerated (the first record wins for
// classification, raw totals are kept).
func Diff(previous, current []domain.Discount) Changes {
	oldByFull := indexByFullKey(previous)
	newByFull := indexByFullKey(current)

	added := make([]string, 0)
	for k := range newByFull {
		if _, ok := oldByFull[k]; !ok {
			added = append(added, k)
		}
	}
	removed := make([]string, 0)
	for k := range oldByFull {
		if _, ok := newByFull[k]; !ok {
			removed = append(removed, k)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)

	// Pair removed and added keys that share a base key: same offer, new
	// period. First match in sorted order wins so the pairing is stable.
	addedByBase := make(map[string]string, len(added))
	for _, full := range added {
		base := BaseKey(newByFull[full])
		if _, ok := addedByBase[base]; !ok {
			addedByBase[base] = full
		}
	}

	changes := Changes{TotalOld: len(previous), TotalNew: len(current)}
	consumed := make(map[string]struct{}, len(added))

	for _, oldFull := range removed {
		old := oldByFull[oldFull]
		base := BaseKey(old)
		newFull, ok := addedByBase[base]
		if !ok {
			changes.Removed = append(changes.Removed, oldFull)
			continue
		}
		delete(addedByBase, base)
		consumed[newFull] = struct{}{}
		changes.ValidityChanged = append(changes.ValidityChanged, ValidityChange{
			BaseKey:   base,
			OldPeriod: Period(old),
			NewPeriod: Period(newByFull[newFull]),
			OldFull:   oldFull,
			NewFull:   newFull,
		})
	}

	for _, full := range added {
		if _, ok := consumed[full]; !ok {
			changes.Added = append(changes.Added, full)
		}
	}
	return changes
}

// indexByFullKey builds a full-key lookup over records. On duplicate keys the
// first record is kept; duplicates are an accepted, bounded property of the
// key space, never an error.
func indexByFullKey(records []domain.Discount) map[string]domain.Discount {
	m := make(map[string]domain.Discount, len(records))
	for _, d := range records {
		k := FullKey(d)
		if _, ok := m[k]; !ok {
			m[k] = d
		}
	}
	return m
}

// Period renders the validity window of a discount as "MM/DD–MM/DD" for
// human-readable diff output. Unparseable dates render as "??/??".
func Period(d domain.Discount) string {
	return periodPart(d.ValidFrom) + "–" + periodPart(d.ValidUntil)
}

func periodPart(iso string) string {
	if t := mmdd(iso); t != "0000" {
		return t[:2] + "/" + t[2:]
	}
	return "??/??"
}

// FormatKey pretty-prints a generated key for notification text: the source
// is uppercased, percentage and installment tokens are rendered with their
// unit, and MMDD date tokens become MM/DD pairs. Display-only; never use the
// output for identity comparisons.
func FormatKey(key string) string {
	tokens := strings.Split(key, "-")
	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch {
		case i == 0:
			out = append(out, strings.ToUpper(tok))
		case strings.HasPrefix(tok, "porcentaje") && len(tok) > len("porcentaje"):
			out = append(out, tok[len("porcentaje"):]+"%")
		case strings.HasPrefix(tok, "cuotassinintereses") && len(tok) > len("cuotassinintereses"):
			out = append(out, tok[len("cuotassinintereses"):]+" cuotas")
		case isDateToken(tok) && i+1 < len(tokens) && isDateToken(tokens[i+1]):
			out = append(out, tok[:2]+"/"+tok[2:]+"–"+tokens[i+1][:2]+"/"+tokens[i+1][2:])
			i++
		case isDateToken(tok):
			out = append(out, tok[:2]+"/"+tok[2:])
		default:
			out = append(out, tok)
		}
	}
	return strings.Join(out, " ")
}

func isDateToken(tok string) bool {
	if len(tok) != 4 {
		return false
	}
	for _, r := range tok {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

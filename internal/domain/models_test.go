package domain

import (
	"encoding/json"
	"testing"
)

func TestParseSource(t *testing.T) {
	for _, src := range KnownSources() {
		got, ok := ParseSource(string(src))
		if !ok || got != src {
			t.Fatalf("ParseSource(%q) = (%q, %v)", src, got, ok)
		}
	}
	if _, ok := ParseSource("walmart"); ok {
		t.Fatalf("unknown retailer must not parse")
	}
	if _, ok := ParseSource("Carrefour"); ok {
		t.Fatalf("source matching is exact, not case-folded")
	}
}

func TestKnownSources_StableOrder(t *testing.T) {
	a, b := KnownSources(), KnownSources()
	if len(a) != 6 {
		t.Fatalf("want 6 sources, got %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("source order must be deterministic: %v vs %v", a, b)
		}
	}
	if a[0] != SourceCarrefour {
		t.Fatalf("carrefour leads the fixed order, got %q", a[0])
	}
}

// The extraction schema nests payment methods two levels deep (OR of ANDs)
// and distinguishes "no cap published" from "explicitly uncapped".
func TestDiscount_SchemaShape(t *testing.T) {
	raw := `{
		"source": "carrefour",
		"discount": {"type": "porcentaje", "value": 15},
		"validFrom": "2025-01-01",
		"validUntil": "2025-01-31",
		"weekdays": ["Martes"],
		"paymentMethods": [["Tarjeta Crédito", "MODO"], ["Visa"]],
		"limits": {"explicitlyHasNoLimit": true}
	}`
	var d Discount
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.Source != SourceCarrefour || d.Discount.Type != DiscountPercentage || d.Discount.Value != 15 {
		t.Fatalf("value fields mismatch: %+v", d)
	}
	if len(d.PaymentMethods) != 2 || len(d.PaymentMethods[0]) != 2 || len(d.PaymentMethods[1]) != 1 {
		t.Fatalf("combination shape lost: %+v", d.PaymentMethods)
	}
	if !d.Limits.ExplicitlyHasNoLimit || d.Limits.MaxDiscount != nil {
		t.Fatalf("limits mismatch: %+v", d.Limits)
	}

	var capped Discount
	if err := json.Unmarshal([]byte(`{"limits":{"maxDiscount":3000}}`), &capped); err != nil {
		t.Fatalf("unmarshal capped: %v", err)
	}
	if capped.Limits.MaxDiscount == nil || *capped.Limits.MaxDiscount != 3000 {
		t.Fatalf("numeric cap lost: %+v", capped.Limits)
	}
}

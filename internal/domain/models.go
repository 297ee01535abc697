// Package domain defines the discount value types exchanged with the scraping
// pipeline and the persistence models for stored scrape snapshots. The value
// types mirror the extraction schema (JSON) and are immutable inputs to the
// promo engine; the persistence models are mapped with GORM and form the core
// data layer of the backend.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Source identifies a retailer whose promotions are scraped. It is a closed
// enum originating from this system's own schema, never from free text.
type Source string

// Known retailer sources.
const (
	SourceCarrefour Source = "carrefour"
	SourceCoto      Source = "coto"
	SourceDia       Source = "dia"
	SourceJumbo     Source = "jumbo"
	SourceChangomas Source = "changomas"
	SourceMakro     Source = "makro"
)

// KnownSources returns all retailer sources in a fixed, deterministic order.
func KnownSources() []Source {
	return []Source{
		SourceCarrefour,
		SourceCoto,
		SourceDia,
		SourceJumbo,
		SourceChangomas,
		SourceMakro,
	}
}

// ParseSource maps a raw string onto a known Source. The second return value
// reports whether the input named a known retailer.
func ParseSource(s string) (Source, bool) {
	for _, src := range KnownSources() {
		if string(src) == s {
			return src, true
		}
	}
	return "", false
}

// DiscountType classifies the kind of promotion.
type DiscountType string

// Supported discount kinds.
const (
	// DiscountPercentage is a straight percentage off the ticket.
	DiscountPercentage DiscountType = "porcentaje"
	// DiscountInstallments is a number of interest-free installments.
	DiscountInstallments DiscountType = "cuotas sin intereses"
)

// DiscountValue is the tagged value of a promotion: its kind plus the numeric
// magnitude (percent points or installment count).
type DiscountValue struct {
	Type  DiscountType `json:"type"`
	Value float64      `json:"value"`
}

// PaymentCombo is one combination of payment methods that must ALL be present
// together (AND) for the discount to apply. A Discount carries a list of
// alternative combinations (OR). The two-level shape is deliberate: collapsing
// to a flat list would lose the AND/OR distinction.
type PaymentCombo []string

// Limits describes the cap on a discount. ExplicitlyHasNoLimit means the
// retailer advertised "sin tope"; MaxDiscount carries a numeric cap when one
// was published. Both absent means the cap is simply unknown.
type Limits struct {
	MaxDiscount          *float64 `json:"maxDiscount,omitempty"`
	ExplicitlyHasNoLimit bool     `json:"explicitlyHasNoLimit"`
}

// Discount is one structured promotional-offer record produced by the
// extraction step. It is an immutable input: the engine derives keys, diffs
// and reports from it but never mutates it.
//
// Identity fields are Source, Discount, Weekdays, PaymentMethods and Limits.
// ValidFrom/ValidUntil participate only in the full key so the same recurring
// offer re-published with new dates is recognized as a period change.
// Restrictions, Where, URL and ExcludesProducts are display-only.
type Discount struct {
	Source           Source         `json:"source"`
	Discount         DiscountValue  `json:"discount"`
	ValidFrom        string         `json:"validFrom"`  // ISO YYYY-MM-DD
	ValidUntil       string         `json:"validUntil"` // ISO YYYY-MM-DD
	Weekdays         []string       `json:"weekdays,omitempty"`
	PaymentMethods   []PaymentCombo `json:"paymentMethods,omitempty"`
	Restrictions     []string       `json:"restrictions,omitempty"`
	Limits           Limits         `json:"limits"`
	Where            []string       `json:"where,omitempty"`
	URL              string         `json:"url,omitempty"`
	ExcludesProducts string         `json:"excludesProducts,omitempty"`
}

// Snapshot represents one scrape generation for a single source: the full set
// of discounts observed in one run. Snapshots are append-only; diffs are
// computed between consecutive (or arbitrary) snapshots of the same source.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Source: retailer the snapshot belongs to; indexed for retrieval.
//   - RecordCount: raw number of discount records ingested (pre-dedup).
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker (retains row for audit/history).
type Snapshot struct {
	ID          string         `json:"id"           gorm:"type:char(36);primaryKey"`
	Source      Source         `json:"source"       gorm:"type:varchar(32);not null;index:idx_source_snapshots"`
	RecordCount int            `json:"record_count" gorm:"not null"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"            gorm:"index"`
}

// TableName returns the database table name for Snapshot.
func (Snapshot) TableName() string { return "snapshots" }

// DiscountRecord is one persisted discount within a snapshot. The structured
// record is stored as a JSON payload column; the derived base and full keys
// are denormalized into indexed columns so key lookups and diff queries never
// need to unmarshal payloads.
type DiscountRecord struct {
	ID         string         `json:"id"          gorm:"type:char(36);primaryKey"`
	SnapshotID string         `json:"snapshot_id" gorm:"type:char(36);not null;index:idx_snapshot_records"`
	Source     Source         `json:"source"      gorm:"type:varchar(32);not null;index"`
	FullKey    string         `json:"full_key"    gorm:"type:varchar(80);not null;index"`
	BaseKey    string         `json:"base_key"    gorm:"type:varchar(80);not null;index"`
	ValidFrom  string         `json:"valid_from"  gorm:"type:varchar(10);not null"`
	ValidUntil string         `json:"valid_until" gorm:"type:varchar(10);not null"`
	Payload    string         `json:"-"           gorm:"type:text;not null"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-"           gorm:"index"`

	// Snapshot is the owning scrape generation. Records are cascade-deleted
	// if their snapshot is removed.
	Snapshot Snapshot `json:"-" gorm:"foreignKey:SnapshotID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for DiscountRecord.
func (DiscountRecord) TableName() string { return "discount_records" }

// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for scrape
// snapshots and their discount records.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a snapshot is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/promowatch/go-promo-backend/internal/domain"
	"github.com/promowatch/go-promo-backend/internal/promo"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateSnapshot inserts a Snapshot row plus one DiscountRecord row per
// discount, deriving keys and serializing payloads. The snapshot ID is a
// randomly generated UUID and CreatedAt is set to UTC. Callers that need
// atomicity with surrounding reads should pass a transaction-bound handle.
func CreateSnapshot(ctx context.Context, db *gorm.DB, source domain.Source, discounts []domain.Discount) (*domain.Snapshot, error) {
	now := time.Now().UTC()
	snap := &domain.Snapshot{
		ID:          uuid.NewString(),
		Source:      source,
		RecordCount: len(discounts),
		CreatedAt:   now,
	}
	if err := db.WithContext(ctx).Create(snap).Error; err != nil {
		return nil, err
	}

	recs := make([]domain.DiscountRecord, 0, len(discounts))
	for _, d := range discounts {
		payload, err := json.Marshal(d)
		if err != nil {
			// Discount is a closed plain-data type; Marshal cannot fail on it
			// in practice, but a record we cannot serialize is dropped rather
			// than aborting the snapshot.
			continue
		}
		recs = append(recs, domain.DiscountRecord{
			ID:         uuid.NewString(),
			SnapshotID: snap.ID,
			Source:     source,
			FullKey:    promo.FullKey(d),
			BaseKey:    promo.BaseKey(d),
			ValidFrom:  d.ValidFrom,
			ValidUntil: d.ValidUntil,
			Payload:    string(payload),
			CreatedAt:  now,
		})
	}
	if len(recs) > 0 {
		if err := db.WithContext(ctx).CreateInBatches(recs, 200).Error; err != nil {
			return nil, err
		}
	}
	return snap, nil
}

// GetSnapshot fetches a single snapshot by ID scoped to a source. If the
// record does not exist, it returns ErrNotFound. On other DB errors, the raw
// error is returned.
func GetSnapshot(ctx context.Context, db *gorm.DB, id string, source domain.Source) (*domain.Snapshot, error) {
	var s domain.Snapshot
	err := db.WithContext(ctx).
		Where("id = ? AND source = ?", id, source).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// LatestSnapshot returns the most recent snapshot for a source, or
// ErrNotFound when the source has never been ingested.
func LatestSnapshot(ctx context.Context, db *gorm.DB, source domain.Source) (*domain.Snapshot, error) {
	var s domain.Snapshot
	err := db.WithContext(ctx).
		Where("source = ?", source).
		Order("created_at desc").
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CountSnapshots returns the total number of snapshots stored for a source.
// On DB error, it returns the error.
func CountSnapshots(ctx context.Context, db *gorm.DB, source domain.Source) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Snapshot{}).
		Where("source = ?", source).
		Count(&total).Error
	return total, err
}

// ListSnapshotsPage returns a paginated slice of snapshots for a source,
// ordered by creation time descending. Use CountSnapshots to obtain the
// total for pagination metadata.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListSnapshotsPage(ctx context.Context, db *gorm.DB, source domain.Source, offset, limit int) ([]domain.Snapshot, error) {
	var out []domain.Snapshot
	err := db.WithContext(ctx).
		Where("source = ?", source).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// SnapshotDiscounts loads and deserializes every discount record of a
// snapshot. A payload that fails to unmarshal is skipped so one corrupt row
// cannot abort a diff over the remaining, valid records.
func SnapshotDiscounts(ctx context.Context, db *gorm.DB, snapshotID string) ([]domain.Discount, error) {
	var rows []domain.DiscountRecord
	err := db.WithContext(ctx).
		Where("snapshot_id = ?", snapshotID).
		Order("full_key asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Discount, 0, len(rows))
	for _, r := range rows {
		var d domain.Discount
		if err := json.Unmarshal([]byte(r.Payload), &d); err != nil {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// SnapshotsStats returns aggregate metadata for a source's snapshots: the
// total number of rows and the maximum CreatedAt timestamp among them. Used
// for conditional responses (ETag generation) in the HTTP layer. When the
// source has no snapshots, the returned count is 0 and maxCreatedAt is nil.
func SnapshotsStats(ctx context.Context, db *gorm.DB, source domain.Source) (count int64, maxCreatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Snapshot{}).Where("source = ?", source)

	// Count
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest created_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		CreatedAt time.Time
	}
	if err = q.Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}

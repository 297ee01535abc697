// Package services – SnapshotService
//
// This file implements the SnapshotService, which manages the lifecycle of
// scrape snapshots. It validates sources and record counts, persists each
// generation atomically, and computes the diff against the previous
// generation of the same source so callers learn what changed in one round
// trip. Idempotent replays of snapshot uploads are supported through the
// Idempotency model.
//
// Service-level errors (e.g., ErrUnknownSource, ErrSnapshotNotFound) are
// returned for predictable cases so handlers can map them to HTTP results
// consistently.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/promowatch/go-promo-backend/internal/domain"
	"github.com/promowatch/go-promo-backend/internal/promo"
)

// SnapshotRepo defines the repository contract required by SnapshotService.
// Implementations are responsible for persistence of snapshot aggregates.
type SnapshotRepo interface {
	// CreateSnapshot inserts a snapshot row plus its discount records.
	CreateSnapshot(ctx context.Context, db *gorm.DB, source domain.Source, discounts []domain.Discount) (*domain.Snapshot, error)

	// GetSnapshot fetches a snapshot by ID ensuring it belongs to the source.
	GetSnapshot(ctx context.Context, db *gorm.DB, id string, source domain.Source) (*domain.Snapshot, error)

	// LatestSnapshot returns the most recent snapshot for a source.
	LatestSnapshot(ctx context.Context, db *gorm.DB, source domain.Source) (*domain.Snapshot, error)

	// CountSnapshots returns the total number of snapshots for pagination.
	CountSnapshots(ctx context.Context, db *gorm.DB, source domain.Source) (int64, error)

	// ListSnapshotsPage returns a page of snapshots for a source.
	ListSnapshotsPage(ctx context.Context, db *gorm.DB, source domain.Source, offset, limit int) ([]domain.Snapshot, error)

	// SnapshotDiscounts loads the deserialized discounts of a snapshot.
	SnapshotDiscounts(ctx context.Context, db *gorm.DB, snapshotID string) ([]domain.Discount, error)

	// GetIdempotency returns a non-expired idempotency record, if any.
	GetIdempotency(ctx context.Context, db *gorm.DB, clientID, source, key string, now time.Time) (*domain.Idempotency, error)

	// CreateIdempotency records a completed ingest for replay detection.
	CreateIdempotency(ctx context.Context, db *gorm.DB, clientID, source, key, snapshotID string, status int, ttl time.Duration) (*domain.Idempotency, error)
}

// IngestResult is the outcome of one snapshot upload: the stored snapshot,
// the diff against the previous generation of the same source, and whether
// the request replayed a previously completed upload.
type IngestResult struct {
	Snapshot *domain.Snapshot `json:"snapshot"`
	Diff     promo.Changes    `json:"diff"`
	Replayed bool             `json:"replayed,omitempty"`
}

// SnapshotService provides snapshot-level operations: ingesting scrape
// generations, listing them, and diffing stored generations. It enforces
// source and size rules; key derivation is delegated to the promo engine.
type SnapshotService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the snapshot repository used by this service.
	Repo SnapshotRepo

	// MaxRecords caps the number of discounts accepted per snapshot.
	MaxRecords int
	// IdempotencyTTL bounds how long a replayed upload returns its original result.
	IdempotencyTTL time.Duration
}

// NewSnapshotService constructs a SnapshotService with sane defaults.
func NewSnapshotService(db *gorm.DB, r SnapshotRepo) *SnapshotService {
	return &SnapshotService{
		DB:             db,
		Repo:           r,
		MaxRecords:     5000,
		IdempotencyTTL: 24 * time.Hour,
	}
}

// Ingest validates and persists one scrape generation for source and returns
// the stored snapshot together with the diff against the previous generation.
//
// Semantics and validation:
//   - source must name a known retailer; otherwise ErrUnknownSource.
//   - discounts must be non-empty; otherwise ErrEmptySnapshot.
//   - len(discounts) must not exceed MaxRecords; otherwise ErrTooManyRecords.
//   - Every stored record is stamped with the path source: a record whose own
//     source field disagrees is corrected, not rejected (the path is
//     authoritative, a single mislabeled record must not abort the upload).
//   - When idemKey is non-empty and a non-expired record exists for
//     (clientID, source, idemKey), the original snapshot is returned with
//     Replayed set and no new rows are written.
//
// Concurrency & atomicity:
//   - The previous-generation read, the insert, and the idempotency record
//     are committed in one transaction.
func (s *SnapshotService) Ingest(ctx context.Context, source, clientID, idemKey string, discounts []domain.Discount) (*IngestResult, error) {
	src, ok := domain.ParseSource(source)
	if !ok {
		return nil, ErrUnknownSource
	}
	if len(discounts) == 0 {
		return nil, ErrEmptySnapshot
	}
	if s.MaxRecords > 0 && len(discounts) > s.MaxRecords {
		return nil, ErrTooManyRecords
	}

	// Replay check outside the transaction: replays are reads.
	if idemKey != "" {
		if rec, err := s.Repo.GetIdempotency(ctx, s.DB, clientID, source, idemKey, time.Now().UTC()); err == nil && rec != nil {
			snap, err := s.Repo.GetSnapshot(ctx, s.DB, rec.SnapshotID, src)
			if err != nil {
				return nil, ErrSnapshotNotFound
			}
			return &IngestResult{Snapshot: snap, Replayed: true}, nil
		}
	}

	// Stamp the authoritative source without mutating the caller's slice.
	stamped := make([]domain.Discount, len(discounts))
	copy(stamped, discounts)
	for i := range stamped {
		stamped[i].Source = src
	}

	var result IngestResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var previous []domain.Discount
		prev, err := s.Repo.LatestSnapshot(ctx, tx, src)
		switch {
		case err == nil:
			previous, err = s.Repo.SnapshotDiscounts(ctx, tx, prev.ID)
			if err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			// First generation for this source; diff against nothing.
		default:
			return err
		}

		snap, err := s.Repo.CreateSnapshot(ctx, tx, src, stamped)
		if err != nil {
			return err
		}
		result = IngestResult{Snapshot: snap, Diff: promo.Diff(previous, stamped)}

		if idemKey != "" {
			if _, err := s.Repo.CreateIdempotency(ctx, tx, clientID, source, idemKey, snap.ID, 201, s.IdempotencyTTL); err != nil {
				// A concurrent retry winning the race is not a failure.
				if !isDuplicate(err) {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ListPage returns a page of snapshots for source plus the total count.
func (s *SnapshotService) ListPage(ctx context.Context, source string, page, pageSize int) ([]domain.Snapshot, int64, error) {
	src, ok := domain.ParseSource(source)
	if !ok {
		return nil, 0, ErrUnknownSource
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	total, err := s.Repo.CountSnapshots(ctx, s.DB, src)
	if err != nil {
		return nil, 0, err
	}
	items, err := s.Repo.ListSnapshotsPage(ctx, s.DB, src, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// DiffBetween computes the diff of two stored snapshots of the same source,
// oldID acting as the previous generation and newID as the current one.
// Either snapshot missing (or belonging to another source) yields
// ErrSnapshotNotFound.
func (s *SnapshotService) DiffBetween(ctx context.Context, source, oldID, newID string) (promo.Changes, error) {
	src, ok := domain.ParseSource(source)
	if !ok {
		return promo.Changes{}, ErrUnknownSource
	}

	load := func(id string) ([]domain.Discount, error) {
		snap, err := s.Repo.GetSnapshot(ctx, s.DB, id, src)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrSnapshotNotFound
			}
			return nil, err
		}
		return s.Repo.SnapshotDiscounts(ctx, s.DB, snap.ID)
	}

	previous, err := load(oldID)
	if err != nil {
		return promo.Changes{}, err
	}
	current, err := load(newID)
	if err != nil {
		return promo.Changes{}, err
	}
	return promo.Diff(previous, current), nil
}

// isDuplicate attempts to detect unique-constraint violations across drivers
// that may not map to gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// SQLite typically: "UNIQUE constraint failed"
	// Postgres typically: "duplicate key value violates unique constraint"
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate")
}

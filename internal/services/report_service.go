// Package services – ReportService
//
// This file implements the ReportService, which reconciles the latest stored
// generation of every retailer against a third-party discount feed and
// produces a gap report: offers the third party observed that this system
// has no counterpart for. The heavy lifting lives in the promo engine; this
// service only assembles "our side" from the freshest snapshots.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/promowatch/go-promo-backend/internal/domain"
	"github.com/promowatch/go-promo-backend/internal/promo"
)

// ReportService produces cross-source coverage reports over stored snapshots.
type ReportService struct {
	// DB is the GORM handle used for reads.
	DB *gorm.DB
	// Repo is the snapshot repository used by this service.
	Repo SnapshotRepo
}

// Gap loads the latest snapshot of every known source and matches the given
// third-party feed against it. Sources that have never been ingested simply
// contribute no records; they are not an error. The feed itself may be
// arbitrarily messy — unmatchable or unparseable entries are skipped inside
// the matcher.
func (s *ReportService) Gap(ctx context.Context, feed []promo.FeedEntry) ([]promo.StoreGap, error) {
	var ours []domain.Discount
	for _, src := range domain.KnownSources() {
		snap, err := s.Repo.LatestSnapshot(ctx, s.DB, src)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		discounts, err := s.Repo.SnapshotDiscounts(ctx, s.DB, snap.ID)
		if err != nil {
			return nil, err
		}
		ours = append(ours, discounts...)
	}
	return promo.GapReport(ours, feed), nil
}

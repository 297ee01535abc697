package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/promowatch/go-promo-backend/internal/domain"
	"github.com/promowatch/go-promo-backend/internal/promo"
)

func TestGap_AssemblesLatestGenerations(t *testing.T) {
	latest := map[domain.Source]string{
		domain.SourceCarrefour: "snap-carrefour",
		domain.SourceJumbo:     "snap-jumbo",
	}
	discounts := map[string][]domain.Discount{
		"snap-carrefour": {{
			Source:         domain.SourceCarrefour,
			Discount:       domain.DiscountValue{Type: domain.DiscountPercentage, Value: 20},
			PaymentMethods: []domain.PaymentCombo{{"Visa"}},
		}},
		"snap-jumbo": {{
			Source:   domain.SourceJumbo,
			Discount: domain.DiscountValue{Type: domain.DiscountPercentage, Value: 10},
		}},
	}
	repo := &fakeSnapshotRepo{
		latestSnapshot: func(_ context.Context, _ *gorm.DB, src domain.Source) (*domain.Snapshot, error) {
			id, ok := latest[src]
			if !ok {
				return nil, gorm.ErrRecordNotFound
			}
			return &domain.Snapshot{ID: id, Source: src}, nil
		},
		snapshotDiscounts: func(_ context.Context, _ *gorm.DB, id string) ([]domain.Discount, error) {
			return discounts[id], nil
		},
	}
	svc := &ReportService{Repo: repo}

	feed := []promo.FeedEntry{
		{Store: "Carrefour", Discount: "20%", PaymentMethod: "Visa"}, // covered
		{Store: "Jumbo", Discount: "30%"},                            // missing
	}
	report, err := svc.Gap(context.Background(), feed)
	if err != nil {
		t.Fatalf("Gap: %v", err)
	}
	if len(report) != 2 {
		t.Fatalf("want carrefour and jumbo gaps, got %+v", report)
	}
	if report[0].Source != domain.SourceCarrefour || len(report[0].Missing) != 0 {
		t.Fatalf("carrefour should be fully covered: %+v", report[0])
	}
	if report[1].Source != domain.SourceJumbo || len(report[1].Missing) != 1 {
		t.Fatalf("jumbo should have one gap: %+v", report[1])
	}
}

func TestGap_SkipsNeverIngestedSources(t *testing.T) {
	repo := &fakeSnapshotRepo{
		latestSnapshot: func(context.Context, *gorm.DB, domain.Source) (*domain.Snapshot, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc := &ReportService{Repo: repo}

	report, err := svc.Gap(context.Background(), []promo.FeedEntry{{Store: "Coto", Discount: "15%"}})
	if err != nil {
		t.Fatalf("Gap: %v", err)
	}
	// The feed mentions coto, so the matcher still reports the store; our
	// side simply holds nothing.
	if len(report) != 1 || report[0].Ours != 0 || len(report[0].Missing) != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestGap_PropagatesStorageErrors(t *testing.T) {
	boom := errors.New("disk gone")
	repo := &fakeSnapshotRepo{
		latestSnapshot: func(context.Context, *gorm.DB, domain.Source) (*domain.Snapshot, error) {
			return nil, boom
		},
	}
	svc := &ReportService{Repo: repo}

	if _, err := svc.Gap(context.Background(), nil); !errors.Is(err, boom) {
		t.Fatalf("want storage error, got %v", err)
	}
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/promowatch/go-promo-backend/internal/domain"
	"github.com/promowatch/go-promo-backend/internal/promo"
)

func TestGapReport_OK(t *testing.T) {
	report := &fakeReportService{
		gap: func(_ context.Context, feed []promo.FeedEntry) ([]promo.StoreGap, error) {
			if len(feed) != 1 || feed[0].Store != "Carrefour" {
				t.Fatalf("unexpected feed: %+v", feed)
			}
			return []promo.StoreGap{{Source: domain.SourceCarrefour, Theirs: 1, Missing: []promo.GapEntry{{Store: "Carrefour", Percentage: 25}}}}, nil
		},
	}
	r := newTestRouter(&fakeSnapshotService{}, report)

	req := httptest.NewRequest(http.MethodPost, "/reports/gap",
		jsonBody(t, []promo.FeedEntry{{Store: "Carrefour", Discount: "25%"}}))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	var gaps []promo.StoreGap
	if err := json.Unmarshal(w.Body.Bytes(), &gaps); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(gaps) != 1 || gaps[0].Source != domain.SourceCarrefour {
		t.Fatalf("gaps unexpected: %+v", gaps)
	}
}

func TestGapReport_InvalidBody(t *testing.T) {
	r := newTestRouter(&fakeSnapshotService{}, &fakeReportService{})
	req := httptest.NewRequest(http.MethodPost, "/reports/gap", bytes.NewReader([]byte(`"nope"`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestGapReport_ServiceError(t *testing.T) {
	report := &fakeReportService{
		gap: func(context.Context, []promo.FeedEntry) ([]promo.StoreGap, error) {
			return nil, errors.New("storage down")
		},
	}
	r := newTestRouter(&fakeSnapshotService{}, report)

	req := httptest.NewRequest(http.MethodPost, "/reports/gap", jsonBody(t, []promo.FeedEntry{}))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestPreviewKeys(t *testing.T) {
	r := newTestRouter(&fakeSnapshotService{}, &fakeReportService{})

	body := jsonBody(t, []domain.Discount{{
		Source:     domain.SourceCarrefour,
		Discount:   domain.DiscountValue{Type: domain.DiscountPercentage, Value: 15},
		ValidFrom:  "2025-01-01",
		ValidUntil: "2025-01-31",
		Weekdays:   []string{"Martes"},
		PaymentMethods: []domain.PaymentCombo{
			{"Tarjeta Crédito"},
		},
		Limits: domain.Limits{ExplicitlyHasNoLimit: true},
	}})
	req := httptest.NewRequest(http.MethodPost, "/keys", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	var previews []KeyPreview
	if err := json.Unmarshal(w.Body.Bytes(), &previews); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(previews) != 1 {
		t.Fatalf("want one preview, got %d", len(previews))
	}
	p := previews[0]
	if p.BaseKey != "carrefour-porcentaje15-cred-martes-notope" {
		t.Fatalf("base key = %q", p.BaseKey)
	}
	if p.FullKey != "carrefour-porcentaje15-0101-0131-cred-martes-notope" {
		t.Fatalf("full key = %q", p.FullKey)
	}
	if !p.Valid || p.Display == "" {
		t.Fatalf("preview flags unexpected: %+v", p)
	}
}

func TestPreviewKeys_InvalidBody(t *testing.T) {
	r := newTestRouter(&fakeSnapshotService{}, &fakeReportService{})
	req := httptest.NewRequest(http.MethodPost, "/keys", bytes.NewReader([]byte(`123`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/promowatch/go-promo-backend/internal/config"
	"github.com/promowatch/go-promo-backend/internal/domain"
	"github.com/promowatch/go-promo-backend/internal/repo"
	"github.com/promowatch/go-promo-backend/internal/services"
)

func testConfig() config.Config {
	return config.Config{
		GinMode:            gin.TestMode,
		APIBasePath:        "/api/v1",
		MaxSnapshotRecords: 100,
		RateRPS:            100,
		RateBurst:          100,
		IdempotencyTTL:     time.Hour,
		OTEL:               config.OTELConfig{ServiceName: "router-test"},
	}
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "router.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	r := gin.New()
	RegisterRoutes(r, db, testConfig())
	return r
}

func TestHealthEndpoint(t *testing.T) {
	r := newRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := newRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", w.Code)
	}
}

func TestNoRouteAndNoMethod(t *testing.T) {
	r := newRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("no-route status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/keys", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("no-method status = %d", w.Code)
	}
}

func TestSnapshotLifecycleThroughRouter(t *testing.T) {
	r := newRouter(t)

	gen1 := `[{"source":"carrefour","discount":{"type":"porcentaje","value":10},"validFrom":"2025-01-01","validUntil":"2025-01-31","paymentMethods":[["Visa"]]}]`
	gen2 := `[{"source":"carrefour","discount":{"type":"porcentaje","value":25},"validFrom":"2025-01-01","validUntil":"2025-01-31","paymentMethods":[["Visa"]]}]`

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sources/carrefour/snapshots", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w1 := post(gen1)
	if w1.Code != http.StatusCreated {
		t.Fatalf("first ingest status = %d body = %s", w1.Code, w1.Body.String())
	}
	w2 := post(gen2)
	if w2.Code != http.StatusCreated {
		t.Fatalf("second ingest status = %d body = %s", w2.Code, w2.Body.String())
	}

	var res struct {
		Snapshot domain.Snapshot `json:"snapshot"`
		Diff     struct {
			Added   []string `json:"added"`
			Removed []string `json:"removed"`
		} `json:"diff"`
	}
	if err := json.Unmarshal(w2.Body.Bytes(), &res); err != nil {
		t.Fatalf("unmarshal second ingest: %v", err)
	}
	if len(res.Diff.Added) != 1 || len(res.Diff.Removed) != 1 {
		t.Fatalf("second ingest diff unexpected: %s", w2.Body.String())
	}

	// List shows both generations.
	lw := httptest.NewRecorder()
	r.ServeHTTP(lw, httptest.NewRequest(http.MethodGet, "/api/v1/sources/carrefour/snapshots", nil))
	if lw.Code != http.StatusOK {
		t.Fatalf("list status = %d body = %s", lw.Code, lw.Body.String())
	}
	if etag := lw.Header().Get("ETag"); etag == "" {
		t.Fatalf("list response missing ETag")
	}
}

func TestIngestIdempotencyThroughRouter(t *testing.T) {
	r := newRouter(t)

	body := `[{"source":"dia","discount":{"type":"porcentaje","value":15},"validFrom":"2025-02-01","validUntil":"2025-02-28"}]`
	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sources/dia/snapshots", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", "router-test-key-1")
		req.Header.Set("X-Client-ID", "scraper-01")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	if w := post(); w.Code != http.StatusCreated {
		t.Fatalf("first ingest status = %d body = %s", w.Code, w.Body.String())
	}
	replay := post()
	if replay.Code != http.StatusOK {
		t.Fatalf("replay status = %d body = %s", replay.Code, replay.Body.String())
	}
	var res services.IngestResult
	if err := json.Unmarshal(replay.Body.Bytes(), &res); err != nil {
		t.Fatalf("unmarshal replay: %v", err)
	}
	if !res.Replayed {
		t.Fatalf("replay flag missing: %s", replay.Body.String())
	}
}

func TestUnknownSourceThroughRouter(t *testing.T) {
	r := newRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sources/walmart/snapshots", strings.NewReader(`[{}]`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
}

func TestGroupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if g := groupWithPrefix(r, ""); g.BasePath() != "/" {
		t.Fatalf("empty prefix base = %q", g.BasePath())
	}
	if g := groupWithPrefix(r, "/api/v2"); g.BasePath() != "/api/v2" {
		t.Fatalf("prefix base = %q", g.BasePath())
	}
}

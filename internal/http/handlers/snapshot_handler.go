// Snapshot HTTP handlers.
//
// This file exposes REST endpoints for scrape snapshots:
//   - POST   /sources/{source}/snapshots   (ingest a generation, returns diff)
//   - GET    /sources/{source}/snapshots   (list, paginated, ETag support)
//   - GET    /sources/{source}/diff        (diff two stored generations)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/promowatch/go-promo-backend/internal/domain"
	"github.com/promowatch/go-promo-backend/internal/http/middleware"
	"github.com/promowatch/go-promo-backend/internal/promo"
	"github.com/promowatch/go-promo-backend/internal/repo"
	"github.com/promowatch/go-promo-backend/internal/services"
	"github.com/promowatch/go-promo-backend/internal/sysutil"
	"github.com/promowatch/go-promo-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// SnapshotService defines snapshot lifecycle operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type SnapshotService interface {
	// Ingest persists one scrape generation and diffs it against the previous one.
	Ingest(ctx context.Context, source, clientID, idemKey string, discounts []domain.Discount) (*services.IngestResult, error)
	// ListPage returns a page of snapshots for a source and the total count.
	ListPage(ctx context.Context, source string, page, pageSize int) ([]domain.Snapshot, int64, error)
	// DiffBetween diffs two stored snapshots of the same source.
	DiffBetween(ctx context.Context, source, oldID, newID string) (promo.Changes, error)
}

// ReportService defines cross-source reporting operations.
type ReportService interface {
	// Gap matches a third-party feed against the latest stored generations.
	Gap(ctx context.Context, feed []promo.FeedEntry) ([]promo.StoreGap, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for snapshots, keys, and reports.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	snapSvc   SnapshotService
	reportSvc ReportService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(snapSvc SnapshotService, reportSvc ReportService) *Handlers {
	return &Handlers{snapSvc: snapSvc, reportSvc: reportSvc}
}

// clientID extracts the calling scraper's identity from the Gin context (set
// by upstream middleware). If absent, it falls back to the "X-Client-ID"
// header, and finally to "scraper". It never touches c.Request if it's nil.
func clientID(c *gin.Context) string {
	if v, ok := c.Get("clientID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	var header string
	if c != nil && c.Request != nil {
		header = strings.TrimSpace(c.GetHeader("X-Client-ID"))
	}
	return sysutil.FirstNonEmpty(header, "scraper")
}

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListSnapshotsResponse wraps a page of snapshots and pagination information.
type ListSnapshotsResponse struct {
	Snapshots  []domain.Snapshot `json:"snapshots"`
	Pagination Pagination        `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

//
// Handlers
//

// IngestSnapshot godoc
// @ID          ingestSnapshot
// @Summary     Ingest a scrape generation
// @Description Stores one generation of discounts for a source and returns the diff against the previous generation. Safe to retry with an Idempotency-Key.
// @Tags        Snapshots
// @Accept      json
// @Produce     json
//
// @Param       X-Client-ID      header  string  false "Scraper client ID"  example(scraper-01)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"
// @Param       source           path    string  true  "Retailer source"    example(carrefour)
// @Param       body             body    []domain.Discount  true  "Discount records of this generation"
//
// @Success     201  {object}  services.IngestResult
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown source"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /sources/{source}/snapshots [post]
func (h *Handlers) IngestSnapshot(c *gin.Context) {
	source := c.Param("source")

	var discounts []domain.Discount
	if err := c.ShouldBindJSON(&discounts); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body: expected an array of discounts")
		return
	}

	idemKey, _ := middleware.GetIdempotencyKey(c)
	res, err := h.snapSvc.Ingest(c.Request.Context(), source, clientID(c), idemKey, discounts)
	if err != nil {
		switch err {
		case services.ErrUnknownSource:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "unknown source")
		case services.ErrEmptySnapshot:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "snapshot must contain at least one discount")
		case services.ErrTooManyRecords:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "snapshot exceeds the record cap")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeIngestFailed, err.Error())
		}
		return
	}

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	ok(c, status, res)
}

// ListSnapshots godoc
// @ID          listSnapshots
// @Summary     List snapshots (paginated)
// @Description Returns a page of a source's snapshots, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Snapshots
// @Produce     json
//
// @Param       source         path    string  true  "Retailer source"              example(carrefour)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"   example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListSnapshotsResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     404  {object} handlers.ErrorResponse "Unknown source"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /sources/{source}/snapshots [get]
func (h *Handlers) ListSnapshots(c *gin.Context) {
	ctx := c.Request.Context()
	source := c.Param("source")
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, isConcrete := h.snapSvc.(*services.SnapshotService); isConcrete {
		db = svc.DB
	}
	if db != nil {
		if src, known := domain.ParseSource(source); known {
			count, maxTS, err := repo.SnapshotsStats(ctx, db, src)
			if err == nil {
				var ts int64
				if maxTS != nil {
					ts = maxTS.Unix()
				}
				etag := fmt.Sprintf(`W/"snapshots:%s:%d:%d"`, source, count, ts)
				c.Header("ETag", etag)
				if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
					c.Status(http.StatusNotModified)
					return
				}
			}
		}
	}

	// Fetch page.
	items, total, err := h.snapSvc.ListPage(ctx, source, page, pageSize)
	if err != nil {
		if err == services.ErrUnknownSource {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "unknown source")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	resp := ListSnapshotsResponse{
		Snapshots: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	}
	ok(c, http.StatusOK, resp)
}

// DiffSnapshots godoc
// @ID          diffSnapshots
// @Summary     Diff two stored snapshots
// @Description Computes added/removed/validity-changed between two stored generations of the same source.
// @Tags        Snapshots
// @Produce     json
//
// @Param       source  path   string  true  "Retailer source"        example(carrefour)
// @Param       old     query  string  true  "Previous snapshot UUID" format(uuid)
// @Param       new     query  string  true  "Current snapshot UUID"  format(uuid)
//
// @Success     200  {object} promo.Changes
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Unknown source or snapshot"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /sources/{source}/diff [get]
func (h *Handlers) DiffSnapshots(c *gin.Context) {
	source := c.Param("source")
	oldID := c.Query("old")
	newID := c.Query("new")
	if _, err := uuid.Parse(oldID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "old must be a snapshot UUID")
		return
	}
	if _, err := uuid.Parse(newID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "new must be a snapshot UUID")
		return
	}

	changes, err := h.snapSvc.DiffBetween(c.Request.Context(), source, oldID, newID)
	if err != nil {
		switch err {
		case services.ErrUnknownSource:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "unknown source")
		case services.ErrSnapshotNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "snapshot not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeDiffFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, changes)
}

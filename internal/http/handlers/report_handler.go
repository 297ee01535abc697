// Report and key-utility HTTP handlers.
//
// This file exposes:
//   - POST /reports/gap  (coverage gaps vs. a third-party feed)
//   - POST /keys         (derive base/full keys without persisting anything)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/promowatch/go-promo-backend/internal/domain"
	"github.com/promowatch/go-promo-backend/internal/promo"
)

// KeyPreview is the derived key set for one submitted discount, in input
// order. Valid reflects ValidateKey on the full key and exists purely for
// callers that convert foreign records into keys.
type KeyPreview struct {
	BaseKey string `json:"base_key"`
	FullKey string `json:"full_key"`
	Display string `json:"display"`
	Valid   bool   `json:"valid"`
}

// GapReport godoc
// @ID          gapReport
// @Summary     Cross-source gap report
// @Description Matches a loosely structured third-party feed against the latest stored generation of every source and reports offers we are missing.
// @Tags        Reports
// @Accept      json
// @Produce     json
//
// @Param       body  body  []promo.FeedEntry  true  "Third-party feed entries"
//
// @Success     200  {array}   promo.StoreGap
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /reports/gap [post]
func (h *Handlers) GapReport(c *gin.Context) {
	var feed []promo.FeedEntry
	if err := c.ShouldBindJSON(&feed); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body: expected an array of feed entries")
		return
	}

	report, err := h.reportSvc.Gap(c.Request.Context(), feed)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeReportFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, report)
}

// PreviewKeys godoc
// @ID          previewKeys
// @Summary     Derive discount keys
// @Description Computes the base key, full key and display form for each submitted discount. Nothing is persisted; useful for dedup tooling and debugging extraction output.
// @Tags        Keys
// @Accept      json
// @Produce     json
//
// @Param       body  body  []domain.Discount  true  "Discount records"
//
// @Success     200  {array}   handlers.KeyPreview
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /keys [post]
func (h *Handlers) PreviewKeys(c *gin.Context) {
	var discounts []domain.Discount
	if err := c.ShouldBindJSON(&discounts); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body: expected an array of discounts")
		return
	}

	out := make([]KeyPreview, 0, len(discounts))
	for _, d := range discounts {
		full := promo.FullKey(d)
		out = append(out, KeyPreview{
			BaseKey: promo.BaseKey(d),
			FullKey: full,
			Display: promo.FormatKey(full),
			Valid:   promo.ValidateKey(full),
		})
	}
	ok(c, http.StatusOK, out)
}

// Lot listing handler.
//
// This file exposes the read-only admin audit endpoint:
//   - GET /lots (list, paginated, newest first, items included)
//
// Lots are append-only history; this listing is how an admin traces what
// was dispatched, applied, and reverted, and by whom.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qnahub/dispatch-bot/internal/domain"
	"github.com/qnahub/dispatch-bot/internal/utils"
)

// LotStore defines the lot queries consumed by the listing endpoint.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type LotStore interface {
	// CountLots returns the total number of stored lots.
	CountLots(ctx context.Context) (int64, error)
	// ListLotsPage returns a page of lots ordered by creation time
	// descending, snapshot items included.
	ListLotsPage(ctx context.Context, offset, limit int) ([]domain.Lot, error)
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListLotsResponse wraps a page of lots and pagination information.
type ListLotsResponse struct {
	OK         bool         `json:"ok" example:"true"`
	Lots       []domain.Lot `json:"lots"`
	Pagination Pagination   `json:"pagination"`
}

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
	pageSize = utils.ClampInt(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return
}

// ListLots godoc
// @ID          listLots
// @Summary     List dispatched lots (paginated)
// @Description Returns a page of lots ordered by creation time descending, snapshot items included. Lots are never deleted; this is the audit trail of every dispatch.
// @Tags        Lots
// @Produce     json
//
// @Param       page       query  int  false  "Page number"     minimum(1) default(1)
// @Param       page_size  query  int  false  "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListLotsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /lots [get]
func (h *Handlers) ListLots(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	total, err := h.lots.CountLots(ctx)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	items, err := h.lots.ListLotsPage(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListLotsResponse{
		OK:   true,
		Lots: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

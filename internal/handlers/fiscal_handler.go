package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/tnb/internal/errors"
	"github.com/stwalsh4118/tnb/internal/logger"
	"github.com/stwalsh4118/tnb/internal/middleware"
	"github.com/stwalsh4118/tnb/internal/models"
	"github.com/stwalsh4118/tnb/internal/services"
)

// FiscalHandler handles fiscal computation HTTP requests.
type FiscalHandler struct {
	service services.FiscalService
}

// NewFiscalHandler creates a new FiscalHandler instance.
func NewFiscalHandler(service services.FiscalService) *FiscalHandler {
	return &FiscalHandler{
		service: service,
	}
}

// FiscalQuery represents the query parameters for the preview endpoint.
type FiscalQuery struct {
	AsOf string `form:"as_of" binding:"omitempty,datetime=2006-01-02"`
	Year int    `form:"year" binding:"required,gte=1900,lte=2100"`
}

// IssueRequest represents the body of the notice issuing endpoint.
type IssueRequest struct {
	AsOf string `json:"as_of" binding:"omitempty,datetime=2006-01-02"`
	Year int    `json:"year" binding:"required,gte=1900,lte=2100"`
}

// FiscalResultResponse wraps a previewed fiscal result.
type FiscalResultResponse struct {
	Result *models.FiscalResult `json:"result"`
}

// NoticeResponse wraps an issued fiscal notice.
type NoticeResponse struct {
	Notice *models.FiscalNotice `json:"notice"`
}

// Preview handles GET /api/v1/parcels/:id/fiscal.
// It computes the parcel's TNB for the requested year without saving it.
func (h *FiscalHandler) Preview(c *gin.Context) {
	id, ok := parcelID(c)
	if !ok {
		return
	}
	who, ok := caller(c)
	if !ok {
		return
	}

	var query FiscalQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		bindingError(c, err, "Invalid query parameters")
		return
	}
	asOf, err := parseAsOf(query.AsOf)
	if err != nil {
		apierrors.BadRequest(c, "as_of must be a date formatted as "+DateLayout, nil)
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Debug("Previewing fiscal result", logger.Fields{
			"parcel_id": id,
			"year":      query.Year,
			"as_of":     query.AsOf,
		})
	}

	result, err := h.service.Preview(c.Request.Context(), id, query.Year, asOf, who)
	if err != nil {
		apierrors.FromDomainError(c, err, "Failed to compute fiscal result")
		return
	}

	c.JSON(http.StatusOK, FiscalResultResponse{Result: result})
}

// Issue handles POST /api/v1/parcels/:id/notices.
// It computes the parcel's TNB and persists it as a fiscal notice.
func (h *FiscalHandler) Issue(c *gin.Context) {
	id, ok := parcelID(c)
	if !ok {
		return
	}
	who, ok := caller(c)
	if !ok {
		return
	}

	var req IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err, "Invalid request body")
		return
	}
	asOf, err := parseAsOf(req.AsOf)
	if err != nil {
		apierrors.BadRequest(c, "as_of must be a date formatted as "+DateLayout, nil)
		return
	}

	notice, err := h.service.Issue(c.Request.Context(), id, req.Year, asOf, who)
	if err != nil {
		apierrors.FromDomainError(c, err, "Failed to issue fiscal notice")
		return
	}

	c.JSON(http.StatusCreated, NoticeResponse{Notice: notice})
}

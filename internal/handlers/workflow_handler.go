package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/tnb/internal/errors"
	"github.com/stwalsh4118/tnb/internal/models"
	"github.com/stwalsh4118/tnb/internal/services"
)

// WorkflowHandler handles parcel validation workflow requests.
type WorkflowHandler struct {
	service services.WorkflowService
}

// NewWorkflowHandler creates a new WorkflowHandler instance.
func NewWorkflowHandler(service services.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{service: service}
}

// TransitionRequest represents the body of the transition endpoint.
type TransitionRequest struct {
	Target string `json:"target" binding:"required,oneof=draft validated published archived"`
}

// ParcelResponse wraps a parcel after a transition.
type ParcelResponse struct {
	Parcel *models.Parcel `json:"parcel"`
}

// Available handles GET /api/v1/parcels/:id/transitions.
func (h *WorkflowHandler) Available(c *gin.Context) {
	id, ok := parcelID(c)
	if !ok {
		return
	}
	who, ok := caller(c)
	if !ok {
		return
	}

	options, err := h.service.Available(c.Request.Context(), id, who)
	if err != nil {
		apierrors.FromDomainError(c, err, "Failed to load workflow state")
		return
	}

	c.JSON(http.StatusOK, options)
}

// Transition handles POST /api/v1/parcels/:id/transitions.
func (h *WorkflowHandler) Transition(c *gin.Context) {
	id, ok := parcelID(c)
	if !ok {
		return
	}
	who, ok := caller(c)
	if !ok {
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err, "Invalid request body")
		return
	}

	parcel, err := h.service.Transition(c.Request.Context(), id, models.WorkflowState(req.Target), who)
	if err != nil {
		apierrors.FromDomainError(c, err, "Failed to apply workflow transition")
		return
	}

	c.JSON(http.StatusOK, ParcelResponse{Parcel: parcel})
}

package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/stwalsh4118/tnb/internal/errors"
	"github.com/stwalsh4118/tnb/internal/middleware"
	"github.com/stwalsh4118/tnb/internal/models"
)

// DateLayout is the format of date parameters such as as_of.
const DateLayout = "2006-01-02"

// parcelID reads the :id path parameter. It writes a 400 response and
// returns false when the ID is not a positive integer.
func parcelID(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		apierrors.BadRequest(c, "Parcel ID must be a positive integer", map[string]interface{}{"id": raw})
		return 0, false
	}
	return id, true
}

// caller returns the identity stored by the Identity middleware, writing a
// 401 response when there is none.
func caller(c *gin.Context) (models.Caller, bool) {
	who, ok := middleware.GetCaller(c)
	if !ok {
		apierrors.Unauthorized(c, "Caller identity is required")
	}
	return who, ok
}

// bindingError writes the response for a failed ShouldBind call.
func bindingError(c *gin.Context, err error, message string) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		apierrors.ValidationError(c, validationErrors)
		return
	}
	apierrors.BadRequest(c, message, nil)
}

// parseAsOf parses an optional as_of date. Empty means today, decided downstream.
func parseAsOf(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(DateLayout, raw)
}

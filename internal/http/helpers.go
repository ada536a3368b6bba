package http

import (
	"net/http"
	"strconv"

	"emperror.dev/errors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	mediarepo "github.com/mrlokans/mediamanager/internal/database/media"
	"github.com/mrlokans/mediamanager/internal/imaging"
	"github.com/mrlokans/mediamanager/internal/media"
	"github.com/mrlokans/mediamanager/internal/services"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // additional context (validation errors, etc.)
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// PaginatedResponse wraps paginated data with metadata.
type PaginatedResponse struct {
	Data    any   `json:"data"`
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"has_more"`
}

// --- Error Response Helpers ---

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Error().Err(err).Str("context", context).Str("path", c.Request.URL.Path).Msg("internal error")
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// respondServiceError maps errors returned by the media service onto
// status codes. Unknown errors become a 500.
func respondServiceError(c *gin.Context, err error, context string) {
	if ue, ok := media.AsUploadError(err); ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ue.Error(), Code: ue.Key})
		return
	}

	switch {
	case errors.Is(err, imaging.ErrTooManyPixels):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: "image_too_large"})
	case errors.Is(err, imaging.ErrUnsupportedType), errors.Is(err, imaging.ErrUnparsable):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: "unsupported_image"})
	case errors.Is(err, mediarepo.ErrNotFound):
		respondNotFound(c, "media file")
	case errors.Is(err, services.ErrNotImage):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: "not_image"})
	case errors.Is(err, services.ErrInvalidDirectory):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_directory"})
	case errors.Is(err, services.ErrUnknownOperation),
		errors.Is(err, imaging.ErrInvalidScaleMethod),
		errors.Is(err, imaging.ErrInvalidSize),
		errors.Is(err, imaging.ErrInvalidDimensions),
		errors.Is(err, imaging.ErrInvalidFlipMode),
		errors.Is(err, imaging.ErrUnknownFilter):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_request"})
	default:
		respondInternalError(c, err, context)
	}
}

// respondAccepted sends a 202 Accepted response (for async operations).
func respondAccepted(c *gin.Context, message string, data any) {
	c.JSON(http.StatusAccepted, SuccessResponse{Message: message, Data: data})
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates an unsigned integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	idStr := c.Param(paramName)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// parsePagination reads limit and offset query parameters, clamping limit
// to [1, 100].
func parsePagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit < 1 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

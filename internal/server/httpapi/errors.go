package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/wellkeeper/internal/common"
	"github.com/gin-gonic/gin"
)

const messageServerError = "Server error"

type errorResponse struct {
	Message string            `json:"message"`
	Error   string            `json:"error,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// writeError maps err to a status code and a {message, error?, fields?} body.
// notFound is the message used for common.ErrorNotFound, which differs per route.
// Internal error text reaches the client only in development.
func (h *handlers) writeError(c *gin.Context, err error, notFound string) {
	var (
		verr   *common.ValidationError
		maxErr *http.MaxBytesError
	)

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, errorResponse{Message: "Validation failed", Error: verr.Error(), Fields: verr.Fields})
	case errors.Is(err, common.ErrDuplicateEmail):
		c.JSON(http.StatusBadRequest, errorResponse{Message: "User already exists"})
	case errors.Is(err, common.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, errorResponse{Message: "Invalid credentials"})
	case errors.Is(err, common.ErrInvalidFileType):
		c.JSON(http.StatusBadRequest, errorResponse{
			Message: "Invalid file type",
			Error:   "Only PDF, JPG, PNG, DOC and DOCX files are allowed.",
		})
	case errors.Is(err, common.ErrFileTooLarge), errors.As(err, &maxErr):
		c.JSON(http.StatusBadRequest, errorResponse{
			Message: "File too large",
			Error:   "The uploaded file exceeds the 10MB size limit.",
		})
	case errors.Is(err, common.ErrTokenExpired), errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrorUnauthorized):
		c.JSON(http.StatusUnauthorized, errorResponse{Message: "Invalid token"})
	case errors.Is(err, common.ErrBlobMissing):
		c.JSON(http.StatusNotFound, errorResponse{Message: "Medical report file not found on server"})
	case errors.Is(err, common.ErrorNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Message: notFound})
	default:
		h.logger.Error(c.Request.Context(), "request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		resp := errorResponse{Message: messageServerError}
		if h.development {
			resp.Error = err.Error()
		}
		c.JSON(http.StatusInternalServerError, resp)
	}
}

// badRequest reports a malformed body.
func (h *handlers) badRequest(c *gin.Context, err error) {
	resp := errorResponse{Message: "Invalid request body"}
	if h.development {
		resp.Error = err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
}

package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/vistoria/internal/common"
)

// statusFor maps an error kind to an HTTP status and a client-safe message.
func statusFor(err error) (int, string) {
	status := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.Is(err, common.ErrValidation):
		status, msg = http.StatusBadRequest, "invalid request"
	case errors.Is(err, common.ErrReferenceNotFound):
		status, msg = http.StatusBadRequest, "referenced entity not found"
	case errors.Is(err, common.ErrorNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, common.ErrInvariantViolation):
		status, msg = http.StatusUnprocessableEntity, "invariant violation"
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		status, msg = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, common.ErrStorageWrite):
		msg = "could not store file"
	case errors.Is(err, common.ErrStoreUnavailable):
		msg = "store unavailable"
	}

	var pub *common.PublicError
	if status < http.StatusInternalServerError && errors.As(err, &pub) {
		msg = pub.Message
	}
	return status, msg
}

func (s *Server) writeError(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed", "path", c.Request.URL.Path, "error", err)
	} else {
		s.logger.Debug(c.Request.Context(), "request rejected", "path", c.Request.URL.Path, "status", status, "error", err)
	}
	c.JSON(status, errorBody{Error: msg})
}

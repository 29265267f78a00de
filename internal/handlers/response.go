package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"adminauth/internal/apperr"
)

// response is the stable envelope every endpoint answers with. Validation
// failures additionally carry the field-keyed error list for form binding.
type response struct {
	Status  string              `json:"status"`
	Message string              `json:"message"`
	Data    any                 `json:"data,omitempty"`
	Errors  []apperr.FieldError `json:"errors,omitempty"`
}

func respondSuccess(c *gin.Context, status int, message string, data any) {
	c.JSON(status, response{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

// respondError maps an application error onto the envelope. Internal errors
// are the only class logged with full detail; the caller gets a generic
// message without internals.
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	appErr := apperr.From(err)

	if appErr.Kind == apperr.KindInternal {
		log.Error().
			Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
	}

	c.JSON(appErr.Kind.HTTPStatus(), response{
		Status:  "error",
		Message: appErr.Message,
		Errors:  appErr.Fields,
	})
}

func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response{
		Status:  "error",
		Message: err.Error(),
	})
}

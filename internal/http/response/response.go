package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pckassistant/graph-engine/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondDomainError classifies err via apierr.FromDomainError and writes
// the resulting envelope, so handlers don't each hand-pick a status code.
func RespondDomainError(c *gin.Context, err error) {
	apiErr := apierr.FromDomainError(err)
	if apiErr == nil {
		RespondError(c, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	RespondError(c, apiErr.Status, apiErr.Code, apiErr.Err)
}

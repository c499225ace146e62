package response

import (
	"net/http"

	"github.com/folio-studio/folio/internal/apierr"
	"github.com/folio-studio/folio/internal/metrics"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError renders err as an error envelope. Untyped errors become
// INTERNAL and their message is not exposed.
func RespondError(c *gin.Context, err error) {
	apiErr := apierr.From(err)
	msg := "unknown error"
	switch {
	case apiErr.Code == apierr.CodeInternal:
		msg = "internal error"
		metrics.RecordError("api", "internal")
	case apiErr.Err != nil:
		msg = apiErr.Err.Error()
	}
	c.JSON(apiErr.Status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    apiErr.Code,
		},
	})
}

// AbortWithError renders err and stops the handler chain
func AbortWithError(c *gin.Context, err error) {
	RespondError(c, err)
	c.Abort()
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

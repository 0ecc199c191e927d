package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/knowledgepathways/backend/internal/platform/apierr"
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

// Error renders err using its apierr status and code when the chain
// carries one, otherwise as a generic 500.
func Error(c *gin.Context, err error) {
	if ae := apierr.From(err); ae != nil {
		msg := ae.Error()
		if ae.Status == http.StatusInternalServerError {
			// Internal details stay in logs, not in the response body.
			msg = "internal error"
		}
		c.JSON(ae.Status, ErrorEnvelope{
			Error: APIError{
				Message: msg,
				Code:    ae.Code,
			},
		})
		return
	}
	RespondError(c, http.StatusInternalServerError, "internal_error", err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

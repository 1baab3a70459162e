package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/alejandroruanova/legal-complaint-analyzer/internal/pkg/errors"
)

// Envelope is the body of every JSON response except GET /
type Envelope struct {
	Success  bool        `json:"success"`
	Message  string      `json:"message,omitempty"`
	Filename string      `json:"filename,omitempty"`
	Result   interface{} `json:"result,omitempty"`
	Error    string      `json:"error,omitempty"`
	Code     string      `json:"code,omitempty"`
}

func respondOK(c *gin.Context, status int, result interface{}) {
	c.JSON(status, Envelope{Success: true, Result: result})
}

// respondError maps AppErrors onto their status; anything else is a 500 with a generic
// message so driver errors never leak.
func respondError(c *gin.Context, err error) {
	if appErr, ok := apperrors.GetAppError(err); ok {
		c.AbortWithStatusJSON(appErr.StatusCode, Envelope{
			Success: false,
			Error:   appErr.Message,
			Code:    string(appErr.Code),
		})
		return
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, Envelope{
		Success: false,
		Error:   "internal server error",
		Code:    string(apperrors.ErrCodeInternal),
	})
}

package response

import (
	"net/http"

	"linkmart/pkg/apperr"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	CodeSuccess         = 0
	CodeParamError      = 400
	CodeUnauthorized    = 401
	CodeForbidden       = 403
	CodeNotFound        = 404
	CodeConflict        = 409
	CodeTooManyRequests = 429
	CodeServerError     = 500
	CodeBusinessError   = 1000
)

const (
	CodeBalanceNotEnough = 1003
	CodeUpstreamFailed   = 1006
)

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    CodeSuccess,
		Message: message,
		Data:    data,
	})
}

func Error(c *gin.Context, status, code int, message string) {
	ErrorWithData(c, status, code, message, nil)
}

func ErrorWithData(c *gin.Context, status, code int, message string, data interface{}) {
	c.AbortWithStatusJSON(status, Response{
		Code:    code,
		Message: message,
		Error:   message,
		Data:    data,
	})
}

func ParamError(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, CodeParamError, message)
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, CodeUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, CodeForbidden, message)
}

func ServerError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, CodeServerError, message)
}

// Fail maps err onto its HTTP status and writes the error envelope. The
// wrapped cause is logged, never returned.
func Fail(c *gin.Context, err error) {
	FailWithData(c, err, nil)
}

func FailWithData(c *gin.Context, err error, data interface{}) {
	kind := apperr.KindOf(err)
	status := kind.HTTPStatus()
	if status >= http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"path":  c.FullPath(),
			"kind":  kind.String(),
			"error": err.Error(),
		}).Error("request failed")
	}
	ErrorWithData(c, status, codeFor(kind), apperr.PublicMessage(err), data)
}

func codeFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return CodeParamError
	case apperr.KindUnauthorized:
		return CodeUnauthorized
	case apperr.KindForbidden:
		return CodeForbidden
	case apperr.KindNotFound:
		return CodeNotFound
	case apperr.KindConflict:
		return CodeConflict
	case apperr.KindInsufficientFunds:
		return CodeBalanceNotEnough
	case apperr.KindUpstream:
		return CodeUpstreamFailed
	default:
		return CodeServerError
	}
}

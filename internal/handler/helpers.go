package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"caterflow/internal/commands"
	"caterflow/internal/transport/httpdto"
	caterflow_errors "caterflow/pkg/errors"
)

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(value)
}

// idempotencyKey prefers the X-Idempotency-Key header over the body field.
func idempotencyKey(c *gin.Context, bodyKey string) string {
	if key := c.GetHeader("X-Idempotency-Key"); key != "" {
		return key
	}
	return bodyKey
}

// writeInternalFailure answers a transport-level execution error. The raw
// error text stays in the logs; clients only see the generic retry message.
func writeInternalFailure(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(caterflow_errors.ErrInternal.Error(), "INTERNAL_ERROR"))
}

// writeResult maps a command result onto an HTTP response: success (fresh
// or replayed) → successStatus, in-flight duplicate → 409, previously
// failed key → 409, infrastructure failure → 500, any other rejection →
// 422.
func writeResult(c *gin.Context, result commands.Result, successStatus int) {
	if result.Success {
		c.JSON(successStatus, httpdto.NewSuccessResponse(result.Data))
		return
	}
	switch result.Error {
	case caterflow_errors.ErrStillProcessing.Error():
		c.JSON(http.StatusConflict, httpdto.NewErrorResponse(result.Error, "STILL_PROCESSING"))
	case caterflow_errors.ErrPreviouslyFailed.Error():
		c.JSON(http.StatusConflict, httpdto.NewErrorResponse(result.Error, "PREVIOUSLY_FAILED"))
	case caterflow_errors.ErrInternal.Error():
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(result.Error, "INTERNAL_ERROR"))
	default:
		c.JSON(http.StatusUnprocessableEntity, httpdto.NewErrorResponse(result.Error, "REJECTED"))
	}
}

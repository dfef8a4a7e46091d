package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"caterflow/internal/commands"
	"caterflow/internal/transport/httpdto"
)

type PaymentHandler struct {
	bus *commands.Bus
}

func NewPaymentHandler(bus *commands.Bus) *PaymentHandler {
	return &PaymentHandler{bus: bus}
}

func (h *PaymentHandler) Record(c *gin.Context) {
	bookingID, err := parseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid booking id", "INVALID_REQUEST"))
		return
	}

	var req httpdto.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	result, err := h.bus.Execute(c.Request.Context(), commands.RecordPaymentCommand{
		BookingID:   bookingID,
		AmountCents: req.AmountCents,
		Method:      req.Method,
		Reference:   req.Reference,
		Key:         idempotencyKey(c, req.IdempotencyKey),
	})
	if err != nil {
		writeInternalFailure(c)
		return
	}
	writeResult(c, result, http.StatusCreated)
}

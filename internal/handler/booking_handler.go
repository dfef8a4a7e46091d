package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"caterflow/internal/commands"
	"caterflow/internal/transport/httpdto"
)

type BookingHandler struct {
	bus *commands.Bus
}

func NewBookingHandler(bus *commands.Bus) *BookingHandler {
	return &BookingHandler{bus: bus}
}

func (h *BookingHandler) Create(c *gin.Context) {
	var req httpdto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	result, err := h.bus.Execute(c.Request.Context(), commands.CreateBookingCommand{
		CustomerName:    req.CustomerName,
		Contact:         req.Contact,
		EventDate:       req.EventDate,
		Slot:            req.Slot,
		GuestCount:      req.GuestCount,
		TotalDueCents:   req.TotalDueCents,
		DepositDueCents: req.DepositDueCents,
		Notes:           req.Notes,
		Key:             idempotencyKey(c, req.IdempotencyKey),
	})
	if err != nil {
		writeInternalFailure(c)
		return
	}
	writeResult(c, result, http.StatusCreated)
}

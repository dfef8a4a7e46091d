package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"caterflow/internal/commands"
	"caterflow/internal/transport/httpdto"
)

type MessageHandler struct {
	bus *commands.Bus
}

func NewMessageHandler(bus *commands.Bus) *MessageHandler {
	return &MessageHandler{bus: bus}
}

func (h *MessageHandler) Receive(c *gin.Context) {
	var req httpdto.ReceiveMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	threadID := uuid.Nil
	if req.ThreadID != "" {
		parsed, err := parseUUID(req.ThreadID)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid thread_id", "INVALID_REQUEST"))
			return
		}
		threadID = parsed
	}

	result, err := h.bus.Execute(c.Request.Context(), commands.ReceiveMessageCommand{
		ThreadID:   threadID,
		Contact:    req.Contact,
		Body:       req.Body,
		Channel:    req.Channel,
		ExternalID: req.ExternalID,
		Key:        idempotencyKey(c, req.IdempotencyKey),
	})
	if err != nil {
		writeInternalFailure(c)
		return
	}
	writeResult(c, result, http.StatusCreated)
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ksalling/tradefly/internal/models"
	"github.com/ksalling/tradefly/internal/service"
)

// RelayHandler receives chat messages forwarded by the relay bot.
type RelayHandler struct {
	Intake *service.RelayIntakeService
	Logger *zap.Logger
}

func (h *RelayHandler) Register(r *gin.Engine) {
	group := r.Group("/api/relay")
	group.POST("/messages", h.storeMessage)
}

type relayMessageRequest struct {
	ChannelID   string `json:"channelId"`
	ChannelName string `json:"channelName" binding:"required"`
	Message     string `json:"message" binding:"required"`
}

func (h *RelayHandler) storeMessage(c *gin.Context) {
	var req relayMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "malformed message body", nil)
		return
	}

	msg := &models.RelayMessage{
		ChannelID:   req.ChannelID,
		ChannelName: req.ChannelName,
		Message:     req.Message,
	}

	if err := h.Intake.HandleMessage(c.Request.Context(), msg); err != nil {
		if h.Logger != nil {
			h.Logger.Error("relay message store failed",
				zap.String("channel", req.ChannelName),
				zap.Error(err),
			)
		}
		Error(c, http.StatusInternalServerError, "failed to store message", nil)
		return
	}

	Created(c, gin.H{"id": msg.ID, "channelName": msg.ChannelName})
}

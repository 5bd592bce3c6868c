package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/reolin/wsnotes/internal/notify"
	"github.com/reolin/wsnotes/internal/pkg/errcode"
	"github.com/reolin/wsnotes/internal/pkg/response"
)

type NotificationHandler struct {
	gateway *notify.FCMGateway
}

func NewNotificationHandler(gateway *notify.FCMGateway) *NotificationHandler {
	return &NotificationHandler{gateway: gateway}
}

type validateTokenRequest struct {
	Token string `json:"token"`
}

// ValidateToken probes a push token with a dry-run send so clients can
// prune stale registrations.
func (h *NotificationHandler) ValidateToken(c *gin.Context) {
	var req validateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		response.Error(c, errcode.ErrInvalid, "token required")
		return
	}
	if h.gateway == nil {
		response.Success(c, gin.H{"valid": false})
		return
	}
	response.Success(c, gin.H{"valid": h.gateway.IsTokenValid(c.Request.Context(), req.Token)})
}

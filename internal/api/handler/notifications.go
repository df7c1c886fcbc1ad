package handler

import (
	"net/http"

	"civicreport/backend/internal/models"

	"github.com/gin-gonic/gin"
)

type myNotificationsResponse struct {
	Unseen        int64                 `json:"unseen"`
	Notifications []models.Notification `json:"notifications"`
}

func (h *Handler) ListNotifications(c *gin.Context) {
	list, err := h.Notifications.List(c.Request.Context(), mustActor(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) MyNotifications(c *gin.Context) {
	ctx, actor := c.Request.Context(), mustActor(c)
	list, err := h.Notifications.MyNotifications(ctx, actor)
	if err != nil {
		abortWithError(c, err)
		return
	}
	unseen, err := h.Notifications.UnseenCount(ctx, actor)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, myNotificationsResponse{Unseen: unseen, Notifications: list})
}

func (h *Handler) MarkNotificationSeen(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.Notifications.MarkSeen(c.Request.Context(), mustActor(c), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

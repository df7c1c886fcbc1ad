package handler

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter wires middleware and every route of the public API.
func NewRouter(h *Handler, allowOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), AccessLog(h.Log), gin.Recovery())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(allowOrigins) == 0 || (len(allowOrigins) == 1 && allowOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = allowOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	v1.Use(Authenticate(h.Identity))
	{
		reports := v1.Group("/reports")
		reports.POST("", h.CreateReport)
		reports.GET("", h.GetReportsByStatus)
		reports.GET("/mine", h.GetMyReports)
		reports.GET("/assigned", h.GetAssignedReports)
		reports.GET("/:id", h.GetReportByID)
		reports.PUT("/:id/category", h.SetCategory)
		reports.PUT("/:id/review", h.Review)
		reports.PUT("/:id/maintainer", h.AssignMaintainer)
		reports.PUT("/:id/status", h.UpdateStatus)
		reports.POST("/:id/chats", h.CreateChat)
		reports.GET("/:id/chats", h.ListReportChats)
		reports.GET("/:id/messages", h.ListReportMessages)
		reports.POST("/:id/messages", h.PostReportMessage)

		chats := v1.Group("/chats")
		chats.GET("", h.ListMyChats)
		chats.GET("/:id", h.GetChat)
		chats.GET("/:id/messages", h.ListChatMessages)
		chats.POST("/:id/messages", h.PostChatMessage)

		v1.GET("/messages", h.ListMyMessages)

		notifications := v1.Group("/notifications")
		notifications.GET("", h.ListNotifications)
		notifications.GET("/mine", h.MyNotifications)
		notifications.PUT("/:id/seen", h.MarkNotificationSeen)
	}
	return r
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type createChatRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

type postMessageRequest struct {
	Text       string `json:"text" binding:"required"`
	ReceiverID *uint  `json:"receiver_id"`
}

func (h *Handler) CreateChat(c *gin.Context) {
	reportID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req createChatRequest
	if !bindJSON(c, &req) {
		return
	}
	thread, err := h.Chats.CreateThread(c.Request.Context(), mustActor(c), reportID, req.UserID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, thread)
}

func (h *Handler) ListReportChats(c *gin.Context) {
	reportID, ok := pathID(c, "id")
	if !ok {
		return
	}
	threads, err := h.Chats.FindByReport(c.Request.Context(), mustActor(c), reportID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, threads)
}

func (h *Handler) ListMyChats(c *gin.Context) {
	threads, err := h.Chats.FindByUser(c.Request.Context(), mustActor(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, threads)
}

func (h *Handler) GetChat(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	thread, err := h.Chats.FindByID(c.Request.Context(), mustActor(c), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, thread)
}

func (h *Handler) ListChatMessages(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	msgs, err := h.Chats.ByThread(c.Request.Context(), mustActor(c), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

func (h *Handler) PostChatMessage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req postMessageRequest
	if !bindJSON(c, &req) {
		return
	}
	msg, err := h.Chats.PostToThread(c.Request.Context(), mustActor(c), id, req.Text)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *Handler) ListReportMessages(c *gin.Context) {
	reportID, ok := pathID(c, "id")
	if !ok {
		return
	}
	msgs, err := h.Chats.ByReport(c.Request.Context(), mustActor(c), reportID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

func (h *Handler) PostReportMessage(c *gin.Context) {
	reportID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req postMessageRequest
	if !bindJSON(c, &req) {
		return
	}
	msg, err := h.Chats.PostToReport(c.Request.Context(), mustActor(c), reportID, req.Text, req.ReceiverID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *Handler) ListMyMessages(c *gin.Context) {
	msgs, err := h.Chats.ByUser(c.Request.Context(), mustActor(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

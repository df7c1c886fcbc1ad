package handler

import (
	"net/http"

	"civicreport/backend/internal/apperr"
	"civicreport/backend/internal/models"
	"civicreport/backend/internal/workflow"

	"github.com/gin-gonic/gin"
)

type createReportRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	PhotoURLs   []string `json:"photo_urls" binding:"omitempty,dive,url"`
	Anonymous   bool     `json:"anonymous"`
	CategoryID  *uint    `json:"category_id"`
}

type setCategoryRequest struct {
	CategoryID *uint `json:"category_id"`
}

type reviewRequest struct {
	Decision workflow.Decision `json:"decision"`
	Reason   string            `json:"reason"`
}

type assignMaintainerRequest struct {
	MaintainerID *uint `json:"maintainer_id"`
}

type updateStatusRequest struct {
	Status *models.ReportStatus `json:"status"`
}

func (h *Handler) CreateReport(c *gin.Context) {
	var req createReportRequest
	if !bindJSON(c, &req) {
		return
	}
	report, err := h.Reports.CreateReport(c.Request.Context(), mustActor(c), workflow.ReportInput{
		Title:       req.Title,
		Description: req.Description,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		PhotoURLs:   req.PhotoURLs,
		Anonymous:   req.Anonymous,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

func (h *Handler) GetReportsByStatus(c *gin.Context) {
	status := c.Query("status")
	if status == "" {
		abortWithError(c, apperr.Validation("status query parameter is required"))
		return
	}
	reports, err := h.Reports.GetReportsByStatus(c.Request.Context(), mustActor(c), models.ReportStatus(status))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

func (h *Handler) GetMyReports(c *gin.Context) {
	reports, err := h.Reports.GetMyReports(c.Request.Context(), mustActor(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

func (h *Handler) GetAssignedReports(c *gin.Context) {
	reports, err := h.Reports.GetAssignedReports(c.Request.Context(), mustActor(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

func (h *Handler) GetReportByID(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	report, err := h.Reports.GetReportByID(c.Request.Context(), id, mustActor(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// transition runs one state-changing call and renders its result.
func (h *Handler) transition(c *gin.Context, req any, call func(id uint, actor models.Actor) (*models.Report, error)) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if !bindJSON(c, req) {
		return
	}
	report, err := call(id, mustActor(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) SetCategory(c *gin.Context) {
	var req setCategoryRequest
	h.transition(c, &req, func(id uint, actor models.Actor) (*models.Report, error) {
		return h.Reports.Transition(c.Request.Context(), id, actor, workflow.TransitionRequest{
			Kind: workflow.KindSetCategory, CategoryID: req.CategoryID,
		})
	})
}

func (h *Handler) Review(c *gin.Context) {
	var req reviewRequest
	h.transition(c, &req, func(id uint, actor models.Actor) (*models.Report, error) {
		return h.Reports.AcceptOrReject(c.Request.Context(), id, actor, req.Decision, req.Reason)
	})
}

func (h *Handler) AssignMaintainer(c *gin.Context) {
	var req assignMaintainerRequest
	h.transition(c, &req, func(id uint, actor models.Actor) (*models.Report, error) {
		return h.Reports.Transition(c.Request.Context(), id, actor, workflow.TransitionRequest{
			Kind: workflow.KindAssignMaintainer, MaintainerID: req.MaintainerID,
		})
	})
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	h.transition(c, &req, func(id uint, actor models.Actor) (*models.Report, error) {
		return h.Reports.Transition(c.Request.Context(), id, actor, workflow.TransitionRequest{
			Kind: workflow.KindUpdateStatus, TargetStatus: req.Status,
		})
	})
}

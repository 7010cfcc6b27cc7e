package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vidyalaya/exam-api/internal/service"
	appErrors "github.com/vidyalaya/exam-api/pkg/errors"
	"github.com/vidyalaya/exam-api/pkg/response"
)

// ReportCardHandler exposes report-card generation, publication and reads.
type ReportCardHandler struct {
	reports *service.ReportCardService
	metrics *service.MetricsService
}

// NewReportCardHandler constructs handler.
func NewReportCardHandler(reports *service.ReportCardService, metrics *service.MetricsService) *ReportCardHandler {
	return &ReportCardHandler{reports: reports, metrics: metrics}
}

type generateRequest struct {
	ExamID    string `json:"exam_id" binding:"required"`
	ClassID   string `json:"class_id" binding:"required"`
	SectionID string `json:"section_id" binding:"required"`
}

type publishRequest struct {
	ExamID    string `json:"exam_id" binding:"required"`
	ClassID   string `json:"class_id" binding:"required"`
	SectionID string `json:"section_id" binding:"required"`
	Published *bool  `json:"published" binding:"required"`
}

// Generate godoc
// @Summary Generate and rank report cards for a class section
// @Tags ReportCards
// @Accept json
// @Produce json
// @Param payload body generateRequest true "Scope payload"
// @Success 200 {object} response.Envelope
// @Router /report-cards/generate [post]
func (h *ReportCardHandler) Generate(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	cards, err := h.reports.Generate(c.Request.Context(), actor, req.ExamID, req.ClassID, req.SectionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordCardsGenerated(len(cards))
	response.JSON(c, http.StatusOK, cards, nil)
}

// Publish godoc
// @Summary Set the visibility flag for a class section's report cards
// @Tags ReportCards
// @Accept json
// @Produce json
// @Param payload body publishRequest true "Scope payload"
// @Success 200 {object} response.Envelope
// @Router /report-cards/publish [post]
func (h *ReportCardHandler) Publish(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req publishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.reports.Publish(c.Request.Context(), actor, req.ExamID, req.ClassID, req.SectionID, *req.Published); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"published": *req.Published}, nil)
}

// Get godoc
// @Summary Get one student's report card with subject breakdown
// @Tags ReportCards
// @Produce json
// @Param examId path string true "Exam ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /report-cards/{examId}/students/{studentId} [get]
func (h *ReportCardHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	detail, err := h.reports.Fetch(c.Request.Context(), actor, c.Param("examId"), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

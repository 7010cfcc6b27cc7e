package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vidyalaya/exam-api/internal/service"
	appErrors "github.com/vidyalaya/exam-api/pkg/errors"
	"github.com/vidyalaya/exam-api/pkg/response"
)

// MarksHandler exposes marks submission and entry-sheet endpoints.
type MarksHandler struct {
	marks   *service.MarksService
	metrics *service.MetricsService
}

// NewMarksHandler constructs handler.
func NewMarksHandler(marks *service.MarksService, metrics *service.MetricsService) *MarksHandler {
	return &MarksHandler{marks: marks, metrics: metrics}
}

// Submit godoc
// @Summary Submit a batch of marks for one exam subject
// @Tags Marks
// @Accept json
// @Produce json
// @Param payload body service.SubmitMarksRequest true "Marks batch"
// @Success 200 {object} response.Envelope
// @Router /marks [post]
func (h *MarksHandler) Submit(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.SubmitMarksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.marks.Submit(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordMarksBatch(len(result.Saved), len(result.Rejected))
	response.JSON(c, http.StatusOK, result, nil)
}

// EntrySheet godoc
// @Summary Fetch the roster and existing results for marks entry
// @Tags Marks
// @Produce json
// @Param examId query string true "Exam ID"
// @Param examSubjectId query string true "Exam subject ID"
// @Param sectionId query string true "Section ID"
// @Success 200 {object} response.Envelope
// @Router /marks/entry-sheet [get]
func (h *MarksHandler) EntrySheet(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	sheet, err := h.marks.FetchEntrySheet(c.Request.Context(), actor,
		c.Query("examId"), c.Query("examSubjectId"), c.Query("sectionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}

// ExportEntrySheet godoc
// @Summary Export the marks entry sheet as CSV or PDF
// @Tags Marks
// @Produce octet-stream
// @Param examId query string true "Exam ID"
// @Param examSubjectId query string true "Exam subject ID"
// @Param sectionId query string true "Section ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /marks/entry-sheet/export [get]
func (h *MarksHandler) ExportEntrySheet(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	format := c.DefaultQuery("format", "csv")
	data, filename, err := h.marks.ExportEntrySheet(c.Request.Context(), actor,
		c.Query("examId"), c.Query("examSubjectId"), c.Query("sectionId"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	contentType := "text/csv"
	if format == "pdf" {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}

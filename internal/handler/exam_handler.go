package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vidyalaya/exam-api/internal/models"
	"github.com/vidyalaya/exam-api/internal/service"
	appErrors "github.com/vidyalaya/exam-api/pkg/errors"
	"github.com/vidyalaya/exam-api/pkg/response"
)

// ExamHandler exposes exam lifecycle endpoints.
type ExamHandler struct {
	exams   *service.ExamService
	metrics *service.MetricsService
}

// NewExamHandler constructs handler.
func NewExamHandler(exams *service.ExamService, metrics *service.MetricsService) *ExamHandler {
	return &ExamHandler{exams: exams, metrics: metrics}
}

// Create godoc
// @Summary Create a draft exam
// @Tags Exams
// @Accept json
// @Produce json
// @Param payload body service.CreateExamRequest true "Exam payload"
// @Success 201 {object} response.Envelope
// @Router /exams [post]
func (h *ExamHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	exam, err := h.exams.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, exam)
}

// List godoc
// @Summary List exams
// @Tags Exams
// @Produce json
// @Param status query string false "Filter by status"
// @Param academicYearId query string false "Filter by academic year"
// @Success 200 {object} response.Envelope
// @Router /exams [get]
func (h *ExamHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filter := models.ExamFilter{
		Status:         models.ExamStatus(c.Query("status")),
		AcademicYearID: c.Query("academicYearId"),
	}
	exams, err := h.exams.List(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exams, nil)
}

// Get godoc
// @Summary Get one exam with its subjects
// @Tags Exams
// @Produce json
// @Param id path string true "Exam ID"
// @Success 200 {object} response.Envelope
// @Router /exams/{id} [get]
func (h *ExamHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	exam, err := h.exams.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exam, nil)
}

// Update godoc
// @Summary Update a draft exam
// @Tags Exams
// @Accept json
// @Produce json
// @Param id path string true "Exam ID"
// @Param payload body service.UpdateExamRequest true "Exam payload"
// @Success 200 {object} response.Envelope
// @Router /exams/{id} [put]
func (h *ExamHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpdateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	exam, err := h.exams.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exam, nil)
}

// LinkSubjects godoc
// @Summary Attach or refresh exam subjects
// @Tags Exams
// @Accept json
// @Produce json
// @Param id path string true "Exam ID"
// @Param payload body []service.ExamSubjectInput true "Subject links"
// @Success 200 {object} response.Envelope
// @Router /exams/{id}/subjects [put]
func (h *ExamHandler) LinkSubjects(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var inputs []service.ExamSubjectInput
	if err := c.ShouldBindJSON(&inputs); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	subjects, err := h.exams.LinkOrUpdateSubjects(c.Request.Context(), actor, c.Param("id"), inputs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// Publish godoc
// @Summary Publish a draft exam
// @Tags Exams
// @Produce json
// @Param id path string true "Exam ID"
// @Success 200 {object} response.Envelope
// @Router /exams/{id}/publish [post]
func (h *ExamHandler) Publish(c *gin.Context) {
	h.doTransition(c, h.exams.Publish)
}

// Lock godoc
// @Summary Lock a published exam
// @Tags Exams
// @Produce json
// @Param id path string true "Exam ID"
// @Success 200 {object} response.Envelope
// @Router /exams/{id}/lock [post]
func (h *ExamHandler) Lock(c *gin.Context) {
	h.doTransition(c, h.exams.Lock)
}

// Unlock godoc
// @Summary Unlock a locked exam
// @Tags Exams
// @Produce json
// @Param id path string true "Exam ID"
// @Success 200 {object} response.Envelope
// @Router /exams/{id}/unlock [post]
func (h *ExamHandler) Unlock(c *gin.Context) {
	h.doTransition(c, h.exams.Unlock)
}

// Delete godoc
// @Summary Delete an exam
// @Tags Exams
// @Param id path string true "Exam ID"
// @Success 204
// @Router /exams/{id} [delete]
func (h *ExamHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.exams.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteSubject godoc
// @Summary Remove a subject from a draft exam
// @Tags Exams
// @Param id path string true "Exam ID"
// @Param subjectId path string true "Exam subject ID"
// @Success 204
// @Router /exams/{id}/subjects/{subjectId} [delete]
func (h *ExamHandler) DeleteSubject(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.exams.DeleteSubject(c.Request.Context(), actor, c.Param("id"), c.Param("subjectId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *ExamHandler) doTransition(c *gin.Context, op func(ctx context.Context, actor models.Actor, examID string) (*models.Exam, error)) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	exam, err := op(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordTransition(string(exam.Status))
	response.JSON(c, http.StatusOK, exam, nil)
}

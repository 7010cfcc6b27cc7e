package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/vidyalaya/exam-api/internal/middleware"
	"github.com/vidyalaya/exam-api/internal/service"
)

// Handlers bundles the route handlers the router mounts.
type Handlers struct {
	Auth    *service.AuthService
	Exams   *ExamHandler
	Marks   *MarksHandler
	Reports *ReportCardHandler

	// ExportsEnabled mounts the entry-sheet download routes. Schools that
	// distribute printed sheets through another channel turn it off.
	ExportsEnabled bool
}

// RegisterRoutes mounts every API route under the given prefix. All domain
// routes require a valid token; capability guards reject wrong roles at the
// edge before the services re-check authorization themselves.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers) {
	api := r.Group(prefix)
	api.Use(middleware.JWT(h.Auth))

	exams := api.Group("/exams")
	{
		exams.GET("", middleware.RequireCapability(service.CapReadExams), h.Exams.List)
		exams.GET("/:id", middleware.RequireCapability(service.CapReadExams), h.Exams.Get)

		manage := middleware.RequireCapability(service.CapManageExams)
		exams.POST("", manage, h.Exams.Create)
		exams.PUT("/:id", manage, h.Exams.Update)
		exams.DELETE("/:id", manage, h.Exams.Delete)
		exams.PUT("/:id/subjects", manage, h.Exams.LinkSubjects)
		exams.DELETE("/:id/subjects/:subjectId", manage, h.Exams.DeleteSubject)
		exams.POST("/:id/publish", manage, h.Exams.Publish)
		exams.POST("/:id/lock", manage, h.Exams.Lock)
		exams.POST("/:id/unlock", manage, h.Exams.Unlock)
	}

	marks := api.Group("/marks")
	{
		marks.POST("", middleware.RequireCapability(service.CapSubmitMarks), h.Marks.Submit)
		marks.GET("/entry-sheet", middleware.RequireCapability(service.CapReadMarks), h.Marks.EntrySheet)
		if h.ExportsEnabled {
			marks.GET("/entry-sheet/export", middleware.RequireCapability(service.CapReadMarks), h.Marks.ExportEntrySheet)
		}
	}

	reports := api.Group("/report-cards")
	{
		reports.POST("/generate", middleware.RequireCapability(service.CapGenerateReportCards), h.Reports.Generate)
		reports.POST("/publish", middleware.RequireCapability(service.CapPublishReportCards), h.Reports.Publish)
		reports.GET("/:examId/students/:studentId",
			middleware.RequireCapability(service.CapReadAnyReportCard, service.CapReadOwnReportCard), h.Reports.Get)
	}
}

package service

import (
	"github.com/vidyalaya/exam-api/internal/models"
	appErrors "github.com/vidyalaya/exam-api/pkg/errors"
)

// Capability names one guarded operation family. Authorization is a pure
// (capability, role) lookup so every rule is enumerable and testable away
// from the HTTP layer; the marks validator layers the teaching-assignment
// check on top for non-privileged submitters.
type Capability string

// Guarded operation families.
const (
	CapManageExams         Capability = "exams:manage"
	CapReadExams           Capability = "exams:read"
	CapSubmitMarks         Capability = "marks:submit"
	CapReadMarks           Capability = "marks:read"
	CapGenerateReportCards Capability = "reports:generate"
	CapPublishReportCards  Capability = "reports:publish"
	CapReadAnyReportCard   Capability = "reports:read-any"
	CapReadOwnReportCard   Capability = "reports:read-own"
)

var policy = map[Capability][]models.Role{
	CapManageExams:         {models.RoleAdmin, models.RoleSchoolAdmin, models.RoleExamOfficer},
	CapReadExams:           {models.RoleAdmin, models.RoleSchoolAdmin, models.RoleExamOfficer, models.RoleTeacher},
	CapSubmitMarks:         {models.RoleAdmin, models.RoleSchoolAdmin, models.RoleExamOfficer, models.RoleTeacher},
	CapReadMarks:           {models.RoleAdmin, models.RoleSchoolAdmin, models.RoleExamOfficer, models.RoleTeacher},
	CapGenerateReportCards: {models.RoleAdmin, models.RoleSchoolAdmin, models.RoleExamOfficer},
	CapPublishReportCards:  {models.RoleAdmin, models.RoleSchoolAdmin, models.RoleExamOfficer},
	CapReadAnyReportCard:   {models.RoleAdmin, models.RoleSchoolAdmin, models.RoleExamOfficer, models.RoleTeacher},
	CapReadOwnReportCard:   {models.RoleStudent, models.RoleGuardian},
}

// Allowed reports whether the role may exercise the capability.
func Allowed(capability Capability, role models.Role) bool {
	for _, allowed := range policy[capability] {
		if allowed == role {
			return true
		}
	}
	return false
}

// Authorize returns the generic forbidden error when the role may not
// exercise the capability. The message never names the target resource.
func Authorize(capability Capability, actor models.Actor) error {
	if !Allowed(capability, actor.Role) {
		return appErrors.ErrForbidden
	}
	return nil
}

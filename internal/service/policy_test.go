package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vidyalaya/exam-api/internal/models"
	appErrors "github.com/vidyalaya/exam-api/pkg/errors"
)

func TestPolicyMatrix(t *testing.T) {
	cases := []struct {
		capability Capability
		role       models.Role
		allowed    bool
	}{
		{CapManageExams, models.RoleExamOfficer, true},
		{CapManageExams, models.RoleSchoolAdmin, true},
		{CapManageExams, models.RoleTeacher, false},
		{CapManageExams, models.RoleStudent, false},
		{CapSubmitMarks, models.RoleTeacher, true},
		{CapSubmitMarks, models.RoleStudent, false},
		{CapGenerateReportCards, models.RoleExamOfficer, true},
		{CapGenerateReportCards, models.RoleTeacher, false},
		{CapReadAnyReportCard, models.RoleTeacher, true},
		{CapReadAnyReportCard, models.RoleStudent, false},
		{CapReadOwnReportCard, models.RoleStudent, true},
		{CapReadOwnReportCard, models.RoleGuardian, true},
		{CapReadOwnReportCard, models.RoleTeacher, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, Allowed(tc.capability, tc.role),
			"capability %s role %s", tc.capability, tc.role)
	}
}

func TestAuthorizeReturnsForbidden(t *testing.T) {
	err := Authorize(CapManageExams, models.Actor{UserID: "u", SchoolID: "s", Role: models.RoleStudent})
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	assert.NoError(t, Authorize(CapManageExams, models.Actor{UserID: "u", SchoolID: "s", Role: models.RoleAdmin}))
}

func TestPrivilegedRolesBypassAssignmentChecks(t *testing.T) {
	assert.True(t, models.RoleAdmin.Privileged())
	assert.True(t, models.RoleSchoolAdmin.Privileged())
	assert.True(t, models.RoleExamOfficer.Privileged())
	assert.False(t, models.RoleTeacher.Privileged())
	assert.False(t, models.RoleStudent.Privileged())
}

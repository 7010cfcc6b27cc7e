package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidyalaya/exam-api/internal/grading"
	"github.com/vidyalaya/exam-api/internal/models"
	appErrors "github.com/vidyalaya/exam-api/pkg/errors"
)

func ptr(v float64) *float64 { return &v }

// marksFixture seeds a published exam with one theory+practical subject and
// a two-student roster.
type marksFixture struct {
	store   *fakeStore
	exams   *ExamService
	marks   *MarksService
	exam    *models.ExamDetail
	subject models.ExamSubject
}

func newMarksFixture(t *testing.T, gradeLevel int) *marksFixture {
	t.Helper()
	store := newFakeStore()
	exams := NewExamService(store, nil, nil)
	marks := NewMarksService(store, grading.NewRules(11), nil, nil)

	store.classes["class-1"] = &models.Class{ID: "class-1", SchoolID: "school-1", Name: "Class", GradeLevel: gradeLevel}
	store.classSubjects["cs-1"] = &models.ClassSubject{
		ID: "cs-1", SchoolID: "school-1", ClassID: "class-1", AcademicYearID: "year-1",
		SubjectName: "Science", HasTheory: true, HasPractical: true,
		TheoryFullMarks: 75, PracticalFullMarks: 25, FullMarks: 100, PassMarks: 40, CreditHours: 5,
	}
	store.enrollments = []models.StudentEnrollment{
		{ID: "en-1", StudentID: "student-1", ClassID: "class-1", SectionID: "sec-A", AcademicYearID: "year-1", RollNumber: 1, StudentName: "Asha", Status: models.EnrollmentStatusActive},
		{ID: "en-2", StudentID: "student-2", ClassID: "class-1", SectionID: "sec-A", AcademicYearID: "year-1", RollNumber: 2, StudentName: "Bibek", Status: models.EnrollmentStatusActive},
	}
	store.assignments[assignmentKey("teacher-1", "cs-1", "sec-A")] = struct{}{}

	ctx := context.Background()
	exam, err := exams.Create(ctx, officer, CreateExamRequest{
		Name: "Midterm", ExamType: "TERMINAL", AcademicYearID: "year-1", ClassIDs: []string{"class-1"},
	})
	require.NoError(t, err)
	_, err = exams.Publish(ctx, officer, exam.ID)
	require.NoError(t, err)

	subjects, err := store.ListExamSubjects(ctx, exam.ID)
	require.NoError(t, err)
	require.Len(t, subjects, 1)

	return &marksFixture{store: store, exams: exams, marks: marks, exam: exam, subject: subjects[0]}
}

func (f *marksFixture) request(entries ...MarkEntryInput) SubmitMarksRequest {
	return SubmitMarksRequest{
		ExamID:        f.exam.ID,
		ExamSubjectID: f.subject.ID,
		SectionID:     "sec-A",
		Entries:       entries,
	}
}

func TestSubmitMarksHappyPath(t *testing.T) {
	f := newMarksFixture(t, 8)

	result, err := f.marks.Submit(context.Background(), teacher, f.request(
		MarkEntryInput{StudentID: "student-1", TheoryMarks: ptr(60), PracticalMarks: ptr(20)},
		MarkEntryInput{StudentID: "student-2", TheoryMarks: ptr(30)},
	))

	require.NoError(t, err)
	require.Len(t, result.Saved, 2)
	assert.Empty(t, result.Rejected)
	saved := result.Saved[0]
	assert.Equal(t, "en-1", saved.EnrollmentID)
	assert.Equal(t, teacher.UserID, saved.EnteredBy)
	assert.Equal(t, models.RoleTeacher, saved.EnteredByRole)
}

func TestSubmitMarksRequiresPublishedExam(t *testing.T) {
	f := newMarksFixture(t, 8)
	ctx := context.Background()

	_, err := f.exams.Lock(ctx, officer, f.exam.ID)
	require.NoError(t, err)

	_, err = f.marks.Submit(ctx, teacher, f.request(
		MarkEntryInput{StudentID: "student-1", TheoryMarks: ptr(50)},
	))
	assert.True(t, appErrors.Is(err, appErrors.ErrStateConflict))

	// Unlock reopens submissions.
	_, err = f.exams.Unlock(ctx, officer, f.exam.ID)
	require.NoError(t, err)
	_, err = f.marks.Submit(ctx, teacher, f.request(
		MarkEntryInput{StudentID: "student-1", TheoryMarks: ptr(50)},
	))
	assert.NoError(t, err)
}

func TestSubmitMarksUnassignedTeacherForbidden(t *testing.T) {
	f := newMarksFixture(t, 8)
	outsider := models.Actor{UserID: "teacher-2", SchoolID: "school-1", Role: models.RoleTeacher}

	_, err := f.marks.Submit(context.Background(), outsider, f.request(
		MarkEntryInput{StudentID: "student-1", TheoryMarks: ptr(50)},
	))

	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestSubmitMarksPrivilegedBypassesAssignment(t *testing.T) {
	f := newMarksFixture(t, 8)

	result, err := f.marks.Submit(context.Background(), officer, f.request(
		MarkEntryInput{StudentID: "student-1", TheoryMarks: ptr(50)},
	))

	require.NoError(t, err)
	assert.Equal(t, models.RoleExamOfficer, result.Saved[0].EnteredByRole)
}

func TestSubmitMarksRejectsStudentOutsideRoster(t *testing.T) {
	f := newMarksFixture(t, 8)

	_, err := f.marks.Submit(context.Background(), teacher, f.request(
		MarkEntryInput{StudentID: "student-1", TheoryMarks: ptr(50)},
		MarkEntryInput{StudentID: "stranger", TheoryMarks: ptr(50)},
	))

	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
	// Whole batch aborts: nothing persisted.
	count, _ := f.store.CountResultsByExamSubject(context.Background(), f.subject.ID)
	assert.Zero(t, count)
}

func TestSubmitMarksBoundsValidation(t *testing.T) {
	f := newMarksFixture(t, 8)
	ctx := context.Background()

	cases := []struct {
		name  string
		entry MarkEntryInput
	}{
		{"theory above full", MarkEntryInput{StudentID: "student-1", TheoryMarks: ptr(80)}},
		{"negative theory", MarkEntryInput{StudentID: "student-1", TheoryMarks: ptr(-1)}},
		{"practical above full", MarkEntryInput{StudentID: "student-1", PracticalMarks: ptr(30)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.marks.Submit(ctx, teacher, f.request(tc.entry))
			assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
		})
	}
}

func TestSubmitMarksRejectsComponentNotInSnapshot(t *testing.T) {
	f := newMarksFixture(t, 8)
	f.store.subjects[f.subject.ID].HasPractical = false

	_, err := f.marks.Submit(context.Background(), teacher, f.request(
		MarkEntryInput{StudentID: "student-1", PracticalMarks: ptr(10)},
	))

	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestSubmitMarksAbsenceNullsTheory(t *testing.T) {
	f := newMarksFixture(t, 8)

	result, err := f.marks.Submit(context.Background(), teacher, f.request(
		MarkEntryInput{StudentID: "student-1", TheoryMarks: ptr(70), PracticalMarks: ptr(15), IsAbsent: true},
	))

	require.NoError(t, err)
	saved := result.Saved[0]
	assert.Nil(t, saved.TheoryMarks)
	require.NotNil(t, saved.PracticalMarks)
	assert.Equal(t, 15.0, *saved.PracticalMarks)
	assert.True(t, saved.IsAbsent)

	// An absent student's theory number is discarded before bounds
	// validation, so even an impossible value cannot abort the batch.
	result, err = f.marks.Submit(context.Background(), teacher, f.request(
		MarkEntryInput{StudentID: "student-2", TheoryMarks: ptr(200), IsAbsent: true},
	))
	require.NoError(t, err)
	assert.Nil(t, result.Saved[0].TheoryMarks)
	assert.True(t, result.Saved[0].IsAbsent)
}

func TestSubmitMarksIdempotentUpsert(t *testing.T) {
	f := newMarksFixture(t, 8)
	ctx := context.Background()

	_, err := f.marks.Submit(ctx, teacher, f.request(
		MarkEntryInput{StudentID: "student-1", TheoryMarks: ptr(40)},
	))
	require.NoError(t, err)
	_, err = f.marks.Submit(ctx, officer, f.request(
		MarkEntryInput{StudentID: "student-1", TheoryMarks: ptr(55)},
	))
	require.NoError(t, err)

	count, _ := f.store.CountResultsByExamSubject(ctx, f.subject.ID)
	assert.Equal(t, 1, count)
	results, _ := f.store.ListResultsByExamSubject(ctx, f.subject.ID)
	assert.Equal(t, 55.0, *results[0].TheoryMarks)
	assert.Equal(t, models.RoleExamOfficer, results[0].EnteredByRole)
}

func TestSubmitMarksAdvancedTrackFiltersUnenrolled(t *testing.T) {
	f := newMarksFixture(t, 11)
	f.store.subjectEnrollments["cs-1"] = map[string]struct{}{"student-1": {}}

	result, err := f.marks.Submit(context.Background(), teacher, f.request(
		MarkEntryInput{StudentID: "student-1", TheoryMarks: ptr(60)},
		MarkEntryInput{StudentID: "student-2", TheoryMarks: ptr(45)},
	))

	require.NoError(t, err)
	require.Len(t, result.Saved, 1)
	assert.Equal(t, "student-1", result.Saved[0].StudentID)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, "student-2", result.Rejected[0].StudentID)
	assert.Contains(t, result.Rejected[0].Reason, "not enrolled")
}

func TestSubmitMarksAdvancedTrackAllUnenrolledFailsBatch(t *testing.T) {
	f := newMarksFixture(t, 11)
	f.store.subjectEnrollments["cs-1"] = map[string]struct{}{}

	_, err := f.marks.Submit(context.Background(), teacher, f.request(
		MarkEntryInput{StudentID: "student-1", TheoryMarks: ptr(60)},
		MarkEntryInput{StudentID: "student-2", TheoryMarks: ptr(45)},
	))

	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Contains(t, err.Error(), "student-1")
	assert.Contains(t, err.Error(), "student-2")
}

func TestFetchEntrySheetReturnsRosterAndResults(t *testing.T) {
	f := newMarksFixture(t, 8)
	ctx := context.Background()

	_, err := f.marks.Submit(ctx, teacher, f.request(
		MarkEntryInput{StudentID: "student-1", TheoryMarks: ptr(62)},
	))
	require.NoError(t, err)

	sheet, err := f.marks.FetchEntrySheet(ctx, teacher, f.exam.ID, f.subject.ID, "sec-A")
	require.NoError(t, err)
	assert.Len(t, sheet.Roster, 2)
	require.Contains(t, sheet.Results, "student-1")
	assert.Equal(t, 62.0, *sheet.Results["student-1"].TheoryMarks)
}

func TestFetchEntrySheetUnassignedTeacherForbidden(t *testing.T) {
	f := newMarksFixture(t, 8)
	outsider := models.Actor{UserID: "teacher-2", SchoolID: "school-1", Role: models.RoleTeacher}

	_, err := f.marks.FetchEntrySheet(context.Background(), outsider, f.exam.ID, f.subject.ID, "sec-A")

	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestExportEntrySheetCSV(t *testing.T) {
	f := newMarksFixture(t, 8)

	data, filename, err := f.marks.ExportEntrySheet(context.Background(), teacher, f.exam.ID, f.subject.ID, "sec-A", "csv")

	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(filename, ".csv"))
	body := string(data)
	assert.Contains(t, body, "Roll,Student,Theory,Practical,Absent,Remark")
	assert.Contains(t, body, "Asha")
	assert.Contains(t, body, "Bibek")
}

func TestExportEntrySheetUnknownFormat(t *testing.T) {
	f := newMarksFixture(t, 8)

	_, _, err := f.marks.ExportEntrySheet(context.Background(), teacher, f.exam.ID, f.subject.ID, "sec-A", "xlsx")

	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

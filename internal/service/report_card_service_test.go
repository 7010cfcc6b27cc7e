package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidyalaya/exam-api/internal/grading"
	"github.com/vidyalaya/exam-api/internal/models"
	appErrors "github.com/vidyalaya/exam-api/pkg/errors"
)

func newReportFixture(t *testing.T, gradeLevel int) (*marksFixture, *ReportCardService) {
	t.Helper()
	f := newMarksFixture(t, gradeLevel)
	reports := NewReportCardService(f.store, grading.NewRules(11), nil, 0, nil, nil)
	return f, reports
}

// The canonical midterm flow: two students, one subject, ranks follow
// percentage order.
func TestGenerateReportCardsRanksByPercentage(t *testing.T) {
	f, reports := newReportFixture(t, 8)
	ctx := context.Background()

	_, err := f.marks.Submit(ctx, teacher, f.request(
		MarkEntryInput{StudentID: "student-1", TheoryMarks: ptr(70), PracticalMarks: ptr(15)},
		MarkEntryInput{StudentID: "student-2", TheoryMarks: ptr(30)},
	))
	require.NoError(t, err)

	cards, err := reports.Generate(ctx, officer, f.exam.ID, "class-1", "sec-A")
	require.NoError(t, err)
	require.Len(t, cards, 2)

	first, second := cards[0], cards[1]
	assert.Equal(t, "student-1", first.StudentID)
	assert.Equal(t, 85.0, first.TotalObtained)
	assert.Equal(t, 85.0, first.Percentage)
	assert.Equal(t, grading.GradeA, first.OverallGrade)
	require.NotNil(t, first.Rank)
	assert.Equal(t, 1, *first.Rank)

	assert.Equal(t, "student-2", second.StudentID)
	assert.Equal(t, grading.GradeNG, second.OverallGrade)
	require.NotNil(t, second.Rank)
	assert.Equal(t, 2, *second.Rank)
}

func TestGenerateSkipsStudentsWithoutResults(t *testing.T) {
	f, reports := newReportFixture(t, 8)
	ctx := context.Background()

	_, err := f.marks.Submit(ctx, teacher, f.request(
		MarkEntryInput{StudentID: "student-1", TheoryMarks: ptr(50)},
	))
	require.NoError(t, err)

	cards, err := reports.Generate(ctx, officer, f.exam.ID, "class-1", "sec-A")
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "student-1", cards[0].StudentID)
}

func TestGenerateIsIdempotent(t *testing.T) {
	f, reports := newReportFixture(t, 8)
	ctx := context.Background()

	_, err := f.marks.Submit(ctx, teacher, f.request(
		MarkEntryInput{StudentID: "student-1", TheoryMarks: ptr(70)},
		MarkEntryInput{StudentID: "student-2", TheoryMarks: ptr(30)},
	))
	require.NoError(t, err)

	first, err := reports.Generate(ctx, officer, f.exam.ID, "class-1", "sec-A")
	require.NoError(t, err)
	second, err := reports.Generate(ctx, officer, f.exam.ID, "class-1", "sec-A")
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].TotalObtained, second[i].TotalObtained)
		assert.Equal(t, first[i].OverallGrade, second[i].OverallGrade)
		assert.Equal(t, *first[i].Rank, *second[i].Rank)
	}
	assert.Len(t, f.store.cards, 2)
}

func TestRegenerationReranksAfterCorrection(t *testing.T) {
	f, reports := newReportFixture(t, 8)
	ctx := context.Background()

	_, err := f.marks.Submit(ctx, teacher, f.request(
		MarkEntryInput{StudentID: "student-1", TheoryMarks: ptr(70)},
		MarkEntryInput{StudentID: "student-2", TheoryMarks: ptr(30)},
	))
	require.NoError(t, err)
	_, err = reports.Generate(ctx, officer, f.exam.ID, "class-1", "sec-A")
	require.NoError(t, err)

	// A late correction flips the order; regeneration re-ranks everyone.
	_, err = f.marks.Submit(ctx, teacher, f.request(
		MarkEntryInput{StudentID: "student-2", TheoryMarks: ptr(75)},
	))
	require.NoError(t, err)
	cards, err := reports.Generate(ctx, officer, f.exam.ID, "class-1", "sec-A")
	require.NoError(t, err)

	assert.Equal(t, "student-2", cards[0].StudentID)
	assert.Equal(t, 1, *cards[0].Rank)
	assert.Equal(t, "student-1", cards[1].StudentID)
	assert.Equal(t, 2, *cards[1].Rank)
}

func TestGenerateAdvancedTrackComputesWeightedGPA(t *testing.T) {
	f, reports := newReportFixture(t, 11)
	ctx := context.Background()
	f.store.subjectEnrollments["cs-1"] = map[string]struct{}{"student-1": {}}
	f.store.components["cs-1"] = []models.SubjectComponent{
		{ID: "sc-1", ClassSubjectID: "cs-1", Type: models.ComponentTheory, FullMarks: 75, PassMarks: 30, CreditHours: 3.75},
		{ID: "sc-2", ClassSubjectID: "cs-1", Type: models.ComponentPractical, FullMarks: 25, PassMarks: 10, CreditHours: 1.25},
	}

	// Theory 67.5/75 = 90% -> 4.0; practical 15/25 = 60% -> 2.8.
	_, err := f.marks.Submit(ctx, teacher, f.request(
		MarkEntryInput{StudentID: "student-1", TheoryMarks: ptr(67.5), PracticalMarks: ptr(15)},
	))
	require.NoError(t, err)

	cards, err := reports.Generate(ctx, officer, f.exam.ID, "class-1", "sec-A")
	require.NoError(t, err)
	require.Len(t, cards, 1)

	card := cards[0]
	require.NotNil(t, card.GPA)
	// (4.0*3.75 + 2.8*1.25) / 5 = 3.7
	assert.InDelta(t, 3.7, *card.GPA, 0.001)
	assert.Equal(t, grading.GradeAPlus, card.OverallGrade)
}

func TestGenerateAdvancedAbsencePropagates(t *testing.T) {
	f, reports := newReportFixture(t, 11)
	ctx := context.Background()
	f.store.subjectEnrollments["cs-1"] = map[string]struct{}{"student-1": {}}

	_, err := f.marks.Submit(ctx, teacher, f.request(
		MarkEntryInput{StudentID: "student-1", IsAbsent: true},
	))
	require.NoError(t, err)

	cards, err := reports.Generate(ctx, officer, f.exam.ID, "class-1", "sec-A")
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, grading.GradeAbsent, cards[0].OverallGrade)
	require.NotNil(t, cards[0].GPA)
	assert.Equal(t, 0.0, *cards[0].GPA)
}

func TestPublishGatesStudentReads(t *testing.T) {
	f, reports := newReportFixture(t, 8)
	ctx := context.Background()
	student := models.Actor{UserID: "student-1", SchoolID: "school-1", Role: models.RoleStudent}

	_, err := f.marks.Submit(ctx, teacher, f.request(
		MarkEntryInput{StudentID: "student-1", TheoryMarks: ptr(70)},
	))
	require.NoError(t, err)
	_, err = reports.Generate(ctx, officer, f.exam.ID, "class-1", "sec-A")
	require.NoError(t, err)

	// Unpublished: student blocked, staff allowed.
	_, err = reports.Fetch(ctx, student, f.exam.ID, "student-1")
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
	_, err = reports.Fetch(ctx, teacher, f.exam.ID, "student-1")
	assert.NoError(t, err)

	require.NoError(t, reports.Publish(ctx, officer, f.exam.ID, "class-1", "sec-A", true))

	detail, err := reports.Fetch(ctx, student, f.exam.ID, "student-1")
	require.NoError(t, err)
	assert.True(t, detail.Published)
	require.Len(t, detail.Subjects, 1)
	assert.Equal(t, "Science", detail.Subjects[0].SubjectName)
	assert.Equal(t, grading.GradeBPlus, detail.Subjects[0].Grade)
}

func TestStudentCannotReadAnotherStudentsCard(t *testing.T) {
	f, reports := newReportFixture(t, 8)
	ctx := context.Background()
	student := models.Actor{UserID: "student-2", SchoolID: "school-1", Role: models.RoleStudent}

	_, err := f.marks.Submit(ctx, teacher, f.request(
		MarkEntryInput{StudentID: "student-1", TheoryMarks: ptr(70)},
	))
	require.NoError(t, err)
	_, err = reports.Generate(ctx, officer, f.exam.ID, "class-1", "sec-A")
	require.NoError(t, err)
	require.NoError(t, reports.Publish(ctx, officer, f.exam.ID, "class-1", "sec-A", true))

	_, err = reports.Fetch(ctx, student, f.exam.ID, "student-1")
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestGuardianReadsOnlyLinkedWards(t *testing.T) {
	f, reports := newReportFixture(t, 8)
	ctx := context.Background()
	guardian := models.Actor{UserID: "guardian-1", SchoolID: "school-1", Role: models.RoleGuardian, WardIDs: []string{"student-1"}}
	unlinked := models.Actor{UserID: "guardian-2", SchoolID: "school-1", Role: models.RoleGuardian}

	_, err := f.marks.Submit(ctx, teacher, f.request(
		MarkEntryInput{StudentID: "student-1", TheoryMarks: ptr(70)},
	))
	require.NoError(t, err)
	_, err = reports.Generate(ctx, officer, f.exam.ID, "class-1", "sec-A")
	require.NoError(t, err)
	require.NoError(t, reports.Publish(ctx, officer, f.exam.ID, "class-1", "sec-A", true))

	detail, err := reports.Fetch(ctx, guardian, f.exam.ID, "student-1")
	require.NoError(t, err)
	assert.Equal(t, "student-1", detail.StudentID)

	// No ward claim, or a different ward, denies the read.
	_, err = reports.Fetch(ctx, unlinked, f.exam.ID, "student-1")
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
	_, err = reports.Fetch(ctx, guardian, f.exam.ID, "student-2")
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestGenerateRequiresCapability(t *testing.T) {
	f, reports := newReportFixture(t, 8)

	_, err := reports.Generate(context.Background(), teacher, f.exam.ID, "class-1", "sec-A")

	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestFetchUnknownCardNotFound(t *testing.T) {
	f, reports := newReportFixture(t, 8)

	_, err := reports.Fetch(context.Background(), officer, f.exam.ID, "student-1")

	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

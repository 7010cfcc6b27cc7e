package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/vidyalaya/exam-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func examRows(exam models.Exam) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "school_id", "academic_year_id", "name", "exam_type", "status", "start_date", "end_date", "published_at", "created_at", "updated_at"}).
		AddRow(exam.ID, exam.SchoolID, exam.AcademicYearID, exam.Name, exam.ExamType, exam.Status, exam.StartDate, exam.EndDate, exam.PublishedAt, exam.CreatedAt, exam.UpdatedAt)
}

func TestExamRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewExamRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO exams")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	exam := &models.Exam{
		SchoolID:       "school-1",
		AcademicYearID: "year-1",
		Name:           "Midterm",
		ExamType:       "TERMINAL",
		Status:         models.ExamStatusDraft,
	}
	require.NoError(t, repo.Create(context.Background(), exam))
	require.NotEmpty(t, exam.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExamRepositoryFindByIDScopesSchool(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewExamRepository(db)
	stored := models.Exam{ID: "exam-1", SchoolID: "school-1", AcademicYearID: "year-1", Name: "Midterm", ExamType: "TERMINAL", Status: models.ExamStatusDraft, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, school_id, academic_year_id, name, exam_type, status, start_date, end_date, published_at, created_at, updated_at FROM exams WHERE id = $1 AND school_id = $2")).
		WithArgs("exam-1", "school-1").
		WillReturnRows(examRows(stored))

	found, err := repo.FindByID(context.Background(), "school-1", "exam-1")
	require.NoError(t, err)
	require.Equal(t, "exam-1", found.ID)

	mock.ExpectQuery(regexp.QuoteMeta("FROM exams WHERE id = $1 AND school_id = $2")).
		WithArgs("exam-1", "school-2").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.FindByID(context.Background(), "school-2", "exam-1")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExamRepositoryListAppliesFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewExamRepository(db)
	stored := models.Exam{ID: "exam-1", SchoolID: "school-1", AcademicYearID: "year-1", Name: "Midterm", ExamType: "TERMINAL", Status: models.ExamStatusPublished, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	mock.ExpectQuery(regexp.QuoteMeta("FROM exams WHERE school_id = $1 AND academic_year_id = $2 AND status = $3 ORDER BY created_at DESC")).
		WithArgs("school-1", "year-1", models.ExamStatusPublished).
		WillReturnRows(examRows(stored))

	exams, err := repo.List(context.Background(), models.ExamFilter{
		SchoolID:       "school-1",
		AcademicYearID: "year-1",
		Status:         models.ExamStatusPublished,
	})
	require.NoError(t, err)
	require.Len(t, exams, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExamRepositoryUpdateStatusKeepsPublishTime(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewExamRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE exams SET status = $2, published_at = COALESCE($3, published_at)")).
		WithArgs("exam-1", models.ExamStatusLocked, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "exam-1", models.ExamStatusLocked, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExamSubjectRepositoryUpsertKeyedByPair(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewExamSubjectRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (exam_id, class_subject_id)")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	subject := &models.ExamSubject{
		ExamID:          "exam-1",
		ClassSubjectID:  "cs-1",
		ClassID:         "class-1",
		HasTheory:       true,
		TheoryFullMarks: 100,
		FullMarks:       100,
		PassMarks:       40,
	}
	require.NoError(t, repo.Upsert(context.Background(), subject))
	require.NotEmpty(t, subject.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExamResultRepositoryUpsertKeyedByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewExamResultRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (exam_subject_id, student_id)")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	marks := 72.5
	result := &models.ExamResult{
		ExamSubjectID: "es-1",
		StudentID:     "student-1",
		EnrollmentID:  "en-1",
		TheoryMarks:   &marks,
		EnteredBy:     "teacher-1",
		EnteredByRole: models.RoleTeacher,
	}
	require.NoError(t, repo.Upsert(context.Background(), result))
	require.NoError(t, mock.ExpectationsWereMet())
}

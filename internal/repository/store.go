package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vidyalaya/exam-api/internal/models"
)

// Datastore is the persistence surface the services program against. It is
// passed explicitly into every operation rather than held as process-wide
// state; InTx yields a transaction-bound Datastore so a whole batch commits
// or rolls back together.
type Datastore interface {
	InTx(ctx context.Context, fn func(ds Datastore) error) error

	CreateExam(ctx context.Context, exam *models.Exam) error
	FindExam(ctx context.Context, schoolID, id string) (*models.Exam, error)
	ListExams(ctx context.Context, filter models.ExamFilter) ([]models.Exam, error)
	UpdateExam(ctx context.Context, exam *models.Exam) error
	UpdateExamStatus(ctx context.Context, id string, status models.ExamStatus, publishedAt *time.Time) error
	DeleteExam(ctx context.Context, id string) error

	UpsertExamSubject(ctx context.Context, subject *models.ExamSubject) error
	FindExamSubject(ctx context.Context, id string) (*models.ExamSubject, error)
	ListExamSubjects(ctx context.Context, examID string) ([]models.ExamSubject, error)
	CountExamSubjects(ctx context.Context, examID string) (int, error)
	DeleteExamSubject(ctx context.Context, id string) error

	UpsertExamResult(ctx context.Context, result *models.ExamResult) error
	ListResultsByExamSubject(ctx context.Context, examSubjectID string) ([]models.ExamResult, error)
	CountResultsByExam(ctx context.Context, examID string) (int, error)
	CountResultsByExamSubject(ctx context.Context, examSubjectID string) (int, error)
	ResultRowsByExamForStudents(ctx context.Context, examID string, studentIDs []string) (map[string][]models.ExamResultRow, error)

	FindClassSubject(ctx context.Context, schoolID, id string) (*models.ClassSubject, error)
	ListClassSubjectsByClasses(ctx context.Context, schoolID, academicYearID string, classIDs []string) ([]models.ClassSubject, error)
	LockClassSubjects(ctx context.Context, ids []string) error
	ListSubjectComponents(ctx context.Context, classSubjectIDs []string) (map[string][]models.SubjectComponent, error)
	FindClass(ctx context.Context, schoolID, id string) (*models.Class, error)

	ListActiveEnrollments(ctx context.Context, classID, sectionID, academicYearID string) ([]models.StudentEnrollment, error)
	SubjectEnrolledStudents(ctx context.Context, classSubjectID string, studentIDs []string) (map[string]struct{}, error)

	TeacherAssignmentExists(ctx context.Context, teacherID, classSubjectID, sectionID string) (bool, error)

	UpsertReportCard(ctx context.Context, card *models.ReportCard) error
	ListReportCards(ctx context.Context, examID, classID, sectionID string) ([]models.ReportCard, error)
	UpdateReportCardRank(ctx context.Context, id string, rank int) error
	SetReportCardsPublished(ctx context.Context, examID, classID, sectionID string, published bool) error
	FindReportCard(ctx context.Context, examID, studentID string) (*models.ReportCard, error)
}

// Store implements Datastore over PostgreSQL.
type Store struct {
	txm *TxManager

	exams        *ExamRepository
	examSubjects *ExamSubjectRepository
	results      *ExamResultRepository
	scoring      *ScoringRepository
	enrollments  *EnrollmentRepository
	assignments  *TeacherAssignmentRepository
	reportCards  *ReportCardRepository
}

// NewStore builds a Store over a database handle.
func NewStore(db *sqlx.DB) *Store {
	return &Store{
		txm:          NewTxManager(db),
		exams:        NewExamRepository(db),
		examSubjects: NewExamSubjectRepository(db),
		results:      NewExamResultRepository(db),
		scoring:      NewScoringRepository(db),
		enrollments:  NewEnrollmentRepository(db),
		assignments:  NewTeacherAssignmentRepository(db),
		reportCards:  NewReportCardRepository(db),
	}
}

func (s *Store) withTx(tx *sqlx.Tx) *Store {
	return &Store{
		exams:        s.exams.WithTx(tx),
		examSubjects: s.examSubjects.WithTx(tx),
		results:      s.results.WithTx(tx),
		scoring:      s.scoring.WithTx(tx),
		enrollments:  s.enrollments.WithTx(tx),
		assignments:  s.assignments.WithTx(tx),
		reportCards:  s.reportCards.WithTx(tx),
	}
}

// InTx runs fn against a transaction-bound store. A store already inside a
// transaction runs fn directly, so nested scopes share the outer commit.
func (s *Store) InTx(ctx context.Context, fn func(ds Datastore) error) error {
	if s.txm == nil {
		return fn(s)
	}
	return s.txm.RunInTx(ctx, func(tx *sqlx.Tx) error {
		return fn(s.withTx(tx))
	})
}

func (s *Store) CreateExam(ctx context.Context, exam *models.Exam) error {
	return s.exams.Create(ctx, exam)
}

func (s *Store) FindExam(ctx context.Context, schoolID, id string) (*models.Exam, error) {
	return s.exams.FindByID(ctx, schoolID, id)
}

func (s *Store) ListExams(ctx context.Context, filter models.ExamFilter) ([]models.Exam, error) {
	return s.exams.List(ctx, filter)
}

func (s *Store) UpdateExam(ctx context.Context, exam *models.Exam) error {
	return s.exams.Update(ctx, exam)
}

func (s *Store) UpdateExamStatus(ctx context.Context, id string, status models.ExamStatus, publishedAt *time.Time) error {
	return s.exams.UpdateStatus(ctx, id, status, publishedAt)
}

func (s *Store) DeleteExam(ctx context.Context, id string) error {
	return s.exams.Delete(ctx, id)
}

func (s *Store) UpsertExamSubject(ctx context.Context, subject *models.ExamSubject) error {
	return s.examSubjects.Upsert(ctx, subject)
}

func (s *Store) FindExamSubject(ctx context.Context, id string) (*models.ExamSubject, error) {
	return s.examSubjects.FindByID(ctx, id)
}

func (s *Store) ListExamSubjects(ctx context.Context, examID string) ([]models.ExamSubject, error) {
	return s.examSubjects.ListByExam(ctx, examID)
}

func (s *Store) CountExamSubjects(ctx context.Context, examID string) (int, error) {
	return s.examSubjects.CountByExam(ctx, examID)
}

func (s *Store) DeleteExamSubject(ctx context.Context, id string) error {
	return s.examSubjects.Delete(ctx, id)
}

func (s *Store) UpsertExamResult(ctx context.Context, result *models.ExamResult) error {
	return s.results.Upsert(ctx, result)
}

func (s *Store) ListResultsByExamSubject(ctx context.Context, examSubjectID string) ([]models.ExamResult, error) {
	return s.results.ListByExamSubject(ctx, examSubjectID)
}

func (s *Store) CountResultsByExam(ctx context.Context, examID string) (int, error) {
	return s.results.CountByExam(ctx, examID)
}

func (s *Store) CountResultsByExamSubject(ctx context.Context, examSubjectID string) (int, error) {
	return s.results.CountByExamSubject(ctx, examSubjectID)
}

func (s *Store) ResultRowsByExamForStudents(ctx context.Context, examID string, studentIDs []string) (map[string][]models.ExamResultRow, error) {
	return s.results.RowsByExamForStudents(ctx, examID, studentIDs)
}

func (s *Store) FindClassSubject(ctx context.Context, schoolID, id string) (*models.ClassSubject, error) {
	return s.scoring.FindClassSubject(ctx, schoolID, id)
}

func (s *Store) ListClassSubjectsByClasses(ctx context.Context, schoolID, academicYearID string, classIDs []string) ([]models.ClassSubject, error) {
	return s.scoring.ListClassSubjectsByClasses(ctx, schoolID, academicYearID, classIDs)
}

func (s *Store) LockClassSubjects(ctx context.Context, ids []string) error {
	return s.scoring.LockClassSubjects(ctx, ids)
}

func (s *Store) ListSubjectComponents(ctx context.Context, classSubjectIDs []string) (map[string][]models.SubjectComponent, error) {
	return s.scoring.ListComponents(ctx, classSubjectIDs)
}

func (s *Store) FindClass(ctx context.Context, schoolID, id string) (*models.Class, error) {
	return s.scoring.FindClass(ctx, schoolID, id)
}

func (s *Store) ListActiveEnrollments(ctx context.Context, classID, sectionID, academicYearID string) ([]models.StudentEnrollment, error) {
	return s.enrollments.ListActiveBySection(ctx, classID, sectionID, academicYearID)
}

func (s *Store) SubjectEnrolledStudents(ctx context.Context, classSubjectID string, studentIDs []string) (map[string]struct{}, error) {
	return s.enrollments.SubjectEnrolledStudents(ctx, classSubjectID, studentIDs)
}

func (s *Store) TeacherAssignmentExists(ctx context.Context, teacherID, classSubjectID, sectionID string) (bool, error) {
	return s.assignments.Exists(ctx, teacherID, classSubjectID, sectionID)
}

func (s *Store) UpsertReportCard(ctx context.Context, card *models.ReportCard) error {
	return s.reportCards.Upsert(ctx, card)
}

func (s *Store) ListReportCards(ctx context.Context, examID, classID, sectionID string) ([]models.ReportCard, error) {
	return s.reportCards.ListByScope(ctx, examID, classID, sectionID)
}

func (s *Store) UpdateReportCardRank(ctx context.Context, id string, rank int) error {
	return s.reportCards.UpdateRank(ctx, id, rank)
}

func (s *Store) SetReportCardsPublished(ctx context.Context, examID, classID, sectionID string, published bool) error {
	return s.reportCards.SetPublished(ctx, examID, classID, sectionID, published)
}

func (s *Store) FindReportCard(ctx context.Context, examID, studentID string) (*models.ReportCard, error) {
	return s.reportCards.FindByStudent(ctx, examID, studentID)
}

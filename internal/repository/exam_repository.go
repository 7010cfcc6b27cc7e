package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vidyalaya/exam-api/internal/models"
)

// ExamRepository handles exam persistence.
type ExamRepository struct {
	db Querier
}

// NewExamRepository creates a new exam repository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

// WithTx rebinds the repository onto an open transaction.
func (r *ExamRepository) WithTx(tx *sqlx.Tx) *ExamRepository {
	return &ExamRepository{db: tx}
}

const examColumns = `id, school_id, academic_year_id, name, exam_type, status, start_date, end_date, published_at, created_at, updated_at`

// Create inserts a new exam row.
func (r *ExamRepository) Create(ctx context.Context, exam *models.Exam) error {
	if exam.ID == "" {
		exam.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	exam.CreatedAt = now
	exam.UpdatedAt = now
	const query = `INSERT INTO exams (id, school_id, academic_year_id, name, exam_type, status, start_date, end_date, published_at, created_at, updated_at)
        VALUES (:id, :school_id, :academic_year_id, :name, :exam_type, :status, :start_date, :end_date, :published_at, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, exam); err != nil {
		return fmt.Errorf("create exam: %w", err)
	}
	return nil
}

// FindByID returns an exam scoped to a school. Callers translate
// sql.ErrNoRows into the domain NotFound error.
func (r *ExamRepository) FindByID(ctx context.Context, schoolID, id string) (*models.Exam, error) {
	query := fmt.Sprintf(`SELECT %s FROM exams WHERE id = $1 AND school_id = $2`, examColumns)
	var exam models.Exam
	if err := sqlx.GetContext(ctx, r.db, &exam, query, id, schoolID); err != nil {
		return nil, err
	}
	return &exam, nil
}

// List returns exams matching the filter, newest first.
func (r *ExamRepository) List(ctx context.Context, filter models.ExamFilter) ([]models.Exam, error) {
	query := fmt.Sprintf(`SELECT %s FROM exams WHERE school_id = $1`, examColumns)
	args := []interface{}{filter.SchoolID}
	if filter.AcademicYearID != "" {
		query += fmt.Sprintf(" AND academic_year_id = $%d", len(args)+1)
		args = append(args, filter.AcademicYearID)
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, filter.Status)
	}
	query += " ORDER BY created_at DESC"
	var exams []models.Exam
	if err := sqlx.SelectContext(ctx, r.db, &exams, query, args...); err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	return exams, nil
}

// Update rewrites the mutable exam fields.
func (r *ExamRepository) Update(ctx context.Context, exam *models.Exam) error {
	exam.UpdatedAt = time.Now().UTC()
	const query = `UPDATE exams SET name = :name, exam_type = :exam_type, start_date = :start_date, end_date = :end_date, updated_at = :updated_at
        WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, exam); err != nil {
		return fmt.Errorf("update exam: %w", err)
	}
	return nil
}

// UpdateStatus advances the lifecycle state. The publish timestamp is set
// only on the DRAFT -> PUBLISHED edge and kept otherwise.
func (r *ExamRepository) UpdateStatus(ctx context.Context, id string, status models.ExamStatus, publishedAt *time.Time) error {
	const query = `UPDATE exams SET status = $2, published_at = COALESCE($3, published_at), updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, publishedAt, time.Now().UTC()); err != nil {
		return fmt.Errorf("update exam status: %w", err)
	}
	return nil
}

// Delete removes an exam row.
func (r *ExamRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM exams WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vidyalaya/exam-api/internal/models"
)

// ExamSubjectRepository persists exam-bound scoring snapshots.
type ExamSubjectRepository struct {
	db Querier
}

// NewExamSubjectRepository creates a new repository instance.
func NewExamSubjectRepository(db *sqlx.DB) *ExamSubjectRepository {
	return &ExamSubjectRepository{db: db}
}

// WithTx rebinds the repository onto an open transaction.
func (r *ExamSubjectRepository) WithTx(tx *sqlx.Tx) *ExamSubjectRepository {
	return &ExamSubjectRepository{db: tx}
}

const examSubjectColumns = `id, exam_id, class_subject_id, class_id, exam_date, has_theory, has_practical, theory_full_marks, practical_full_marks, full_marks, pass_marks, created_at, updated_at`

// Upsert links a scoring unit to the exam or refreshes an existing link's
// snapshot fields. Unique per (exam_id, class_subject_id); only callable
// while the parent exam is DRAFT, which the service enforces.
func (r *ExamSubjectRepository) Upsert(ctx context.Context, subject *models.ExamSubject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if subject.CreatedAt.IsZero() {
		subject.CreatedAt = now
	}
	subject.UpdatedAt = now
	const query = `INSERT INTO exam_subjects (id, exam_id, class_subject_id, class_id, exam_date, has_theory, has_practical, theory_full_marks, practical_full_marks, full_marks, pass_marks, created_at, updated_at)
        VALUES (:id, :exam_id, :class_subject_id, :class_id, :exam_date, :has_theory, :has_practical, :theory_full_marks, :practical_full_marks, :full_marks, :pass_marks, :created_at, :updated_at)
        ON CONFLICT (exam_id, class_subject_id)
        DO UPDATE SET exam_date = EXCLUDED.exam_date, has_theory = EXCLUDED.has_theory, has_practical = EXCLUDED.has_practical,
            theory_full_marks = EXCLUDED.theory_full_marks, practical_full_marks = EXCLUDED.practical_full_marks,
            full_marks = EXCLUDED.full_marks, pass_marks = EXCLUDED.pass_marks, updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, subject); err != nil {
		return fmt.Errorf("upsert exam subject: %w", err)
	}
	return nil
}

// FindByID returns a single snapshot row.
func (r *ExamSubjectRepository) FindByID(ctx context.Context, id string) (*models.ExamSubject, error) {
	query := fmt.Sprintf(`SELECT %s FROM exam_subjects WHERE id = $1`, examSubjectColumns)
	var subject models.ExamSubject
	if err := sqlx.GetContext(ctx, r.db, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// ListByExam returns all snapshots attached to an exam.
func (r *ExamSubjectRepository) ListByExam(ctx context.Context, examID string) ([]models.ExamSubject, error) {
	query := fmt.Sprintf(`SELECT %s FROM exam_subjects WHERE exam_id = $1 ORDER BY created_at`, examSubjectColumns)
	var subjects []models.ExamSubject
	if err := sqlx.SelectContext(ctx, r.db, &subjects, query, examID); err != nil {
		return nil, fmt.Errorf("list exam subjects: %w", err)
	}
	return subjects, nil
}

// CountByExam returns the number of subjects attached to an exam.
func (r *ExamSubjectRepository) CountByExam(ctx context.Context, examID string) (int, error) {
	var count int
	if err := sqlx.GetContext(ctx, r.db, &count, `SELECT COUNT(*) FROM exam_subjects WHERE exam_id = $1`, examID); err != nil {
		return 0, fmt.Errorf("count exam subjects: %w", err)
	}
	return count, nil
}

// Delete removes one snapshot row.
func (r *ExamSubjectRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM exam_subjects WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete exam subject: %w", err)
	}
	return nil
}

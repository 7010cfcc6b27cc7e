package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vidyalaya/exam-api/internal/models"
)

// ExamResultRepository persists per-student marks rows.
type ExamResultRepository struct {
	db Querier
}

// NewExamResultRepository creates a new repository instance.
func NewExamResultRepository(db *sqlx.DB) *ExamResultRepository {
	return &ExamResultRepository{db: db}
}

// WithTx rebinds the repository onto an open transaction.
func (r *ExamResultRepository) WithTx(tx *sqlx.Tx) *ExamResultRepository {
	return &ExamResultRepository{db: tx}
}

const examResultColumns = `id, exam_subject_id, student_id, enrollment_id, theory_marks, practical_marks, is_absent, remark, entered_by, entered_by_role, created_at, updated_at`

// Upsert writes one result row, keyed by (exam_subject_id, student_id).
// Re-submitting a student updates in place, refreshing marks, remark,
// submitter identity and enrollment link.
func (r *ExamResultRepository) Upsert(ctx context.Context, result *models.ExamResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if result.CreatedAt.IsZero() {
		result.CreatedAt = now
	}
	result.UpdatedAt = now
	const query = `INSERT INTO exam_results (id, exam_subject_id, student_id, enrollment_id, theory_marks, practical_marks, is_absent, remark, entered_by, entered_by_role, created_at, updated_at)
        VALUES (:id, :exam_subject_id, :student_id, :enrollment_id, :theory_marks, :practical_marks, :is_absent, :remark, :entered_by, :entered_by_role, :created_at, :updated_at)
        ON CONFLICT (exam_subject_id, student_id)
        DO UPDATE SET enrollment_id = EXCLUDED.enrollment_id, theory_marks = EXCLUDED.theory_marks, practical_marks = EXCLUDED.practical_marks,
            is_absent = EXCLUDED.is_absent, remark = EXCLUDED.remark, entered_by = EXCLUDED.entered_by,
            entered_by_role = EXCLUDED.entered_by_role, updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, result); err != nil {
		return fmt.Errorf("upsert exam result: %w", err)
	}
	return nil
}

// ListByExamSubject returns stored results for one snapshot.
func (r *ExamResultRepository) ListByExamSubject(ctx context.Context, examSubjectID string) ([]models.ExamResult, error) {
	query := fmt.Sprintf(`SELECT %s FROM exam_results WHERE exam_subject_id = $1 ORDER BY student_id`, examResultColumns)
	var results []models.ExamResult
	if err := sqlx.SelectContext(ctx, r.db, &results, query, examSubjectID); err != nil {
		return nil, fmt.Errorf("list exam results: %w", err)
	}
	return results, nil
}

// CountByExam counts result rows across all subjects of an exam.
func (r *ExamResultRepository) CountByExam(ctx context.Context, examID string) (int, error) {
	const query = `SELECT COUNT(*) FROM exam_results er JOIN exam_subjects es ON es.id = er.exam_subject_id WHERE es.exam_id = $1`
	var count int
	if err := sqlx.GetContext(ctx, r.db, &count, query, examID); err != nil {
		return 0, fmt.Errorf("count exam results: %w", err)
	}
	return count, nil
}

// CountByExamSubject counts result rows referencing one snapshot.
func (r *ExamResultRepository) CountByExamSubject(ctx context.Context, examSubjectID string) (int, error) {
	var count int
	if err := sqlx.GetContext(ctx, r.db, &count, `SELECT COUNT(*) FROM exam_results WHERE exam_subject_id = $1`, examSubjectID); err != nil {
		return 0, fmt.Errorf("count exam subject results: %w", err)
	}
	return count, nil
}

// RowsByExamForStudents returns results joined with their snapshot and
// subject name, keyed by student ID, for report-card aggregation.
func (r *ExamResultRepository) RowsByExamForStudents(ctx context.Context, examID string, studentIDs []string) (map[string][]models.ExamResultRow, error) {
	result := make(map[string][]models.ExamResultRow, len(studentIDs))
	if len(studentIDs) == 0 {
		return result, nil
	}
	placeholders := make([]string, len(studentIDs))
	args := make([]interface{}, len(studentIDs)+1)
	args[0] = examID
	for i, id := range studentIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args[i+1] = id
	}
	query := fmt.Sprintf(`SELECT er.id, er.exam_subject_id, er.student_id, er.enrollment_id, er.theory_marks, er.practical_marks,
            er.is_absent, er.remark, er.entered_by, er.entered_by_role, er.created_at, er.updated_at,
            es.class_subject_id, es.class_id, es.has_theory, es.has_practical, es.theory_full_marks, es.practical_full_marks,
            es.full_marks, es.pass_marks, cs.subject_name, cs.credit_hours
        FROM exam_results er
        JOIN exam_subjects es ON es.id = er.exam_subject_id
        JOIN class_subjects cs ON cs.id = es.class_subject_id
        WHERE es.exam_id = $1 AND er.student_id IN (%s)`, strings.Join(placeholders, ","))
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch result rows: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var row models.ExamResultRow
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		result[row.StudentID] = append(result[row.StudentID], row)
	}
	return result, nil
}

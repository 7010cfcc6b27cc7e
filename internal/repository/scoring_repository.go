package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/vidyalaya/exam-api/internal/models"
)

// ScoringRepository reads the externally-owned scoring configuration
// (class subjects, their component splits, classes) and acts as the locking
// sink the publish transition cascades into.
type ScoringRepository struct {
	db Querier
}

// NewScoringRepository creates a new repository instance.
func NewScoringRepository(db *sqlx.DB) *ScoringRepository {
	return &ScoringRepository{db: db}
}

// WithTx rebinds the repository onto an open transaction.
func (r *ScoringRepository) WithTx(tx *sqlx.Tx) *ScoringRepository {
	return &ScoringRepository{db: tx}
}

const classSubjectColumns = `id, school_id, class_id, subject_id, academic_year_id, subject_name, has_theory, has_practical, theory_full_marks, practical_full_marks, full_marks, pass_marks, credit_hours, locked, created_at, updated_at`

// FindClassSubject returns one scoring unit scoped to a school.
func (r *ScoringRepository) FindClassSubject(ctx context.Context, schoolID, id string) (*models.ClassSubject, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_subjects WHERE id = $1 AND school_id = $2`, classSubjectColumns)
	var subject models.ClassSubject
	if err := sqlx.GetContext(ctx, r.db, &subject, query, id, schoolID); err != nil {
		return nil, err
	}
	return &subject, nil
}

// ListClassSubjectsByClasses returns every scoring unit of the given
// classes for one academic year. Used by bulk subject attach on exam
// creation.
func (r *ScoringRepository) ListClassSubjectsByClasses(ctx context.Context, schoolID, academicYearID string, classIDs []string) ([]models.ClassSubject, error) {
	if len(classIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(classIDs))
	args := make([]interface{}, len(classIDs)+2)
	args[0] = schoolID
	args[1] = academicYearID
	for i, id := range classIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+3)
		args[i+2] = id
	}
	query := fmt.Sprintf(`SELECT %s FROM class_subjects WHERE school_id = $1 AND academic_year_id = $2 AND class_id IN (%s) ORDER BY class_id, subject_name`,
		classSubjectColumns, strings.Join(placeholders, ","))
	var subjects []models.ClassSubject
	if err := sqlx.SelectContext(ctx, r.db, &subjects, query, args...); err != nil {
		return nil, fmt.Errorf("list class subjects: %w", err)
	}
	return subjects, nil
}

// LockClassSubjects marks scoring units immutable at the configuration
// layer. Called from the publish transition so grading inputs cannot drift
// under an in-flight exam.
func (r *ScoringRepository) LockClassSubjects(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`UPDATE class_subjects SET locked = TRUE WHERE id IN (%s)`, strings.Join(placeholders, ","))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("lock class subjects: %w", err)
	}
	return nil
}

// ListComponents returns the advanced-track component rows keyed by class
// subject ID.
func (r *ScoringRepository) ListComponents(ctx context.Context, classSubjectIDs []string) (map[string][]models.SubjectComponent, error) {
	result := make(map[string][]models.SubjectComponent, len(classSubjectIDs))
	if len(classSubjectIDs) == 0 {
		return result, nil
	}
	placeholders := make([]string, len(classSubjectIDs))
	args := make([]interface{}, len(classSubjectIDs))
	for i, id := range classSubjectIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT id, class_subject_id, component_type, full_marks, pass_marks, credit_hours
        FROM subject_components WHERE class_subject_id IN (%s)`, strings.Join(placeholders, ","))
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list subject components: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var component models.SubjectComponent
		if err := rows.StructScan(&component); err != nil {
			return nil, fmt.Errorf("scan subject component: %w", err)
		}
		result[component.ClassSubjectID] = append(result[component.ClassSubjectID], component)
	}
	return result, nil
}

// FindClass returns class info, most importantly its grade level.
func (r *ScoringRepository) FindClass(ctx context.Context, schoolID, id string) (*models.Class, error) {
	const query = `SELECT id, school_id, name, grade_level FROM classes WHERE id = $1 AND school_id = $2`
	var class models.Class
	if err := sqlx.GetContext(ctx, r.db, &class, query, id, schoolID); err != nil {
		return nil, err
	}
	return &class, nil
}

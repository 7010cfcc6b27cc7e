package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/vidyalaya/exam-api/internal/models"
)

// EnrollmentRepository reads the externally-owned enrollment records.
type EnrollmentRepository struct {
	db Querier
}

// NewEnrollmentRepository creates a new repository instance.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// WithTx rebinds the repository onto an open transaction.
func (r *EnrollmentRepository) WithTx(tx *sqlx.Tx) *EnrollmentRepository {
	return &EnrollmentRepository{db: tx}
}

// ListActiveBySection returns the active roster for one
// class/section/academic-year, ordered by roll number.
func (r *EnrollmentRepository) ListActiveBySection(ctx context.Context, classID, sectionID, academicYearID string) ([]models.StudentEnrollment, error) {
	const query = `SELECT e.id, e.student_id, e.class_id, e.section_id, e.academic_year_id, e.roll_number, s.full_name AS student_name, e.status, e.joined_at, e.left_at
        FROM student_enrollments e
        JOIN students s ON s.id = e.student_id
        WHERE e.class_id = $1 AND e.section_id = $2 AND e.academic_year_id = $3 AND e.status = $4
        ORDER BY e.roll_number`
	var enrollments []models.StudentEnrollment
	if err := sqlx.SelectContext(ctx, r.db, &enrollments, query, classID, sectionID, academicYearID, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("list active enrollments: %w", err)
	}
	return enrollments, nil
}

// SubjectEnrolledStudents returns, out of the given students, the subset
// holding an explicit subject enrollment for the scoring unit.
func (r *EnrollmentRepository) SubjectEnrolledStudents(ctx context.Context, classSubjectID string, studentIDs []string) (map[string]struct{}, error) {
	enrolled := make(map[string]struct{}, len(studentIDs))
	if len(studentIDs) == 0 {
		return enrolled, nil
	}
	placeholders := make([]string, len(studentIDs))
	args := make([]interface{}, len(studentIDs)+1)
	args[0] = classSubjectID
	for i, id := range studentIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args[i+1] = id
	}
	query := fmt.Sprintf(`SELECT student_id FROM subject_enrollments WHERE class_subject_id = $1 AND student_id IN (%s)`, strings.Join(placeholders, ","))
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list subject enrollments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var studentID string
		if err := rows.Scan(&studentID); err != nil {
			return nil, fmt.Errorf("scan subject enrollment: %w", err)
		}
		enrolled[studentID] = struct{}{}
	}
	return enrolled, nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// TeacherAssignmentRepository reads teaching assignments issued by the
// external organizational layer.
type TeacherAssignmentRepository struct {
	db Querier
}

// NewTeacherAssignmentRepository creates a new repository instance.
func NewTeacherAssignmentRepository(db *sqlx.DB) *TeacherAssignmentRepository {
	return &TeacherAssignmentRepository{db: db}
}

// WithTx rebinds the repository onto an open transaction.
func (r *TeacherAssignmentRepository) WithTx(tx *sqlx.Tx) *TeacherAssignmentRepository {
	return &TeacherAssignmentRepository{db: tx}
}

// Exists reports whether the teacher holds an assignment for the exact
// (scoring unit, section) pair.
func (r *TeacherAssignmentRepository) Exists(ctx context.Context, teacherID, classSubjectID, sectionID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM teacher_assignments WHERE teacher_id = $1 AND class_subject_id = $2 AND section_id = $3)`
	var exists bool
	if err := sqlx.GetContext(ctx, r.db, &exists, query, teacherID, classSubjectID, sectionID); err != nil {
		return false, fmt.Errorf("check teacher assignment: %w", err)
	}
	return exists, nil
}

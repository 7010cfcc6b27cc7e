package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusActive      EnrollmentStatus = "ACTIVE"
	EnrollmentStatusTransferred EnrollmentStatus = "TRANSFERRED"
	EnrollmentStatusLeft        EnrollmentStatus = "LEFT"
)

// StudentEnrollment ties a student to a class/section for one academic
// year. Results and ranking are always scoped through the enrollment active
// at evaluation time, not a bare student ID, so repeat and transferred
// students stay separated.
type StudentEnrollment struct {
	ID             string           `db:"id" json:"id"`
	StudentID      string           `db:"student_id" json:"student_id"`
	ClassID        string           `db:"class_id" json:"class_id"`
	SectionID      string           `db:"section_id" json:"section_id"`
	AcademicYearID string           `db:"academic_year_id" json:"academic_year_id"`
	RollNumber     int              `db:"roll_number" json:"roll_number"`
	StudentName    string           `db:"student_name" json:"student_name"`
	Status         EnrollmentStatus `db:"status" json:"status"`
	JoinedAt       time.Time        `db:"joined_at" json:"joined_at"`
	LeftAt         *time.Time       `db:"left_at" json:"left_at,omitempty"`
}

// SubjectEnrollment records a student's explicit enrollment in one scoring
// unit. Required for advanced-track subjects (electives); standard-track
// subjects rely on the class enrollment alone.
type SubjectEnrollment struct {
	ID             string    `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	ClassSubjectID string    `db:"class_subject_id" json:"class_subject_id"`
	AcademicYearID string    `db:"academic_year_id" json:"academic_year_id"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// TeacherAssignment links a teacher to a (scoring unit, section) pair.
// Non-privileged marks submitters must hold the exact pair.
type TeacherAssignment struct {
	ID             string    `db:"id" json:"id"`
	TeacherID      string    `db:"teacher_id" json:"teacher_id"`
	ClassSubjectID string    `db:"class_subject_id" json:"class_subject_id"`
	SectionID      string    `db:"section_id" json:"section_id"`
	AcademicYearID string    `db:"academic_year_id" json:"academic_year_id"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

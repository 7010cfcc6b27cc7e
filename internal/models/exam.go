package models

import "time"

// ExamStatus represents the lifecycle state of an exam.
type ExamStatus string

// Exam lifecycle states. DRAFT is the initial state; the only backward edge
// is LOCKED -> PUBLISHED (unlock).
const (
	ExamStatusDraft     ExamStatus = "DRAFT"
	ExamStatusPublished ExamStatus = "PUBLISHED"
	ExamStatusLocked    ExamStatus = "LOCKED"
)

// Valid reports whether the status is a recognised lifecycle state.
func (s ExamStatus) Valid() bool {
	switch s {
	case ExamStatusDraft, ExamStatusPublished, ExamStatusLocked:
		return true
	}
	return false
}

// CanTransition reports whether the edge s -> next exists in the lifecycle
// graph. No self edges.
func (s ExamStatus) CanTransition(next ExamStatus) bool {
	switch s {
	case ExamStatusDraft:
		return next == ExamStatusPublished
	case ExamStatusPublished:
		return next == ExamStatusLocked
	case ExamStatusLocked:
		return next == ExamStatusPublished
	}
	return false
}

// Exam identifies an assessment window for one school and academic year.
type Exam struct {
	ID             string     `db:"id" json:"id"`
	SchoolID       string     `db:"school_id" json:"school_id"`
	AcademicYearID string     `db:"academic_year_id" json:"academic_year_id"`
	Name           string     `db:"name" json:"name"`
	ExamType       string     `db:"exam_type" json:"exam_type"`
	Status         ExamStatus `db:"status" json:"status"`
	StartDate      *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate        *time.Time `db:"end_date" json:"end_date,omitempty"`
	PublishedAt    *time.Time `db:"published_at" json:"published_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// ExamSubject is the exam-bound snapshot of a scoring unit's marks
// structure. The marks fields are copied from the class subject while the
// exam is DRAFT and are authoritative for grading from then on; they are
// never re-synced from the live configuration.
type ExamSubject struct {
	ID                 string     `db:"id" json:"id"`
	ExamID             string     `db:"exam_id" json:"exam_id"`
	ClassSubjectID     string     `db:"class_subject_id" json:"class_subject_id"`
	ClassID            string     `db:"class_id" json:"class_id"`
	ExamDate           *time.Time `db:"exam_date" json:"exam_date,omitempty"`
	HasTheory          bool       `db:"has_theory" json:"has_theory"`
	HasPractical       bool       `db:"has_practical" json:"has_practical"`
	TheoryFullMarks    float64    `db:"theory_full_marks" json:"theory_full_marks"`
	PracticalFullMarks float64    `db:"practical_full_marks" json:"practical_full_marks"`
	FullMarks          float64    `db:"full_marks" json:"full_marks"`
	PassMarks          float64    `db:"pass_marks" json:"pass_marks"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// ExamDetail bundles an exam with its attached subjects.
type ExamDetail struct {
	Exam
	Subjects []ExamSubject `json:"subjects"`
}

// ExamFilter scopes exam listing queries.
type ExamFilter struct {
	SchoolID       string
	AcademicYearID string
	Status         ExamStatus
}

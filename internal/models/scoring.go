package models

import "time"

// ClassSubject is a scoring unit: one subject's evaluation configuration for
// one class in one academic year. It is owned by the external configuration
// layer; this service reads it when snapshotting and flips Locked when an
// exam referencing it is published.
type ClassSubject struct {
	ID                 string    `db:"id" json:"id"`
	SchoolID           string    `db:"school_id" json:"school_id"`
	ClassID            string    `db:"class_id" json:"class_id"`
	SubjectID          string    `db:"subject_id" json:"subject_id"`
	AcademicYearID     string    `db:"academic_year_id" json:"academic_year_id"`
	SubjectName        string    `db:"subject_name" json:"subject_name"`
	HasTheory          bool      `db:"has_theory" json:"has_theory"`
	HasPractical       bool      `db:"has_practical" json:"has_practical"`
	TheoryFullMarks    float64   `db:"theory_full_marks" json:"theory_full_marks"`
	PracticalFullMarks float64   `db:"practical_full_marks" json:"practical_full_marks"`
	FullMarks          float64   `db:"full_marks" json:"full_marks"`
	PassMarks          float64   `db:"pass_marks" json:"pass_marks"`
	CreditHours        float64   `db:"credit_hours" json:"credit_hours"`
	Locked             bool      `db:"locked" json:"locked"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// ComponentType distinguishes the two advanced-track component rows.
type ComponentType string

// Component types for the advanced-track split.
const (
	ComponentTheory    ComponentType = "THEORY"
	ComponentPractical ComponentType = "PRACTICAL"
)

// SubjectComponent is the advanced-track scoring split for a class subject.
// Each component carries its own full/pass marks and credit hours; grading
// weights come from here, never from the combined scoring unit.
type SubjectComponent struct {
	ID             string        `db:"id" json:"id"`
	ClassSubjectID string        `db:"class_subject_id" json:"class_subject_id"`
	Type           ComponentType `db:"component_type" json:"component_type"`
	FullMarks      float64       `db:"full_marks" json:"full_marks"`
	PassMarks      float64       `db:"pass_marks" json:"pass_marks"`
	CreditHours    float64       `db:"credit_hours" json:"credit_hours"`
}

// Class carries the organisational fields grading depends on. Grade level
// decides which rule set applies.
type Class struct {
	ID         string `db:"id" json:"id"`
	SchoolID   string `db:"school_id" json:"school_id"`
	Name       string `db:"name" json:"name"`
	GradeLevel int    `db:"grade_level" json:"grade_level"`
}

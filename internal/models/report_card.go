package models

import "time"

// ReportCard is the per-student, per-exam aggregate of all subject results.
// Unique per (exam_id, student_id); regeneration overwrites in place. Rank
// is assigned by a separate pass over the whole class-section and stays nil
// until ranking has run.
type ReportCard struct {
	ID             string    `db:"id" json:"id"`
	ExamID         string    `db:"exam_id" json:"exam_id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	EnrollmentID   string    `db:"enrollment_id" json:"enrollment_id"`
	ClassID        string    `db:"class_id" json:"class_id"`
	SectionID      string    `db:"section_id" json:"section_id"`
	TotalObtained  float64   `db:"total_obtained" json:"total_obtained"`
	TotalFullMarks float64   `db:"total_full_marks" json:"total_full_marks"`
	Percentage     float64   `db:"percentage" json:"percentage"`
	GPA            *float64  `db:"gpa" json:"gpa,omitempty"`
	OverallGrade   string    `db:"overall_grade" json:"overall_grade"`
	Rank           *int      `db:"rank" json:"rank,omitempty"`
	Published      bool      `db:"published" json:"published"`
	GeneratedAt    time.Time `db:"generated_at" json:"generated_at"`
}

// ReportCardSubject is one subject line of the report-card breakdown.
type ReportCardSubject struct {
	ExamSubjectID  string   `json:"exam_subject_id"`
	ClassSubjectID string   `json:"class_subject_id"`
	SubjectName    string   `json:"subject_name"`
	FullMarks      float64  `json:"full_marks"`
	PassMarks      float64  `json:"pass_marks"`
	TheoryMarks    *float64 `json:"theory_marks,omitempty"`
	PracticalMarks *float64 `json:"practical_marks,omitempty"`
	Obtained       float64  `json:"obtained"`
	Grade          string   `json:"grade"`
	GradePoint     *float64 `json:"grade_point,omitempty"`
	IsAbsent       bool     `json:"is_absent"`
}

// ReportCardDetail is the full document a renderer consumes: the aggregate
// row plus the per-subject breakdown.
type ReportCardDetail struct {
	ReportCard
	Subjects []ReportCardSubject `json:"subjects"`
}

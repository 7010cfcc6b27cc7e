package models

import "time"

// ExamResult is one student's stored marks for one exam subject. Unique per
// (exam_subject_id, student_id); submissions update in place.
type ExamResult struct {
	ID             string     `db:"id" json:"id"`
	ExamSubjectID  string     `db:"exam_subject_id" json:"exam_subject_id"`
	StudentID      string     `db:"student_id" json:"student_id"`
	EnrollmentID   string     `db:"enrollment_id" json:"enrollment_id"`
	TheoryMarks    *float64   `db:"theory_marks" json:"theory_marks,omitempty"`
	PracticalMarks *float64   `db:"practical_marks" json:"practical_marks,omitempty"`
	IsAbsent       bool       `db:"is_absent" json:"is_absent"`
	Remark         *string    `db:"remark" json:"remark,omitempty"`
	EnteredBy      string     `db:"entered_by" json:"entered_by"`
	EnteredByRole  Role       `db:"entered_by_role" json:"entered_by_role"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// Obtained sums the entered marks, treating missing components as zero.
// An absent result contributes nothing.
func (r ExamResult) Obtained() float64 {
	if r.IsAbsent {
		if r.PracticalMarks != nil {
			return *r.PracticalMarks
		}
		return 0
	}
	total := 0.0
	if r.TheoryMarks != nil {
		total += *r.TheoryMarks
	}
	if r.PracticalMarks != nil {
		total += *r.PracticalMarks
	}
	return total
}

// ExamResultRow joins a result with its snapshot for aggregation.
type ExamResultRow struct {
	ExamResult
	ClassSubjectID     string  `db:"class_subject_id" json:"class_subject_id"`
	ClassID            string  `db:"class_id" json:"class_id"`
	HasTheory          bool    `db:"has_theory" json:"has_theory"`
	HasPractical       bool    `db:"has_practical" json:"has_practical"`
	TheoryFullMarks    float64 `db:"theory_full_marks" json:"theory_full_marks"`
	PracticalFullMarks float64 `db:"practical_full_marks" json:"practical_full_marks"`
	FullMarks          float64 `db:"full_marks" json:"full_marks"`
	PassMarks          float64 `db:"pass_marks" json:"pass_marks"`
	SubjectName        string  `db:"subject_name" json:"subject_name"`
	CreditHours        float64 `db:"credit_hours" json:"credit_hours"`
}

// Package grading holds the pure grade and GPA rules. Everything here is a
// function of its inputs; persistence and authorization live elsewhere.
package grading

import "math"

// Grade letters shared by both rule sets.
const (
	GradeAPlus  = "A+"
	GradeA      = "A"
	GradeBPlus  = "B+"
	GradeB      = "B"
	GradeCPlus  = "C+"
	GradeC      = "C"
	GradeD      = "D"
	GradeNG     = "NG"
	GradeAbsent = "Abs"
)

// Rules selects between the standard and advanced (dual-component) schemes
// by class grade level.
type Rules struct {
	advancedGradeMin int
}

// NewRules builds the rule set. A non-positive threshold falls back to the
// conventional grade 11 split.
func NewRules(advancedGradeMin int) Rules {
	if advancedGradeMin <= 0 {
		advancedGradeMin = 11
	}
	return Rules{advancedGradeMin: advancedGradeMin}
}

// Advanced reports whether a class at this grade level uses the
// dual-component scheme.
func (r Rules) Advanced(gradeLevel int) bool {
	return gradeLevel >= r.advancedGradeMin
}

// Percent converts obtained/full marks to a percentage. A zero full-marks
// denominator yields 0 rather than NaN.
func Percent(obtained, full float64) float64 {
	if full <= 0 {
		return 0
	}
	return obtained / full * 100
}

// LetterGrade maps a percentage to the standard-track letter grade. All
// boundaries are inclusive lower bounds.
func LetterGrade(percent float64) string {
	switch {
	case percent >= 90:
		return GradeAPlus
	case percent >= 80:
		return GradeA
	case percent >= 70:
		return GradeBPlus
	case percent >= 60:
		return GradeB
	case percent >= 50:
		return GradeCPlus
	case percent >= 40:
		return GradeC
	default:
		return GradeNG
	}
}

// PointGrade maps a percentage to the advanced-track letter and grade point.
func PointGrade(percent float64) (string, float64) {
	switch {
	case percent >= 90:
		return GradeAPlus, 4.0
	case percent >= 80:
		return GradeA, 3.6
	case percent >= 70:
		return GradeBPlus, 3.2
	case percent >= 60:
		return GradeB, 2.8
	case percent >= 50:
		return GradeCPlus, 2.4
	case percent >= 40:
		return GradeC, 2.0
	case percent >= 35:
		return GradeD, 1.6
	default:
		return GradeNG, 0
	}
}

// LetterFromGPA maps a credit-weighted GPA back to an overall letter for the
// advanced-track report card.
func LetterFromGPA(gpa float64) string {
	switch {
	case gpa >= 3.6:
		return GradeAPlus
	case gpa >= 3.2:
		return GradeA
	case gpa >= 2.8:
		return GradeBPlus
	case gpa >= 2.4:
		return GradeB
	case gpa >= 2.0:
		return GradeCPlus
	case gpa >= 1.6:
		return GradeC
	case gpa >= 0.8:
		return GradeD
	default:
		return GradeNG
	}
}

// ComponentScore is one graded component (theory or internal) of an
// advanced-track subject.
type ComponentScore struct {
	Obtained    float64
	FullMarks   float64
	CreditHours float64
	Absent      bool
}

// ComponentResult carries a graded component through aggregation.
type ComponentResult struct {
	Letter      string
	Point       float64
	CreditHours float64
	Absent      bool
}

// GradeComponent grades a single advanced-track component. Absence yields
// the absent marker with a zero grade point; it is never averaged away.
func GradeComponent(score ComponentScore) ComponentResult {
	if score.Absent {
		return ComponentResult{Letter: GradeAbsent, Point: 0, CreditHours: score.CreditHours, Absent: true}
	}
	letter, point := PointGrade(Percent(score.Obtained, score.FullMarks))
	return ComponentResult{Letter: letter, Point: point, CreditHours: score.CreditHours}
}

// SubjectFinal resolves the subject-level grade from its component grades:
// the stricter (lower grade point) of the two. Absence in either component
// propagates as the absent fail state.
func SubjectFinal(theory, practical *ComponentResult) string {
	if theory == nil && practical == nil {
		return GradeNG
	}
	if theory != nil && theory.Absent {
		return GradeAbsent
	}
	if practical != nil && practical.Absent {
		return GradeAbsent
	}
	if theory == nil {
		return practical.Letter
	}
	if practical == nil {
		return theory.Letter
	}
	if practical.Point < theory.Point {
		return practical.Letter
	}
	return theory.Letter
}

// WeightedGPA computes the credit-hour-weighted average grade point over all
// components of all subjects in an exam. Absent components weigh in with
// their zero point; zero total credit hours yields 0.
func WeightedGPA(components []ComponentResult) float64 {
	totalCredits := 0.0
	sum := 0.0
	for _, c := range components {
		totalCredits += c.CreditHours
		sum += c.Point * c.CreditHours
	}
	if totalCredits == 0 {
		return 0
	}
	return roundTo(sum/totalCredits, 2)
}

func roundTo(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}

package models

// Role is the closed set of caller roles the service recognises.
type Role string

// Recognised roles.
const (
	RoleAdmin       Role = "ADMIN"
	RoleSchoolAdmin Role = "SCHOOL_ADMIN"
	RoleExamOfficer Role = "EXAM_OFFICER"
	RoleTeacher     Role = "TEACHER"
	RoleStudent     Role = "STUDENT"
	RoleGuardian    Role = "GUARDIAN"
)

// Valid reports whether the role is a member of the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSchoolAdmin, RoleExamOfficer, RoleTeacher, RoleStudent, RoleGuardian:
		return true
	}
	return false
}

// Privileged reports whether the role bypasses teaching-assignment checks
// for marks entry and reads.
func (r Role) Privileged() bool {
	switch r {
	case RoleAdmin, RoleSchoolAdmin, RoleExamOfficer:
		return true
	}
	return false
}

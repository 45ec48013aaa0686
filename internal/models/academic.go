package models

import "time"

// Semester identifies one academic period. Sequence orders semesters
// chronologically across academic years so carry-forward debt can be
// applied oldest first.
type Semester struct {
	ID           string    `db:"id" json:"id"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	Number       int       `db:"number" json:"number"`
	Sequence     int       `db:"sequence" json:"sequence"`
	StartDate    time.Time `db:"start_date" json:"start_date"`
	EndDate      time.Time `db:"end_date" json:"end_date"`
}

// Unit is a taught course unit.
type Unit struct {
	ID          string `db:"id" json:"id"`
	Code        string `db:"code" json:"code"`
	Name        string `db:"name" json:"name"`
	CourseID    string `db:"course_id" json:"course_id"`
	CreditHours int    `db:"credit_hours" json:"credit_hours"`
}

// Enrollment links a student to a unit for a semester.
type Enrollment struct {
	ID         string `db:"id" json:"id"`
	StudentID  string `db:"student_id" json:"student_id"`
	UnitID     string `db:"unit_id" json:"unit_id"`
	SemesterID string `db:"semester_id" json:"semester_id"`
}

// Pagination carries list metadata in the response envelope.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

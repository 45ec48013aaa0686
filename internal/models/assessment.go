package models

import "time"

// AssessmentType is one weighted slot in a unit's marking scheme for a
// semester, e.g. CAT 0.3, Assignment 0.2, Exam 0.5. The set active for
// a unit/semester must sum to 1.0.
type AssessmentType struct {
	ID             string    `db:"id" json:"id"`
	UnitID         string    `db:"unit_id" json:"unit_id"`
	SemesterID     string    `db:"semester_id" json:"semester_id"`
	Name           string    `db:"name" json:"name"`
	WeightFraction float64   `db:"weight_fraction" json:"weight_fraction"`
	Version        int       `db:"version" json:"version"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// WeightTable is the closed type→weight mapping produced by the
// weighting resolver and consumed by the grade engine.
type WeightTable map[string]float64

// AssessmentRecord is one finalized marking event. Records are never
// edited in place: a correction appends a new record superseding the
// old one, and derived scores are recomputed from the live set.
type AssessmentRecord struct {
	ID         string     `db:"id" json:"id"`
	StudentID  string     `db:"student_id" json:"student_id"`
	UnitID     string     `db:"unit_id" json:"unit_id"`
	SemesterID string     `db:"semester_id" json:"semester_id"`
	TypeName   string     `db:"type_name" json:"type_name"`
	RawScore   float64    `db:"raw_score" json:"raw_score"`
	MaxScore   float64    `db:"max_score" json:"max_score"`
	RecordedAt time.Time  `db:"recorded_at" json:"recorded_at"`
	Superseded bool       `db:"superseded" json:"superseded"`
	Supersedes *string    `db:"supersedes" json:"supersedes,omitempty"`
	RecordedBy *string    `db:"recorded_by" json:"recorded_by,omitempty"`
	DeletedAt  *time.Time `db:"deleted_at" json:"-"`
}

// GradeBand is one bracket of a grade scale. LowerBound is inclusive;
// UpperBound is exclusive except on the top band, where 100.0 is
// included so the scale covers [0,100].
type GradeBand struct {
	LowerBound  float64 `db:"lower_bound" json:"lower_bound"`
	UpperBound  float64 `db:"upper_bound" json:"upper_bound"`
	Letter      string  `db:"letter" json:"letter"`
	GradePoints float64 `db:"grade_points" json:"grade_points"`
}

// GradeScale is an ordered, contiguous bracket table mapping weighted
// percentages to letters and grade points. Scales are versioned
// configuration keyed by (course, semester) with a global default.
type GradeScale struct {
	ID         string      `db:"id" json:"id"`
	CourseID   *string     `db:"course_id" json:"course_id,omitempty"`
	SemesterID *string     `db:"semester_id" json:"semester_id,omitempty"`
	Version    int         `db:"version" json:"version"`
	Bands      []GradeBand `json:"bands"`
}

// CompositeScore is the derived weighted result for one
// (student, unit, semester). Incomplete marks a valid result computed
// with one or more required assessment types missing.
type CompositeScore struct {
	StudentID   string    `db:"student_id" json:"student_id"`
	UnitID      string    `db:"unit_id" json:"unit_id"`
	SemesterID  string    `db:"semester_id" json:"semester_id"`
	WeightedPct float64   `db:"weighted_pct" json:"weighted_pct"`
	Letter      string    `db:"letter" json:"letter"`
	GradePoints float64   `db:"grade_points" json:"grade_points"`
	Incomplete  bool      `db:"incomplete" json:"incomplete"`
	ComputedAt  time.Time `db:"computed_at" json:"computed_at"`
	Version     int64     `db:"version" json:"version"`
}

// UnitResult pairs a composite score with the unit's credit hours for
// GPA aggregation and transcript rows.
type UnitResult struct {
	UnitID      string  `db:"unit_id" json:"unit_id"`
	UnitCode    string  `db:"unit_code" json:"unit_code"`
	SemesterID  string  `db:"semester_id" json:"semester_id"`
	CreditHours int     `db:"credit_hours" json:"credit_hours"`
	WeightedPct float64 `db:"weighted_pct" json:"weighted_pct"`
	Letter      string  `db:"letter" json:"letter"`
	GradePoints float64 `db:"grade_points" json:"grade_points"`
	Incomplete  bool    `db:"incomplete" json:"incomplete"`
}

// GPASummary is the derived grade point average over a record set.
type GPASummary struct {
	StudentID        string       `json:"student_id"`
	SemesterID       string       `json:"semester_id,omitempty"`
	GPA              float64      `json:"gpa"`
	TotalCreditHours int          `json:"total_credit_hours"`
	Incomplete       bool         `json:"incomplete"`
	Units            []UnitResult `json:"units,omitempty"`
	ComputedAt       time.Time    `json:"computed_at"`
}

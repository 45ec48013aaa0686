package models

import "time"

// SessionType classifies attendance sessions.
type SessionType string

const (
	SessionLecture   SessionType = "LECTURE"
	SessionTutorial  SessionType = "TUTORIAL"
	SessionPractical SessionType = "PRACTICAL"
	SessionSeminar   SessionType = "SEMINAR"
)

// Valid reports whether the session type is known.
func (t SessionType) Valid() bool {
	switch t {
	case SessionLecture, SessionTutorial, SessionPractical, SessionSeminar:
		return true
	}
	return false
}

// AttendanceSession is one held class meeting for a unit.
type AttendanceSession struct {
	ID          string      `db:"id" json:"id"`
	UnitID      string      `db:"unit_id" json:"unit_id"`
	SemesterID  string      `db:"semester_id" json:"semester_id"`
	WeekNumber  int         `db:"week_number" json:"week_number"`
	SessionType SessionType `db:"session_type" json:"session_type"`
	Date        time.Time   `db:"date" json:"date"`
}

// AttendanceRecord is one student's check-in for a session. At most
// one record exists per (session, student).
type AttendanceRecord struct {
	ID        string    `db:"id" json:"id"`
	SessionID string    `db:"session_id" json:"session_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Present   bool      `db:"present" json:"present"`
	MarkedAt  time.Time `db:"marked_at" json:"marked_at"`
	MarkedBy  *string   `db:"marked_by" json:"marked_by,omitempty"`
}

// SessionWeights maps session types to their denominator weight
// (e.g. practicals counting double). Empty means raw counts.
type SessionWeights map[SessionType]float64

// AttendanceStat is the derived per-student, per-unit attendance rate.
// Held and attended are weighted sums when a session weight map is in
// force, hence float64. NoSessions marks a valid zero-rate result for
// a unit with nothing held as of the reporting time.
type AttendanceStat struct {
	StudentID        string    `db:"student_id" json:"student_id"`
	UnitID           string    `db:"unit_id" json:"unit_id"`
	SemesterID       string    `db:"semester_id" json:"semester_id"`
	SessionsHeld     float64   `db:"sessions_held" json:"sessions_held"`
	SessionsAttended float64   `db:"sessions_attended" json:"sessions_attended"`
	RatePct          float64   `db:"rate_pct" json:"rate_pct"`
	NoSessions       bool      `db:"no_sessions" json:"no_sessions"`
	AsOf             time.Time `db:"as_of" json:"as_of"`
	ComputedAt       time.Time `db:"computed_at" json:"computed_at"`
	Version          int64     `db:"version" json:"version"`
}

// LowAttendanceRow flags a student under the reporting threshold.
type LowAttendanceRow struct {
	StudentID string  `json:"student_id"`
	UnitID    string  `json:"unit_id"`
	RatePct   float64 `json:"rate_pct"`
}

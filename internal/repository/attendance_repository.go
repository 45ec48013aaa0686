package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/uniops/academic-records-api/internal/models"
)

// AttendanceRepository handles sessions, check-in records and the
// derived per-student attendance stats.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository creates a new attendance repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// FindSession loads one session by ID.
func (r *AttendanceRepository) FindSession(ctx context.Context, id string) (*models.AttendanceSession, error) {
	const query = `SELECT id, unit_id, semester_id, week_number, session_type, date
        FROM attendance_sessions WHERE id = $1`
	var session models.AttendanceSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessions returns every session held for a unit/semester, oldest
// first. The reporting cutoff is applied by the engine, not here, so
// one snapshot serves any as-of time.
func (r *AttendanceRepository) ListSessions(ctx context.Context, unitID, semesterID string) ([]models.AttendanceSession, error) {
	const query = `SELECT id, unit_id, semester_id, week_number, session_type, date
        FROM attendance_sessions
        WHERE unit_id = $1 AND semester_id = $2
        ORDER BY date, id`
	var sessions []models.AttendanceSession
	if err := r.db.SelectContext(ctx, &sessions, query, unitID, semesterID); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// CreateSession registers a held session.
func (r *AttendanceRepository) CreateSession(ctx context.Context, session *models.AttendanceSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	const query = `INSERT INTO attendance_sessions (id, unit_id, semester_id, week_number, session_type, date)
        VALUES (:id, :unit_id, :semester_id, :week_number, :session_type, :date)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// ListRecords returns a student's check-in records for every session of
// a unit/semester.
func (r *AttendanceRepository) ListRecords(ctx context.Context, studentID, unitID, semesterID string) ([]models.AttendanceRecord, error) {
	const query = `SELECT ar.id, ar.session_id, ar.student_id, ar.present, ar.marked_at, ar.marked_by
        FROM attendance_records ar
        JOIN attendance_sessions s ON s.id = ar.session_id
        WHERE ar.student_id = $1 AND s.unit_id = $2 AND s.semester_id = $3
        ORDER BY s.date, ar.id`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, studentID, unitID, semesterID); err != nil {
		return nil, fmt.Errorf("list attendance records: %w", err)
	}
	return records, nil
}

// UpsertRecord marks a student for a session. Re-marking the same
// session replaces the previous flag; the (session, student) pair stays
// unique.
func (r *AttendanceRepository) UpsertRecord(ctx context.Context, record *models.AttendanceRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.MarkedAt.IsZero() {
		record.MarkedAt = time.Now().UTC()
	}
	const query = `INSERT INTO attendance_records (id, session_id, student_id, present, marked_at, marked_by)
        VALUES (:id, :session_id, :student_id, :present, :marked_at, :marked_by)
        ON CONFLICT (session_id, student_id) DO UPDATE SET
            present = EXCLUDED.present,
            marked_at = EXCLUDED.marked_at,
            marked_by = EXCLUDED.marked_by`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("upsert attendance record: %w", err)
	}
	return nil
}

// GetStat returns the stored attendance stat for one (student, unit, semester).
func (r *AttendanceRepository) GetStat(ctx context.Context, studentID, unitID, semesterID string) (*models.AttendanceStat, error) {
	const query = `SELECT student_id, unit_id, semester_id, sessions_held, sessions_attended, rate_pct, no_sessions, as_of, computed_at, version
        FROM attendance_stats
        WHERE student_id = $1 AND unit_id = $2 AND semester_id = $3`
	var stat models.AttendanceStat
	if err := r.db.GetContext(ctx, &stat, query, studentID, unitID, semesterID); err != nil {
		return nil, err
	}
	return &stat, nil
}

// UpsertStat writes a derived attendance stat, dropping stale versions.
func (r *AttendanceRepository) UpsertStat(ctx context.Context, stat *models.AttendanceStat) (bool, error) {
	const query = `INSERT INTO attendance_stats (student_id, unit_id, semester_id, sessions_held, sessions_attended, rate_pct, no_sessions, as_of, computed_at, version)
        VALUES (:student_id, :unit_id, :semester_id, :sessions_held, :sessions_attended, :rate_pct, :no_sessions, :as_of, :computed_at, :version)
        ON CONFLICT (student_id, unit_id, semester_id) DO UPDATE SET
            sessions_held = EXCLUDED.sessions_held,
            sessions_attended = EXCLUDED.sessions_attended,
            rate_pct = EXCLUDED.rate_pct,
            no_sessions = EXCLUDED.no_sessions,
            as_of = EXCLUDED.as_of,
            computed_at = EXCLUDED.computed_at,
            version = EXCLUDED.version
        WHERE attendance_stats.version < EXCLUDED.version`
	res, err := r.db.NamedExecContext(ctx, query, stat)
	if err != nil {
		return false, fmt.Errorf("upsert attendance stat: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// NextStatVersion reserves a monotonic version stamp for one stat row.
func (r *AttendanceRepository) NextStatVersion(ctx context.Context, studentID, unitID, semesterID string) (int64, error) {
	const query = `SELECT COALESCE(MAX(version), 0) + 1 FROM attendance_stats
        WHERE student_id = $1 AND unit_id = $2 AND semester_id = $3`
	var version int64
	if err := r.db.GetContext(ctx, &version, query, studentID, unitID, semesterID); err != nil {
		return 0, fmt.Errorf("next stat version: %w", err)
	}
	return version, nil
}

// ListLowAttendance returns stored stats under the threshold for a
// unit/semester, worst first.
func (r *AttendanceRepository) ListLowAttendance(ctx context.Context, unitID, semesterID string, thresholdPct float64) ([]models.LowAttendanceRow, error) {
	const query = `SELECT student_id, unit_id, rate_pct
        FROM attendance_stats
        WHERE unit_id = $1 AND semester_id = $2 AND no_sessions = FALSE AND rate_pct < $3
        ORDER BY rate_pct, student_id`
	var rows []models.LowAttendanceRow
	if err := r.db.SelectContext(ctx, &rows, query, unitID, semesterID, thresholdPct); err != nil {
		return nil, fmt.Errorf("list low attendance: %w", err)
	}
	return rows, nil
}

// ListEnrolledStudents returns the roster for a unit/semester.
func (r *AttendanceRepository) ListEnrolledStudents(ctx context.Context, unitID, semesterID string) ([]string, error) {
	const query = `SELECT student_id FROM enrollments
        WHERE unit_id = $1 AND semester_id = $2
        ORDER BY student_id`
	var students []string
	if err := r.db.SelectContext(ctx, &students, query, unitID, semesterID); err != nil {
		return nil, fmt.Errorf("list enrolled students: %w", err)
	}
	return students, nil
}

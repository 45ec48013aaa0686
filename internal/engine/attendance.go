package engine

import (
	"fmt"
	"time"

	"github.com/uniops/academic-records-api/internal/models"
	appErrors "github.com/uniops/academic-records-api/pkg/errors"
)

// RateInput is the snapshot needed to derive one attendance stat.
type RateInput struct {
	StudentID  string
	UnitID     string
	SemesterID string
	Sessions   []models.AttendanceSession
	Records    []models.AttendanceRecord
	Weights    models.SessionWeights
	AsOf       time.Time
}

// ComputeRate converts session-level attendance records into the
// per-unit, per-student rate. Only sessions dated at or before AsOf
// count, which makes point-in-time reporting possible. When a session
// weight map is supplied, held and attended become weighted sums
// (practicals counting double and the like); a session type absent
// from the map weighs 1. A unit with nothing held yields rate 0 with
// the NoSessions flag, never NaN.
func ComputeRate(in RateInput) (models.AttendanceStat, error) {
	for t, w := range in.Weights {
		if w < 0 {
			return models.AttendanceStat{}, appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("session weight for %s is negative", t))
		}
	}

	presence := make(map[string]bool, len(in.Records))
	for _, rec := range in.Records {
		if rec.StudentID != in.StudentID {
			return models.AttendanceStat{}, appErrors.Clone(appErrors.ErrData, fmt.Sprintf("attendance record %s: belongs to student %s", rec.ID, rec.StudentID))
		}
		if _, ok := presence[rec.SessionID]; ok {
			return models.AttendanceStat{}, appErrors.Clone(appErrors.ErrData, fmt.Sprintf("attendance record %s: duplicate record for session %s", rec.ID, rec.SessionID))
		}
		presence[rec.SessionID] = rec.Present
	}

	held := 0.0
	attended := 0.0
	for _, session := range in.Sessions {
		if session.Date.After(in.AsOf) {
			continue
		}
		weight := 1.0
		if in.Weights != nil {
			if w, ok := in.Weights[session.SessionType]; ok {
				weight = w
			}
		}
		held += weight
		if presence[session.ID] {
			attended += weight
		}
	}

	stat := models.AttendanceStat{
		StudentID:        in.StudentID,
		UnitID:           in.UnitID,
		SemesterID:       in.SemesterID,
		SessionsHeld:     held,
		SessionsAttended: attended,
		AsOf:             in.AsOf,
	}
	if held == 0 {
		stat.NoSessions = true
		return stat, nil
	}
	stat.RatePct = round2(attended / held * 100)
	return stat, nil
}

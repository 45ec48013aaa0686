package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniops/academic-records-api/internal/models"
	appErrors "github.com/uniops/academic-records-api/pkg/errors"
)

func day(d int) time.Time {
	return time.Date(2026, time.March, d, 9, 0, 0, 0, time.UTC)
}

func TestComputeRateRawCounts(t *testing.T) {
	stat, err := ComputeRate(RateInput{
		StudentID: "stu1", UnitID: "unit1", SemesterID: "sem1",
		Sessions: []models.AttendanceSession{
			{ID: "s1", SessionType: models.SessionLecture, Date: day(2)},
			{ID: "s2", SessionType: models.SessionLecture, Date: day(9)},
			{ID: "s3", SessionType: models.SessionLecture, Date: day(16)},
			{ID: "s4", SessionType: models.SessionLecture, Date: day(23)},
		},
		Records: []models.AttendanceRecord{
			{ID: "a1", SessionID: "s1", StudentID: "stu1", Present: true},
			{ID: "a2", SessionID: "s2", StudentID: "stu1", Present: false},
			{ID: "a3", SessionID: "s3", StudentID: "stu1", Present: true},
		},
		AsOf: day(30),
	})
	require.NoError(t, err)
	assert.Equal(t, 4.0, stat.SessionsHeld)
	assert.Equal(t, 2.0, stat.SessionsAttended)
	assert.Equal(t, 50.0, stat.RatePct)
	assert.False(t, stat.NoSessions)
}

func TestComputeRateAsOfExcludesFutureSessions(t *testing.T) {
	stat, err := ComputeRate(RateInput{
		StudentID: "stu1", UnitID: "unit1", SemesterID: "sem1",
		Sessions: []models.AttendanceSession{
			{ID: "s1", SessionType: models.SessionLecture, Date: day(2)},
			{ID: "s2", SessionType: models.SessionLecture, Date: day(20)},
		},
		Records: []models.AttendanceRecord{
			{ID: "a1", SessionID: "s1", StudentID: "stu1", Present: true},
		},
		AsOf: day(10),
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, stat.SessionsHeld)
	assert.Equal(t, 100.0, stat.RatePct)
}

func TestComputeRateNoSessions(t *testing.T) {
	stat, err := ComputeRate(RateInput{
		StudentID: "stu1", UnitID: "unit1", SemesterID: "sem1",
		AsOf: day(1),
	})
	require.NoError(t, err)
	assert.True(t, stat.NoSessions)
	assert.Zero(t, stat.RatePct)
	assert.Zero(t, stat.SessionsHeld)
}

func TestComputeRateWeightedSessionTypes(t *testing.T) {
	stat, err := ComputeRate(RateInput{
		StudentID: "stu1", UnitID: "unit1", SemesterID: "sem1",
		Sessions: []models.AttendanceSession{
			{ID: "s1", SessionType: models.SessionLecture, Date: day(2)},
			{ID: "s2", SessionType: models.SessionPractical, Date: day(3)},
		},
		Records: []models.AttendanceRecord{
			{ID: "a1", SessionID: "s2", StudentID: "stu1", Present: true},
		},
		Weights: models.SessionWeights{models.SessionPractical: 2},
		AsOf:    day(30),
	})
	require.NoError(t, err)
	assert.Equal(t, 3.0, stat.SessionsHeld)
	assert.Equal(t, 2.0, stat.SessionsAttended)
	assert.Equal(t, 66.67, stat.RatePct)
}

func TestComputeRateDuplicateRecordIsDataError(t *testing.T) {
	_, err := ComputeRate(RateInput{
		StudentID: "stu1", UnitID: "unit1", SemesterID: "sem1",
		Sessions: []models.AttendanceSession{
			{ID: "s1", SessionType: models.SessionLecture, Date: day(2)},
		},
		Records: []models.AttendanceRecord{
			{ID: "a1", SessionID: "s1", StudentID: "stu1", Present: true},
			{ID: "a2", SessionID: "s1", StudentID: "stu1", Present: false},
		},
		AsOf: day(30),
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrData))
	assert.Contains(t, err.Error(), "a2")
}

func TestComputeRateWrongStudentIsDataError(t *testing.T) {
	_, err := ComputeRate(RateInput{
		StudentID: "stu1", UnitID: "unit1", SemesterID: "sem1",
		Records: []models.AttendanceRecord{
			{ID: "a9", SessionID: "s1", StudentID: "stu2", Present: true},
		},
		AsOf: day(30),
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrData))
}

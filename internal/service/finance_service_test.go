package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniops/academic-records-api/internal/models"
	appErrors "github.com/uniops/academic-records-api/pkg/errors"
)

type mockFinanceRepo struct {
	courses  map[string]string
	dues     []models.SemesterDue
	payments map[string]models.Payment
	balances map[string]models.Balance
}

func balanceKey(studentID, semesterID string) string {
	return studentID + "/" + semesterID
}

func (m *mockFinanceRepo) FindStudentCourse(ctx context.Context, studentID string) (string, error) {
	courseID, ok := m.courses[studentID]
	if !ok {
		return "", sql.ErrNoRows
	}
	return courseID, nil
}

func (m *mockFinanceRepo) ListDuesUpTo(ctx context.Context, courseID, semesterID string) ([]models.SemesterDue, error) {
	var result []models.SemesterDue
	maxSeq := 0
	for _, due := range m.dues {
		if due.SemesterID == semesterID {
			maxSeq = due.Sequence
		}
	}
	for _, due := range m.dues {
		if due.Sequence <= maxSeq {
			result = append(result, due)
		}
	}
	return result, nil
}

func (m *mockFinanceRepo) ListPayments(ctx context.Context, studentID string) ([]models.Payment, error) {
	var result []models.Payment
	for _, p := range m.payments {
		if p.StudentID == studentID {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *mockFinanceRepo) InsertPayment(ctx context.Context, payment *models.Payment) error {
	if m.payments == nil {
		m.payments = make(map[string]models.Payment)
	}
	if payment.ID == "" {
		payment.ID = fmt.Sprintf("pay-%d", len(m.payments)+1)
	}
	if payment.Date.IsZero() {
		payment.Date = time.Now().UTC()
	}
	m.payments[payment.ID] = *payment
	return nil
}

func (m *mockFinanceRepo) FindPayment(ctx context.Context, id string) (*models.Payment, error) {
	payment, ok := m.payments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &payment, nil
}

func (m *mockFinanceRepo) SetVerified(ctx context.Context, paymentID, verifiedBy string) (bool, error) {
	payment, ok := m.payments[paymentID]
	if !ok || payment.Verified {
		return false, nil
	}
	now := time.Now().UTC()
	payment.Verified = true
	payment.VerifiedBy = &verifiedBy
	payment.VerifiedAt = &now
	m.payments[paymentID] = payment
	return true, nil
}

func (m *mockFinanceRepo) GetBalance(ctx context.Context, studentID, semesterID string) (*models.Balance, error) {
	balance, ok := m.balances[balanceKey(studentID, semesterID)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &balance, nil
}

func (m *mockFinanceRepo) UpsertBalance(ctx context.Context, balance *models.Balance) (bool, error) {
	if m.balances == nil {
		m.balances = make(map[string]models.Balance)
	}
	key := balanceKey(balance.StudentID, balance.SemesterID)
	if existing, ok := m.balances[key]; ok && existing.Version >= balance.Version {
		return false, nil
	}
	m.balances[key] = *balance
	return true, nil
}

func (m *mockFinanceRepo) NextBalanceVersion(ctx context.Context, studentID, semesterID string) (int64, error) {
	if existing, ok := m.balances[balanceKey(studentID, semesterID)]; ok {
		return existing.Version + 1, nil
	}
	return 1, nil
}

func (m *mockFinanceRepo) ListBalanceSemesters(ctx context.Context, studentID string) ([]string, error) {
	var semesters []string
	for _, balance := range m.balances {
		if balance.StudentID == studentID {
			semesters = append(semesters, balance.SemesterID)
		}
	}
	return semesters, nil
}

func newFinanceRepoForTest() *mockFinanceRepo {
	return &mockFinanceRepo{
		courses: map[string]string{"stu1": "course1"},
		dues: []models.SemesterDue{
			{SemesterID: "sem1", Sequence: 1, Items: []models.FeeItem{
				{ID: "f1", CourseID: "course1", SemesterID: "sem1", ItemName: "tuition", Amount: 30000},
				{ID: "f2", CourseID: "course1", SemesterID: "sem1", ItemName: "library", Amount: 5000},
			}},
		},
	}
}

func TestFinanceServiceRecordPaymentStartsUnverified(t *testing.T) {
	repo := newFinanceRepoForTest()
	svc := NewFinanceService(repo, nil, nil, nil, nil)

	payment, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
		StudentID: "stu1", Amount: 10000, Method: models.PaymentMobile,
	})
	require.NoError(t, err)
	assert.False(t, payment.Verified)
	assert.NotEmpty(t, payment.Reference)
	assert.NotEmpty(t, payment.ID)
}

func TestFinanceServiceRecordPaymentValidation(t *testing.T) {
	svc := NewFinanceService(newFinanceRepoForTest(), nil, nil, nil, nil)

	_, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
		StudentID: "stu1", Amount: -5, Method: models.PaymentCash,
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.RecordPayment(context.Background(), RecordPaymentRequest{
		StudentID: "stu1", Amount: 100, Method: "BARTER",
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestFinanceServiceGetBalanceComputesOnFirstRead(t *testing.T) {
	repo := newFinanceRepoForTest()
	svc := NewFinanceService(repo, nil, nil, nil, nil)

	balance, err := svc.GetBalance(context.Background(), "stu1", "sem1")
	require.NoError(t, err)
	assert.Equal(t, 35000.0, balance.TotalDue)
	assert.Equal(t, 35000.0, balance.Display)
	assert.Len(t, repo.balances, 1)
}

func TestFinanceServiceVerifyPaymentMovesBalance(t *testing.T) {
	repo := newFinanceRepoForTest()
	svc := NewFinanceService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	payment, err := svc.RecordPayment(ctx, RecordPaymentRequest{
		StudentID: "stu1", Amount: 20000, Method: models.PaymentBank,
	})
	require.NoError(t, err)

	// Materialise the balance, then verify; the unverified payment must
	// not have moved it.
	balance, err := svc.GetBalance(ctx, "stu1", "sem1")
	require.NoError(t, err)
	assert.Equal(t, 35000.0, balance.Display)
	assert.Equal(t, 20000.0, balance.UnverifiedTotal)

	verified, err := svc.VerifyPayment(ctx, payment.ID, "bursar")
	require.NoError(t, err)
	assert.True(t, verified.Verified)

	balance, err = svc.GetBalance(ctx, "stu1", "sem1")
	require.NoError(t, err)
	assert.Equal(t, 20000.0, balance.Applied)
	assert.Equal(t, 15000.0, balance.Display)
	assert.Zero(t, balance.UnverifiedTotal)
}

func TestFinanceServiceVerifyPaymentTwiceConflicts(t *testing.T) {
	repo := newFinanceRepoForTest()
	svc := NewFinanceService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	payment, err := svc.RecordPayment(ctx, RecordPaymentRequest{
		StudentID: "stu1", Amount: 5000, Method: models.PaymentCash,
	})
	require.NoError(t, err)

	_, err = svc.VerifyPayment(ctx, payment.ID, "bursar")
	require.NoError(t, err)
	_, err = svc.VerifyPayment(ctx, payment.ID, "bursar")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestFinanceServiceVerifyUnknownPayment(t *testing.T) {
	svc := NewFinanceService(newFinanceRepoForTest(), nil, nil, nil, nil)

	_, err := svc.VerifyPayment(context.Background(), "missing", "bursar")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestFinanceServiceVerifyPaymentQueuesRecomputes(t *testing.T) {
	repo := newFinanceRepoForTest()
	repo.balances = map[string]models.Balance{
		balanceKey("stu1", "sem1"): {StudentID: "stu1", SemesterID: "sem1", Version: 1},
	}
	queue := &mockQueue{}
	svc := NewFinanceService(repo, queue, nil, nil, nil)
	ctx := context.Background()

	payment, err := svc.RecordPayment(ctx, RecordPaymentRequest{
		StudentID: "stu1", Amount: 5000, Method: models.PaymentCard,
	})
	require.NoError(t, err)
	_, err = svc.VerifyPayment(ctx, payment.ID, "bursar")
	require.NoError(t, err)

	require.Len(t, queue.tasks, 1)
	assert.Equal(t, TaskBalance, queue.tasks[0].Type)
	assert.Equal(t, "stu1|sem1", queue.tasks[0].Key)
}

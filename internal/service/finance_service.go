package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uniops/academic-records-api/internal/engine"
	"github.com/uniops/academic-records-api/internal/models"
	appErrors "github.com/uniops/academic-records-api/pkg/errors"
	"github.com/uniops/academic-records-api/pkg/recompute"
)

type financeRepo interface {
	FindStudentCourse(ctx context.Context, studentID string) (string, error)
	ListDuesUpTo(ctx context.Context, courseID, semesterID string) ([]models.SemesterDue, error)
	ListPayments(ctx context.Context, studentID string) ([]models.Payment, error)
	InsertPayment(ctx context.Context, payment *models.Payment) error
	FindPayment(ctx context.Context, id string) (*models.Payment, error)
	SetVerified(ctx context.Context, paymentID, verifiedBy string) (bool, error)
	GetBalance(ctx context.Context, studentID, semesterID string) (*models.Balance, error)
	UpsertBalance(ctx context.Context, balance *models.Balance) (bool, error)
	NextBalanceVersion(ctx context.Context, studentID, semesterID string) (int64, error)
	ListBalanceSemesters(ctx context.Context, studentID string) ([]string, error)
}

// RecordPaymentRequest registers an incoming payment. Payments start
// unverified and do not move any balance until verified.
type RecordPaymentRequest struct {
	StudentID string               `json:"student_id" validate:"required"`
	Amount    float64              `json:"amount" validate:"required,gt=0"`
	Method    models.PaymentMethod `json:"method" validate:"required"`
	Reference string               `json:"reference,omitempty"`
	Date      time.Time            `json:"date,omitempty"`
}

// FinanceService orchestrates payment intake, verification and balance
// reads.
type FinanceService struct {
	finance   financeRepo
	queue     taskQueue
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFinanceService constructs FinanceService.
func NewFinanceService(finance financeRepo, queue taskQueue, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *FinanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FinanceService{
		finance:   finance,
		queue:     queue,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// RecordPayment stores an unverified payment. A missing reference gets
// a generated one so the receipt is traceable.
func (s *FinanceService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	if !req.Method.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown payment method")
	}

	payment := &models.Payment{
		StudentID: req.StudentID,
		Amount:    req.Amount,
		Method:    req.Method,
		Reference: req.Reference,
		Date:      req.Date,
	}
	if payment.Reference == "" {
		payment.Reference = uuid.NewString()
	}
	if err := s.finance.InsertPayment(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store payment")
	}
	return payment, nil
}

// VerifyPayment flips a payment to verified and queues a balance
// recompute for every semester the student has a stored balance for,
// since FIFO application can reshuffle allocations across all of them.
func (s *FinanceService) VerifyPayment(ctx context.Context, paymentID, verifiedBy string) (*models.Payment, error) {
	if paymentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "payment id required")
	}
	changed, err := s.finance.SetVerified(ctx, paymentID, verifiedBy)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify payment")
	}
	payment, err := s.finance.FindPayment(ctx, paymentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	if !changed {
		return nil, appErrors.Clone(appErrors.ErrConflict, "payment already verified")
	}

	semesters, err := s.finance.ListBalanceSemesters(ctx, payment.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list affected balances")
	}
	for _, semesterID := range semesters {
		if s.queue == nil {
			if _, err := s.RecomputeBalance(ctx, payment.StudentID, semesterID); err != nil {
				s.logger.Sugar().Warnw("balance recompute failed", "student_id", payment.StudentID, "semester_id", semesterID, "error", err)
			}
			continue
		}
		task := recompute.Task{Type: TaskBalance, Key: taskKey(payment.StudentID, semesterID)}
		if err := s.queue.Enqueue(task); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue balance recompute")
		}
	}
	return payment, nil
}

// RecomputeBalance rebuilds the balance for one (student, semester)
// from a fresh snapshot of the fee structure and payment history.
func (s *FinanceService) RecomputeBalance(ctx context.Context, studentID, semesterID string) (*models.Balance, error) {
	start := time.Now()
	balance, err := s.recomputeBalance(ctx, studentID, semesterID)
	s.metrics.ObserveRecompute(TaskBalance, err, time.Since(start))
	return balance, err
}

func (s *FinanceService) recomputeBalance(ctx context.Context, studentID, semesterID string) (*models.Balance, error) {
	courseID, err := s.finance.FindStudentCourse(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	dues, err := s.finance.ListDuesUpTo(ctx, courseID, semesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee structure")
	}
	payments, err := s.finance.ListPayments(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payments")
	}

	balance, err := engine.ComputeBalance(engine.BalanceInput{
		StudentID:  studentID,
		SemesterID: semesterID,
		Dues:       dues,
		Payments:   payments,
	})
	if err != nil {
		return nil, err
	}

	version, err := s.finance.NextBalanceVersion(ctx, studentID, semesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reserve balance version")
	}
	balance.Version = version
	balance.ComputedAt = time.Now().UTC()

	written, err := s.finance.UpsertBalance(ctx, &balance)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store balance")
	}
	if !written {
		s.logger.Sugar().Debugw("stale balance recompute dropped",
			"student_id", studentID, "semester_id", semesterID, "version", version)
	}
	return &balance, nil
}

// GetBalance returns the stored balance, computing it on first read.
// The freshly computed view includes payment allocations; the stored
// row carries the totals only.
func (s *FinanceService) GetBalance(ctx context.Context, studentID, semesterID string) (*models.Balance, error) {
	balance, err := s.finance.GetBalance(ctx, studentID, semesterID)
	if err != nil {
		if err == sql.ErrNoRows {
			return s.RecomputeBalance(ctx, studentID, semesterID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load balance")
	}
	return balance, nil
}

// ListPayments returns a student's payment history.
func (s *FinanceService) ListPayments(ctx context.Context, studentID string) ([]models.Payment, error) {
	payments, err := s.finance.ListPayments(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	return payments, nil
}

// ProcessTask executes one queued balance recompute.
func (s *FinanceService) ProcessTask(ctx context.Context, task recompute.Task) error {
	parts, err := splitTaskKeyN(task.Key, 2)
	if err != nil {
		return err
	}
	_, err = s.RecomputeBalance(ctx, parts[0], parts[1])
	return err
}

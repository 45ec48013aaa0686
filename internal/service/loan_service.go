package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/uniops/academic-records-api/internal/engine"
	"github.com/uniops/academic-records-api/internal/models"
	appErrors "github.com/uniops/academic-records-api/pkg/errors"
)

type loanRepo interface {
	Find(ctx context.Context, id string) (*models.Loan, error)
	Insert(ctx context.Context, loan *models.Loan) error
	MarkReturned(ctx context.Context, loanID string, returnedAt time.Time) (bool, error)
	ListOpenByStudent(ctx context.Context, studentID string) ([]models.Loan, error)
	ListOverdue(ctx context.Context, asOf time.Time) ([]models.Loan, error)
	GetFine(ctx context.Context, loanID string) (*models.Fine, error)
	UpsertFine(ctx context.Context, fine *models.Fine) error
}

type finePolicyReader interface {
	FindFinePolicy(ctx context.Context, libraryID *string) (*models.FinePolicy, error)
}

// CreateLoanRequest registers a book borrowing.
type CreateLoanRequest struct {
	BookID       string    `json:"book_id" validate:"required"`
	StudentID    string    `json:"student_id" validate:"required"`
	BorrowedDate time.Time `json:"borrowed_date" validate:"required"`
	DueDate      time.Time `json:"due_date" validate:"required"`
}

// OverdueLoan pairs an open loan with its projected fine.
type OverdueLoan struct {
	Loan models.Loan `json:"loan"`
	Fine models.Fine `json:"fine"`
}

// LoanService orchestrates book loans and overdue fines.
type LoanService struct {
	loans         loanRepo
	policies      finePolicyReader
	defaultPolicy models.FinePolicy
	metrics       *MetricsService
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewLoanService constructs LoanService. DefaultPolicy applies when no
// fine policy row is configured.
func NewLoanService(loans loanRepo, policies finePolicyReader, defaultPolicy models.FinePolicy, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *LoanService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoanService{
		loans:         loans,
		policies:      policies,
		defaultPolicy: defaultPolicy,
		metrics:       metrics,
		validator:     validate,
		logger:        logger,
	}
}

// CreateLoan registers a borrowing.
func (s *LoanService) CreateLoan(ctx context.Context, req CreateLoanRequest) (*models.Loan, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid loan payload")
	}
	if req.DueDate.Before(req.BorrowedDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "due date precedes borrowed date")
	}
	loan := &models.Loan{
		BookID:       req.BookID,
		StudentID:    req.StudentID,
		BorrowedDate: req.BorrowedDate,
		DueDate:      req.DueDate,
	}
	if err := s.loans.Insert(ctx, loan); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store loan")
	}
	return loan, nil
}

// ReturnLoan closes a loan and freezes its fine at the return date.
// The frozen fine never grows on later reads. A zero returnedAt means
// returned now.
func (s *LoanService) ReturnLoan(ctx context.Context, loanID string, returnedAt time.Time) (*models.Fine, error) {
	if loanID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "loan id required")
	}
	if returnedAt.IsZero() {
		returnedAt = time.Now().UTC()
	}

	changed, err := s.loans.MarkReturned(ctx, loanID, returnedAt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark loan returned")
	}
	loan, err := s.loans.Find(ctx, loanID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "loan not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load loan")
	}
	if !changed {
		return nil, appErrors.Clone(appErrors.ErrConflict, "loan already returned")
	}

	start := time.Now()
	fine, err := s.computeFine(ctx, loan, returnedAt)
	s.metrics.ObserveRecompute("fine", err, time.Since(start))
	if err != nil {
		return nil, err
	}
	fine.ComputedAt = time.Now().UTC()
	if err := s.loans.UpsertFine(ctx, fine); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store fine")
	}
	return fine, nil
}

// FineProjection returns the fine for a loan as of the given time. A
// frozen fine is served as stored; an open loan gets a fresh
// "if returned today" projection that is not persisted.
func (s *LoanService) FineProjection(ctx context.Context, loanID string, asOf time.Time) (*models.Fine, error) {
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	stored, err := s.loans.GetFine(ctx, loanID)
	if err == nil && stored.Frozen {
		return stored, nil
	}
	if err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fine")
	}

	loan, err := s.loans.Find(ctx, loanID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "loan not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load loan")
	}
	return s.computeFine(ctx, loan, asOf)
}

// StudentFines projects fines over a student's open loans.
func (s *LoanService) StudentFines(ctx context.Context, studentID string, asOf time.Time) ([]OverdueLoan, error) {
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	loans, err := s.loans.ListOpenByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list open loans")
	}
	return s.project(ctx, loans, asOf)
}

// OverdueLoans lists every open loan past due as of the given time
// with its projected fine.
func (s *LoanService) OverdueLoans(ctx context.Context, asOf time.Time) ([]OverdueLoan, error) {
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	loans, err := s.loans.ListOverdue(ctx, asOf)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list overdue loans")
	}
	return s.project(ctx, loans, asOf)
}

func (s *LoanService) project(ctx context.Context, loans []models.Loan, asOf time.Time) ([]OverdueLoan, error) {
	result := make([]OverdueLoan, 0, len(loans))
	for _, loan := range loans {
		fine, err := s.computeFine(ctx, &loan, asOf)
		if err != nil {
			// One malformed loan must not hide the rest of the report.
			s.logger.Sugar().Warnw("fine projection failed", "loan_id", loan.ID, "error", err)
			continue
		}
		result = append(result, OverdueLoan{Loan: loan, Fine: *fine})
	}
	return result, nil
}

func (s *LoanService) computeFine(ctx context.Context, loan *models.Loan, asOf time.Time) (*models.Fine, error) {
	policy, err := s.resolvePolicy(ctx)
	if err != nil {
		return nil, err
	}
	fine, err := engine.ComputeFine(*loan, policy, asOf)
	if err != nil {
		return nil, err
	}
	return &fine, nil
}

func (s *LoanService) resolvePolicy(ctx context.Context) (models.FinePolicy, error) {
	policy, err := s.policies.FindFinePolicy(ctx, nil)
	if err != nil {
		if err == sql.ErrNoRows {
			return s.defaultPolicy, nil
		}
		return models.FinePolicy{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fine policy")
	}
	return *policy, nil
}

package models

import "time"

// Loan is one book borrowing. ReturnedDate nil means the book is still
// out.
type Loan struct {
	ID           string     `db:"id" json:"id"`
	BookID       string     `db:"book_id" json:"book_id"`
	StudentID    string     `db:"student_id" json:"student_id"`
	BorrowedDate time.Time  `db:"borrowed_date" json:"borrowed_date"`
	DueDate      time.Time  `db:"due_date" json:"due_date"`
	ReturnedDate *time.Time `db:"returned_date" json:"returned_date,omitempty"`
}

// FinePolicy governs overdue fines: no fine accrues during the grace
// period, and the total is capped at MaxFine.
type FinePolicy struct {
	ID        string  `db:"id" json:"id"`
	LibraryID *string `db:"library_id" json:"library_id,omitempty"`
	DailyRate float64 `db:"daily_rate" json:"daily_rate"`
	GraceDays int     `db:"grace_days" json:"grace_days"`
	MaxFine   float64 `db:"max_fine" json:"max_fine"`
	Version   int     `db:"version" json:"version"`
}

// Fine is the derived charge for one overdue loan. Frozen marks a fine
// computed from the loan's actual return date; frozen fines never grow
// on later reads.
type Fine struct {
	LoanID      string    `db:"loan_id" json:"loan_id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	OverdueDays int       `db:"overdue_days" json:"overdue_days"`
	Amount      float64   `db:"amount" json:"amount"`
	Frozen      bool      `db:"frozen" json:"frozen"`
	AsOf        time.Time `db:"as_of" json:"as_of"`
	ComputedAt  time.Time `db:"computed_at" json:"computed_at"`
}

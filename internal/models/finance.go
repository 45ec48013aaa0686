package models

import "time"

// PaymentMethod classifies how a payment was made.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "CASH"
	PaymentBank   PaymentMethod = "BANK"
	PaymentMobile PaymentMethod = "MOBILE"
	PaymentCard   PaymentMethod = "CARD"
)

// Valid reports whether the payment method is known.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentBank, PaymentMobile, PaymentCard:
		return true
	}
	return false
}

// FeeItem is one line of a course's fee structure for a semester.
type FeeItem struct {
	ID         string  `db:"id" json:"id"`
	CourseID   string  `db:"course_id" json:"course_id"`
	SemesterID string  `db:"semester_id" json:"semester_id"`
	ItemName   string  `db:"item_name" json:"item_name"`
	Amount     float64 `db:"amount" json:"amount"`
	Position   int     `db:"position" json:"position"`
}

// Payment is a fee payment by a student. Only verified payments count
// toward balance; flipping Verified triggers a balance recompute.
type Payment struct {
	ID         string        `db:"id" json:"id"`
	StudentID  string        `db:"student_id" json:"student_id"`
	Amount     float64       `db:"amount" json:"amount"`
	Date       time.Time     `db:"date" json:"date"`
	Verified   bool          `db:"verified" json:"verified"`
	Method     PaymentMethod `db:"method" json:"method"`
	Reference  string        `db:"reference" json:"reference"`
	VerifiedBy *string       `db:"verified_by" json:"verified_by,omitempty"`
	VerifiedAt *time.Time    `db:"verified_at" json:"verified_at,omitempty"`
}

// PaymentAllocation records how much of one payment the ledger applied
// to one semester's debt under FIFO application.
type PaymentAllocation struct {
	PaymentID  string  `json:"payment_id"`
	SemesterID string  `json:"semester_id"`
	Amount     float64 `json:"amount"`
}

// SemesterDue groups a semester's fee items for the ledger, ordered by
// semester sequence so the oldest debt is satisfied first.
type SemesterDue struct {
	SemesterID string
	Sequence   int
	Items      []FeeItem
}

// Balance is the derived financial position for a student/semester.
// TrueSigned can be negative (credit); Display is floored at zero for
// reports. UnverifiedTotal is tracked but never applied.
type Balance struct {
	StudentID       string              `db:"student_id" json:"student_id"`
	SemesterID      string              `db:"semester_id" json:"semester_id"`
	TotalDue        float64             `db:"total_due" json:"total_due"`
	Applied         float64             `db:"applied" json:"applied"`
	TrueSigned      float64             `db:"true_signed" json:"true_signed"`
	Display         float64             `db:"display" json:"display"`
	UnverifiedTotal float64             `db:"unverified_total" json:"unverified_total"`
	Allocations     []PaymentAllocation `json:"allocations,omitempty"`
	ComputedAt      time.Time           `db:"computed_at" json:"computed_at"`
	Version         int64               `db:"version" json:"version"`
}

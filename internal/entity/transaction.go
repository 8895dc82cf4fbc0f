package entity

import "time"

type Transaction struct {
	ID          string    `json:"id" db:"id"`
	UserID      int64     `json:"user_id" db:"user_id"`
	EventID     int64     `json:"event_id" db:"event_id"`
	ChargeID    string    `json:"-" db:"charge_id"`
	AmountCents int64     `json:"amount_cents" db:"amount_cents"`
	Discount    int64     `json:"discount" db:"discount"`
	// PointsConsumed records exactly how many eventpoints the discount
	// spent, so a reversal can credit them back without re-deriving the
	// figure from the rounded discount.
	PointsConsumed int64     `json:"points_consumed" db:"points_consumed"`
	IsPaidFor      bool      `json:"is_paid_for" db:"is_paid_for"`
	Reversed       bool      `json:"reversed" db:"reversed"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Receipt is a transaction joined with its event for the user's
// payment history view.
type Receipt struct {
	Transaction
	EventTitle string   `json:"event_title" db:"title"`
	EventDate  DateOnly `json:"event_date" db:"date"`
}

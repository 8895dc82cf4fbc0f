package entity

import "time"

const TokenLength = 8

type Profile struct {
	ID                int64     `json:"id" db:"id"`
	UserID            int64     `json:"user_id" db:"user_id"`
	Birthdate         DateOnly  `json:"birthdate" db:"birthdate"`
	Location          string    `json:"location,omitempty" db:"location"`
	Picture           string    `json:"picture,omitempty" db:"picture"`
	Bio               string    `json:"bio,omitempty" db:"bio"`
	Token             string    `json:"token" db:"token"`
	Eventpoints       int64     `json:"eventpoints" db:"eventpoints"`
	PaymentCustomerID string    `json:"-" db:"payment_customer_id"`
	PaymentAccountID  string    `json:"-" db:"payment_account_id"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// Age reports full years between the birthdate and now.
func (p *Profile) Age(now time.Time) int {
	b := p.Birthdate.Time
	age := now.Year() - b.Year()
	if now.Month() < b.Month() || (now.Month() == b.Month() && now.Day() < b.Day()) {
		age--
	}
	return age
}

// IsComplete reports whether the profile carries enough data to host events.
func (p *Profile) IsComplete(firstName, lastName string) bool {
	return p.Bio != "" && firstName != "" && lastName != ""
}

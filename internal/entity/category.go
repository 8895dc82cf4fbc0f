package entity

import "time"

type Category struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Picture   string    `json:"picture,omitempty" db:"picture"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

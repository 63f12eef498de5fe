package models

import "time"

// Server — игровой мир, на котором ведётся бронирование респаунов.
type Server struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Region    string    `json:"region"`
	CreatedAt time.Time `json:"created_at"`
}

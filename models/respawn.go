package models

import "time"

// Difficulty — уровень сложности респауна. Используется только для отображения,
// порядок задаётся sort_order.
type Difficulty struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
	Color     string `json:"color"`
}

// Respawn — охотничье место на конкретном сервере с лимитом на размер пати.
type Respawn struct {
	ID           int       `json:"id"`
	ServerID     int       `json:"server_id"`
	Name         string    `json:"name"`
	DifficultyID int       `json:"difficulty_id"`
	MaxPlayers   int       `json:"max_players"`
	CreatedAt    time.Time `json:"created_at"`
	ImageKey     *string   `json:"-"`
	ImageURL     *string   `json:"image_url,omitempty"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Difficulty *Difficulty `json:"difficulty,omitempty"`
}

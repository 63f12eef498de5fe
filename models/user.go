package models

import "time"

// UserRole представляет роль пользователя, соответствующую ENUM в БД.
type UserRole string

const (
	RolePlayer UserRole = "player"
	RoleAdmin  UserRole = "admin"
)

type User struct {
	ID           int       `json:"id"`
	Nickname     string    `json:"nickname"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	// Points — кэшированный баланс. Всегда равен сумме транзакций пользователя,
	// обновляется в той же транзакции БД, что и запись в point_transactions.
	Points    int       `json:"points"`
	CreatedAt time.Time `json:"created_at"`
}

// Character — игровой персонаж, привязанный к пользователю.
// Мир персонажа должен совпадать с сервером заявки, в которой он участвует.
type Character struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Name      string    `json:"name"`
	World     string    `json:"world"`
	Vocation  *string   `json:"vocation,omitempty"`
	Level     *int      `json:"level,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

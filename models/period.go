package models

import "time"

// SchedulePeriod — ограниченный диапазон дат (обычно неделя), в рамках которого
// действуют брони слотов. Рекомендуется держать не больше одного активного
// периода на сервер; жёстко это не навязывается.
type SchedulePeriod struct {
	ID        int       `json:"id"`
	ServerID  int       `json:"server_id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

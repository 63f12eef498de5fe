package models

// Slot — фиксированный интервал времени суток, доступный для брони на сервере.
// Время хранится строкой "HH:MM". Интервал через полночь допустим
// (например 23:00–01:00), поэтому start < end не требуется.
type Slot struct {
	ID        int    `json:"id"`
	ServerID  int    `json:"server_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

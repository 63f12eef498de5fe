package services

// Identity — явная личность вызывающего. Передаётся в каждый метод сервисов
// вместо обращения к глобальной сессии: кто и с какими правами действует,
// всегда видно из сигнатуры.
type Identity struct {
	UserID  int
	IsAdmin bool
}

func (id Identity) CanActFor(userID int) bool {
	return id.IsAdmin || id.UserID == userID
}

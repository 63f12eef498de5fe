package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed        = errors.New("validation failed")
	ErrPasswordTooShort        = errors.New("password is too short")
	ErrPartyEmpty              = errors.New("party must have at least one member")
	ErrPartyLeaderRequired     = errors.New("party must have exactly one leader")
	ErrPartyTooLarge           = errors.New("party size exceeds respawn player limit")
	ErrPartyMemberAmbiguous    = errors.New("party member must reference a character or an external name, not both")
	ErrCharacterNotOwned       = errors.New("character does not belong to the requesting user")
	ErrCharacterServerMismatch = errors.New("character world differs from the request server")
	ErrRespawnServerMismatch   = errors.New("respawn does not belong to the request server")
	ErrSlotServerMismatch      = errors.New("slot does not belong to the request server")
	ErrPeriodServerMismatch    = errors.New("period does not belong to the request server")
	ErrInvalidStateTransition  = errors.New("invalid request status transition")
	ErrInsufficientPoints      = errors.New("insufficient points")
	ErrClaimAmountInvalid      = errors.New("claim amount must be positive")
	ErrPointAmountInvalid      = errors.New("point amount must be non-zero")
	ErrPeriodInvalidDateRange  = errors.New("period end date must be after start date")
	ErrSlotInvalidTime         = errors.New("slot time must be in HH:MM format")
	ErrCopySameServer          = errors.New("source and target servers must differ")

	// Ошибки конфликтов
	ErrUserEmailConflict = errors.New("email address is already in use")
	ErrNicknameConflict  = errors.New("nickname is already in use")
	// Одобренная заявка уже держит этот (респаун, слот, период)
	ErrSlotAlreadyTaken      = errors.New("an approved request already holds this respawn, slot and period")
	ErrCharacterNameConflict = errors.New("character name is already registered")
	ErrDifficultyInUse       = errors.New("difficulty is referenced by respawns and cannot be deleted")

	// Ошибки аутентификации и авторизации
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")
	ErrAdminOnly              = errors.New("only an administrator can perform this action")

	// Ошибки, специфичные для сущностей (дублируют ErrNotFound, но дают контекст)
	ErrUserNotFound       = errors.New("user not found")
	ErrServerNotFound     = errors.New("server not found")
	ErrRespawnNotFound    = errors.New("respawn not found")
	ErrDifficultyNotFound = errors.New("difficulty not found")
	ErrSlotNotFound       = errors.New("slot not found")
	ErrPeriodNotFound     = errors.New("period not found")
	ErrRequestNotFound    = errors.New("request not found")
	ErrClaimNotFound      = errors.New("claim not found")
	ErrCharacterNotFound  = errors.New("character not found")

	// Хранилище недоступно; вызывающая сторона может повторить запрос
	ErrStorageUnavailable = errors.New("storage is temporarily unavailable")
)

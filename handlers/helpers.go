package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Dosada05/hunt-reservation/services"
	"github.com/go-chi/chi/v5"
)

type jsonResponse map[string]interface{}

// Логгер для непредвиденных ошибок уровня handlers; задаётся в main.
var logger = slog.Default()

func SetLogger(l *slog.Logger) {
	logger = l
}

func getIDFromURL(r *http.Request, param string) (int, error) {
	raw := chi.URLParam(r, param)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s URL parameter: %q", param, raw)
	}
	return id, nil
}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case err.Error() == "http: request body too large":
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err) // ошибка программиста: передан не указатель
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err = w.Write(js); err != nil {
		return err
	}
	return nil
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	env := jsonResponse{"error": message}
	if err := writeJSON(w, status, env, nil); err != nil {
		logger.Error("failed to write error response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logger.Error("internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err))
	message := "the server encountered a problem and could not process your request"
	errorResponse(w, r, http.StatusInternalServerError, message)
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "the requested resource could not be found"
	errorResponse(w, r, http.StatusNotFound, message)
}

func conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusConflict, message)
}

func unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusUnauthorized, message)
}

func forbiddenResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusForbidden, message)
}

// mapServiceErrorToHTTP преобразует ошибки сервисного слоя в HTTP-ответы.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	// Не найдено
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrServerNotFound),
		errors.Is(err, services.ErrRespawnNotFound),
		errors.Is(err, services.ErrDifficultyNotFound),
		errors.Is(err, services.ErrSlotNotFound),
		errors.Is(err, services.ErrPeriodNotFound),
		errors.Is(err, services.ErrRequestNotFound),
		errors.Is(err, services.ErrClaimNotFound),
		errors.Is(err, services.ErrCharacterNotFound):
		notFoundResponse(w, r)

	// Конфликты
	case errors.Is(err, services.ErrSlotAlreadyTaken),
		errors.Is(err, services.ErrUserEmailConflict),
		errors.Is(err, services.ErrNicknameConflict),
		errors.Is(err, services.ErrCharacterNameConflict),
		errors.Is(err, services.ErrDifficultyInUse),
		errors.Is(err, services.ErrInvalidStateTransition):
		conflictResponse(w, r, err.Error())

	// Невалидные данные / бизнес-правила
	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrPasswordTooShort),
		errors.Is(err, services.ErrPartyEmpty),
		errors.Is(err, services.ErrPartyLeaderRequired),
		errors.Is(err, services.ErrPartyTooLarge),
		errors.Is(err, services.ErrPartyMemberAmbiguous),
		errors.Is(err, services.ErrCharacterServerMismatch),
		errors.Is(err, services.ErrRespawnServerMismatch),
		errors.Is(err, services.ErrSlotServerMismatch),
		errors.Is(err, services.ErrPeriodServerMismatch),
		errors.Is(err, services.ErrClaimAmountInvalid),
		errors.Is(err, services.ErrPointAmountInvalid),
		errors.Is(err, services.ErrPeriodInvalidDateRange),
		errors.Is(err, services.ErrSlotInvalidTime),
		errors.Is(err, services.ErrCopySameServer):
		badRequestResponse(w, r, err)

	// Недостаточно очков: 402 яснее всего описывает суть
	case errors.Is(err, services.ErrInsufficientPoints):
		errorResponse(w, r, http.StatusPaymentRequired, err.Error())

	// Доступ
	case errors.Is(err, services.ErrAuthInvalidCredentials):
		unauthorizedResponse(w, r, err.Error())
	case errors.Is(err, services.ErrForbiddenOperation),
		errors.Is(err, services.ErrAdminOnly),
		errors.Is(err, services.ErrCharacterNotOwned):
		forbiddenResponse(w, r, err.Error())

	// Внешние зависимости
	case errors.Is(err, services.ErrStorageUnavailable):
		errorResponse(w, r, http.StatusServiceUnavailable, err.Error())

	default:
		serverErrorResponse(w, r, err)
	}
}

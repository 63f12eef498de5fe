package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/hunt-reservation/middleware"
	"github.com/Dosada05/hunt-reservation/services"
)

type AuthHandler struct {
	authService services.AuthService
	auth        *middleware.Auth
}

func NewAuthHandler(authService services.AuthService, auth *middleware.Auth) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		auth:        auth,
	}
}

// Register godoc
// @Summary Регистрация нового пользователя
// @Tags auth
// @Accept json
// @Produce json
// @Param input body object true "Email, никнейм и пароль"
// @Success 201 {object} map[string]interface{} "Пользователь и JWT-токен"
// @Failure 400 {object} map[string]string "Некорректные данные"
// @Failure 409 {object} map[string]string "Email или никнейм уже занят"
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Email == "" || input.Password == "" || input.Nickname == "" {
		badRequestResponse(w, r, errors.New("nickname, email, and password are required"))
		return
	}

	user, err := h.authService.Register(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	token, err := h.auth.GenerateToken(user)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	response := jsonResponse{
		"user":  user,
		"token": token,
	}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Login godoc
// @Summary Вход по email и паролю
// @Tags auth
// @Accept json
// @Produce json
// @Param input body services.LoginInput true "Email и пароль"
// @Success 200 {object} map[string]interface{} "Пользователь и JWT-токен"
// @Failure 400 {object} map[string]string "Не указан email или пароль"
// @Failure 401 {object} map[string]string "Неверные учётные данные"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input services.LoginInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Email == "" || input.Password == "" {
		badRequestResponse(w, r, errors.New("email and password are required"))
		return
	}

	user, err := h.authService.Login(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	token, err := h.auth.GenerateToken(user)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	response := jsonResponse{
		"user":  user,
		"token": token,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

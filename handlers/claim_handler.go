package handlers

import (
	"net/http"

	"github.com/Dosada05/hunt-reservation/middleware"
	"github.com/Dosada05/hunt-reservation/services"
)

type ClaimHandler struct {
	claimService services.ClaimService
}

func NewClaimHandler(claimService services.ClaimService) *ClaimHandler {
	return &ClaimHandler{claimService: claimService}
}

// CreateClaim godoc
// @Summary Подать заявку на расход очков
// @Tags claims
// @Description Очки удерживаются сразу при создании и возвращаются при отклонении.
// @Accept json
// @Produce json
// @Param input body object true "Сумма и описание (amount, description)"
// @Success 201 {object} map[string]interface{} "Заявка создана, очки удержаны"
// @Failure 400 {object} map[string]string "Неположительная сумма"
// @Failure 401 {object} map[string]string "Неавторизован"
// @Failure 402 {object} map[string]string "Недостаточно очков"
// @Security BearerAuth
// @Router /claims [post]
func (h *ClaimHandler) CreateClaim(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.GetIdentityFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input struct {
		Amount      int    `json:"amount"`
		Description string `json:"description"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	claim, err := h.claimService.Create(r.Context(), caller, input.Amount, input.Description)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"claim": claim}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetClaimByID godoc
// @Summary Получить заявку на расход по ID
// @Tags claims
// @Produce json
// @Param claimID path int true "Claim ID"
// @Success 200 {object} map[string]interface{} "Заявка"
// @Failure 403 {object} map[string]string "Чужая заявка"
// @Failure 404 {object} map[string]string "Заявка не найдена"
// @Security BearerAuth
// @Router /claims/{claimID} [get]
func (h *ClaimHandler) GetClaimByID(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.GetIdentityFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	claimID, err := getIDFromURL(r, "claimID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	claim, err := h.claimService.GetByID(r.Context(), caller, claimID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"claim": claim}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListClaims godoc
// @Summary Список заявок на расход
// @Tags claims
// @Description Пользователь видит только свои заявки, администратор — все.
// @Produce json
// @Success 200 {object} map[string]interface{} "Список заявок"
// @Failure 401 {object} map[string]string "Неавторизован"
// @Security BearerAuth
// @Router /claims [get]
func (h *ClaimHandler) ListClaims(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.GetIdentityFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	claims, err := h.claimService.List(r.Context(), caller)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"claims": claims}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ApproveClaim godoc
// @Summary Одобрить заявку на расход (админ)
// @Tags claims
// @Description Подтверждает удержание очков, списанных при создании заявки.
// @Produce json
// @Param claimID path int true "Claim ID"
// @Success 200 {object} map[string]interface{} "Одобренная заявка"
// @Failure 403 {object} map[string]string "Нет прав администратора"
// @Failure 404 {object} map[string]string "Заявка не найдена"
// @Failure 409 {object} map[string]string "Заявка уже обработана"
// @Security BearerAuth
// @Router /claims/{claimID}/approve [post]
func (h *ClaimHandler) ApproveClaim(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.GetIdentityFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	claimID, err := getIDFromURL(r, "claimID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	claim, err := h.claimService.Approve(r.Context(), caller, claimID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"claim": claim}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RejectClaim godoc
// @Summary Отклонить заявку на расход (админ)
// @Tags claims
// @Description Возвращает удержанные очки автору заявки.
// @Produce json
// @Param claimID path int true "Claim ID"
// @Success 200 {object} map[string]interface{} "Отклонённая заявка"
// @Failure 403 {object} map[string]string "Нет прав администратора"
// @Failure 404 {object} map[string]string "Заявка не найдена"
// @Failure 409 {object} map[string]string "Заявка уже обработана"
// @Security BearerAuth
// @Router /claims/{claimID}/reject [post]
func (h *ClaimHandler) RejectClaim(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.GetIdentityFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	claimID, err := getIDFromURL(r, "claimID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	claim, err := h.claimService.Reject(r.Context(), caller, claimID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"claim": claim}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Dosada05/hunt-reservation/middleware"
	"github.com/Dosada05/hunt-reservation/models"
	"github.com/Dosada05/hunt-reservation/repositories"
	"github.com/Dosada05/hunt-reservation/services"
)

type RequestHandler struct {
	requestService services.RequestService
}

func NewRequestHandler(requestService services.RequestService) *RequestHandler {
	return &RequestHandler{requestService: requestService}
}

type createRequestInput struct {
	ServerID  int                `json:"server_id"`
	RespawnID int                `json:"respawn_id"`
	SlotID    int                `json:"slot_id"`
	PeriodID  int                `json:"period_id"`
	Party     []partyMemberInput `json:"party"`
}

type partyMemberInput struct {
	CharacterID   *int    `json:"character_id,omitempty"`
	CharacterName *string `json:"character_name,omitempty"`
	RoleInParty   *string `json:"role_in_party,omitempty"`
	IsLeader      bool    `json:"is_leader"`
}

// CreateRequest godoc
// @Summary Подать заявку на бронь слота
// @Tags requests
// @Description Заявка создаётся в статусе pending; слот закрепляется только после одобрения администратором.
// @Accept json
// @Produce json
// @Param input body createRequestInput true "Сервер, респаун, слот, период и состав пати"
// @Success 201 {object} map[string]interface{} "Заявка создана"
// @Failure 400 {object} map[string]string "Ошибка валидации пати или ссылок"
// @Failure 401 {object} map[string]string "Неавторизован"
// @Failure 404 {object} map[string]string "Сервер, респаун, слот или период не найден"
// @Failure 409 {object} map[string]string "Слот уже занят одобренной заявкой"
// @Security BearerAuth
// @Router /requests [post]
func (h *RequestHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.GetIdentityFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input createRequestInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	party := make([]models.PartyMember, 0, len(input.Party))
	for _, m := range input.Party {
		party = append(party, models.PartyMember{
			CharacterID:   m.CharacterID,
			CharacterName: m.CharacterName,
			RoleInParty:   m.RoleInParty,
			IsLeader:      m.IsLeader,
		})
	}

	draft := services.RequestDraft{
		UserID:    caller.UserID,
		ServerID:  input.ServerID,
		RespawnID: input.RespawnID,
		SlotID:    input.SlotID,
		PeriodID:  input.PeriodID,
		Party:     party,
	}

	request, err := h.requestService.Create(r.Context(), caller, draft)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"request": request}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetRequestByID godoc
// @Summary Получить заявку по ID
// @Tags requests
// @Produce json
// @Param requestID path int true "Request ID"
// @Success 200 {object} map[string]interface{} "Заявка с составом пати"
// @Failure 404 {object} map[string]string "Заявка не найдена"
// @Security BearerAuth
// @Router /requests/{requestID} [get]
func (h *RequestHandler) GetRequestByID(w http.ResponseWriter, r *http.Request) {
	requestID, err := getIDFromURL(r, "requestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	request, err := h.requestService.GetByID(r.Context(), requestID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"request": request}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListRequests godoc
// @Summary Список заявок с фильтрами
// @Tags requests
// @Produce json
// @Param server_id query int false "Фильтр по серверу"
// @Param period_id query int false "Фильтр по периоду"
// @Param user_id query int false "Фильтр по пользователю"
// @Param status query string false "Фильтр по статусу (pending/approved/rejected/cancelled)"
// @Success 200 {object} map[string]interface{} "Список заявок"
// @Failure 400 {object} map[string]string "Неизвестный статус или нечисловой фильтр"
// @Security BearerAuth
// @Router /requests [get]
func (h *RequestHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	filter := repositories.RequestFilter{}

	if v := r.URL.Query().Get("server_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			badRequestResponse(w, r, err)
			return
		}
		filter.ServerID = &id
	}
	if v := r.URL.Query().Get("period_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			badRequestResponse(w, r, err)
			return
		}
		filter.PeriodID = &id
	}
	if v := r.URL.Query().Get("user_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			badRequestResponse(w, r, err)
			return
		}
		filter.UserID = &id
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status := models.RequestStatus(v)
		if !status.Valid() {
			badRequestResponse(w, r, fmt.Errorf("unknown request status %q", v))
			return
		}
		filter.Status = &status
	}

	requests, err := h.requestService.List(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"requests": requests}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ApproveRequest godoc
// @Summary Одобрить заявку (админ)
// @Tags requests
// @Description Закрепляет слот за заявкой и списывает очки с автора в той же транзакции.
// @Produce json
// @Param requestID path int true "Request ID"
// @Success 200 {object} map[string]interface{} "Одобренная заявка"
// @Failure 402 {object} map[string]string "У автора недостаточно очков"
// @Failure 403 {object} map[string]string "Нет прав администратора"
// @Failure 404 {object} map[string]string "Заявка не найдена"
// @Failure 409 {object} map[string]string "Слот уже занят или переход статуса недопустим"
// @Security BearerAuth
// @Router /requests/{requestID}/approve [post]
func (h *RequestHandler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.requestService.Approve)
}

// RejectRequest godoc
// @Summary Отклонить заявку (админ)
// @Tags requests
// @Description Очки автора не затрагиваются: до одобрения списаний не было.
// @Produce json
// @Param requestID path int true "Request ID"
// @Success 200 {object} map[string]interface{} "Отклонённая заявка"
// @Failure 403 {object} map[string]string "Нет прав администратора"
// @Failure 404 {object} map[string]string "Заявка не найдена"
// @Failure 409 {object} map[string]string "Переход статуса недопустим"
// @Security BearerAuth
// @Router /requests/{requestID}/reject [post]
func (h *RequestHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.requestService.Reject)
}

// CancelRequest godoc
// @Summary Отменить заявку (владелец или админ)
// @Tags requests
// @Description Отмена одобренной заявки возвращает списанные очки.
// @Produce json
// @Param requestID path int true "Request ID"
// @Success 200 {object} map[string]interface{} "Отменённая заявка"
// @Failure 403 {object} map[string]string "Чужая заявка"
// @Failure 404 {object} map[string]string "Заявка не найдена"
// @Failure 409 {object} map[string]string "Переход статуса недопустим"
// @Security BearerAuth
// @Router /requests/{requestID}/cancel [post]
func (h *RequestHandler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.requestService.Cancel)
}

func (h *RequestHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, caller services.Identity, requestID int) (*models.Request, error),
) {
	caller, err := middleware.GetIdentityFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	requestID, err := getIDFromURL(r, "requestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	request, err := op(r.Context(), caller, requestID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"request": request}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

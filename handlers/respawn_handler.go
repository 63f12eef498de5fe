package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Dosada05/hunt-reservation/middleware"
	"github.com/Dosada05/hunt-reservation/services"
)

type RespawnHandler struct {
	respawnService services.RespawnService
}

func NewRespawnHandler(respawnService services.RespawnService) *RespawnHandler {
	return &RespawnHandler{respawnService: respawnService}
}

func (h *RespawnHandler) CreateRespawn(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.GetIdentityFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	serverID, err := getIDFromURL(r, "serverID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CreateRespawnInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	respawn, err := h.respawnService.Create(r.Context(), caller, serverID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"respawn": respawn}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RespawnHandler) GetRespawnByID(w http.ResponseWriter, r *http.Request) {
	respawnID, err := getIDFromURL(r, "respawnID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	respawn, err := h.respawnService.GetByID(r.Context(), respawnID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"respawn": respawn}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RespawnHandler) ListRespawnsByServer(w http.ResponseWriter, r *http.Request) {
	serverID, err := getIDFromURL(r, "serverID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	respawns, err := h.respawnService.ListByServer(r.Context(), serverID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"respawns": respawns}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RespawnHandler) UpdateRespawn(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.GetIdentityFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	respawnID, err := getIDFromURL(r, "respawnID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CreateRespawnInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	respawn, err := h.respawnService.Update(r.Context(), caller, respawnID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"respawn": respawn}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RespawnHandler) DeleteRespawn(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.GetIdentityFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	respawnID, err := getIDFromURL(r, "respawnID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.respawnService.Delete(r.Context(), caller, respawnID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadRespawnImage godoc
// @Summary Загрузить изображение респауна (админ)
// @Tags respawns
// @Accept mpfd
// @Produce json
// @Param respawnID path int true "Respawn ID"
// @Param image formData file true "Файл изображения"
// @Success 200 {object} map[string]interface{} "Респаун с обновлённым изображением"
// @Failure 400 {object} map[string]string "Некорректный файл или загрузка изображений отключена"
// @Failure 403 {object} map[string]string "Нет прав администратора"
// @Failure 404 {object} map[string]string "Респаун не найден"
// @Security BearerAuth
// @Router /respawns/{respawnID}/image [post]
func (h *RespawnHandler) UploadRespawnImage(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.GetIdentityFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	respawnID, err := getIDFromURL(r, "respawnID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to parse multipart form: %w", err))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to get image file from form: %w", err))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		badRequestResponse(w, r, errors.New("content-type header is required for image"))
		return
	}

	respawn, err := h.respawnService.SetImage(r.Context(), caller, respawnID, contentType, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"respawn": respawn}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CopyRespawns godoc
// @Summary Скопировать каталог респаунов с другого сервера (админ)
// @Tags respawns
// @Description Копирует респауны source-сервера на сервер из URL. При overwrite=true существующий каталог цели предварительно удаляется.
// @Accept json
// @Produce json
// @Param serverID path int true "ID целевого сервера"
// @Param input body object true "Источник и режим (source_server_id, overwrite)"
// @Success 200 {object} map[string]interface{} "Количество скопированных и удалённых респаунов"
// @Failure 400 {object} map[string]string "Источник совпадает с целью"
// @Failure 403 {object} map[string]string "Нет прав администратора"
// @Failure 404 {object} map[string]string "Сервер не найден"
// @Security BearerAuth
// @Router /servers/{serverID}/respawns/copy [post]
func (h *RespawnHandler) CopyRespawns(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.GetIdentityFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	targetServerID, err := getIDFromURL(r, "serverID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		SourceServerID int  `json:"source_server_id"`
		Overwrite      bool `json:"overwrite"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.respawnService.CopyRespawns(r.Context(), caller, input.SourceServerID, targetServerID, input.Overwrite)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

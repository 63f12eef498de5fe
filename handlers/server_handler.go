package handlers

import (
	"net/http"

	"github.com/Dosada05/hunt-reservation/middleware"
	"github.com/Dosada05/hunt-reservation/services"
)

type ServerHandler struct {
	serverService services.ServerService
}

func NewServerHandler(serverService services.ServerService) *ServerHandler {
	return &ServerHandler{serverService: serverService}
}

func (h *ServerHandler) CreateServer(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.GetIdentityFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.CreateServerInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	server, err := h.serverService.Create(r.Context(), caller, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"server": server}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ServerHandler) GetServerByID(w http.ResponseWriter, r *http.Request) {
	serverID, err := getIDFromURL(r, "serverID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	server, err := h.serverService.GetByID(r.Context(), serverID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"server": server}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ServerHandler) ListServers(w http.ResponseWriter, r *http.Request) {
	servers, err := h.serverService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"servers": servers}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ServerHandler) UpdateServer(w http.ResponseWriter, r *http.Request) {
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

	var input services.CreateServerInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	server, err := h.serverService.Update(r.Context(), caller, serverID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"server": server}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ServerHandler) DeleteServer(w http.ResponseWriter, r *http.Request) {
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

	if err := h.serverService.Delete(r.Context(), caller, serverID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

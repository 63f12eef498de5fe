package handlers

import (
	"net/http"

	"github.com/Dosada05/hunt-reservation/middleware"
	"github.com/Dosada05/hunt-reservation/services"
)

type SlotHandler struct {
	slotService services.SlotService
}

func NewSlotHandler(slotService services.SlotService) *SlotHandler {
	return &SlotHandler{slotService: slotService}
}

func (h *SlotHandler) CreateSlot(w http.ResponseWriter, r *http.Request) {
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

	var input services.CreateSlotInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	slot, err := h.slotService.Create(r.Context(), caller, serverID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"slot": slot}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SlotHandler) ListSlotsByServer(w http.ResponseWriter, r *http.Request) {
	serverID, err := getIDFromURL(r, "serverID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	slots, err := h.slotService.ListByServer(r.Context(), serverID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"slots": slots}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SlotHandler) UpdateSlot(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.GetIdentityFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	slotID, err := getIDFromURL(r, "slotID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CreateSlotInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	slot, err := h.slotService.Update(r.Context(), caller, slotID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"slot": slot}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SlotHandler) DeleteSlot(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.GetIdentityFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	slotID, err := getIDFromURL(r, "slotID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.slotService.Delete(r.Context(), caller, slotID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

package handlers

import (
	"net/http"

	"github.com/Dosada05/hunt-reservation/middleware"
	"github.com/Dosada05/hunt-reservation/services"
)

type DifficultyHandler struct {
	difficultyService services.DifficultyService
}

func NewDifficultyHandler(difficultyService services.DifficultyService) *DifficultyHandler {
	return &DifficultyHandler{difficultyService: difficultyService}
}

func (h *DifficultyHandler) CreateDifficulty(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.GetIdentityFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.CreateDifficultyInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	difficulty, err := h.difficultyService.Create(r.Context(), caller, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"difficulty": difficulty}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *DifficultyHandler) ListDifficulties(w http.ResponseWriter, r *http.Request) {
	difficulties, err := h.difficultyService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"difficulties": difficulties}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *DifficultyHandler) UpdateDifficulty(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.GetIdentityFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	difficultyID, err := getIDFromURL(r, "difficultyID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CreateDifficultyInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	difficulty, err := h.difficultyService.Update(r.Context(), caller, difficultyID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"difficulty": difficulty}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *DifficultyHandler) DeleteDifficulty(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.GetIdentityFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	difficultyID, err := getIDFromURL(r, "difficultyID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.difficultyService.Delete(r.Context(), caller, difficultyID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

package handlers

import (
	"net/http"

	"github.com/Dosada05/hunt-reservation/middleware"
	"github.com/Dosada05/hunt-reservation/services"
)

type PeriodHandler struct {
	periodService services.PeriodService
}

func NewPeriodHandler(periodService services.PeriodService) *PeriodHandler {
	return &PeriodHandler{periodService: periodService}
}

func (h *PeriodHandler) CreatePeriod(w http.ResponseWriter, r *http.Request) {
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

	var input services.CreatePeriodInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	period, err := h.periodService.Create(r.Context(), caller, serverID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"period": period}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PeriodHandler) ListPeriodsByServer(w http.ResponseWriter, r *http.Request) {
	serverID, err := getIDFromURL(r, "serverID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	onlyActive := r.URL.Query().Get("active") == "true"

	periods, err := h.periodService.ListByServer(r.Context(), serverID, onlyActive)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"periods": periods}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PeriodHandler) UpdatePeriod(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.GetIdentityFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	periodID, err := getIDFromURL(r, "periodID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CreatePeriodInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	period, err := h.periodService.Update(r.Context(), caller, periodID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"period": period}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PeriodHandler) ActivatePeriod(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.GetIdentityFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	periodID, err := getIDFromURL(r, "periodID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	period, err := h.periodService.Activate(r.Context(), caller, periodID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"period": period}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PeriodHandler) DeletePeriod(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.GetIdentityFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	periodID, err := getIDFromURL(r, "periodID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.periodService.Delete(r.Context(), caller, periodID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

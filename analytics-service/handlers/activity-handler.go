package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"taskhub/analytics-service/models"
	"taskhub/analytics-service/services"

	"github.com/gorilla/mux"
)

type ActivityHandler struct {
	service *services.ActivityService
}

func NewActivityHandler(service *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{service: service}
}

func parseLimit(r *http.Request) int64 {
	limit, err := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	if err != nil {
		return 0
	}
	return limit
}

func (h *ActivityHandler) RecordActivity(w http.ResponseWriter, r *http.Request) {
	var req services.RecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	entry, err := h.service.RecordActivity(r.Context(), req)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(entry)
}

func (h *ActivityHandler) GetActivityByTeam(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.GetActivityByTeam(r.Context(), mux.Vars(r)["teamId"], parseLimit(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

func (h *ActivityHandler) GetActivityByUser(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.GetActivityByUser(r.Context(), mux.Vars(r)["userId"], parseLimit(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

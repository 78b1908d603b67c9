package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"taskhub/logging"
	"taskhub/notifications-service/models"
	"taskhub/notifications-service/services"

	"github.com/gorilla/mux"
)

type NotificationHandler struct {
	service *services.NotificationService
}

func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotificationNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, models.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *NotificationHandler) CreateNotification(w http.ResponseWriter, r *http.Request) {
	var req services.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	notification, err := h.service.CreateNotification(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(notification)
}

func (h *NotificationHandler) GetNotificationsByUser(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.service.GetNotificationsByUser(mux.Vars(r)["userId"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(notifications)
}

func (h *NotificationHandler) GetUnreadByUser(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.service.GetUnreadByUser(mux.Vars(r)["userId"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(notifications)
}

type readRequest struct {
	UserID         string    `json:"userId"`
	NotificationID string    `json:"notificationId"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (h *NotificationHandler) MarkNotificationAsRead(w http.ResponseWriter, r *http.Request) {
	var req readRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if err := h.service.MarkNotificationAsRead(req.UserID, req.NotificationID, req.CreatedAt); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "Notification marked as read"}`))
}

func (h *NotificationHandler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	if err := h.service.MarkAllAsRead(mux.Vars(r)["userId"]); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "All notifications marked as read"}`))
}

type deleteRequest struct {
	UserID         string                `json:"userId"`
	NotificationID string                `json:"notificationId"`
	CreatedAt      time.Time             `json:"createdAt"`
	ReferenceModel models.ReferenceModel `json:"referenceModel"`
	ReferenceID    string                `json:"referenceId"`
}

func (h *NotificationHandler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteNotification(req.UserID, req.NotificationID, req.CreatedAt, req.ReferenceModel, req.ReferenceID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "Notification deleted successfully"}`))
}

// DeleteByReferenceHandler serves the cascade coordinators: it removes every
// notification referencing the deleted entity.
func (h *NotificationHandler) DeleteByReferenceHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	referenceModel := models.ReferenceModel(vars["model"])
	referenceID := vars["referenceId"]

	deleted, err := h.service.DeleteByReference(referenceModel, referenceID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	logging.Logger.Infof("Event ID: NOTIFICATIONS_CASCADE_DELETED, Description: Deleted %d notifications referencing %s %s", deleted, referenceModel, referenceID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int64{"deletedCount": deleted})
}

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"taskhub/teams-service/models"
	"taskhub/teams-service/services"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TeamHandler struct {
	service *services.TeamService
}

func NewTeamHandler(service *services.TeamService) *TeamHandler {
	return &TeamHandler{service: service}
}

func checkRole(r *http.Request, allowedRoles []string) error {
	userRole := r.Header.Get("Role")
	if userRole == "" {
		return fmt.Errorf("role is missing in request header")
	}
	for _, role := range allowedRoles {
		if role == userRole {
			return nil
		}
	}
	return fmt.Errorf("access forbidden: user does not have the required role")
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrTeamNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, models.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, models.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func teamIDFromPath(r *http.Request) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(mux.Vars(r)["teamId"])
}

func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"leader", "member"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	var team models.Team
	if err := json.NewDecoder(r.Body).Decode(&team); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	created, err := h.service.CreateTeam(r.Context(), team, r.Header.Get("X-User-ID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

func (h *TeamHandler) GetAllTeams(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"leader", "member"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	teams, err := h.service.GetAllTeams(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(teams)
}

func (h *TeamHandler) GetTeamByID(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"leader", "member"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	teamID, err := teamIDFromPath(r)
	if err != nil {
		http.Error(w, "Invalid team ID format", http.StatusBadRequest)
		return
	}

	team, err := h.service.GetTeamByID(r.Context(), teamID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(team)
}

func (h *TeamHandler) AddMembers(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"leader"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	teamID, err := teamIDFromPath(r)
	if err != nil {
		http.Error(w, "Invalid team ID format", http.StatusBadRequest)
		return
	}

	var members []models.Member
	if err := json.NewDecoder(r.Body).Decode(&members); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if err := h.service.AddMembers(r.Context(), teamID, members, r.Header.Get("X-User-ID")); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "Members added successfully"}`))
}

func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"leader"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	teamID, err := teamIDFromPath(r)
	if err != nil {
		http.Error(w, "Invalid team ID format", http.StatusBadRequest)
		return
	}

	if err := h.service.RemoveMember(r.Context(), teamID, mux.Vars(r)["userId"], r.Header.Get("X-User-ID")); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "Member removed from team successfully"}`))
}

func (h *TeamHandler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"leader"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	teamID, err := teamIDFromPath(r)
	if err != nil {
		http.Error(w, "Invalid team ID format", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteTeam(r.Context(), teamID, r.Header.Get("X-User-ID")); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "Team deleted successfully"}`))
}

// UnassignMemberTasksHandler is the internal-only bulk unassignment trigger
// for a removed member's remaining task assignments.
func (h *TeamHandler) UnassignMemberTasksHandler(w http.ResponseWriter, r *http.Request) {
	teamID, err := teamIDFromPath(r)
	if err != nil {
		http.Error(w, "Invalid team ID format", http.StatusBadRequest)
		return
	}

	modified, err := h.service.UnassignMemberTasks(r.Context(), teamID, mux.Vars(r)["userId"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int64{"modifiedCount": modified})
}

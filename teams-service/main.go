package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"taskhub/config"
	"taskhub/logging"
	"taskhub/teams-service/handlers"
	"taskhub/teams-service/services"
	"taskhub/utils"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Role, X-User-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logging.InitLogger("teams-service", cfg.LogDir)
	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Teams Service...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	teamsClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection for MongoDB failed: %v", err)
	}
	defer teamsClient.Disconnect(ctx)

	if err := teamsClient.Ping(ctx, nil); err != nil {
		logging.Logger.Fatalf("Event ID: DB_PING_FAILED, Description: MongoDB connection ping error: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB at %s.", cfg.Mongo.URI)

	teamsCollection := teamsClient.Database(cfg.Mongo.Database).Collection("teams")

	projectsClient := services.NewProjectsClient(utils.NewServiceClient(
		"projects-cb", cfg.Collaborators.Projects.BaseURL, cfg.Collaborators.Projects.Timeout, cfg.InternalSecret))
	tasksClient := services.NewTasksClient(utils.NewServiceClient(
		"tasks-cb", cfg.Collaborators.Tasks.BaseURL, cfg.Collaborators.Tasks.Timeout, cfg.InternalSecret))
	notificationsClient := services.NewNotificationsClient(utils.NewServiceClient(
		"notifications-cb", cfg.Collaborators.Notifications.BaseURL, cfg.Collaborators.Notifications.Timeout, cfg.InternalSecret))
	activityClient := services.NewActivityClient(utils.NewServiceClient(
		"analytics-cb", cfg.Collaborators.Analytics.BaseURL, cfg.Collaborators.Analytics.Timeout, cfg.InternalSecret))

	teamService := services.NewTeamService(teamsCollection, projectsClient, tasksClient, notificationsClient, activityClient)
	teamHandler := handlers.NewTeamHandler(teamService)

	r := mux.NewRouter()

	r.HandleFunc("/api/teams", teamHandler.CreateTeam).Methods(http.MethodPost)
	r.HandleFunc("/api/teams", teamHandler.GetAllTeams).Methods(http.MethodGet)
	r.HandleFunc("/api/teams/{teamId}", teamHandler.GetTeamByID).Methods(http.MethodGet)
	r.HandleFunc("/api/teams/{teamId}", teamHandler.DeleteTeam).Methods(http.MethodDelete)
	r.HandleFunc("/api/teams/{teamId}/members", teamHandler.AddMembers).Methods(http.MethodPost)
	r.HandleFunc("/api/teams/{teamId}/members/{userId}", teamHandler.RemoveMember).Methods(http.MethodDelete)

	r.HandleFunc("/internal/teams/{teamId}/unassign/{userId}", utils.RequireInternalAuth(cfg.InternalSecret, teamHandler.UnassignMemberTasksHandler)).Methods(http.MethodPatch)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Teams service is running"))
	}).Methods(http.MethodGet)

	corsRouter := enableCORS(r)

	serverAddress := fmt.Sprintf(":%d", cfg.Server.Port)
	logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", serverAddress)

	if err := http.ListenAndServe(serverAddress, corsRouter); err != nil {
		logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
	}
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"taskhub/config"
	"taskhub/logging"
	"taskhub/projects-service/handlers"
	"taskhub/projects-service/services"
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

	logging.InitLogger("projects-service", cfg.LogDir)
	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Projects Service...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	projectsClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection for MongoDB failed: %v", err)
	}
	defer projectsClient.Disconnect(ctx)

	if err := projectsClient.Ping(ctx, nil); err != nil {
		logging.Logger.Fatalf("Event ID: DB_PING_FAILED, Description: MongoDB connection ping error: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB at %s.", cfg.Mongo.URI)

	projectsCollection := projectsClient.Database(cfg.Mongo.Database).Collection("projects")

	tasksClient := services.NewTasksClient(utils.NewServiceClient(
		"tasks-cb", cfg.Collaborators.Tasks.BaseURL, cfg.Collaborators.Tasks.Timeout, cfg.InternalSecret))
	notificationsClient := services.NewNotificationsClient(utils.NewServiceClient(
		"notifications-cb", cfg.Collaborators.Notifications.BaseURL, cfg.Collaborators.Notifications.Timeout, cfg.InternalSecret))

	projectService := services.NewProjectService(projectsCollection, tasksClient, notificationsClient)
	projectHandler := handlers.NewProjectHandler(projectService)

	r := mux.NewRouter()

	r.HandleFunc("/api/projects", projectHandler.CreateProject).Methods(http.MethodPost)
	r.HandleFunc("/api/projects", projectHandler.GetAllProjects).Methods(http.MethodGet)
	r.HandleFunc("/api/projects/{projectId}", projectHandler.GetProjectByID).Methods(http.MethodGet)
	r.HandleFunc("/api/projects/{projectId}", projectHandler.UpdateProject).Methods(http.MethodPatch)
	r.HandleFunc("/api/projects/{projectId}", projectHandler.DeleteProject).Methods(http.MethodDelete)
	r.HandleFunc("/api/projects/team/{teamId}", projectHandler.GetProjectsByTeam).Methods(http.MethodGet)

	r.HandleFunc("/internal/projects", utils.RequireInternalAuth(cfg.InternalSecret, projectHandler.GetAllProjectsInternal)).Methods(http.MethodGet)
	r.HandleFunc("/internal/projects/{projectId}/team", utils.RequireInternalAuth(cfg.InternalSecret, projectHandler.GetProjectTeamInternal)).Methods(http.MethodGet)
	r.HandleFunc("/internal/projects/{projectId}/progress", utils.RequireInternalAuth(cfg.InternalSecret, projectHandler.UpdateProgressInternal)).Methods(http.MethodPatch)
	r.HandleFunc("/internal/projects/team/{teamId}", utils.RequireInternalAuth(cfg.InternalSecret, projectHandler.GetProjectsByTeamInternal)).Methods(http.MethodGet)
	r.HandleFunc("/internal/projects/team/{teamId}", utils.RequireInternalAuth(cfg.InternalSecret, projectHandler.DeleteProjectsByTeamHandler)).Methods(http.MethodDelete)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Projects service is running"))
	}).Methods(http.MethodGet)

	corsRouter := enableCORS(r)

	serverAddress := fmt.Sprintf(":%d", cfg.Server.Port)
	logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", serverAddress)

	if err := http.ListenAndServe(serverAddress, corsRouter); err != nil {
		logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
	}
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"taskhub/config"
	"taskhub/logging"
	"taskhub/tasks-service/handlers"
	"taskhub/tasks-service/services"
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

	logging.InitLogger("tasks-service", cfg.LogDir)
	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Tasks Service...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tasksClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection for MongoDB failed: %v", err)
	}
	defer tasksClient.Disconnect(ctx)

	if err := tasksClient.Ping(ctx, nil); err != nil {
		logging.Logger.Fatalf("Event ID: DB_PING_FAILED, Description: MongoDB connection ping error: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB at %s.", cfg.Mongo.URI)

	tasksCollection := tasksClient.Database(cfg.Mongo.Database).Collection("tasks")

	projectsClient := services.NewProjectsClient(utils.NewServiceClient(
		"projects-cb", cfg.Collaborators.Projects.BaseURL, cfg.Collaborators.Projects.Timeout, cfg.InternalSecret))
	notificationsClient := services.NewNotificationsClient(utils.NewServiceClient(
		"notifications-cb", cfg.Collaborators.Notifications.BaseURL, cfg.Collaborators.Notifications.Timeout, cfg.InternalSecret))
	activityClient := services.NewActivityClient(utils.NewServiceClient(
		"analytics-cb", cfg.Collaborators.Analytics.BaseURL, cfg.Collaborators.Analytics.Timeout, cfg.InternalSecret))

	taskService := services.NewTaskService(tasksCollection, projectsClient, notificationsClient, activityClient)
	taskHandler := handlers.NewTaskHandler(taskService)

	r := mux.NewRouter()

	r.HandleFunc("/api/tasks", taskHandler.CreateTask).Methods(http.MethodPost)
	r.HandleFunc("/api/tasks", taskHandler.GetAllTasks).Methods(http.MethodGet)
	r.HandleFunc("/api/tasks/{taskID}", taskHandler.GetTaskByID).Methods(http.MethodGet)
	r.HandleFunc("/api/tasks/{taskID}", taskHandler.UpdateTask).Methods(http.MethodPatch)
	r.HandleFunc("/api/tasks/{taskID}", taskHandler.DeleteTask).Methods(http.MethodDelete)
	r.HandleFunc("/api/tasks/project/{projectId}", taskHandler.GetTasksByProjectID).Methods(http.MethodGet)

	r.HandleFunc("/internal/tasks", utils.RequireInternalAuth(cfg.InternalSecret, taskHandler.GetAllTasksInternal)).Methods(http.MethodGet)
	r.HandleFunc("/internal/tasks/project/{projectId}", utils.RequireInternalAuth(cfg.InternalSecret, taskHandler.GetTasksByProjectInternal)).Methods(http.MethodGet)
	r.HandleFunc("/internal/tasks/project/{projectId}", utils.RequireInternalAuth(cfg.InternalSecret, taskHandler.DeleteTasksByProjectHandler)).Methods(http.MethodDelete)
	r.HandleFunc("/internal/tasks/unassign/{userId}", utils.RequireInternalAuth(cfg.InternalSecret, taskHandler.UnassignUserHandler)).Methods(http.MethodPatch)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Tasks service is running"))
	}).Methods(http.MethodGet)

	corsRouter := enableCORS(r)

	serverAddress := fmt.Sprintf(":%d", cfg.Server.Port)
	logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", serverAddress)

	if err := http.ListenAndServe(serverAddress, corsRouter); err != nil {
		logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
	}
}

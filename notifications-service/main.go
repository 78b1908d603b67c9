package main

import (
	"fmt"
	"net/http"

	"taskhub/config"
	"taskhub/logging"
	"taskhub/notifications-service/handlers"
	"taskhub/notifications-service/repositories"
	"taskhub/notifications-service/services"
	"taskhub/utils"

	"github.com/gorilla/mux"
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

	logging.InitLogger("notifications-service", cfg.LogDir)
	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Notifications Service...")

	repo, err := repositories.NewNotificationRepo(cfg.Cassandra.Hosts, cfg.Cassandra.Keyspace)
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection for Cassandra failed: %v", err)
	}
	defer repo.CloseSession()

	if err := repo.CreateTables(); err != nil {
		logging.Logger.Fatalf("Event ID: DB_INIT_FAILED, Description: Failed to create Cassandra tables: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to Cassandra keyspace %s.", cfg.Cassandra.Keyspace)

	usersClient := services.NewUsersClient(utils.NewServiceClient(
		"users-cb", cfg.Collaborators.Users.BaseURL, cfg.Collaborators.Users.Timeout, cfg.InternalSecret))
	mailer := services.NewSMTPMailer(cfg.SMTP)

	notificationService := services.NewNotificationService(repo, usersClient, mailer)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	r := mux.NewRouter()

	r.HandleFunc("/api/notifications", utils.RequireInternalAuth(cfg.InternalSecret, notificationHandler.CreateNotification)).Methods(http.MethodPost)
	r.HandleFunc("/api/notifications/user/{userId}", notificationHandler.GetNotificationsByUser).Methods(http.MethodGet)
	r.HandleFunc("/api/notifications/user/{userId}/unread", notificationHandler.GetUnreadByUser).Methods(http.MethodGet)
	r.HandleFunc("/api/notifications/read", notificationHandler.MarkNotificationAsRead).Methods(http.MethodPut)
	r.HandleFunc("/api/notifications/read-all/{userId}", notificationHandler.MarkAllAsRead).Methods(http.MethodPut)
	r.HandleFunc("/api/notifications", notificationHandler.DeleteNotification).Methods(http.MethodDelete)

	r.HandleFunc("/internal/notifications/reference/{model}/{referenceId}",
		utils.RequireInternalAuth(cfg.InternalSecret, notificationHandler.DeleteByReferenceHandler)).Methods(http.MethodDelete)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Notifications service is running"))
	}).Methods(http.MethodGet)

	corsRouter := enableCORS(r)

	serverAddress := fmt.Sprintf(":%d", cfg.Server.Port)
	logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", serverAddress)

	if err := http.ListenAndServe(serverAddress, corsRouter); err != nil {
		logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
	}
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"taskhub/config"
	"taskhub/logging"
	"taskhub/users-service/handlers"
	"taskhub/users-service/services"
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

	logging.InitLogger("users-service", cfg.LogDir)
	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Users Service...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	usersClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection for MongoDB failed: %v", err)
	}
	defer usersClient.Disconnect(ctx)

	if err := usersClient.Ping(ctx, nil); err != nil {
		logging.Logger.Fatalf("Event ID: DB_PING_FAILED, Description: MongoDB connection ping error: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB at %s.", cfg.Mongo.URI)

	userCollection := usersClient.Database(cfg.Mongo.Database).Collection("users")

	userService := services.NewUserService(userCollection)
	if err := userService.EnsureIndexes(ctx); err != nil {
		logging.Logger.Fatalf("Event ID: DB_INIT_FAILED, Description: Failed to create user indexes: %v", err)
	}

	userHandler := handlers.NewUserHandler(userService)

	r := mux.NewRouter()

	r.HandleFunc("/api/users", userHandler.CreateUser).Methods(http.MethodPost)
	r.HandleFunc("/api/users/search", userHandler.GetUserByEmail).Methods(http.MethodGet)
	r.HandleFunc("/api/users/{userId}", userHandler.GetUserByID).Methods(http.MethodGet)

	r.HandleFunc("/internal/users/batch", utils.RequireInternalAuth(cfg.InternalSecret, userHandler.BatchGetUsers)).Methods(http.MethodPost)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Users service is running"))
	}).Methods(http.MethodGet)

	corsRouter := enableCORS(r)

	serverAddress := fmt.Sprintf(":%d", cfg.Server.Port)
	logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", serverAddress)

	if err := http.ListenAndServe(serverAddress, corsRouter); err != nil {
		logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
	}
}

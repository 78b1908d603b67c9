package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"taskhub/config"
	"taskhub/logging"
	"taskhub/reminders-service/services"
	"taskhub/utils"

	"github.com/robfig/cron/v3"
)

const scanTimeout = 2 * time.Minute

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logging.InitLogger("reminders-service", cfg.LogDir)
	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Reminders Service...")

	location, err := time.LoadLocation(cfg.Reminder.Timezone)
	if err != nil {
		logging.Logger.Fatalf("Event ID: CONFIG_INVALID, Description: Unknown timezone %q: %v", cfg.Reminder.Timezone, err)
	}

	tasksClient := services.NewTasksClient(utils.NewServiceClient(
		"tasks-cb", cfg.Collaborators.Tasks.BaseURL, cfg.Collaborators.Tasks.Timeout, cfg.InternalSecret))
	projectsClient := services.NewProjectsClient(utils.NewServiceClient(
		"projects-cb", cfg.Collaborators.Projects.BaseURL, cfg.Collaborators.Projects.Timeout, cfg.InternalSecret))
	usersClient := services.NewUsersClient(utils.NewServiceClient(
		"users-cb", cfg.Collaborators.Users.BaseURL, cfg.Collaborators.Users.Timeout, cfg.InternalSecret))
	notificationsClient := services.NewNotificationsClient(utils.NewServiceClient(
		"notifications-cb", cfg.Collaborators.Notifications.BaseURL, cfg.Collaborators.Notifications.Timeout, cfg.InternalSecret))

	scanner := services.NewReminderScanner(tasksClient, projectsClient, usersClient, notificationsClient, cfg.Reminder)

	scheduler := cron.New(cron.WithLocation(location))
	schedule := fmt.Sprintf("%d %d * * *", cfg.Reminder.Minute, cfg.Reminder.Hour)
	if _, err := scheduler.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
		defer cancel()
		scanner.Run(ctx, time.Now().In(location))
	}); err != nil {
		logging.Logger.Fatalf("Event ID: SCHEDULER_INIT_FAILED, Description: Failed to register deadline scan: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	logging.Logger.Infof("Event ID: SCHEDULER_STARTED, Description: Deadline scan scheduled daily at %02d:%02d %s", cfg.Reminder.Hour, cfg.Reminder.Minute, cfg.Reminder.Timezone)

	r := http.NewServeMux()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Reminders service is running"))
	})

	serverAddress := fmt.Sprintf(":%d", cfg.Server.Port)
	logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", serverAddress)

	if err := http.ListenAndServe(serverAddress, r); err != nil {
		logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
	}
}

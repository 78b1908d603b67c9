package services

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"taskhub/config"
	"taskhub/logging"
	"taskhub/reminders-service/models"
)

const dispatchTimeout = 5 * time.Second

type taskSource interface {
	GetAllTasks(ctx context.Context) ([]models.TaskSnapshot, error)
}

type projectSource interface {
	GetAllProjects(ctx context.Context) ([]models.ProjectSnapshot, error)
}

type userDirectory interface {
	BatchGetUsers(ctx context.Context, ids []string) (map[string]UserRecord, error)
}

type notifier interface {
	CreateNotification(ctx context.Context, req NotificationRequest) error
}

// ReminderScanner is the daily deadline scan. Each run pulls the full task
// and project sets, keeps the items whose deadline falls inside the
// configured windows, and emits one DEADLINE notification per surviving
// item. An item still in-window on the next run is notified again.
type ReminderScanner struct {
	tasks             taskSource
	projects          projectSource
	users             userDirectory
	notifications     notifier
	taskWindowDays    int
	projectWindowDays int
}

func NewReminderScanner(tasks *TasksClient, projects *ProjectsClient, users *UsersClient, notifications *NotificationsClient, cfg config.ReminderConfig) *ReminderScanner {
	return &ReminderScanner{
		tasks:             tasks,
		projects:          projects,
		users:             users,
		notifications:     notifications,
		taskWindowDays:    cfg.TaskWindowDays,
		projectWindowDays: cfg.ProjectWindowDays,
	}
}

// DaysRemaining reports the whole calendar days between now and the
// deadline, in now's timezone. A deadline later today is 0 days away.
// The midnight-to-midnight span is rounded, not truncated: a DST
// transition makes one day 23 or 25 hours long, so truncation would
// shift every deadline across that boundary by a day.
func DaysRemaining(now, deadline time.Time) int {
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	d := deadline.In(loc)
	dueDay := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return int(math.Round(dueDay.Sub(today).Hours() / 24))
}

// DueTasks keeps the tasks whose due date falls within windowDays from now.
// Tasks without a due date, already done, or unassigned are skipped.
func DueTasks(tasks []models.TaskSnapshot, now time.Time, windowDays int) []models.TaskSnapshot {
	var due []models.TaskSnapshot
	for _, task := range tasks {
		if task.DueDate == nil || task.Status == models.StatusDone || task.AssignedTo == "" {
			continue
		}
		if days := DaysRemaining(now, *task.DueDate); days >= 0 && days <= windowDays {
			due = append(due, task)
		}
	}
	return due
}

// DueProjects keeps the projects whose end date falls within windowDays from
// now. Completed projects and those without an owner are skipped.
func DueProjects(projects []models.ProjectSnapshot, now time.Time, windowDays int) []models.ProjectSnapshot {
	var due []models.ProjectSnapshot
	for _, project := range projects {
		if project.Progress == 100 || project.CreatedBy == "" {
			continue
		}
		if days := DaysRemaining(now, project.EndDate); days >= 0 && days <= windowDays {
			due = append(due, project)
		}
	}
	return due
}

func dueMessage(kind, name string, days int) string {
	switch days {
	case 0:
		return fmt.Sprintf("%s %q is due today", kind, name)
	case 1:
		return fmt.Sprintf("%s %q is due tomorrow", kind, name)
	default:
		return fmt.Sprintf("%s %q is due in %d days", kind, name, days)
	}
}

// Run executes one scan relative to now. Partial failures are logged and
// never abort the remaining items.
func (s *ReminderScanner) Run(ctx context.Context, now time.Time) {
	logging.Logger.Info("Event ID: REMINDER_SCAN_START, Description: Starting deadline scan...")

	tasks, err := s.tasks.GetAllTasks(ctx)
	if err != nil {
		logging.Logger.Warnf("Event ID: REMINDER_FETCH_FAILED, Description: Failed to fetch tasks: %v", err)
	}
	projects, err := s.projects.GetAllProjects(ctx)
	if err != nil {
		logging.Logger.Warnf("Event ID: REMINDER_FETCH_FAILED, Description: Failed to fetch projects: %v", err)
	}

	dueTasks := DueTasks(tasks, now, s.taskWindowDays)
	dueProjects := DueProjects(projects, now, s.projectWindowDays)
	if len(dueTasks) == 0 && len(dueProjects) == 0 {
		logging.Logger.Info("Event ID: REMINDER_SCAN_DONE, Description: No approaching deadlines found")
		return
	}

	userIDs := map[string]struct{}{}
	for _, task := range dueTasks {
		userIDs[task.AssignedTo] = struct{}{}
	}
	for _, project := range dueProjects {
		userIDs[project.CreatedBy] = struct{}{}
	}
	ids := make([]string, 0, len(userIDs))
	for id := range userIDs {
		ids = append(ids, id)
	}

	users, err := s.users.BatchGetUsers(ctx, ids)
	if err != nil {
		logging.Logger.Warnf("Event ID: USER_LOOKUP_FAILED, Description: Failed to resolve %d users, reminders proceed without mail: %v", len(ids), err)
		users = map[string]UserRecord{}
	}

	var wg sync.WaitGroup
	for _, task := range dueTasks {
		wg.Add(1)
		go func(task models.TaskSnapshot) {
			defer wg.Done()
			s.dispatch(NotificationRequest{
				UserID:         task.AssignedTo,
				ReferenceID:    task.ID,
				ReferenceModel: "Task",
				Type:           "DEADLINE",
				Message:        dueMessage("Task", task.Title, DaysRemaining(now, *task.DueDate)),
				ShouldSendMail: users[task.AssignedTo].Email != "",
			})
		}(task)
	}
	for _, project := range dueProjects {
		wg.Add(1)
		go func(project models.ProjectSnapshot) {
			defer wg.Done()
			s.dispatch(NotificationRequest{
				UserID:         project.CreatedBy,
				ReferenceID:    project.ID,
				ReferenceModel: "Project",
				Type:           "DEADLINE",
				Message:        dueMessage("Project", project.Name, DaysRemaining(now, project.EndDate)),
				ShouldSendMail: users[project.CreatedBy].Email != "",
			})
		}(project)
	}
	wg.Wait()

	logging.Logger.Infof("Event ID: REMINDER_SCAN_DONE, Description: Dispatched reminders for %d tasks and %d projects", len(dueTasks), len(dueProjects))
}

func (s *ReminderScanner) dispatch(req NotificationRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	if err := s.notifications.CreateNotification(ctx, req); err != nil {
		logging.Logger.Warnf("Event ID: REMINDER_DISPATCH_FAILED, Description: Failed to create deadline notification for %s %s: %v", req.ReferenceModel, req.ReferenceID, err)
	}
}

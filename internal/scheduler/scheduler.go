package scheduler

import (
	"log"
	"os"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/lexibot/internal/database"
)

// DefaultReminderTime is when the daily study nudge goes out
const DefaultReminderTime = "09:00"

// Notifier interface for sending reminders
type Notifier interface {
	SendStudyReminder(chatID int64, day int) error
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
}

// New creates a new scheduler instance
func New(notifier Notifier) *Scheduler {
	s := gocron.NewScheduler(time.Local)
	return &Scheduler{
		scheduler: s,
		notifier:  notifier,
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() {
	at := os.Getenv("REMINDER_TIME")
	if at == "" {
		at = DefaultReminderTime
	}

	if _, err := s.scheduler.Every(1).Day().At(at).Do(s.sendStudyReminders); err != nil {
		log.Printf("Error scheduling daily reminder: %v", err)
		return
	}

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// sendStudyReminders nudges every known chat whose current day is not yet
// completed.
func (s *Scheduler) sendStudyReminders() {
	progressRepo := database.NewProgressRepository()

	chats, err := progressRepo.Chats()
	if err != nil {
		log.Printf("Error listing chats for reminders: %v", err)
		return
	}

	for _, chatID := range chats {
		ps := progressRepo.MustLoad(chatID)
		if ps.DayCompleted(ps.CurrentDay) {
			continue
		}
		if err := s.notifier.SendStudyReminder(chatID, ps.CurrentDay); err != nil {
			log.Printf("Error sending reminder to chat %d: %v", chatID, err)
		}
	}
}

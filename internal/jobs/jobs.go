package jobs

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// UploadsCleanupJobID names the job that prunes expired uploads.
const UploadsCleanupJobID = "uploads-cleanup"

// RegisterAll registers the standard background jobs with the manager.
func RegisterAll(m *Manager) {
	m.Register(UploadsCleanupJobID, "Uploads cleanup", runUploadsCleanup)
}

// StartScheduler starts the background job scheduler.
func StartScheduler(app JobContext) *gocron.Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	scheduleUploadsCleanup(s, app)

	log.Println("Starting background job scheduler...")
	s.StartAsync()
	return s
}

func scheduleUploadsCleanup(s *gocron.Scheduler, app JobContext) {
	hours := app.Config().Uploads.CleanupHours
	if hours == 0 {
		log.Println("Uploads cleanup interval is 0, scheduled cleanup is disabled.")
		return
	}

	log.Printf("Scheduling job: '%s' to run every %d hours.", UploadsCleanupJobID, hours)

	_, err := s.Every(hours).Hours().Do(func() {
		log.Println("Scheduler is triggering job:", UploadsCleanupJobID)
		// Submit the job to the manager instead of running it directly.
		// This prevents conflicts with manually triggered jobs.
		if err := app.JobManager().RunJob(UploadsCleanupJobID, app); err != nil {
			log.Printf("Scheduled job '%s' could not start: %v", UploadsCleanupJobID, err)
		}
	})
	if err != nil {
		log.Printf("Error scheduling '%s' job: %v", UploadsCleanupJobID, err)
	}
}

func runUploadsCleanup(ctx JobContext) {
	retention := time.Duration(ctx.Config().Uploads.RetentionDays) * 24 * time.Hour
	if retention <= 0 {
		return
	}

	removed, err := ctx.Uploads().CleanupOlderThan(retention)
	if err != nil {
		log.Printf("Uploads cleanup failed: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("Uploads cleanup removed %d expired files.", removed)
		ctx.WsHub().BroadcastJSON(map[string]string{"event": "uploads_changed"})
	}
}

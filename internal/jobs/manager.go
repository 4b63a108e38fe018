package jobs

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/aliveriver/ConvertAgent/internal/config"
	"github.com/aliveriver/ConvertAgent/internal/uploads"
	"github.com/aliveriver/ConvertAgent/internal/websocket"
)

// JobContext provides the dependencies a background job may need. The
// core.App struct implements this interface.
type JobContext interface {
	Config() *config.Config
	Uploads() *uploads.Service
	WsHub() *websocket.Hub
	JobManager() *Manager
}

type jobTask func(ctx JobContext)

type JobStatus struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"` // "idle", "running", "success", "failed"
	Message   string    `json:"message"`
	StartTime time.Time `json:"start_time,omitempty"`
	EndTime   time.Time `json:"end_time,omitempty"`
}

// Manager runs named background jobs one at a time and tracks their
// status for the jobs view.
type Manager struct {
	mu      sync.Mutex
	jobs    map[string]jobTask
	status  map[string]*JobStatus
	running bool
}

func NewManager() *Manager {
	return &Manager{
		jobs:   make(map[string]jobTask),
		status: make(map[string]*JobStatus),
	}
}

func (m *Manager) Register(id, name string, task jobTask) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[id] = task
	m.status[id] = &JobStatus{ID: id, Name: name, Status: "idle"}
}

// RunJob starts a registered job in the background. Only one job runs at
// a time; a second submission while one is running is rejected.
func (m *Manager) RunJob(id string, ctx JobContext) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("a job is already running")
	}

	task, ok := m.jobs[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("job '%s' not found", id)
	}

	m.running = true
	status := m.status[id]
	status.Status = "running"
	status.StartTime = time.Now()
	status.Message = "Job started..."
	m.mu.Unlock()

	log.Printf("Starting job: %s", id)
	go func() {
		defer func() {
			// Ensure we always update the status and unlock the manager
			if r := recover(); r != nil {
				log.Printf("Job '%s' panicked: %v", id, r)
				status.Status = "failed"
				status.Message = fmt.Sprintf("Job panicked: %v", r)
			}

			m.mu.Lock()
			status.EndTime = time.Now()
			if status.Status == "running" { // If not already set to "failed"
				status.Status = "success"
				status.Message = "Job completed successfully."
			}
			m.running = false
			m.mu.Unlock()
			log.Printf("Finished job: %s", id)
		}()

		task(ctx)
	}()
	return nil
}

func (m *Manager) GetStatus() []*JobStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	var statuses []*JobStatus
	for _, s := range m.status {
		statuses = append(statuses, s)
	}
	return statuses
}

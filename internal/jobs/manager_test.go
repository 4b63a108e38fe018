package jobs_test

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aliveriver/ConvertAgent/internal/config"
	"github.com/aliveriver/ConvertAgent/internal/jobs"
	"github.com/aliveriver/ConvertAgent/internal/uploads"
	"github.com/aliveriver/ConvertAgent/internal/websocket"
)

type fakeJobContext struct {
	cfg    *config.Config
	ups    *uploads.Service
	ws     *websocket.Hub
	jobMgr *jobs.Manager
}

func (f *fakeJobContext) Config() *config.Config    { return f.cfg }
func (f *fakeJobContext) Uploads() *uploads.Service { return f.ups }
func (f *fakeJobContext) WsHub() *websocket.Hub     { return f.ws }
func (f *fakeJobContext) JobManager() *jobs.Manager { return f.jobMgr }

func newFakeContext(t *testing.T) *fakeJobContext {
	t.Helper()
	ups, err := uploads.New(filepath.Join(t.TempDir(), "uploads"))
	if err != nil {
		t.Fatalf("Failed to create uploads service: %v", err)
	}
	hub := websocket.NewHub()
	go hub.Run()
	return &fakeJobContext{cfg: &config.Config{}, ups: ups, ws: hub}
}

func TestManager_RegisterAndGetStatus(t *testing.T) {
	mgr := jobs.NewManager()
	mgr.Register("jobA", "Job A", func(ctx jobs.JobContext) {})
	mgr.Register("jobB", "Job B", func(ctx jobs.JobContext) {})
	statuses := mgr.GetStatus()
	assert.Len(t, statuses, 2)
	var foundA, foundB bool
	for _, s := range statuses {
		if s.ID == "jobA" {
			foundA = true
		}
		if s.ID == "jobB" {
			foundB = true
		}
	}
	assert.True(t, foundA && foundB)
}

func TestManager_RunJob_SuccessAndStatus(t *testing.T) {
	ctx := newFakeContext(t)
	mgr := jobs.NewManager()
	ctx.jobMgr = mgr
	var called bool
	mgr.Register("jobX", "Job X", func(ctx jobs.JobContext) { called = true })
	err := mgr.RunJob("jobX", ctx)
	assert.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	assert.True(t, called)
	statuses := mgr.GetStatus()
	assert.Equal(t, "success", statuses[0].Status)
}

func TestManager_RunJob_AlreadyRunning(t *testing.T) {
	ctx := newFakeContext(t)
	mgr := jobs.NewManager()
	ctx.jobMgr = mgr
	block := make(chan struct{})
	mgr.Register("jobY", "Job Y", func(ctx jobs.JobContext) { <-block })
	_ = mgr.RunJob("jobY", ctx)
	err := mgr.RunJob("jobY", ctx)
	assert.Error(t, err)
	close(block)
}

func TestManager_RunJob_NotFound(t *testing.T) {
	mgr := jobs.NewManager()
	err := mgr.RunJob("nojob", newFakeContext(t))
	assert.Error(t, err)
}

func TestManager_RunJob_Panic(t *testing.T) {
	ctx := newFakeContext(t)
	mgr := jobs.NewManager()
	ctx.jobMgr = mgr
	mgr.Register("panicJob", "Panic Job", func(ctx jobs.JobContext) { panic("fail") })
	err := mgr.RunJob("panicJob", ctx)
	assert.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	statuses := mgr.GetStatus()
	assert.Equal(t, "failed", statuses[0].Status)
	assert.Contains(t, statuses[0].Message, "panicked")
}

func TestManager_Concurrency(t *testing.T) {
	ctx := newFakeContext(t)
	mgr := jobs.NewManager()
	ctx.jobMgr = mgr
	var mu sync.Mutex
	var count int
	mgr.Register("jobC", "Job C", func(ctx jobs.JobContext) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	wg := sync.WaitGroup{}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			_ = mgr.RunJob("jobC", ctx)
			wg.Done()
		}()
	}
	wg.Wait()
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, 1, count, "job should only run once concurrently")
	mu.Unlock()
}

func TestUploadsCleanupJob(t *testing.T) {
	ctx := newFakeContext(t)
	ctx.cfg.Uploads.RetentionDays = 1
	mgr := jobs.NewManager()
	ctx.jobMgr = mgr
	jobs.RegisterAll(mgr)

	expired, err := ctx.ups.Save(uploads.RoleFile, "stale.txt", strings.NewReader("x"))
	assert.NoError(t, err)
	past := time.Now().Add(-72 * time.Hour)
	assert.NoError(t, os.Chtimes(expired.Path, past, past))

	assert.NoError(t, mgr.RunJob(jobs.UploadsCleanupJobID, ctx))
	time.Sleep(100 * time.Millisecond)

	files, err := ctx.ups.List()
	assert.NoError(t, err)
	assert.Empty(t, files)
}

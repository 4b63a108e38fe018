package store_test

import (
	"testing"
	"time"

	"github.com/aliveriver/ConvertAgent/internal/models"
	"github.com/aliveriver/ConvertAgent/internal/store"
	"github.com/aliveriver/ConvertAgent/internal/testutil"
	"github.com/google/uuid"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(testutil.SetupTestDB(t))
}

func newJob() *models.JobRecord {
	return &models.JobRecord{
		ID:           uuid.New().String(),
		TemplateName: "template.docx",
		ContentName:  "content.md",
		OutputFormat: "word",
		Instruction:  "keep figures",
	}
}

func TestCreateAndGetJob(t *testing.T) {
	st := newTestStore(t)

	job := newJob()
	if err := st.CreateJob(job); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	got, err := st.GetJob(job.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if got.TemplateName != "template.docx" || got.OutputFormat != "word" {
		t.Errorf("Unexpected job: %+v", got)
	}
	if got.Status != models.JobStatusQueued {
		t.Errorf("Expected queued status by default, got %s", got.Status)
	}
	if got.FinishedAt != nil {
		t.Error("New job should not have a finish time")
	}
}

func TestFinishJob(t *testing.T) {
	st := newTestStore(t)

	job := newJob()
	st.CreateJob(job)

	err := st.FinishJob(job.ID, models.JobStatusCompleted, "converted 5 pages", "/files/out.docx")
	if err != nil {
		t.Fatalf("FinishJob failed: %v", err)
	}

	got, _ := st.GetJob(job.ID)
	if got.Status != models.JobStatusCompleted {
		t.Errorf("Expected completed, got %s", got.Status)
	}
	if got.ResultFileLink != "/files/out.docx" {
		t.Errorf("Expected result link, got %q", got.ResultFileLink)
	}
	if got.FinishedAt == nil {
		t.Error("Finished job should have a finish time")
	}
}

func TestFinishUnknownJob(t *testing.T) {
	st := newTestStore(t)
	err := st.FinishJob("no-such-id", models.JobStatusFailed, "", "")
	if err != store.ErrJobNotFound {
		t.Errorf("Expected ErrJobNotFound, got %v", err)
	}
}

func TestListJobsNewestFirst(t *testing.T) {
	st := newTestStore(t)

	older := newJob()
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := newJob()

	st.CreateJob(older)
	st.CreateJob(newer)

	jobs, err := st.ListJobs(10)
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("Expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].ID != newer.ID {
		t.Errorf("Expected newest job first, got %s", jobs[0].ID)
	}
}

func TestDeleteJob(t *testing.T) {
	st := newTestStore(t)

	job := newJob()
	st.CreateJob(job)

	if err := st.DeleteJob(job.ID); err != nil {
		t.Fatalf("DeleteJob failed: %v", err)
	}
	if _, err := st.GetJob(job.ID); err != store.ErrJobNotFound {
		t.Errorf("Expected the job to be gone, got %v", err)
	}
	if err := st.DeleteJob(job.ID); err != store.ErrJobNotFound {
		t.Errorf("Expected ErrJobNotFound on double delete, got %v", err)
	}
}

func TestSettings(t *testing.T) {
	st := newTestStore(t)

	val, err := st.GetSetting(store.SettingProvider)
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	if val != "" {
		t.Errorf("Expected empty value for unset key, got %q", val)
	}

	if err := st.SetSetting(store.SettingProvider, "openai"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	if err := st.SetSetting(store.SettingProvider, "deepseek"); err != nil {
		t.Fatalf("SetSetting upsert failed: %v", err)
	}

	val, _ = st.GetSetting(store.SettingProvider)
	if val != "deepseek" {
		t.Errorf("Expected upserted value 'deepseek', got %q", val)
	}
}

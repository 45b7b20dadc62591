package testfixtures

import (
	"context"
	"fmt"
	"sync"
)

// JobRun is one run recorded by JobRuns.
type JobRun struct {
	ID      string
	Type    string
	Status  string
	Details []byte
}

// JobRuns is an in-memory jobs.RunStore.
type JobRuns struct {
	mu   sync.Mutex
	runs []JobRun
}

func (j *JobRuns) StartRun(_ context.Context, jobType string) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	id := fmt.Sprintf("run-%d", len(j.runs)+1)
	j.runs = append(j.runs, JobRun{ID: id, Type: jobType, Status: "running"})
	return id, nil
}

func (j *JobRuns) FinishRun(_ context.Context, id, status string, details []byte) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i := range j.runs {
		if j.runs[i].ID == id {
			j.runs[i].Status = status
			j.runs[i].Details = details
			return nil
		}
	}
	return fmt.Errorf("unknown run %s", id)
}

func (j *JobRuns) Runs() []JobRun {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]JobRun(nil), j.runs...)
}

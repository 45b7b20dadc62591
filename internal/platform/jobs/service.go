package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"lumigente/internal/platform/logger"
)

const JobUserSync = "user_sync"

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

type RunFunc func(context.Context) (any, error)

// RunStore persists job runs.
type RunStore interface {
	StartRun(ctx context.Context, jobType string) (string, error)
	FinishRun(ctx context.Context, id, status string, details []byte) error
}

type Service struct {
	Runs  RunStore
	queue chan job
}

type job struct {
	Type string
	Run  RunFunc
}

func New(runs RunStore) *Service {
	return &Service{
		Runs:  runs,
		queue: make(chan job, 128),
	}
}

// Start runs the queue worker until ctx is done.
func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
}

// Schedule enqueues run every interval, and once right away when immediate
// is set. A non-positive interval disables the schedule.
func (s *Service) Schedule(ctx context.Context, jobType string, interval time.Duration, immediate bool, run RunFunc) {
	if interval <= 0 {
		return
	}
	if immediate {
		s.Enqueue(ctx, jobType, run)
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Enqueue(ctx, jobType, run)
			}
		}
	}()
}

// Enqueue drops the job when the queue is full.
func (s *Service) Enqueue(ctx context.Context, jobType string, run RunFunc) bool {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
		return true
	default:
		logger.From(ctx).Warn().Str("jobType", jobType).Msg("job queue full")
		return false
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run RunFunc) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				logger.From(ctx).Warn().Err(err).Str("jobType", j.Type).Msg("job run failed")
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	log := logger.From(ctx)
	runID, err := s.Runs.StartRun(ctx, j.Type)
	if err != nil {
		log.Warn().Err(err).Msg("job run insert failed")
	}

	details, err := j.Run(ctx)
	status := StatusCompleted
	if err != nil {
		status = StatusFailed
		details = map[string]any{"error": err.Error(), "details": details}
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		log.Warn().Err(marshalErr).Msg("job details marshal failed")
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if updErr := s.Runs.FinishRun(ctx, runID, status, detailsJSON); updErr != nil {
			log.Warn().Err(updErr).Msg("job run update failed")
		}
	}
	return details, err
}

// Store records runs in the job_runs table.
type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) StartRun(ctx context.Context, jobType string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (job_type, status)
    VALUES ($1,$2)
    RETURNING id::text
  `, jobType, StatusRunning).Scan(&id)
	return id, err
}

func (s *Store) FinishRun(ctx context.Context, id, status string, details []byte) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = now()
    WHERE id::text = $3
  `, status, details, id)
	return err
}

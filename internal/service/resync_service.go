package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-admin-api/pkg/config"
	"github.com/noah-isme/edu-admin-api/pkg/jobs"
)

const jobTypeScheduleResync = "schedule.resync"

// ResyncService runs schedule reapplication in the background. Template
// lesson edits fan out to every instance of the course; running them
// inline would make a single PUT O(instances) in latency.
type ResyncService struct {
	queue     *jobs.Queue
	scheduler scheduleApplier
	logger    *zap.Logger
}

// NewResyncService constructs the resync service and its queue.
func NewResyncService(scheduler scheduleApplier, cfg config.ResyncConfig, logger *zap.Logger) *ResyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ResyncService{scheduler: scheduler, logger: logger}
	s.queue = jobs.NewQueue(jobTypeScheduleResync, s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches queue workers.
func (s *ResyncService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains queue workers.
func (s *ResyncService) Stop() {
	s.queue.Stop()
}

// Enqueue schedules a background resync of one course instance.
func (s *ResyncService) Enqueue(courseInstanceID string) error {
	return s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    jobTypeScheduleResync,
		Payload: courseInstanceID,
	})
}

func (s *ResyncService) handle(ctx context.Context, job jobs.Job) error {
	courseInstanceID, ok := job.Payload.(string)
	if !ok {
		return fmt.Errorf("resync job %s has payload of type %T", job.ID, job.Payload)
	}
	result, err := s.scheduler.Apply(ctx, courseInstanceID)
	if err != nil {
		return fmt.Errorf("resync instance %s: %w", courseInstanceID, err)
	}
	s.logger.Info("background resync finished",
		zap.String("course_instance_id", courseInstanceID),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("deleted", result.Deleted))
	return nil
}

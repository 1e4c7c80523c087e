// Package workers contains the background job processors consumed from the
// queue by the worker binary.
package workers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/benvon/postpilot/internal/models"
	"github.com/benvon/postpilot/internal/queue"
	"github.com/benvon/postpilot/internal/training"
)

// Retrainer processes retrain jobs: it re-fits a user's model from the
// durable record set persisted when the job was enqueued.
type Retrainer struct {
	pipeline *training.Pipeline
	jobQueue queue.JobQueue // For re-enqueueing jobs with delays
}

// NewRetrainer creates a new retrainer.
func NewRetrainer(pipeline *training.Pipeline, jobQueue queue.JobQueue) *Retrainer {
	return &Retrainer{
		pipeline: pipeline,
		jobQueue: jobQueue,
	}
}

// ProcessRetrainJob re-fits the model for the job's user.
func (r *Retrainer) ProcessRetrainJob(ctx context.Context, job *queue.Job) error {
	if job.UserID == "" {
		return fmt.Errorf("user_id is required for retrain job")
	}

	info, err := r.pipeline.Refit(ctx, job.UserID)
	if err != nil {
		return fmt.Errorf("failed to retrain user %s: %w", job.UserID, err)
	}

	log.Printf("Retrained user %s: version=%d sample_count=%d", job.UserID, info.Version, info.SampleCount)
	return nil
}

// ProcessJob processes a job based on its type, acknowledging the message
// according to the outcome.
func (r *Retrainer) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	// Respect NotBefore
	if !job.ShouldProcess() {
		log.Printf("Job %s not ready yet (NotBefore: %v), skipping", job.ID, job.NotBefore)
		if ackErr := msg.Ack(); ackErr != nil {
			log.Printf("Failed to ack job for later processing: %v", ackErr)
		}
		return nil
	}

	switch job.Type {
	case queue.JobTypeRetrain:
		if err := r.ProcessRetrainJob(ctx, job); err != nil {
			return r.handleJobError(ctx, msg, job, err)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil

	default:
		if nackErr := msg.Nack(false); nackErr != nil { // Unknown job type, send to DLQ
			log.Printf("Failed to nack unknown job type: %v", nackErr)
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// handleJobError retries transient failures with backoff and dead-letters the
// rest. Training errors are permanent for a given record set: retrying the
// same input cannot succeed, so those jobs go straight to the DLQ.
func (r *Retrainer) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error) error {
	var trainErr *models.TrainingError
	if errors.As(err, &trainErr) {
		log.Printf("Retrain job %s failed permanently: %v", job.ID, err)
		if nackErr := msg.Nack(false); nackErr != nil {
			log.Printf("Failed to nack permanently failed job: %v", nackErr)
		}
		return err
	}

	if !job.CanRetry() {
		log.Printf("Retrain job %s exhausted %d retries: %v", job.ID, job.MaxRetries, err)
		if nackErr := msg.Nack(false); nackErr != nil { // Send to DLQ
			log.Printf("Failed to nack exhausted job: %v", nackErr)
		}
		return err
	}

	// Transient failure (typically persistence): re-enqueue with backoff.
	job.IncrementRetry()
	notBefore := time.Now().Add(time.Duration(job.RetryCount) * 30 * time.Second)
	job.NotBefore = &notBefore

	if enqueueErr := r.jobQueue.Enqueue(ctx, job); enqueueErr != nil {
		log.Printf("Failed to re-enqueue job %s: %v", job.ID, enqueueErr)
		// Requeue the original delivery so the job is not lost.
		if nackErr := msg.Nack(true); nackErr != nil {
			log.Printf("Failed to requeue job after enqueue failure: %v", nackErr)
		}
		return err
	}

	if ackErr := msg.Ack(); ackErr != nil {
		log.Printf("Failed to ack job after re-enqueue: %v", ackErr)
	}
	log.Printf("Re-enqueued retrain job %s (retry %d/%d, not before %v)", job.ID, job.RetryCount, job.MaxRetries, notBefore)
	return err
}

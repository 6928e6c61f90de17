package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/columns"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/pipeline"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeConsolidate represents a payment report consolidation job.
	JobTypeConsolidate JobType = "consolidate"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed.
	JobStatusFailed JobStatus = "failed"
	// JobStatusRetrying indicates the job failed and is being retried.
	JobStatusRetrying JobStatus = "retrying"
)

// DefaultMaxRetries applies when a job is published without MaxRetries.
const DefaultMaxRetries = 1

// ErrPermanent marks failures that a retry cannot fix, such as a malformed
// payment report.
var ErrPermanent = errors.New("permanent failure")

// Permanent wraps err so the queue does not retry it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// ConsolidationJob is one asynchronous consolidation of a payment report.
type ConsolidationJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// Country is the requested country, venezuela by default.
	Country string `json:"pais"`

	// FileName is the uploaded payment report name.
	FileName string `json:"file_name"`

	// Report and Absolute hold the uploaded workbooks until the job ends.
	Report   []byte `json:"-"`
	Absolute []byte `json:"-"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	// CreatedAt is when the job was created.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt is when the job started processing.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the job completed (success or failure).
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Result is set once the consolidation succeeded.
	Result *pipeline.Result `json:"result,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	// RetryCount is the number of times this job has been retried.
	RetryCount int `json:"retry_count"`

	// MaxRetries is the maximum number of retries allowed.
	MaxRetries int `json:"max_retries"`
}

// Input converts the job payload into a pipeline input.
func (j *ConsolidationJob) Input() pipeline.Input {
	return pipeline.Input{
		Report:     j.Report,
		ReportName: j.FileName,
		Absolute:   j.Absolute,
		Country:    j.Country,
	}
}

// Job is a generic interface for all job types.
type Job interface {
	// GetID returns the unique job identifier.
	GetID() string

	// GetType returns the job type.
	GetType() JobType

	// GetStatus returns the current job status.
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *ConsolidationJob) GetID() string {
	return j.JobID
}

// GetType implements the Job interface.
func (j *ConsolidationJob) GetType() JobType {
	return JobTypeConsolidate
}

// GetStatus implements the Job interface.
func (j *ConsolidationJob) GetStatus() JobStatus {
	return j.Status
}

// Publisher defines the interface for publishing jobs to a queue.
type Publisher interface {
	// PublishConsolidation publishes a consolidation job.
	PublishConsolidation(ctx context.Context, job *ConsolidationJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	// The handler function is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler is a function that processes a job.
// It should return an error if the job failed; errors wrapping ErrPermanent
// are not retried.
type JobHandler func(ctx context.Context, job Job) error

// JobStore defines the interface for storing and retrieving job status.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *ConsolidationJob) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*ConsolidationJob, error)

	// ListJobs retrieves jobs with optional filtering.
	ListJobs(ctx context.Context, filter JobFilter) ([]*ConsolidationJob, error)

	// UpdateJobStatus updates the status of a job.
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// ErrJobNotFound is returned by stores for unknown job ids.
var ErrJobNotFound = errors.New("job not found")

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// Country filters jobs by country.
	Country string

	// Status filters jobs by status.
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}

// ConsolidationHandler runs each consolidation job through the pipeline with
// deps and records the result on the job. Input errors are permanent.
func ConsolidationHandler(deps pipeline.Deps) JobHandler {
	return func(ctx context.Context, job Job) error {
		cj, ok := job.(*ConsolidationJob)
		if !ok {
			return Permanent(fmt.Errorf("unexpected job type %s", job.GetType()))
		}
		in := cj.Input()
		if err := in.Validate(); err != nil {
			return Permanent(err)
		}
		state, err := pipeline.Consolidate(ctx, deps, in)
		if err != nil {
			if errors.Is(err, columns.ErrMissingColumns) {
				return Permanent(err)
			}
			return err
		}
		res := state.Result()
		cj.Result = &res
		return nil
	}
}

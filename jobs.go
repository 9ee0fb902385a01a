package tinybird

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tinybird-go/tinybird-go/internal/api"
)

// Polling defaults of JobsService.Wait.
const (
	JobPollInitialInterval   = time.Second
	JobPollMaxInterval       = 15 * time.Second
	JobPollBackoffMultiplier = 1.5
	JobPollJitterFactor      = 0.2
)

// Statistics are the size counters of a data source or job.
type Statistics struct {
	Bytes    *int64 `json:"bytes"`
	RowCount *int64 `json:"row_count"`
}

// Job is an asynchronous operation such as an import, a populate or a copy.
type Job struct {
	resource
	ID                 string           `json:"id"`
	Kind               JobKind          `json:"kind"`
	Status             JobStatus        `json:"status"`
	IsCancellable      bool             `json:"is_cancellable"`
	JobURL             string           `json:"job_url"`
	Mode               string           `json:"mode"`
	URL                string           `json:"url"`
	PipeID             string           `json:"pipe_id"`
	PipeName           string           `json:"pipe_name"`
	QueryID            string           `json:"query_id"`
	ImportID           string           `json:"import_id"`
	DeleteCondition    string           `json:"delete_condition"`
	QuarantineRows     int              `json:"quarantine_rows"`
	InvalidLines       int              `json:"invalid_lines"`
	RowsAffected       *int64           `json:"rows_affected"`
	ProgressPercentage *float64         `json:"progress_percentage"`
	Statistics         *Statistics      `json:"statistics"`
	Datasource         map[string]any   `json:"datasource"`
	Queries            []map[string]any `json:"queries"`
	Error              string           `json:"error"`
	CreatedAt          Time             `json:"created_at"`
	UpdatedAt          Time             `json:"updated_at"`
	StartedAt          Time             `json:"started_at"`
}

// Some responses name the id job_id.
func (j *Job) normalize(fields map[string]json.RawMessage) {
	if j.ID == "" {
		j.ID = stringOr(fields, "job_id")
	}
}

// Status helpers.

func (j *Job) IsDone() bool { return j.Status == JobStatusDone }
func (j *Job) IsError() bool { return j.Status == JobStatusError }
func (j *Job) IsWorking() bool { return j.Status == JobStatusWorking }
func (j *Job) IsWaiting() bool { return j.Status == JobStatusWaiting }
func (j *Job) IsCancelled() bool { return j.Status == JobStatusCancelled }
func (j *Job) IsCancelling() bool { return j.Status == JobStatusCancelling }

func decodeJob(data json.RawMessage) (*Job, error) {
	return decodeResource[Job](data)
}

// waitConfig holds configuration for waiting on a job.
type waitConfig struct {
	interval    time.Duration
	maxInterval time.Duration
	multiplier  float64
	jitter      float64
	timeout     time.Duration
	onPoll      func(*Job)
}

// WaitOption configures JobsService.Wait.
type WaitOption func(*waitConfig)

// WithPollInterval sets the first polling interval.
// Default: 1 second
func WithPollInterval(interval time.Duration) WaitOption {
	return func(c *waitConfig) {
		c.interval = interval
	}
}

// WithMaxPollInterval caps the polling interval.
// Default: 15 seconds
func WithMaxPollInterval(interval time.Duration) WaitOption {
	return func(c *waitConfig) {
		c.maxInterval = interval
	}
}

// WithPollBackoffMultiplier sets the growth factor of the polling interval.
// Default: 1.5
func WithPollBackoffMultiplier(multiplier float64) WaitOption {
	return func(c *waitConfig) {
		c.multiplier = multiplier
	}
}

// WithPollJitter adds up to factor times the interval of random jitter.
// Default: 0.2
func WithPollJitter(factor float64) WaitOption {
	return func(c *waitConfig) {
		c.jitter = factor
	}
}

// WithWaitTimeout bounds the total wait. Zero waits until ctx is done.
func WithWaitTimeout(timeout time.Duration) WaitOption {
	return func(c *waitConfig) {
		c.timeout = timeout
	}
}

// WithProgress calls fn with every polled job state.
func WithProgress(fn func(*Job)) WaitOption {
	return func(c *waitConfig) {
		c.onPoll = fn
	}
}

// JobsService lists, inspects and cancels jobs.
type JobsService struct {
	client *Client
}

// List returns the jobs of the workspace, most recent first.
func (s *JobsService) List(ctx context.Context, opts *JobsListParams) ([]*Job, error) {
	q, err := encodeParams(opts)
	if err != nil {
		return nil, err
	}
	body, err := s.client.request(ctx, &api.Request{Method: http.MethodGet, Path: "jobs", Query: q})
	if err != nil {
		return nil, err
	}
	return decodeList[Job](body, "jobs")
}

// Retrieve returns a job by id.
func (s *JobsService) Retrieve(ctx context.Context, id string) (*Job, error) {
	if err := requireName("job id", id); err != nil {
		return nil, err
	}
	body, err := s.client.request(ctx, &api.Request{Method: http.MethodGet, Path: pathOf("jobs", id)})
	if err != nil {
		return nil, err
	}
	return decodeJob(body)
}

// Cancel asks the API to cancel a job and returns its new state.
func (s *JobsService) Cancel(ctx context.Context, id string) (*Job, error) {
	if err := requireName("job id", id); err != nil {
		return nil, err
	}
	body, err := s.client.request(ctx, &api.Request{Method: http.MethodPost, Path: pathOf("jobs", id, "cancel")})
	if err != nil {
		return nil, err
	}
	return decodeJob(body)
}

// Wait polls a job until it reaches a terminal status. The interval grows by
// the backoff multiplier up to the maximum. A job ending in error or
// cancelled is returned together with a *JobFailedError.
func (s *JobsService) Wait(ctx context.Context, id string, opts ...WaitOption) (*Job, error) {
	if err := requireName("job id", id); err != nil {
		return nil, err
	}

	cfg := &waitConfig{
		interval:    JobPollInitialInterval,
		maxInterval: JobPollMaxInterval,
		multiplier:  JobPollBackoffMultiplier,
		jitter:      JobPollJitterFactor,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.interval <= 0 {
		return nil, validationError("poll interval", "must be positive")
	}
	if cfg.multiplier < 1 {
		cfg.multiplier = 1
	}
	if cfg.maxInterval < cfg.interval {
		cfg.maxInterval = cfg.interval
	}

	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	log := s.client.Logger().With(zap.String("job_id", id))
	interval := cfg.interval
	for {
		job, err := s.Retrieve(ctx, id)
		if err != nil {
			return nil, err
		}
		if cfg.onPoll != nil {
			cfg.onPoll(job)
		}

		if job.Status.Terminal() {
			log.Debug("job finished", zap.String("status", string(job.Status)))
			if job.IsDone() {
				return job, nil
			}
			return job, &JobFailedError{Job: job}
		}

		wait := interval
		if cfg.jitter > 0 {
			wait += time.Duration(rand.Float64() * cfg.jitter * float64(interval))
		}
		log.Debug("job still running",
			zap.String("status", string(job.Status)),
			zap.Duration("next_poll", wait),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return job, fmt.Errorf("wait for job %s: %w", id, ctx.Err())
		case <-timer.C:
		}

		interval = time.Duration(float64(interval) * cfg.multiplier)
		if interval > cfg.maxInterval {
			interval = cfg.maxInterval
		}
	}
}

// Package orchestrator submits a generation job and polls it at a fixed
// interval until it is terminal or the attempt budget is spent.
package orchestrator

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"neogen/internal/domain"
	"neogen/internal/infra"
	"neogen/internal/replicate"
)

const (
	DefaultPollInterval = 1500 * time.Millisecond
	DefaultMaxAttempts  = 45
)

var errBudgetExhausted = errors.New("orchestrator: generation budget exhausted")

// Predictor is the remote job API.
type Predictor interface {
	CreatePrediction(ctx context.Context, req replicate.CreateRequest) (domain.JobHandle, *domain.JobRecord, error)
	GetPrediction(ctx context.Context, pollURL string) (*domain.JobRecord, error)
}

// Observer is notified after every status query.
type Observer interface {
	ObservePoll(ctx context.Context, status domain.JobStatus, err error)
}

// Config is the immutable settings bundle of an Orchestrator.
type Config struct {
	BaseURL      string
	Token        string
	ModelVersion string
	PollInterval time.Duration
	MaxAttempts  int
	// Deadline optionally caps the whole run in wall-clock time.
	Deadline time.Duration
}

func (c Config) withDefaults() Config {
	c.BaseURL = strings.TrimSpace(c.BaseURL)
	c.Token = strings.TrimSpace(c.Token)
	c.ModelVersion = strings.TrimSpace(c.ModelVersion)
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	return c
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

func WithLogger(logger *infra.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) { o.observer = obs }
}

// WithPredictor replaces the HTTP client built from Config.
func WithPredictor(p Predictor) Option {
	return func(o *Orchestrator) { o.client = p }
}

// Orchestrator is safe for concurrent use; every SubmitAndAwait call owns its
// own state.
type Orchestrator struct {
	cfg      Config
	client   Predictor
	observer Observer
	logger   *infra.Logger
	sleep    func(context.Context, time.Duration) error
}

// New validates cfg and wires the Replicate client unless one is injected.
func New(cfg Config, opts ...Option) (*Orchestrator, error) {
	cfg = cfg.withDefaults()
	var missing []string
	if cfg.Token == "" {
		missing = append(missing, "REPLICATE_API_TOKEN")
	}
	if cfg.ModelVersion == "" {
		missing = append(missing, "REPLICATE_MODEL_VERSION")
	}
	if len(missing) > 0 {
		return nil, domain.ConfigMissing(missing...)
	}
	discard := zerolog.New(io.Discard)
	l := infra.Logger(discard)
	o := &Orchestrator{cfg: cfg, logger: &l, sleep: sleepContext}
	for _, opt := range opts {
		opt(o)
	}
	if o.client == nil {
		client, err := replicate.NewClient(replicate.Options{
			BaseURL: cfg.BaseURL,
			Token:   cfg.Token,
			Logger:  o.logger,
		})
		if err != nil {
			return nil, err
		}
		o.client = client
	}
	return o, nil
}

// SubmitAndAwait creates a job for req and returns its terminal record once it
// succeeded. Every other outcome is a *domain.Error.
func (o *Orchestrator) SubmitAndAwait(ctx context.Context, req domain.GenerationRequest) (*domain.JobRecord, error) {
	if o.cfg.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, o.cfg.Deadline, errBudgetExhausted)
		defer cancel()
	}
	m := newMachine(o.cfg.MaxAttempts)
	if ctx.Err() != nil {
		m = m.next(interrupted(ctx))
		return m.result()
	}

	handle, job, err := o.client.CreatePrediction(ctx, o.createRequest(req))
	m = m.next(remoteEvent(ctx, eventSubmitted, eventSubmitFailed, job, err, handle))
	if m.state == StatePolling {
		o.logger.Debug().Str("job_id", m.handle.ID).Str("status", string(m.job.Status)).Msg("orchestrator: job submitted")
	}

	for m.state == StatePolling {
		if err := o.sleep(ctx, o.cfg.PollInterval); err != nil {
			m = m.next(interrupted(ctx))
			break
		}
		job, err := o.client.GetPrediction(ctx, m.handle.PollURL)
		if o.observer != nil {
			var status domain.JobStatus
			if job != nil {
				status = job.Status
			}
			o.observer.ObservePoll(ctx, status, err)
		}
		m = m.next(remoteEvent(ctx, eventPolled, eventPollFailed, job, err, domain.JobHandle{}))
		o.logger.Debug().
			Str("job_id", m.handle.ID).
			Int("attempt", m.attempts).
			Str("state", m.state.String()).
			Msg("orchestrator: polled job")
	}

	level := zerolog.InfoLevel
	if m.err != nil {
		level = zerolog.WarnLevel
	}
	o.logger.WithLevel(level).
		Err(m.err).
		Str("job_id", m.handle.ID).
		Str("state", m.state.String()).
		Int("attempts", m.attempts).
		Msg("orchestrator: run finished")
	return m.result()
}

func (o *Orchestrator) createRequest(req domain.GenerationRequest) replicate.CreateRequest {
	refs := req.ReferenceImages()
	if refs == nil {
		refs = []string{}
	}
	return replicate.CreateRequest{
		Version: o.cfg.ModelVersion,
		Input: replicate.PredictionInput{
			Prompt:            req.Prompt(),
			ImageInput:        refs,
			GuidanceScale:     req.GuidanceScale(),
			NumInferenceSteps: req.InferenceSteps(),
		},
	}
}

// remoteEvent turns the result of a network call into an event. Failures
// caused by the context are reported as interruptions, not remote failures.
func remoteEvent(ctx context.Context, ok, failed eventKind, job *domain.JobRecord, err error, handle domain.JobHandle) event {
	if err != nil {
		if ctx.Err() != nil {
			return interrupted(ctx)
		}
		return event{kind: failed, err: err}
	}
	return event{kind: ok, handle: handle, job: job}
}

func interrupted(ctx context.Context) event {
	if errors.Is(context.Cause(ctx), errBudgetExhausted) {
		return event{kind: eventBudgetExhausted}
	}
	return event{kind: eventCanceled, err: ctx.Err()}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

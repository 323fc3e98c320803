// Package generate is the caller-facing boundary: it turns a prompt into
// either an image locator or a stable error shape.
package generate

import (
	"context"
	"time"

	"neogen/internal/domain"
	"neogen/internal/extract"
	"neogen/internal/infra"
)

const historyWriteTimeout = 5 * time.Second

// Runner drives one remote job to a terminal state.
type Runner interface {
	SubmitAndAwait(ctx context.Context, req domain.GenerationRequest) (*domain.JobRecord, error)
}

// Recorder receives generate outcomes for metrics.
type Recorder interface {
	GenerationStarted(ctx context.Context)
	GenerationFinished(ctx context.Context, code string, took time.Duration)
}

// Config holds the per-deployment model input.
type Config struct {
	ReferenceImages []string
	GuidanceScale   float64
	InferenceSteps  int
}

// Outcome is exactly one of an image locator or an error message.
type Outcome struct {
	Image string `json:"image,omitempty"`
	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`

	JobID string `json:"-"`
	Err   error  `json:"-"`
}

// OK reports whether the outcome carries an image.
func (o Outcome) OK() bool {
	return o.Err == nil && o.Image != ""
}

type Option func(*Service)

func WithLogger(logger *infra.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithHistory persists every validated outcome. Write failures are logged only.
func WithHistory(repo domain.GenerationRepository) Option {
	return func(s *Service) { s.history = repo }
}

func WithExtractor(e *extract.Extractor) Option {
	return func(s *Service) {
		if e != nil {
			s.extractor = e
		}
	}
}

type Service struct {
	cfg       Config
	runner    Runner
	extractor *extract.Extractor
	history   domain.GenerationRepository
	recorder  Recorder
	logger    *infra.Logger
	now       func() time.Time
}

func NewService(cfg Config, runner Runner, opts ...Option) *Service {
	s := &Service{
		cfg:       cfg,
		runner:    runner,
		extractor: extract.New(extract.DefaultGrammar()),
		logger:    infra.NopLogger(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate validates the prompt, runs the job and extracts the image. It
// never returns both an image and an error.
func (s *Service) Generate(ctx context.Context, prompt string) Outcome {
	started := s.now()
	if s.recorder != nil {
		s.recorder.GenerationStarted(ctx)
	}

	req, err := domain.NewGenerationRequest(prompt, s.cfg.ReferenceImages, s.cfg.GuidanceScale, s.cfg.InferenceSteps)
	if err != nil {
		return s.finish(ctx, started, req, nil, "", err)
	}
	job, err := s.runner.SubmitAndAwait(ctx, req)
	if err != nil {
		return s.finish(ctx, started, req, domain.JobFromError(err), "", err)
	}
	image, ok := s.extractor.FromJob(job)
	if !ok {
		return s.finish(ctx, started, req, job, "", domain.NoLocatorFound(job))
	}
	return s.finish(ctx, started, req, job, image, nil)
}

func (s *Service) finish(ctx context.Context, started time.Time, req domain.GenerationRequest, job *domain.JobRecord, image string, err error) Outcome {
	took := s.now().Sub(started)
	code := domain.Code(err)
	out := Outcome{Image: image, Code: code, Err: err}
	if job != nil {
		out.JobID = job.ID
	}
	if err != nil {
		out.Image = ""
		out.Error = err.Error()
	}

	if s.recorder != nil {
		s.recorder.GenerationFinished(ctx, code, took)
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("code", code).Str("job_id", out.JobID).Dur("took", took).Msg("generate: failed")
	} else {
		s.logger.Info().Str("job_id", out.JobID).Dur("took", took).Msg("generate: image ready")
	}

	if req.Prompt() != "" {
		s.remember(ctx, req, job, out, took)
	}
	return out
}

func (s *Service) remember(ctx context.Context, req domain.GenerationRequest, job *domain.JobRecord, out Outcome, took time.Duration) {
	if s.history == nil {
		return
	}
	gen := &domain.Generation{
		JobID:     out.JobID,
		Prompt:    req.Prompt(),
		ImageURL:  out.Image,
		ErrorCode: out.Code,
		Error:     out.Error,
		Duration:  took,
	}
	if job != nil {
		gen.Status = job.Status
	}
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyWriteTimeout)
	defer cancel()
	if err := s.history.Create(writeCtx, gen); err != nil {
		s.logger.Error().Err(err).Str("job_id", out.JobID).Msg("generate: record history")
	}
}

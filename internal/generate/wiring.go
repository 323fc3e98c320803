package generate

import (
	"neogen/internal/extract"
	"neogen/internal/infra"
	"neogen/internal/orchestrator"
)

// FromConfig builds the orchestrator and extractor described by cfg and
// returns a ready Service. observer may be nil.
func FromConfig(cfg *infra.Config, logger *infra.Logger, observer orchestrator.Observer, opts ...Option) (*Service, error) {
	orchOpts := []orchestrator.Option{orchestrator.WithLogger(logger)}
	if observer != nil {
		orchOpts = append(orchOpts, orchestrator.WithObserver(observer))
	}
	orch, err := orchestrator.New(orchestrator.Config{
		BaseURL:      cfg.ReplicateBaseURL,
		Token:        cfg.ReplicateAPIToken,
		ModelVersion: cfg.ReplicateModelVersion,
		PollInterval: cfg.PollInterval,
		MaxAttempts:  cfg.PollMaxAttempts,
		Deadline:     cfg.GenerationTimeout,
	}, orchOpts...)
	if err != nil {
		return nil, err
	}
	base := []Option{
		WithLogger(logger),
		WithExtractor(extract.New(extract.NewGrammar(cfg.TrustedDeliveryHosts...))),
	}
	return NewService(Config{
		ReferenceImages: cfg.ReferenceImages,
		GuidanceScale:   cfg.GuidanceScale,
		InferenceSteps:  cfg.InferenceSteps,
	}, orch, append(base, opts...)...), nil
}

package domain

import (
	"strings"
	"time"
)

const (
	DefaultGuidanceScale  = 7.0
	DefaultInferenceSteps = 20
)

// GenerationRequest is the immutable input of one generation job.
type GenerationRequest struct {
	prompt          string
	referenceImages []string
	guidanceScale   float64
	inferenceSteps  int
}

// NewGenerationRequest validates the prompt and applies tuning defaults.
// Zero or negative tuning values fall back to the defaults.
func NewGenerationRequest(prompt string, references []string, guidanceScale float64, inferenceSteps int) (GenerationRequest, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return GenerationRequest{}, InvalidInput("prompt is required")
	}
	if guidanceScale <= 0 {
		guidanceScale = DefaultGuidanceScale
	}
	if inferenceSteps <= 0 {
		inferenceSteps = DefaultInferenceSteps
	}
	refs := make([]string, 0, len(references))
	for _, ref := range references {
		if ref = strings.TrimSpace(ref); ref != "" {
			refs = append(refs, ref)
		}
	}
	return GenerationRequest{
		prompt:          prompt,
		referenceImages: refs,
		guidanceScale:   guidanceScale,
		inferenceSteps:  inferenceSteps,
	}, nil
}

func (r GenerationRequest) Prompt() string { return r.prompt }

// ReferenceImages returns a copy of the conditioning image locators.
func (r GenerationRequest) ReferenceImages() []string {
	return append([]string(nil), r.referenceImages...)
}

func (r GenerationRequest) GuidanceScale() float64 { return r.guidanceScale }

func (r GenerationRequest) InferenceSteps() int { return r.inferenceSteps }

// Generation is the persisted outcome of one generate call.
type Generation struct {
	ID        string
	JobID     string
	Prompt    string
	Status    JobStatus
	ImageURL  string
	ErrorCode string
	Error     string
	Duration  time.Duration
	CreatedAt time.Time
}

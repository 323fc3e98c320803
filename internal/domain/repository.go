package domain

import "context"

// GenerationRepository persists generate outcomes.
type GenerationRepository interface {
	Create(ctx context.Context, gen *Generation) error
	ListRecent(ctx context.Context, limit int) ([]Generation, error)
	GetByID(ctx context.Context, id string) (*Generation, error)
}

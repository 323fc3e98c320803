package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"neogen/internal/domain"
	"neogen/internal/infra"
	"neogen/internal/sqlinline"
)

const maxListLimit = 100

// GenerationRepositoryPG implements domain.GenerationRepository.
type GenerationRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewGenerationRepository creates a repository backed by PostgreSQL.
func NewGenerationRepository(sql infra.SQLExecutor) *GenerationRepositoryPG {
	return &GenerationRepositoryPG{sql: sql}
}

// EnsureSchema creates the generations table when it does not exist yet.
func (r *GenerationRepositoryPG) EnsureSchema(ctx context.Context) error {
	_, err := r.sql.Exec(ctx, sqlinline.QCreateGenerationsTable)
	return err
}

// Create inserts a generation, assigning an id and timestamp when missing.
func (r *GenerationRepositoryPG) Create(ctx context.Context, gen *domain.Generation) error {
	if gen == nil {
		return errors.New("generation is required")
	}
	if strings.TrimSpace(gen.ID) == "" {
		gen.ID = uuid.NewString()
	}
	if gen.CreatedAt.IsZero() {
		gen.CreatedAt = time.Now().UTC()
	}
	_, err := r.sql.Exec(ctx, sqlinline.QInsertGeneration,
		gen.ID,
		gen.JobID,
		gen.Prompt,
		string(gen.Status),
		gen.ImageURL,
		gen.ErrorCode,
		gen.Error,
		gen.Duration.Milliseconds(),
		gen.CreatedAt,
	)
	return err
}

// ListRecent returns the newest generations first.
func (r *GenerationRepositoryPG) ListRecent(ctx context.Context, limit int) ([]domain.Generation, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	rows, err := r.sql.Query(ctx, sqlinline.QSelectRecentGenerations, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Generation
	for rows.Next() {
		gen, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *gen)
	}
	return out, rows.Err()
}

// GetByID fetches a generation by its identifier.
func (r *GenerationRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Generation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	gen, err := scanGeneration(r.sql.QueryRow(ctx, sqlinline.QSelectGenerationByID, id))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return gen, nil
}

func scanGeneration(row pgx.Row) (*domain.Generation, error) {
	var (
		gen        domain.Generation
		status     string
		durationMS int64
	)
	if err := row.Scan(
		&gen.ID,
		&gen.JobID,
		&gen.Prompt,
		&status,
		&gen.ImageURL,
		&gen.ErrorCode,
		&gen.Error,
		&durationMS,
		&gen.CreatedAt,
	); err != nil {
		return nil, err
	}
	gen.Status = domain.JobStatus(status)
	gen.Duration = time.Duration(durationMS) * time.Millisecond
	return &gen, nil
}

var _ domain.GenerationRepository = (*GenerationRepositoryPG)(nil)

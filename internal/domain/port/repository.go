package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/keysnap/keyframe-service/internal/domain/entity"
)

// JobRepository persists keyframe job state across retries.
type JobRepository interface {
	Create(ctx context.Context, job *entity.Job) error
	Update(ctx context.Context, job *entity.Job) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Job, error)
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/keysnap/keyframe-service/internal/domain/entity"
	"github.com/keysnap/keyframe-service/internal/domain/port"
)

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

func (r *JobRepository) Create(ctx context.Context, job *entity.Job) error {
	query := `
		INSERT INTO keyframe_jobs (
			id, user_id, video_key, archive_key, sheet_key, status, keyframe_count,
			file_size, video_duration, attempt, max_attempts,
			error_message, created_at, updated_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`

	_, err := r.pool.Exec(ctx, query,
		job.ID, job.UserID, job.VideoKey, job.ArchiveKey, job.SheetKey, string(job.Status),
		job.KeyframeCount, job.FileSize, job.VideoDuration,
		job.Attempt, job.MaxAttempts, job.ErrorMessage,
		job.CreatedAt, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepository) Update(ctx context.Context, job *entity.Job) error {
	query := `
		UPDATE keyframe_jobs SET
			status=$2, archive_key=$3, sheet_key=$4, keyframe_count=$5, video_duration=$6,
			attempt=$7, error_message=$8, updated_at=$9, completed_at=$10
		WHERE id=$1`

	tag, err := r.pool.Exec(ctx, query,
		job.ID, string(job.Status), job.ArchiveKey, job.SheetKey, job.KeyframeCount,
		job.VideoDuration, job.Attempt, job.ErrorMessage,
		job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update job %s: %w", job.ID, port.ErrJobNotFound)
	}
	return nil
}

func (r *JobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	query := `
		SELECT id, user_id, video_key, archive_key, sheet_key, status, keyframe_count,
			file_size, video_duration, attempt, max_attempts,
			error_message, created_at, updated_at, completed_at
		FROM keyframe_jobs WHERE id=$1`

	job := &entity.Job{}
	var status string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.UserID, &job.VideoKey, &job.ArchiveKey, &job.SheetKey, &status,
		&job.KeyframeCount, &job.FileSize, &job.VideoDuration,
		&job.Attempt, &job.MaxAttempts, &job.ErrorMessage,
		&job.CreatedAt, &job.UpdatedAt, &job.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("find job %s: %w", id, port.ErrJobNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find job by id: %w", err)
	}
	job.Status = entity.JobStatus(status)
	return job, nil
}

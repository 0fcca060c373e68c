package entity

import "github.com/google/uuid"

// KeyframeParams carries optional per-job overrides of the selector and composer settings.
// Nil fields keep the worker defaults.
type KeyframeParams struct {
	DiffThreshold      *float64 `json:"diff_threshold,omitempty"`
	SampleRate         *float64 `json:"sample_rate,omitempty"`
	MinInterval        *float64 `json:"min_interval,omitempty"`
	StillnessThreshold *float64 `json:"stillness_threshold,omitempty"`
	StillnessFrames    *int     `json:"stillness_frames,omitempty"`
	MaxPerRow          *int     `json:"max_per_row,omitempty"`
}

// KeyframeRequestMessage is the inbound message from the video.keyframes queue.
type KeyframeRequestMessage struct {
	JobID     uuid.UUID       `json:"job_id"`
	UserID    string          `json:"user_id"`
	VideoKey  string          `json:"video_key"`
	FileSize  int64           `json:"file_size"`
	UserEmail string          `json:"user_email"`
	Params    *KeyframeParams `json:"params,omitempty"`
}

// KeyframeStatusMessage is the outbound message published to the video.status queue.
type KeyframeStatusMessage struct {
	JobID         uuid.UUID `json:"job_id"`
	UserID        string    `json:"user_id"`
	Status        JobStatus `json:"status"`
	VideoKey      string    `json:"video_key"`
	ArchiveKey    string    `json:"archive_key,omitempty"`
	SheetKey      string    `json:"sheet_key,omitempty"`
	KeyframeCount int       `json:"keyframe_count"`
	Timestamps    []float64 `json:"timestamps,omitempty"`
	Duration      float64   `json:"duration_seconds,omitempty"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	Attempt       int       `json:"attempt"`
	MaxAttempts   int       `json:"max_attempts"`
}

// KeyframeProgressMessage reports scan progress while a job is running.
type KeyframeProgressMessage struct {
	JobID     uuid.UUID `json:"job_id"`
	Processed int       `json:"processed"`
	Total     int       `json:"total"`
}

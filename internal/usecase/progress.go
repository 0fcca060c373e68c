package usecase

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/keysnap/keyframe-service/internal/domain/entity"
	"github.com/keysnap/keyframe-service/internal/domain/port"
	"go.uber.org/zap"
)

const progressBuffer = 16

// progressReporter forwards scan progress to a publisher from its own
// goroutine. Report never blocks; updates are dropped while the buffer is full.
type progressReporter struct {
	jobID uuid.UUID
	ch    chan entity.KeyframeProgressMessage
	done  chan struct{}
}

func newProgressReporter(ctx context.Context, pub port.ProgressPublisher, jobID uuid.UUID, log *zap.Logger) *progressReporter {
	r := &progressReporter{
		jobID: jobID,
		ch:    make(chan entity.KeyframeProgressMessage, progressBuffer),
		done:  make(chan struct{}),
	}
	go func() {
		defer close(r.done)
		for msg := range r.ch {
			if pub == nil {
				continue
			}
			data, _ := json.Marshal(msg)
			if err := pub.PublishProgress(ctx, data); err != nil {
				log.Debug("failed to publish progress", zap.Error(err))
			}
		}
	}()
	return r
}

func (r *progressReporter) Report(processed, total int) {
	select {
	case r.ch <- entity.KeyframeProgressMessage{JobID: r.jobID, Processed: processed, Total: total}:
	default:
	}
}

// Close flushes buffered updates. Report must not be called afterwards.
func (r *progressReporter) Close() {
	close(r.ch)
	<-r.done
}

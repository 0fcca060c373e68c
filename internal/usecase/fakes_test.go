package usecase

import (
	"archive/zip"
	"context"
	"image"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/keysnap/keyframe-service/internal/domain/entity"
	"github.com/keysnap/keyframe-service/internal/domain/port"
)

type fakeRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*entity.Job
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{jobs: map[uuid.UUID]*entity.Job{}}
}

func (r *fakeRepo) Create(_ context.Context, job *entity.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job
	return nil
}

func (r *fakeRepo) Update(_ context.Context, job *entity.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID]; !ok {
		return port.ErrJobNotFound
	}
	r.jobs[job.ID] = job
	return nil
}

func (r *fakeRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, port.ErrJobNotFound
	}
	return job, nil
}

// fakeStorage writes a placeholder video on download and records what was
// uploaded. Archive uploads also capture the names of the zipped entries.
type fakeStorage struct {
	uploadErr error
	uploads   map[string]string
	entries   []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploads: map[string]string{}}
}

func (s *fakeStorage) DownloadVideo(_ context.Context, _ string, destPath string) error {
	return os.WriteFile(destPath, []byte("video"), 0o644)
}

func (s *fakeStorage) UploadArtifact(_ context.Context, objectKey, srcPath, contentType string) error {
	if s.uploadErr != nil {
		return s.uploadErr
	}
	if contentType == contentTypeZip {
		zr, err := zip.OpenReader(srcPath)
		if err != nil {
			return err
		}
		for _, f := range zr.File {
			s.entries = append(s.entries, f.Name)
		}
		zr.Close()
	}
	s.uploads[objectKey] = contentType
	return nil
}

type memorySource struct {
	frames []entity.Frame
	fps    float64
	pos    int
	closed bool
}

func (s *memorySource) Next(context.Context) (entity.Frame, error) {
	if s.pos >= len(s.frames) {
		return entity.Frame{}, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}

func (s *memorySource) FPS() float64    { return s.fps }
func (s *memorySource) FrameCount() int { return len(s.frames) }
func (s *memorySource) Close() error    { s.closed = true; return nil }

type fakeOpener struct {
	src *memorySource
	err error
}

func (o *fakeOpener) Open(context.Context, string) (port.FrameSource, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.src, nil
}

// uniformFrames builds 4x4 frames at 1 fps, one gray level per frame.
func uniformFrames(levels ...uint8) []entity.Frame {
	frames := make([]entity.Frame, len(levels))
	for i, v := range levels {
		img := image.NewRGBA(image.Rect(0, 0, 4, 4))
		for p := 0; p < len(img.Pix); p += 4 {
			img.Pix[p], img.Pix[p+1], img.Pix[p+2], img.Pix[p+3] = v, v, v, 255
		}
		frames[i] = entity.Frame{Index: i, Timestamp: float64(i), Image: img}
	}
	return frames
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs [][]byte
}

func (p *recordingPublisher) PublishStatus(_ context.Context, msg []byte) error {
	return p.record(msg)
}

func (p *recordingPublisher) PublishProgress(_ context.Context, msg []byte) error {
	return p.record(msg)
}

func (p *recordingPublisher) record(msg []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.msgs)
}

type fakeDLQ struct {
	msgs    [][]byte
	reasons []string
}

func (d *fakeDLQ) PublishToDLQ(_ context.Context, msg []byte, reason string) error {
	d.msgs = append(d.msgs, msg)
	d.reasons = append(d.reasons, reason)
	return nil
}

type fakeNotifier struct {
	notices []port.FailureNotice
}

func (n *fakeNotifier) NotifyFailure(_ context.Context, notice port.FailureNotice) error {
	n.notices = append(n.notices, notice)
	return nil
}

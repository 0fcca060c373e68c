package port

import "context"

type VideoStorage interface {
	DownloadVideo(ctx context.Context, objectKey string, destPath string) error
	UploadArtifact(ctx context.Context, objectKey string, srcPath string, contentType string) error
}

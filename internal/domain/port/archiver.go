package port

import "context"

// Archiver bundles job artifacts into a single downloadable file.
type Archiver interface {
	CreateArchive(ctx context.Context, filePaths []string, outputPath string) error
}

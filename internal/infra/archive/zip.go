package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ZipArchiver bundles keyframe images and the contact sheet into one zip.
type ZipArchiver struct{}

func NewZipArchiver() *ZipArchiver {
	return &ZipArchiver{}
}

func (z *ZipArchiver) CreateArchive(ctx context.Context, filePaths []string, outputPath string) (err error) {
	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close archive: %w", cerr)
		}
	}()

	zw := zip.NewWriter(out)
	for _, fp := range filePaths {
		if err := ctx.Err(); err != nil {
			zw.Close()
			return err
		}
		if err := addFile(zw, fp); err != nil {
			zw.Close()
			return fmt.Errorf("add %s to archive: %w", fp, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	return nil
}

func addFile(zw *zip.Writer, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = filepath.Base(filename)
	header.Method = zip.Deflate
	// PNG data is already deflated.
	if strings.EqualFold(filepath.Ext(filename), ".png") {
		header.Method = zip.Store
	}

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, file)
	return err
}

package contactsheet

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

const (
	DefaultFontPath = "Arial.ttf"
	DefaultFontSize = 80
)

var fontDirs = []string{
	"/usr/share/fonts/truetype/msttcorefonts",
	"/usr/share/fonts/truetype",
	"/usr/share/fonts/TTF",
	"/usr/share/fonts",
	"/Library/Fonts",
	"/System/Library/Fonts/Supplemental",
	`C:\Windows\Fonts`,
}

// LabelFace is the font used for tile labels. Degraded is set when the
// preferred font could not be loaded and the built-in bitmap font is used.
type LabelFace struct {
	font.Face
	Degraded bool
}

// LoadLabelFace loads the scalable font at path (searched in the usual
// system font directories when relative) at size points. It never fails:
// any problem falls back to a fixed-size built-in face.
func LoadLabelFace(path string, size float64, logger *zap.Logger) LabelFace {
	if logger == nil {
		logger = zap.NewNop()
	}
	face, err := loadOpenType(path, size)
	if err != nil {
		logger.Warn("label font unavailable, falling back to built-in font",
			zap.String("font_path", path),
			zap.Error(err),
		)
		return LabelFace{Face: basicfont.Face7x13, Degraded: true}
	}
	return LabelFace{Face: face}
}

func loadOpenType(path string, size float64) (font.Face, error) {
	if path == "" {
		return nil, fmt.Errorf("no font configured")
	}
	if !(size > 0) {
		return nil, fmt.Errorf("invalid font size %v", size)
	}
	data, err := readFontFile(path)
	if err != nil {
		return nil, err
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("create face %s: %w", path, err)
	}
	return face, nil
}

func readFontFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil || filepath.IsAbs(path) {
		return data, err
	}
	for _, dir := range fontDirs {
		if data, derr := os.ReadFile(filepath.Join(dir, path)); derr == nil {
			return data, nil
		}
	}
	return nil, err
}

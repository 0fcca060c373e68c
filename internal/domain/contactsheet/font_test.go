package contactsheet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
)

func TestLoadLabelFaceFallsBackWhenMissing(t *testing.T) {
	face := LoadLabelFace(filepath.Join(t.TempDir(), "missing.ttf"), 80, nil)
	assert.True(t, face.Degraded)
	assert.Equal(t, basicfont.Face7x13, face.Face)
}

func TestLoadLabelFaceFallsBackOnGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.ttf")
	require.NoError(t, os.WriteFile(path, []byte("not a font"), 0o644))

	face := LoadLabelFace(path, 80, nil)
	assert.True(t, face.Degraded)
}

func TestLoadLabelFaceWithoutPath(t *testing.T) {
	assert.True(t, LoadLabelFace("", 80, nil).Degraded)
}

func TestLoadLabelFaceScalable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "goregular.ttf")
	require.NoError(t, os.WriteFile(path, goregular.TTF, 0o644))

	face := LoadLabelFace(path, 24, nil)
	assert.False(t, face.Degraded)
	assert.Greater(t, face.Metrics().Height.Ceil(), 13)
}

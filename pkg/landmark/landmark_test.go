package landmark

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLandmarkFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "landmarks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadPreservesDocumentOrder(t *testing.T) {
	path := writeLandmarkFile(t, `
zebra:
  x: 1.0
  y: 2.0
alpha:
  x: -3.5
  y: 4.25
mid:
  x: 0
  y: 0
`)

	reg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 3, reg.Len())

	lms := reg.Landmarks()
	assert.Equal(t, "zebra", lms[0].ID)
	assert.Equal(t, "alpha", lms[1].ID)
	assert.Equal(t, "mid", lms[2].ID)
	assert.Equal(t, 1.0, lms[0].X)
	assert.Equal(t, 2.0, lms[0].Y)
	assert.Equal(t, -3.5, lms[1].X)
	assert.Equal(t, 4.25, lms[1].Y)
}

func TestLoadEmptyPath(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadMissingCoordinate(t *testing.T) {
	path := writeLandmarkFile(t, `
lonely:
  x: 1.0
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lonely")
	assert.Contains(t, err.Error(), "y")
}

func TestLoadNonNumericCoordinate(t *testing.T) {
	path := writeLandmarkFile(t, `
bad:
  x: east
  y: 2.0
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadEmptyFile(t *testing.T) {
	path := writeLandmarkFile(t, "")
	reg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, reg.Len())
}

func TestLandmarksReturnsCopy(t *testing.T) {
	path := writeLandmarkFile(t, `
a:
  x: 1
  y: 1
`)
	reg, err := Load(path)
	require.NoError(t, err)

	lms := reg.Landmarks()
	lms[0].X = 99
	assert.Equal(t, 1.0, reg.Landmarks()[0].X)
}

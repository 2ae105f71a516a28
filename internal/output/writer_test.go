package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scenefinder/internal/models"
)

func TestWriteResults(t *testing.T) {
	dir := t.TempDir()
	records := []models.ResultRecord{
		{
			Scene:  1,
			Frame:  models.Frame{Index: 2, TimestampSec: 2, Data: []byte("jpeg-two")},
			Reason: "red car visible",
		},
		{
			Scene:  2,
			Frame:  models.Frame{Index: 4, TimestampSec: 4, Data: []byte("jpeg-four")},
			Reason: "car again",
		},
	}

	require.NoError(t, NewWriter(dir).WriteResults(records))

	// Scene files are named by 1-based display position and hold the
	// original frame bytes untouched.
	one, err := os.ReadFile(filepath.Join(dir, "scene_1.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-two"), one)

	two, err := os.ReadFile(filepath.Join(dir, "scene_2.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-four"), two)

	data, err := os.ReadFile(filepath.Join(dir, "results.json"))
	require.NoError(t, err)

	var entries []struct {
		Scene      int    `json:"scene"`
		FrameIndex int    `json:"frame_index"`
		Reason     string `json:"reason"`
		Path       string `json:"path"`
	}
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, 2, entries[0].FrameIndex)
	assert.Equal(t, "red car visible", entries[0].Reason)
	assert.Equal(t, filepath.Join(dir, "scene_1.jpg"), entries[0].Path)
	assert.Equal(t, 4, entries[1].FrameIndex)
}

func TestWriteResultsCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "run")
	require.NoError(t, NewWriter(dir).WriteResults(nil))

	data, err := os.ReadFile(filepath.Join(dir, "results.json"))
	require.NoError(t, err)

	var entries []any
	require.NoError(t, json.Unmarshal(data, &entries))
	assert.Empty(t, entries)
}

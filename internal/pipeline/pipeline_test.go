package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scenefinder/internal/extractor"
	"scenefinder/internal/models"
	"scenefinder/internal/selector"
)

type fakeSampler struct {
	frames []models.Frame
	err    error
}

func (f *fakeSampler) Sample(ctx context.Context, videoPath, framesDir string) ([]models.Frame, error) {
	return f.frames, f.err
}

type fakeSelector struct {
	selections []models.Selection
	err        error
	called     bool
	gotPrompt  string
	gotFrames  int
}

func (f *fakeSelector) Select(ctx context.Context, frames []models.Frame, prompt string) ([]models.Selection, error) {
	f.called = true
	f.gotPrompt = prompt
	f.gotFrames = len(frames)
	return f.selections, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func threeFrames() []models.Frame {
	return []models.Frame{
		{Index: 0, TimestampSec: 0, Data: []byte("frame-0")},
		{Index: 1, TimestampSec: 1, Data: []byte("frame-1")},
		{Index: 2, TimestampSec: 2, Data: []byte("frame-2")},
	}
}

func TestRunEndToEnd(t *testing.T) {
	sampler := &fakeSampler{frames: threeFrames()}
	sel := &fakeSelector{selections: []models.Selection{
		{FrameIndex: 1, Reason: "red car visible"},
	}}

	records, err := New(sampler, sel, testLogger()).Run(t.Context(), "video.mp4", t.TempDir(), "red car")
	require.NoError(t, err)

	assert.True(t, sel.called)
	assert.Equal(t, "red car", sel.gotPrompt)
	assert.Equal(t, 3, sel.gotFrames)

	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].Scene)
	assert.Equal(t, 1, records[0].Frame.Index)
	assert.Equal(t, "red car visible", records[0].Reason)
	// Payload must be byte-identical to the sampled frame.
	assert.Equal(t, []byte("frame-1"), records[0].Frame.Data)
}

func TestRunNoMatchesIsNotAnError(t *testing.T) {
	sampler := &fakeSampler{frames: threeFrames()}
	sel := &fakeSelector{selections: nil}

	records, err := New(sampler, sel, testLogger()).Run(t.Context(), "video.mp4", t.TempDir(), "unicorn")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRunSamplerFailureShortCircuits(t *testing.T) {
	sampler := &fakeSampler{err: extractor.ErrNoFrames}
	sel := &fakeSelector{}

	records, err := New(sampler, sel, testLogger()).Run(t.Context(), "video.mp4", t.TempDir(), "red car")
	require.Error(t, err)
	assert.ErrorIs(t, err, extractor.ErrNoFrames)
	assert.Nil(t, records)
	assert.False(t, sel.called, "selector must not run after a sampling failure")
}

func TestRunSelectorTransportFailure(t *testing.T) {
	sampler := &fakeSampler{frames: threeFrames()}
	sel := &fakeSelector{err: errors.Join(selector.ErrTransportFailure, errors.New("connection refused"))}

	records, err := New(sampler, sel, testLogger()).Run(t.Context(), "video.mp4", t.TempDir(), "red car")
	require.Error(t, err)
	assert.ErrorIs(t, err, selector.ErrTransportFailure)
	assert.Nil(t, records)
}

func TestRunSkipsOutOfRangeSelections(t *testing.T) {
	// The selector contract already bounds-checks, but a misbehaving
	// implementation must not crash the mapping step.
	sampler := &fakeSampler{frames: threeFrames()}
	sel := &fakeSelector{selections: []models.Selection{
		{FrameIndex: 2, Reason: "ok"},
		{FrameIndex: 9, Reason: "bogus"},
	}}

	records, err := New(sampler, sel, testLogger()).Run(t.Context(), "video.mp4", t.TempDir(), "red car")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2, records[0].Frame.Index)
	assert.Equal(t, 1, records[0].Scene)
}

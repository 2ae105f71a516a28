package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"scenefinder/internal/models"
)

// Sampling failures. Each one aborts the whole run; a partial frame
// sequence is never returned.
var (
	ErrMetadataUnavailable = errors.New("video metadata unavailable")
	ErrDecodeFailure       = errors.New("frame decode failed")
	ErrNoFrames            = errors.New("no frames captured")
)

// ProgressFunc receives (captured, estimatedTotal) after each capture.
type ProgressFunc func(captured, estimatedTotal int)

// Sampler captures one still frame per second of video, sequentially:
// each seek completes and its frame is read back before the next seek
// is issued.
type Sampler struct {
	quality  int // ffmpeg qscale:v, 2 (best) to 31
	logger   *slog.Logger
	progress ProgressFunc
}

func NewSampler(quality int, logger *slog.Logger, progress ProgressFunc) *Sampler {
	return &Sampler{
		quality:  quality,
		logger:   logger,
		progress: progress,
	}
}

type samplerState int

const (
	stateAwaitMetadata samplerState = iota
	stateSeeking
	stateDone
	stateFailed
)

// Sample extracts the ordered frame sequence for one video into framesDir.
func (s *Sampler) Sample(ctx context.Context, videoPath, framesDir string) ([]models.Frame, error) {
	if _, err := os.Stat(videoPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: video file does not exist at path: '%s'", ErrMetadataUnavailable, videoPath)
	}

	var (
		state      = stateAwaitMetadata
		meta       models.VideoMetadata
		timestamps []float64
		frames     []models.Frame
		next       int
		failure    error
	)

	for state != stateDone && state != stateFailed {
		switch state {
		case stateAwaitMetadata:
			probed, err := s.probe(videoPath)
			if err != nil {
				failure = err
				state = stateFailed
				continue
			}
			meta = probed
			timestamps = sampleTimestamps(meta.DurationSec)
			s.logger.Debug("video metadata loaded",
				"duration_sec", meta.DurationSec,
				"width", meta.Width,
				"height", meta.Height,
				"planned_frames", len(timestamps),
			)
			state = stateSeeking

		case stateSeeking:
			if err := ctx.Err(); err != nil {
				failure = fmt.Errorf("%w: %v", ErrDecodeFailure, err)
				state = stateFailed
				continue
			}
			if next >= len(timestamps) {
				state = stateDone
				continue
			}
			ts := timestamps[next]
			framePath := filepath.Join(framesDir, fmt.Sprintf("frame_%04d.jpg", next))
			frame, err := s.captureFrame(videoPath, framePath, next, ts)
			if err != nil {
				failure = fmt.Errorf("%w: seek to %.1fs: %v", ErrDecodeFailure, ts, err)
				state = stateFailed
				continue
			}
			frames = append(frames, frame)
			if s.progress != nil {
				s.progress(len(frames), len(timestamps))
			}
			next++
		}
	}

	if state == stateFailed {
		return nil, failure
	}
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	return frames, nil
}

// captureFrame seeks to ts and renders a single JPEG at the video's
// native resolution.
func (s *Sampler) captureFrame(videoPath, framePath string, index int, ts float64) (models.Frame, error) {
	err := ffmpeg.Input(videoPath, ffmpeg.KwArgs{"ss": ts}).
		Output(framePath, ffmpeg.KwArgs{"frames:v": 1, "q:v": s.quality}).
		OverWriteOutput().
		Silent(true).
		Run()
	if err != nil {
		return models.Frame{}, err
	}

	data, err := os.ReadFile(framePath)
	if err != nil {
		return models.Frame{}, err
	}
	if len(data) == 0 {
		return models.Frame{}, fmt.Errorf("empty capture at %.1fs", ts)
	}

	return models.Frame{
		Index:        index,
		TimestampSec: ts,
		Path:         framePath,
		Data:         data,
	}, nil
}

func (s *Sampler) probe(videoPath string) (models.VideoMetadata, error) {
	raw, err := ffmpeg.Probe(videoPath)
	if err != nil {
		return models.VideoMetadata{}, fmt.Errorf("%w: ffprobe: %v", ErrMetadataUnavailable, err)
	}
	return parseProbe(raw)
}

// parseProbe pulls duration and pixel dimensions out of ffprobe JSON.
func parseProbe(raw string) (models.VideoMetadata, error) {
	var doc struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
		Streams []struct {
			CodecType string `json:"codec_type"`
			Width     int    `json:"width"`
			Height    int    `json:"height"`
		} `json:"streams"`
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return models.VideoMetadata{}, fmt.Errorf("%w: %v", ErrMetadataUnavailable, err)
	}

	duration, err := strconv.ParseFloat(doc.Format.Duration, 64)
	if err != nil || duration <= 0 {
		return models.VideoMetadata{}, fmt.Errorf("%w: missing or invalid duration %q", ErrMetadataUnavailable, doc.Format.Duration)
	}

	meta := models.VideoMetadata{DurationSec: duration}
	for _, stream := range doc.Streams {
		if stream.CodecType == "video" {
			meta.Width = stream.Width
			meta.Height = stream.Height
			break
		}
	}
	if meta.Width == 0 || meta.Height == 0 {
		return models.VideoMetadata{}, fmt.Errorf("%w: no video stream with dimensions", ErrMetadataUnavailable)
	}
	return meta, nil
}

// sampleTimestamps returns the seek targets: successive 1-second steps
// starting at 0, stopping once the next target would exceed the total
// duration. A 3.4s video yields [0 1 2 3]; a 2.0s video yields [0 1 2].
func sampleTimestamps(durationSec float64) []float64 {
	var timestamps []float64
	for t := 0.0; t <= durationSec; t += 1.0 {
		timestamps = append(timestamps, t)
	}
	return timestamps
}

package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"scenefinder/internal/models"
	"scenefinder/internal/selector"
)

// Sampler produces the ordered frame sequence for one video.
type Sampler interface {
	Sample(ctx context.Context, videoPath, framesDir string) ([]models.Frame, error)
}

// Pipeline drives one sample -> select -> map pass. Any stage failure
// short-circuits the remainder; no partial results are returned.
type Pipeline struct {
	sampler  Sampler
	selector selector.Selector
	logger   *slog.Logger
}

func New(sampler Sampler, sel selector.Selector, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		sampler:  sampler,
		selector: sel,
		logger:   logger,
	}
}

// Run returns the display-ready records for one video and prompt. An
// empty result with a nil error means the model found no matching
// scenes.
func (p *Pipeline) Run(ctx context.Context, videoPath, framesDir, prompt string) ([]models.ResultRecord, error) {
	frames, err := p.sampler.Sample(ctx, videoPath, framesDir)
	if err != nil {
		return nil, fmt.Errorf("frame sampling failed: %w", err)
	}
	p.logger.Info("sampling complete", "frames", len(frames))

	selections, err := p.selector.Select(ctx, frames, prompt)
	if err != nil {
		return nil, fmt.Errorf("scene selection failed: %w", err)
	}

	records := make([]models.ResultRecord, 0, len(selections))
	for _, sel := range selections {
		if sel.FrameIndex < 0 || sel.FrameIndex >= len(frames) {
			continue
		}
		records = append(records, models.ResultRecord{
			Scene:  len(records) + 1,
			Frame:  frames[sel.FrameIndex],
			Reason: sel.Reason,
		})
	}
	return records, nil
}

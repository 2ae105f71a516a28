package selector

import (
	"context"
	"errors"
	"log/slog"

	"scenefinder/internal/models"
)

// Selection failures. Transport problems and schema problems are kept
// as separate kinds.
var (
	ErrTransportFailure  = errors.New("selection transport failed")
	ErrMalformedResponse = errors.New("malformed selection response")
)

// Selector asks a multimodal model which of the sampled frames satisfy a
// free-text scene description. An empty result with a nil error means
// the model found no matches; it is not a failure.
type Selector interface {
	Select(ctx context.Context, frames []models.Frame, prompt string) ([]models.Selection, error)
}

// filterSelections drops entries whose frameIndex falls outside
// [0, frameCount). A bad index never fails the run, and the model's
// ordering of the surviving entries is preserved.
func filterSelections(logger *slog.Logger, raw []models.Selection, frameCount int) []models.Selection {
	valid := make([]models.Selection, 0, len(raw))
	for _, sel := range raw {
		if sel.FrameIndex < 0 || sel.FrameIndex >= frameCount {
			logger.Debug("discarding out-of-range scene",
				"frame_index", sel.FrameIndex,
				"frames", frameCount,
			)
			continue
		}
		valid = append(valid, sel)
	}
	return valid
}

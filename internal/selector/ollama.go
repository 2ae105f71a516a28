package selector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/agent-api/core/pkg/agent"
	"github.com/agent-api/core/types"
	"github.com/agent-api/ollama"

	"scenefinder/internal/models"
)

const ollamaMaxWorkers = 4 // Adjust based on your CPU cores

const ollamaSystemPrompt = "You are a visual analysis assistant that decides whether a single video frame matches a scene description. Answer with JSON only."

// OllamaSelector judges frames with a local vision model. The hosted
// backend sees every frame in one request; a local model handles one
// image at a time, so each frame is scored individually and the matches
// are re-ordered by frame index afterwards.
type OllamaSelector struct {
	agent  *agent.DefaultAgent
	logger *slog.Logger
}

func NewOllamaSelector(ctx context.Context, baseURL string, port int, model string, logger *slog.Logger) (*OllamaSelector, error) {
	opts := &ollama.ProviderOpts{
		Logger:  logger,
		BaseURL: baseURL,
		Port:    port,
	}
	provider := ollama.NewProvider(opts)
	provider.UseModel(ctx, &types.Model{ID: model})

	agentConf := &agent.NewAgentConfig{
		Provider:     provider,
		Logger:       logger,
		SystemPrompt: ollamaSystemPrompt,
	}
	return &OllamaSelector{agent: agent.NewAgent(agentConf), logger: logger}, nil
}

func (o *OllamaSelector) Select(ctx context.Context, frames []models.Frame, prompt string) ([]models.Selection, error) {
	workChan := make(chan models.Frame, len(frames))
	resultsChan := make(chan models.Selection, len(frames))
	errorsChan := make(chan error, len(frames))

	var wg sync.WaitGroup
	for i := 0; i < ollamaMaxWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for frame := range workChan {
				matched, reason, err := o.judgeFrame(ctx, frame, prompt)
				if err != nil {
					errorsChan <- fmt.Errorf("frame %d/%d: %w", frame.Index+1, len(frames), err)
					continue
				}
				if matched {
					resultsChan <- models.Selection{FrameIndex: frame.Index, Reason: reason}
				}
			}
		}()
	}

	for _, frame := range frames {
		workChan <- frame
	}
	close(workChan)

	wg.Wait()
	close(resultsChan)
	close(errorsChan)

	if err := <-errorsChan; err != nil {
		return nil, err
	}

	var selections []models.Selection
	for sel := range resultsChan {
		selections = append(selections, sel)
	}
	sort.Slice(selections, func(i, j int) bool {
		return selections[i].FrameIndex < selections[j].FrameIndex
	})
	return filterSelections(o.logger, selections, len(frames)), nil
}

func (o *OllamaSelector) judgeFrame(ctx context.Context, frame models.Frame, prompt string) (bool, string, error) {
	input := fmt.Sprintf(`Does this frame match the following scene description: %q
Respond with JSON only: {"match": <bool>, "reason": "<short justification>"}`, prompt)

	response := o.agent.Run(
		ctx,
		agent.WithInput(input),
		agent.WithImagePath(frame.Path),
	)
	if response.Err != nil {
		return false, "", fmt.Errorf("%w: %v", ErrTransportFailure, response.Err)
	}
	if len(response.Messages) == 0 {
		return false, "", fmt.Errorf("%w: no response messages received from model", ErrMalformedResponse)
	}

	// Get the model's response (not the prompt)
	content := response.Messages[len(response.Messages)-1].Content

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return false, "", fmt.Errorf("%w: no JSON object in response", ErrMalformedResponse)
	}

	var verdict struct {
		Match  bool   `json:"match"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &verdict); err != nil {
		return false, "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return verdict.Match, verdict.Reason, nil
}

package selector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"scenefinder/internal/models"
)

const geminiInstructions = `You are a video scene analyst. The images that follow are frames sampled from a single video, one per second, in order. Frame numbering starts at 0.

Find every frame that matches this description: %q

Respond with JSON only, in the form {"scenes": [{"frameIndex": <int>, "reason": "<why this frame matches>"}]}. Return an empty scenes array if nothing matches.`

var sceneSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"scenes": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"frameIndex": {Type: genai.TypeInteger},
					"reason":     {Type: genai.TypeString},
				},
				Required: []string{"frameIndex", "reason"},
			},
		},
	},
	Required: []string{"scenes"},
}

// GeminiSelector sends all frames plus the prompt to Gemini in a single
// request and asks for a constrained JSON response.
type GeminiSelector struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

func NewGeminiSelector(ctx context.Context, apiKey, model string, logger *slog.Logger) (*GeminiSelector, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiSelector{client: client, model: model, logger: logger}, nil
}

func (g *GeminiSelector) Select(ctx context.Context, frames []models.Frame, prompt string) ([]models.Selection, error) {
	parts := make([]*genai.Part, 0, len(frames)+1)
	parts = append(parts, genai.NewPartFromText(fmt.Sprintf(geminiInstructions, prompt)))
	for _, frame := range frames {
		parts = append(parts, genai.NewPartFromBytes(frame.Data, "image/jpeg"))
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   sceneSchema,
	}
	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransportFailure, err)
	}

	raw, err := parseSceneResponse(result.Text())
	if err != nil {
		return nil, err
	}
	return filterSelections(g.logger, raw, len(frames)), nil
}

// parseSceneResponse decodes the model's JSON body. Models occasionally
// wrap the object in prose or code fences, so parsing falls back to the
// outermost braces before giving up.
func parseSceneResponse(body string) ([]models.Selection, error) {
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: empty response body", ErrMalformedResponse)
	}

	var doc struct {
		Scenes []models.Selection `json:"scenes"`
	}
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		start := strings.Index(body, "{")
		end := strings.LastIndex(body, "}")
		if start == -1 || end <= start {
			return nil, fmt.Errorf("%w: no JSON object in response", ErrMalformedResponse)
		}
		if innerErr := json.Unmarshal([]byte(body[start:end+1]), &doc); innerErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, innerErr)
		}
	}
	return doc.Scenes, nil
}

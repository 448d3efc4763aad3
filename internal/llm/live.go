package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"insight-service/internal/model"
	"insight-service/pkg/validate"
	"insight-service/prometheus"
)

const liveSystemPrompt = `You are a local conditions reporter. For the given address and business type, report current weather, traffic, and recent local news relevant to the business. Respond with ONLY a JSON object, no other text, matching exactly this shape:
{
  "weather": {"temp": number, "condition": string, "impact": string},
  "traffic": {"status": string, "delay": string, "notablePatterns": string},
  "news": [{"title": string, "source": string, "summary": string, "date": string, "category": string}]
}`

// LiveInsightGenerator produces ephemeral weather/traffic/news snapshots for
// an existing report's location. Results are never persisted; every call
// re-queries the model.
type LiveInsightGenerator struct {
	client   *Client
	validate *validate.Validator
}

// NewLiveInsightGenerator creates a live-insight generator backed by the given client
func NewLiveInsightGenerator(client *Client) *LiveInsightGenerator {
	return &LiveInsightGenerator{
		client:   client,
		validate: validate.New(),
	}
}

// GenerateLive asks the model for a live snapshot and parses/validates it
func (g *LiveInsightGenerator) GenerateLive(ctx context.Context, address, businessType string) (*model.LiveInsight, error) {
	userPrompt := fmt.Sprintf("Address: %s\nBusiness type: %s", address, businessType)

	text, err := g.client.Complete(ctx, liveSystemPrompt, userPrompt, true)
	if err != nil {
		prometheus.RecordGenerationError("live")
		return nil, err
	}

	var insight model.LiveInsight
	if err := json.Unmarshal([]byte(stripFences(text)), &insight); err != nil {
		prometheus.RecordGenerationError("live")
		return nil, &GenerationError{Op: "live", Err: fmt.Errorf("parse model JSON: %w", err)}
	}

	if err := g.validate.Validate(&insight); err != nil {
		prometheus.RecordGenerationError("live")
		return nil, &GenerationError{Op: "live", Err: fmt.Errorf("model output failed contract validation: %w", err)}
	}

	prometheus.LiveInsightCounter.Inc()
	return &insight, nil
}

package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"insight-service/internal/model"
	"insight-service/pkg/validate"
	"insight-service/prometheus"
)

const analysisSystemPrompt = `You are a hyperlocal market analyst. Analyze the 5-mile radius around the given address for the given business type and respond with ONLY a JSON object, no other text, matching exactly this shape:
{
  "marketSize": {
    "tam": {"value": number, "description": string},
    "sam": {"value": number, "description": string},
    "som": {"value": number, "description": string}
  },
  "demographics": {
    "population": number,
    "medianIncome": number,
    "ageGroups": [{"range": string, "percentage": number}],
    "description": string
  },
  "psychographics": {
    "interests": [string],
    "lifestyle": string,
    "buyingBehavior": string
  },
  "weather": {
    "seasonalTrends": string,
    "impactOnBusiness": string
  },
  "traffic": {
    "typicalTraffic": string,
    "challenges": [string],
    "peakHours": string
  }
}`

// AnalysisGenerator turns an (address, businessType) pair into validated
// AnalysisData. It has no persistence side effects.
type AnalysisGenerator struct {
	client   *Client
	validate *validate.Validator
}

// NewAnalysisGenerator creates an analysis generator backed by the given client
func NewAnalysisGenerator(client *Client) *AnalysisGenerator {
	return &AnalysisGenerator{
		client:   client,
		validate: validate.New(),
	}
}

// Generate asks the model for a market analysis and parses/validates the
// result. The output is re-validated against the AnalysisData contract so
// malformed model output is reported as a GenerationError and never reaches
// storage.
func (g *AnalysisGenerator) Generate(ctx context.Context, address, businessType string) (*model.AnalysisData, error) {
	userPrompt := fmt.Sprintf("Address: %s\nBusiness type: %s", address, businessType)

	text, err := g.client.Complete(ctx, analysisSystemPrompt, userPrompt, true)
	if err != nil {
		prometheus.RecordGenerationError("analysis")
		return nil, err
	}

	var data model.AnalysisData
	if err := json.Unmarshal([]byte(stripFences(text)), &data); err != nil {
		prometheus.RecordGenerationError("analysis")
		return nil, &GenerationError{Op: "analysis", Err: fmt.Errorf("parse model JSON: %w", err)}
	}

	if err := g.validate.Validate(&data); err != nil {
		prometheus.RecordGenerationError("analysis")
		return nil, &GenerationError{Op: "analysis", Err: fmt.Errorf("model output failed contract validation: %w", err)}
	}

	prometheus.ReportGenerationCounter.Inc()
	return &data, nil
}

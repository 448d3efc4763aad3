package llm

import (
	"context"
	"fmt"
	"strings"

	"insight-service/internal/model"
	"insight-service/prometheus"
)

// BrandGenerator produces brand-strategy statements. One generator serves all
// five kinds; the kind's registry entry supplies the system prompt.
type BrandGenerator struct {
	client *Client
}

// NewBrandGenerator creates a brand statement generator backed by the given client
func NewBrandGenerator(client *Client) *BrandGenerator {
	return &BrandGenerator{client: client}
}

// Generate turns the user's free-text description into a single generated
// statement for the given brand kind.
func (g *BrandGenerator) Generate(ctx context.Context, kind model.BrandKind, input string) (string, error) {
	text, err := g.client.Complete(ctx, kind.SystemPrompt, input, false)
	if err != nil {
		prometheus.RecordGenerationError(kind.Name)
		return "", err
	}

	statement := strings.TrimSpace(text)
	if statement == "" {
		prometheus.RecordGenerationError(kind.Name)
		return "", &GenerationError{Op: kind.Name, Err: fmt.Errorf("model returned empty statement")}
	}

	prometheus.BrandGenerationCounter.WithLabelValues(kind.Name).Inc()
	return statement, nil
}

package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/tripflow/tripflow/internal/domain"
	"github.com/tripflow/tripflow/internal/llm"
)

const (
	generatorSystemPrompt = "You are a professional travel planner. Create detailed, practical itineraries."
	itineraryTemperature  = 0.7
)

// Generator produces free-text itineraries from a fully collected
// session.
type Generator struct {
	client        llm.Client
	defaultOrigin string
}

// NewGenerator creates a generator. defaultOrigin is used when the
// session has no departure point.
func NewGenerator(client llm.Client, defaultOrigin string) *Generator {
	return &Generator{client: client, defaultOrigin: defaultOrigin}
}

// Generate calls the model at a creative temperature. Callers decide
// what to do with an error; itinerary failure is not fatal to the
// conversation.
func (g *Generator) Generate(ctx context.Context, s *domain.Session) (string, error) {
	origin := s.FlyingFrom
	if origin == "" {
		origin = g.defaultOrigin
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt,
		"Create a detailed travel itinerary for a trip from %s to %s starting on %s for %d days. ",
		origin, s.Destination, s.StartDate, s.TripDuration)
	prompt.WriteString("Format the response as a well-structured itinerary with day-by-day activities, " +
		"including morning, afternoon, and evening activities. Make it engaging and practical.")
	if s.Theme != "" {
		fmt.Fprintf(&prompt, " Focus on %s-themed activities.", s.Theme)
	}

	return g.client.Complete(ctx, generatorSystemPrompt, prompt.String(), itineraryTemperature)
}

package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/tripflow/tripflow/internal/dates"
	"github.com/tripflow/tripflow/internal/domain"
	"github.com/tripflow/tripflow/internal/llm"
)

const extractionPrompt = `You are an AI travel assistant. Extract the following fields from the user's message and return only a JSON object:

{
  "destination": "...",
  "flying_from": "...",
  "start_date": "...",
  "end_date": "...",
  "trip_duration": ...,
  "travel_type": "...",
  "region_preference": "domestic" or "international" or null
}

- If any value is missing or cannot be clearly determined, use null.
- Only reply with the JSON object, without explanation or extra formatting.
- For trip_duration, extract number of days as integer.
- For dates, use YYYY-MM-DD format.`

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// Extractor turns free-form user text into a typed partial record of
// trip fields via a deterministic model call.
type Extractor struct {
	client llm.Client
	now    func() time.Time
}

// NewExtractor creates an extractor. now is used as the reference point
// for relative date phrases; nil means time.Now.
func NewExtractor(client llm.Client, now func() time.Time) *Extractor {
	if now == nil {
		now = time.Now
	}
	return &Extractor{client: client, now: now}
}

// Extract normalizes date phrases in userText, asks the model for a
// strict-JSON field record and decodes the first {...} span of the
// reply. A missing or malformed JSON object is an error the caller is
// expected to recover from by asking for fields directly.
func (e *Extractor) Extract(ctx context.Context, userText string) (*domain.ExtractedFields, error) {
	normalized := dates.Normalize(userText, e.now())

	reply, err := e.client.Complete(ctx, extractionPrompt, strings.TrimSpace(normalized), 0)
	if err != nil {
		return nil, fmt.Errorf("extraction call: %w", err)
	}

	raw := jsonObjectRe.FindString(reply)
	if raw == "" {
		return nil, errors.New("no JSON object in model reply")
	}

	var payload struct {
		Destination      *string         `json:"destination"`
		FlyingFrom       *string         `json:"flying_from"`
		StartDate        *string         `json:"start_date"`
		EndDate          *string         `json:"end_date"`
		TripDuration     json.RawMessage `json:"trip_duration"`
		TravelType       *string         `json:"travel_type"`
		RegionPreference *string         `json:"region_preference"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("decode extraction JSON: %w", err)
	}

	return &domain.ExtractedFields{
		Destination:      cleanValue(payload.Destination),
		FlyingFrom:       cleanValue(payload.FlyingFrom),
		StartDate:        cleanValue(payload.StartDate),
		EndDate:          cleanValue(payload.EndDate),
		TripDuration:     parseDuration(payload.TripDuration),
		TravelType:       cleanValue(payload.TravelType),
		RegionPreference: cleanValue(payload.RegionPreference),
	}, nil
}

// cleanValue normalizes the junk tokens models emit for "nothing here".
func cleanValue(v *string) string {
	if v == nil {
		return ""
	}
	s := strings.TrimSpace(*v)
	switch s {
	case "", "null", "None":
		return ""
	}
	return s
}

// parseDuration accepts only a positive JSON integer; anything else
// (floats, numeric strings, null) counts as absent.
func parseDuration(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0
	}
	if n <= 0 {
		return 0
	}
	return n
}

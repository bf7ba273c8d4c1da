// Package domain holds the conversation data model.
package domain

import (
	"time"
)

// Step identifies where a session is in the planning flow.
type Step string

const (
	StepGreeting            Step = "greeting"
	StepGatheringInfo       Step = "gathering_info"
	StepGeneratingItinerary Step = "generating_itinerary"
	StepCompleted           Step = "completed"
)

// Message roles.
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// Required trip fields, reported by MissingFields in this order.
const (
	FieldDestination  = "destination"
	FieldFlyingFrom   = "flying_from"
	FieldStartDate    = "start_date"
	FieldTripDuration = "trip_duration"
)

const isoDate = "2006-01-02"

// Message is one entry in the append-only conversation log.
type Message struct {
	Role      string    `json:"role" bson:"role"`
	Content   string    `json:"content" bson:"content"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// Session is the full state of one conversation, keyed by SessionID.
// Empty strings and a zero TripDuration mean "not collected yet".
type Session struct {
	SessionID    string    `json:"session_id" bson:"session_id"`
	Destination  string    `json:"destination,omitempty" bson:"destination,omitempty"`
	FlyingFrom   string    `json:"flying_from,omitempty" bson:"flying_from,omitempty"`
	StartDate    string    `json:"start_date,omitempty" bson:"start_date,omitempty"`
	EndDate      string    `json:"end_date,omitempty" bson:"end_date,omitempty"`
	TripDuration int       `json:"trip_duration,omitempty" bson:"trip_duration,omitempty"`
	Theme        string    `json:"theme,omitempty" bson:"theme,omitempty"`
	Scope        string    `json:"scope,omitempty" bson:"scope,omitempty"`
	Itinerary    string    `json:"itinerary,omitempty" bson:"itinerary,omitempty"`
	Step         Step      `json:"conversation_step" bson:"conversation_step"`
	Missing      []string  `json:"missing_fields" bson:"missing_fields"`
	Messages     []Message `json:"messages" bson:"messages"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// ExtractedFields is a best-effort partial record produced by entity
// extraction. Empty values mean the field was not extracted.
type ExtractedFields struct {
	Destination      string
	FlyingFrom       string
	StartDate        string
	EndDate          string
	TripDuration     int
	TravelType       string
	RegionPreference string
}

// NewSession creates a fresh session in the greeting step.
func NewSession(sessionID string) *Session {
	now := time.Now()
	return &Session{
		SessionID: sessionID,
		Step:      StepGreeting,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddMessage appends to the conversation log. The log is never truncated.
func (s *Session) AddMessage(role, content string) {
	now := time.Now()
	s.Messages = append(s.Messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: now,
	})
	s.UpdatedAt = now
}

// MissingFields returns the required fields not collected yet, in the
// fixed asking order.
func (s *Session) MissingFields() []string {
	var missing []string
	if s.Destination == "" {
		missing = append(missing, FieldDestination)
	}
	if s.FlyingFrom == "" {
		missing = append(missing, FieldFlyingFrom)
	}
	if s.StartDate == "" {
		missing = append(missing, FieldStartDate)
	}
	if s.TripDuration == 0 {
		missing = append(missing, FieldTripDuration)
	}
	return missing
}

// Merge writes extracted values into the session, but only into fields
// that are still unset. A value confirmed on an earlier turn is never
// overwritten by a later extraction within the same planning cycle.
func (s *Session) Merge(f *ExtractedFields) {
	if f == nil {
		return
	}
	if s.Destination == "" {
		s.Destination = f.Destination
	}
	if s.FlyingFrom == "" {
		s.FlyingFrom = f.FlyingFrom
	}
	if s.StartDate == "" {
		s.StartDate = f.StartDate
	}
	if s.EndDate == "" {
		s.EndDate = f.EndDate
	}
	if s.TripDuration == 0 && f.TripDuration > 0 {
		s.TripDuration = f.TripDuration
	}
	if s.Theme == "" {
		s.Theme = f.TravelType
	}
	if s.Scope == "" {
		s.Scope = f.RegionPreference
	}
	s.DeriveDuration()
	s.UpdatedAt = time.Now()
}

// DeriveDuration fills TripDuration from the start/end date difference
// when the duration itself was not given. A set duration is never
// recomputed, and a non-positive difference leaves it unset so the
// duration gets asked for explicitly.
func (s *Session) DeriveDuration() {
	if s.TripDuration != 0 || s.StartDate == "" || s.EndDate == "" {
		return
	}
	start, err := time.Parse(isoDate, s.StartDate)
	if err != nil {
		return
	}
	end, err := time.Parse(isoDate, s.EndDate)
	if err != nil {
		return
	}
	days := int(end.Sub(start).Hours() / 24)
	if days > 0 {
		s.TripDuration = days
	}
}

// Reset clears all trip fields and the itinerary for a new planning
// cycle. The message log is kept.
func (s *Session) Reset() {
	s.Destination = ""
	s.FlyingFrom = ""
	s.StartDate = ""
	s.EndDate = ""
	s.TripDuration = 0
	s.Theme = ""
	s.Scope = ""
	s.Itinerary = ""
	s.Step = StepGatheringInfo
	s.Missing = s.MissingFields()
	s.UpdatedAt = time.Now()
}

// Clone returns a deep copy, so stores can hand out snapshots without
// sharing the message slice.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Missing = append([]string(nil), s.Missing...)
	cp.Messages = append([]Message(nil), s.Messages...)
	return &cp
}

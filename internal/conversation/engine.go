// Package conversation implements the slot-filling dialogue manager:
// entity extraction, the turn-by-turn state machine and itinerary
// generation.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/tripflow/tripflow/internal/domain"
	"github.com/tripflow/tripflow/internal/llm"
	"github.com/tripflow/tripflow/internal/store"
)

// Event types emitted during a turn.
const (
	EventMessage     = "message"
	EventItinerary   = "itinerary"
	EventStateUpdate = "state_update"
)

// Event is one outgoing item in a turn's response stream.
type Event struct {
	Type    string          `json:"type"`
	Content string          `json:"content,omitempty"`
	State   *domain.Session `json:"state,omitempty"`
}

// Canned responses.
const (
	greetingResponse = "Hi there! I'm Travel Bot, your AI travel assistant. " +
		"How can I help you plan your next adventure? " +
		"You can tell me about your travel plans, like 'I want to plan a 3-day trip to Paris' " +
		"or 'I'm looking for a romantic getaway for 5 days'."

	directStartResponse = "Hello! I'm Travel Bot, your AI travel assistant. " +
		"I see you're ready to plan a trip! Let me help you with that."

	followUpResponse = "Would you like me to adjust anything in your itinerary or help you plan another trip?"

	newTripResponse = "Great! I'd be happy to help you plan another trip. " +
		"What kind of adventure are you thinking of next?"

	completedHelpResponse = "I'm here to help with your travel planning! " +
		"You can ask me to modify your itinerary, plan a new trip, or ask any travel-related questions."

	itineraryApology = "I apologize, but I encountered an error while generating your itinerary. Please try again."
)

// Config tunes engine behavior.
type Config struct {
	// DefaultOrigin is the departure fallback for itinerary prompts.
	DefaultOrigin string
	// GreetingPause is the delay after the fall-through welcome message.
	GreetingPause time.Duration
	// ThinkPause is the delay before itinerary generation starts.
	ThinkPause time.Duration
	// Now overrides the clock for date normalization; nil means time.Now.
	Now func() time.Time
}

// Engine drives the conversation state machine. Turns for the same
// session id are serialized; turns for different sessions run freely.
type Engine struct {
	repo      store.Repository
	extractor *Extractor
	generator *Generator

	greetingPause time.Duration
	thinkPause    time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEngine wires the extractor and generator onto the given model
// client and repository.
func NewEngine(repo store.Repository, client llm.Client, cfg Config) *Engine {
	return &Engine{
		repo:          repo,
		extractor:     NewExtractor(client, cfg.Now),
		generator:     NewGenerator(client, cfg.DefaultOrigin),
		greetingPause: cfg.GreetingPause,
		thinkPause:    cfg.ThinkPause,
		locks:         make(map[string]*sync.Mutex),
	}
}

// Respond runs one conversation turn and yields the outgoing events in
// order. Recoverable failures (extraction, generation, persistence)
// degrade to scripted fallbacks inside the turn; the only yielded error
// is context cancellation.
func (e *Engine) Respond(ctx context.Context, sessionID, message string) iter.Seq2[*Event, error] {
	return func(yield func(*Event, error) bool) {
		unlock := e.lockSession(sessionID)
		defer unlock()

		s := e.loadOrCreate(ctx, sessionID)
		s.AddMessage(domain.RoleUser, message)

		// emit appends the bot message, persists the session, then
		// yields, so data loss on a mid-turn failure is bounded to the
		// latest unsaved event.
		emit := func(eventType, content string) bool {
			s.AddMessage(domain.RoleBot, content)
			e.save(ctx, s)
			return yield(&Event{Type: eventType, Content: content}, nil)
		}

		if s.Step == domain.StepGreeting {
			if IsGreeting(message) {
				emit(EventMessage, greetingResponse)
				return
			}
			// The user skipped pleasantries and gave travel info
			// directly: welcome them and fall through to extraction in
			// this same turn.
			s.Step = domain.StepGatheringInfo
			if !emit(EventMessage, directStartResponse) {
				return
			}
			if err := e.pause(ctx, e.greetingPause); err != nil {
				yield(nil, err)
				return
			}
		}

		switch s.Step {
		case domain.StepGatheringInfo, domain.StepGeneratingItinerary:
			e.gatherAndGenerate(ctx, s, message, emit, yield)
		case domain.StepCompleted:
			lower := strings.ToLower(message)
			if strings.Contains(lower, "another trip") || strings.Contains(lower, "new trip") {
				s.Reset()
				emit(EventMessage, newTripResponse)
				return
			}
			emit(EventMessage, completedHelpResponse)
		}
	}
}

func (e *Engine) gatherAndGenerate(ctx context.Context, s *domain.Session, message string,
	emit func(string, string) bool, yield func(*Event, error) bool) {

	s.Step = domain.StepGatheringInfo

	fields, err := e.extractor.Extract(ctx, message)
	if err != nil {
		// Recoverable: the state stays as it was and the flow falls back
		// to asking for the first missing field.
		slog.Warn("entity extraction failed", "session_id", s.SessionID, "error", err)
	} else {
		s.Merge(fields)
	}
	s.Missing = s.MissingFields()

	if len(s.Missing) > 0 {
		question := slotQuestions[s.Missing[0]]
		emit(EventMessage, "Great! I have some information about your trip. "+question)
		return
	}

	s.Step = domain.StepGeneratingItinerary
	confirmation := fmt.Sprintf(
		"Perfect! I have all the information I need:\n"+
			"• Destination: %s\n"+
			"• From: %s\n"+
			"• Start Date: %s\n"+
			"• Duration: %d days\n\n"+
			"Let me create a detailed itinerary for you...",
		s.Destination, s.FlyingFrom, s.StartDate, s.TripDuration)
	if !emit(EventMessage, confirmation) {
		return
	}

	if err := e.pause(ctx, e.thinkPause); err != nil {
		yield(nil, err)
		return
	}

	itinerary, err := e.generator.Generate(ctx, s)
	if err != nil {
		slog.Warn("itinerary generation failed", "session_id", s.SessionID, "error", err)
		itinerary = itineraryApology
	}
	s.Itinerary = itinerary
	s.Step = domain.StepCompleted

	body := fmt.Sprintf("Here's your personalized %d-day itinerary for %s:\n\n%s",
		s.TripDuration, s.Destination, itinerary)
	if !emit(EventItinerary, body) {
		return
	}

	emit(EventMessage, followUpResponse)
}

// loadOrCreate fetches the session or starts a fresh one. A store read
// failure degrades to a fresh in-memory session for this turn.
func (e *Engine) loadOrCreate(ctx context.Context, sessionID string) *domain.Session {
	s, err := e.repo.Load(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.Warn("load session failed, starting fresh", "session_id", sessionID, "error", err)
		}
		return domain.NewSession(sessionID)
	}
	return s
}

// save persists the session. Persistence failures are logged and the
// turn continues on in-memory state.
func (e *Engine) save(ctx context.Context, s *domain.Session) {
	if err := e.repo.Save(ctx, s); err != nil {
		slog.Warn("save session failed", "session_id", s.SessionID, "error", err)
	}
}

func (e *Engine) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// lockSession serializes turns per session id so two concurrent
// requests for one session cannot interleave their state writes.
func (e *Engine) lockSession(sessionID string) func() {
	e.mu.Lock()
	l, ok := e.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[sessionID] = l
	}
	e.mu.Unlock()

	l.Lock()
	return l.Unlock
}

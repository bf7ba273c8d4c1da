package conversation

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/tripflow/tripflow/internal/domain"
	"github.com/tripflow/tripflow/internal/store"
)

const oneShotExtraction = `{"destination": "Paris", "flying_from": "New York",` +
	` "start_date": "2025-01-10", "trip_duration": 3}`

func newTestEngine(repo store.Repository, client *fakeClient) *Engine {
	return NewEngine(repo, client, Config{
		DefaultOrigin: "India",
		Now:           fixedNow,
	})
}

func collect(t *testing.T, e *Engine, sessionID, message string) []*Event {
	t.Helper()
	var events []*Event
	for ev, err := range e.Respond(context.Background(), sessionID, message) {
		if err != nil {
			t.Fatalf("Respond yielded error: %v", err)
		}
		events = append(events, ev)
	}
	return events
}

func eventTypes(events []*Event) []string {
	types := make([]string, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	return types
}

func TestGreetingStaysInGreeting(t *testing.T) {
	t.Parallel()

	repo := store.NewMemory()
	e := newTestEngine(repo, &fakeClient{})

	events := collect(t, e, "s1", "hi")
	if len(events) != 1 || events[0].Type != EventMessage {
		t.Fatalf("events = %v, want one welcome message", eventTypes(events))
	}

	s, err := repo.Load(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if s.Step != domain.StepGreeting {
		t.Errorf("Step = %q, want greeting unchanged", s.Step)
	}
	if len(s.Messages) != 2 {
		t.Errorf("message log has %d entries, want user+bot", len(s.Messages))
	}
}

func TestOneShotTurnCompletesItinerary(t *testing.T) {
	t.Parallel()

	repo := store.NewMemory()
	client := &fakeClient{replies: []string{
		oneShotExtraction,
		"Day 1: Louvre. Day 2: Montmartre. Day 3: Versailles.",
	}}
	e := newTestEngine(repo, client)

	// Session already past the greeting.
	s := domain.NewSession("s1")
	s.Step = domain.StepGatheringInfo
	if err := repo.Save(context.Background(), s); err != nil {
		t.Fatal(err)
	}

	events := collect(t, e, "s1", "I want a 3-day trip to Paris from New York starting 2025-01-10")

	want := []string{EventMessage, EventItinerary, EventMessage}
	if !reflect.DeepEqual(eventTypes(events), want) {
		t.Fatalf("event types = %v, want %v (confirmation, itinerary, follow-up)", eventTypes(events), want)
	}

	got, err := repo.Load(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.Step != domain.StepCompleted {
		t.Errorf("Step = %q, want completed", got.Step)
	}
	if got.Destination != "Paris" || got.FlyingFrom != "New York" ||
		got.StartDate != "2025-01-10" || got.TripDuration != 3 {
		t.Errorf("trip fields not filled: %+v", got)
	}
	if len(got.Missing) != 0 {
		t.Errorf("Missing = %v, want empty", got.Missing)
	}
	if got.Itinerary == "" {
		t.Error("Itinerary not stored")
	}
}

func TestGreetingFallThroughRunsExtractionSameTurn(t *testing.T) {
	t.Parallel()

	repo := store.NewMemory()
	client := &fakeClient{replies: []string{
		oneShotExtraction,
		"A lovely itinerary.",
	}}
	e := newTestEngine(repo, client)

	events := collect(t, e, "s1", "I want a 3-day trip to Paris from New York starting 2025-01-10")

	// Welcome, confirmation, itinerary, follow-up in one turn.
	want := []string{EventMessage, EventMessage, EventItinerary, EventMessage}
	if !reflect.DeepEqual(eventTypes(events), want) {
		t.Fatalf("event types = %v, want %v", eventTypes(events), want)
	}
}

func TestMissingFieldsAskOneQuestionPerTurn(t *testing.T) {
	t.Parallel()

	repo := store.NewMemory()
	client := &fakeClient{replies: []string{`{"destination": "Paris"}`}}
	e := newTestEngine(repo, client)

	s := domain.NewSession("s1")
	s.Step = domain.StepGatheringInfo
	if err := repo.Save(context.Background(), s); err != nil {
		t.Fatal(err)
	}

	events := collect(t, e, "s1", "I want to go to Paris")
	if len(events) != 1 {
		t.Fatalf("got %d events, want exactly one clarifying question", len(events))
	}
	if want := slotQuestions[domain.FieldFlyingFrom]; !strings.Contains(events[0].Content, want) {
		t.Errorf("question = %q, want it to ask %q", events[0].Content, want)
	}

	got, _ := repo.Load(context.Background(), "s1")
	wantMissing := []string{domain.FieldFlyingFrom, domain.FieldStartDate, domain.FieldTripDuration}
	if !reflect.DeepEqual(got.Missing, wantMissing) {
		t.Errorf("Missing = %v, want %v", got.Missing, wantMissing)
	}
}

func TestExtractionFailureAsksForFirstMissingField(t *testing.T) {
	t.Parallel()

	repo := store.NewMemory()
	client := &fakeClient{err: errors.New("model unavailable")}
	e := newTestEngine(repo, client)

	s := domain.NewSession("s1")
	s.Step = domain.StepGatheringInfo
	if err := repo.Save(context.Background(), s); err != nil {
		t.Fatal(err)
	}

	events := collect(t, e, "s1", "somewhere warm")
	if len(events) != 1 {
		t.Fatalf("got %d events, want one question", len(events))
	}
	if want := slotQuestions[domain.FieldDestination]; !strings.Contains(events[0].Content, want) {
		t.Errorf("question = %q, want it to ask %q", events[0].Content, want)
	}
}

func TestGenerationFailureDegradesToApology(t *testing.T) {
	t.Parallel()

	repo := store.NewMemory()
	client := &fakeClient{
		replies: []string{oneShotExtraction},
		err:     errors.New("model timeout"),
	}
	e := newTestEngine(repo, client)

	s := domain.NewSession("s1")
	s.Step = domain.StepGatheringInfo
	if err := repo.Save(context.Background(), s); err != nil {
		t.Fatal(err)
	}

	events := collect(t, e, "s1", "3-day trip to Paris from New York starting 2025-01-10")
	want := []string{EventMessage, EventItinerary, EventMessage}
	if !reflect.DeepEqual(eventTypes(events), want) {
		t.Fatalf("event types = %v, want %v", eventTypes(events), want)
	}
	if !strings.Contains(events[1].Content, itineraryApology) {
		t.Errorf("itinerary event %q does not carry the apology", events[1].Content)
	}

	got, _ := repo.Load(context.Background(), "s1")
	if got.Step != domain.StepCompleted {
		t.Errorf("Step = %q, generation failure must still complete the conversation", got.Step)
	}
}

func TestCompletedResetOnAnotherTrip(t *testing.T) {
	t.Parallel()

	repo := store.NewMemory()
	e := newTestEngine(repo, &fakeClient{})

	s := domain.NewSession("s1")
	s.Step = domain.StepCompleted
	s.Destination = "Paris"
	s.FlyingFrom = "New York"
	s.StartDate = "2025-01-10"
	s.TripDuration = 3
	s.Itinerary = "Day 1: ..."
	if err := repo.Save(context.Background(), s); err != nil {
		t.Fatal(err)
	}

	events := collect(t, e, "s1", "I want to plan another trip")
	if len(events) != 1 {
		t.Fatalf("got %d events, want one reset acknowledgement", len(events))
	}

	got, _ := repo.Load(context.Background(), "s1")
	if got.Step != domain.StepGatheringInfo {
		t.Errorf("Step = %q, want gathering_info after reset", got.Step)
	}
	if got.Destination != "" || got.Itinerary != "" || got.TripDuration != 0 {
		t.Error("trip fields not cleared on reset")
	}
	wantMissing := []string{
		domain.FieldDestination, domain.FieldFlyingFrom,
		domain.FieldStartDate, domain.FieldTripDuration,
	}
	if !reflect.DeepEqual(got.Missing, wantMissing) {
		t.Errorf("Missing = %v, want %v", got.Missing, wantMissing)
	}
}

func TestCompletedOtherMessageGetsHelp(t *testing.T) {
	t.Parallel()

	repo := store.NewMemory()
	e := newTestEngine(repo, &fakeClient{})

	s := domain.NewSession("s1")
	s.Step = domain.StepCompleted
	if err := repo.Save(context.Background(), s); err != nil {
		t.Fatal(err)
	}

	events := collect(t, e, "s1", "thanks!")
	if len(events) != 1 || events[0].Content != completedHelpResponse {
		t.Fatalf("events = %v, want the generic help message", events)
	}

	got, _ := repo.Load(context.Background(), "s1")
	if got.Step != domain.StepCompleted {
		t.Errorf("Step = %q, want completed unchanged", got.Step)
	}
}

func TestSaveFailureDoesNotAbortTurn(t *testing.T) {
	t.Parallel()

	repo := &failingRepo{}
	e := newTestEngine(repo, &fakeClient{})

	events := collect(t, e, "s1", "hi")
	if len(events) != 1 {
		t.Fatalf("got %d events, want the turn to continue despite save failures", len(events))
	}
}

// failingRepo loses every write.
type failingRepo struct{}

func (f *failingRepo) Load(context.Context, string) (*domain.Session, error) {
	return nil, store.ErrNotFound
}
func (f *failingRepo) Save(context.Context, *domain.Session) error {
	return errors.New("storage down")
}
func (f *failingRepo) Delete(context.Context, string) error   { return nil }
func (f *failingRepo) List(context.Context) ([]*domain.Session, error) { return nil, nil }
func (f *failingRepo) Ping(context.Context) error             { return nil }
func (f *failingRepo) Close() error                           { return nil }

